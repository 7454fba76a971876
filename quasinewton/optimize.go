// Copyright ©2026 radiocosmo. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package quasinewton implements dense BFGS and limited-memory BFGS
// minimizers with a strong-Wolfe line search, for fitting calibration and
// sky-model parameters against visibility data.
//
// The solvers consume the forward model only through an objective closure:
// a zero-argument callable that evaluates the model at the current parameter
// values, fills the parameter gradient storage, and returns the scalar loss.
// Gradients are read from the parameters after each call, never passed in.
//
// References:
//
//	[1] Nocedal & Wright, "Numerical Optimization", (2000) 2nd Ed.
//	[2] Jiang, Byrd, Eskow & Schnabel, "Preconditioned LBFGS", (2004)
package quasinewton

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/radiocosmo/skyfit/paramvec"
)

const (
	zero = 0.0
	one  = 1.0

	// curvatureFloor gates the rank-2 update: yᵀs must exceed it or the
	// update is skipped to keep H positive definite.
	curvatureFloor = 1e-10
)

// ErrUnsupportedLineSearch reports an unrecognized Config.LineSearch value.
var ErrUnsupportedLineSearch = errors.New("quasinewton: unsupported line search")

// ErrDenseStartingHessian reports a dense starting Hessian passed to the
// limited-memory solver, which requires a structured representation.
var ErrDenseStartingHessian = errors.New("quasinewton: limited-memory solver requires a structured starting Hessian")

// Closure evaluates the forward model at the current parameter values,
// fills the parameter gradient storage, and returns the scalar loss.
type Closure func() float64

// LineSearchFn selects the step-length strategy.
type LineSearchFn string

const (
	// FixedStep takes the seeded step directly without a search.
	FixedStep LineSearchFn = ""
	// StrongWolfeSearch refines the step until the strong Wolfe
	// conditions hold.
	StrongWolfeSearch LineSearchFn = "strong_wolfe"
)

// ExitReason records why the most recent Step stopped iterating.
// All reasons are expected steady-state outcomes, not failures.
type ExitReason int

const (
	// ExitIterBudget the inner iteration budget was exhausted.
	ExitIterBudget ExitReason = 0
	// ExitNoDescent the search direction was not a sufficient descent direction.
	ExitNoDescent ExitReason = 1
	// ExitOptimal first-order optimality was reached: 𝚖𝚊𝚡|gᵢ| ≤ 𝚝𝚘𝚕𝚎𝚛𝚊𝚗𝚌𝚎_𝚐𝚛𝚊𝚍.
	ExitOptimal ExitReason = 2
	// ExitNoProgress the step moved no coordinate by more than the change tolerance.
	ExitNoProgress ExitReason = 3
	// ExitFlatObjective the objective changed by less than the change tolerance.
	ExitFlatObjective ExitReason = 4
)

func (e ExitReason) String() string {
	switch e {
	case ExitIterBudget:
		return "iteration budget exhausted"
	case ExitNoDescent:
		return "lack of descent"
	case ExitOptimal:
		return "first-order optimality reached"
	case ExitNoProgress:
		return "no progress"
	case ExitFlatObjective:
		return "flat objective"
	}
	return fmt.Sprintf("ExitReason(%d)", int(e))
}

// LogLevel controls the frequency and type of logger output.
type LogLevel int

const (
	// LogNoop no output is generated.
	LogNoop LogLevel = -1
	// LogLast print only the exit line of each Step call.
	LogLast LogLevel = 0
	// LogEval print f and |g|∞ at every inner iteration.
	LogEval LogLevel = 1
	// LogTrace print line-search details of every iteration.
	LogTrace LogLevel = 99
)

// Logger handles progress output for the solvers.
// The writer must be safe for the caller's own use; the solvers are
// single-threaded and never write concurrently.
type Logger struct {
	Level LogLevel
	Msg   io.Writer
}

func (l *Logger) enable(level LogLevel) bool {
	return l != nil && l.Level >= level
}

func (l *Logger) log(format string, a ...any) {
	if len(a) > 0 {
		_, _ = fmt.Fprintf(l.Msg, format, a...)
	} else {
		_, _ = fmt.Fprint(l.Msg, format)
	}
}

// Config specifies a quasi-Newton solver.
type Config struct {
	// LR is the base step size (default 1).
	LR float64
	// MaxIter is the maximal number of inner iterations per Step call (default 20).
	MaxIter int
	// MaxLineSearchEval is the maximal number of function evaluations per
	// line search (default 10).
	MaxLineSearchEval int
	// ToleranceGrad is the termination tolerance on first-order optimality
	// (default 1e-10).
	ToleranceGrad float64
	// ToleranceChange is the termination tolerance on function value and
	// parameter changes (default 1e-12).
	ToleranceChange float64
	// LineSearch is FixedStep or StrongWolfeSearch.
	LineSearch LineSearchFn

	// HistorySize bounds the limited-memory correction history (default 100).
	// Ignored by the dense solver.
	HistorySize int
	// NoHdiagUpdate disables the per-step diagonal rescaling of the
	// limited-memory starting Hessian ([1] Eqn 7.20). Ignored by the
	// dense solver.
	NoHdiagUpdate bool
}

func (cfg *Config) defaults() error {
	if cfg.LR == 0 {
		cfg.LR = 1
	}
	if cfg.MaxIter == 0 {
		cfg.MaxIter = 20
	}
	if cfg.MaxLineSearchEval == 0 {
		cfg.MaxLineSearchEval = 10
	}
	if cfg.ToleranceGrad == 0 {
		cfg.ToleranceGrad = 1e-10
	}
	if cfg.ToleranceChange == 0 {
		cfg.ToleranceChange = 1e-12
	}
	if cfg.HistorySize == 0 {
		cfg.HistorySize = 100
	}
	switch {
	case cfg.MaxIter < 0:
		return errors.New("quasinewton: max iteration must be greater than 0")
	case cfg.MaxLineSearchEval < 0:
		return errors.New("quasinewton: max line-search evaluation must be greater than 0")
	case cfg.HistorySize < 0:
		return errors.New("quasinewton: history size must be greater than 0")
	case cfg.LineSearch != FixedStep && cfg.LineSearch != StrongWolfeSearch:
		return fmt.Errorf("%w %q", ErrUnsupportedLineSearch, cfg.LineSearch)
	}
	return nil
}

func newLogger(logger *Logger) *Logger {
	if logger == nil {
		return &Logger{Level: LogNoop, Msg: io.Discard}
	}
	if logger.Msg == nil {
		logger.Msg = os.Stdout
	}
	return logger
}

func checkParams(params []*paramvec.Param) error {
	if len(params) == 0 {
		return errors.New("quasinewton: at least one parameter is required")
	}
	if paramvec.Numel(params) == 0 {
		return errors.New("quasinewton: parameters are empty")
	}
	return nil
}
