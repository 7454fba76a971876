// Copyright ©2026 radiocosmo. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package quasinewton

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/radiocosmo/skyfit/paramvec"
)

// hessian is the per-solver curvature model: the dense solver materializes
// H, the limited-memory solver keeps an implicit history. Both expose the
// product H·v and the post-step update from realized (s, y).
type hessian interface {
	hvp(v []float64) []float64
	update(s, y []float64, alpha float64)
}

// solver carries the state shared by the dense and limited-memory drivers.
// It persists across Step calls, so curvature history is warm-started when
// Step is invoked once per mini-batch. A solver instance is not safe for
// concurrent use.
type solver struct {
	cfg    Config
	logger *Logger
	params []*paramvec.Param
	numel  int

	funcEvals int
	nIter     int
	loss      float64
	flatGrad  []float64
	hasLoss   bool
	exit      ExitReason
}

func (s *solver) init(params []*paramvec.Param, cfg Config, logger *Logger) error {
	if err := checkParams(params); err != nil {
		return err
	}
	if err := cfg.defaults(); err != nil {
		return err
	}
	s.cfg = cfg
	s.logger = newLogger(logger)
	s.params = params
	s.numel = paramvec.Numel(params)
	return nil
}

// Exit reports why the most recent Step stopped.
func (s *solver) Exit() ExitReason { return s.exit }

// Loss is the cached objective value after the most recent Step.
func (s *solver) Loss() float64 { return s.loss }

// Grad is the cached flattened gradient after the most recent Step.
// The returned slice is owned by the solver.
func (s *solver) Grad() []float64 { return s.flatGrad }

// NumIter is the cumulative inner iteration count across Step calls.
func (s *solver) NumIter() int { return s.nIter }

// FuncEvals is the cumulative objective evaluation count across Step calls.
func (s *solver) FuncEvals() int { return s.funcEvals }

func (s *solver) gatherFlatGrad() []float64 {
	return paramvec.FlattenGrad(s.params)
}

// updateParams moves the parameters along direction p by step alpha.
func (s *solver) updateParams(alpha float64, p []float64) {
	if err := paramvec.AddScaledInto(s.params, alpha, p); err != nil {
		panic(err)
	}
}

// directionalEvaluate moves the parameters along p by alpha, evaluates the
// closure, then restores the snapshot. The trial is transactional: the
// parameters hold their pre-trial values when it returns.
func (s *solver) directionalEvaluate(closure Closure, snap [][]float64, alpha float64, p []float64) (float64, []float64) {
	s.updateParams(alpha, p)
	loss := closure()
	flatGrad := s.gatherFlatGrad()
	paramvec.RestoreData(s.params, snap)
	return loss, flatGrad
}

// step runs up to MaxIter inner iterations against the curvature model h.
func (s *solver) step(closure Closure, h hessian) float64 {
	cfg := &s.cfg
	log := s.logger
	s.exit = ExitIterBudget

	// Initial f(x) and df/dx, unless cached from a prior Step call.
	var loss float64
	var flatGrad []float64
	if !s.hasLoss {
		loss = closure()
		flatGrad = s.gatherFlatGrad()
	} else {
		loss, flatGrad = s.loss, s.flatGrad
	}

	optCond := floats.Norm(flatGrad, math.Inf(1)) <= cfg.ToleranceGrad
	if optCond {
		s.exit = ExitOptimal
		s.loss, s.flatGrad, s.hasLoss = loss, flatGrad, true
		if log.enable(LogLast) {
			log.log("Converged on entry: %s\n", s.exit)
		}
		return loss
	}

	nIter := 0
	for nIter < cfg.MaxIter {

		// Step direction p = -H·g.
		p := h.hvp(flatGrad)
		floats.Scale(-1, p)

		// Step-size seed: normalize an arbitrarily scaled initial
		// gradient on the very first global iteration.
		var alpha float64
		if s.nIter == 0 {
			alpha = cfg.LR * math.Min(one, one/floats.Norm(flatGrad, 1))
		} else {
			alpha = cfg.LR
		}

		gp := floats.Dot(flatGrad, p)
		if gp > -cfg.ToleranceChange {
			s.exit = ExitNoDescent
			break
		}

		prevLoss := loss
		prevFlatGrad := flatGrad

		var lsEvals int
		switch cfg.LineSearch {
		case FixedStep:
			s.updateParams(alpha, p)
			loss = closure()
			flatGrad = s.gatherFlatGrad()
			optCond = floats.Norm(flatGrad, math.Inf(1)) <= cfg.ToleranceGrad
			lsEvals = 1

		case StrongWolfeSearch:
			snap := paramvec.CloneData(s.params)
			x := paramvec.Flatten(s.params)
			obj := func(_ []float64, alpha float64, p []float64) (float64, []float64) {
				return s.directionalEvaluate(closure, snap, alpha, p)
			}
			loss, flatGrad, alpha, lsEvals = StrongWolfe(obj, x, alpha, p, loss, flatGrad, gp,
				WolfeOptions{ToleranceChange: cfg.ToleranceChange, MaxEvals: cfg.MaxLineSearchEval})
			s.updateParams(alpha, p)
			optCond = floats.Norm(flatGrad, math.Inf(1)) <= cfg.ToleranceGrad
		}
		s.funcEvals += lsEvals

		if log.enable(LogEval) {
			log.log("At iterate %5d    f= %12.5e    |g|= %12.5e\n",
				s.nIter, loss, floats.Norm(flatGrad, math.Inf(1)))
		}
		if log.enable(LogTrace) {
			log.log("Line search: alpha= %12.5e  evals= %d\n", alpha, lsEvals)
		}

		if optCond {
			s.exit = ExitOptimal
			break
		}
		if math.Abs(alpha)*floats.Norm(p, math.Inf(1)) <= cfg.ToleranceChange {
			s.exit = ExitNoProgress
			break
		}
		if math.Abs(loss-prevLoss) < cfg.ToleranceChange {
			s.exit = ExitFlatObjective
			break
		}

		// Update the curvature model from the realized step.
		sk := make([]float64, s.numel)
		floats.ScaleTo(sk, alpha, p)
		yk := make([]float64, s.numel)
		floats.SubTo(yk, flatGrad, prevFlatGrad)
		h.update(sk, yk, alpha)

		nIter++
		s.nIter++
	}

	s.loss, s.flatGrad, s.hasLoss = loss, flatGrad, true

	if log.enable(LogLast) {
		log.log("Step finished after %d iterations: %s (f= %12.5e)\n", nIter, s.exit, loss)
	}
	return loss
}
