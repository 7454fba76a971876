// Copyright ©2026 radiocosmo. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package quasinewton

import (
	"gonum.org/v1/gonum/floats"

	"github.com/radiocosmo/skyfit/hessrep"
	"github.com/radiocosmo/skyfit/paramvec"
)

// LBFGS minimizes an objective with the limited-memory BFGS algorithm
// ([1] §7.2). Instead of a dense matrix it keeps bounded FIFO queues of the
// last HistorySize correction pairs (s, y) and computes the search direction
// implicitly through the two-loop recursion, at O(history × N) per
// iteration instead of O(N²).
//
// The starting matrix H0 is a structured hessrep representation (diagonal,
// sparse or partitioned), defaulting to the identity. Unless disabled, it
// is rescaled once per accepted step by the diagonal preconditioning
// heuristic ([1] Eqn 7.20, [2]).
//
// An LBFGS instance is not safe for concurrent use; Step calls must be
// externally serialized.
type LBFGS struct {
	solver
	h hessrep.Matrix

	histS, histY [][]float64
	histRho      []float64
	histAlpha    []float64

	hdiag    float64
	hasHdiag bool
}

// NewLBFGS creates a limited-memory BFGS solver over the parameter
// collection. h0 is an optional structured starting inverse Hessian; a
// dense hessrep.Dense is rejected, since materializing N×N storage defeats
// the limited-memory representation. nil defers to the identity.
func NewLBFGS(params []*paramvec.Param, h0 hessrep.Matrix, cfg Config, logger *Logger) (*LBFGS, error) {
	l := &LBFGS{}
	if err := l.init(params, cfg, logger); err != nil {
		return nil, err
	}
	if h0 != nil {
		if _, dense := h0.(*hessrep.Dense); dense {
			return nil, ErrDenseStartingHessian
		}
		if h0.Size() != l.numel {
			return nil, paramvec.ErrShapeMismatch
		}
		l.h = h0
	}
	return l, nil
}

// Step performs one optimization step of up to MaxIter inner iterations and
// returns the final loss. Correction history persists across calls.
func (l *LBFGS) Step(closure Closure) float64 {
	return l.step(closure, l)
}

// History returns the live correction queues (s, y, rho), ordered oldest to
// newest. The slices are owned by the solver.
func (l *LBFGS) History() (s, y [][]float64, rho []float64) {
	return l.histS, l.histY, l.histRho
}

// StepLengths returns the accepted step lengths paired with the live
// correction history, ordered oldest to newest, for diagnostics. The slice
// is owned by the solver.
func (l *LBFGS) StepLengths() []float64 { return l.histAlpha }

// StartingHessian returns the structured starting matrix, or nil before
// the first update when none was supplied.
func (l *LBFGS) StartingHessian() hessrep.Matrix { return l.h }

// Hdiag reports the current diagonal rescaling factor and whether one has
// been applied yet.
func (l *LBFGS) Hdiag() (float64, bool) { return l.hdiag, l.hasHdiag }

// hvp computes the implicit product H·v via the two-loop recursion.
func (l *LBFGS) hvp(v []float64) []float64 {
	return TwoLoopRecursion(v, l.histS, l.histY, l.histRho, l.h)
}

// update appends the correction pair (s, y) to the bounded history. The
// pair is only admitted when the curvature condition yᵀs > 0 holds with
// margin; the oldest entry is evicted once HistorySize is reached. When
// Hdiag updating is enabled, the starting matrix is rescaled so its
// effective scale becomes 1/(ρ·yᵀy) ([1] Eqn 7.20).
func (l *LBFGS) update(s, y []float64, alpha float64) {
	ys := floats.Dot(y, s)
	rho := one / ys

	if l.h == nil {
		l.h = hessrep.NewScalar(l.numel, one)
	}

	if ys <= curvatureFloor {
		if l.logger.enable(LogTrace) {
			l.logger.log("Skipping curvature update: y·s= %12.5e\n", ys)
		}
		return
	}

	if len(l.histS) == l.cfg.HistorySize {
		l.histS = l.histS[1:]
		l.histY = l.histY[1:]
		l.histRho = l.histRho[1:]
		l.histAlpha = l.histAlpha[1:]
	}
	l.histS = append(l.histS, s)
	l.histY = append(l.histY, y)
	l.histRho = append(l.histRho, rho)
	l.histAlpha = append(l.histAlpha, alpha)

	if !l.cfg.NoHdiagUpdate {
		newHdiag := one / (rho * floats.Dot(y, y))
		prev := one
		if l.hasHdiag {
			prev = l.hdiag
		}
		l.h.ScalarMul(newHdiag / prev)
		l.hdiag, l.hasHdiag = newHdiag, true
	}
}
