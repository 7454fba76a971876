// Copyright ©2026 radiocosmo. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package quasinewton

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/radiocosmo/skyfit/paramvec"
)

// BFGS minimizes an objective with the dense BFGS algorithm ([1] §6.1).
// It stores an explicit N×N approximation to the inverse Hessian, updated
// each accepted step as
//
//	Hₖ₊₁ = VₖᵀHₖVₖ + ρₖsₖsₖᵀ
//
// where Vₖ = I - ρₖyₖsₖᵀ, sₖ = xₖ₊₁-xₖ, yₖ = gₖ₊₁-gₖ, ρₖ = 1/(yₖᵀsₖ),
// and the parameter update is xₖ₊₁ = xₖ + ɑₖpₖ with pₖ = -Hₖgₖ.
//
// H is symmetric positive definite by construction while the curvature
// condition yᵀs > 0 holds; updates failing it are skipped and optimization
// continues with the stale H. Until the first curvature-satisfying update,
// H defaults to (yᵀs / yᵀy)·I ([1] Eqn 6.20) or to a dense H0 supplied at
// construction.
//
// A BFGS instance is not safe for concurrent use; Step calls must be
// externally serialized.
type BFGS struct {
	solver
	h *mat.Dense

	// last accepted update, cached for diagnostics
	lastS, lastY       []float64
	lastRho, lastAlpha float64
}

// NewBFGS creates a dense BFGS solver over the parameter collection.
// h0 is an optional starting inverse-Hessian approximation: a full N×N
// dense matrix, or nil to defer to the scaled-identity heuristic of the
// first update. Use NewBFGSScaled for a scalar starting curvature.
func NewBFGS(params []*paramvec.Param, h0 *mat.Dense, cfg Config, logger *Logger) (*BFGS, error) {
	b := &BFGS{}
	if err := b.init(params, cfg, logger); err != nil {
		return nil, err
	}
	if h0 != nil {
		r, c := h0.Dims()
		if r != b.numel || c != b.numel {
			return nil, fmt.Errorf("quasinewton: starting Hessian is %d×%d, parameters want %d×%d",
				r, c, b.numel, b.numel)
		}
		var cp mat.Dense
		cp.CloneFrom(h0)
		b.h = &cp
	}
	return b, nil
}

// NewBFGSScaled creates a dense BFGS solver starting from the scaled
// identity c·I.
func NewBFGSScaled(params []*paramvec.Param, c float64, cfg Config, logger *Logger) (*BFGS, error) {
	b, err := NewBFGS(params, nil, cfg, logger)
	if err != nil {
		return nil, err
	}
	b.h = scaledIdentity(b.numel, c)
	return b, nil
}

// Step performs one optimization step of up to MaxIter inner iterations and
// returns the final loss. Loss and gradient are cached across calls, so
// repeated Step invocations warm-start from the previous state.
func (b *BFGS) Step(closure Closure) float64 {
	return b.step(closure, b)
}

// Hessian returns a copy of the current inverse-Hessian approximation,
// or nil before the first update.
func (b *BFGS) Hessian() *mat.Dense {
	if b.h == nil {
		return nil
	}
	var cp mat.Dense
	cp.CloneFrom(b.h)
	return &cp
}

// LastUpdate reports the most recent (s, y, rho, alpha) fed to the Hessian
// update, for diagnostics.
func (b *BFGS) LastUpdate() (s, y []float64, rho, alpha float64) {
	return b.lastS, b.lastY, b.lastRho, b.lastAlpha
}

// hvp computes the product H·v, or v itself while H is still unset
// (identity fallback on the first-ever iteration).
func (b *BFGS) hvp(v []float64) []float64 {
	if b.h == nil {
		return slices.Clone(v)
	}
	out := make([]float64, b.numel)
	vec := mat.NewVecDense(b.numel, out)
	vec.MulVec(b.h, mat.NewVecDense(b.numel, v))
	return out
}

// update applies the rank-2 BFGS update from the realized step s = ɑp and
// gradient difference y. On the first-ever update with no prior H the
// approximation initializes to (yᵀs / yᵀy)·I, avoiding an arbitrary
// starting curvature guess. The rank-2 part only applies when the curvature
// condition holds; otherwise the stale H is kept.
func (b *BFGS) update(s, y []float64, alpha float64) {
	ys := floats.Dot(y, s)
	if b.h == nil {
		b.h = scaledIdentity(b.numel, ys/floats.Dot(y, y))
	}

	b.lastS, b.lastY = s, y
	b.lastRho, b.lastAlpha = one/ys, alpha

	b.h = denseUpdate(b.h, s, y)
}
