// Copyright ©2026 radiocosmo. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package quasinewton

import (
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/radiocosmo/skyfit/hessrep"
)

// TwoLoopRecursion computes the product of the implicit limited-memory
// inverse Hessian with vec, without forming an N×N matrix ([1] Algorithm
// 7.4). s, y and rho hold the correction history ordered oldest to newest;
// h0 is the starting matrix, or nil for the identity. Cost is
// O(history × N).
func TwoLoopRecursion(vec []float64, s, y [][]float64, rho []float64, h0 hessrep.Matrix) []float64 {
	n := len(s)

	// First loop: iterate backwards from the end of the history.
	q := slices.Clone(vec)
	alpha := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		alpha[i] = rho[i] * floats.Dot(s[i], q)
		floats.AddScaled(q, -alpha[i], y[i])
	}

	// Dot q into the starting matrix.
	r := slices.Clone(q)
	if h0 != nil {
		h0.Apply(r, q)
	}

	// Second loop.
	for i := 0; i < n; i++ {
		beta := rho[i] * floats.Dot(y[i], r)
		floats.AddScaled(r, alpha[i]-beta, s[i])
	}
	return r
}

// ImplicitToDense reconstructs an explicit dense inverse-Hessian
// approximation by replaying the rank-2 BFGS update over a correction
// history, starting from h0 (nil for the identity). Intended for
// diagnostics; the hot path never materializes the matrix.
func ImplicitToDense(h0 hessrep.Matrix, s, y [][]float64) *mat.Dense {
	if len(s) == 0 {
		if h0 != nil {
			return h0.ToDense()
		}
		return nil
	}
	n := len(s[0])

	var h *mat.Dense
	if h0 != nil {
		h = h0.ToDense()
	} else {
		h = scaledIdentity(n, one)
	}

	for k := range s {
		h = denseUpdate(h, s[k], y[k])
	}
	return h
}

// scaledIdentity builds c·I of order n.
func scaledIdentity(n int, c float64) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, c)
	}
	return m
}

// denseUpdate applies one rank-2 BFGS update to h and returns the new
// matrix ([1] Eqn 6.17):
//
//	H ← VᵀHV + ρssᵀ   with   V = I - ρysᵀ,  ρ = 1/(yᵀs)
//
// The update is skipped, returning h unchanged, unless the curvature
// condition yᵀs > 0 holds with margin; an indefinite update would destroy
// positive definiteness. A new matrix is constructed each call, so the
// stored approximation never aliases update temporaries.
func denseUpdate(h *mat.Dense, s, y []float64) *mat.Dense {
	n := len(s)
	ys := floats.Dot(y, s)
	if ys <= curvatureFloor {
		return h
	}
	rho := one / ys

	// V = I - ρ·y·sᵀ
	v := mat.NewDense(n, n, nil)
	v.Outer(-rho, mat.NewVecDense(n, y), mat.NewVecDense(n, s))
	for i := 0; i < n; i++ {
		v.Set(i, i, v.At(i, i)+one)
	}

	var hv, next mat.Dense
	hv.Mul(h, v)
	next.Mul(v.T(), &hv)

	var ss mat.Dense
	ss.Outer(rho, mat.NewVecDense(n, s), mat.NewVecDense(n, s))
	next.Add(&next, &ss)
	return &next
}
