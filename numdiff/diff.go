// Copyright ©2026 radiocosmo. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package numdiff estimates gradients of scalar objectives by finite
// differences. It backs objective closures for forward models without an
// analytic or automatic gradient; the solvers themselves never call it.
package numdiff

import (
	"errors"
	"math"

	"github.com/radiocosmo/skyfit/paramvec"
	"github.com/radiocosmo/skyfit/quasinewton"
)

var sqrtEps = math.Sqrt(math.Nextafter(1, 2) - 1)
var cubeEps = math.Pow(math.Nextafter(1, 2)-1, float64(1)/3)

// Method selects the finite-difference scheme.
type Method int

const (
	// Forward uses the first-order-accuracy forward difference.
	Forward Method = iota
	// Central uses the second-order-accuracy central difference.
	Central
)

// GradSpec approximates the gradient of a scalar objective.
//
// Reference:
//
//   - https://en.wikipedia.org/wiki/Finite_difference
type GradSpec struct {
	N int
	// Object is the scalar objective of which to estimate the gradient.
	// The argument is an n-vector; elements are perturbed in place and
	// restored between evaluations.
	Object func(x []float64) float64
	// Method is the finite-difference scheme to use.
	Method Method
	// RelStep is the relative step size used to compute the absolute
	// step h = RelStep * sign(x0) * abs(x0). Selected automatically
	// when zero.
	RelStep float64
	// AbsStep is the absolute step size. RelStep is used when zero.
	AbsStep float64
}

// Check validates the specification against the argument dimensions.
func (gs *GradSpec) Check(x0, grad []float64) error {
	switch {
	case gs.N <= 0:
		return errors.New("numdiff: dimension must be greater than 0")
	case gs.Method != Forward && gs.Method != Central:
		return errors.New("numdiff: unknown method")
	case gs.Object == nil:
		return errors.New("numdiff: object function is required")
	case gs.N != len(x0):
		return errors.New("numdiff: invalid x0 dimensions")
	case gs.N != len(grad):
		return errors.New("numdiff: invalid grad dimensions")
	}
	return nil
}

// Grad writes the finite-difference gradient of the objective at x0 into
// grad. x0 is perturbed during evaluation and restored before returning.
func (gs *GradSpec) Grad(x0, grad []float64) error {
	if err := gs.Check(x0, grad); err != nil {
		return err
	}

	fun := gs.Object
	switch gs.Method {
	case Forward:
		f0 := fun(x0)
		for i := range x0 {
			t := x0[i]
			s := gs.stepAt(t, sqrtEps)
			x0[i] = t + s
			grad[i] = (fun(x0) - f0) / s
			x0[i] = t
		}
	case Central:
		for i := range x0 {
			t := x0[i]
			s := math.Abs(gs.stepAt(t, cubeEps))
			x0[i] = t - s
			f1 := fun(x0)
			x0[i] = t + s
			f2 := fun(x0)
			grad[i] = (f2 - f1) / (2 * s)
			x0[i] = t
		}
	}
	return nil
}

// stepAt selects the absolute perturbation for coordinate value v, keeping
// the step representable next to v.
func (gs *GradSpec) stepAt(v, eps float64) float64 {
	s := gs.AbsStep
	if s == 0 && gs.RelStep != 0 {
		s = math.Copysign(gs.RelStep, v) * math.Abs(v)
	}
	if s == 0 || (v+s)-v == 0 {
		s = math.Copysign(eps, v) * math.Max(1.0, math.Abs(v))
	}
	return s
}

// Closure adapts a scalar objective over the flattened parameter vector
// into an objective closure for the quasinewton solvers: each call
// evaluates the objective at the current parameter values and fills the
// per-parameter gradient storage by finite differences.
func Closure(params []*paramvec.Param, obj func(x []float64) float64, method Method) (quasinewton.Closure, error) {
	n := paramvec.Numel(params)
	gs := &GradSpec{N: n, Object: obj, Method: method}
	if err := gs.Check(make([]float64, n), make([]float64, n)); err != nil {
		return nil, err
	}

	grad := make([]float64, n)
	return func() float64 {
		x := paramvec.Flatten(params)
		if err := gs.Grad(x, grad); err != nil {
			panic(err)
		}
		offset := 0
		for _, p := range params {
			m := p.Numel()
			if p.Grad == nil {
				p.Grad = make([]float64, m)
			}
			copy(p.Grad, grad[offset:offset+m])
			offset += m
		}
		return obj(x)
	}, nil
}
