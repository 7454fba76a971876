// Copyright ©2026 radiocosmo. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package numdiff

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radiocosmo/skyfit/paramvec"
	"github.com/radiocosmo/skyfit/quasinewton"
)

func probe(x []float64) float64 {
	return x[0]*x[0] + math.Sin(x[1]) + x[0]*x[1]
}

func probeGrad(x []float64) []float64 {
	return []float64{2*x[0] + x[1], math.Cos(x[1]) + x[0]}
}

func TestGradForward(t *testing.T) {
	gs := &GradSpec{N: 2, Object: probe, Method: Forward}
	x := []float64{1.3, -0.7}
	grad := make([]float64, 2)
	require.NoError(t, gs.Grad(x, grad))

	want := probeGrad(x)
	assert.InDelta(t, want[0], grad[0], 1e-6)
	assert.InDelta(t, want[1], grad[1], 1e-6)

	// The evaluation point is restored.
	assert.Equal(t, []float64{1.3, -0.7}, x)
}

func TestGradCentral(t *testing.T) {
	gs := &GradSpec{N: 2, Object: probe, Method: Central}
	x := []float64{1.3, -0.7}
	grad := make([]float64, 2)
	require.NoError(t, gs.Grad(x, grad))

	want := probeGrad(x)
	assert.InDelta(t, want[0], grad[0], 1e-9)
	assert.InDelta(t, want[1], grad[1], 1e-9)
	assert.Equal(t, []float64{1.3, -0.7}, x)
}

func TestGradAtZero(t *testing.T) {
	// A zero coordinate still gets a representable step.
	gs := &GradSpec{N: 1, Object: func(x []float64) float64 { return 3 * x[0] }, Method: Central}
	grad := make([]float64, 1)
	require.NoError(t, gs.Grad([]float64{0}, grad))
	assert.InDelta(t, 3.0, grad[0], 1e-9)
}

func TestGradExplicitSteps(t *testing.T) {
	gs := &GradSpec{N: 1, Object: func(x []float64) float64 { return x[0] * x[0] }, Method: Central, AbsStep: 1e-5}
	grad := make([]float64, 1)
	require.NoError(t, gs.Grad([]float64{2}, grad))
	assert.InDelta(t, 4.0, grad[0], 1e-8)

	gs = &GradSpec{N: 1, Object: func(x []float64) float64 { return x[0] * x[0] }, Method: Forward, RelStep: 1e-7}
	require.NoError(t, gs.Grad([]float64{2}, grad))
	assert.InDelta(t, 4.0, grad[0], 1e-5)
}

func TestCheckErrors(t *testing.T) {
	obj := func(x []float64) float64 { return 0 }
	x := make([]float64, 2)
	grad := make([]float64, 2)

	assert.Error(t, (&GradSpec{N: 0, Object: obj}).Check(x, grad))
	assert.Error(t, (&GradSpec{N: 2, Object: obj, Method: Method(9)}).Check(x, grad))
	assert.Error(t, (&GradSpec{N: 2}).Check(x, grad))
	assert.Error(t, (&GradSpec{N: 2, Object: obj}).Check(x[:1], grad))
	assert.Error(t, (&GradSpec{N: 2, Object: obj}).Check(x, grad[:1]))
	assert.NoError(t, (&GradSpec{N: 2, Object: obj}).Check(x, grad))
}

func TestClosureDrivesSolver(t *testing.T) {
	// Fit the quadratic (x-3)² + 5(y+2)² with finite-difference
	// gradients only.
	p, err := paramvec.NewParam("xy", []float64{0, 0}, 2)
	require.NoError(t, err)
	params := []*paramvec.Param{p}

	obj := func(x []float64) float64 {
		return (x[0]-3)*(x[0]-3) + 5*(x[1]+2)*(x[1]+2)
	}
	closure, err := Closure(params, obj, Central)
	require.NoError(t, err)

	b, err := quasinewton.NewBFGS(params, nil, quasinewton.Config{
		ToleranceGrad:   1e-6,
		ToleranceChange: 1e-18,
	}, nil)
	require.NoError(t, err)

	var loss float64
	for i := 0; i < 10; i++ {
		loss = b.Step(closure)
		if b.Exit() == quasinewton.ExitOptimal {
			break
		}
	}

	assert.Equal(t, quasinewton.ExitOptimal, b.Exit())
	assert.InDelta(t, 3.0, p.Data[0], 1e-4)
	assert.InDelta(t, -2.0, p.Data[1], 1e-4)
	assert.InDelta(t, 0.0, loss, 1e-10)
}

func TestClosureRejectsNilObjective(t *testing.T) {
	p, err := paramvec.NewParam("xy", []float64{0}, 1)
	require.NoError(t, err)
	_, err = Closure([]*paramvec.Param{p}, nil, Central)
	require.Error(t, err)
}
