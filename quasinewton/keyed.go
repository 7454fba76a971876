// Copyright ©2026 radiocosmo. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package quasinewton

import (
	"github.com/radiocosmo/skyfit/paramvec"
)

// DictObjFunc evaluates one parameter group at x + alpha·p, identified by
// key, and returns the loss and the group's gradient there. As with
// ObjFunc, the evaluation must restore x before returning.
type DictObjFunc func(key string, x []float64, alpha float64, p []float64) (f float64, g []float64)

// DictWolfeResult is the per-group outcome of a keyed line search.
type DictWolfeResult struct {
	F     map[string]float64 // loss at the accepted step, per group
	G     *paramvec.Dict     // gradient at the accepted step, per group
	Alpha map[string]float64 // accepted step length, per group
	Evals map[string]int     // objective evaluations spent, per group
}

// StrongWolfeDict runs an independent strong-Wolfe search per parameter
// group: the optimization state is partitioned by key, the scalar search
// runs on each sub-vector with its own step length, and the per-key results
// are recombined. Groups with decoupled curvature scales (antenna gains
// versus sky coefficients) keep their step lengths from fighting each other
// this way.
//
// alpha maps group to initial step; a missing key falls back to alphaInit.
// x, p and g must share key sets; gp holds the per-group directional
// derivatives.
func StrongWolfeDict(obj DictObjFunc, x *paramvec.Dict, alphaInit float64,
	alpha map[string]float64, p, g *paramvec.Dict, f float64,
	gp map[string]float64, opt WolfeOptions) DictWolfeResult {

	res := DictWolfeResult{
		F:     make(map[string]float64, x.Len()),
		G:     paramvec.NewDict(),
		Alpha: make(map[string]float64, x.Len()),
		Evals: make(map[string]int, x.Len()),
	}

	for _, k := range x.Keys() {
		a, ok := alpha[k]
		if !ok {
			a = alphaInit
		}
		keyObj := func(x []float64, alpha float64, p []float64) (float64, []float64) {
			return obj(k, x, alpha, p)
		}
		fNew, gNew, aNew, evals := StrongWolfe(keyObj, x.Get(k), a, p.Get(k), f, g.Get(k), gp[k], opt)
		res.F[k] = fNew
		res.G.Set(k, gNew)
		res.Alpha[k] = aNew
		res.Evals[k] = evals
	}
	return res
}
