// Copyright ©2026 radiocosmo. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package quasinewton

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// ObjFunc evaluates the objective at x + alpha·p and returns the loss and
// gradient there. The evaluation must restore x before returning, so trials
// are side-effect-free from the caller's perspective.
type ObjFunc func(x []float64, alpha float64, p []float64) (f float64, g []float64)

// WolfeOptions configures the strong-Wolfe search. Zero values select the
// defaults; C1 and C2 must satisfy 0 < C1 < C2 < 1.
type WolfeOptions struct {
	// C1 is the sufficient-decrease (Armijo) constant, [1] Eqn 3.4 (default 1e-4).
	C1 float64
	// C2 is the curvature constant, [1] Eqn 3.5 (default 0.9).
	C2 float64
	// ToleranceChange stops the zoom once the bracket width times ‖p‖∞
	// falls below it (default 1e-9).
	ToleranceChange float64
	// MaxEvals bounds the function evaluations for the search (default 25).
	MaxEvals int
}

func (o WolfeOptions) withDefaults() WolfeOptions {
	if o.C1 == 0 {
		o.C1 = 1e-4
	}
	if o.C2 == 0 {
		o.C2 = 0.9
	}
	if o.ToleranceChange == 0 {
		o.ToleranceChange = 1e-9
	}
	if o.MaxEvals == 0 {
		o.MaxEvals = 25
	}
	return o
}

// StrongWolfe finds a step length along p satisfying the strong Wolfe
// conditions:
//
//	sufficient decrease:  f(ɑ) ≤ f(0) + c₁·ɑ·f′(0)
//	curvature:            |f′(ɑ)| ≤ c₂·|f′(0)|
//
// via bracketing followed by zoom refinement. x is the starting point, alpha
// the initial trial step, f and g the loss and gradient at x, and gp = g·p
// the directional derivative there, which must be negative.
//
// It returns the loss, gradient and step length of the best point found and
// the number of objective evaluations spent.
func StrongWolfe(obj ObjFunc, x []float64, alpha float64, p []float64,
	f float64, g []float64, gp float64, opt WolfeOptions) (float64, []float64, float64, int) {

	opt = opt.withDefaults()
	c1, c2 := opt.C1, opt.C2

	pNorm := floats.Norm(p, math.Inf(1))
	g = slices.Clone(g)

	// Evaluate the objective and gradient at the initial step.
	fNew, gNew := obj(x, alpha, p)
	lsFuncEvals := 1
	gpNew := floats.Dot(gNew, p)

	// Bracket an interval containing a point satisfying the Wolfe criteria.
	var br, brF, brGP [2]float64
	var brG [2][]float64
	alphaPrev, fPrev, gPrev, gpPrev := zero, f, g, gp
	done := false
	lsIter := 0
	bracketed := false
	for lsIter < opt.MaxEvals {
		if fNew > f+c1*alpha*gp || (lsIter > 1 && fNew >= fPrev) {
			// Sufficient decrease violated or loss no longer
			// decreasing: the interval holds a Wolfe point.
			br = [2]float64{alphaPrev, alpha}
			brF = [2]float64{fPrev, fNew}
			brG = [2][]float64{gPrev, slices.Clone(gNew)}
			brGP = [2]float64{gpPrev, gpNew}
			bracketed = true
			break
		}
		if math.Abs(gpNew) <= -c2*gp {
			// Curvature condition holds: accept immediately.
			return fNew, gNew, alpha, lsFuncEvals
		}
		if gpNew >= 0 {
			// Derivative turned non-negative: bracket found,
			// reversed order.
			br = [2]float64{alphaPrev, alpha}
			brF = [2]float64{fPrev, fNew}
			brG = [2][]float64{gPrev, slices.Clone(gNew)}
			brGP = [2]float64{gpPrev, gpNew}
			bracketed = true
			break
		}

		// Grow the trial step by cubic interpolation, bounded away
		// from the previous trial and capped at 10×.
		minStep := alpha + 0.01*(alpha-alphaPrev)
		maxStep := alpha * 10
		tmp := alpha
		alpha = CubicInterpolateBounded(alphaPrev, fPrev, gpPrev, alpha, fNew, gpNew,
			minStep, maxStep)

		alphaPrev = tmp
		fPrev = fNew
		gPrev = slices.Clone(gNew)
		gpPrev = gpNew
		fNew, gNew = obj(x, alpha, p)
		lsFuncEvals++
		gpNew = floats.Dot(gNew, p)
		lsIter++
	}

	if !bracketed {
		// Evaluation budget exhausted without a bracket: force one
		// over the whole searched interval.
		br = [2]float64{0, alpha}
		brF = [2]float64{f, fNew}
		brG = [2][]float64{g, gNew}
		brGP = [2]float64{gp, gpNew}
	}

	// Zoom phase: refine the bracket until it pins down a point
	// satisfying the criteria. The bracket is kept ordered so that
	// brF[lowPos] <= brF[highPos].
	insufProgress := false
	lowPos, highPos := 0, 1
	if brF[0] > brF[1] {
		lowPos, highPos = 1, 0
	}
	for !done && lsIter < opt.MaxEvals {
		// No further progress possible once the bracket collapses.
		if math.Abs(br[1]-br[0])*pNorm < opt.ToleranceChange {
			break
		}

		alpha = CubicInterpolate(br[0], brF[0], brGP[0], br[1], brF[1], brGP[1])

		// Insufficient-progress safeguard: a trial within 0.1 of the
		// bracket width from a boundary is nudged into the interior,
		// but only if the previous trial was also near a boundary or
		// this one sits exactly on it. The one-iteration lookback
		// keeps the search from stalling at a boundary without
		// oscillating in tiny steps.
		brMax := math.Max(br[0], br[1])
		brMin := math.Min(br[0], br[1])
		eps := 0.1 * (brMax - brMin)
		if math.Min(brMax-alpha, alpha-brMin) < eps {
			if insufProgress || alpha >= brMax || alpha <= brMin {
				if math.Abs(alpha-brMax) < math.Abs(alpha-brMin) {
					alpha = brMax - eps
				} else {
					alpha = brMin + eps
				}
				insufProgress = false
			} else {
				insufProgress = true
			}
		} else {
			insufProgress = false
		}

		fNew, gNew = obj(x, alpha, p)
		lsFuncEvals++
		gpNew = floats.Dot(gNew, p)
		lsIter++

		if fNew > f+c1*alpha*gp || fNew >= brF[lowPos] {
			// Armijo failed or not below the low point: shrink from
			// the high side.
			br[highPos] = alpha
			brF[highPos] = fNew
			brG[highPos] = slices.Clone(gNew)
			brGP[highPos] = gpNew
			lowPos, highPos = 0, 1
			if brF[0] > brF[1] {
				lowPos, highPos = 1, 0
			}
		} else {
			if math.Abs(gpNew) <= -c2*gp {
				// Wolfe conditions satisfied.
				done = true
			} else if gpNew*(br[highPos]-br[lowPos]) >= 0 {
				// Old low becomes the new high.
				br[highPos] = br[lowPos]
				brF[highPos] = brF[lowPos]
				brG[highPos] = brG[lowPos]
				brGP[highPos] = brGP[lowPos]
			}

			// New point becomes the new low.
			br[lowPos] = alpha
			brF[lowPos] = fNew
			brG[lowPos] = slices.Clone(gNew)
			brGP[lowPos] = gpNew
		}
	}

	return brF[lowPos], brG[lowPos], br[lowPos], lsFuncEvals
}
