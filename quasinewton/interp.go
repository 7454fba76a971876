// Copyright ©2026 radiocosmo. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package quasinewton

import (
	"math"
)

// CubicInterpolate returns the minimizer of the cubic fit through the two
// points (x1, f1, g1) and (x2, f2, g2), where f is the function value and g
// the directional derivative at each position. The result is clipped to
// [min(x1,x2), max(x1,x2)]. The two positions must be distinct.
func CubicInterpolate(x1, f1, g1, x2, f2, g2 float64) float64 {
	return CubicInterpolateBounded(x1, f1, g1, x2, f2, g2,
		math.Min(x1, x2), math.Max(x1, x2))
}

// CubicInterpolateBounded is CubicInterpolate with explicit clip bounds.
//
// Solution for the common two-point case with value and derivative at both:
//
//	d1 = g1 + g2 - 3(f1-f2)/(x1-x2)
//	d2 = √(d1² - g1g2)
//	min = x2 - (x2-x1)(g2 + d2 - d1)/(g2 - g1 + 2d2)
//
// When the discriminant is negative the cubic has no interior minimum
// matching the data and the midpoint of the bounds is returned. That
// fallback is a normal occurrence for certain curvature shapes, not an
// error.
func CubicInterpolateBounded(x1, f1, g1, x2, f2, g2, xminBound, xmaxBound float64) float64 {
	d1 := g1 + g2 - 3*(f1-f2)/(x1-x2)
	d2Square := d1*d1 - g1*g2
	if d2Square >= 0 {
		d2 := math.Sqrt(d2Square)
		var minPos float64
		if x1 <= x2 {
			minPos = x2 - (x2-x1)*((g2+d2-d1)/(g2-g1+2*d2))
		} else {
			minPos = x1 - (x1-x2)*((g1+d2-d1)/(g1-g2+2*d2))
		}
		return math.Min(math.Max(minPos, xminBound), xmaxBound)
	}
	return (xminBound + xmaxBound) / 2
}
