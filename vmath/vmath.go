package vmath

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Inf marks a prediction that never happens
var Inf = math.Inf(1)

// Unit square bounds
const (
	BoxMin = 0.0
	BoxMax = 1.0
)

// Tolerance is the absolute slack allowed on contact and boundary checks
const Tolerance = 1e-9

// IsFinite reports whether f is neither NaN nor ±Inf
func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// FiniteVec reports whether both components of v are finite
func FiniteVec(v r2.Vec) bool {
	return IsFinite(v.X) && IsFinite(v.Y)
}

// Uniform maps u in [0,1) onto [lo,hi)
func Uniform(u, lo, hi float64) float64 {
	return lo + u*(hi-lo)
}

// Within reports whether c lies in [lo-Tolerance, hi+Tolerance]
func Within(c, lo, hi float64) bool {
	return c >= lo-Tolerance && c <= hi+Tolerance
}
