package vmath

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// ContactTime solves |dr + dv*t| = sigma for the earliest t >= 0
// dr and dv are the relative position and velocity (other minus self), sigma the sum of radii
// Returns Inf when the pair is not closing (dv·dr >= 0), has no relative motion, or misses (negative discriminant)
// A zero discriminant is a grazing contact and is reported as a hit
// A negative root means the disks already touch within rounding and is clamped to zero
func ContactTime(dr, dv r2.Vec, sigma float64) float64 {
	dvdr := r2.Dot(dv, dr)
	if dvdr >= 0 {
		return Inf
	}
	dvdv := r2.Dot(dv, dv)
	if dvdv == 0 {
		return Inf
	}
	drdr := r2.Dot(dr, dr)
	d := dvdr*dvdr - dvdv*(drdr-sigma*sigma)
	if d < 0 {
		return Inf
	}
	t := -(dvdr + math.Sqrt(d)) / dvdv
	if t < 0 {
		return 0
	}
	return t
}

// WallTime returns time until a disk of given radius at coordinate c moving with speed v
// reaches the wall it is heading for on one axis of the unit square
// Zero speed never hits. A disk already past the wall clamps to zero
func WallTime(c, v, radius float64) float64 {
	var t float64
	switch {
	case v > 0:
		t = (BoxMax - c - radius) / v
	case v < 0:
		t = (BoxMin + radius - c) / v
	default:
		return Inf
	}
	if t < 0 {
		return 0
	}
	return t
}

// ImpulseMagnitude returns the normal impulse J = 2·m1·m2·(dv·dr) / ((m1+m2)·dist) exchanged by two
// disks in elastic contact at center distance dist
func ImpulseMagnitude(dr, dv r2.Vec, m1, m2, dist float64) float64 {
	return 2 * m1 * m2 * r2.Dot(dv, dr) / ((m1 + m2) * dist)
}
