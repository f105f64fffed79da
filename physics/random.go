package physics

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/lixenwraith/collide/vmath"
)

// Default particle parameters for randomly generated sets
const (
	DefaultRadius   = 0.02
	DefaultMass     = 0.5
	DefaultMaxSpeed = 0.005

	// Placement attempts per particle before a dense set is rejected
	maxPlacementAttempts = 10000
)

// Profile describes the distribution random particles are drawn from
type Profile struct {
	Radius   float64
	Mass     float64
	MaxSpeed float64 // velocity components uniform in [-MaxSpeed, MaxSpeed]
	Color    colorful.Color
}

// DefaultProfile matches the classic billiard-box setup
var DefaultProfile = Profile{
	Radius:   DefaultRadius,
	Mass:     DefaultMass,
	MaxSpeed: DefaultMaxSpeed,
}

// Random draws a particle from profile using rng
// Centers are drawn from [radius, 1-radius] so the disk starts inside the box
func Random(rng *rand.Rand, profile Profile) Particle {
	lo, hi := vmath.BoxMin+profile.Radius, vmath.BoxMax-profile.Radius
	pos := r2.Vec{
		X: vmath.Uniform(rng.Float64(), lo, hi),
		Y: vmath.Uniform(rng.Float64(), lo, hi),
	}
	vel := r2.Vec{
		X: vmath.Uniform(rng.Float64(), -profile.MaxSpeed, profile.MaxSpeed),
		Y: vmath.Uniform(rng.Float64(), -profile.MaxSpeed, profile.MaxSpeed),
	}
	return New(pos, vel, profile.Radius, profile.Mass, profile.Color)
}

// RandomSet draws n mutually non-overlapping particles, rejecting candidates that overlap earlier ones
// The result depends only on the rng state, so a fixed seed reproduces the set
func RandomSet(rng *rand.Rand, n int, profile Profile) ([]Particle, error) {
	if n < 0 {
		return nil, fmt.Errorf("particle count must be non-negative: got %d", n)
	}
	if !(profile.Radius > 0) {
		return nil, fmt.Errorf("%w: got %g", errNonPositiveRadius, profile.Radius)
	}
	if 2*profile.Radius >= vmath.BoxMax-vmath.BoxMin {
		return nil, fmt.Errorf("radius %g does not fit the unit box", profile.Radius)
	}

	set := make([]Particle, 0, n)
	for len(set) < n {
		placed := false
		for attempt := 0; attempt < maxPlacementAttempts; attempt++ {
			candidate := Random(rng, profile)
			if !overlapsAny(&candidate, set) {
				set = append(set, candidate)
				placed = true
				break
			}
		}
		if !placed {
			return nil, fmt.Errorf("could not place particle %d of %d without overlap, box too dense", len(set)+1, n)
		}
	}
	return set, nil
}

func overlapsAny(p *Particle, set []Particle) bool {
	for i := range set {
		if p.Overlaps(&set[i]) {
			return true
		}
	}
	return false
}
