package physics

import (
	"errors"
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/lixenwraith/collide/vmath"
)

var (
	errNonPositiveRadius = errors.New("radius must be positive")
	errNonPositiveMass   = errors.New("mass must be positive")
	errNonFinite         = errors.New("position and velocity must be finite")
	errOutOfBox          = errors.New("disk crosses the unit square boundary")
)

// Particle is a hard disk moving inside the unit square
// Pos and Vel are mutated in place by Move and the Bounce* methods
type Particle struct {
	Pos    r2.Vec
	Vel    r2.Vec
	Radius float64
	Mass   float64
	Color  colorful.Color

	count int // collisions this particle took part in, walls included
}

// New creates a particle with a zero collision count
func New(pos, vel r2.Vec, radius, mass float64, color colorful.Color) Particle {
	return Particle{
		Pos:    pos,
		Vel:    vel,
		Radius: radius,
		Mass:   mass,
		Color:  color,
	}
}

// Count returns the number of collisions this particle has experienced
func (p *Particle) Count() int {
	return p.count
}

// Move drifts the particle along its velocity for dt
func (p *Particle) Move(dt float64) {
	p.Pos.X += p.Vel.X * dt
	p.Pos.Y += p.Vel.Y * dt
}

// TimeToHit returns the time until p and other first touch, Inf if they never do
func (p *Particle) TimeToHit(other *Particle) float64 {
	if p == other {
		return vmath.Inf
	}
	dr := r2.Sub(other.Pos, p.Pos)
	dv := r2.Sub(other.Vel, p.Vel)
	return vmath.ContactTime(dr, dv, p.Radius+other.Radius)
}

// TimeToHitVerticalWall returns the time until p touches x = radius or x = 1-radius
func (p *Particle) TimeToHitVerticalWall() float64 {
	return vmath.WallTime(p.Pos.X, p.Vel.X, p.Radius)
}

// TimeToHitHorizontalWall returns the time until p touches y = radius or y = 1-radius
func (p *Particle) TimeToHitHorizontalWall() float64 {
	return vmath.WallTime(p.Pos.Y, p.Vel.Y, p.Radius)
}

// BounceOff applies the elastic contact impulse between p and other along the line of centers
// Both particles must be at contact distance. Returns the impulse magnitude
func (p *Particle) BounceOff(other *Particle) float64 {
	dr := r2.Sub(other.Pos, p.Pos)
	dv := r2.Sub(other.Vel, p.Vel)
	dist := p.Radius + other.Radius

	j := vmath.ImpulseMagnitude(dr, dv, p.Mass, other.Mass, dist)

	fx := j * dr.X / dist
	fy := j * dr.Y / dist

	p.Vel.X += fx / p.Mass
	p.Vel.Y += fy / p.Mass
	other.Vel.X -= fx / other.Mass
	other.Vel.Y -= fy / other.Mass

	p.count++
	other.count++
	return j
}

// BounceOffVerticalWall reflects the x velocity
func (p *Particle) BounceOffVerticalWall() {
	p.Vel.X = -p.Vel.X
	p.count++
}

// BounceOffHorizontalWall reflects the y velocity
func (p *Particle) BounceOffHorizontalWall() {
	p.Vel.Y = -p.Vel.Y
	p.count++
}

// KineticEnergy returns 0.5·m·|v|²
func (p *Particle) KineticEnergy() float64 {
	return 0.5 * p.Mass * r2.Norm2(p.Vel)
}

// Moving reports whether the particle has any velocity
func (p *Particle) Moving() bool {
	return p.Vel.X != 0 || p.Vel.Y != 0
}

// Overlaps reports whether the closed disks of p and other intersect beyond tolerance
func (p *Particle) Overlaps(other *Particle) bool {
	sigma := p.Radius + other.Radius
	return r2.Norm(r2.Sub(other.Pos, p.Pos)) < sigma-vmath.Tolerance
}

// InBox reports whether the disk lies inside the unit square within tolerance
func (p *Particle) InBox() bool {
	lo, hi := vmath.BoxMin+p.Radius, vmath.BoxMax-p.Radius
	return vmath.Within(p.Pos.X, lo, hi) && vmath.Within(p.Pos.Y, lo, hi)
}

// Validate checks the static invariants a particle must satisfy before simulation
func (p *Particle) Validate() error {
	switch {
	case !(p.Radius > 0):
		return fmt.Errorf("%w: got %g", errNonPositiveRadius, p.Radius)
	case !(p.Mass > 0):
		return fmt.Errorf("%w: got %g", errNonPositiveMass, p.Mass)
	case !vmath.FiniteVec(p.Pos) || !vmath.FiniteVec(p.Vel) || !vmath.IsFinite(p.Radius) || !vmath.IsFinite(p.Mass):
		return errNonFinite
	case !p.InBox():
		return fmt.Errorf("%w: center (%g, %g) radius %g", errOutOfBox, p.Pos.X, p.Pos.Y, p.Radius)
	}
	return nil
}
