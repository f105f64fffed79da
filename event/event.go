package event

import "github.com/lixenwraith/collide/physics"

// None marks an absent particle reference
const None = -1

// Event is an immutable prediction of something happening at Time
// CountA and CountB snapshot the involved particles' collision counts when the prediction was made
type Event struct {
	Time   float64
	Kind   Kind
	A, B   int
	CountA int
	CountB int
}

// Pair predicts a contact between particles a and b
func Pair(t float64, a, b int, countA, countB int) Event {
	return Event{Time: t, Kind: KindParticle, A: a, B: b, CountA: countA, CountB: countB}
}

// VerticalWall predicts particle a reaching a vertical wall
func VerticalWall(t float64, a, countA int) Event {
	return Event{Time: t, Kind: KindVerticalWall, A: a, B: None, CountA: countA}
}

// HorizontalWall predicts particle a reaching a horizontal wall
func HorizontalWall(t float64, a, countA int) Event {
	return Event{Time: t, Kind: KindHorizontalWall, A: a, B: None, CountA: countA}
}

// Redraw schedules a render tick
func Redraw(t float64) Event {
	return Event{Time: t, Kind: KindRedraw, A: None, B: None}
}

// Valid reports whether no involved particle has collided since the event was predicted
// Redraw events are always valid
func (e Event) Valid(particles []physics.Particle) bool {
	if e.A != None && particles[e.A].Count() != e.CountA {
		return false
	}
	if e.B != None && particles[e.B].Count() != e.CountB {
		return false
	}
	return true
}

