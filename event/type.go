package event

// Kind is the closed set of things a scheduled event can be
type Kind uint8

const (
	// KindParticle is a contact between two particles
	// Trigger: pair prediction | Effect: BounceOff on A and B
	KindParticle Kind = iota

	// KindVerticalWall is a particle reaching x = radius or x = 1-radius
	// Trigger: wall prediction | Effect: BounceOffVerticalWall on A
	KindVerticalWall

	// KindHorizontalWall is a particle reaching y = radius or y = 1-radius
	// Trigger: wall prediction | Effect: BounceOffHorizontalWall on A
	KindHorizontalWall

	// KindRedraw hands control to the render collaborator
	// Trigger: previous redraw | Effect: render, schedule next redraw
	KindRedraw

	kindCount
)
