package engine

// ParticleState is a read-only copy of one particle
type ParticleState struct {
	ID         int     `json:"id"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	VX         float64 `json:"vx"`
	VY         float64 `json:"vy"`
	Radius     float64 `json:"radius"`
	Mass       float64 `json:"mass"`
	Color      string  `json:"color"`
	Collisions int     `json:"collisions"`
}

// Snapshot is the state handed to renderers and remote observers
type Snapshot struct {
	Time      float64         `json:"time"`
	Energy    float64         `json:"energy"`
	Events    uint64          `json:"events"`
	Particles []ParticleState `json:"particles"`
}

// Stats counts scheduler activity since construction
type Stats struct {
	Events     uint64 `json:"events"`     // Valid events executed, redraws included
	Collisions uint64 `json:"collisions"` // Particle-particle contacts
	WallHits   uint64 `json:"wall_hits"`
	Redraws    uint64 `json:"redraws"`
	Stale      uint64 `json:"stale"`      // Invalidated events discarded at pop
	Reseeds    uint64 `json:"reseeds"`    // Global re-predictions (horizon widening or self-heal)
	SelfHeals  uint64 `json:"self_heals"` // Reseeds caused by an empty queue
	Pending    int    `json:"pending"`    // Queue length, stale events included
}

func (s *Simulation) snapshot() Snapshot {
	states := make([]ParticleState, len(s.particles))
	for i := range s.particles {
		p := &s.particles[i]
		states[i] = ParticleState{
			ID:         i,
			X:          p.Pos.X,
			Y:          p.Pos.Y,
			VX:         p.Vel.X,
			VY:         p.Vel.Y,
			Radius:     p.Radius,
			Mass:       p.Mass,
			Color:      p.Color.Hex(),
			Collisions: p.Count(),
		}
	}
	return Snapshot{
		Time:      s.now,
		Energy:    s.TotalKineticEnergy(),
		Events:    s.stats.Events,
		Particles: states,
	}
}
