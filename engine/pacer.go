package engine

import (
	"context"
	"sync"
	"time"
)

// Pacer runs a Simulation in step with wall-clock time for live viewing
// Speed is simulated time per wall second. Changing speed rebases so the simulation never jumps
type Pacer struct {
	sim   *Simulation
	clock *PausableClock

	mu       sync.Mutex
	speed    float64
	base     float64 // Simulated time at the last rebase
	baseWall float64 // Active wall seconds at the last rebase
}

// NewPacer paces sim at speed simulated units per second of provider time
func NewPacer(sim *Simulation, provider TimeProvider, speed float64) *Pacer {
	return &Pacer{
		sim:   sim,
		clock: NewPausableClock(provider),
		speed: speed,
		base:  sim.Now(),
	}
}

// Target returns the simulated time the wall clock currently maps to
func (p *Pacer) Target() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.targetLocked()
}

func (p *Pacer) targetLocked() float64 {
	return p.base + (p.clock.Elapsed().Seconds()-p.baseWall)*p.speed
}

// Advance runs the simulation up to the current target
// Blocking for as long as the events in between take to execute
func (p *Pacer) Advance(ctx context.Context) error {
	target := p.Target()
	if target <= p.sim.Now() {
		return nil
	}
	return p.sim.RunUntil(ctx, target)
}

// SetSpeed changes the pace from now on
func (p *Pacer) SetSpeed(speed float64) {
	if speed < 0 {
		speed = 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.base = p.targetLocked()
	p.baseWall = p.clock.Elapsed().Seconds()
	p.speed = speed
}

// Speed returns simulated units per wall second
func (p *Pacer) Speed() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.speed
}

// Pause freezes the target
func (p *Pacer) Pause() { p.clock.Pause() }

// Resume unfreezes the target
func (p *Pacer) Resume() { p.clock.Resume() }

// Toggle flips pause and returns whether the pacer is now paused
func (p *Pacer) Toggle() bool { return p.clock.Toggle() }

// Paused reports the pause state
func (p *Pacer) Paused() bool { return p.clock.IsPaused() }

// PausedFor returns the wall time spent paused so far
func (p *Pacer) PausedFor() time.Duration { return p.clock.TotalPauseDuration() }
