package server

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/lixenwraith/collide/config"
	"github.com/lixenwraith/collide/engine"
)

// Run is one simulation owned by the server
// mu serializes every call into the simulation except Cancel
type Run struct {
	ID      uuid.UUID
	Created time.Time

	mu  sync.Mutex
	sim *engine.Simulation
	hub *Hub
}

// RunState is the JSON view of a run
type RunState struct {
	ID        string                 `json:"id"`
	Created   time.Time              `json:"created"`
	Time      float64                `json:"time"`
	Energy    float64                `json:"energy"`
	Count     int                    `json:"count"`
	Stats     engine.Stats           `json:"stats"`
	Clients   int                    `json:"clients"`
	Error     string                 `json:"error,omitempty"`
	Particles []engine.ParticleState `json:"particles,omitempty"`
}

func newRun(cfg config.Config, logger *log.Logger) (*Run, error) {
	particles, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	run := &Run{ID: uuid.New(), Created: time.Now()}
	logger = logger.With("run", run.ID.String())
	run.hub = NewHub(cfg.StreamFPS, logger)

	run.sim, err = engine.New(particles,
		engine.WithRenderer(run.hub, cfg.RedrawInterval),
		engine.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	return run, nil
}

// state snapshots the run, caller holds mu
func (r *Run) state(withParticles bool) RunState {
	snap := r.sim.Snapshot()
	st := RunState{
		ID:      r.ID.String(),
		Created: r.Created,
		Time:    snap.Time,
		Energy:  snap.Energy,
		Count:   len(snap.Particles),
		Stats:   r.sim.Stats(),
		Clients: r.hub.Len(),
	}
	if err := r.sim.Err(); err != nil {
		st.Error = err.Error()
	}
	if withParticles {
		st.Particles = snap.Particles
	}
	return st
}

// State returns the JSON view, particles included when asked
func (r *Run) State(withParticles bool) RunState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state(withParticles)
}

// Step executes one event
func (r *Run) Step(ctx context.Context) (RunState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	err := r.sim.Step(ctx)
	return r.state(false), err
}

// RunEvents executes up to n events
func (r *Run) RunEvents(ctx context.Context, n int) (int, RunState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	done, err := r.sim.RunEvents(ctx, n)
	return done, r.state(false), err
}

// RunUntil advances the run to t
func (r *Run) RunUntil(ctx context.Context, t float64) (RunState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	err := r.sim.RunUntil(ctx, t)
	return r.state(false), err
}

// Cancel stops whatever call is in progress without waiting for the lock
func (r *Run) Cancel() {
	r.sim.Cancel()
}

// Snapshot returns the current state for a new stream client
func (r *Run) Snapshot() engine.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sim.Snapshot()
}

func (r *Run) close() {
	r.sim.Cancel()
	r.hub.Close()
}
