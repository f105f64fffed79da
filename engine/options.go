package engine

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/lixenwraith/collide/event"
)

// Renderer is the external drawing collaborator invoked on every redraw tick
// Render receives a copy and must not retain the simulation; an asynchronous
// implementation should hand the snapshot off without blocking
type Renderer interface {
	Render(Snapshot)
}

// RenderFunc adapts a function to Renderer
type RenderFunc func(Snapshot)

func (f RenderFunc) Render(s Snapshot) { f(s) }

// Collision describes an executed physical collision
type Collision struct {
	Time    float64
	Kind    event.Kind
	A, B    int
	Impulse float64 // Normal impulse magnitude, zero for walls
}

// Option configures a Simulation
type Option func(*Simulation)

// WithRenderer installs r and schedules redraw ticks every interval of simulated time
// A non-positive interval disables ticks
func WithRenderer(r Renderer, interval float64) Option {
	return func(s *Simulation) {
		s.renderer = r
		s.redrawInterval = interval
	}
}

// WithCollisionHook registers fn to be called after each particle or wall collision
func WithCollisionHook(fn func(Collision)) Option {
	return func(s *Simulation) {
		s.hooks = append(s.hooks, fn)
	}
}

// WithLogger routes diagnostics to logger
func WithLogger(logger *log.Logger) Option {
	return func(s *Simulation) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithHorizon bounds the initial prediction to events at or before h
// A run that reaches past the horizon re-predicts up to its own bound or
// double the old horizon, whichever is later, so paced runs reseed rarely
func WithHorizon(h float64) Option {
	return func(s *Simulation) {
		if h > 0 {
			s.horizon = h
		}
	}
}

func discardLogger() *log.Logger {
	return log.New(io.Discard)
}
