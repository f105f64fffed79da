package engine

import (
	"errors"
	"fmt"

	"github.com/lixenwraith/collide/event"
)

var (
	// ErrInvalidConfiguration rejects an initial particle set; no simulation is created
	ErrInvalidConfiguration = errors.New("collide: invalid configuration")

	// ErrNumericAnomaly is an internal invariant violation: a prediction or bounce produced NaN or Inf
	// The simulation is faulted and refuses further work
	ErrNumericAnomaly = errors.New("collide: numeric anomaly")

	// ErrQueueExhausted means no event can ever happen again
	ErrQueueExhausted = errors.New("collide: event queue exhausted")

	// ErrCanceled reports a run stopped by Cancel
	ErrCanceled = errors.New("collide: run canceled")

	// ErrUnknownParticle reports a query for an id outside the particle set
	ErrUnknownParticle = errors.New("collide: unknown particle")

	// ErrTimeReversal rejects a stop time earlier than the clock
	ErrTimeReversal = errors.New("collide: stop time before current time")
)

// ConfigError locates an invalid particle in the initial set
type ConfigError struct {
	Index int   // Offending particle
	Other int   // Second particle for overlaps, -1 otherwise
	Err   error // Underlying reason
}

func (e *ConfigError) Error() string {
	if e.Other >= 0 {
		return fmt.Sprintf("%v: particles %d and %d overlap", ErrInvalidConfiguration, e.Index, e.Other)
	}
	return fmt.Sprintf("%v: particle %d: %v", ErrInvalidConfiguration, e.Index, e.Err)
}

func (e *ConfigError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidConfiguration}
	}
	return []error{ErrInvalidConfiguration, e.Err}
}

// AnomalyError records where a numeric anomaly surfaced
type AnomalyError struct {
	Time     float64
	Kind     event.Kind
	Particle int
	Value    float64
}

func (e *AnomalyError) Error() string {
	return fmt.Sprintf("%v: %s for particle %d at t=%g (value %g)", ErrNumericAnomaly, e.Kind, e.Particle, e.Time, e.Value)
}

func (e *AnomalyError) Unwrap() error {
	return ErrNumericAnomaly
}
