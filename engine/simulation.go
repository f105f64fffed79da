package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"golang.org/x/exp/rand"

	"github.com/lixenwraith/collide/event"
	"github.com/lixenwraith/collide/physics"
	"github.com/lixenwraith/collide/vmath"
)

// Simulation advances a set of hard disks from one collision to the next
//
// The particle set, clock and event queue are owned by the Simulation and only the goroutine
// driving it may call its methods. Cancel is the one exception and may be called from anywhere.
// Stale predictions are never removed from the queue; they are recognised on pop by comparing
// the collision counts captured at prediction time with the live ones.
type Simulation struct {
	particles []physics.Particle
	queue     *event.Queue
	now       float64

	// Predictions beyond horizon are not queued; the queue is complete up to it
	horizon float64

	renderer       Renderer
	redrawInterval float64
	nextTick       float64 // Time of the next redraw, kept across reseeds
	hooks          []func(Collision)

	logger   *log.Logger
	canceled atomic.Bool
	fault    error
	stats    Stats
}

// New validates particles and seeds the event queue with every prediction
// The slice is copied. Non-positive radius or mass, non-finite state, disks outside the box
// and overlapping disks are rejected with a *ConfigError
func New(particles []physics.Particle, opts ...Option) (*Simulation, error) {
	for i := range particles {
		if err := particles[i].Validate(); err != nil {
			return nil, &ConfigError{Index: i, Other: -1, Err: err}
		}
	}
	for i := range particles {
		for j := i + 1; j < len(particles); j++ {
			if particles[i].Overlaps(&particles[j]) {
				return nil, &ConfigError{Index: i, Other: j}
			}
		}
	}

	s := &Simulation{
		particles: append([]physics.Particle(nil), particles...),
		queue:     event.NewQueue(len(particles) * 8),
		horizon:   math.Inf(1),
		logger:    discardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.reseed(s.horizon); err != nil {
		return nil, err
	}
	s.logger.Debug("simulation initialized", "particles", len(s.particles), "horizon", s.horizon, "pending", s.queue.Len())
	return s, nil
}

// NewRandom builds a simulation of n default particles drawn from a generator seeded with seed
func NewRandom(seed uint64, n int, opts ...Option) (*Simulation, error) {
	rng := rand.New(rand.NewSource(seed))
	particles, err := physics.RandomSet(rng, n, physics.DefaultProfile)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	return New(particles, opts...)
}

// Step executes exactly one valid event, a redraw tick included
func (s *Simulation) Step(ctx context.Context) error {
	if err := s.begin(ctx, math.Inf(1)); err != nil {
		return err
	}
	ok, err := s.advance(math.Inf(1))
	if err != nil {
		return err
	}
	if !ok {
		return ErrQueueExhausted
	}
	return nil
}

// RunEvents executes up to n valid events and returns how many ran
// Cancellation is observed between events only
func (s *Simulation) RunEvents(ctx context.Context, n int) (int, error) {
	if err := s.begin(ctx, math.Inf(1)); err != nil {
		return 0, err
	}
	for done := 0; done < n; done++ {
		if err := s.interrupted(ctx); err != nil {
			return done, err
		}
		ok, err := s.advance(math.Inf(1))
		if err != nil {
			return done, err
		}
		if !ok {
			return done, ErrQueueExhausted
		}
	}
	return n, nil
}

// RunUntil executes every valid event at or before stop, then drifts all particles to stop
// On cancellation the clock stays at the last executed event
func (s *Simulation) RunUntil(ctx context.Context, stop float64) error {
	if stop < s.now || math.IsNaN(stop) {
		return fmt.Errorf("%w: stop %g, now %g", ErrTimeReversal, stop, s.now)
	}
	if err := s.begin(ctx, stop); err != nil {
		return err
	}
	for {
		if err := s.interrupted(ctx); err != nil {
			return err
		}
		ok, err := s.advance(stop)
		if err != nil && !errors.Is(err, ErrQueueExhausted) {
			return err
		}
		if !ok {
			break
		}
	}
	if !math.IsInf(stop, 1) {
		s.driftTo(stop)
	}
	return nil
}

// Cancel asks the running Step/Run call to return ErrCanceled before its next event
// If nothing is running the next run stops immediately. Safe for concurrent use
func (s *Simulation) Cancel() {
	s.canceled.Store(true)
}

// Now returns the simulation clock
func (s *Simulation) Now() float64 {
	return s.now
}

// Len returns the particle count
func (s *Simulation) Len() int {
	return len(s.particles)
}

// TotalKineticEnergy sums kinetic energy over all particles
func (s *Simulation) TotalKineticEnergy() float64 {
	var e float64
	for i := range s.particles {
		e += s.particles[i].KineticEnergy()
	}
	return e
}

// CollisionCount returns the collision counter of particle id
func (s *Simulation) CollisionCount(id int) (int, error) {
	if id < 0 || id >= len(s.particles) {
		return 0, fmt.Errorf("%w: %d of %d", ErrUnknownParticle, id, len(s.particles))
	}
	return s.particles[id].Count(), nil
}

// Particles returns a copy of the particle set
func (s *Simulation) Particles() []physics.Particle {
	return append([]physics.Particle(nil), s.particles...)
}

// Snapshot returns a read-only copy of the current state
func (s *Simulation) Snapshot() Snapshot {
	return s.snapshot()
}

// Stats returns scheduler counters
func (s *Simulation) Stats() Stats {
	st := s.stats
	st.Pending = s.queue.Len()
	return st
}

// Err returns the fault that stopped the simulation, if any
func (s *Simulation) Err() error {
	return s.fault
}

// begin rejects work on a faulted simulation and widens the horizon for a run bounded by bound
func (s *Simulation) begin(ctx context.Context, bound float64) error {
	if s.fault != nil {
		return s.fault
	}
	if err := s.interrupted(ctx); err != nil {
		return err
	}
	if bound > s.horizon {
		return s.reseed(math.Max(bound, 2*s.horizon))
	}
	return nil
}

// interrupted consumes a pending Cancel or reports context cancellation
func (s *Simulation) interrupted(ctx context.Context) error {
	if s.canceled.Swap(false) {
		return ErrCanceled
	}
	return ctx.Err()
}

// advance executes the next valid event at or before stop
// Returns false without error when the next event lies beyond stop
func (s *Simulation) advance(stop float64) (bool, error) {
	healed := false
	for {
		ev, ok := s.queue.Peek()
		if !ok {
			// Finite horizon: nothing left before it, predictions past it were never queued
			if !math.IsInf(s.horizon, 1) {
				return false, nil
			}
			if healed || !s.anyMoving() {
				if healed {
					s.logger.Warn("event queue still empty after re-prediction", "time", s.now)
				}
				return false, ErrQueueExhausted
			}
			s.stats.SelfHeals++
			if s.stats.SelfHeals > 1 {
				s.logger.Warn("event queue ran dry again with moving particles, re-predicting", "time", s.now, "count", s.stats.SelfHeals)
			} else {
				s.logger.Debug("event queue empty with moving particles, re-predicting", "time", s.now)
			}
			if err := s.reseed(s.horizon); err != nil {
				return false, err
			}
			healed = true
			continue
		}
		if ev.Time > stop {
			return false, nil
		}
		s.queue.Pop()

		if !ev.Valid(s.particles) {
			s.stats.Stale++
			continue
		}
		if err := s.execute(ev); err != nil {
			return false, err
		}
		return true, nil
	}
}

// execute moves every particle to ev.Time, applies the event and re-predicts what it touched
func (s *Simulation) execute(ev event.Event) error {
	s.driftTo(ev.Time)
	s.stats.Events++

	switch ev.Kind {
	case event.KindParticle:
		a, b := &s.particles[ev.A], &s.particles[ev.B]
		j := a.BounceOff(b)
		s.stats.Collisions++
		if err := s.checkVelocity(ev, ev.A, ev.B); err != nil {
			return err
		}
		s.notify(Collision{Time: s.now, Kind: ev.Kind, A: ev.A, B: ev.B, Impulse: math.Abs(j)})
		if err := s.predict(ev.A); err != nil {
			return err
		}
		return s.predict(ev.B)

	case event.KindVerticalWall:
		s.particles[ev.A].BounceOffVerticalWall()
		s.stats.WallHits++
		s.notify(Collision{Time: s.now, Kind: ev.Kind, A: ev.A, B: event.None})
		return s.predict(ev.A)

	case event.KindHorizontalWall:
		s.particles[ev.A].BounceOffHorizontalWall()
		s.stats.WallHits++
		s.notify(Collision{Time: s.now, Kind: ev.Kind, A: ev.A, B: event.None})
		return s.predict(ev.A)

	case event.KindRedraw:
		s.stats.Redraws++
		s.renderer.Render(s.snapshot())
		s.nextTick = s.now + s.redrawInterval
		s.scheduleRedraw()
		return nil

	default:
		panic(fmt.Sprintf("unhandled event kind %s", ev.Kind))
	}
}

// predict queues every collision particle i will have within the horizon if nothing else interferes
func (s *Simulation) predict(i int) error {
	p := &s.particles[i]

	for j := range s.particles {
		if j == i {
			continue
		}
		dt := p.TimeToHit(&s.particles[j])
		t, ok, err := s.absolute(dt, event.KindParticle, i)
		if err != nil {
			return err
		}
		if ok {
			s.queue.Push(event.Pair(t, i, j, p.Count(), s.particles[j].Count()))
		}
	}

	t, ok, err := s.absolute(p.TimeToHitVerticalWall(), event.KindVerticalWall, i)
	if err != nil {
		return err
	}
	if ok {
		s.queue.Push(event.VerticalWall(t, i, p.Count()))
	}

	t, ok, err = s.absolute(p.TimeToHitHorizontalWall(), event.KindHorizontalWall, i)
	if err != nil {
		return err
	}
	if ok {
		s.queue.Push(event.HorizontalWall(t, i, p.Count()))
	}
	return nil
}

// absolute converts a predicted delta to an absolute time and reports whether it should be queued
func (s *Simulation) absolute(dt float64, kind event.Kind, i int) (float64, bool, error) {
	if math.IsNaN(dt) {
		return 0, false, s.anomaly(kind, i, dt)
	}
	if math.IsInf(dt, 1) || dt < 0 {
		return 0, false, nil
	}
	t := s.now + dt
	if t > s.horizon {
		return 0, false, nil
	}
	return t, true, nil
}

// reseed drops the queue and predicts everything from scratch up to horizon
func (s *Simulation) reseed(horizon float64) error {
	s.queue.Reset()
	s.horizon = horizon
	s.stats.Reseeds++
	for i := range s.particles {
		if err := s.predict(i); err != nil {
			return err
		}
	}
	s.scheduleRedraw()
	return nil
}

// scheduleRedraw queues the pending redraw tick if rendering is enabled and it lies within the horizon
func (s *Simulation) scheduleRedraw() {
	if s.renderer == nil || s.redrawInterval <= 0 || s.nextTick > s.horizon {
		return
	}
	s.queue.Push(event.Redraw(s.nextTick))
}

// driftTo moves every particle along its velocity until the clock reads t
func (s *Simulation) driftTo(t float64) {
	if dt := t - s.now; dt > 0 {
		for i := range s.particles {
			s.particles[i].Move(dt)
		}
	}
	s.now = t
}

func (s *Simulation) anyMoving() bool {
	for i := range s.particles {
		if s.particles[i].Moving() {
			return true
		}
	}
	return false
}

func (s *Simulation) notify(c Collision) {
	for _, fn := range s.hooks {
		fn(c)
	}
}

func (s *Simulation) checkVelocity(ev event.Event, ids ...int) error {
	for _, id := range ids {
		v := s.particles[id].Vel
		if !vmath.FiniteVec(v) {
			return s.anomaly(ev.Kind, id, v.X+v.Y)
		}
	}
	return nil
}

// anomaly faults the simulation and logs the complete particle state
func (s *Simulation) anomaly(kind event.Kind, i int, value float64) error {
	err := &AnomalyError{Time: s.now, Kind: kind, Particle: i, Value: value}
	s.fault = err
	s.logger.Error("numeric anomaly", "time", s.now, "kind", kind, "particle", i, "value", value, "state", s.snapshot().Particles)
	return err
}
