package engine

import (
	"sync"
	"time"
)

// PausableClock measures wall time that elapsed while not paused
type PausableClock struct {
	mu sync.Mutex

	provider   TimeProvider
	start      time.Time
	paused     bool
	pauseStart time.Time
	pausedFor  time.Duration // Completed pauses
}

// NewPausableClock starts a running clock on provider
func NewPausableClock(provider TimeProvider) *PausableClock {
	return &PausableClock{
		provider: provider,
		start:    provider.Now(),
	}
}

// Elapsed returns active (unpaused) time since the clock started
func (pc *PausableClock) Elapsed() time.Duration {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.elapsedLocked()
}

func (pc *PausableClock) elapsedLocked() time.Duration {
	end := pc.provider.Now()
	if pc.paused {
		end = pc.pauseStart
	}
	return end.Sub(pc.start) - pc.pausedFor
}

// Pause freezes Elapsed; no-op when already paused
func (pc *PausableClock) Pause() {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	if !pc.paused {
		pc.paused = true
		pc.pauseStart = pc.provider.Now()
	}
}

// Resume continues Elapsed from where it froze
func (pc *PausableClock) Resume() {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	if pc.paused {
		pc.pausedFor += pc.provider.Now().Sub(pc.pauseStart)
		pc.paused = false
		pc.pauseStart = time.Time{}
	}
}

// Toggle flips the pause state and returns the new one
func (pc *PausableClock) Toggle() bool {
	pc.mu.Lock()
	paused := pc.paused
	pc.mu.Unlock()

	if paused {
		pc.Resume()
	} else {
		pc.Pause()
	}
	return !paused
}

// IsPaused returns the current pause state
func (pc *PausableClock) IsPaused() bool {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.paused
}

// TotalPauseDuration returns cumulative pause time, the current pause included
func (pc *PausableClock) TotalPauseDuration() time.Duration {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	total := pc.pausedFor
	if pc.paused {
		total += pc.provider.Now().Sub(pc.pauseStart)
	}
	return total
}
