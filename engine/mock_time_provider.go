package engine

import (
	"sync"
	"time"
)

// MockTimeProvider is a manually driven TimeProvider for pacing tests
// Time only moves when a test calls Advance or SetTime
type MockTimeProvider struct {
	mu      sync.RWMutex
	origin  time.Time
	current time.Time
}

func NewMockTimeProvider(start time.Time) *MockTimeProvider {
	return &MockTimeProvider{origin: start, current: start}
}

func (m *MockTimeProvider) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// SetTime jumps to t, backwards included
func (m *MockTimeProvider) SetTime(t time.Time) {
	m.mu.Lock()
	m.current = t
	m.mu.Unlock()
}

// Advance moves forward by d and returns the wall seconds since the start,
// the value a pacer multiplies by its speed
func (m *MockTimeProvider) Advance(d time.Duration) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.current.Add(d)
	return m.current.Sub(m.origin).Seconds()
}
