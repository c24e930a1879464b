package utils

import (
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (s SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// MockClock is a settable clock for tests. It is safe for concurrent use.
type MockClock struct {
	mu       sync.Mutex
	FixedNow time.Time
}

func NewMockClock(now time.Time) *MockClock {
	return &MockClock{FixedNow: now}
}

func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.FixedNow
}

func (m *MockClock) SetNow(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FixedNow = now
}

// Advance moves the clock forward and returns the new time.
func (m *MockClock) Advance(d time.Duration) time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FixedNow = m.FixedNow.Add(d)
	return m.FixedNow
}
