package testutil

import (
	"sync"
	"time"
)

// MockClock implements a controllable clock for testing.
// Used by the pool, stopwatch and pacer tests to avoid real time delays.
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMockClock creates a new MockClock starting at the given time.
// If zero time is provided, uses current time.
func NewMockClock(start time.Time) *MockClock {
	if start.IsZero() {
		start = time.Now()
	}
	return &MockClock{now: start}
}

// Now returns the current mock time.
func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the mock clock forward by the given duration.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// Set sets the mock clock to a specific time.
func (m *MockClock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

// OrderRecorder collects labels in the order they are appended from
// concurrent goroutines.
type OrderRecorder struct {
	mu    sync.Mutex
	order []string
}

// Append records label.
func (r *OrderRecorder) Append(label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = append(r.order, label)
}

// Order returns a copy of the recorded labels.
func (r *OrderRecorder) Order() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of recorded labels.
func (r *OrderRecorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}
