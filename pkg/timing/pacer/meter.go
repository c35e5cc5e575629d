package pacer

import (
	"sync"
	"time"
)

// Meter counts ticks between Start and Stop and reports their rate.
type Meter struct {
	mu      sync.Mutex
	clock   Clock
	started time.Time
	stopped time.Time
	count   int64
}

// NewMeter creates a Meter driven by clock, or the system clock when nil.
func NewMeter(clock Clock) *Meter {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Meter{clock: clock}
}

// Start resets the count and begins a new measurement.
func (m *Meter) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count = 0
	m.stopped = time.Time{}
	m.started = m.clock.Now()
}

// Stop freezes the measurement window. Rate keeps reporting the rate over
// the window until the next Start.
func (m *Meter) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = m.clock.Now()
}

// Tick counts one event.
func (m *Meter) Tick() {
	m.mu.Lock()
	m.count++
	m.mu.Unlock()
}

// Count returns the number of ticks since Start.
func (m *Meter) Count() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}

// Started returns when the current measurement began.
func (m *Meter) Started() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

// Stopped returns when the measurement was stopped, or the zero time while
// it is still running.
func (m *Meter) Stopped() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

// Rate returns ticks per second over the measurement window, which ends now
// while the meter is running.
func (m *Meter) Rate() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	end := m.stopped
	if end.IsZero() {
		end = m.clock.Now()
	}
	elapsed := end.Sub(m.started)
	if m.started.IsZero() || elapsed <= 0 {
		return 0
	}
	return float64(m.count) / elapsed.Seconds()
}
