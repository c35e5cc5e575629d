// Package stopwatch records instants and reports the time between them.
package stopwatch

import (
	"sync"
	"time"
)

// Clock provides the current time. It can be mocked for testing.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the system time.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Recorder keeps an ordered list of recorded instants. It is safe for
// concurrent use.
type Recorder struct {
	mu      sync.Mutex
	clock   Clock
	records []time.Time
}

// New creates a Recorder driven by the system clock.
func New() *Recorder {
	return NewWithClock(SystemClock{})
}

// NewWithClock creates a Recorder driven by clock.
func NewWithClock(clock Clock) *Recorder {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Recorder{clock: clock}
}

// Record appends the current instant and returns it.
func (r *Recorder) Record() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.clock.Now()
	r.records = append(r.records, now)
	return now
}

// Reset forgets every recorded instant.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.records = r.records[:0]
	r.mu.Unlock()
}

// Count returns the number of recorded instants.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// Total returns the time between the first and the last record, or zero
// with fewer than two records.
func (r *Recorder) Total() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.totalLocked()
}

// Last returns the time between the last two records, or zero with fewer
// than two records.
func (r *Recorder) Last() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.records)
	if n < 2 {
		return 0
	}
	return r.records[n-1].Sub(r.records[n-2])
}

// Average returns the mean interval between consecutive records: Total
// divided by Count-1. It is zero with fewer than two records.
func (r *Recorder) Average() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	intervals := len(r.records) - 1
	if intervals < 1 {
		return 0
	}
	return r.totalLocked() / time.Duration(intervals)
}

// Records returns a copy of the recorded instants in recording order.
func (r *Recorder) Records() []time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]time.Time, len(r.records))
	copy(out, r.records)
	return out
}

func (r *Recorder) totalLocked() time.Duration {
	if len(r.records) < 2 {
		return 0
	}
	return r.records[len(r.records)-1].Sub(r.records[0])
}
