// Package pacer holds a loop to a target frame rate and measures the rate
// it actually achieves.
package pacer

import (
	"context"
	"sync"
	"time"

	"github.com/vnykmshr/prioflow/pkg/common/validation"
	"github.com/vnykmshr/prioflow/pkg/metrics"
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

// Config holds configuration options for creating a Pacer.
type Config struct {
	// FPS is the target number of frames per second. Ignored when Interval
	// is set.
	FPS float64

	// Interval is the target frame duration.
	Interval time.Duration

	// Name labels metrics. Defaults to "default".
	Name string

	// Clock defaults to the system clock.
	Clock Clock

	// Metrics, when set, counts paced and dropped frames.
	Metrics *metrics.Registry
}

// Pacer spaces iterations of a loop by a fixed interval. It keeps an
// absolute schedule: a frame that finishes early sleeps until its slot, a
// frame that overran by more than a whole interval is dropped instead of
// sleeping, so the loop catches up rather than drifting.
//
// A Pacer is safe for concurrent use, but its schedule is shared, so it
// normally belongs to a single loop.
type Pacer struct {
	mu       sync.Mutex
	clock    Clock
	interval time.Duration
	mark     time.Time
	name     string
	metrics  *metrics.Registry
}

// New creates a Pacer targeting fps frames per second.
func New(fps float64) (*Pacer, error) {
	return NewWithConfig(Config{FPS: fps})
}

// NewWithInterval creates a Pacer with the given frame duration.
func NewWithInterval(interval time.Duration) (*Pacer, error) {
	return NewWithConfig(Config{Interval: interval})
}

// NewWithConfig creates a Pacer with custom configuration.
func NewWithConfig(cfg Config) (*Pacer, error) {
	interval := cfg.Interval
	if interval == 0 {
		if err := validation.ValidatePositiveFloat("pacer", "FPS", cfg.FPS); err != nil {
			return nil, err
		}
		interval = fpsToInterval(cfg.FPS)
	}
	if err := validation.ValidatePositiveDuration("pacer", "Interval", interval); err != nil {
		return nil, err
	}

	p := &Pacer{
		clock:    cfg.Clock,
		interval: interval,
		name:     cfg.Name,
		metrics:  cfg.Metrics,
	}
	if p.clock == nil {
		p.clock = SystemClock{}
	}
	if p.name == "" {
		p.name = "default"
	}
	return p, nil
}

func fpsToInterval(fps float64) time.Duration {
	return time.Duration(float64(time.Second) / fps)
}

// SetFPS changes the target rate. The current schedule mark is kept.
func (p *Pacer) SetFPS(fps float64) error {
	if err := validation.ValidatePositiveFloat("pacer", "FPS", fps); err != nil {
		return err
	}
	return p.SetInterval(fpsToInterval(fps))
}

// SetInterval changes the target frame duration.
func (p *Pacer) SetInterval(interval time.Duration) error {
	if err := validation.ValidatePositiveDuration("pacer", "Interval", interval); err != nil {
		return err
	}
	p.mu.Lock()
	p.interval = interval
	p.mu.Unlock()
	return nil
}

// Interval returns the target frame duration.
func (p *Pacer) Interval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.interval
}

// Start anchors the schedule at the current instant.
func (p *Pacer) Start() {
	p.mu.Lock()
	p.mark = p.clock.Now()
	p.mu.Unlock()
}

// Overdue reports whether the current frame has run past twice the
// interval since the schedule mark.
func (p *Pacer) Overdue() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.clock.Now().Before(p.mark.Add(2 * p.interval))
}

// Sleep advances the schedule by one interval and waits for that slot.
// It returns false without sleeping when the caller is already a whole
// interval past the slot, meaning the frame should be dropped. A Pacer that
// was never started is anchored at the first call.
func (p *Pacer) Sleep(ctx context.Context) (bool, error) {
	p.mu.Lock()
	now := p.clock.Now()
	if p.mark.IsZero() {
		p.mark = now
	}
	p.mark = p.mark.Add(p.interval)
	target := p.mark
	dropped := !now.Before(target.Add(p.interval))
	p.mu.Unlock()

	if dropped {
		if p.metrics != nil {
			p.metrics.FramesDropped.WithLabelValues(p.name).Inc()
		}
		return false, nil
	}

	if wait := target.Sub(now); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}

	if p.metrics != nil {
		p.metrics.FramesPaced.WithLabelValues(p.name).Inc()
	}
	return true, nil
}
