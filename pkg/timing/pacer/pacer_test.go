package pacer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vnykmshr/prioflow/internal/testutil"
	pferrors "github.com/vnykmshr/prioflow/pkg/common/errors"
	"github.com/vnykmshr/prioflow/pkg/metrics"
)

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
		want    time.Duration
	}{
		{"fps", Config{FPS: 50}, false, 20 * time.Millisecond},
		{"interval", Config{Interval: time.Second}, false, time.Second},
		{"interval wins", Config{FPS: 10, Interval: 5 * time.Millisecond}, false, 5 * time.Millisecond},
		{"zero fps", Config{}, true, 0},
		{"negative fps", Config{FPS: -1}, true, 0},
		{"negative interval", Config{Interval: -time.Second}, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewWithConfig(tt.cfg)
			if tt.wantErr {
				testutil.AssertEqual(t, pferrors.IsValidationError(err), true)
				return
			}
			testutil.AssertNoError(t, err)
			testutil.AssertEqual(t, p.Interval(), tt.want)
		})
	}
}

func TestSetFPS(t *testing.T) {
	p, err := New(10)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, p.Interval(), 100*time.Millisecond)

	testutil.AssertNoError(t, p.SetFPS(4))
	testutil.AssertEqual(t, p.Interval(), 250*time.Millisecond)

	testutil.AssertError(t, p.SetFPS(0))
	testutil.AssertError(t, p.SetInterval(0))
	testutil.AssertEqual(t, p.Interval(), 250*time.Millisecond)
}

func TestOverdue(t *testing.T) {
	clock := testutil.NewMockClock(time.Unix(0, 0))
	p, err := NewWithConfig(Config{Interval: 10 * time.Millisecond, Clock: clock})
	testutil.AssertNoError(t, err)

	p.Start()
	testutil.AssertEqual(t, p.Overdue(), false)

	clock.Advance(19 * time.Millisecond)
	testutil.AssertEqual(t, p.Overdue(), false)

	clock.Advance(time.Millisecond)
	testutil.AssertEqual(t, p.Overdue(), true)
}

func TestSleepDropsLateFrames(t *testing.T) {
	clock := testutil.NewMockClock(time.Unix(0, 0))
	reg := metrics.NewRegistry(prometheus.NewRegistry())
	p, err := NewWithConfig(Config{Interval: 10 * time.Millisecond, Clock: clock, Name: "late", Metrics: reg})
	testutil.AssertNoError(t, err)
	p.Start()

	// The slot is at 10ms; at 20ms the frame is a whole interval late.
	clock.Advance(20 * time.Millisecond)
	ok, err := p.Sleep(context.Background())
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, ok, false)

	// The next slot is at 20ms and now is 20ms: on time, no wait needed.
	ok, err = p.Sleep(context.Background())
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, ok, true)

	testutil.AssertEqual(t, promtest.ToFloat64(reg.FramesDropped.WithLabelValues("late")), 1.0)
	testutil.AssertEqual(t, promtest.ToFloat64(reg.FramesPaced.WithLabelValues("late")), 1.0)
}

func TestSleepWaitsForSlot(t *testing.T) {
	p, err := NewWithInterval(15 * time.Millisecond)
	testutil.AssertNoError(t, err)
	p.Start()

	start := time.Now()
	for i := 0; i < 3; i++ {
		ok, err := p.Sleep(context.Background())
		testutil.AssertNoError(t, err)
		testutil.AssertEqual(t, ok, true)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Fatalf("three frames took %v, want at least 40ms", elapsed)
	}
}

func TestSleepContextCancelled(t *testing.T) {
	p, err := NewWithInterval(time.Hour)
	testutil.AssertNoError(t, err)
	p.Start()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	ok, err := p.Sleep(ctx)
	testutil.AssertEqual(t, ok, false)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
}

func TestSleepWithoutStart(t *testing.T) {
	clock := testutil.NewMockClock(time.Unix(100, 0))
	p, err := NewWithConfig(Config{Interval: time.Millisecond, Clock: clock})
	testutil.AssertNoError(t, err)

	// The first call anchors the schedule and waits one interval.
	ok, err := p.Sleep(context.Background())
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, ok, true)
}
