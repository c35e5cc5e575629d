package stopwatch

import (
	"sync"
	"testing"
	"time"

	"github.com/vnykmshr/prioflow/internal/testutil"
)

func TestRecorderEmpty(t *testing.T) {
	r := New()

	testutil.AssertEqual(t, r.Count(), 0)
	testutil.AssertEqual(t, r.Total(), time.Duration(0))
	testutil.AssertEqual(t, r.Last(), time.Duration(0))
	testutil.AssertEqual(t, r.Average(), time.Duration(0))
	testutil.AssertEqual(t, len(r.Records()), 0)

	r.Record()
	testutil.AssertEqual(t, r.Count(), 1)
	testutil.AssertEqual(t, r.Total(), time.Duration(0))
	testutil.AssertEqual(t, r.Average(), time.Duration(0))
}

func TestRecorderDurations(t *testing.T) {
	clock := testutil.NewMockClock(time.Unix(0, 0))
	r := NewWithClock(clock)

	r.Record()
	for _, step := range []time.Duration{10 * time.Millisecond, 30 * time.Millisecond, 20 * time.Millisecond} {
		clock.Advance(step)
		r.Record()
	}

	testutil.AssertEqual(t, r.Count(), 4)
	testutil.AssertEqual(t, r.Total(), 60*time.Millisecond)
	testutil.AssertEqual(t, r.Last(), 20*time.Millisecond)
	testutil.AssertEqual(t, r.Average(), 20*time.Millisecond)

	records := r.Records()
	testutil.AssertEqual(t, len(records), 4)
	testutil.AssertEqual(t, records[1].Sub(records[0]), 10*time.Millisecond)

	// The copy is detached from the recorder.
	records[0] = time.Time{}
	testutil.AssertEqual(t, r.Total(), 60*time.Millisecond)

	r.Reset()
	testutil.AssertEqual(t, r.Count(), 0)
	testutil.AssertEqual(t, r.Total(), time.Duration(0))
}

func TestRecorderConcurrent(t *testing.T) {
	r := New()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				r.Record()
			}
		}()
	}
	wg.Wait()

	testutil.AssertEqual(t, r.Count(), 800)
}
