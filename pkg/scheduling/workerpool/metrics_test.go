package workerpool

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vnykmshr/prioflow/internal/testutil"
	"github.com/vnykmshr/prioflow/pkg/metrics"
)

func newMetricsPool(t *testing.T, workers int) (*Pool, *metrics.Registry) {
	t.Helper()
	p, err := NewWithMetrics(Config{WorkerCount: workers}, "test", metrics.Config{
		Enabled:  true,
		Registry: prometheus.NewRegistry(),
	})
	testutil.AssertNoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p, p.MetricsRegistry()
}

func TestMetricsCounters(t *testing.T) {
	p, reg := newMetricsPool(t, 2)
	testutil.AssertEqual(t, p.MetricsEnabled(), true)
	testutil.AssertEqual(t, p.Name(), "test")

	for i := 0; i < 5; i++ {
		p.Post(func() {})
	}
	p.Post(func() { panic("metrics") })
	p.WaitIdle(false)

	testutil.AssertEqual(t, promtest.ToFloat64(reg.TasksSubmitted.WithLabelValues("test")), 6.0)
	testutil.AssertEqual(t, promtest.ToFloat64(reg.TasksExecuted.WithLabelValues("test")), 6.0)
	testutil.AssertEqual(t, promtest.ToFloat64(reg.TasksPanicked.WithLabelValues("test")), 1.0)
	testutil.AssertEqual(t, promtest.ToFloat64(reg.WorkerPoolQueued.WithLabelValues("test")), 0.0)
	testutil.AssertEqual(t, promtest.ToFloat64(reg.WorkerPoolRunning.WithLabelValues("test")), 0.0)
	testutil.AssertEqual(t, promtest.ToFloat64(reg.WorkerPoolSize.WithLabelValues("test")), 2.0)
}

func TestMetricsLifecycleGauges(t *testing.T) {
	p, reg := newMetricsPool(t, 1)

	p.Pause()
	testutil.AssertEqual(t, promtest.ToFloat64(reg.WorkerPoolPaused.WithLabelValues("test")), 1.0)

	p.Post(func() {})
	p.Post(func() {})
	testutil.AssertEqual(t, promtest.ToFloat64(reg.WorkerPoolQueued.WithLabelValues("test")), 2.0)

	p.Stop()
	testutil.AssertEqual(t, promtest.ToFloat64(reg.TasksAbandoned.WithLabelValues("test")), 2.0)
	testutil.AssertEqual(t, promtest.ToFloat64(reg.WorkerPoolQueued.WithLabelValues("test")), 0.0)
	testutil.AssertEqual(t, promtest.ToFloat64(reg.WorkerPoolPaused.WithLabelValues("test")), 0.0)
	testutil.AssertEqual(t, promtest.ToFloat64(reg.WorkerPoolSize.WithLabelValues("test")), 0.0)
}

func TestMetricsDisable(t *testing.T) {
	p, reg := newMetricsPool(t, 1)

	p.DisableMetrics()
	testutil.AssertEqual(t, p.MetricsEnabled(), false)
	p.Post(func() {})
	p.WaitIdle(false)
	testutil.AssertEqual(t, promtest.ToFloat64(reg.TasksSubmitted.WithLabelValues("test")), 0.0)

	other := prometheus.NewRegistry()
	testutil.AssertNoError(t, p.EnableMetrics(metrics.Config{Enabled: true, Registry: other}))
	testutil.AssertEqual(t, p.MetricsEnabled(), true)

	p.Post(func() {})
	p.WaitIdle(false)

	families, err := other.Gather()
	testutil.AssertNoError(t, err)
	testutil.AssertNotEqual(t, len(families), 0)
	testutil.AssertEqual(t, promtest.ToFloat64(reg.TasksSubmitted.WithLabelValues("test")), 0.0)
}

func TestMetricsHooksChained(t *testing.T) {
	var completed int
	p, err := NewWithMetrics(Config{
		WorkerCount:    1,
		OnTaskComplete: func(Result) { completed++ },
	}, "chained", metrics.Config{Enabled: true, Registry: prometheus.NewRegistry()})
	testutil.AssertNoError(t, err)
	defer p.Close()

	p.Post(func() {})
	p.WaitIdle(false)
	testutil.AssertEqual(t, completed, 1)
}

func TestMetricsDisabledConfig(t *testing.T) {
	p, err := NewWithMetrics(Config{}, "plain", metrics.Config{Enabled: false})
	testutil.AssertNoError(t, err)
	defer p.Close()

	testutil.AssertEqual(t, p.MetricsEnabled(), false)
	testutil.AssertEqual(t, p.MetricsRegistry() == nil, true)
	testutil.AssertError(t, p.EnableMetrics(metrics.DefaultConfig()))
}
