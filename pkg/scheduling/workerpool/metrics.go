package workerpool

import (
	"errors"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	pferrors "github.com/vnykmshr/prioflow/pkg/common/errors"
	"github.com/vnykmshr/prioflow/pkg/metrics"
)

var _ metrics.Instrumentable = (*Pool)(nil)

// instrumentation feeds pool events into a metrics.Registry.
type instrumentation struct {
	name     string
	enabled  atomic.Bool
	registry atomic.Pointer[metrics.Registry]
}

// NewWithMetrics creates a pool that reports to Prometheus under the given
// name. Hooks already present in config keep running after the metric
// updates. A disabled metricsConfig yields a plain pool.
func NewWithMetrics(config Config, name string, metricsConfig metrics.Config) (*Pool, error) {
	if !metricsConfig.Enabled {
		return NewWithConfig(config)
	}
	if name == "" {
		name = config.Name
	}
	if config.Name == "" {
		config.Name = name
	}

	inst := &instrumentation{name: name}
	inst.registry.Store(metricsConfig.Resolve())
	inst.enabled.Store(true)
	inst.chain(&config)

	p, err := NewWithConfig(config)
	if err != nil {
		return nil, err
	}
	p.inst = inst
	return p, nil
}

// NewWithDefaultMetrics creates a pool with workerCount workers reporting to
// a private Prometheus registry.
func NewWithDefaultMetrics(workerCount int, name string) (*Pool, error) {
	return NewWithMetrics(Config{WorkerCount: workerCount}, name, metrics.Config{
		Enabled:  true,
		Registry: prometheus.NewRegistry(),
	})
}

// EnableMetrics resumes metric collection, switching registries when config
// names one. Only pools built with NewWithMetrics can be instrumented.
func (p *Pool) EnableMetrics(config metrics.Config) error {
	if p.inst == nil {
		return pferrors.NewOperationError("workerpool", "EnableMetrics",
			errors.New("pool was not created with NewWithMetrics"))
	}
	if config.Registry != nil {
		p.inst.registry.Store(config.Resolve())
	}
	p.inst.enabled.Store(config.Enabled)
	if config.Enabled {
		p.inst.stateChanged(p.Stats())
	}
	return nil
}

// DisableMetrics stops metric collection.
func (p *Pool) DisableMetrics() {
	if p.inst != nil {
		p.inst.enabled.Store(false)
	}
}

// MetricsEnabled reports whether the pool is currently reporting metrics.
func (p *Pool) MetricsEnabled() bool {
	return p.inst != nil && p.inst.enabled.Load()
}

// MetricsRegistry returns the registry the pool reports to, or nil for a
// pool built without metrics. Other components can share it so that every
// collector lands in one Prometheus registerer.
func (p *Pool) MetricsRegistry() *metrics.Registry {
	if p.inst == nil {
		return nil
	}
	return p.inst.registry.Load()
}

// chain installs metric updates in front of the hooks already in config.
func (m *instrumentation) chain(config *Config) {
	onEnqueued := config.OnTaskEnqueued
	config.OnTaskEnqueued = func(t Task) {
		m.taskEnqueued()
		if onEnqueued != nil {
			onEnqueued(t)
		}
	}

	onStart := config.OnTaskStart
	config.OnTaskStart = func(workerID int, t Task) {
		m.taskStarted()
		if onStart != nil {
			onStart(workerID, t)
		}
	}

	onComplete := config.OnTaskComplete
	config.OnTaskComplete = func(result Result) {
		m.taskCompleted(result)
		if onComplete != nil {
			onComplete(result)
		}
	}

	onAbandoned := config.OnTaskAbandoned
	config.OnTaskAbandoned = func(t Task) {
		m.taskAbandoned()
		if onAbandoned != nil {
			onAbandoned(t)
		}
	}

	onState := config.OnStateChange
	config.OnStateChange = func(stats Stats) {
		m.stateChanged(stats)
		if onState != nil {
			onState(stats)
		}
	}
}

func (m *instrumentation) active() (*metrics.Registry, bool) {
	if !m.enabled.Load() {
		return nil, false
	}
	reg := m.registry.Load()
	return reg, reg != nil
}

func (m *instrumentation) taskEnqueued() {
	reg, ok := m.active()
	if !ok {
		return
	}
	reg.TasksSubmitted.WithLabelValues(m.name).Inc()
	reg.WorkerPoolQueued.WithLabelValues(m.name).Inc()
}

func (m *instrumentation) taskStarted() {
	reg, ok := m.active()
	if !ok {
		return
	}
	reg.WorkerPoolQueued.WithLabelValues(m.name).Dec()
	reg.WorkerPoolRunning.WithLabelValues(m.name).Inc()
}

func (m *instrumentation) taskCompleted(result Result) {
	reg, ok := m.active()
	if !ok {
		return
	}

	reg.TaskQueueWait.WithLabelValues(m.name).Observe(result.QueueWait.Seconds())

	if errors.Is(result.Err, ErrTaskExpired) {
		reg.TasksExpired.WithLabelValues(m.name).Inc()
		reg.WorkerPoolQueued.WithLabelValues(m.name).Dec()
		return
	}

	reg.WorkerPoolRunning.WithLabelValues(m.name).Dec()
	reg.TasksExecuted.WithLabelValues(m.name).Inc()
	reg.TaskExecutionDuration.WithLabelValues(m.name).Observe(result.Duration.Seconds())
	if errors.Is(result.Err, ErrTaskPanicked) {
		reg.TasksPanicked.WithLabelValues(m.name).Inc()
	}
}

func (m *instrumentation) taskAbandoned() {
	reg, ok := m.active()
	if !ok {
		return
	}
	reg.TasksAbandoned.WithLabelValues(m.name).Inc()
	reg.WorkerPoolQueued.WithLabelValues(m.name).Dec()
}

func (m *instrumentation) stateChanged(stats Stats) {
	reg, ok := m.active()
	if !ok {
		return
	}
	reg.WorkerPoolSize.WithLabelValues(m.name).Set(float64(stats.Workers))
	paused := 0.0
	if stats.Paused {
		paused = 1
	}
	reg.WorkerPoolPaused.WithLabelValues(m.name).Set(paused)
}
