// Package metrics provides Prometheus instrumentation for prioflow components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultNamespace prefixes every collector unless Config.Namespace overrides it.
const DefaultNamespace = "prioflow"

// Registry holds all metric instances for prioflow components.
type Registry struct {
	// Worker Pool Metrics
	TasksSubmitted        *prometheus.CounterVec
	TasksExecuted         *prometheus.CounterVec
	TasksPanicked         *prometheus.CounterVec
	TasksExpired          *prometheus.CounterVec
	TasksAbandoned        *prometheus.CounterVec
	TaskExecutionDuration *prometheus.HistogramVec
	TaskQueueWait         *prometheus.HistogramVec
	WorkerPoolSize        *prometheus.GaugeVec
	WorkerPoolRunning     *prometheus.GaugeVec
	WorkerPoolQueued      *prometheus.GaugeVec
	WorkerPoolPaused      *prometheus.GaugeVec

	// Scheduler Metrics
	TasksScheduled  *prometheus.CounterVec
	TasksDispatched *prometheus.CounterVec

	// Pacer Metrics
	FramesPaced   *prometheus.CounterVec
	FramesDropped *prometheus.CounterVec
}

// DefaultRegistry is the default metrics registry used by prioflow components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	return newRegistry(reg, DefaultNamespace)
}

// NewRegistryWithConfig creates a registry honoring the registerer and
// namespace of cfg. Constant labels in cfg.Labels are attached to every collector.
func NewRegistryWithConfig(cfg Config) *Registry {
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if len(cfg.Labels) > 0 {
		reg = prometheus.WrapRegistererWith(cfg.Labels, reg)
	}
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return newRegistry(reg, namespace)
}

func newRegistry(reg prometheus.Registerer, namespace string) *Registry {
	factory := promauto.With(reg)
	pool := []string{"pool_name"}

	return &Registry{
		TasksSubmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "workerpool",
				Name:      "tasks_submitted_total",
				Help:      "Total number of tasks submitted to the pool",
			},
			pool,
		),

		TasksExecuted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "workerpool",
				Name:      "tasks_executed_total",
				Help:      "Total number of task bodies that ran",
			},
			pool,
		),

		TasksPanicked: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "workerpool",
				Name:      "tasks_panicked_total",
				Help:      "Total number of task bodies that panicked",
			},
			pool,
		),

		TasksExpired: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "workerpool",
				Name:      "tasks_expired_total",
				Help:      "Total number of tasks discarded because they expired before running",
			},
			pool,
		),

		TasksAbandoned: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "workerpool",
				Name:      "tasks_abandoned_total",
				Help:      "Total number of queued tasks dropped by a pool stop",
			},
			pool,
		),

		TaskExecutionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "workerpool",
				Name:      "task_duration_seconds",
				Help:      "Time spent executing task bodies",
				Buckets:   prometheus.DefBuckets,
			},
			pool,
		),

		TaskQueueWait: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "workerpool",
				Name:      "task_queue_wait_seconds",
				Help:      "Time tasks spent queued before a worker picked them up",
				Buckets:   prometheus.DefBuckets,
			},
			pool,
		),

		WorkerPoolSize: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "workerpool",
				Name:      "size",
				Help:      "Target worker count",
			},
			pool,
		),

		WorkerPoolRunning: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "workerpool",
				Name:      "running_tasks",
				Help:      "Number of task bodies currently executing",
			},
			pool,
		),

		WorkerPoolQueued: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "workerpool",
				Name:      "queued_tasks",
				Help:      "Number of queued tasks",
			},
			pool,
		),

		WorkerPoolPaused: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "workerpool",
				Name:      "paused",
				Help:      "1 while the pool is paused, 0 otherwise",
			},
			pool,
		),

		TasksScheduled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scheduler",
				Name:      "tasks_scheduled_total",
				Help:      "Total number of entries added to the scheduler",
			},
			[]string{"scheduler_name", "kind"},
		),

		TasksDispatched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scheduler",
				Name:      "tasks_dispatched_total",
				Help:      "Total number of due entries handed to the worker pool",
			},
			[]string{"scheduler_name"},
		),

		FramesPaced: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pacer",
				Name:      "frames_paced_total",
				Help:      "Total number of frames that slept to their target time",
			},
			[]string{"pacer_name"},
		),

		FramesDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pacer",
				Name:      "frames_dropped_total",
				Help:      "Total number of frames that were already late and did not sleep",
			},
			[]string{"pacer_name"},
		),
	}
}
