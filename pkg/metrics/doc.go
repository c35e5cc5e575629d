// Package metrics provides Prometheus instrumentation for prioflow components.
//
// # Overview
//
// The metrics package instruments:
//   - Worker pools (submitted, executed, expired, panicked and abandoned tasks,
//     execution and queue-wait durations, pool size, running and queued tasks)
//   - Schedulers (entries scheduled, entries dispatched to a pool)
//   - Frame pacers (frames paced, frames dropped)
//
// # Quick Start
//
//	pool, _ := workerpool.NewWithMetrics(workerpool.Config{WorkerCount: 4}, "jobs", metrics.DefaultConfig())
//	defer pool.Close()
//
//	http.Handle("/metrics", promhttp.Handler())
//
// # Custom Registry
//
// Use a dedicated Prometheus registry for isolation (tests do this so
// collectors never collide):
//
//	reg := prometheus.NewRegistry()
//	cfg := metrics.Config{Enabled: true, Registry: reg}
//	pool, _ := workerpool.NewWithMetrics(workerpool.Config{WorkerCount: 2}, "isolated", cfg)
//
// # Available Metrics
//
//   - prioflow_workerpool_tasks_submitted_total
//   - prioflow_workerpool_tasks_executed_total
//   - prioflow_workerpool_tasks_panicked_total
//   - prioflow_workerpool_tasks_expired_total
//   - prioflow_workerpool_tasks_abandoned_total
//   - prioflow_workerpool_task_duration_seconds
//   - prioflow_workerpool_task_queue_wait_seconds
//   - prioflow_workerpool_size
//   - prioflow_workerpool_running_tasks
//   - prioflow_workerpool_queued_tasks
//   - prioflow_workerpool_paused
//   - prioflow_scheduler_tasks_scheduled_total
//   - prioflow_scheduler_tasks_dispatched_total
//   - prioflow_pacer_frames_paced_total
//   - prioflow_pacer_frames_dropped_total
//
// # Labels
//
//   - pool_name: User-provided name for the worker pool instance
//   - scheduler_name: User-provided name for the scheduler instance
//   - kind: "once", "repeating" or "cron"
//   - pacer_name: User-provided name for the pacer instance
package metrics
