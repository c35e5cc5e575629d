/*
Package prioflow provides a priority worker pool for Go applications, with a
scheduler that feeds it and timing helpers for loops that drive it.

Task Scheduling (pkg/scheduling):
  - workerpool: Priority worker pool with expiration, pause/resume,
    dynamic resizing, wait-for-idle and futures
  - scheduler: One-shot, interval and cron scheduling into a pool

Timing (pkg/timing):
  - stopwatch: Timestamp recorder with total, last and average intervals
  - pacer: Frame-rate pacing with frame dropping, and a rate meter

Supporting packages:
  - metrics: Prometheus collectors shared by the components above
  - common/errors, common/validation: Sentinel errors and config checks

The prioflow command (cmd/prioflow) runs synthetic workloads through a pool
and serves an admin HTTP API for a long-running one.

Example usage:

	import (
		"github.com/vnykmshr/prioflow/pkg/scheduling/scheduler"
		"github.com/vnykmshr/prioflow/pkg/scheduling/workerpool"
	)

	pool := workerpool.New(4) // 4 workers, started
	defer pool.Close()

	pool.Post(flushCache, workerpool.WithPriority(10))
	pool.Post(rebuildIndex, workerpool.WithTimeout(time.Second))

	sched, _ := scheduler.NewWithConfig(scheduler.Config{WorkerPool: pool.Submitter()})
	sched.ScheduleCron("report", "0 9 * * 1-5", buildReport)
	sched.Start()
*/
package prioflow
