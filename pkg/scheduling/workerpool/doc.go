/*
Package workerpool provides a priority worker pool with task expiration,
pause/resume, dynamic resizing and blocking wait-for-idle.

A pool owns a set of worker goroutines and a single queue ordered by task
priority. Workers pick the highest-priority task first; tasks of equal
priority leave in submission order. A task may carry a deadline, after which
a worker discards it instead of running it.

Basic usage:

	pool := workerpool.New(4) // 4 workers, started
	defer pool.Close()

	pool.Post(func() {
		fmt.Println("hello from a worker")
	})

	pool.WaitIdle(false)

Futures:

Submit and Execute return a Future that resolves once the task has run or
once it is known that it never will:

	f := workerpool.Submit(pool, func() (int, error) {
		return compute(), nil
	}, workerpool.WithPriority(10))

	v, err := f.Get()
	switch {
	case errors.Is(err, workerpool.ErrTaskExpired):
		// the deadline passed while the task was queued
	case errors.Is(err, workerpool.ErrPoolStopped):
		// Stop dropped the task
	case errors.Is(err, workerpool.ErrTaskPanicked):
		// the body panicked; err is a *PanicError
	}

Task Options:

	workerpool.WithPriority(5)                  // higher runs first
	workerpool.WithTimeout(100*time.Millisecond) // stale 100ms after submission
	workerpool.WithDeadline(t)                  // stale after t
	workerpool.RunIfExpired(true)               // keep the deadline for bookkeeping only

Lifecycle:

A pool is either stopped or running, and a running pool may be paused.

	stopped --Start(n)--> running --Pause--> paused
	   ^                     |  ^               |
	   +-------Stop----------+  +----Resume-----+

Every transition reports whether it took effect; a call that does not apply
to the current state (Resume on a pool that is not paused, Start on a running
pool) returns false and changes nothing.

Stop waits for executing tasks, drops every queued task and waits for the
worker goroutines to exit. StopNoWait returns immediately; tasks already
executing finish in the background. Tasks submitted to a stopped pool stay
queued and run after the next Start.

Pause stops workers from taking new tasks and waits for executing ones.
Tasks submitted while paused run after Resume.

Resizing:

SetWorkerCount grows the pool by spawning workers and shrinks it by asking
surplus workers to leave at their next loop boundary. A task is never
interrupted by a shrink.

	pool.SetWorkerCount(16)       // grow
	pool.SetWorkerCount(2)        // shrink, waits until surplus workers left
	pool.SetWorkerCountNoWait(1)  // shrink without waiting

Waiting:

	pool.WaitIdle(false)                             // until nothing runs and nothing is queued
	ok := pool.WaitIdleFor(time.Second, false)       // bounded
	err := pool.WaitIdleContext(ctx, true)           // bounded by ctx, or return once stopped

Views:

Code that only submits work should receive a Submitter; code that also
administers the pool should receive a Controller. Both are thin views over
the same Pool:

	func feed(s workerpool.Submitter) { s.Post(work) }

	feed(pool.Submitter())
	admin := pool.Controller()

Failure Isolation:

By default a panic in a task body is recovered at the worker boundary,
logged through zap with the worker id and stack, passed to
Config.PanicHandler, and reported to the task's future as a *PanicError.
The worker keeps running. With Config.DisableFailureIsolation, or after
SetFailureIsolation(false), the panic propagates and terminates the process.

Administration:

All query, submission and wait operations are safe for concurrent use. When
several goroutines may issue lifecycle or sizing calls at the same time,
enable Config.MultiThreadedAdmin so those calls are serialized. Lifecycle
calls must not be made from inside a task body.

Metrics:

NewWithMetrics installs Prometheus instrumentation through the pool hooks:

	pool, err := workerpool.NewWithMetrics(workerpool.Config{WorkerCount: 8},
		"ingest", metrics.DefaultConfig())

Counters for submitted, executed, expired, panicked and abandoned tasks are
exported together with gauges for size, queued and running tasks and a
paused flag, all labelled with pool_name.
*/
package workerpool
