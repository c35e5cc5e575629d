/*
Package scheduler submits actions into a priority worker pool at specific
times: once, after a delay, at a fixed interval, or on a cron schedule.

The scheduler only decides when an action becomes due. Execution, ordering
by priority and expiration all happen in the workerpool it feeds, so every
workerpool.TaskOption applies to scheduled actions too. A timeout given with
workerpool.WithTimeout is measured from the moment the entry fires.

Basic Usage:

	s := scheduler.New()
	defer func() { <-s.Stop() }()

	s.Start()

	// One-time action in five seconds
	id, err := s.ScheduleAfter("", func() {
		fmt.Println("fired")
	}, 5*time.Second)

	// High-priority heartbeat every 30 seconds, dropped if it waits
	// in the queue longer than one second
	s.ScheduleRepeating("heartbeat", sendHeartbeat, 30*time.Second,
		workerpool.WithPriority(10),
		workerpool.WithTimeout(time.Second))

	// Report at 09:00 on weekdays
	s.ScheduleCron("report", "0 9 * * 1-5", buildReport)

An empty id is replaced by a generated UUID; every scheduling call returns
the id the entry was stored under so it can be cancelled later.

Sharing a Pool:

Pass the restricted view of an existing pool so the scheduler cannot change
its lifecycle:

	pool := workerpool.New(8)
	s, err := scheduler.NewWithConfig(scheduler.Config{
		WorkerPool:   pool.Submitter(),
		TickInterval: 10 * time.Millisecond,
	})

When no pool is configured the scheduler creates a four-worker pool of its
own and closes it when stopped.

Cron Expressions:

Expressions take five fields, six with a leading seconds field, or a
descriptor:

	"0/10 * * * * *"  every 10 seconds
	"0 0/2 * * *"     every 2 hours
	"@hourly"         at minute 0 of every hour
	"@every 90s"      every 90 seconds

Use ValidateCronExpression to check user input and DescribeCron to preview
the next run times.

Retries:

Backoff turns a fallible function into a schedulable action:

	s.ScheduleRepeating("sync", scheduler.Backoff{
		MaxRetries:   3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     2 * time.Second,
	}.Action(syncOnce), time.Minute)

Timing:

Due entries are collected every TickInterval (default 50ms), so an entry
fires up to one tick late. Entries are kept across Stop and Start.
*/
package scheduler
