/*
Package scheduling groups the task execution primitives of prioflow.

  - workerpool: Priority worker pool for concurrent task execution
  - scheduler: Time-based submission into a worker pool

Worker Pool:

The worker pool runs tasks highest priority first, FIFO within a priority,
and discards tasks whose expiration passed while they were queued:

	pool := workerpool.New(4)
	defer pool.Close()

	f := workerpool.SubmitFunc(pool.Submitter(), func() int {
		return compute()
	}, workerpool.WithPriority(5), workerpool.WithTimeout(time.Second))

	v, err := f.Get() // err is ErrTaskExpired if the task went stale

Task Scheduler:

The scheduler decides when an action becomes due and posts it into a pool:

	s, _ := scheduler.NewWithConfig(scheduler.Config{
		WorkerPool: pool.Submitter(),
	})
	defer func() { <-s.Stop() }()
	s.Start()

	// Schedule one-time task
	s.ScheduleAfter("", task, time.Minute)

	// Schedule recurring task
	s.ScheduleRepeating("sync", task, time.Hour)

	// Cron-style scheduling
	s.ScheduleCron("report", "0 9 * * 1-5", task) // Weekdays at 9 AM

All scheduling components are safe for concurrent use.
*/
package scheduling
