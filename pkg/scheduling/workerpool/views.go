package workerpool

import (
	"context"
	"time"
)

// Submitter is the restricted view handed to code that only feeds work into
// a pool and waits for it; it cannot change the pool lifecycle.
type Submitter interface {
	NewTask(action func(), opts ...TaskOption) Task
	Enqueue(t Task)
	Post(action func(), opts ...TaskOption)
	Execute(action func(), opts ...TaskOption) *Future[struct{}]

	PendingTaskCount() int
	IsIdle() bool

	WaitIdle(waitIfStopped bool)
	WaitIdleUntil(deadline time.Time, waitIfStopped bool) bool
	WaitIdleFor(timeout time.Duration, waitIfStopped bool) bool
	WaitIdleContext(ctx context.Context, waitIfStopped bool) error
}

// Controller adds lifecycle, sizing and configuration control to Submitter.
type Controller interface {
	Submitter

	Start(n int) bool
	Stop() bool
	StopNoWait() bool
	Pause() bool
	PauseNoWait() bool
	Resume() bool

	SetWorkerCount(n int) bool
	SetWorkerCountNoWait(n int) bool
	SetMultiThreadedAdmin(multi bool)
	SetFailureIsolation(enabled bool)

	WorkerCount() int
	IsStopped() bool
	IsPaused() bool
	Stats() Stats
}

var (
	_ Controller = (*Pool)(nil)
	_ Submitter  = submitterView{}
	_ Controller = controllerView{}
)

// Submitter returns a view of p limited to submission, introspection and
// waiting. The concrete pool cannot be recovered from it by type assertion.
func (p *Pool) Submitter() Submitter {
	return submitterView{p: p}
}

// Controller returns a view of p without access to Close or the pool's
// configuration hooks.
func (p *Pool) Controller() Controller {
	return controllerView{submitterView{p: p}}
}

type submitterView struct {
	p *Pool
}

func (v submitterView) NewTask(action func(), opts ...TaskOption) Task {
	return v.p.NewTask(action, opts...)
}

func (v submitterView) Enqueue(t Task) { v.p.Enqueue(t) }

func (v submitterView) Post(action func(), opts ...TaskOption) { v.p.Post(action, opts...) }

func (v submitterView) Execute(action func(), opts ...TaskOption) *Future[struct{}] {
	return v.p.Execute(action, opts...)
}

func (v submitterView) PendingTaskCount() int { return v.p.PendingTaskCount() }

func (v submitterView) IsIdle() bool { return v.p.IsIdle() }

func (v submitterView) WaitIdle(waitIfStopped bool) { v.p.WaitIdle(waitIfStopped) }

func (v submitterView) WaitIdleUntil(deadline time.Time, waitIfStopped bool) bool {
	return v.p.WaitIdleUntil(deadline, waitIfStopped)
}

func (v submitterView) WaitIdleFor(timeout time.Duration, waitIfStopped bool) bool {
	return v.p.WaitIdleFor(timeout, waitIfStopped)
}

func (v submitterView) WaitIdleContext(ctx context.Context, waitIfStopped bool) error {
	return v.p.WaitIdleContext(ctx, waitIfStopped)
}

type controllerView struct {
	submitterView
}

func (v controllerView) Start(n int) bool { return v.p.Start(n) }

func (v controllerView) Stop() bool { return v.p.Stop() }

func (v controllerView) StopNoWait() bool { return v.p.StopNoWait() }

func (v controllerView) Pause() bool { return v.p.Pause() }

func (v controllerView) PauseNoWait() bool { return v.p.PauseNoWait() }

func (v controllerView) Resume() bool { return v.p.Resume() }

func (v controllerView) SetWorkerCount(n int) bool { return v.p.SetWorkerCount(n) }

func (v controllerView) SetWorkerCountNoWait(n int) bool { return v.p.SetWorkerCountNoWait(n) }

func (v controllerView) SetMultiThreadedAdmin(multi bool) { v.p.SetMultiThreadedAdmin(multi) }

func (v controllerView) SetFailureIsolation(enabled bool) { v.p.SetFailureIsolation(enabled) }

func (v controllerView) WorkerCount() int { return v.p.WorkerCount() }

func (v controllerView) IsStopped() bool { return v.p.IsStopped() }

func (v controllerView) IsPaused() bool { return v.p.IsPaused() }

func (v controllerView) Stats() Stats { return v.p.Stats() }
