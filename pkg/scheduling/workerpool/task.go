package workerpool

import (
	"time"
)

// Task is one unit of work together with its scheduling metadata.
//
// A Task is built once, handed to a pool with Enqueue, and owned by the pool
// from then on: by the queue until a worker pops it, then by that worker.
type Task struct {
	// Action is the task body.
	Action func()

	// Abandon, when set, is called with the reason the Action will never run:
	// ErrTaskExpired, ErrPoolStopped, or a *PanicError under failure isolation.
	Abandon func(error)

	// Priority orders the queue; higher runs first.
	Priority int

	// ExpireAt is the instant after which the task is stale.
	ExpireAt time.Time

	// RunIfExpired disables the staleness check.
	RunIfExpired bool

	seq        uint64
	enqueuedAt time.Time
}

// TaskOption configures a Task built by NewTask or one of the Submit helpers.
type TaskOption func(*taskSpec)

type taskSpec struct {
	priority     int
	expireAt     time.Time
	timeout      time.Duration
	hasTimeout   bool
	runIfExpired *bool
}

// WithPriority sets the task priority. Higher values run first; the default is 0.
func WithPriority(priority int) TaskOption {
	return func(s *taskSpec) { s.priority = priority }
}

// WithDeadline makes the task stale after t. Unless overridden with
// RunIfExpired, a stale task is discarded instead of executed.
func WithDeadline(t time.Time) TaskOption {
	return func(s *taskSpec) {
		s.expireAt = t
		s.hasTimeout = false
	}
}

// WithTimeout makes the task stale d after it is built. The deadline is
// computed from the pool clock at submission time.
func WithTimeout(d time.Duration) TaskOption {
	return func(s *taskSpec) {
		s.timeout = d
		s.hasTimeout = true
	}
}

// RunIfExpired overrides whether an expired task still runs. Tasks without a
// deadline or timeout always run.
func RunIfExpired(run bool) TaskOption {
	return func(s *taskSpec) { s.runIfExpired = &run }
}

// NewTask builds a Task using the wall clock for relative timeouts.
func NewTask(action func(), opts ...TaskOption) Task {
	return buildTask(systemClock{}, action, opts)
}

func buildTask(clock Clock, action func(), opts []TaskOption) Task {
	var spec taskSpec
	for _, opt := range opts {
		opt(&spec)
	}

	t := Task{
		Action:       action,
		Priority:     spec.priority,
		RunIfExpired: true,
	}

	switch {
	case spec.hasTimeout:
		t.ExpireAt = clock.Now().Add(spec.timeout)
		t.RunIfExpired = false
	case !spec.expireAt.IsZero():
		t.ExpireAt = spec.expireAt
		t.RunIfExpired = false
	}

	if spec.runIfExpired != nil {
		t.RunIfExpired = *spec.runIfExpired
	}

	return t
}

// Expired reports whether the task should be discarded at instant now.
func (t Task) Expired(now time.Time) bool {
	return !t.RunIfExpired && now.After(t.ExpireAt)
}

func (t Task) abandon(err error) {
	if t.Abandon != nil {
		t.Abandon(err)
	}
}

// Clock supplies the current time. Tests substitute a controllable clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
