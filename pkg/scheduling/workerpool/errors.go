package workerpool

import (
	"errors"
	"fmt"
)

var (
	// ErrTaskExpired resolves the future of a task that was still queued when
	// its deadline passed.
	ErrTaskExpired = errors.New("workerpool: task expired before it started")

	// ErrPoolStopped resolves the future of a queued task dropped by Stop.
	ErrPoolStopped = errors.New("workerpool: pool stopped before task started")

	// ErrTaskPanicked is wrapped by every PanicError.
	ErrTaskPanicked = errors.New("workerpool: task panicked")
)

// PanicError carries a value recovered from a task body.
type PanicError struct {
	WorkerID  int
	Recovered interface{}
	Stack     []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task panicked on worker %d: %v", e.WorkerID, e.Recovered)
}

func (e *PanicError) Unwrap() error {
	return ErrTaskPanicked
}
