package workerpool

import (
	"context"
	"sync"
)

// Future is the result handle returned by Submit and Execute.
// It resolves exactly once, either with the function's result or with the
// reason the task never produced one.
type Future[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) resolve(value T, err error) {
	f.once.Do(func() {
		f.value = value
		f.err = err
		close(f.done)
	})
}

func (f *Future[T]) fail(err error) {
	var zero T
	f.resolve(zero, err)
}

// Done returns a channel that is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Ready reports whether the result is available without blocking.
func (f *Future[T]) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the result is available.
func (f *Future[T]) Wait() {
	<-f.done
}

// Get blocks until the result is available and returns it.
func (f *Future[T]) Get() (T, error) {
	<-f.done
	return f.value, f.err
}

// GetContext is like Get but gives up when ctx is done.
func (f *Future[T]) GetContext(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
