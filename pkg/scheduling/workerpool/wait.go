package workerpool

import (
	"context"
	"time"
)

// WaitIdle blocks until no task is running and none is queued. With
// waitIfStopped set it also returns as soon as the pool is stopped.
func (p *Pool) WaitIdle(waitIfStopped bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for !p.doneLocked(waitIfStopped) {
		p.waitCond.Wait()
	}
}

// WaitIdleUntil is WaitIdle with an absolute deadline. It reports whether
// the pool became idle (or stopped, with waitIfStopped) before the deadline.
func (p *Pool) WaitIdleUntil(deadline time.Time, waitIfStopped bool) bool {
	return p.WaitIdleFor(time.Until(deadline), waitIfStopped)
}

// WaitIdleFor is WaitIdle bounded by timeout.
func (p *Pool) WaitIdleFor(timeout time.Duration, waitIfStopped bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.doneLocked(waitIfStopped) {
		return true
	}
	if timeout <= 0 {
		return false
	}

	timedOut := false
	timer := time.AfterFunc(timeout, func() {
		p.mu.Lock()
		timedOut = true
		p.waitCond.Broadcast()
		p.mu.Unlock()
	})
	defer timer.Stop()

	for !p.doneLocked(waitIfStopped) {
		if timedOut {
			return false
		}
		p.waitCond.Wait()
	}
	return true
}

// WaitIdleContext is WaitIdle bounded by ctx. It returns ctx.Err() if ctx
// ends first.
func (p *Pool) WaitIdleContext(ctx context.Context, waitIfStopped bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.doneLocked(waitIfStopped) {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	stop := context.AfterFunc(ctx, func() {
		p.mu.Lock()
		p.waitCond.Broadcast()
		p.mu.Unlock()
	})
	defer stop()

	for !p.doneLocked(waitIfStopped) {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.waitCond.Wait()
	}
	return nil
}

func (p *Pool) doneLocked(waitIfStopped bool) bool {
	return (waitIfStopped && p.stopped) || p.idleLocked()
}
