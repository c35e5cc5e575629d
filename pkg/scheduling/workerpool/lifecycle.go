package workerpool

import (
	"sync"

	"go.uber.org/zap"
)

// Start moves a stopped pool to running with n workers. It returns false
// when the pool is already running or n is negative.
func (p *Pool) Start(n int) bool {
	if n < 0 {
		return false
	}

	unlock := p.admin()
	p.mu.Lock()
	if !p.stopped {
		p.mu.Unlock()
		unlock()
		return false
	}

	p.stopped = false
	p.pausing = false
	p.pauseCond.Broadcast()
	p.waitCond.Broadcast()
	p.resizeLocked(n)
	pending := p.queue.Len()
	p.mu.Unlock()
	unlock()

	p.logger.Debug("pool started", zap.Int("workers", n), zap.Int("pending", pending))
	p.notifyStateChange()
	return true
}

// Stop stops the pool. It waits for tasks already executing to finish,
// drops every queued task (their futures resolve with ErrPoolStopped) and
// waits for the worker goroutines to exit. It returns false if the pool was
// already stopped.
//
// Stop must not be called from inside a task body.
func (p *Pool) Stop() bool {
	return p.stop(true)
}

// StopNoWait is like Stop but returns without waiting for executing tasks
// or worker goroutines. Tasks still executing finish in the background.
func (p *Pool) StopNoWait() bool {
	return p.stop(false)
}

func (p *Pool) stop(wait bool) bool {
	unlock := p.admin()
	defer unlock()

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return false
	}

	p.stopped = true
	p.generation++
	gen := p.generation
	runWg := p.runWg
	p.runWg = new(sync.WaitGroup)

	dropped := p.queue.Clear()
	clear(p.workers)
	p.threadsNum = 0
	p.deleteNum.Store(0)

	p.taskCond.Broadcast()
	p.pauseCond.Broadcast()
	p.waitCond.Broadcast()

	// A Start issued while waiting begins a new run; its tasks are not ours.
	if wait {
		for p.runningNum.Load() > 0 && p.stopped && p.generation == gen {
			p.waitCond.Wait()
		}
	}
	p.mu.Unlock()

	for _, t := range dropped {
		p.abandoned.Add(1)
		t.abandon(ErrPoolStopped)
		if p.config.OnTaskAbandoned != nil {
			p.config.OnTaskAbandoned(t)
		}
	}

	if wait {
		runWg.Wait()
	}

	p.logger.Debug("pool stopped", zap.Bool("waited", wait), zap.Int("dropped", len(dropped)))
	p.notifyStateChange()
	return true
}

// Pause stops workers from picking up new tasks and waits until tasks
// already executing have finished. It returns false unless the pool is
// running and not already paused.
func (p *Pool) Pause() bool {
	return p.pause(true)
}

// PauseNoWait is like Pause but returns without waiting for executing tasks.
func (p *Pool) PauseNoWait() bool {
	return p.pause(false)
}

func (p *Pool) pause(wait bool) bool {
	unlock := p.admin()
	p.mu.Lock()
	if p.stopped || p.pausing {
		p.mu.Unlock()
		unlock()
		return false
	}

	p.pausing = true
	p.taskCond.Broadcast()

	if wait {
		for p.runningNum.Load() > 0 && p.pausing && !p.stopped {
			p.waitCond.Wait()
		}
	}
	p.mu.Unlock()
	unlock()

	p.logger.Debug("pool paused", zap.Bool("waited", wait))
	p.notifyStateChange()
	return true
}

// Resume lets a paused pool pick up tasks again. It returns false unless the
// pool is running and paused.
func (p *Pool) Resume() bool {
	unlock := p.admin()
	p.mu.Lock()
	if p.stopped || !p.pausing {
		p.mu.Unlock()
		unlock()
		return false
	}

	p.pausing = false
	p.pauseCond.Broadcast()
	p.mu.Unlock()
	unlock()

	p.logger.Debug("pool resumed")
	p.notifyStateChange()
	return true
}

// SetWorkerCount changes the target number of workers. When shrinking it
// waits until the surplus workers have deregistered. It returns false when
// the pool is stopped or n is negative.
func (p *Pool) SetWorkerCount(n int) bool {
	return p.setWorkerCount(n, true)
}

// SetWorkerCountNoWait is like SetWorkerCount but does not wait for
// surplus workers to exit.
func (p *Pool) SetWorkerCountNoWait(n int) bool {
	return p.setWorkerCount(n, false)
}

func (p *Pool) setWorkerCount(n int, wait bool) bool {
	if n < 0 {
		return false
	}

	unlock := p.admin()
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		unlock()
		return false
	}

	from := p.threadsNum
	p.resizeLocked(n)

	if wait && n < from {
		for p.deleteNum.Load() > 0 && !p.stopped {
			p.waitCond.Wait()
		}
	}
	p.mu.Unlock()
	unlock()

	p.logger.Debug("pool resized", zap.Int("from", from), zap.Int("to", n), zap.Bool("waited", wait))
	p.notifyStateChange()
	return true
}

// Close performs a blocking Stop and waits for every worker goroutine,
// including stragglers of an earlier StopNoWait, to exit.
func (p *Pool) Close() error {
	p.Stop()
	p.workerWg.Wait()
	return nil
}

// resizeLocked grows or shrinks the registry towards n workers.
// Growing first cancels pending removals, then spawns the remainder.
// Shrinking only records how many workers must leave; each one exits at its
// next loop boundary so no task is interrupted.
func (p *Pool) resizeLocked(n int) {
	switch {
	case n < p.threadsNum:
		p.deleteNum.Add(int32(p.threadsNum - n))
		p.threadsNum = n
		p.taskCond.Broadcast()
		p.pauseCond.Broadcast()

	case n > p.threadsNum:
		delta := n - p.threadsNum
		p.threadsNum = n
		if pending := int(p.deleteNum.Load()); pending > 0 {
			cancelled := min(pending, delta)
			p.deleteNum.Add(-int32(cancelled))
			delta -= cancelled
			p.waitCond.Broadcast()
		}
		for i := 0; i < delta; i++ {
			p.spawnLocked()
		}
	}
}

func (p *Pool) spawnLocked() {
	p.nextWorkerID++
	w := &worker{
		id:         p.nextWorkerID,
		pool:       p,
		generation: p.generation,
		started:    p.clock.Now(),
		enabled:    true,
		runWg:      p.runWg,
	}
	p.workers[w.id] = w
	p.workerWg.Add(1)
	w.runWg.Add(1)
	go w.run()
}
