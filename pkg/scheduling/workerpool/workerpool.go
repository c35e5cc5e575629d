package workerpool

import (
	"runtime/debug"

	"go.uber.org/zap"
)

// NewTask builds a Task whose relative timeout is measured on the pool clock.
func (p *Pool) NewTask(action func(), opts ...TaskOption) Task {
	return buildTask(p.clock, action, opts)
}

// Enqueue inserts t into the queue and wakes one waiting worker.
//
// Enqueue never fails because of the pool state. A stopped pool keeps the
// task queued and runs it after the next Start; a paused pool runs it after
// Resume.
func (p *Pool) Enqueue(t Task) {
	t.enqueuedAt = p.clock.Now()

	p.mu.Lock()
	p.queue.Push(t)
	p.taskCond.Signal()
	p.mu.Unlock()

	p.submitted.Add(1)
	if p.config.OnTaskEnqueued != nil {
		p.config.OnTaskEnqueued(t)
	}
}

// Post submits a fire-and-forget action.
func (p *Pool) Post(action func(), opts ...TaskOption) {
	p.Enqueue(p.NewTask(action, opts...))
}

// Execute submits action and returns a future that resolves when it has run.
func (p *Pool) Execute(action func(), opts ...TaskOption) *Future[struct{}] {
	return Submit(p, func() (struct{}, error) {
		action()
		return struct{}{}, nil
	}, opts...)
}

// Submit queues fn on s and returns a future for its result. The call does
// not block. If the task expires, is dropped by Stop, or panics under
// failure isolation, the future resolves with ErrTaskExpired, ErrPoolStopped
// or a *PanicError respectively.
func Submit[T any](s Submitter, fn func() (T, error), opts ...TaskOption) *Future[T] {
	f := newFuture[T]()
	t := s.NewTask(func() {
		v, err := fn()
		f.resolve(v, err)
	}, opts...)
	t.Abandon = f.fail
	s.Enqueue(t)
	return f
}

// SubmitFunc is Submit for functions that cannot fail.
func SubmitFunc[T any](s Submitter, fn func() T, opts ...TaskOption) *Future[T] {
	return Submit(s, func() (T, error) {
		return fn(), nil
	}, opts...)
}

// run is the main loop for a worker.
func (w *worker) run() {
	p := w.pool
	defer p.workerWg.Done()
	defer w.runWg.Done()

	if p.config.OnWorkerStart != nil {
		p.config.OnWorkerStart(w.id)
	}
	p.logger.Debug("worker started", zap.Int("worker_id", w.id))

	for {
		t, ok := p.next(w)
		if !ok {
			break
		}
		w.execute(t)
		p.finish()
	}

	p.logger.Debug("worker exited",
		zap.Int("worker_id", w.id),
		zap.Duration("uptime", p.clock.Now().Sub(w.started)),
	)
	if p.config.OnWorkerStop != nil {
		p.config.OnWorkerStop(w.id)
	}
}

// next blocks until w may run a task and returns it, or returns false when
// w must exit: the pool stopped, w belongs to an earlier run, or w is
// surplus after a shrink.
func (p *Pool) next(w *worker) (Task, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for {
		if p.stopped || w.generation != p.generation {
			return Task{}, false
		}

		if p.deleteNum.Load() > 0 {
			p.deleteNum.Add(-1)
			delete(p.workers, w.id)
			p.waitCond.Broadcast()
			// A submission may have signalled this worker; hand the wake-up on.
			if !p.queue.Empty() {
				p.taskCond.Signal()
			}
			return Task{}, false
		}

		if p.pausing {
			p.pauseCond.Wait()
			continue
		}

		t, ok := p.queue.Pop()
		if !ok {
			p.taskCond.Wait()
			continue
		}

		p.runningNum.Add(1)
		return t, true
	}
}

// finish accounts for a handled task and wakes blocked callers once the
// pool has nothing left in flight.
func (p *Pool) finish() {
	p.mu.Lock()
	if p.runningNum.Add(-1) == 0 && (p.queue.Empty() || p.pausing || p.stopped) {
		p.waitCond.Broadcast()
	}
	p.mu.Unlock()
}

// execute runs a single task, or discards it when it is stale.
func (w *worker) execute(t Task) {
	p := w.pool
	start := p.clock.Now()
	result := Result{
		Task:      t,
		WorkerID:  w.id,
		QueueWait: start.Sub(t.enqueuedAt),
	}

	if t.Expired(start) {
		p.expired.Add(1)
		p.logger.Debug("discarding expired task",
			zap.Int("worker_id", w.id),
			zap.Int("priority", t.Priority),
			zap.Time("expire_at", t.ExpireAt),
		)
		t.abandon(ErrTaskExpired)
		result.Err = ErrTaskExpired
		w.complete(result)
		return
	}

	if p.config.OnTaskStart != nil {
		p.config.OnTaskStart(w.id, t)
	}

	if p.tryMode.Load() {
		result.Err = w.runIsolated(t)
	} else if t.Action != nil {
		t.Action()
	}

	result.Duration = p.clock.Now().Sub(start)
	p.executed.Add(1)
	w.complete(result)
}

// runIsolated runs the task body and converts a panic into a *PanicError.
func (w *worker) runIsolated(t Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			p := w.pool
			perr := &PanicError{
				WorkerID:  w.id,
				Recovered: r,
				Stack:     debug.Stack(),
			}
			p.panicked.Add(1)
			p.logger.Error("task panicked",
				zap.Int("worker_id", w.id),
				zap.Int("priority", t.Priority),
				zap.Any("panic", r),
				zap.ByteString("stack", perr.Stack),
			)
			if p.config.PanicHandler != nil {
				p.config.PanicHandler(t, r)
			}
			t.abandon(perr)
			err = perr
		}
	}()

	if t.Action != nil {
		t.Action()
	}
	return nil
}

func (w *worker) complete(result Result) {
	if w.pool.config.OnTaskComplete != nil {
		w.pool.config.OnTaskComplete(result)
	}
}
