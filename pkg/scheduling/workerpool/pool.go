package workerpool

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/vnykmshr/prioflow/pkg/common/validation"
)

// Result describes how a worker handled one task.
type Result struct {
	// Task is the record that was handled
	Task Task

	// Err is nil when the body ran to completion, ErrTaskExpired when the
	// task was discarded as stale, or a *PanicError when the body panicked
	Err error

	// Duration is how long the body took; zero for expired tasks
	Duration time.Duration

	// QueueWait is the time between Enqueue and the worker picking the task up
	QueueWait time.Duration

	// WorkerID identifies which worker handled the task
	WorkerID int
}

// Stats is a point-in-time snapshot of a pool.
type Stats struct {
	Workers           int   `json:"workers"`
	RegisteredWorkers int   `json:"registered_workers"`
	Running           int   `json:"running"`
	Pending           int   `json:"pending"`
	Stopped           bool  `json:"stopped"`
	Paused            bool  `json:"paused"`
	Submitted         int64 `json:"submitted"`
	Executed          int64 `json:"executed"`
	Expired           int64 `json:"expired"`
	Panicked          int64 `json:"panicked"`
	Abandoned         int64 `json:"abandoned"`
}

// Config holds configuration options for creating a pool.
type Config struct {
	// Name labels log entries and metrics. Defaults to "default".
	Name string

	// WorkerCount is the number of workers started by NewWithConfig.
	// Zero leaves the pool stopped until Start is called.
	WorkerCount int

	// MultiThreadedAdmin serializes administrative calls (Start, Stop, Pause,
	// Resume, SetWorkerCount, configuration setters) issued from several
	// goroutines at once. Leave it off when a single goroutine administers
	// the pool.
	MultiThreadedAdmin bool

	// DisableFailureIsolation stops workers from recovering panics raised by
	// task bodies. A panic then propagates and terminates the process.
	DisableFailureIsolation bool

	// Logger receives worker lifecycle and task failure logs.
	// Defaults to zap.L().
	Logger *zap.Logger

	// Clock is used for expiration checks and durations. Defaults to the
	// system clock.
	Clock Clock

	// PanicHandler is called after a recovered task panic has been logged.
	PanicHandler func(task Task, recovered interface{})

	// OnWorkerStart is called when a worker goroutine starts.
	OnWorkerStart func(workerID int)

	// OnWorkerStop is called when a worker goroutine exits.
	OnWorkerStop func(workerID int)

	// OnTaskEnqueued is called after a task has been inserted into the queue.
	OnTaskEnqueued func(task Task)

	// OnTaskStart is called before a task body begins execution.
	OnTaskStart func(workerID int, task Task)

	// OnTaskComplete is called after a task was run, discarded as expired,
	// or recovered from a panic.
	OnTaskComplete func(result Result)

	// OnTaskAbandoned is called for each queued task dropped by Stop.
	OnTaskAbandoned func(task Task)

	// OnStateChange is called after every successful lifecycle transition.
	OnStateChange func(stats Stats)
}

// Pool is a priority worker pool with expiration, pause/resume, dynamic
// resizing and blocking wait-for-idle.
//
// The zero value is not usable; construct pools with New or NewWithConfig.
type Pool struct {
	config Config
	logger *zap.Logger
	clock  Clock

	// adminMu serializes administrative calls when multi is set.
	adminMu sync.Mutex

	// mu guards the queue, the registry and every non-atomic state field.
	mu        hubMutex
	taskCond  *sync.Cond // work arrived, or stop/pause/shrink
	waitCond  *sync.Cond // blocked callers should re-check their predicate
	pauseCond *sync.Cond // resume, stop or shrink

	queue        *taskQueue
	workers      map[int]*worker
	nextWorkerID int
	generation   uint64
	stopped      bool
	pausing      bool
	threadsNum   int

	multi   atomic.Bool
	tryMode atomic.Bool

	runningNum atomic.Int32
	deleteNum  atomic.Int32

	// workerWg counts every worker goroutine; runWg only those of the
	// current run.
	workerWg sync.WaitGroup
	runWg    *sync.WaitGroup

	submitted atomic.Int64
	executed  atomic.Int64
	expired   atomic.Int64
	panicked  atomic.Int64
	abandoned atomic.Int64

	inst *instrumentation
}

// worker is the registry handle of one worker goroutine.
type worker struct {
	id         int
	pool       *Pool
	generation uint64
	started    time.Time
	enabled    bool
	runWg      *sync.WaitGroup
}

// New creates a pool and starts workerCount workers.
// It panics if workerCount is negative.
func New(workerCount int) *Pool {
	p, err := NewWithConfig(Config{WorkerCount: workerCount})
	if err != nil {
		panic(err)
	}
	return p
}

// NewWithConfig creates a pool with the specified configuration. The pool
// is started when config.WorkerCount is positive and stays stopped otherwise.
func NewWithConfig(config Config) (*Pool, error) {
	if err := validation.ValidateNonNegative("workerpool", "WorkerCount", config.WorkerCount); err != nil {
		return nil, err
	}

	if config.Name == "" {
		config.Name = "default"
	}
	if config.Logger == nil {
		config.Logger = zap.L()
	}
	if config.Clock == nil {
		config.Clock = systemClock{}
	}

	p := &Pool{
		config:  config,
		logger:  config.Logger.With(zap.String("pool", config.Name)),
		clock:   config.Clock,
		queue:   newTaskQueue(),
		workers: make(map[int]*worker),
		stopped: true,
		runWg:   new(sync.WaitGroup),
	}
	p.taskCond = sync.NewCond(&p.mu)
	p.waitCond = sync.NewCond(&p.mu)
	p.pauseCond = sync.NewCond(&p.mu)
	p.multi.Store(config.MultiThreadedAdmin)
	p.tryMode.Store(!config.DisableFailureIsolation)

	if config.WorkerCount > 0 {
		p.Start(config.WorkerCount)
	}

	return p, nil
}

// admin takes the administrative lock when multi-threaded administration is
// enabled and returns the matching release function.
func (p *Pool) admin() func() {
	if p.multi.Load() {
		p.adminMu.Lock()
		return p.adminMu.Unlock
	}
	return func() {}
}

// Name returns the configured pool name.
func (p *Pool) Name() string {
	return p.config.Name
}

// SetMultiThreadedAdmin toggles serialization of administrative calls.
func (p *Pool) SetMultiThreadedAdmin(multi bool) {
	defer p.admin()()
	p.multi.Store(multi)
}

// MultiThreadedAdmin reports whether administrative calls are serialized.
func (p *Pool) MultiThreadedAdmin() bool {
	return p.multi.Load()
}

// SetFailureIsolation toggles recovery of task panics at the worker boundary.
func (p *Pool) SetFailureIsolation(enabled bool) {
	defer p.admin()()
	p.tryMode.Store(enabled)
}

// FailureIsolation reports whether task panics are recovered.
func (p *Pool) FailureIsolation() bool {
	return p.tryMode.Load()
}

// PendingTaskCount returns the number of queued tasks not yet picked up.
func (p *Pool) PendingTaskCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queue.Len()
}

// RunningTaskCount returns the number of tasks currently being handled.
func (p *Pool) RunningTaskCount() int {
	return int(p.runningNum.Load())
}

// WorkerCount returns the target number of workers.
func (p *Pool) WorkerCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.threadsNum
}

// RegisteredWorkers returns the number of workers currently in the registry,
// including surplus workers that have not yet noticed a shrink.
func (p *Pool) RegisteredWorkers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.workers)
}

// IsIdle reports whether no task is running and none is queued.
func (p *Pool) IsIdle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.idleLocked()
}

// IsStopped reports whether the pool is stopped.
func (p *Pool) IsStopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

// IsPaused reports whether the pool is running but paused.
func (p *Pool) IsPaused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pausing && !p.stopped
}

// Stats returns a snapshot of the pool state and lifetime counters.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.statsLocked()
}

func (p *Pool) statsLocked() Stats {
	return Stats{
		Workers:           p.threadsNum,
		RegisteredWorkers: len(p.workers),
		Running:           int(p.runningNum.Load()),
		Pending:           p.queue.Len(),
		Stopped:           p.stopped,
		Paused:            p.pausing && !p.stopped,
		Submitted:         p.submitted.Load(),
		Executed:          p.executed.Load(),
		Expired:           p.expired.Load(),
		Panicked:          p.panicked.Load(),
		Abandoned:         p.abandoned.Load(),
	}
}

func (p *Pool) idleLocked() bool {
	return p.runningNum.Load() == 0 && p.queue.Empty()
}

func (p *Pool) notifyStateChange() {
	if p.config.OnStateChange != nil {
		p.config.OnStateChange(p.Stats())
	}
}
