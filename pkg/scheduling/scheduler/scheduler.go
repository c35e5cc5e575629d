package scheduler

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	pferrors "github.com/vnykmshr/prioflow/pkg/common/errors"
	"github.com/vnykmshr/prioflow/pkg/common/validation"
	"github.com/vnykmshr/prioflow/pkg/metrics"
	"github.com/vnykmshr/prioflow/pkg/scheduling/workerpool"
)

var (
	// ErrDuplicateID is returned when an entry with the same id is already scheduled.
	ErrDuplicateID = errors.New("scheduler: id already scheduled")

	// ErrNotFound is returned for operations on an unknown id.
	ErrNotFound = errors.New("scheduler: id not found")

	// ErrAlreadyRunning is returned by Start on a running scheduler.
	ErrAlreadyRunning = errors.New("scheduler: already running")
)

const (
	maxIDLength    = 255
	ownPoolWorkers = 4
)

// Kind tells how an entry is rescheduled after it fires.
type Kind string

const (
	KindOnce      Kind = "once"
	KindRepeating Kind = "repeating"
	KindCron      Kind = "cron"
)

// Entry describes a scheduled action as reported by List.
type Entry struct {
	ID       string
	Kind     Kind
	RunAt    time.Time
	Interval time.Duration // Zero unless Kind is KindRepeating
	CronExpr string        // Empty unless Kind is KindCron
	Created  time.Time
	Runs     int64
}

// Scheduler submits actions into a worker pool at specific times.
type Scheduler interface {
	// Basic scheduling. An empty id is replaced by a generated one; every
	// call returns the id the entry was stored under.
	Schedule(id string, action func(), runAt time.Time, opts ...workerpool.TaskOption) (string, error)
	ScheduleAfter(id string, action func(), delay time.Duration, opts ...workerpool.TaskOption) (string, error)
	ScheduleRepeating(id string, action func(), interval time.Duration, opts ...workerpool.TaskOption) (string, error)

	// Cron scheduling
	ScheduleCron(id string, cronExpr string, action func(), opts ...workerpool.TaskOption) (string, error)
	UpdateCron(id string, cronExpr string) error

	// Entry management
	Cancel(id string) bool
	CancelAll()
	List() []Entry
	Next(id string) (time.Time, error)

	// Lifecycle
	Start() error
	Stop() <-chan struct{}
}

// Config holds scheduler configuration.
type Config struct {
	// Name labels log entries and metrics. Defaults to "default".
	Name string

	// WorkerPool receives due actions. When nil the scheduler creates a
	// four-worker pool of its own and closes it on Stop.
	WorkerPool workerpool.Submitter

	// Location is used to evaluate cron expressions. Defaults to time.Local.
	Location *time.Location

	// TickInterval is how often due entries are collected. Default 50ms.
	TickInterval time.Duration

	// MaxTasks caps the number of entries. Default 10000.
	MaxTasks int

	// Logger defaults to zap.L().
	Logger *zap.Logger

	// Clock decides when entries are due. Defaults to the system clock.
	Clock workerpool.Clock

	// Metrics, when set, receives scheduled and dispatched counters.
	Metrics *metrics.Registry
}

type scheduledTask struct {
	id           string
	kind         Kind
	action       func()
	opts         []workerpool.TaskOption
	runAt        time.Time
	interval     time.Duration
	cronExpr     string
	cronSchedule cron.Schedule
	created      time.Time
	runs         int64
}

type scheduler struct {
	name         string
	pool         workerpool.Submitter
	ownPool      *workerpool.Pool
	location     *time.Location
	tickInterval time.Duration
	maxTasks     int
	logger       *zap.Logger
	clock        workerpool.Clock
	metrics      *metrics.Registry

	mu      sync.RWMutex
	tasks   map[string]*scheduledTask
	done    chan struct{}
	stopped chan struct{}
	closing <-chan struct{} // closed when the last Stop has finished
	running bool
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// New creates a scheduler with default configuration.
func New() Scheduler {
	s, _ := NewWithConfig(Config{})
	return s
}

// NewWithConfig creates a scheduler with custom configuration.
func NewWithConfig(cfg Config) (Scheduler, error) {
	if err := validation.ValidateNonNegative("scheduler", "MaxTasks", cfg.MaxTasks); err != nil {
		return nil, err
	}

	name := cfg.Name
	if name == "" {
		name = "default"
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.L()
	}
	logger = logger.With(zap.String("scheduler", name))

	s := &scheduler{
		name:         name,
		pool:         cfg.WorkerPool,
		location:     cfg.Location,
		tickInterval: cfg.TickInterval,
		maxTasks:     cfg.MaxTasks,
		logger:       logger,
		clock:        cfg.Clock,
		metrics:      cfg.Metrics,
		tasks:        make(map[string]*scheduledTask),
	}

	if s.pool == nil {
		pool, err := workerpool.NewWithConfig(workerpool.Config{
			Name:        "scheduler-" + name,
			WorkerCount: ownPoolWorkers,
			Logger:      cfg.Logger,
		})
		if err != nil {
			return nil, err
		}
		s.ownPool = pool
		s.pool = pool.Submitter()
	}
	if s.location == nil {
		s.location = time.Local
	}
	if s.tickInterval <= 0 {
		s.tickInterval = 50 * time.Millisecond
	}
	if s.maxTasks == 0 {
		s.maxTasks = 10000
	}
	if s.clock == nil {
		s.clock = systemClock{}
	}

	return s, nil
}

func (s *scheduler) Schedule(id string, action func(), runAt time.Time, opts ...workerpool.TaskOption) (string, error) {
	if runAt.IsZero() {
		return "", pferrors.NewValidationError("scheduler", "runAt", runAt, "cannot be zero")
	}
	return s.add(&scheduledTask{
		id:     id,
		kind:   KindOnce,
		action: action,
		opts:   opts,
		runAt:  runAt,
	})
}

func (s *scheduler) ScheduleAfter(id string, action func(), delay time.Duration, opts ...workerpool.TaskOption) (string, error) {
	return s.Schedule(id, action, s.clock.Now().Add(delay), opts...)
}

// ScheduleRepeating fires action immediately and then every interval.
func (s *scheduler) ScheduleRepeating(id string, action func(), interval time.Duration, opts ...workerpool.TaskOption) (string, error) {
	if err := validation.ValidatePositiveDuration("scheduler", "interval", interval); err != nil {
		return "", err
	}
	return s.add(&scheduledTask{
		id:       id,
		kind:     KindRepeating,
		action:   action,
		opts:     opts,
		runAt:    s.clock.Now(),
		interval: interval,
	})
}

func (s *scheduler) ScheduleCron(id string, cronExpr string, action func(), opts ...workerpool.TaskOption) (string, error) {
	if err := validation.ValidateNotEmpty("scheduler", "cronExpr", cronExpr); err != nil {
		return "", err
	}
	schedule, err := ParseCron(cronExpr)
	if err != nil {
		return "", err
	}
	return s.add(&scheduledTask{
		id:           id,
		kind:         KindCron,
		action:       action,
		opts:         opts,
		runAt:        schedule.Next(s.clock.Now().In(s.location)),
		cronExpr:     cronExpr,
		cronSchedule: schedule,
	})
}

// UpdateCron replaces the expression of an existing cron entry and
// recomputes its next run.
func (s *scheduler) UpdateCron(id string, cronExpr string) error {
	schedule, err := ParseCron(cronExpr)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok || t.kind != KindCron {
		return fmt.Errorf("%w: cron entry %q", ErrNotFound, id)
	}
	t.cronExpr = cronExpr
	t.cronSchedule = schedule
	t.runAt = schedule.Next(s.clock.Now().In(s.location))
	return nil
}

func (s *scheduler) add(t *scheduledTask) (string, error) {
	if err := validation.ValidateNotNil("scheduler", "action", t.action); err != nil {
		return "", err
	}
	if t.id == "" {
		t.id = uuid.NewString()
	}
	if len(t.id) > maxIDLength {
		return "", pferrors.NewValidationError("scheduler", "id", t.id,
			fmt.Sprintf("too long (max %d characters)", maxIDLength))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[t.id]; exists {
		return "", fmt.Errorf("%w: %q, cancel the existing entry first", ErrDuplicateID, t.id)
	}
	if len(s.tasks) >= s.maxTasks {
		return "", fmt.Errorf("%w: maximum number of entries (%d) reached",
			pferrors.ErrCapacityExceeded, s.maxTasks)
	}

	t.created = s.clock.Now()
	s.tasks[t.id] = t

	if s.metrics != nil {
		s.metrics.TasksScheduled.WithLabelValues(s.name, string(t.kind)).Inc()
	}
	s.logger.Debug("entry scheduled",
		zap.String("id", t.id),
		zap.String("kind", string(t.kind)),
		zap.Time("run_at", t.runAt),
	)
	return t.id, nil
}

func (s *scheduler) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[id]; exists {
		delete(s.tasks, id)
		return true
	}
	return false
}

func (s *scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = make(map[string]*scheduledTask)
}

func (s *scheduler) List() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]Entry, 0, len(s.tasks))
	for _, t := range s.tasks {
		entries = append(entries, Entry{
			ID:       t.id,
			Kind:     t.kind,
			RunAt:    t.runAt,
			Interval: t.interval,
			CronExpr: t.cronExpr,
			Created:  t.created,
			Runs:     t.runs,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].RunAt.Equal(entries[j].RunAt) {
			return entries[i].ID < entries[j].ID
		}
		return entries[i].RunAt.Before(entries[j].RunAt)
	})

	return entries
}

// Next returns when the entry with the given id fires next.
func (s *scheduler) Next(id string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return t.runAt, nil
}

func (s *scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The owned pool must be closed by every earlier Stop before it can be
	// restarted. Stop goroutines never take s.mu.
	for s.closing != nil {
		closing := s.closing
		select {
		case <-closing:
			s.closing = nil
		default:
			s.mu.Unlock()
			<-closing
			s.mu.Lock()
		}
	}

	if s.running {
		return ErrAlreadyRunning
	}

	if s.ownPool != nil && s.ownPool.IsStopped() {
		s.ownPool.Start(ownPoolWorkers)
	}

	s.running = true
	s.done = make(chan struct{})
	s.stopped = make(chan struct{})

	go s.run(time.NewTicker(s.tickInterval), s.done, s.stopped)
	s.logger.Debug("scheduler started", zap.Duration("tick", s.tickInterval))
	return nil
}

// Stop halts the tick loop. The returned channel is closed once the loop
// has exited and, if the scheduler owns its pool, the pool has been closed.
// Entries stay registered and fire again after the next Start.
func (s *scheduler) Stop() <-chan struct{} {
	s.mu.Lock()
	wasRunning := s.running
	loopDone := s.stopped
	if s.running {
		s.running = false
		close(s.done)
	}
	prev := s.closing
	stopped := make(chan struct{})
	s.closing = stopped
	s.mu.Unlock()

	go func() {
		defer close(stopped)
		if prev != nil {
			<-prev
		}
		if wasRunning {
			<-loopDone
		}
		if s.ownPool != nil {
			s.ownPool.Close()
		}
		s.logger.Debug("scheduler stopped")
	}()

	return stopped
}

func (s *scheduler) run(ticker *time.Ticker, done <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick dispatches due entries, keeping the loop alive if dispatch panics.
func (s *scheduler) tick() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("dispatch panicked", zap.Any("panic", r))
		}
	}()
	s.processReadyTasks()
}

type dispatch struct {
	id     string
	action func()
	opts   []workerpool.TaskOption
}

func (s *scheduler) processReadyTasks() {
	now := s.clock.Now()

	s.mu.Lock()
	if len(s.tasks) == 0 {
		s.mu.Unlock()
		return
	}

	ready := make([]dispatch, 0, len(s.tasks))
	for id, t := range s.tasks {
		if now.Before(t.runAt) {
			continue
		}

		ready = append(ready, dispatch{id: id, action: t.action, opts: t.opts})
		t.runs++

		switch t.kind {
		case KindRepeating:
			t.runAt = now.Add(t.interval)
		case KindCron:
			t.runAt = t.cronSchedule.Next(now.In(s.location))
		default:
			delete(s.tasks, id)
		}
	}
	s.mu.Unlock()

	// Post never blocks; a paused or stopped pool keeps the task queued.
	for _, d := range ready {
		s.pool.Post(d.action, d.opts...)
		if s.metrics != nil {
			s.metrics.TasksDispatched.WithLabelValues(s.name).Inc()
		}
		s.logger.Debug("entry dispatched", zap.String("id", d.id))
	}
}
