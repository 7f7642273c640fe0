package task

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/j0hanz/cortex/bus"
	"github.com/j0hanz/cortex/core"
	"github.com/j0hanz/cortex/logging"
)

// Func is the unit of work executed by a launched task. It must honor ctx
// cancellation: a cancelled task's outstanding work checks its context and
// stops promptly.
type Func func(ctx context.Context) (any, error)

// Options configures a Manager.
type Options struct {
	// Store persists tasks and results. Defaults to an in-memory store.
	Store core.TaskStore
	// MaxActiveTasks bounds concurrently admitted tasks. 0 means unlimited.
	MaxActiveTasks int
	// DefaultTTL applies to tasks created without an explicit TTL.
	DefaultTTL time.Duration
	// DefaultPollInterval applies to tasks created without an explicit hint.
	DefaultPollInterval time.Duration
	// Bus receives task lifecycle events. Optional.
	Bus *bus.Bus
	// Logger receives diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Manager coordinates task admission, execution and cancellation. Each
// admitted task holds one limiter slot and one cancellation token; both are
// cleaned up exactly once per task on every exit path. Public methods are
// safe for concurrent use.
type Manager struct {
	store   core.TaskStore
	limiter *core.TaskLimiter
	bus     *bus.Bus
	logger  logging.Logger

	defaultTTL          time.Duration
	defaultPollInterval time.Duration

	mu       sync.Mutex
	cancels  map[string]context.CancelFunc
	releases map[string]*sync.Once
}

// NewManager constructs a Manager with optional overrides.
func NewManager(optFns ...func(o *Options)) *Manager {
	opts := Options{
		Store:               NewInMemoryStore(),
		DefaultTTL:          10 * time.Minute,
		DefaultPollInterval: 2 * time.Second,
		Logger:              logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Bus == nil {
		opts.Bus = bus.New(opts.Logger)
	}

	return &Manager{
		store:               opts.Store,
		limiter:             core.NewTaskLimiter(opts.MaxActiveTasks),
		bus:                 opts.Bus,
		logger:              opts.Logger,
		defaultTTL:          opts.DefaultTTL,
		defaultPollInterval: opts.DefaultPollInterval,
		cancels:             make(map[string]context.CancelFunc),
		releases:            make(map[string]*sync.Once),
	}
}

// Store exposes the underlying task store.
func (m *Manager) Store() core.TaskStore { return m.store }

// Active returns the number of currently admitted tasks.
func (m *Manager) Active() int { return m.limiter.Active() }

// Create admits a new pending task and returns it along with the derived
// cancellable context gating its execution. Fails with
// core.ErrAdmissionRejected once the limiter is saturated. A task admitted
// through Create holds its slot and bookkeeping until Cancel retires it or,
// on the Launch path, its goroutine exits.
func (m *Manager) Create(ctx context.Context, ttl, pollIntervalHint time.Duration) (*core.Task, context.Context, error) {
	if !m.limiter.TryAcquire() {
		return nil, nil, core.ErrAdmissionRejected
	}

	if ttl <= 0 {
		ttl = m.defaultTTL
	}
	if pollIntervalHint <= 0 {
		pollIntervalHint = m.defaultPollInterval
	}

	t, err := m.store.CreateTask(ttl, pollIntervalHint)
	if err != nil {
		m.limiter.Release()
		return nil, nil, err
	}

	taskCtx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	m.cancels[t.ID] = cancel
	m.releases[t.ID] = &sync.Once{}
	m.mu.Unlock()

	m.bus.Publish(core.NewTaskEvent(core.KindTaskCreated, t.ID, ""))
	m.logger.Debug("task admitted", "task_id", t.ID, "active", m.limiter.Active())

	return t, taskCtx, nil
}

// Launch admits a task and runs fn on a goroutine under the task's
// cancellation context. The task transitions pending -> running before fn
// starts; fn's outcome is stored as the terminal result unless cancellation
// won the race.
func (m *Manager) Launch(ctx context.Context, ttl, pollIntervalHint time.Duration, fn Func) (*core.Task, error) {
	t, taskCtx, err := m.Create(ctx, ttl, pollIntervalHint)
	if err != nil {
		return nil, err
	}

	go m.run(taskCtx, t.ID, fn)

	return t, nil
}

func (m *Manager) run(ctx context.Context, taskID string, fn Func) {
	defer m.finish(taskID)

	start := time.Now()
	if err := m.store.UpdateTaskStatus(taskID, core.TaskRunning, ""); err != nil {
		// Cancelled before the goroutine was scheduled.
		return
	}
	m.bus.Publish(core.NewTaskEvent(core.KindTaskUpdated, taskID, string(core.TaskRunning)))

	result, err := fn(ctx)

	var final core.TaskStatus
	switch {
	case ctx.Err() != nil:
		// Cancel already set the terminal status; tolerate the race.
		final = core.TaskCancelled
		if uerr := m.store.UpdateTaskStatus(taskID, core.TaskCancelled, ctx.Err().Error()); uerr != nil && !errors.Is(uerr, core.ErrInvalidTransition) {
			m.logger.Warn("task cancel bookkeeping failed", "task_id", taskID, "error", uerr.Error())
		}
	case err != nil:
		final = core.TaskFailed
		if serr := m.store.StoreTaskResult(taskID, core.TaskFailed, err.Error()); serr != nil && !errors.Is(serr, core.ErrAlreadyTerminal) {
			m.logger.Warn("task result store failed", "task_id", taskID, "error", serr.Error())
		}
	default:
		final = core.TaskCompleted
		if serr := m.store.StoreTaskResult(taskID, core.TaskCompleted, result); serr != nil && !errors.Is(serr, core.ErrAlreadyTerminal) {
			m.logger.Warn("task result store failed", "task_id", taskID, "error", serr.Error())
		}
	}

	m.bus.Publish(core.NewTaskEvent(core.KindTaskUpdated, taskID, string(final)))
	logging.LogTaskTransition(m.logger, taskID, string(core.TaskRunning), string(final), time.Since(start))
}

// Cancel propagates cancellation to the task's execution, marks it cancelled
// unless it already reached a terminal status, and releases the admission
// slot. Cancelling a task that raced with natural completion is not an
// error; the slot is still released exactly once.
func (m *Manager) Cancel(taskID string) error {
	if _, err := m.store.GetTask(taskID); err != nil {
		return err
	}

	uerr := m.store.UpdateTaskStatus(taskID, core.TaskCancelled, "cancelled by caller")
	m.finish(taskID)
	if uerr != nil && !errors.Is(uerr, core.ErrInvalidTransition) {
		return uerr
	}

	m.bus.Publish(core.NewTaskEvent(core.KindTaskUpdated, taskID, string(core.TaskCancelled)))

	return nil
}

// Get returns a clone of the task.
func (m *Manager) Get(taskID string) (*core.Task, error) {
	return m.store.GetTask(taskID)
}

// Result returns the detached result payload once the task is terminal.
func (m *Manager) Result(taskID string) (any, error) {
	return m.store.GetTaskResult(taskID)
}

// finish retires a task's bookkeeping: the limiter slot is returned at most
// once (guarding the cancel-vs-completion race), the cancellation token is
// invoked to release context resources, and both map entries are dropped so
// the manager holds no per-task state after the task is done. Safe to call
// from the run goroutine and Cancel concurrently.
func (m *Manager) finish(taskID string) {
	m.mu.Lock()
	once := m.releases[taskID]
	cancel := m.cancels[taskID]
	delete(m.releases, taskID)
	delete(m.cancels, taskID)
	m.mu.Unlock()

	if once != nil {
		once.Do(m.limiter.Release)
	}
	if cancel != nil {
		cancel()
	}
}
