// Package cortex provides a high-level façade over the session, task and
// event packages that make up the reasoning-trace engine. Most applications
// interact with this package by:
//  1. Creating an Engine via New() (optionally overriding default in-memory
//     stores and limits)
//  2. Calling Start() to run the periodic expiry sweep
//  3. Driving it through Handle() with validated request objects, or through
//     the typed methods mirroring each store operation
//
// The façade delegates session bookkeeping to session.Store and background
// work to task.Manager while keeping setup and usage ergonomics concise. All
// defaults are safe for local development and testing; production deployments
// typically supply tuned limits and a structured logger.
package cortex

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/j0hanz/cortex/bus"
	"github.com/j0hanz/cortex/config"
	"github.com/j0hanz/cortex/core"
	"github.com/j0hanz/cortex/logging"
	"github.com/j0hanz/cortex/session"
	"github.com/j0hanz/cortex/task"
)

// Options configures the Engine instance.
type Options struct {
	// Limits bound the session store (TTL, capacity, aggregate tokens).
	Limits session.Limits

	// Levels is the authoritative reasoning level table. Defaults to
	// core.DefaultLevels().
	Levels map[core.Level]core.LevelConfig

	// MaxActiveTasks caps concurrently admitted background tasks.
	// 0 means unlimited.
	MaxActiveTasks int

	// TaskTTL is the retention of terminal tasks before pruning.
	TaskTTL time.Duration

	// TaskPollInterval is the default poll hint returned with new tasks.
	TaskPollInterval time.Duration

	// SweepInterval is the cadence of the periodic expiry sweep started by
	// Start(). Defaults to one minute.
	SweepInterval time.Duration

	// TaskStore persists tasks (defaults to an in-memory implementation).
	TaskStore core.TaskStore

	// Bus carries engine events to subscribers. Defaults to a fresh bus.
	Bus *bus.Bus

	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// FromConfig maps a loaded configuration onto engine options.
func FromConfig(cfg *config.Config) func(o *Options) {
	return func(o *Options) {
		o.Limits = session.Limits{
			TTL:            cfg.SessionTTL,
			MaxSessions:    cfg.MaxSessions,
			MaxTotalTokens: cfg.MaxTotalTokens,
		}
		o.Levels = cfg.Levels
		o.MaxActiveTasks = cfg.MaxActiveTasks
		o.TaskTTL = cfg.TaskTTL
		o.TaskPollInterval = cfg.TaskPollInterval
		o.SweepInterval = cfg.SweepInterval
	}
}

// Engine is the high-level façade aggregating the session store, the task
// manager and the event bus.
type Engine struct {
	sessions *session.Store
	tasks    *task.Manager
	bus      *bus.Bus
	logger   logging.Logger

	levels        map[core.Level]core.LevelConfig
	sweepInterval time.Duration
	cron          *cron.Cron
}

// New creates a new Engine with optional overrides. Any unset store is
// initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *Engine {
	opts := Options{
		Levels:           core.DefaultLevels(),
		TaskTTL:          10 * time.Minute,
		TaskPollInterval: 2 * time.Second,
		SweepInterval:    time.Minute,
		Logger:           logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Bus == nil {
		opts.Bus = bus.New(opts.Logger)
	}
	if opts.TaskStore == nil {
		opts.TaskStore = task.NewInMemoryStore()
	}

	sessions := session.NewStore(func(o *session.Options) {
		o.Limits = opts.Limits
		o.Levels = opts.Levels
		o.Bus = opts.Bus
		o.Logger = opts.Logger
	})

	tasks := task.NewManager(func(o *task.Options) {
		o.Store = opts.TaskStore
		o.MaxActiveTasks = opts.MaxActiveTasks
		o.DefaultTTL = opts.TaskTTL
		o.DefaultPollInterval = opts.TaskPollInterval
		o.Bus = opts.Bus
		o.Logger = opts.Logger
	})

	e := &Engine{
		sessions:      sessions,
		tasks:         tasks,
		bus:           opts.Bus,
		logger:        opts.Logger,
		levels:        opts.Levels,
		sweepInterval: opts.SweepInterval,
	}

	// Diagnostic mirror of session list changes.
	e.bus.Subscribe(core.KindResourceUpdated, func(ev core.Event) {
		e.logger.Debug("session list changed", "session_id", ev.SessionID)
	})

	return e
}

// Bus exposes the engine's event bus for subscribers.
func (e *Engine) Bus() *bus.Bus { return e.bus }

// Sessions exposes the underlying session store.
func (e *Engine) Sessions() core.SessionStore { return e.sessions }

// Tasks exposes the underlying task manager.
func (e *Engine) Tasks() *task.Manager { return e.tasks }

// Levels returns the authoritative reasoning level table.
func (e *Engine) Levels() map[core.Level]core.LevelConfig {
	out := make(map[core.Level]core.LevelConfig, len(e.levels))
	for k, v := range e.levels {
		out[k] = v
	}
	return out
}

// Start launches the periodic sweep that removes expired sessions and prunes
// terminal tasks. It is a no-op if the engine is already started.
func (e *Engine) Start() error {
	if e.cron != nil {
		return nil
	}

	c := cron.New()
	spec := fmt.Sprintf("@every %s", e.sweepInterval)
	if _, err := c.AddFunc(spec, e.sweep); err != nil {
		return fmt.Errorf("scheduling sweep: %w", err)
	}
	c.Start()
	e.cron = c

	e.logger.Info("engine started", "sweep_interval", e.sweepInterval.String())

	return nil
}

// Stop halts the periodic sweep, waiting for an in-flight run to finish.
func (e *Engine) Stop() {
	if e.cron == nil {
		return
	}
	ctx := e.cron.Stop()
	<-ctx.Done()
	e.cron = nil

	e.logger.Info("engine stopped")
}

func (e *Engine) sweep() {
	defer logging.StartTimer(e.logger, "sweep")()

	expired := e.sessions.Sweep()
	pruned := 0
	if s, ok := e.tasks.Store().(*task.InMemoryStore); ok {
		pruned = s.Prune()
	}
	if expired > 0 || pruned > 0 {
		e.logger.Debug("sweep completed", "sessions_expired", expired, "tasks_pruned", pruned)
	}
}

// CreateSession opens a new session at the given reasoning level.
func (e *Engine) CreateSession(level core.Level, totalThoughts int) (*core.Session, error) {
	return e.sessions.Create(level, totalThoughts)
}

// GetSession returns a snapshot of the session.
func (e *Engine) GetSession(id string) (*core.Session, error) {
	return e.sessions.Get(id)
}

// AppendThought adds the next thought to a session, truncating the content
// if it would exceed the session's token budget.
func (e *Engine) AppendThought(id, content, stepSummary string) (core.Thought, error) {
	return e.sessions.AppendThought(id, content, stepSummary)
}

// ReviseThought replaces the content of an existing thought.
func (e *Engine) ReviseThought(id string, index int, content string) (core.Thought, error) {
	return e.sessions.ReviseThought(id, index, content)
}

// SetSessionStatus transitions a session to a terminal status.
func (e *Engine) SetSessionStatus(id string, status core.Status) error {
	return e.sessions.SetStatus(id, status)
}

// DeleteSession removes a session unconditionally.
func (e *Engine) DeleteSession(id string) error {
	return e.sessions.Delete(id)
}

// ListSessionIDs returns a snapshot of current session ids.
func (e *Engine) ListSessionIDs() []string {
	return e.sessions.ListIDs()
}

// SessionView returns a full or redacted read-only view of a session.
func (e *Engine) SessionView(id string, redacted bool) (core.SessionView, error) {
	return e.sessions.View(id, redacted)
}

// LaunchTask admits fn as a background task under the engine's admission
// limit and returns the pending task for polling.
func (e *Engine) LaunchTask(ctx context.Context, fn task.Func) (*core.Task, error) {
	return e.tasks.Launch(ctx, 0, 0, fn)
}

// CancelTask requests cooperative cancellation of a task.
func (e *Engine) CancelTask(taskID string) error {
	return e.tasks.Cancel(taskID)
}

// GetTask returns the task's current status snapshot.
func (e *Engine) GetTask(taskID string) (*core.Task, error) {
	return e.tasks.Get(taskID)
}

// TaskResult returns the detached result once the task is terminal.
func (e *Engine) TaskResult(taskID string) (any, error) {
	return e.tasks.Result(taskID)
}
