package task

import (
	"fmt"
	"sync"
	"time"

	"github.com/j0hanz/cortex/core"
)

// InMemoryStore is a volatile core.TaskStore implementation storing tasks in
// a process local map. It is safe for concurrent access. Each returned task
// is cloned to prevent external mutation of internal state.
type InMemoryStore struct {
	mu      sync.Mutex
	tasks   map[string]*core.Task
	results map[string]any
	now     func() time.Time
}

var _ core.TaskStore = (*InMemoryStore)(nil)

// NewInMemoryStore constructs an empty in-memory task store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		tasks:   make(map[string]*core.Task),
		results: make(map[string]any),
		now:     time.Now,
	}
}

// WithClock overrides the store's clock, for tests.
func (s *InMemoryStore) WithClock(now func() time.Time) *InMemoryStore {
	s.now = now
	return s
}

// CreateTask admits a new task in pending state.
func (s *InMemoryStore) CreateTask(ttl, pollIntervalHint time.Duration) (*core.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	t := &core.Task{
		ID:               core.NewID(),
		Status:           core.TaskPending,
		TTL:              ttl,
		PollIntervalHint: pollIntervalHint,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	s.tasks[t.ID] = t

	return t.Clone(), nil
}

// UpdateTaskStatus applies a status transition, enforcing the task
// transition table. The message replaces the task's previous message.
func (s *InMemoryStore) UpdateTaskStatus(taskID string, status core.TaskStatus, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrTaskNotFound, taskID)
	}
	if !t.Status.CanTransitionTo(status) {
		return fmt.Errorf("%w: %s -> %s", core.ErrInvalidTransition, t.Status, status)
	}

	t.Status = status
	t.Message = message
	t.UpdatedAt = s.now()

	return nil
}

// StoreTaskResult sets a terminal completed/failed status and stores the
// detached result payload. Fails with core.ErrAlreadyTerminal once the task
// reached any terminal status.
func (s *InMemoryStore) StoreTaskResult(taskID string, status core.TaskStatus, result any) error {
	if status != core.TaskCompleted && status != core.TaskFailed {
		return fmt.Errorf("%w: result status must be completed or failed, got %s", core.ErrInvalidTransition, status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrTaskNotFound, taskID)
	}
	if t.Status.Terminal() {
		return fmt.Errorf("%w: %s is %s", core.ErrAlreadyTerminal, taskID, t.Status)
	}

	t.Status = status
	t.UpdatedAt = s.now()
	s.results[taskID] = result

	return nil
}

// GetTask returns a clone of the task or core.ErrTaskNotFound.
func (s *InMemoryStore) GetTask(taskID string) (*core.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrTaskNotFound, taskID)
	}

	return t.Clone(), nil
}

// GetTaskResult returns the stored payload. A non-terminal task yields
// core.ErrResultNotReady, distinct from absence; a terminal task without a
// payload (cancelled) yields nil.
func (s *InMemoryStore) GetTaskResult(taskID string) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrTaskNotFound, taskID)
	}
	if !t.Status.Terminal() {
		return nil, fmt.Errorf("%w: %s is %s", core.ErrResultNotReady, taskID, t.Status)
	}

	return s.results[taskID], nil
}

// Prune removes terminal tasks whose TTL elapsed since their last update,
// returning how many were removed. Tasks without a TTL are kept.
func (s *InMemoryStore) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for id, t := range s.tasks {
		if t.Status.Terminal() && t.TTL > 0 && now.Sub(t.UpdatedAt) >= t.TTL {
			delete(s.tasks, id)
			delete(s.results, id)
			n++
		}
	}
	return n
}

// Len returns the number of stored tasks.
func (s *InMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}
