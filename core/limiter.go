package core

import "sync"

// TaskLimiter is a counted semaphore bounding the number of concurrently
// admitted tasks. It is the backpressure mechanism protecting the process
// from unbounded concurrent work.
type TaskLimiter struct {
	max    int
	active int
	mu     sync.Mutex
}

// NewTaskLimiter creates a limiter admitting at most max tasks at once.
// If max == 0, admission is unlimited.
func NewTaskLimiter(max int) *TaskLimiter {
	return &TaskLimiter{max: max}
}

// TryAcquire claims one slot. It returns false once the active count has
// reached the ceiling; callers must surface that as ErrAdmissionRejected.
func (tl *TaskLimiter) TryAcquire() bool {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	if tl.max > 0 && tl.active >= tl.max {
		return false
	}

	tl.active++

	return true
}

// Release returns one slot. The count never decrements below zero, so a
// spurious extra release cannot corrupt the limiter.
func (tl *TaskLimiter) Release() {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	if tl.active > 0 {
		tl.active--
	}
}

// Active returns the number of currently admitted tasks.
func (tl *TaskLimiter) Active() int {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	return tl.active
}

// Remaining returns how many slots are left before admission is rejected.
func (tl *TaskLimiter) Remaining() int {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	if tl.max == 0 {
		return -1 // unlimited
	}

	return tl.max - tl.active
}
