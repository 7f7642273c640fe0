package core

import "errors"

// Sentinel errors forming the engine's error taxonomy. All of them are
// reported synchronously to the caller as part of an operation's result and
// are never process-fatal. Callers should match with errors.Is since store
// implementations may wrap them with additional context.
var (
	// ErrInvalidLevel is returned when a session is created with a depth
	// level that has no LevelConfig entry.
	ErrInvalidLevel = errors.New("invalid reasoning level")

	// ErrSessionNotFound is returned when the session id is unknown, deleted,
	// expired or evicted. Expiry and eviction are indistinguishable from
	// absence on purpose.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionNotActive is returned when a thought mutation targets a
	// session in a terminal status.
	ErrSessionNotActive = errors.New("session not active")

	// ErrThoughtNotFound is returned when a revision targets a thought index
	// that was never appended.
	ErrThoughtNotFound = errors.New("thought not found")

	// ErrInvalidTransition is returned on an illegal session or task status
	// change. The state is left untouched.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrGlobalBudgetExceeded is returned when a session cannot be admitted
	// even after evicting every other session under the aggregate token
	// ceiling.
	ErrGlobalBudgetExceeded = errors.New("global token budget exceeded")

	// ErrAdmissionRejected is returned when the task concurrency limiter is
	// saturated. This is the backpressure signal, not a failure of the task
	// framework itself.
	ErrAdmissionRejected = errors.New("task admission rejected")

	// ErrTaskNotFound is returned when the task id is unknown or pruned.
	ErrTaskNotFound = errors.New("task not found")

	// ErrAlreadyTerminal is returned when a result is stored for a task that
	// already reached a terminal status.
	ErrAlreadyTerminal = errors.New("task already terminal")

	// ErrResultNotReady is returned by result polling on a task that exists
	// but has not reached a terminal status yet. Distinct from absence.
	ErrResultNotReady = errors.New("task result not ready")
)
