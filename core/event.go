package core

import (
	"time"

	"github.com/google/uuid"
)

// EventKind classifies an event on the bus.
type EventKind string

// Event kinds emitted by the session store, eviction engine and task
// framework.
const (
	KindSessionCreated  EventKind = "session:created"
	KindSessionExpired  EventKind = "session:expired"
	KindSessionEvicted  EventKind = "session:evicted"
	KindSessionDeleted  EventKind = "session:deleted"
	KindThoughtAdded    EventKind = "thought:added"
	KindThoughtRevised  EventKind = "thought:revised"
	KindBudgetExhausted EventKind = "thought:budget-exhausted"
	KindTaskCreated     EventKind = "task:created"
	KindTaskUpdated     EventKind = "task:updated"
	KindResourceUpdated EventKind = "resource:updated"
	KindError           EventKind = "error"
)

// Eviction reasons carried on KindSessionEvicted events.
const (
	EvictReasonCapacity     = "capacity"
	EvictReasonTokenCeiling = "token-ceiling"
)

// Event is an immutable record of one engine state change, published
// fire-and-forget on the bus. Events for a single session are observed by a
// listener in emission order; no ordering is promised across sessions.
type Event struct {
	ID        string    `json:"id"`
	Kind      EventKind `json:"kind"`
	SessionID string    `json:"session_id,omitempty"`
	TaskID    string    `json:"task_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	// ThoughtIndex identifies the affected thought for thought:* kinds.
	ThoughtIndex int `json:"thought_index,omitempty"`

	// Reason carries the eviction reason for session:evicted events.
	Reason string `json:"reason,omitempty"`

	// Token accounting snapshot attached to budget events.
	TokensUsed  int `json:"tokens_used,omitempty"`
	TokenBudget int `json:"token_budget,omitempty"`

	// Requested vs generated thought counts attached to budget events.
	ThoughtsRequested int `json:"thoughts_requested,omitempty"`
	ThoughtsGenerated int `json:"thoughts_generated,omitempty"`

	// Message carries diagnostic detail for error and task events.
	Message string `json:"message,omitempty"`
}

// NewEvent creates a bare event of the given kind. Prefer the helper
// constructors for common semantic categories.
func NewEvent(kind EventKind) Event {
	return Event{
		ID:        NewID(),
		Kind:      kind,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionEvent creates a session lifecycle event
// (created/expired/deleted).
func NewSessionEvent(kind EventKind, sessionID string) Event {
	e := NewEvent(kind)
	e.SessionID = sessionID
	return e
}

// NewEvictionEvent records the forced removal of a session with its reason.
func NewEvictionEvent(sessionID, reason string) Event {
	e := NewSessionEvent(KindSessionEvicted, sessionID)
	e.Reason = reason
	return e
}

// NewThoughtEvent records an appended or revised thought.
func NewThoughtEvent(kind EventKind, sessionID string, index int) Event {
	e := NewSessionEvent(kind, sessionID)
	e.ThoughtIndex = index
	return e
}

// NewBudgetExhaustedEvent records that a thought append or revision hit the
// session's token ceiling and was truncated, reporting the requested versus
// generated thought counts and the final token account.
func NewBudgetExhaustedEvent(sessionID string, index, tokensUsed, tokenBudget, requested, generated int) Event {
	e := NewThoughtEvent(KindBudgetExhausted, sessionID, index)
	e.TokensUsed = tokensUsed
	e.TokenBudget = tokenBudget
	e.ThoughtsRequested = requested
	e.ThoughtsGenerated = generated
	return e
}

// NewTaskEvent records a task lifecycle change.
func NewTaskEvent(kind EventKind, taskID, message string) Event {
	e := NewEvent(kind)
	e.TaskID = taskID
	e.Message = message
	return e
}

// NewResourceUpdatedEvent signals that the inspectable session list changed.
func NewResourceUpdatedEvent(sessionID string) Event {
	e := NewEvent(KindResourceUpdated)
	e.SessionID = sessionID
	return e
}

// NewErrorEvent wraps a recovered listener failure so observers can never
// destabilize the publisher.
func NewErrorEvent(message string) Event {
	e := NewEvent(KindError)
	e.Message = message
	return e
}

// NewID generates a new unique identifier for sessions, tasks and events.
func NewID() string { return uuid.NewString() }
