package core

import "time"

// Status is the lifecycle state of a session.
type Status string

const (
	// StatusActive accepts thought mutations.
	StatusActive Status = "active"
	// StatusCompleted is terminal; the trace reached its conclusion.
	StatusCompleted Status = "completed"
	// StatusCancelled is terminal; the trace was abandoned.
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status accepts no further thought mutation.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo reports whether a status change is legal. The only legal
// transitions are active -> completed and active -> cancelled.
func (s Status) CanTransitionTo(next Status) bool {
	return s == StatusActive && next.Terminal()
}

// Thought is one atomic step of a reasoning trace. Index is assigned once at
// append time and never reused; Content, Revision and StepSummary change only
// via a revision operation on the owning session.
type Thought struct {
	Index       int    `json:"index"`
	Content     string `json:"content"`
	Revision    int    `json:"revision"`
	StepSummary string `json:"step_summary,omitempty"`
}

// Session is one reasoning trace: an ordered, gap-free sequence of thoughts
// under a token budget.
//
// Contract:
//   - TokensUsed <= TokenBudget after every accepted mutation
//   - Thought indices are exactly 0..n-1
//   - UpdatedAt advances on every accepted mutation and never precedes CreatedAt
//   - A terminal Status accepts no further thought mutation
//
// Sessions are owned exclusively by the session store, which guards all
// read-modify-write sequences with its own lock. Consumers receive clones or
// read-only views, never a mutable reference.
type Session struct {
	ID            string    `json:"id"`
	Level         Level     `json:"level"`
	Status        Status    `json:"status"`
	Thoughts      []Thought `json:"thoughts"`
	TotalThoughts int       `json:"total_thoughts"`
	TokenBudget   int       `json:"token_budget"`
	TokensUsed    int       `json:"tokens_used"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewSession creates an active session at the given level with a zeroed
// token account and timestamps set to now.
func NewSession(id string, level Level, cfg LevelConfig, totalThoughts int, now time.Time) *Session {
	return &Session{
		ID:            id,
		Level:         level,
		Status:        StatusActive,
		Thoughts:      []Thought{},
		TotalThoughts: cfg.ClampThoughts(totalThoughts),
		TokenBudget:   cfg.TokenBudget,
		TokensUsed:    0,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// RemainingTokens returns the unspent part of the session's token budget.
func (s *Session) RemainingTokens() int {
	if r := s.TokenBudget - s.TokensUsed; r > 0 {
		return r
	}
	return 0
}

// Clone returns a deep copy of the session safe for independent use.
func (s *Session) Clone() *Session {
	clone := *s
	clone.Thoughts = make([]Thought, len(s.Thoughts))
	copy(clone.Thoughts, s.Thoughts)
	return &clone
}

// SessionStore owns the mapping of session id to session and enforces the
// per-session token budget on every mutation. All operations are atomic with
// respect to each other; no operation observes a partially-applied mutation
// of another.
type SessionStore interface {
	Create(level Level, totalThoughts int) (*Session, error)
	Get(id string) (*Session, error)
	AppendThought(id, content, stepSummary string) (Thought, error)
	ReviseThought(id string, index int, content string) (Thought, error)
	SetStatus(id string, status Status) error
	Delete(id string) error
	ListIDs() []string
	View(id string, redacted bool) (SessionView, error)
	Sweep() int
	TotalTokens() int
}
