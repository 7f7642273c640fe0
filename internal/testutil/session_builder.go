package testutil

import (
	"time"

	"github.com/j0hanz/cortex/core"
)

// SessionBuilder helps construct sessions with fluent chaining for tests.
// Example:
//
//	sess := NewSessionBuilder("sess-1").Level(core.LevelHigh).Thought("step").Build()
type SessionBuilder struct {
	id       string
	level    core.Level
	status   core.Status
	budget   int
	used     int
	total    int
	thoughts []core.Thought
	now      time.Time
}

// NewSessionBuilder creates a new builder for a session with the given id.
// Defaults: level basic, status active, the basic level's token budget, and
// a fixed timestamp.
func NewSessionBuilder(id string) *SessionBuilder {
	basic := core.DefaultLevels()[core.LevelBasic]
	return &SessionBuilder{
		id:     id,
		level:  core.LevelBasic,
		status: core.StatusActive,
		budget: basic.TokenBudget,
		total:  basic.MinThoughts,
		now:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Level sets the reasoning level (chainable).
func (b *SessionBuilder) Level(level core.Level) *SessionBuilder {
	b.level = level
	return b
}

// Status sets the lifecycle status (chainable).
func (b *SessionBuilder) Status(status core.Status) *SessionBuilder {
	b.status = status
	return b
}

// Budget overrides the token budget and usage (chainable).
func (b *SessionBuilder) Budget(budget, used int) *SessionBuilder {
	b.budget = budget
	b.used = used
	return b
}

// Thought appends a thought with the next free index (chainable).
func (b *SessionBuilder) Thought(content string) *SessionBuilder {
	b.thoughts = append(b.thoughts, core.Thought{Index: len(b.thoughts), Content: content})
	return b
}

// At sets the creation/update timestamp (chainable).
func (b *SessionBuilder) At(now time.Time) *SessionBuilder {
	b.now = now
	return b
}

// Build returns a *core.Session with the configured state.
func (b *SessionBuilder) Build() *core.Session {
	return &core.Session{
		ID:            b.id,
		Level:         b.level,
		Status:        b.status,
		Thoughts:      append([]core.Thought{}, b.thoughts...),
		TotalThoughts: b.total,
		TokenBudget:   b.budget,
		TokensUsed:    b.used,
		CreatedAt:     b.now,
		UpdatedAt:     b.now,
	}
}
