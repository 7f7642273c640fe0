package core

import "time"

// RedactedPlaceholder replaces thought content and step summaries in a
// redacted session view.
const RedactedPlaceholder = "[redacted]"

// SessionView is a read-only projection of a session for listing and
// inspection use cases. A redacted view replaces every thought's Content and
// StepSummary with RedactedPlaceholder while keeping Index and Revision
// intact, so callers can inspect trace shape without seeing trace content.
type SessionView struct {
	ID            string    `json:"id"`
	Level         Level     `json:"level"`
	Status        Status    `json:"status"`
	Thoughts      []Thought `json:"thoughts"`
	TotalThoughts int       `json:"total_thoughts"`
	TokenBudget   int       `json:"token_budget"`
	TokensUsed    int       `json:"tokens_used"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Redacted      bool      `json:"redacted"`
}

// NewSessionView projects a session into a view, redacting thought content
// when requested.
func NewSessionView(s *Session, redacted bool) SessionView {
	thoughts := make([]Thought, len(s.Thoughts))
	copy(thoughts, s.Thoughts)
	if redacted {
		for i := range thoughts {
			thoughts[i].Content = RedactedPlaceholder
			if thoughts[i].StepSummary != "" {
				thoughts[i].StepSummary = RedactedPlaceholder
			}
		}
	}
	return SessionView{
		ID:            s.ID,
		Level:         s.Level,
		Status:        s.Status,
		Thoughts:      thoughts,
		TotalThoughts: s.TotalThoughts,
		TokenBudget:   s.TokenBudget,
		TokensUsed:    s.TokensUsed,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
		Redacted:      redacted,
	}
}
