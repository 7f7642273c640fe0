package core

// Level names a reasoning depth tier. Each tier controls the legal thought
// count range and the token budget assigned at session creation.
type Level string

const (
	// LevelBasic suits short confirmations and single-step lookups.
	LevelBasic Level = "basic"
	// LevelNormal is the default tier for everyday multi-step reasoning.
	LevelNormal Level = "normal"
	// LevelHigh allows long traces for involved analysis.
	LevelHigh Level = "high"
	// LevelExpert is the deepest tier, intended for traces that span many
	// tool round trips.
	LevelExpert Level = "expert"
)

// LevelConfig is the static per-level configuration. It defines the legal
// range for a session's target thought count and the budget ceiling assigned
// at creation. Instances are immutable after process start.
type LevelConfig struct {
	MinThoughts int `yaml:"min_thoughts" json:"min_thoughts"`
	MaxThoughts int `yaml:"max_thoughts" json:"max_thoughts"`
	TokenBudget int `yaml:"token_budget" json:"token_budget"`
}

// DefaultLevels returns the built-in level table. The map is freshly
// allocated on each call so callers may override entries without affecting
// other holders.
func DefaultLevels() map[Level]LevelConfig {
	return map[Level]LevelConfig{
		LevelBasic:  {MinThoughts: 2, MaxThoughts: 5, TokenBudget: 2000},
		LevelNormal: {MinThoughts: 4, MaxThoughts: 12, TokenBudget: 8000},
		LevelHigh:   {MinThoughts: 6, MaxThoughts: 24, TokenBudget: 16000},
		LevelExpert: {MinThoughts: 10, MaxThoughts: 40, TokenBudget: 32000},
	}
}

// ClampThoughts bounds a requested target thought count into the level's
// legal range. A non-positive request resolves to MinThoughts.
func (c LevelConfig) ClampThoughts(requested int) int {
	if requested <= 0 {
		return c.MinThoughts
	}
	if requested < c.MinThoughts {
		return c.MinThoughts
	}
	if requested > c.MaxThoughts {
		return c.MaxThoughts
	}
	return requested
}
