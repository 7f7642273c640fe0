package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/j0hanz/cortex/bus"
	"github.com/j0hanz/cortex/core"
	"github.com/j0hanz/cortex/logging"
	"github.com/j0hanz/cortex/tokens"
)

// Limits bounds the store's total memory use. Zero values disable the
// corresponding trigger.
type Limits struct {
	// TTL removes sessions whose UpdatedAt is at least this old. Reads do
	// not refresh it.
	TTL time.Duration
	// MaxSessions caps the number of stored sessions.
	MaxSessions int
	// MaxTotalTokens caps the sum of TokensUsed across all sessions.
	MaxTotalTokens int
}

// Options configures a Store.
type Options struct {
	Limits Limits
	// Levels is the authoritative level table. Defaults to
	// core.DefaultLevels().
	Levels map[core.Level]core.LevelConfig
	// Bus receives lifecycle events. Defaults to a bus that only logs.
	Bus *bus.Bus
	// Logger receives diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// Store is the volatile session store. Sessions live only for the process
// lifetime; restart clears everything by design.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*core.Session
	seq      map[string]uint64 // insertion sequence, tie-break for eviction
	nextSeq  uint64

	// queue holds events in mutation commit order until flush drains them.
	// publishing marks an in-flight drain so only one goroutine delivers.
	queue      []core.Event
	publishing bool

	limits Limits
	levels map[core.Level]core.LevelConfig
	bus    *bus.Bus
	logger logging.Logger
	now    func() time.Time
}

var _ core.SessionStore = (*Store)(nil)

// NewStore constructs an empty store with optional overrides.
func NewStore(optFns ...func(o *Options)) *Store {
	opts := Options{
		Levels: core.DefaultLevels(),
		Logger: logging.NoOpLogger{},
		Clock:  time.Now,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Bus == nil {
		opts.Bus = bus.New(opts.Logger)
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &Store{
		sessions: make(map[string]*core.Session),
		seq:      make(map[string]uint64),
		limits:   opts.Limits,
		levels:   opts.Levels,
		bus:      opts.Bus,
		logger:   opts.Logger,
		now:      opts.Clock,
	}
}

// Create admits a new active session at the given level. The eviction engine
// runs first: an eager TTL sweep, then capacity eviction, then the aggregate
// token ceiling. Fails with core.ErrInvalidLevel for an unknown level and
// core.ErrGlobalBudgetExceeded when no amount of eviction frees enough
// aggregate budget.
func (s *Store) Create(level core.Level, totalThoughts int) (*core.Session, error) {
	cfg, ok := s.levels[level]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidLevel, level)
	}

	s.mu.Lock()
	now := s.now()
	events := s.sweepLocked(now)

	roomEvents, err := s.makeRoomLocked()
	events = append(events, roomEvents...)
	if err != nil {
		s.enqueueLocked(events...)
		s.mu.Unlock()
		s.flush()
		return nil, err
	}

	id := core.NewID()
	sess := core.NewSession(id, level, cfg, totalThoughts, now)
	s.sessions[id] = sess
	s.seq[id] = s.nextSeq
	s.nextSeq++
	clone := sess.Clone()
	events = append(events,
		core.NewSessionEvent(core.KindSessionCreated, id),
		core.NewResourceUpdatedEvent(id),
	)
	s.enqueueLocked(events...)
	s.mu.Unlock()

	s.flush()
	s.logger.Debug("session created", "session_id", id, "level", string(level), "token_budget", cfg.TokenBudget)

	return clone, nil
}

// Get returns a clone of the session or core.ErrSessionNotFound. Reading
// does not refresh the TTL; an expired session is removed on access and
// reported as absent.
func (s *Store) Get(id string) (*core.Session, error) {
	s.mu.Lock()
	sess, events, err := s.accessLocked(id)
	if err != nil {
		s.enqueueLocked(events...)
		s.mu.Unlock()
		s.flush()
		return nil, err
	}
	clone := sess.Clone()
	s.mu.Unlock()

	return clone, nil
}

// AppendThought appends a thought to an active session, enforcing the token
// budget. A thought whose cost exceeds the remaining budget is truncated to
// fit, TokensUsed is pinned to TokenBudget and a budget-exhausted event is
// emitted alongside the regular thought-added event. Partial progress is
// never silently lost.
func (s *Store) AppendThought(id, content, stepSummary string) (core.Thought, error) {
	s.mu.Lock()
	sess, events, err := s.accessLocked(id)
	if err != nil {
		s.enqueueLocked(events...)
		s.mu.Unlock()
		s.flush()
		return core.Thought{}, err
	}
	if sess.Status.Terminal() {
		s.mu.Unlock()
		return core.Thought{}, fmt.Errorf("%w: %s is %s", core.ErrSessionNotActive, id, sess.Status)
	}

	cost := tokens.Estimate(content)
	exhausted := false
	if sess.TokensUsed+cost > sess.TokenBudget {
		content = tokens.Truncate(content, tokens.Budget(sess.RemainingTokens()))
		sess.TokensUsed = sess.TokenBudget
		exhausted = true
	} else {
		sess.TokensUsed += cost
	}

	th := core.Thought{
		Index:       len(sess.Thoughts),
		Content:     content,
		StepSummary: stepSummary,
	}
	sess.Thoughts = append(sess.Thoughts, th)
	sess.UpdatedAt = s.now()

	events = append(events, core.NewThoughtEvent(core.KindThoughtAdded, id, th.Index))
	if exhausted {
		events = append(events, core.NewBudgetExhaustedEvent(
			id, th.Index, sess.TokensUsed, sess.TokenBudget, sess.TotalThoughts, len(sess.Thoughts)))
	}
	used, budget := sess.TokensUsed, sess.TokenBudget
	s.enqueueLocked(events...)
	s.mu.Unlock()

	s.flush()
	logging.LogSessionMutation(s.logger, "append", id, th.Index, used, budget)

	return th, nil
}

// ReviseThought replaces the content of an existing thought, recomputing the
// token delta and reapplying the same over-budget truncation policy as
// append. The thought's revision counter is incremented.
func (s *Store) ReviseThought(id string, index int, content string) (core.Thought, error) {
	s.mu.Lock()
	sess, events, err := s.accessLocked(id)
	if err != nil {
		s.enqueueLocked(events...)
		s.mu.Unlock()
		s.flush()
		return core.Thought{}, err
	}
	if sess.Status.Terminal() {
		s.mu.Unlock()
		return core.Thought{}, fmt.Errorf("%w: %s is %s", core.ErrSessionNotActive, id, sess.Status)
	}
	if index < 0 || index >= len(sess.Thoughts) {
		s.mu.Unlock()
		return core.Thought{}, fmt.Errorf("%w: index %d in session %s", core.ErrThoughtNotFound, index, id)
	}

	th := &sess.Thoughts[index]
	oldCost := tokens.Estimate(th.Content)
	newCost := tokens.Estimate(content)

	exhausted := false
	if sess.TokensUsed-oldCost+newCost > sess.TokenBudget {
		available := sess.TokenBudget - (sess.TokensUsed - oldCost)
		content = tokens.Truncate(content, tokens.Budget(available))
		sess.TokensUsed = sess.TokenBudget
		exhausted = true
	} else {
		sess.TokensUsed += newCost - oldCost
	}

	th.Content = content
	th.Revision++
	sess.UpdatedAt = s.now()

	events = append(events, core.NewThoughtEvent(core.KindThoughtRevised, id, index))
	if exhausted {
		events = append(events, core.NewBudgetExhaustedEvent(
			id, index, sess.TokensUsed, sess.TokenBudget, sess.TotalThoughts, len(sess.Thoughts)))
	}
	revised := *th
	used, budget := sess.TokensUsed, sess.TokenBudget
	s.enqueueLocked(events...)
	s.mu.Unlock()

	s.flush()
	logging.LogSessionMutation(s.logger, "revise", id, index, used, budget)

	return revised, nil
}

// SetStatus applies a session status change. The only legal transitions are
// active to completed and active to cancelled; anything else fails with
// core.ErrInvalidTransition and leaves the session untouched.
func (s *Store) SetStatus(id string, status core.Status) error {
	s.mu.Lock()
	sess, events, err := s.accessLocked(id)
	if err != nil {
		s.enqueueLocked(events...)
		s.mu.Unlock()
		s.flush()
		return err
	}
	if !sess.Status.CanTransitionTo(status) {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", core.ErrInvalidTransition, sess.Status, status)
	}

	sess.Status = status
	sess.UpdatedAt = s.now()
	events = append(events, core.NewResourceUpdatedEvent(id))
	s.enqueueLocked(events...)
	s.mu.Unlock()

	s.flush()

	return nil
}

// Delete removes the session unconditionally, regardless of status.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	if _, ok := s.sessions[id]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", core.ErrSessionNotFound, id)
	}
	s.removeLocked(id)
	s.enqueueLocked(
		core.NewSessionEvent(core.KindSessionDeleted, id),
		core.NewResourceUpdatedEvent(id),
	)
	s.mu.Unlock()

	s.flush()

	return nil
}

// ListIDs returns a snapshot of the current session ids, after a lazy expiry
// sweep. Order is unspecified.
func (s *Store) ListIDs() []string {
	s.mu.Lock()
	events := s.sweepLocked(s.now())
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.enqueueLocked(events...)
	s.mu.Unlock()

	s.flush()

	return ids
}

// View returns a read-only projection of the session, redacted on request.
func (s *Store) View(id string, redacted bool) (core.SessionView, error) {
	s.mu.Lock()
	sess, events, err := s.accessLocked(id)
	if err != nil {
		s.enqueueLocked(events...)
		s.mu.Unlock()
		s.flush()
		return core.SessionView{}, err
	}
	view := core.NewSessionView(sess, redacted)
	s.mu.Unlock()

	return view, nil
}

// TotalTokens returns the sum of TokensUsed across all stored sessions.
func (s *Store) TotalTokens() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalTokensLocked()
}

// Len returns the number of stored sessions, including any not yet swept.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// accessLocked resolves an id to its live session, applying lazy TTL expiry:
// an expired session is removed and reported as not found. Caller holds the
// lock; returned events must be published after unlock.
func (s *Store) accessLocked(id string) (*core.Session, []core.Event, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", core.ErrSessionNotFound, id)
	}
	if isExpired(sess, s.limits.TTL, s.now()) {
		s.removeLocked(id)
		events := []core.Event{
			core.NewSessionEvent(core.KindSessionExpired, id),
			core.NewResourceUpdatedEvent(id),
		}
		return nil, events, fmt.Errorf("%w: %s", core.ErrSessionNotFound, id)
	}
	return sess, nil, nil
}

func (s *Store) removeLocked(id string) {
	delete(s.sessions, id)
	delete(s.seq, id)
}

func (s *Store) totalTokensLocked() int {
	total := 0
	for _, sess := range s.sessions {
		total += sess.TokensUsed
	}
	return total
}

// enqueueLocked appends events to the dispatch queue. Caller holds the store
// lock, so the queue order is the order mutations committed; that order is
// what listeners observe.
func (s *Store) enqueueLocked(events ...core.Event) {
	s.queue = append(s.queue, events...)
}

// flush drains the dispatch queue. At most one goroutine drains at a time,
// so queued events are delivered strictly in commit order even when several
// mutations race. The store lock is not held during delivery, which lets
// listeners call back into the store; events they enqueue are picked up by
// the active drainer or the next flush.
func (s *Store) flush() {
	for {
		s.mu.Lock()
		if s.publishing || len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		s.publishing = true
		batch := s.queue
		s.queue = nil
		s.mu.Unlock()

		for _, ev := range batch {
			s.bus.Publish(ev)
		}

		s.mu.Lock()
		s.publishing = false
		s.mu.Unlock()
	}
}
