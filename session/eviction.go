package session

import (
	"fmt"
	"time"

	"github.com/j0hanz/cortex/core"
	"github.com/j0hanz/cortex/logging"
)

// isExpired is the single expiry predicate, checked both on direct access and
// during sweeps. Expiry is anchored to UpdatedAt: read access is not "use".
func isExpired(sess *core.Session, ttl time.Duration, now time.Time) bool {
	return ttl > 0 && now.Sub(sess.UpdatedAt) >= ttl
}

// Sweep removes every expired session and returns how many were removed.
// The engine runs it periodically; it also runs eagerly on every Create.
func (s *Store) Sweep() int {
	s.mu.Lock()
	events := s.sweepLocked(s.now())
	s.enqueueLocked(events...)
	s.mu.Unlock()

	s.flush()

	n := 0
	for _, ev := range events {
		if ev.Kind == core.KindSessionExpired {
			n++
		}
	}
	return n
}

func (s *Store) sweepLocked(now time.Time) []core.Event {
	var events []core.Event
	for id, sess := range s.sessions {
		if isExpired(sess, s.limits.TTL, now) {
			s.removeLocked(id)
			events = append(events,
				core.NewSessionEvent(core.KindSessionExpired, id),
				core.NewResourceUpdatedEvent(id),
			)
		}
	}
	return events
}

// makeRoomLocked applies the capacity and aggregate-token-ceiling triggers
// before a new session is admitted, evicting least-recently-updated sessions
// until both fit. Fails with core.ErrGlobalBudgetExceeded when evicting every
// other session still cannot satisfy the token ceiling.
func (s *Store) makeRoomLocked() ([]core.Event, error) {
	var events []core.Event

	if s.limits.MaxSessions > 0 {
		for len(s.sessions) >= s.limits.MaxSessions {
			id, ok := s.lruLocked()
			if !ok {
				break
			}
			s.removeLocked(id)
			events = append(events,
				core.NewEvictionEvent(id, core.EvictReasonCapacity),
				core.NewResourceUpdatedEvent(id),
			)
			logging.LogEviction(s.logger, id, string(core.EvictReasonCapacity))
		}
	}

	if s.limits.MaxTotalTokens > 0 {
		for s.totalTokensLocked() > s.limits.MaxTotalTokens {
			id, ok := s.lruLocked()
			if !ok {
				return events, fmt.Errorf("%w: limit %d", core.ErrGlobalBudgetExceeded, s.limits.MaxTotalTokens)
			}
			s.removeLocked(id)
			events = append(events,
				core.NewEvictionEvent(id, core.EvictReasonTokenCeiling),
				core.NewResourceUpdatedEvent(id),
			)
			logging.LogEviction(s.logger, id, string(core.EvictReasonTokenCeiling))
		}
	}

	return events, nil
}

// lruLocked picks the least-recently-updated session, breaking UpdatedAt ties
// by insertion sequence.
func (s *Store) lruLocked() (string, bool) {
	var (
		victim string
		found  bool
	)
	for id, sess := range s.sessions {
		if !found {
			victim, found = id, true
			continue
		}
		cur := s.sessions[victim]
		if sess.UpdatedAt.Before(cur.UpdatedAt) ||
			(sess.UpdatedAt.Equal(cur.UpdatedAt) && s.seq[id] < s.seq[victim]) {
			victim = id
		}
	}
	return victim, found
}
