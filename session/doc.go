// Package session implements the in-memory session store and its eviction
// engine. The store owns every session exclusively: all operations are
// guarded by one mutex covering the full read-modify-write sequence (in
// particular the budget check-then-append sequence), and callers only ever
// receive clones or read-only views.
//
// Eviction applies three independent triggers in order on every create and on
// periodic sweeps: TTL expiry anchored to UpdatedAt, store capacity overflow,
// and the aggregate token ceiling. Removals are terminal; later accesses to a
// removed id surface as ordinary not-found errors.
package session
