// Package core provides the foundational domain types and interfaces used by
// Cortex. It defines the core abstractions for:
//
//   - Sessions (ordered reasoning traces under a token budget)
//   - Thoughts (atomic, revisable steps of a trace)
//   - Levels (named depth tiers controlling thought range and budget)
//   - Tasks (pollable units of work decoupled from their originating request)
//   - Events (immutable records of state changes published on the bus)
//
// The package intentionally keeps implementation concerns (storage, eviction,
// task execution, transports) out of scope, exposing small interfaces to
// enable custom backends and extensions. All exported identifiers include
// concise documentation to aid discoverability and external consumption.
package core
