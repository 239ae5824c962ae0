// Package stream generates synthetic record-protocol traffic for exercising
// a downstream consumer.
//
// A Stream is a finite, lazily produced, non-restartable sequence of
// protocol messages:
//
//	SCHEMA, RECORD x n (+ duplicates interleaved), [ACTIVATE_VERSION]
//
// # Invariants
//
//   - Record ids are 1..n, each assigned exactly once, in order.
//   - Fresh records carry sequence == base; duplicates carry base + delta.
//   - Duplicates written <= min(duplicates, records emitted so far).
//   - A duplicate re-wraps a record already emitted and never changes its id.
//   - Exactly one SCHEMA, always first. Exactly one ACTIVATE_VERSION iff a
//     version is configured, always last.
//   - After exhaustion every Next call returns false with no side effects.
//
// # Randomness
//
// All probabilistic branching (nested object inclusion, corruption cascade,
// duplicate coin flips, duplicate pick) goes through a chance.Source. A
// seeded chance.Faker replays a run; a scripted source pins every decision.
//
// # Concurrency
//
// A Stream is owned by one consuming loop. It is not safe for concurrent
// use and has no cancellation of its own: a consumer stops by not pulling.
package stream
