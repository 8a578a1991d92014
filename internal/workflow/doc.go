// Package workflow implements the goal-run engine: an immutable state
// ledger of in-flight steps and artifacts, a pure transition engine that
// applies declarative actions to that ledger, and a driver loop that asks
// a pluggable specification for the next actions, dispatches waiting steps
// to an executor, and feeds responses back until the run finalizes.
//
// The engine is deterministic by construction. It never reads the wall
// clock or global randomness; time, random values, and sequence numbers
// all come from the RunContext injected by the caller. Replaying the same
// action sequence against the same RunContext values yields an identical
// final State.
package workflow
