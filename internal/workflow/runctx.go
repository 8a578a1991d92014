package workflow

import (
	"fmt"
	"math/rand"
	"time"
)

// RunContext is the engine's only source of time, randomness, and sequence
// numbers. The engine never reads the wall clock or global randomness, so
// two runs constructed with the same base time and seed produce identical
// states for identical inputs.
//
// A RunContext is owned by a single driver loop and is not safe for
// concurrent use.
type RunContext struct {
	base time.Time
	rng  *rand.Rand
	seq  int
}

// NewRunContext creates a deterministic context. Each call to Now advances
// the logical clock by one tick so that successive entries carry distinct,
// ordered timestamps without any wall-clock read.
func NewRunContext(base time.Time, seed int64) *RunContext {
	return &RunContext{
		base: base,
		rng:  rand.New(rand.NewSource(seed)),
	}
}

// Now returns the next logical timestamp and advances the sequence.
func (rc *RunContext) Now() time.Time {
	t := rc.base.Add(time.Duration(rc.seq) * time.Millisecond)
	rc.seq++
	return t
}

// Seq returns the current sequence number without advancing it.
func (rc *RunContext) Seq() int {
	return rc.seq
}

// Rand exposes the seeded random source for specifications that need one.
func (rc *RunContext) Rand() *rand.Rand {
	return rc.rng
}

// NextDecisionID derives a decision identifier from the sequence alone, so
// a replayed run reproduces the same IDs.
func (rc *RunContext) NextDecisionID(goalID string) string {
	id := fmt.Sprintf("%s-d%04d", goalID, rc.seq)
	rc.seq++
	return id
}
