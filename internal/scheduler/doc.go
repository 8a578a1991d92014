// Package scheduler drives a validated package graph to completion under a
// concurrency cap. Up to MaxConcurrent units build in parallel; the loop
// reaps whichever finishes first, feeds newly unblocked packages back into
// the ready set, and never lets a unit start while any of its dependencies
// is unbuilt.
//
// All shared bookkeeping (active set, completed set, node statuses) is
// mutated only from the single scheduling loop. Build goroutines
// communicate exclusively by sending their result on the completion
// channel.
//
// A package whose dependency failed is never attempted: it ends the run
// as blocked, reported separately from failed.
package scheduler
