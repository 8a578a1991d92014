// Package graph validates a flat list of declared packages into a build
// DAG. Validation happens entirely before scheduling: unknown dependency
// names and cycles refuse the whole graph, so the scheduler never observes
// a malformed node set.
//
// Each node carries a layer, its longest-path depth from the roots. Layers
// and every derived ordering are computed from the declaration order of
// the input list, never from map iteration order, so a given plan always
// produces the same graph.
package graph
