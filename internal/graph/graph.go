package graph

import (
	"fmt"
	"sort"
)

// BuildStatus is the scheduler-visible lifecycle of one package node.
type BuildStatus string

const (
	StatusPending  BuildStatus = "pending"
	StatusBuilding BuildStatus = "building"
	StatusBuilt    BuildStatus = "built"
	StatusFailed   BuildStatus = "failed"
)

// Declaration is one package as declared in a plan file, before validation.
type Declaration struct {
	Name         string
	Category     string
	Dependencies []string
}

// Node is one validated package in the build DAG.
type Node struct {
	Name         string
	Category     string
	Dependencies []string
	// Layer is the node's longest-path depth: 0 for roots, otherwise
	// 1 + the maximum layer among its dependencies.
	Layer int
	// Pos is the node's position in the input declaration list, used as
	// the deterministic tie-break everywhere ordering matters.
	Pos int
	// Status is owned by the scheduler loop after construction.
	Status BuildStatus
}

// Graph is the validated node set. Order holds the node names sorted by
// (layer, declaration position) and is the canonical scheduling order.
type Graph struct {
	Nodes map[string]*Node
	Order []string
}

// Build validates the declarations into a Graph. It fails with an
// UnknownDependencyError for a dangling edge and a CycleError for a cycle;
// either refuses the whole graph before any scheduling can begin.
func Build(decls []Declaration) (*Graph, error) {
	nodes := make(map[string]*Node, len(decls))
	for i, d := range decls {
		if d.Name == "" {
			return nil, fmt.Errorf("package at position %d has no name", i)
		}
		if _, exists := nodes[d.Name]; exists {
			return nil, fmt.Errorf("package %q declared twice", d.Name)
		}
		nodes[d.Name] = &Node{
			Name:         d.Name,
			Category:     d.Category,
			Dependencies: append([]string(nil), d.Dependencies...),
			Pos:          i,
			Status:       StatusPending,
		}
	}

	for _, d := range decls {
		for _, dep := range d.Dependencies {
			if _, ok := nodes[dep]; !ok {
				return nil, &UnknownDependencyError{Package: d.Name, Dependency: dep}
			}
			if dep == d.Name {
				return nil, &CycleError{Members: []string{d.Name, d.Name}}
			}
		}
	}

	if err := detectCycles(decls, nodes); err != nil {
		return nil, err
	}

	layers := make(map[string]int, len(nodes))
	for _, d := range decls {
		computeLayer(d.Name, nodes, layers)
	}
	for name, layer := range layers {
		nodes[name].Layer = layer
	}

	order := make([]string, 0, len(decls))
	for _, d := range decls {
		order = append(order, d.Name)
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := nodes[order[i]], nodes[order[j]]
		if a.Layer != b.Layer {
			return a.Layer < b.Layer
		}
		return a.Pos < b.Pos
	})

	return &Graph{Nodes: nodes, Order: order}, nil
}

// detectCycles runs a depth-first search with an explicit recursion stack.
// Nodes are visited in declaration order so the reported cycle is the same
// for a given plan on every run.
func detectCycles(decls []Declaration, nodes map[string]*Node) error {
	const (
		unvisited = iota
		inStack
		done
	)
	mark := make(map[string]int, len(nodes))
	var stack []string

	var visit func(name string) error
	visit = func(name string) error {
		switch mark[name] {
		case done:
			return nil
		case inStack:
			// Trim the stack to the cycle entry point so the error names
			// exactly the members, closing the loop on the repeated node.
			start := 0
			for i, n := range stack {
				if n == name {
					start = i
					break
				}
			}
			members := append(append([]string(nil), stack[start:]...), name)
			return &CycleError{Members: members}
		}

		mark[name] = inStack
		stack = append(stack, name)
		for _, dep := range nodes[name].Dependencies {
			if err := visit(dep); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		mark[name] = done
		return nil
	}

	for _, d := range decls {
		if err := visit(d.Name); err != nil {
			return err
		}
	}
	return nil
}

// computeLayer memoizes the longest dependency path below name. Cycles are
// already ruled out, so the recursion terminates.
func computeLayer(name string, nodes map[string]*Node, layers map[string]int) int {
	if l, ok := layers[name]; ok {
		return l
	}
	layer := 0
	for _, dep := range nodes[name].Dependencies {
		if dl := computeLayer(dep, nodes, layers) + 1; dl > layer {
			layer = dl
		}
	}
	layers[name] = layer
	return layer
}

// Ready returns the names of pending nodes whose dependencies are all in
// built, ordered by (layer, declaration position).
func (g *Graph) Ready(built map[string]bool) []string {
	var ready []string
	for _, name := range g.Order {
		n := g.Nodes[name]
		if n.Status != StatusPending {
			continue
		}
		ok := true
		for _, dep := range n.Dependencies {
			if !built[dep] {
				ok = false
				break
			}
		}
		if ok {
			ready = append(ready, name)
		}
	}
	return ready
}

// Dependents returns the names of nodes that depend, directly, on name.
func (g *Graph) Dependents(name string) []string {
	var out []string
	for _, candidate := range g.Order {
		for _, dep := range g.Nodes[candidate].Dependencies {
			if dep == name {
				out = append(out, candidate)
				break
			}
		}
	}
	return out
}
