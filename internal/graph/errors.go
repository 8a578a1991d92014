package graph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownDependency = errors.New("unknown dependency")
	ErrCycle             = errors.New("dependency cycle")
)

// UnknownDependencyError names both ends of a dangling dependency edge.
type UnknownDependencyError struct {
	Package    string
	Dependency string
}

func (e *UnknownDependencyError) Error() string {
	return fmt.Sprintf("unknown dependency: package %q depends on %q, which is not in the plan", e.Package, e.Dependency)
}

func (e *UnknownDependencyError) Unwrap() error { return ErrUnknownDependency }

// CycleError lists the members of the detected cycle in traversal order.
type CycleError struct {
	Members []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle: %s", strings.Join(e.Members, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCycle }
