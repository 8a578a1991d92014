// Package plan loads the declarative build plan that feeds the graph
// builder: a set of package declarations with named dependencies plus
// suite-level settings. Plans are written in HCL or YAML; both formats
// decode into the same model, chosen by file extension. Files load in
// sorted path order and packages keep their in-file order, so the
// declaration list, and everything the graph builder derives from it,
// is stable for a given plan directory.
package plan
