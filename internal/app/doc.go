// Package app wires the application together: configuration, an isolated
// logger, plan loading, graph construction, the suite scheduler, and the
// final report. It is the composition root; every dependency is passed
// down explicitly from here.
package app
