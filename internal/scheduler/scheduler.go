package scheduler

import (
	"context"
	"fmt"

	"github.com/vk/forgegrid/internal/ctxlog"
	"github.com/vk/forgegrid/internal/graph"
)

// Config holds the caller-tunable scheduling knobs.
type Config struct {
	// MaxConcurrent caps the number of units building at once.
	MaxConcurrent int
	// MaxQualityAttempts bounds the per-unit quality/remediation loop;
	// 0 selects the default.
	MaxQualityAttempts int
}

// Scheduler owns one suite run over a validated graph.
type Scheduler struct {
	graph  *graph.Graph
	runner *unitRunner
	cfg    Config
}

// completion is the only message a build goroutine ever sends back.
type completion struct {
	name   string
	result UnitResult
}

// New wires a scheduler for the given graph and collaborators.
func New(g *graph.Graph, collab Collaborators, cfg Config) (*Scheduler, error) {
	if g == nil {
		return nil, fmt.Errorf("nil graph")
	}
	if cfg.MaxConcurrent <= 0 {
		return nil, fmt.Errorf("max concurrent must be positive, got %d", cfg.MaxConcurrent)
	}
	if collab.Scaffolder == nil || collab.Checks == nil || collab.Remediator == nil ||
		collab.Publisher == nil || collab.Committer == nil {
		return nil, fmt.Errorf("incomplete collaborators")
	}
	return &Scheduler{
		graph:  g,
		runner: newUnitRunner(collab, cfg.MaxQualityAttempts),
		cfg:    cfg,
	}, nil
}

// Run drives every package to built, failed, or blocked and returns the
// aggregated report.
//
// The loop launches from the ready set up to the concurrency cap, then
// blocks for exactly one completion before refilling. First-completion
// reaping, not barrier wait: a long build never holds back packages that
// only depended on a fast one.
//
// On cancellation the loop stops launching, lets in-flight units observe
// their context and return, and drains every acknowledgment before
// reporting; abandoning the channel would corrupt the active-set
// bookkeeping.
func (s *Scheduler) Run(ctx context.Context) (*Report, error) {
	logger := ctxlog.FromContext(ctx)

	unitCtx, cancelUnits := context.WithCancel(ctx)
	defer cancelUnits()

	completed := make(map[string]bool)
	active := make(map[string]struct{})
	results := make(map[string]UnitResult, len(s.graph.Nodes))
	completionCh := make(chan completion)

	logger.Info("Starting suite run.",
		"packages", len(s.graph.Nodes),
		"maxConcurrent", s.cfg.MaxConcurrent,
	)

	for {
		if ctx.Err() == nil {
			ready := s.graph.Ready(completed)
			for _, name := range ready {
				if len(active) >= s.cfg.MaxConcurrent {
					break
				}
				node := s.graph.Nodes[name]
				node.Status = graph.StatusBuilding
				active[name] = struct{}{}
				logger.Debug("Launching unit.", "package", name, "layer", node.Layer, "active", len(active))

				u := UnitContext{Package: node.Name, Category: node.Category, Layer: node.Layer}
				go func(u UnitContext) {
					completionCh <- completion{name: u.Package, result: s.runner.Run(unitCtx, u)}
				}(u)
			}
		}

		if len(active) == 0 {
			break
		}

		// Reap exactly one completion; the next pass refills the slots.
		c := <-completionCh
		delete(active, c.name)
		results[c.name] = c.result

		node := s.graph.Nodes[c.name]
		if c.result.Failed() {
			node.Status = graph.StatusFailed
			logger.Warn("Unit failed.", "package", c.name, "phase", string(c.result.FailedPhase))
		} else {
			node.Status = graph.StatusBuilt
			completed[c.name] = true
			logger.Info("Unit built.", "package", c.name, "completed", len(completed))
		}
	}

	report := s.aggregate(results, ctx.Err() != nil)
	logger.Info("Suite run finished.",
		"built", len(report.Built),
		"failed", len(report.Failed),
		"blocked", len(report.Blocked),
		"cancelled", report.Cancelled,
	)
	return report, nil
}

// aggregate folds per-unit outcomes into the suite report. Anything still
// pending when the loop drained was blocked behind a failure (or the run
// was cancelled before its turn).
func (s *Scheduler) aggregate(results map[string]UnitResult, cancelled bool) *Report {
	report := &Report{
		Units:     results,
		Cancelled: cancelled,
	}
	for _, name := range s.graph.Order {
		switch s.graph.Nodes[name].Status {
		case graph.StatusBuilt:
			report.Built = append(report.Built, name)
		case graph.StatusFailed:
			report.Failed = append(report.Failed, name)
		case graph.StatusPending:
			report.Blocked = append(report.Blocked, name)
		}
	}
	return report
}
