package app

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/vk/forgegrid/internal/artifact"
	"github.com/vk/forgegrid/internal/ctxlog"
	"github.com/vk/forgegrid/internal/graph"
	"github.com/vk/forgegrid/internal/localexec"
	"github.com/vk/forgegrid/internal/plan"
	"github.com/vk/forgegrid/internal/report"
	"github.com/vk/forgegrid/internal/scheduler"
)

// ErrSuiteFailed is returned by Run when the suite terminated normally but
// not every package built. The report was still produced and rendered;
// partial success is a reportable outcome, not an exception.
var ErrSuiteFailed = fmt.Errorf("suite finished with failed or blocked packages")

// Run executes the suite described by the configured plan and renders the
// report to the app's output writer.
func (a *App) Run(ctx context.Context) (*scheduler.Report, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.HealthcheckPort > 0 {
		a.healthCheckServer(ctx)
		defer a.closeHealthCheckServer(ctx)
	}

	p, err := plan.Load(ctx, a.config.PlanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}

	g, err := graph.Build(p.Packages)
	if err != nil {
		return nil, fmt.Errorf("failed to build dependency graph: %w", err)
	}
	a.logger.Debug("Dependency graph built.", "node_count", len(g.Nodes))

	maxConcurrent := a.config.MaxConcurrent
	if maxConcurrent == 0 {
		maxConcurrent = p.Suite.MaxConcurrent
	}
	if maxConcurrent == 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	maxQuality := a.config.MaxQualityAttempts
	if maxQuality == 0 {
		maxQuality = p.Suite.MaxQualityAttempts
	}

	runner := localexec.NewRunner(a.config.WorkDir, p.Suite.Commands)
	sched, err := scheduler.New(g, scheduler.Collaborators{
		Scaffolder: runner,
		Checks:     runner,
		Remediator: localexec.NoRemediator{},
		Publisher:  runner,
		Committer:  runner,
	}, scheduler.Config{
		MaxConcurrent:      maxConcurrent,
		MaxQualityAttempts: maxQuality,
	})
	if err != nil {
		return nil, err
	}

	a.logger.Info("🚀 Starting suite execution...", "packages", len(g.Nodes), "maxConcurrent", maxConcurrent)
	rep, err := sched.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("execution failed: %w", err)
	}
	a.logger.Info("🏁 Suite execution finished.")

	if err := a.persistReport(ctx, rep); err != nil {
		return rep, err
	}

	fmt.Fprint(a.outW, report.Render(rep))

	if !rep.Success() {
		return rep, ErrSuiteFailed
	}
	return rep, nil
}

// persistReport writes the machine-readable report into the artifact store.
func (a *App) persistReport(ctx context.Context, rep *scheduler.Report) error {
	var store artifact.Store
	if a.config.ArtifactDir != "" {
		fs, err := artifact.NewFSStore(filepath.Clean(a.config.ArtifactDir))
		if err != nil {
			return err
		}
		store = fs
	} else {
		store = artifact.NewMemStore()
	}

	raw, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := store.Write(ctx, "suite-report.json", raw); err != nil {
		return fmt.Errorf("failed to persist report: %w", err)
	}
	a.logger.Debug("Report persisted.", "bytes", len(raw))
	return nil
}
