package scheduler

import (
	"context"
	"fmt"

	"github.com/vk/forgegrid/internal/ctxlog"
)

// Phase is one stage of a single package build.
type Phase string

const (
	PhasePending      Phase = "pending"
	PhaseScaffolding  Phase = "scaffolding"
	PhaseBuilding     Phase = "building"
	PhaseTesting      Phase = "testing"
	PhaseQualityCheck Phase = "quality_check"
	PhasePublishing   Phase = "publishing"
	PhaseDone         Phase = "done"
	PhaseFailed       Phase = "failed"
)

// DefaultMaxQualityAttempts bounds the quality-check/remediate loop.
const DefaultMaxQualityAttempts = 3

// UnitResult is the full record of one package build attempt.
type UnitResult struct {
	Package     string
	Phase       Phase
	FailedPhase Phase
	Reason      string
	// RemediationAttempts counts remediation invocations, successful or
	// not. RemediationSummaries holds each attempt's change summary.
	RemediationAttempts  int
	RemediationSummaries []string
	Cancelled            bool
}

// Failed reports whether the unit ended in failure.
func (r UnitResult) Failed() bool { return r.Phase == PhaseFailed }

// unitRunner walks one package through the build phases. Build and test
// failures fail the unit immediately; only the quality check gets the
// bounded remediation loop, because remediating without evidence of
// convergence elsewhere has no backstop.
type unitRunner struct {
	collab      Collaborators
	maxAttempts int
}

func newUnitRunner(collab Collaborators, maxAttempts int) *unitRunner {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxQualityAttempts
	}
	return &unitRunner{collab: collab, maxAttempts: maxAttempts}
}

// Run executes the phase sequence for one unit. It never touches shared
// scheduler state; the result travels back over the completion channel.
func (r *unitRunner) Run(ctx context.Context, u UnitContext) UnitResult {
	logger := ctxlog.FromContext(ctx).With("package", u.Package)
	result := UnitResult{Package: u.Package, Phase: PhasePending}

	fail := func(phase Phase, reason string) UnitResult {
		logger.Warn("Unit failed.", "phase", string(phase), "reason", reason)
		result.Phase = PhaseFailed
		result.FailedPhase = phase
		result.Reason = reason
		return result
	}
	cancelled := func(phase Phase) UnitResult {
		result = fail(phase, "cancelled")
		result.Cancelled = true
		return result
	}

	// Scaffold.
	if ctx.Err() != nil {
		return cancelled(PhaseScaffolding)
	}
	result.Phase = PhaseScaffolding
	logger.Debug("Scaffolding package.")
	if err := r.collab.Scaffolder.Scaffold(ctx, u); err != nil {
		return fail(PhaseScaffolding, fmt.Sprintf("scaffold: %v", err))
	}

	// Build and test: no remediation, first failure is final.
	for _, step := range []struct {
		phase Phase
		kind  CheckKind
	}{
		{PhaseBuilding, CheckBuild},
		{PhaseTesting, CheckTest},
	} {
		if ctx.Err() != nil {
			return cancelled(step.phase)
		}
		result.Phase = step.phase
		logger.Debug("Running compliance check.", "kind", string(step.kind))
		res, err := r.collab.Checks.Run(ctx, u, step.kind)
		if err != nil {
			return fail(step.phase, fmt.Sprintf("%s runner: %v", step.kind, err))
		}
		if !res.Passed {
			return fail(step.phase, fmt.Sprintf("%s check failed: %s", step.kind, res.Output))
		}
	}

	// Quality check with bounded remediation.
	result.Phase = PhaseQualityCheck
	passed := false
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return cancelled(PhaseQualityCheck)
		}
		logger.Debug("Running quality check.", "attempt", attempt)
		res, err := r.collab.Checks.Run(ctx, u, CheckQuality)
		if err != nil {
			return fail(PhaseQualityCheck, fmt.Sprintf("quality runner: %v", err))
		}
		if res.Passed {
			passed = true
			break
		}
		if attempt == r.maxAttempts {
			return fail(PhaseQualityCheck, fmt.Sprintf(
				"escalation: quality check failed after %d attempts (%d remediations): %s",
				r.maxAttempts, result.RemediationAttempts, res.Output))
		}

		logger.Info("Quality check failed, invoking remediation.", "attempt", attempt)
		rem, err := r.collab.Remediator.Remediate(ctx, u, res.Output)
		result.RemediationAttempts++
		result.RemediationSummaries = append(result.RemediationSummaries, rem.ChangeSummary)
		if err != nil {
			return fail(PhaseQualityCheck, fmt.Sprintf("remediation: %v", err))
		}
		if !rem.Success {
			return fail(PhaseQualityCheck, fmt.Sprintf(
				"escalation: remediation gave up after attempt %d: %s", attempt, rem.ChangeSummary))
		}
		if rem.Continuation != "" {
			u.Continuation = rem.Continuation
		}
	}
	if !passed {
		return fail(PhaseQualityCheck, "quality check never passed")
	}

	// Publish and commit.
	if ctx.Err() != nil {
		return cancelled(PhasePublishing)
	}
	result.Phase = PhasePublishing
	logger.Debug("Publishing package.")
	if err := r.collab.Publisher.Publish(ctx, u); err != nil {
		return fail(PhasePublishing, fmt.Sprintf("publish: %v", err))
	}
	if err := r.collab.Committer.Commit(ctx, u, fmt.Sprintf("build %s", u.Package)); err != nil {
		return fail(PhasePublishing, fmt.Sprintf("commit: %v", err))
	}

	logger.Info("Unit finished.", "remediations", result.RemediationAttempts)
	result.Phase = PhaseDone
	return result
}
