package scheduler

import "context"

// UnitContext identifies one package build to the external collaborators.
type UnitContext struct {
	Package  string
	Category string
	Layer    int
	// Continuation is an opaque session token a remediator may hand back
	// to resume an earlier conversation. The scheduler persists and
	// forwards it between attempts but never interprets it.
	Continuation string
}

// Scaffolder prepares a package's working directory before its first build.
type Scaffolder interface {
	Scaffold(ctx context.Context, u UnitContext) error
}

// CheckKind selects which compliance command a CheckRunner executes.
type CheckKind string

const (
	CheckBuild   CheckKind = "build"
	CheckTest    CheckKind = "test"
	CheckQuality CheckKind = "quality"
)

// CheckResult is the structured outcome of one compliance command.
type CheckResult struct {
	Passed bool
	Output string
}

// CheckRunner executes build/test/lint-equivalent commands for a unit. A
// returned error means the command could not run at all; a clean run that
// found problems is Passed=false with the tool output attached.
type CheckRunner interface {
	Run(ctx context.Context, u UnitContext, kind CheckKind) (CheckResult, error)
}

// RemediationResult is what a remediation attempt reports back.
type RemediationResult struct {
	Success       bool
	ChangeSummary string
	// Continuation replaces the unit's token for the next attempt when
	// non-empty.
	Continuation string
}

// Remediator attempts to fix a failing quality check. It is opaque and
// non-deterministic: it may drive an AI agent or a human workflow.
type Remediator interface {
	Remediate(ctx context.Context, u UnitContext, failureOutput string) (RemediationResult, error)
}

// Publisher performs the side-effecting release of a finished unit.
type Publisher interface {
	Publish(ctx context.Context, u UnitContext) error
}

// Committer records the unit's changes in version control after publish.
type Committer interface {
	Commit(ctx context.Context, u UnitContext, message string) error
}

// Collaborators bundles everything a unit build needs injected.
type Collaborators struct {
	Scaffolder Scaffolder
	Checks     CheckRunner
	Remediator Remediator
	Publisher  Publisher
	Committer  Committer
}
