// Package localexec provides concrete, in-process implementations of the
// scheduler's collaborator interfaces backed by local shell commands.
//
// Each compliance phase runs a command template from the plan's suite
// block with the package's working directory as cwd and the package name
// exported in the environment. An empty template makes the phase a pass:
// a plan without a test command simply has no test gate.
package localexec

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/vk/forgegrid/internal/ctxlog"
	"github.com/vk/forgegrid/internal/plan"
	"github.com/vk/forgegrid/internal/scheduler"
)

// Runner implements Scaffolder, CheckRunner, Publisher, and Committer over
// local shell commands.
type Runner struct {
	workDir  string
	commands plan.Commands
}

// NewRunner creates a runner rooted at workDir; each package gets its own
// subdirectory.
func NewRunner(workDir string, commands plan.Commands) *Runner {
	return &Runner{workDir: workDir, commands: commands}
}

func (r *Runner) packageDir(u scheduler.UnitContext) string {
	return filepath.Join(r.workDir, u.Package)
}

// Scaffold ensures the package's working directory exists.
func (r *Runner) Scaffold(ctx context.Context, u scheduler.UnitContext) error {
	dir := r.packageDir(u)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("scaffold %s: %w", u.Package, err)
	}
	return nil
}

// Run executes the command template for the given check kind.
func (r *Runner) Run(ctx context.Context, u scheduler.UnitContext, kind scheduler.CheckKind) (scheduler.CheckResult, error) {
	var command string
	switch kind {
	case scheduler.CheckBuild:
		command = r.commands.Build
	case scheduler.CheckTest:
		command = r.commands.Test
	case scheduler.CheckQuality:
		command = r.commands.Quality
	default:
		return scheduler.CheckResult{}, fmt.Errorf("unknown check kind %q", kind)
	}
	if command == "" {
		return scheduler.CheckResult{Passed: true}, nil
	}
	return r.execute(ctx, u, command)
}

// Publish runs the publish command template, if any.
func (r *Runner) Publish(ctx context.Context, u scheduler.UnitContext) error {
	return r.sideEffect(ctx, u, r.commands.Publish, "publish")
}

// Commit runs the commit command template, if any. The message is exported
// as FORGEGRID_COMMIT_MESSAGE for the template to use.
func (r *Runner) Commit(ctx context.Context, u scheduler.UnitContext, message string) error {
	return r.sideEffect(ctx, u, r.commands.Commit, "commit",
		"FORGEGRID_COMMIT_MESSAGE="+message)
}

func (r *Runner) sideEffect(ctx context.Context, u scheduler.UnitContext, command, name string, extraEnv ...string) error {
	if command == "" {
		return nil
	}
	res, err := r.execute(ctx, u, command, extraEnv...)
	if err != nil {
		return fmt.Errorf("%s %s: %w", name, u.Package, err)
	}
	if !res.Passed {
		return fmt.Errorf("%s %s: command failed: %s", name, u.Package, res.Output)
	}
	return nil
}

func (r *Runner) execute(ctx context.Context, u scheduler.UnitContext, command string, extraEnv ...string) (scheduler.CheckResult, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Executing command.", "package", u.Package, "command", command)

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = r.packageDir(u)
	cmd.Env = append(os.Environ(),
		"FORGEGRID_PACKAGE="+u.Package,
		"FORGEGRID_CATEGORY="+u.Category,
	)
	cmd.Env = append(cmd.Env, extraEnv...)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	if err == nil {
		return scheduler.CheckResult{Passed: true, Output: out.String()}, nil
	}
	if _, isExit := err.(*exec.ExitError); isExit {
		// The command ran and rejected the package; that is a check
		// failure, not an infrastructure error.
		return scheduler.CheckResult{Passed: false, Output: out.String()}, nil
	}
	return scheduler.CheckResult{}, fmt.Errorf("running %q: %w", command, err)
}

// NoRemediator is the default remediation collaborator: it reports an
// unsuccessful attempt so a failing quality check escalates on first
// failure instead of pretending someone fixed it.
type NoRemediator struct{}

// Remediate always declines.
func (NoRemediator) Remediate(ctx context.Context, u scheduler.UnitContext, failureOutput string) (scheduler.RemediationResult, error) {
	return scheduler.RemediationResult{
		Success:       false,
		ChangeSummary: "no remediator configured",
	}, nil
}
