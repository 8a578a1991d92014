package plan

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/forgegrid/internal/ctxlog"
	"github.com/vk/forgegrid/internal/fsutil"
	"github.com/vk/forgegrid/internal/graph"
)

// Suite holds plan-level scheduling settings. Zero values defer to the
// caller's defaults.
type Suite struct {
	MaxConcurrent      int
	MaxQualityAttempts int
	Commands           Commands
}

// Commands are the shell command templates the compliance runner and the
// publish/commit collaborators execute per package. Empty entries disable
// the corresponding phase side effect (checks default to passing).
type Commands struct {
	Build   string
	Test    string
	Quality string
	Publish string
	Commit  string
}

// Plan is the loaded, format-agnostic build plan.
type Plan struct {
	Suite    Suite
	Packages []graph.Declaration
}

// Load finds every .hcl and .yaml/.yml file under path and merges them
// into a single plan. A plan may set the suite block in at most one file.
func Load(ctx context.Context, path string) (*Plan, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading plan from path", "path", path)

	files, err := fsutil.FindFilesByExtensions(path, ".hcl", ".yaml", ".yml")
	if err != nil {
		return nil, fmt.Errorf("failed to find plan files in %s: %w", path, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no plan files (.hcl, .yaml) found in %s", path)
	}

	merged := &Plan{}
	suiteSeen := ""
	for _, file := range files {
		var p *Plan
		switch {
		case strings.HasSuffix(file, ".hcl"):
			p, err = loadHCL(file)
		default:
			p, err = loadYAML(file)
		}
		if err != nil {
			return nil, err
		}

		if p.Suite != (Suite{}) {
			if suiteSeen != "" {
				return nil, fmt.Errorf("suite settings declared in both %s and %s", suiteSeen, file)
			}
			suiteSeen = file
			merged.Suite = p.Suite
		}
		merged.Packages = append(merged.Packages, p.Packages...)
	}

	logger.Debug("Plan loaded.", "files", len(files), "packages", len(merged.Packages))
	return merged, nil
}
