package plan

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/forgegrid/internal/graph"
)

// hclPlanFile is the top-level structure of one .hcl plan file.
type hclPlanFile struct {
	Suite    *hclSuite     `hcl:"suite,block"`
	Packages []*hclPackage `hcl:"package,block"`
}

type hclSuite struct {
	MaxConcurrent      *int         `hcl:"max_concurrent,optional"`
	MaxQualityAttempts *int         `hcl:"max_quality_attempts,optional"`
	Commands           *hclCommands `hcl:"commands,block"`
}

type hclCommands struct {
	Build   string `hcl:"build,optional"`
	Test    string `hcl:"test,optional"`
	Quality string `hcl:"quality,optional"`
	Publish string `hcl:"publish,optional"`
	Commit  string `hcl:"commit,optional"`
}

type hclPackage struct {
	Name      string   `hcl:"name,label"`
	Category  string   `hcl:"category,optional"`
	DependsOn []string `hcl:"depends_on,optional"`
}

// loadHCL parses a single plan file. Package order in the file is the
// declaration order handed to the graph builder.
func loadHCL(filePath string) (*Plan, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCLFile(filePath)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL plan file %s: %w", filePath, diags)
	}

	var parsed hclPlanFile
	diags = gohcl.DecodeBody(hclFile.Body, nil, &parsed)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL plan file %s: %w", filePath, diags)
	}

	p := &Plan{}
	if parsed.Suite != nil {
		if parsed.Suite.MaxConcurrent != nil {
			p.Suite.MaxConcurrent = *parsed.Suite.MaxConcurrent
		}
		if parsed.Suite.MaxQualityAttempts != nil {
			p.Suite.MaxQualityAttempts = *parsed.Suite.MaxQualityAttempts
		}
		if parsed.Suite.Commands != nil {
			p.Suite.Commands = Commands{
				Build:   parsed.Suite.Commands.Build,
				Test:    parsed.Suite.Commands.Test,
				Quality: parsed.Suite.Commands.Quality,
				Publish: parsed.Suite.Commands.Publish,
				Commit:  parsed.Suite.Commands.Commit,
			}
		}
	}
	for _, pkg := range parsed.Packages {
		p.Packages = append(p.Packages, graph.Declaration{
			Name:         pkg.Name,
			Category:     pkg.Category,
			Dependencies: pkg.DependsOn,
		})
	}
	return p, nil
}
