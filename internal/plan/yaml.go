package plan

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vk/forgegrid/internal/graph"
)

// yamlPlanFile mirrors hclPlanFile for .yaml/.yml plans.
type yamlPlanFile struct {
	Suite    *yamlSuite    `yaml:"suite"`
	Packages []yamlPackage `yaml:"packages"`
}

type yamlSuite struct {
	MaxConcurrent      int           `yaml:"max_concurrent"`
	MaxQualityAttempts int           `yaml:"max_quality_attempts"`
	Commands           *yamlCommands `yaml:"commands"`
}

type yamlCommands struct {
	Build   string `yaml:"build"`
	Test    string `yaml:"test"`
	Quality string `yaml:"quality"`
	Publish string `yaml:"publish"`
	Commit  string `yaml:"commit"`
}

type yamlPackage struct {
	Name      string   `yaml:"name"`
	Category  string   `yaml:"category"`
	DependsOn []string `yaml:"depends_on"`
}

func loadYAML(filePath string) (*Plan, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read YAML plan file %s: %w", filePath, err)
	}

	var parsed yamlPlanFile
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode YAML plan file %s: %w", filePath, err)
	}

	p := &Plan{}
	if parsed.Suite != nil {
		p.Suite.MaxConcurrent = parsed.Suite.MaxConcurrent
		p.Suite.MaxQualityAttempts = parsed.Suite.MaxQualityAttempts
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
		if pkg.Name == "" {
			return nil, fmt.Errorf("package with empty name in YAML plan file %s", filePath)
		}
		p.Packages = append(p.Packages, graph.Declaration{
			Name:         pkg.Name,
			Category:     pkg.Category,
			Dependencies: pkg.DependsOn,
		})
	}
	return p, nil
}
