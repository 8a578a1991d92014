package app

import "fmt"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// PlanPath points at a plan file or a directory of plan files.
	PlanPath string
	// WorkDir is the root under which package build directories live.
	WorkDir string
	// ArtifactDir overrides the artifact store location; empty keeps
	// artifacts in memory only.
	ArtifactDir string
	// MaxConcurrent caps parallel unit builds; 0 defers to the plan's
	// suite block, then to DefaultMaxConcurrent.
	MaxConcurrent int
	// MaxQualityAttempts bounds the quality/remediation loop; 0 defers to
	// the plan, then to the scheduler default.
	MaxQualityAttempts int
	HealthcheckPort    int
	LogFormat          string
	LogLevel           string
}

// DefaultMaxConcurrent applies when neither flags nor the plan set a cap.
const DefaultMaxConcurrent = 4

// NewConfig validates a Config and applies defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.PlanPath == "" {
		return nil, fmt.Errorf("plan path is required")
	}
	if cfg.MaxConcurrent < 0 {
		return nil, fmt.Errorf("max-concurrent must not be negative")
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = "."
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("invalid log format %q: must be 'text' or 'json'", cfg.LogFormat)
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if _, ok := levelNames[cfg.LogLevel]; !ok {
		return nil, fmt.Errorf("invalid log level %q", cfg.LogLevel)
	}
	return &cfg, nil
}
