// Package cli parses command-line arguments into an app configuration.
package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/vk/forgegrid/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("forgegrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
forgegrid - dependency-ordered package build orchestration.

Usage:
  forgegrid [options] [PLAN_PATH]

Arguments:
  PLAN_PATH
    Path to a plan file (.hcl, .yaml) or a directory containing plan files.

Options:
`)
		flagSet.PrintDefaults()
	}

	planFlag := flagSet.String("plan", "", "Path to the plan file or directory.")
	pFlag := flagSet.String("p", "", "Path to the plan file or directory (shorthand).")
	workDirFlag := flagSet.String("work-dir", ".", "Root directory for package build workspaces.")
	artifactDirFlag := flagSet.String("artifact-dir", "", "Directory for persisted artifacts. Empty keeps them in memory.")
	maxConcurrentFlag := flagSet.Int("max-concurrent", 0, "Maximum concurrent package builds. 0 defers to the plan.")
	maxQualityFlag := flagSet.Int("max-quality-attempts", 0, "Maximum quality check attempts per package. 0 defers to the plan.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	envFileFlag := flagSet.String("env-file", "", "Optional .env file with FORGEGRID_* defaults.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	// Environment defaults fill anything flags left unset. A missing
	// default .env is fine; an explicitly named one must exist.
	if *envFileFlag != "" {
		if err := godotenv.Load(*envFileFlag); err != nil {
			return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("failed to load env file: %v", err)}
		}
	} else {
		_ = godotenv.Load()
	}

	path := ""
	if *planFlag != "" {
		path = *planFlag
	} else if *pFlag != "" {
		path = *pFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	} else if env := os.Getenv("FORGEGRID_PLAN"); env != "" {
		path = env
	}

	if path == "" {
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(stringOr(*logFormatFlag, os.Getenv("FORGEGRID_LOG_FORMAT"), "text"))
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(stringOr(*logLevelFlag, os.Getenv("FORGEGRID_LOG_LEVEL"), "info"))
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	maxConcurrent := *maxConcurrentFlag
	if maxConcurrent == 0 {
		if env := os.Getenv("FORGEGRID_MAX_CONCURRENT"); env != "" {
			n, err := strconv.Atoi(env)
			if err != nil {
				return nil, false, &ExitError{Code: 2, Message: "invalid FORGEGRID_MAX_CONCURRENT: " + env}
			}
			maxConcurrent = n
		}
	}

	config, err := app.NewConfig(app.Config{
		PlanPath:           path,
		WorkDir:            *workDirFlag,
		ArtifactDir:        *artifactDirFlag,
		MaxConcurrent:      maxConcurrent,
		MaxQualityAttempts: *maxQualityFlag,
		HealthcheckPort:    *healthPortFlag,
		LogFormat:          logFormat,
		LogLevel:           logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	return config, false, nil
}

// stringOr returns the first non-empty value.
func stringOr(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
