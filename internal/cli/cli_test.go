package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_PositionalPlanPath(t *testing.T) {
	var out bytes.Buffer

	cfg, done, err := Parse([]string{"./plans"}, &out)

	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, "./plans", cfg.PlanPath)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestParse_FlagsOverridePositional(t *testing.T) {
	var out bytes.Buffer

	cfg, _, err := Parse([]string{
		"-plan", "./other",
		"-max-concurrent", "7",
		"-log-format", "json",
		"-log-level", "debug",
	}, &out)

	require.NoError(t, err)
	assert.Equal(t, "./other", cfg.PlanPath)
	assert.Equal(t, 7, cfg.MaxConcurrent)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestParse_NoPathPrintsUsage(t *testing.T) {
	var out bytes.Buffer

	cfg, done, err := Parse([]string{}, &out)

	require.NoError(t, err)
	assert.True(t, done)
	assert.Nil(t, cfg)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParse_InvalidLogFormat(t *testing.T) {
	var out bytes.Buffer

	_, _, err := Parse([]string{"-log-format", "xml", "./plans"}, &out)

	require.Error(t, err)
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestParse_InvalidLogLevel(t *testing.T) {
	var out bytes.Buffer

	_, _, err := Parse([]string{"-log-level", "loud", "./plans"}, &out)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestParse_EnvDefaults(t *testing.T) {
	var out bytes.Buffer
	t.Setenv("FORGEGRID_LOG_LEVEL", "warn")
	t.Setenv("FORGEGRID_MAX_CONCURRENT", "3")

	cfg, _, err := Parse([]string{"./plans"}, &out)

	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 3, cfg.MaxConcurrent)
}

func TestParse_MissingNamedEnvFileFails(t *testing.T) {
	var out bytes.Buffer

	_, _, err := Parse([]string{"-env-file", "/nonexistent/.env", "./plans"}, &out)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
}
