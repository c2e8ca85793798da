package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/ajitpratap0/framekit/pkg/errors"
	"github.com/ajitpratap0/framekit/pkg/logger"
	"github.com/ajitpratap0/framekit/pkg/testutil"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestLoadConfigPrecedence(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "framekit.yaml", `
engine:
  workers: 3
frame:
  layout: row
output:
  summary_threshold: 10
`)
	t.Setenv("FRAMEKIT_WORKERS", "5")
	t.Setenv("FRAMEKIT_LAYOUT", "row")
	t.Setenv("FRAMEKIT_COMPRESSION_CONCURRENCY", "4")

	cmd := newRunCmd()
	require.NoError(t, cmd.Flags().Parse([]string{"--layout", "col"}))

	cfg, err := loadConfig(path, cmd.Flags())
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Engine.Workers)
	assert.Equal(t, "col", cfg.Frame.Layout)
	assert.Equal(t, 10, cfg.Output.SummaryThreshold)
	assert.Equal(t, 4, cfg.Output.CompressionConcurrency)
	assert.Equal(t, "warn", cfg.Observability.LogLevel)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	t.Setenv("FRAMEKIT_LAYOUT", "diagonal")
	cmd := newRunCmd()
	require.NoError(t, cmd.Flags().Parse(nil))

	_, err := loadConfig("", cmd.Flags())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	input := testutil.WriteFile(t, dir, "prices.csv", "DATE,A\n2024-01-02,1\n2024-01-03,2\n2024-01-04,4\n")
	metricsFile := filepath.Join(dir, "metrics.prom")

	out, err := execute(t, "run", "--input", input, "--scratch-dir", dir, "--metrics-file", metricsFile, "cumsum 10")
	require.NoError(t, err)
	assert.Equal(t, "DATE,A\n2024-01-02,11\n2024-01-03,13\n2024-01-04,17\n", out)

	data, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "framekit_step_seconds")
}

func TestRunCommandConfiguresGlobalLogger(t *testing.T) {
	input := testutil.WriteFile(t, t.TempDir(), "prices.csv", "DATE,A\n2024-01-02,1\n")

	_, err := execute(t, "run", "--input", input, "--log-level", "debug", "print")
	require.NoError(t, err)
	assert.True(t, logger.Get().Core().Enabled(zapcore.DebugLevel))

	_, err = execute(t, "run", "--input", input, "--log-level", "error", "print")
	require.NoError(t, err)
	assert.False(t, logger.Get().Core().Enabled(zapcore.WarnLevel))
}

func TestRunCommandLoadStep(t *testing.T) {
	dir := t.TempDir()
	input := testutil.WriteFile(t, dir, "prices.csv", "DATE,A,B\n2024-01-02,1,2\n2024-01-03,3,4\n")
	saved := filepath.Join(dir, "out.csv.zst")

	out, err := execute(t, "run", "--layout", "row", "load "+input+" | after 2024-01-02 | save "+saved)
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = execute(t, "run", "--input", saved, "print")
	require.NoError(t, err)
	assert.Equal(t, "DATE,A,B\n2024-01-03,3,4\n", out)
}

func TestRunCommandUnknownStep(t *testing.T) {
	input := testutil.WriteFile(t, t.TempDir(), "prices.csv", "DATE,A\n2024-01-02,1\n")
	_, err := execute(t, "run", "--input", input, "dlog | smooth")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command: smooth")
}

func TestOpsCommand(t *testing.T) {
	out, err := execute(t, "ops")
	require.NoError(t, err)
	assert.Contains(t, out, "pdlog [workers]")
	assert.Contains(t, out, "momentum <lookback>")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "framekit v"+version)
}
