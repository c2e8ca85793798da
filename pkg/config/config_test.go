package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/framekit/pkg/errors"
	"github.com/ajitpratap0/framekit/pkg/frame"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	layout, err := cfg.Frame.ParsedLayout()
	require.NoError(t, err)
	assert.Equal(t, frame.ColumnMajor, layout)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"negative workers":   func(c *Config) { c.Engine.Workers = -1 },
		"bad layout":         func(c *Config) { c.Frame.Layout = "zigzag" },
		"negative threshold": func(c *Config) { c.Output.SummaryThreshold = -5 },
		"zero threshold":     func(c *Config) { c.Output.SummaryThreshold = 0 },
		"bad compression":    func(c *Config) { c.Output.CompressionLevel = "ultra" },
		"negative encoders":  func(c *Config) { c.Output.CompressionConcurrency = -2 },
		"bad log format":     func(c *Config) { c.Observability.LogFormat = "xml" },
		"bad sample rate":    func(c *Config) { c.Observability.TracingSampleRate = 1.5 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
		})
	}
}

func TestLoadKeepsDefaultsForMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "framekit.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output:\n  summary_threshold: 10\n"), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Output.SummaryThreshold)
	assert.Equal(t, "col", cfg.Frame.Layout)
	assert.Equal(t, "default", cfg.Output.CompressionLevel)
}

func TestLoadFileRejectsZeroThreshold(t *testing.T) {
	path := filepath.Join(t.TempDir(), "framekit.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output:\n  summary_threshold: 0\n"), 0o644))

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	assert.Contains(t, err.Error(), "output.summary_threshold must be positive")
}

func TestLoadFileInvalid(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("engine: [unclosed\n"), 0o644))
	_, err = LoadFile(bad)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("engine:\n  workers: -3\n"), 0o644))
	_, err = LoadFile(invalid)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("FRAMEKIT_TEST_DIR", "/scratch")
	t.Setenv("FRAMEKIT_TEST_NESTED", "${HOME}")

	assert.Equal(t, "dir: /scratch/x", substituteEnvVars("dir: ${FRAMEKIT_TEST_DIR}/x"))
	assert.Equal(t, "a: ${HOME}", substituteEnvVars("a: ${FRAMEKIT_TEST_NESTED}"))
	assert.Equal(t, "b: ", substituteEnvVars("b: ${FRAMEKIT_TEST_UNSET}"))
	assert.Equal(t, "c: ${open", substituteEnvVars("c: ${open"))
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := Default()
	cfg.Engine.Workers = 3
	cfg.Observability.EnableTracing = true
	require.NoError(t, Save(path, cfg))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
