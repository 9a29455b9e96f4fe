package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lockwatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "dashboard:\n  addr: \"0.0.0.0:9000\"\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.Dashboard.Addr)
	// Untouched sections keep their defaults.
	assert.Equal(t, Default().Demo, cfg.Demo)
}

func TestLoad_FullFile(t *testing.T) {
	path := writeConfig(t, `
dashboard:
  addr: "127.0.0.1:9090"
  shutdown_timeout: 2s
demo:
  enabled: true
  scenario: ordered
  workers: 4
  interval: 100ms
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9090", cfg.Dashboard.Addr)
	assert.Equal(t, 2*time.Second, cfg.Dashboard.ShutdownTimeout.Std())
	assert.Equal(t, "ordered", cfg.Demo.Scenario)
	assert.Equal(t, 4, cfg.Demo.Workers)
	assert.Equal(t, 100*time.Millisecond, cfg.Demo.Interval.Std())
}

func TestLoad_BadDuration(t *testing.T) {
	path := writeConfig(t, "demo:\n  interval: fast\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid duration "fast"`)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "dashboard: [not a mapping")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}

func TestValidate_BadScenario(t *testing.T) {
	cfg := Default()
	cfg.Demo.Scenario = "chaotic"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chaotic")
}

func TestValidate_BadWorkerCount(t *testing.T) {
	cfg := Default()
	cfg.Demo.Workers = 0
	require.Error(t, cfg.Validate())
}

func TestValidate_DisabledDemoSkipsDemoChecks(t *testing.T) {
	cfg := Default()
	cfg.Demo.Enabled = false
	cfg.Demo.Scenario = "whatever"
	cfg.Demo.Workers = 0
	require.NoError(t, cfg.Validate())
}
