package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_CreatesDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, 800*time.Millisecond, cfg.Control.StepDelay)
	assert.Equal(t, "http://localhost:8000", cfg.Chat.ServerURL)

	_, err = os.Stat(filepath.Join(dir, "config.yaml"))
	assert.NoError(t, err)
}

func TestLoadFrom_ReadsFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `chat:
  server_url: http://backend:9000
  timeout: 5s
control:
  step_delay: 250ms
sync:
  listen_addr: ":9999"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, "http://backend:9000", cfg.Chat.ServerURL)
	assert.Equal(t, 5*time.Second, cfg.Chat.Timeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Control.StepDelay)
	assert.Equal(t, ":9999", cfg.Sync.ListenAddr)
	// untouched sections keep defaults
	assert.Equal(t, "Zy", cfg.Window.Title)
}

func TestLoadFrom_EnvOverride(t *testing.T) {
	t.Setenv("ZY_CHAT_SERVER_URL", "http://env:1")
	t.Setenv("ZY_CONTROL_STEP_DELAY", "1s")

	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "http://env:1", cfg.Chat.ServerURL)
	assert.Equal(t, time.Second, cfg.Control.StepDelay)
}

func TestSaveTo_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Model.Path = "/models/zy.vrm"
	cfg.Control.StepDelay = 1500 * time.Millisecond

	require.NoError(t, SaveTo(dir, cfg))
	got, err := LoadFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}
