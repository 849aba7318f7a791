package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChinaCraig/Zy/internal/posesync"
)

const testModel = `{
	"asset": {"version": "2.0"},
	"nodes": [{"name": "J_Bip_C_Hips"}, {"name": "J_Bip_C_Head"}],
	"extensions": {
		"VRMC_vrm": {
			"specVersion": "1.0",
			"humanoid": {"humanBones": {"hips": {"node": 0}, "head": {"node": 1}}}
		}
	}
}`

// setupConfig writes a model and a config directory pointing at it.
func setupConfig(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()

	model := filepath.Join(dir, "avatar.gltf")
	require.NoError(t, os.WriteFile(model, []byte(testModel), 0644))

	cfgDir := filepath.Join(dir, "conf")
	require.NoError(t, os.MkdirAll(cfgDir, 0755))
	cfg := fmt.Sprintf(`chat:
  server_url: http://127.0.0.1:1
  timeout: 200ms
model:
  path: %q
  watch: false
control:
  step_delay: 1ms
sync:
  listen_addr: 127.0.0.1:0
log:
  dir: %q
  level: warn
  console: false
`, model, filepath.Join(dir, "logs"))
	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, "config.yaml"), []byte(cfg), 0644))
	return cfgDir, model
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestJoints_ListsModelJoints(t *testing.T) {
	cfgDir, model := setupConfig(t)

	out, err := run(t, "--config", cfgDir, "joints", model)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.True(t, strings.HasPrefix(lines[1], "hips"))
	assert.True(t, strings.HasPrefix(lines[2], "head"))
}

func TestJoints_DefaultsToConfiguredModel(t *testing.T) {
	cfgDir, _ := setupConfig(t)

	out, err := run(t, "--config", cfgDir, "joints")
	require.NoError(t, err)
	assert.Contains(t, out, "head")
}

func TestJoints_MissingModel(t *testing.T) {
	cfgDir, _ := setupConfig(t)

	_, err := run(t, "--config", cfgDir, "joints", filepath.Join(t.TempDir(), "nope.vrm"))
	assert.Error(t, err)
}

func TestInterpret_CommandAndChat(t *testing.T) {
	cfgDir, _ := setupConfig(t)

	out, err := run(t, "--config", cfgDir, "interpret", "低头", "今天天气怎么样")
	require.NoError(t, err)

	assert.Contains(t, out, "低头\t好的，我低下头了")
	assert.Contains(t, out, "  head\t")
	assert.Contains(t, out, "今天天气怎么样\t(chat)")
}

func TestServe_StateAndWebsocket(t *testing.T) {
	cfgDir, _ := setupConfig(t)

	c := &cli{configDir: cfgDir, out: &bytes.Buffer{}}
	require.NoError(t, c.init(true))
	t.Cleanup(func() { _ = c.syslog.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan string, 1)
	errc := make(chan error, 1)
	go func() { errc <- c.serve(ctx, ready) }()

	var addr string
	select {
	case addr = <-ready:
	case err := <-errc:
		t.Fatalf("serve exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	resp, err := http.Get("http://" + addr + "/state")
	require.NoError(t, err)
	var state struct {
		Loaded bool `json:"loaded"`
		Joints []struct {
			ID string `json:"id"`
		} `json:"joints"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	resp.Body.Close()
	assert.True(t, state.Loaded)
	assert.Len(t, state.Joints, 2)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var first posesync.Message
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, posesync.TypeSnapshot, first.Type)

	resp, err = http.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}
