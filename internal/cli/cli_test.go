package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/vsm"
	"github.com/aretw0/vsm/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const doorYAML = `
name: door
entry: Closed
states:
  - id: Closed
    on:
      open: Open
  - id: Open
    on:
      close: Closed
`

func TestExecute(t *testing.T) {
	path := testutils.WriteFile(t, t.TempDir(), "door.yaml", doorYAML)

	var out bytes.Buffer
	err := Execute(context.Background(), RunOptions{
		Path:     path,
		Headless: true,
		In:       strings.NewReader("label open\nlabel open\nquit\n"),
		Out:      &out,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "  enter Open")
	assert.Contains(t, out.String(), "rejected")
	assert.NotContains(t, out.String(), "Finished", "headless runs print no system messages")

	err = Execute(context.Background(), RunOptions{In: strings.NewReader(""), Out: &out})
	assert.Error(t, err)
}

func TestExecute_TransitionMode(t *testing.T) {
	dir := t.TempDir()
	path := testutils.WriteFile(t, dir, "gate.yaml", `
states: [Closed, Open]
transitions:
  - {from: Closed, to: Open, label: open, duration: 1s}
  - {from: Closed, to: Open, label: slam}
`)
	lockedConfig := testutils.WriteFile(t, dir, "locked.yaml", "transition_mode: locked\n")

	tests := []struct {
		name     string
		config   string
		env      string
		locked   bool
		rejected bool
	}{
		{"Default", "", "", false, false},
		{"Config file", lockedConfig, "", false, true},
		{"Environment", "", "locked", false, true},
		{"Flag overrides config", "", "default", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("VSM_TRANSITION_MODE", tt.env)

			var out bytes.Buffer
			err := Execute(context.Background(), RunOptions{
				Path:       path,
				ConfigPath: tt.config,
				Locked:     tt.locked,
				Headless:   true,
				In:         strings.NewReader("label open\nlabel slam\nquit\n"),
				Out:        &out,
			})
			require.NoError(t, err)
			if tt.rejected {
				assert.Contains(t, out.String(), "rejected")
			} else {
				assert.NotContains(t, out.String(), "rejected")
			}
		})
	}

	t.Run("Invalid config", func(t *testing.T) {
		bad := testutils.WriteFile(t, dir, "bad.yaml", "transition_mode: sideways\n")
		err := Execute(context.Background(), RunOptions{
			Path:       path,
			ConfigPath: bad,
			In:         strings.NewReader(""),
			Out:        &bytes.Buffer{},
		})
		assert.ErrorContains(t, err, "failed to load config")
	})
}

func TestExecute_Session(t *testing.T) {
	dir := t.TempDir()
	path := testutils.WriteFile(t, dir, "door.yaml", doorYAML)
	sessions := filepath.Join(dir, "sessions")

	run := func(input string, fresh bool) string {
		var out bytes.Buffer
		err := Execute(context.Background(), RunOptions{
			Path:       path,
			SessionID:  "s1",
			SessionDir: sessions,
			Fresh:      fresh,
			In:         strings.NewReader(input),
			Out:        &out,
		})
		require.NoError(t, err)
		return out.String()
	}

	out := run("label open\n", false)
	assert.Contains(t, out, "Session 's1' active.")
	assert.Contains(t, out, "Finished at 'Open' state.")
	assert.FileExists(t, filepath.Join(sessions, "s1.json"))

	out = run("", false)
	assert.Contains(t, out, "Resuming at 'Open' state...")
	assert.Contains(t, out, "Finished at 'Open' state.")

	out = run("", true)
	assert.Contains(t, out, "Session 's1' active.")
	assert.Contains(t, out, "Finished at 'Closed' state.")

	// The saved state disappears from the graph.
	run("label open\n", false)
	testutils.WriteFile(t, dir, "door.yaml", "entry: Closed\nstates: [Closed]\n")
	out = run("", false)
	assert.Contains(t, out, "State 'Open' no longer exists, starting over.")
	assert.Contains(t, out, "Finished at 'Closed' state.")
}

func TestApp_MCP(t *testing.T) {
	app, err := NewApp(context.Background(), ServeOptions{
		Paths: []string{testutils.WriteFile(t, t.TempDir(), "door.yaml", doorYAML)},
	})
	require.NoError(t, err)
	defer app.Close()

	req := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"trigger","arguments":{"machine":"door","label":"open"}}}`
	resp := app.MCP().MCPServer().HandleMessage(context.Background(), []byte(req))
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"triggered":true`)

	snap, err := app.Manager.Snapshot("door")
	require.NoError(t, err)
	assert.Equal(t, "Open", snap.Current)
}

func TestApp_FileStore(t *testing.T) {
	dir := t.TempDir()
	opts := ServeOptions{
		Paths: []string{
			testutils.WriteFile(t, dir, "door.yaml", doorYAML),
			testutils.WriteFile(t, dir, "lamp.yaml", "entry: Off\nstates:\n  - id: Off\n    on: {toggle: On}\n  - id: On\n"),
		},
		StateDir: filepath.Join(dir, "state"),
	}

	app, err := NewApp(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"door", "lamp"}, app.Manager.Names())

	require.NoError(t, app.Manager.Do("lamp", func(m *vsm.Machine) error {
		assert.True(t, m.TryTriggerByLabel("toggle"))
		return nil
	}))
	require.NoError(t, app.Close())

	again, err := NewApp(context.Background(), opts)
	require.NoError(t, err)
	defer again.Close()

	lamp, err := again.Manager.Snapshot("lamp")
	require.NoError(t, err)
	assert.Equal(t, "On", lamp.Current)

	door, err := again.Manager.Snapshot("door")
	require.NoError(t, err)
	assert.Equal(t, "Closed", door.Current)
}

func TestApp_EncryptedStore(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("VSM_ENCRYPTION_KEY", base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32)))
	opts := ServeOptions{
		Paths:    []string{testutils.WriteFile(t, dir, "door.yaml", doorYAML)},
		StateDir: filepath.Join(dir, "state"),
	}

	app, err := NewApp(context.Background(), opts)
	require.NoError(t, err)
	require.NoError(t, app.Manager.Do("door", func(m *vsm.Machine) error {
		m.TriggerByLabel("open")
		return nil
	}))
	require.NoError(t, app.Close())

	raw, err := os.ReadFile(filepath.Join(dir, "state", "door.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"sealed"`)
	assert.NotContains(t, string(raw), "Open")

	again, err := NewApp(context.Background(), opts)
	require.NoError(t, err)
	defer again.Close()
	snap, err := again.Manager.Snapshot("door")
	require.NoError(t, err)
	assert.Equal(t, "Open", snap.Current)

	t.Setenv("VSM_ENCRYPTION_KEY", base64.StdEncoding.EncodeToString([]byte("short")))
	_, err = NewApp(context.Background(), opts)
	assert.Error(t, err)
}

func TestApp_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := NewApp(context.Background(), ServeOptions{})
	assert.Error(t, err)

	door := testutils.WriteFile(t, dir, "door.yaml", doorYAML)
	_, err = NewApp(context.Background(), ServeOptions{Paths: []string{door, door}})
	assert.Error(t, err, "duplicate machine names")

	broken := testutils.WriteFile(t, dir, "broken.yaml", "states: [A\n")
	_, err = NewApp(context.Background(), ServeOptions{Paths: []string{broken}})
	assert.Error(t, err)
}

func TestApp_Watch(t *testing.T) {
	dir := t.TempDir()
	path := testutils.WriteFile(t, dir, "door.yaml", doorYAML)

	app, err := NewApp(context.Background(), ServeOptions{Paths: []string{path}})
	require.NoError(t, err)
	defer app.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, app.Watch(ctx))

	// A broken edit keeps the running machine.
	testutils.WriteFile(t, dir, "door.yaml", "states: [")
	time.Sleep(300 * time.Millisecond)
	snap, err := app.Manager.Snapshot("door")
	require.NoError(t, err)
	assert.Equal(t, "Closed", snap.Current)

	testutils.WriteFile(t, dir, "door.yaml", doorYAML+"  - id: Jammed\n")
	assert.Eventually(t, func() bool {
		found := false
		_ = app.Manager.Do("door", func(m *vsm.Machine) error {
			found = m.Graph().HasState("Jammed")
			return nil
		})
		return found
	}, 3*time.Second, 20*time.Millisecond)
}
