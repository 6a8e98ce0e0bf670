package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/vsm/internal/testutils"
	"github.com/aretw0/vsm/pkg/adapters/file"
	"github.com/aretw0/vsm/pkg/domain"
	"github.com/aretw0/vsm/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ ports.GraphLoader = (*file.Loader)(nil)
	_ ports.Watchable   = (*file.Loader)(nil)
)

const patrolYAML = `
name: guard
entry: Idle
any_state: any
states:
  - id: Idle
    on:
      go: Moving
      alert: Chasing
  - Moving
  - Chasing
transitions:
  - id: stop
    from: Moving
    to: Idle
    label: stop
    duration: 1.5s
  - id: calm
    from: Chasing
    to: Idle
    duration: 2
    time_mode: unscaled
  - from: any
    to: Idle
    label: reset
`

func TestLoader_YAML(t *testing.T) {
	loader := file.NewLoader(testutils.TempFile(t, "patrol.yaml", patrolYAML))

	def, err := loader.LoadDefinition(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "guard", def.Name)

	g, err := loader.LoadGraph(context.Background())
	require.NoError(t, err)
	require.NoError(t, g.Validate())

	assert.Equal(t, "Idle", g.EntryStateID)
	assert.True(t, g.IsAnyState("any"))

	var ids []string
	for _, tr := range g.Transitions() {
		ids = append(ids, tr.ID)
	}
	assert.Equal(t, []string{"Idle:alert", "Idle:go", "stop", "calm", "any->Idle"}, ids)

	stop, _ := g.TryGetTransition("stop")
	assert.Equal(t, 1500*time.Millisecond, stop.Duration)
	assert.Equal(t, domain.TimeModeScaled, stop.TimeMode)

	calm, _ := g.TryGetTransition("calm")
	assert.Equal(t, 2*time.Second, calm.Duration)
	assert.Equal(t, domain.TimeModeUnscaled, calm.TimeMode)

	reset, _ := g.TryGetTransition("any->Idle")
	assert.Equal(t, "reset", reset.Label)
}

func TestLoader_JSON(t *testing.T) {
	path := testutils.TempFile(t, "door.json", `{
		"states": [{"id": "Closed", "on": {"open": "Open"}}, {"id": "Open"}],
		"transitions": [{"id": "shut", "from": "Open", "to": "Closed", "duration": 0.25}]
	}`)
	loader := file.NewLoader(path)

	def, err := loader.LoadDefinition(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "door", def.Name, "name falls back to the file name")

	g, err := loader.LoadGraph(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Closed", g.EntryStateID, "entry falls back to the first state")

	shut, ok := g.TryGetTransition("shut")
	require.True(t, ok)
	assert.Equal(t, 250*time.Millisecond, shut.Duration)
}

func TestLoader_ParallelTransitions(t *testing.T) {
	path := testutils.TempFile(t, "pair.yaml", `
states: [A, B]
transitions:
  - {from: A, to: B, label: go}
  - {from: A, to: B, label: run, duration: 2s}
  - {from: A, to: B, label: go}
  - {id: "A->B:run", from: B, to: A}
`)

	g, err := file.NewLoader(path).LoadGraph(context.Background())
	require.NoError(t, err)

	var ids []string
	for _, tr := range g.Transitions() {
		ids = append(ids, tr.ID)
	}
	assert.Equal(t, []string{"A->B", "A->B:run#1", "A->B:go", "A->B:run"}, ids)

	first, _ := g.TryGetTransition("A->B")
	assert.Equal(t, "go", first.Label)
	assert.Zero(t, first.Duration)

	second, _ := g.TryGetTransition("A->B:run#1")
	assert.Equal(t, "run", second.Label)
	assert.Equal(t, 2*time.Second, second.Duration)

	explicit, _ := g.TryGetTransition("A->B:run")
	assert.Equal(t, "B", explicit.OriginID)
}

func TestLoader_DuplicateTransitionIDs(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"Repeated explicit ID", `
states: [A, B]
transitions:
  - {id: x, from: A, to: B, label: one}
  - {id: x, from: B, to: A, label: two}
`},
		{"Explicit ID matches a nested one", `
states:
  - id: A
    on: {go: B}
  - B
transitions:
  - {id: "A:go", from: B, to: A}
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := file.NewLoader(testutils.TempFile(t, "dup.yaml", tt.content)).LoadGraph(context.Background())
			assert.ErrorIs(t, err, domain.ErrDuplicateID)
		})
	}
}

func TestLoader_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		errMsg  string
	}{
		{"Malformed yaml", "a.yaml", "states: [", "failed to parse yaml"},
		{"Malformed json", "a.json", "{", "failed to parse json"},
		{"Unknown key", "a.yaml", "colour: blue\n", "colour"},
		{"Bad time mode", "a.yaml", "states: [A]\ntransitions:\n  - {id: t, from: A, to: A, time_mode: sideways}\n", "sideways"},
		{"Bad duration", "a.yaml", "states: [A]\ntransitions:\n  - {id: t, from: A, to: A, duration: soon}\n", "soon"},
		{"Duplicate state", "a.yaml", "states: [A, A]\n", "duplicate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := file.NewLoader(testutils.TempFile(t, tt.file, tt.content)).LoadGraph(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	t.Run("Missing file", func(t *testing.T) {
		_, err := file.NewLoader(filepath.Join(t.TempDir(), "none.yaml")).LoadGraph(context.Background())
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestLoader_Watch(t *testing.T) {
	path := testutils.TempFile(t, "live.yaml", "states: [A]\n")
	loader := file.NewLoader(path, file.WithDebounce(20*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := loader.Watch(ctx)
	require.NoError(t, err)

	// Unrelated files in the same directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "other.yaml"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("states: [A, B]\n"), 0o644))

	select {
	case <-changes:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a change notification")
	}

	g, err := loader.LoadGraph(ctx)
	require.NoError(t, err)
	assert.True(t, g.HasState("B"))

	cancel()
	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-changes:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond, "channel closes when the context ends")
}
