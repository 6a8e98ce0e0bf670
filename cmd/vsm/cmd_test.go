package main

import (
	"bytes"
	"testing"

	"github.com/aretw0/vsm/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	good := testutils.WriteFile(t, dir, "door.yaml", "states:\n  - id: Closed\n    on: {open: Open}\n  - Open\n")
	bad := testutils.WriteFile(t, dir, "bad.yaml", "entry: Nowhere\nstates: [A]\n")

	out, err := execute(t, "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, "graph is valid")
	assert.NotContains(t, out, "warning")

	lonely := testutils.WriteFile(t, dir, "lonely.yaml", "entry: A\nstates: [A, B]\n")
	out, err = execute(t, "validate", lonely)
	require.NoError(t, err)
	assert.Contains(t, out, `warning: state "B" is unreachable from "A"`)

	out, err = execute(t, "validate", good, bad)
	assert.Error(t, err)
	assert.Contains(t, out, `entry state "Nowhere" does not exist`)

	out, err = execute(t, "graph", good, "--current", "Open")
	require.NoError(t, err)
	assert.Contains(t, out, "graph TD")
	assert.Contains(t, out, "class Open current")

	out, err = execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "vsm version dev")
}
