package vsm_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/vsm"
	"github.com/aretw0/vsm/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runScript(t *testing.T, script string, headless bool) (string, *vsm.Machine) {
	t.Helper()
	clk := clock.NewManual(250 * time.Millisecond)
	m, err := vsm.New(idleMoving().MustBuild(), vsm.WithClock(clk))
	require.NoError(t, err)

	var out bytes.Buffer
	r := vsm.NewRunner(strings.NewReader(script), &out, clk)
	r.Headless = headless
	require.NoError(t, r.Run(m))
	return out.String(), m
}

func TestRunner_Script(t *testing.T) {
	out, m := runScript(t, `
label go
label stop
tick 3
status
tick
status
quit
label go
`, true)

	assert.Equal(t, "Idle", m.CurrentState(), "commands after quit are not run")
	assert.Contains(t, out, "  enter Idle\n")
	assert.Contains(t, out, "  trigger Idle:go\n")
	assert.Contains(t, out, "current=Moving previous=Idle paused=false transition=Moving:stop 750ms/1s\n")
	assert.Contains(t, out, "  end Moving:stop\n")
	assert.Contains(t, out, "current=Idle previous=Moving paused=false\n")
	assert.NotContains(t, out, "Bye!")
}

func TestRunner_Commands(t *testing.T) {
	out, m := runScript(t, strings.Join([]string{
		"trigger nope",
		"state Moving",
		"pause",
		"label stop",
		"resume",
		"force Idle",
		"tick x",
		"tick 2 1s",
		"bogus",
		"force",
		"restart",
	}, "\n"), false)

	assert.Equal(t, "Idle", m.CurrentState())
	assert.False(t, m.HasPreviousState())
	assert.Contains(t, out, "--- vsm runner")
	assert.Contains(t, out, "[Idle]> ")
	assert.Contains(t, out, "[Moving paused]> ")
	assert.Equal(t, 2, strings.Count(out, "rejected\n"), "unknown trigger and paused label")
	assert.Contains(t, out, `invalid tick count "x"`)
	assert.Contains(t, out, `unknown command "bogus"`)
	assert.Contains(t, out, "usage: force <id>")
}

func TestRunner_RequiresIO(t *testing.T) {
	m, err := vsm.New(idleMoving().MustBuild())
	require.NoError(t, err)

	assert.Error(t, (&vsm.Runner{Output: &bytes.Buffer{}}).Run(m))
	assert.Error(t, (&vsm.Runner{Input: strings.NewReader("")}).Run(m))
}
