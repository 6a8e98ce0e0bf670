package observability_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/aretw0/vsm/internal/runtime"
	"github.com/aretw0/vsm/pkg/dsl"
	"github.com/aretw0/vsm/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Attach(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	b := dsl.New("Idle")
	b.State("Idle").On("go", "Moving")
	b.State("Moving").On("stop", "Idle")
	m := runtime.NewStateMachine(b.MustBuild())
	metrics.Attach("hero", m.Callbacks())

	m.Restart()
	m.TryTriggerByLabel("go")
	m.TryTriggerByLabel("stop")
	m.TryTriggerByLabel("go")
	m.TryTriggerByLabel("missing")

	expected := `
# HELP vsm_current_state 1 for the active state of each machine, 0 otherwise
# TYPE vsm_current_state gauge
vsm_current_state{machine="hero",state="Idle"} 0
vsm_current_state{machine="hero",state="Moving"} 1
# HELP vsm_state_enters_total Total number of state entries
# TYPE vsm_state_enters_total counter
vsm_state_enters_total{machine="hero",state="Idle"} 2
vsm_state_enters_total{machine="hero",state="Moving"} 2
# HELP vsm_transitions_triggered_total Total number of accepted transition triggers
# TYPE vsm_transitions_triggered_total counter
vsm_transitions_triggered_total{machine="hero",transition="Idle:go"} 2
vsm_transitions_triggered_total{machine="hero",transition="Moving:stop"} 1
`
	err = testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"vsm_current_state", "vsm_state_enters_total", "vsm_transitions_triggered_total")
	assert.NoError(t, err)

	series, err := testutil.GatherAndCount(reg, "vsm_transitions_completed_total")
	require.NoError(t, err)
	assert.Equal(t, 2, series)
}

func TestMetrics_SetCurrentAndForget(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	metrics.SetCurrent("door", []string{"Open", "Closed"}, "Closed")
	expected := `
# HELP vsm_current_state 1 for the active state of each machine, 0 otherwise
# TYPE vsm_current_state gauge
vsm_current_state{machine="door",state="Closed"} 1
vsm_current_state{machine="door",state="Open"} 0
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "vsm_current_state"))

	metrics.Forget("door")
	series, err := testutil.GatherAndCount(reg, "vsm_current_state")
	require.NoError(t, err)
	assert.Zero(t, series)
}

func TestMetrics_DoubleRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	_, err = observability.NewMetrics(reg)
	assert.Error(t, err)
}

func TestMetrics_CurrentStateWithoutExit(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	b := dsl.New("A")
	b.State("A").On("next", "B")
	b.State("B").On("next", "C")
	b.State("C")
	m := runtime.NewStateMachine(b.MustBuild())
	metrics.Attach("gate", m.Callbacks())

	assertCurrent := func(t *testing.T, a, bb, c int) {
		t.Helper()
		expected := fmt.Sprintf(`
# HELP vsm_current_state 1 for the active state of each machine, 0 otherwise
# TYPE vsm_current_state gauge
vsm_current_state{machine="gate",state="A"} %d
vsm_current_state{machine="gate",state="B"} %d
vsm_current_state{machine="gate",state="C"} %d
`, a, bb, c)
		assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "vsm_current_state"))
	}

	t.Run("Restart", func(t *testing.T) {
		m.Restart()
		require.True(t, m.TryTriggerByLabel("next"))
		require.True(t, m.TryTriggerByLabel("next"))
		m.Restart()
		assertCurrent(t, 1, 0, 0)
	})

	t.Run("Force enter", func(t *testing.T) {
		require.True(t, m.ForceEnterState("C"))
		assertCurrent(t, 0, 0, 1)
	})

	t.Run("Entry after a restore", func(t *testing.T) {
		metrics.SetCurrent("gate", []string{"A", "B", "C"}, "B")
		require.True(t, m.ForceEnterState("A"))
		assertCurrent(t, 1, 0, 0)
	})
}
