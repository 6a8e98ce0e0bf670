package domain_test

import (
	"testing"

	"github.com/aretw0/vsm/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestHandlers_RegistrationOrder(t *testing.T) {
	var h domain.Handlers[string]
	var got []string

	h.Subscribe(func(s string) { got = append(got, "first:"+s) })
	h.Subscribe(nil)
	h.Subscribe(func(s string) { got = append(got, "second:"+s) })

	h.Emit("x")

	assert.Equal(t, []string{"first:x", "second:x"}, got)
	assert.Equal(t, 2, h.Len())

	h.Clear()
	h.Emit("y")
	assert.Len(t, got, 2)
}

func TestHandlers_SubscribeDuringEmit(t *testing.T) {
	var h domain.Handlers[int]
	calls := 0
	h.Subscribe(func(int) {
		calls++
		h.Subscribe(func(int) { calls += 10 })
	})

	h.Emit(1)
	assert.Equal(t, 1, calls, "late subscriber must not run in the same emit")

	h.Emit(2)
	assert.Equal(t, 12, calls)
}

func TestLifecycleHooks_Register(t *testing.T) {
	var c domain.Callbacks
	var entered []string

	domain.LifecycleHooks{
		OnEnterState: func(s *domain.State) { entered = append(entered, s.ID) },
	}.Register(&c)

	c.EnterState.Emit(domain.NewState("a"))
	c.ExitState.Emit(domain.NewState("b"))

	assert.Equal(t, []string{"a"}, entered)
	assert.Equal(t, 0, c.TriggerTransition.Len())
}

func TestModes_Text(t *testing.T) {
	var tm domain.TimeMode
	assert.NoError(t, tm.UnmarshalText([]byte("Unscaled")))
	assert.Equal(t, domain.TimeModeUnscaled, tm)
	assert.Error(t, tm.UnmarshalText([]byte("warp")))

	var mode domain.TransitionMode
	assert.NoError(t, mode.UnmarshalText([]byte("locked")))
	assert.Equal(t, domain.TransitionModeLocked, mode)
	assert.NoError(t, mode.UnmarshalText(nil))
	assert.Equal(t, domain.TransitionModeDefault, mode)

	b, _ := domain.TransitionModeLocked.MarshalText()
	assert.Equal(t, "locked", string(b))
}
