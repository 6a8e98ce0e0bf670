package dsl

import (
	"time"

	"github.com/aretw0/vsm/pkg/domain"
)

// StateBuilder provides a fluent API for configuring a state.
type StateBuilder struct {
	state   *domain.State
	builder *Builder
}

// OnEnter subscribes fn to the state's enter notification.
func (s *StateBuilder) OnEnter(fn func(*domain.State)) *StateBuilder {
	s.state.OnEnter.Subscribe(fn)
	return s
}

// OnExit subscribes fn to the state's exit notification.
func (s *StateBuilder) OnExit(fn func(*domain.State)) *StateBuilder {
	s.state.OnExit.Subscribe(fn)
	return s
}

// OnUpdate subscribes fn to the state's per-tick notification.
func (s *StateBuilder) OnUpdate(fn func(*domain.State)) *StateBuilder {
	s.state.OnUpdate.Subscribe(fn)
	return s
}

// On adds a labelled transition from this state to target.
// The transition ID is "<state>:<label>".
func (s *StateBuilder) On(label, target string) *TransitionBuilder {
	return s.builder.Transition(s.state.ID + ":" + label).
		From(s.state.ID).
		To(target).
		Label(label)
}

// Go adds an unlabelled transition from this state to target.
// The transition ID is "<state>-><target>".
func (s *StateBuilder) Go(target string) *TransitionBuilder {
	return s.builder.Transition(s.state.ID + "->" + target).
		From(s.state.ID).
		To(target)
}

// Build returns the underlying domain.State.
func (s *StateBuilder) Build() *domain.State {
	return s.state
}

func (s *StateBuilder) build() domain.Node { return s.state }

// TransitionBuilder provides a fluent API for configuring a transition.
type TransitionBuilder struct {
	transition *domain.Transition
	builder    *Builder
}

// From sets the origin node.
func (t *TransitionBuilder) From(origin string) *TransitionBuilder {
	t.transition.OriginID = origin
	return t
}

// To sets the target state.
func (t *TransitionBuilder) To(target string) *TransitionBuilder {
	t.transition.TargetID = target
	return t
}

// Label sets the trigger label.
func (t *TransitionBuilder) Label(label string) *TransitionBuilder {
	t.transition.Label = label
	return t
}

// Duration makes the transition timed.
func (t *TransitionBuilder) Duration(d time.Duration) *TransitionBuilder {
	t.transition.Duration = d
	return t
}

// Unscaled makes a timed transition ignore the time scale.
func (t *TransitionBuilder) Unscaled() *TransitionBuilder {
	t.transition.TimeMode = domain.TimeModeUnscaled
	return t
}

// OnEnter subscribes fn to the transition's enter notification.
func (t *TransitionBuilder) OnEnter(fn func(*domain.Transition)) *TransitionBuilder {
	t.transition.OnEnter.Subscribe(fn)
	return t
}

// OnExit subscribes fn to the transition's exit notification.
func (t *TransitionBuilder) OnExit(fn func(*domain.Transition)) *TransitionBuilder {
	t.transition.OnExit.Subscribe(fn)
	return t
}

// Build returns the underlying domain.Transition.
func (t *TransitionBuilder) Build() *domain.Transition {
	return t.transition
}
