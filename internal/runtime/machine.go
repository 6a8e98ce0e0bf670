package runtime

import (
	"log/slog"

	"github.com/aretw0/vsm/internal/logging"
	"github.com/aretw0/vsm/pkg/clock"
	"github.com/aretw0/vsm/pkg/domain"
)

// StateMachine runs one graph. It is not safe for concurrent use: every call,
// including Update, must come from the single logical thread that drives ticks.
type StateMachine struct {
	graph     *domain.Graph
	mode      domain.TransitionMode
	clock     clock.Source
	logger    *slog.Logger
	callbacks domain.Callbacks

	current  string
	previous string
	paused   bool

	// loopOrigin is the origin of the outermost trigger on the call stack.
	loopOrigin string

	handler *TransitionHandler
}

// Option configures a StateMachine.
type Option func(*StateMachine)

// WithTransitionMode sets the policy for triggers during a timed transition.
func WithTransitionMode(mode domain.TransitionMode) Option {
	return func(m *StateMachine) {
		m.mode = mode
	}
}

// WithClock sets the per-tick time source.
func WithClock(src clock.Source) Option {
	return func(m *StateMachine) {
		if src != nil {
			m.clock = src
		}
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(m *StateMachine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithLifecycleHooks subscribes a bundle of hooks to the machine callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(m *StateMachine) {
		hooks.Register(&m.callbacks)
	}
}

// NewStateMachine creates an uninitialized machine over g.
// Call Restart (or Start) to enter the entry state.
func NewStateMachine(g *domain.Graph, opts ...Option) *StateMachine {
	m := &StateMachine{
		graph:  g,
		clock:  clock.Stopped,
		logger: logging.NewNop(),
	}
	m.handler = newTransitionHandler(m)

	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Graph returns the graph the machine runs.
func (m *StateMachine) Graph() *domain.Graph { return m.graph }

// Callbacks returns the machine-level notification points for subscription.
func (m *StateMachine) Callbacks() *domain.Callbacks { return &m.callbacks }

// CurrentState returns the active state ID, or "" when none is active.
func (m *StateMachine) CurrentState() string { return m.current }

// PreviousState returns the ID of the state active before the current one.
func (m *StateMachine) PreviousState() string { return m.previous }

// HasPreviousState reports whether the machine has changed states since restart.
func (m *StateMachine) HasPreviousState() bool { return m.previous != "" }

// EntryState returns the graph's entry state ID.
func (m *StateMachine) EntryState() string { return m.graph.EntryStateID }

// IsPaused reports whether the machine is paused.
func (m *StateMachine) IsPaused() bool { return m.paused }

// TransitionMode returns the configured transition policy.
func (m *StateMachine) TransitionMode() domain.TransitionMode { return m.mode }

// Handler returns the transition handler, for introspection.
func (m *StateMachine) Handler() *TransitionHandler { return m.handler }

// Start restarts the machine unless a state is already active.
func (m *StateMachine) Start() bool {
	if m.current != "" {
		return true
	}
	return m.Restart()
}

// Restart enters the entry state. The current state is not exited and any
// running transition is abandoned. Restart also clears the pause flag.
// It returns false when the entry state does not resolve.
func (m *StateMachine) Restart() bool {
	m.paused = false
	m.handler.Stop()

	m.previous = ""
	m.current = ""

	state, ok := m.graph.TryGetState(m.graph.EntryStateID)
	if !ok {
		m.logger.Warn("could not start state machine, no entry state resolves",
			"entry", m.graph.EntryStateID)
		return false
	}

	m.current = state.ID
	m.enterState(state)
	return true
}

// ForceEnterState enters the given state without a transition.
// The current state is not exited.
func (m *StateMachine) ForceEnterState(id string) bool {
	state, ok := m.graph.TryGetState(id)
	if !ok {
		m.logger.Warn("failed to enter state, no state with this id", "state", id)
		return false
	}

	m.previous = m.current
	m.current = state.ID
	m.enterState(state)
	return true
}

// Pause freezes the machine: no ticks, no triggers.
func (m *StateMachine) Pause() {
	m.paused = true
}

// Resume unfreezes the machine. A running transition continues where its
// timer stopped.
func (m *StateMachine) Resume() {
	m.paused = false
}

// Update advances the machine by one tick. The running transition is updated
// first, then the active state's update hook fires (even while a timed
// transition is pending).
func (m *StateMachine) Update() {
	if m.paused {
		return
	}

	m.handler.Update(m.clock)

	if m.current == "" {
		return
	}
	if state, ok := m.graph.TryGetState(m.current); ok {
		state.OnUpdate.Emit(state)
	}
}

// CanTriggerTransitions reports whether a trigger would be accepted now.
func (m *StateMachine) CanTriggerTransitions() bool {
	if m.paused {
		return false
	}
	if m.mode == domain.TransitionModeLocked && m.handler.IsRunning() {
		return false
	}
	return true
}

// Snapshot captures the machine position.
func (m *StateMachine) Snapshot() domain.Snapshot {
	s := domain.Snapshot{
		Current:  m.current,
		Previous: m.previous,
		Paused:   m.paused,
	}
	if t := m.handler.Transition(); t != nil {
		s.Transition = t.ID
		s.Elapsed, s.Duration = m.handler.Progress()
	}
	return s
}

// Restore moves the machine to a captured position without firing callbacks.
// A transition that was in flight when the snapshot was taken is not resumed.
func (m *StateMachine) Restore(s domain.Snapshot) bool {
	if s.Current != "" && !m.graph.HasState(s.Current) {
		m.logger.Warn("failed to restore snapshot, unknown state", "state", s.Current)
		return false
	}
	m.handler.Stop()
	m.current = s.Current
	m.previous = s.Previous
	m.paused = s.Paused
	if s.Transitioning() {
		m.logger.Debug("snapshot transition abandoned on restore", "transition", s.Transition)
	}
	return true
}

func (m *StateMachine) enterState(state *domain.State) {
	m.callbacks.EnterState.Emit(state)
	state.OnEnter.Emit(state)
}

func (m *StateMachine) exitState(state *domain.State) {
	m.callbacks.ExitState.Emit(state)
	state.OnExit.Emit(state)
}

// beginTransition implements transitionSteps.
func (m *StateMachine) beginTransition(t *domain.Transition) {
	m.exitOrigin(t)
	m.callbacks.EnterTransition.Emit(t)
	t.OnEnter.Emit(t)
}

// completeTransition implements transitionSteps.
func (m *StateMachine) completeTransition(t *domain.Transition) {
	m.callbacks.ExitTransition.Emit(t)
	t.OnExit.Emit(t)
	m.enterTarget(t)
}

// exitOrigin exits the state the transition leaves. For a wildcard origin
// that is the current state.
func (m *StateMachine) exitOrigin(t *domain.Transition) {
	node, ok := m.graph.TryGetNode(t.OriginID)
	if !ok {
		return
	}

	switch n := node.(type) {
	case *domain.State:
		if n.ID != m.current {
			m.logger.Error("transition origin is not the current state",
				"transition", t.ID, "origin", t.OriginID, "current", m.current)
			return
		}
		m.exitState(n)
	case *domain.AnyState:
		if state, ok := m.graph.TryGetState(m.current); ok {
			m.exitState(state)
		}
	}
}

func (m *StateMachine) enterTarget(t *domain.Transition) {
	state, ok := m.graph.TryGetState(t.TargetID)
	if !ok {
		m.logger.Warn("transition target is not a state", "transition", t.ID, "target", t.TargetID)
		return
	}

	m.previous = m.current
	m.current = state.ID
	m.enterState(state)
}
