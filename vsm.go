package vsm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/vsm/internal/logging"
	"github.com/aretw0/vsm/internal/runtime"
	"github.com/aretw0/vsm/pkg/clock"
	"github.com/aretw0/vsm/pkg/config"
	"github.com/aretw0/vsm/pkg/domain"
	"github.com/aretw0/vsm/pkg/ports"
)

// Machine is the high-level entry point for the library.
// It wraps the internal runtime and provides a simplified API for consumers.
//
// A Machine is not safe for concurrent use. Drive it from one goroutine, or
// register it with a host.Manager which serializes access.
type Machine struct {
	runtime *runtime.StateMachine
	logger  *slog.Logger
	hooks   []domain.LifecycleHooks
	mode    domain.TransitionMode
	clock   clock.Source
	strict  bool
	Name    string
}

// Option defines a functional option for configuring the Machine.
type Option func(*Machine)

// WithLifecycleHooks registers observability hooks. It may be given more than once.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Machine) {
		m.hooks = append(m.hooks, hooks)
	}
}

// WithLogger sets a custom structured logger for the machine.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) {
		m.logger = logger
	}
}

// WithTransitionMode sets the policy for triggers during a timed transition.
func WithTransitionMode(mode domain.TransitionMode) Option {
	return func(m *Machine) {
		m.mode = mode
	}
}

// WithConfig applies the process configuration.
func WithConfig(cfg config.Config) Option {
	return func(m *Machine) {
		m.mode = cfg.Mode()
	}
}

// WithClock sets the per-tick time source. Without it, timed transitions
// never advance.
func WithClock(src clock.Source) Option {
	return func(m *Machine) {
		m.clock = src
	}
}

// WithStrictGraph makes New reject graphs that fail Validate.
func WithStrictGraph() Option {
	return func(m *Machine) {
		m.strict = true
	}
}

// WithName labels the machine in logs and snapshots.
func WithName(name string) Option {
	return func(m *Machine) {
		m.Name = name
	}
}

// New initializes a Machine over g. The machine is not started; call Restart.
func New(g *domain.Graph, opts ...Option) (*Machine, error) {
	if g == nil {
		return nil, errors.New("graph is required")
	}

	m := &Machine{}
	for _, opt := range opts {
		opt(m)
	}

	if m.strict {
		if err := g.Validate(); err != nil {
			return nil, err
		}
	}

	if m.logger == nil {
		m.logger = logging.NewNop()
	}
	if m.Name != "" {
		m.logger = m.logger.With("machine", m.Name)
	}

	runtimeOpts := []runtime.Option{
		runtime.WithLogger(m.logger),
		runtime.WithTransitionMode(m.mode),
		runtime.WithClock(m.clock),
	}
	for _, h := range m.hooks {
		runtimeOpts = append(runtimeOpts, runtime.WithLifecycleHooks(h))
	}

	m.runtime = runtime.NewStateMachine(g, runtimeOpts...)
	return m, nil
}

// Load builds a graph with loader and initializes a Machine over it.
func Load(ctx context.Context, loader ports.GraphLoader, opts ...Option) (*Machine, error) {
	g, err := loader.LoadGraph(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load graph: %w", err)
	}
	return New(g, opts...)
}

// Graph returns the graph the machine runs.
func (m *Machine) Graph() *domain.Graph { return m.runtime.Graph() }

// Callbacks returns the machine-level notification points.
func (m *Machine) Callbacks() *domain.Callbacks { return m.runtime.Callbacks() }

// Logger returns the machine's logger.
func (m *Machine) Logger() *slog.Logger { return m.logger }

// Restart enters the entry state, abandoning any running transition.
func (m *Machine) Restart() bool { return m.runtime.Restart() }

// Start restarts the machine unless a state is already active.
func (m *Machine) Start() bool { return m.runtime.Start() }

// ForceEnterState enters a state without a transition.
func (m *Machine) ForceEnterState(id string) bool { return m.runtime.ForceEnterState(id) }

// Pause freezes ticks and triggers.
func (m *Machine) Pause() { m.runtime.Pause() }

// Resume unfreezes the machine.
func (m *Machine) Resume() { m.runtime.Resume() }

// Update advances the machine by one tick.
func (m *Machine) Update() { m.runtime.Update() }

// Trigger fires a transition by ID, logging a warning on failure.
func (m *Machine) Trigger(id string) { m.runtime.Trigger(id) }

// TryTrigger fires a transition by ID and reports whether it was accepted.
func (m *Machine) TryTrigger(id string) bool { return m.runtime.TryTrigger(id) }

// TriggerByLabel fires the best transition with the label, logging a warning on failure.
func (m *Machine) TriggerByLabel(label string) { m.runtime.TriggerByLabel(label) }

// TryTriggerByLabel fires the best transition with the label.
func (m *Machine) TryTriggerByLabel(label string) bool { return m.runtime.TryTriggerByLabel(label) }

// TriggerByState fires the best transition into the state, logging a warning on failure.
func (m *Machine) TriggerByState(id string) { m.runtime.TriggerByState(id) }

// TryTriggerByState fires the best transition into the state.
func (m *Machine) TryTriggerByState(id string) bool { return m.runtime.TryTriggerByState(id) }

// TriggerTransition fires a transition of this machine's graph.
func (m *Machine) TriggerTransition(t *domain.Transition) bool { return m.runtime.TriggerTransition(t) }

// CanTriggerTransitions reports whether a trigger would be accepted now.
func (m *Machine) CanTriggerTransitions() bool { return m.runtime.CanTriggerTransitions() }

// CurrentState returns the active state ID, or "".
func (m *Machine) CurrentState() string { return m.runtime.CurrentState() }

// PreviousState returns the previously active state ID, or "".
func (m *Machine) PreviousState() string { return m.runtime.PreviousState() }

// HasPreviousState reports whether the machine has left a state since restart.
func (m *Machine) HasPreviousState() bool { return m.runtime.HasPreviousState() }

// EntryState returns the graph's entry state ID.
func (m *Machine) EntryState() string { return m.runtime.EntryState() }

// IsPaused reports whether the machine is paused.
func (m *Machine) IsPaused() bool { return m.runtime.IsPaused() }

// IsTransitioning reports whether a timed transition is in flight.
func (m *Machine) IsTransitioning() bool { return m.runtime.Handler().IsRunning() }

// TransitionMode returns the configured transition policy.
func (m *Machine) TransitionMode() domain.TransitionMode { return m.runtime.TransitionMode() }

// Snapshot captures the machine position.
func (m *Machine) Snapshot() domain.Snapshot {
	s := m.runtime.Snapshot()
	s.Name = m.Name
	return s
}

// Restore moves the machine to a captured position without callbacks.
func (m *Machine) Restore(s domain.Snapshot) bool { return m.runtime.Restore(s) }
