// Package host runs many state machines on one shared clock.
//
// A Manager owns a clock.Frame, a registry of named machines and an optional
// snapshot store. Every access to a machine goes through the manager's mutex,
// so HTTP handlers, CLI commands and the tick loop may run on different
// goroutines while each machine still sees a single logical thread.
package host

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/vsm"
	"github.com/aretw0/vsm/internal/logging"
	"github.com/aretw0/vsm/pkg/clock"
	"github.com/aretw0/vsm/pkg/config"
	"github.com/aretw0/vsm/pkg/domain"
	"github.com/aretw0/vsm/pkg/observability"
	"github.com/aretw0/vsm/pkg/ports"
	"github.com/google/uuid"
)

// checkpointLockTTL bounds how long a crashed host can hold the checkpoint lock.
const checkpointLockTTL = 30 * time.Second

// Manager hosts named machines.
type Manager struct {
	mu       sync.Mutex
	frame    *clock.Frame
	machines map[string]*vsm.Machine
	order    []string
	ticks    uint64

	cfg     *config.Config
	logger  *slog.Logger
	store   ports.SnapshotStore
	locker  ports.Locker
	metrics *observability.Metrics
	watch   watchers
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger for the manager and for machines it creates.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithConfig applies the process configuration: transition mode for created
// machines and the initial time scale.
func WithConfig(cfg config.Config) Option {
	return func(m *Manager) {
		m.cfg = &cfg
		m.frame.SetScale(cfg.TimeScale)
	}
}

// WithStore enables Checkpoint and Resume.
func WithStore(store ports.SnapshotStore) Option {
	return func(m *Manager) {
		m.store = store
	}
}

// WithLocker makes Checkpoint hold a cross-process lock while writing.
func WithLocker(locker ports.Locker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithMetrics attaches metrics to every registered machine.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// New creates an empty manager.
func New(opts ...Option) *Manager {
	m := &Manager{
		frame:    clock.NewFrame(),
		machines: make(map[string]*vsm.Machine),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Frame returns the shared clock. Machines registered with Register must
// have been created with vsm.WithClock(m.Frame()) to see time pass.
func (m *Manager) Frame() *clock.Frame { return m.frame }

// Logger returns the manager's logger.
func (m *Manager) Logger() *slog.Logger { return m.logger }

// Ticks returns how many ticks have run.
func (m *Manager) Ticks() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ticks
}

// Create builds a machine on the shared clock and registers it.
// opts are applied after the manager's defaults.
func (m *Manager) Create(name string, g *domain.Graph, opts ...vsm.Option) (*vsm.Machine, error) {
	if name == "" {
		name = uuid.NewString()
	}

	machine, err := vsm.New(g, append(m.defaults(name), opts...)...)
	if err != nil {
		return nil, err
	}
	if _, err := m.Register(name, machine); err != nil {
		return nil, err
	}
	return machine, nil
}

func (m *Manager) defaults(name string) []vsm.Option {
	base := []vsm.Option{
		vsm.WithClock(m.frame),
		vsm.WithLogger(m.logger),
		vsm.WithName(name),
	}
	if m.cfg != nil {
		base = append(base, vsm.WithConfig(*m.cfg))
	}
	return base
}

// Register adds a machine under name and returns the name used.
// An empty name gets a random one. The machine's Name is set to match.
func (m *Manager) Register(name string, machine *vsm.Machine) (string, error) {
	if machine == nil {
		return "", errors.New("machine is required")
	}
	if name == "" {
		name = machine.Name
	}
	if name == "" {
		name = uuid.NewString()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.machines[name]; exists {
		return "", fmt.Errorf("machine %q: %w", name, domain.ErrDuplicateID)
	}
	machine.Name = name
	m.machines[name] = machine
	m.order = append(m.order, name)

	m.observe(name, machine)
	if m.metrics != nil {
		m.metrics.Attach(name, machine.Callbacks())
	}
	m.logger.Debug("machine registered", "machine", name)
	return name, nil
}

// Remove unregisters a machine.
func (m *Manager) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.machines[name]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrMachineNotFound, name)
	}
	delete(m.machines, name)
	m.order = slices.DeleteFunc(m.order, func(n string) bool { return n == name })

	if m.metrics != nil {
		m.metrics.Forget(name)
	}
	return nil
}

// Names returns registered names in registration order.
func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.order)
}

// Get returns a registered machine. The caller must not use it concurrently
// with the tick loop; prefer Do.
func (m *Manager) Get(name string) (*vsm.Machine, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	machine, ok := m.machines[name]
	return machine, ok
}

// Do runs fn with exclusive access to the named machine.
func (m *Manager) Do(name string, fn func(*vsm.Machine) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	machine, ok := m.machines[name]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrMachineNotFound, name)
	}
	return fn(machine)
}

// Snapshot captures one machine.
func (m *Manager) Snapshot(name string) (domain.Snapshot, error) {
	var snap domain.Snapshot
	err := m.Do(name, func(machine *vsm.Machine) error {
		snap = machine.Snapshot()
		return nil
	})
	return snap, err
}

// Snapshots captures every machine in registration order.
func (m *Manager) Snapshots() []domain.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snaps := make([]domain.Snapshot, 0, len(m.order))
	for _, name := range m.order {
		snaps = append(snaps, m.machines[name].Snapshot())
	}
	return snaps
}

// StartAll restarts every machine that has no active state.
func (m *Manager) StartAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, name := range m.order {
		m.machines[name].Start()
	}
}
