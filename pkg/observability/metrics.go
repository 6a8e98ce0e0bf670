package observability

import (
	"sync"

	"github.com/aretw0/vsm/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exports machine activity as Prometheus collectors.
type Metrics struct {
	triggered *prometheus.CounterVec
	completed *prometheus.CounterVec
	enters    *prometheus.CounterVec
	current   *prometheus.GaugeVec

	mu     sync.Mutex
	active map[string]string
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		active: make(map[string]string),
		triggered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vsm_transitions_triggered_total",
				Help: "Total number of accepted transition triggers",
			},
			[]string{"machine", "transition"},
		),
		completed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vsm_transitions_completed_total",
				Help: "Total number of transitions that reached their target",
			},
			[]string{"machine", "transition"},
		),
		enters: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vsm_state_enters_total",
				Help: "Total number of state entries",
			},
			[]string{"machine", "state"},
		),
		current: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "vsm_current_state",
				Help: "1 for the active state of each machine, 0 otherwise",
			},
			[]string{"machine", "state"},
		),
	}

	for _, c := range []prometheus.Collector{m.triggered, m.completed, m.enters, m.current} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Attach subscribes the collectors to a machine's callbacks.
func (m *Metrics) Attach(machine string, cb *domain.Callbacks) {
	domain.LifecycleHooks{
		OnTriggerTransition: func(t *domain.Transition) {
			m.triggered.WithLabelValues(machine, t.ID).Inc()
		},
		OnExitState: func(s *domain.State) {
			m.setActive(machine, s.ID, false)
		},
		OnExitTransition: func(t *domain.Transition) {
			m.completed.WithLabelValues(machine, t.ID).Inc()
		},
		OnEnterState: func(s *domain.State) {
			m.enters.WithLabelValues(machine, s.ID).Inc()
			m.setActive(machine, s.ID, true)
		},
	}.Register(cb)
}

// setActive moves the gauge of machine. Restart and forced entries skip the
// exit notification, so entering also clears whichever state was last active.
func (m *Metrics) setActive(machine, state string, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !active {
		m.current.WithLabelValues(machine, state).Set(0)
		if m.active[machine] == state {
			delete(m.active, machine)
		}
		return
	}
	if prev, ok := m.active[machine]; ok && prev != state {
		m.current.WithLabelValues(machine, prev).Set(0)
	}
	m.active[machine] = state
	m.current.WithLabelValues(machine, state).Set(1)
}

// SetCurrent overwrites the gauge for a machine whose state changed without
// callbacks, e.g. after a snapshot restore.
func (m *Metrics) SetCurrent(machine string, states []string, current string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if current == "" {
		delete(m.active, machine)
	} else {
		m.active[machine] = current
	}
	for _, s := range states {
		v := 0.0
		if s == current {
			v = 1
		}
		m.current.WithLabelValues(machine, s).Set(v)
	}
}

// Forget drops every series of a machine.
func (m *Metrics) Forget(machine string) {
	m.mu.Lock()
	delete(m.active, machine)
	m.mu.Unlock()

	labels := prometheus.Labels{"machine": machine}
	m.triggered.DeletePartialMatch(labels)
	m.completed.DeletePartialMatch(labels)
	m.enters.DeletePartialMatch(labels)
	m.current.DeletePartialMatch(labels)
}
