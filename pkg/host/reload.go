package host

import (
	"fmt"

	"github.com/aretw0/vsm"
	"github.com/aretw0/vsm/pkg/domain"
)

// Reload replaces the graph of a registered machine. The new machine keeps
// the old position when its graph still has the current state, and restarts
// otherwise. A transition in flight is dropped.
func (m *Manager) Reload(name string, g *domain.Graph, opts ...vsm.Option) (*vsm.Machine, error) {
	next, err := vsm.New(g, append(m.defaults(name), opts...)...)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.machines[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrMachineNotFound, name)
	}

	next.Name = name
	m.observe(name, next)

	snap := old.Snapshot()
	kept := snap.Current != "" && next.Restore(snap)
	if !kept {
		next.Restart()
	}
	m.machines[name] = next

	if m.metrics != nil {
		m.metrics.Forget(name)
		m.metrics.Attach(name, next.Callbacks())
		m.metrics.SetCurrent(name, stateIDs(g), next.CurrentState())
	}
	m.logger.Info("machine reloaded", "machine", name, "state", next.CurrentState(), "kept", kept)
	return next, nil
}

func stateIDs(g *domain.Graph) []string {
	states := g.States()
	ids := make([]string, 0, len(states))
	for _, s := range states {
		ids = append(ids, s.ID)
	}
	return ids
}
