package host

import (
	"errors"
	"fmt"
	"sync"

	"github.com/aretw0/vsm"
	"github.com/aretw0/vsm/pkg/domain"
)

// Watcher receives a machine snapshot after every state entry and every
// transition start. It runs on the goroutine that drove the machine, with
// the manager lock held, so it must not call back into the Manager.
type Watcher func(domain.Snapshot)

type watchers struct {
	mu     sync.RWMutex
	nextID uint64
	byName map[string]map[uint64]Watcher
}

// Watch registers fn for the named machine. Watchers survive Reload.
// The returned stop function removes fn.
func (m *Manager) Watch(name string, fn Watcher) (stop func(), err error) {
	if fn == nil {
		return nil, errors.New("watcher is required")
	}
	if _, ok := m.Get(name); !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrMachineNotFound, name)
	}

	m.watch.mu.Lock()
	defer m.watch.mu.Unlock()

	if m.watch.byName == nil {
		m.watch.byName = make(map[string]map[uint64]Watcher)
	}
	if m.watch.byName[name] == nil {
		m.watch.byName[name] = make(map[uint64]Watcher)
	}
	m.watch.nextID++
	id := m.watch.nextID
	m.watch.byName[name][id] = fn

	return func() {
		m.watch.mu.Lock()
		defer m.watch.mu.Unlock()
		delete(m.watch.byName[name], id)
		if len(m.watch.byName[name]) == 0 {
			delete(m.watch.byName, name)
		}
	}, nil
}

// observe forwards machine notifications to the watchers of name.
func (m *Manager) observe(name string, machine *vsm.Machine) {
	notify := func() {
		m.watch.mu.RLock()
		defer m.watch.mu.RUnlock()

		fns := m.watch.byName[name]
		if len(fns) == 0 {
			return
		}
		snap := machine.Snapshot()
		for _, fn := range fns {
			fn(snap)
		}
	}

	cb := machine.Callbacks()
	cb.EnterTransition.Subscribe(func(*domain.Transition) { notify() })
	cb.EnterState.Subscribe(func(*domain.State) { notify() })
}
