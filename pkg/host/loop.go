package host

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Tick advances the shared clock by real and updates every machine in
// registration order. A panic in one machine's callbacks is logged and does
// not stop the others.
func (m *Manager) Tick(real time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.frame.Advance(real)
	for _, name := range m.order {
		m.update(name)
	}
	m.ticks++
}

func (m *Manager) update(name string) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("machine update panicked", "machine", name, "panic", fmt.Sprint(r))
		}
	}()
	m.machines[name].Update()
}

// Run ticks at rate until ctx is done. Each tick passes the measured wall
// time since the previous one. It returns nil on cancellation.
func (m *Manager) Run(ctx context.Context, rate time.Duration) error {
	if rate <= 0 {
		return errors.New("tick rate must be positive")
	}

	ticker := time.NewTicker(rate)
	defer ticker.Stop()

	m.logger.Info("tick loop started", "rate", rate)
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("tick loop stopped", "ticks", m.Ticks())
			return nil
		case now := <-ticker.C:
			m.Tick(now.Sub(last))
			last = now
		}
	}
}
