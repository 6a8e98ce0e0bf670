package host

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/vsm"
	"github.com/aretw0/vsm/pkg/domain"
)

// ErrNoStore is returned by Checkpoint and Resume when no store is configured.
var ErrNoStore = errors.New("no snapshot store configured")

// Checkpoint saves a snapshot of every machine to the store.
// Snapshots are taken together under the manager lock, then written.
func (m *Manager) Checkpoint(ctx context.Context) error {
	if m.store == nil {
		return ErrNoStore
	}

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, "checkpoint", checkpointLockTTL)
		if err != nil {
			return fmt.Errorf("failed to lock checkpoint: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("failed to release checkpoint lock", "err", err)
			}
		}()
	}

	var errs []error
	for _, snap := range m.Snapshots() {
		if err := m.store.Save(ctx, snap.Name, snap); err != nil {
			errs = append(errs, fmt.Errorf("machine %q: %w", snap.Name, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("checkpoint failed: %w", err)
	}
	m.logger.Debug("checkpoint saved")
	return nil
}

// Resume restores the named machine from its stored snapshot.
// It returns domain.ErrSnapshotNotFound when nothing was saved for it.
func (m *Manager) Resume(ctx context.Context, name string) error {
	if m.store == nil {
		return ErrNoStore
	}

	snap, err := m.store.Load(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to load snapshot %q: %w", name, err)
	}

	return m.Do(name, func(machine *vsm.Machine) error {
		if !machine.Restore(snap) {
			return fmt.Errorf("snapshot %q does not match the machine graph", name)
		}
		if m.metrics != nil {
			m.metrics.SetCurrent(name, stateIDs(machine.Graph()), snap.Current)
		}
		if snap.Transitioning() {
			m.logger.Info("resumed machine, in-flight transition dropped",
				"machine", name, "transition", snap.Transition)
		}
		return nil
	})
}

// ResumeAll restores every registered machine that has a stored snapshot
// and starts the rest.
func (m *Manager) ResumeAll(ctx context.Context) error {
	if m.store == nil {
		return ErrNoStore
	}

	var errs []error
	for _, name := range m.Names() {
		err := m.Resume(ctx, name)
		if err != nil && !errors.Is(err, domain.ErrSnapshotNotFound) {
			errs = append(errs, err)
		}
	}
	m.StartAll()
	return errors.Join(errs...)
}
