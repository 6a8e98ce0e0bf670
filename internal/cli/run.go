package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aretw0/vsm"
	"github.com/aretw0/vsm/internal/presentation/tui"
	"github.com/aretw0/vsm/pkg/adapters/file"
	"github.com/aretw0/vsm/pkg/clock"
	"github.com/aretw0/vsm/pkg/config"
	"github.com/aretw0/vsm/pkg/domain"
)

// RunOptions contains all the configuration for the Run command.
type RunOptions struct {
	Path string

	// ConfigPath is an optional config file. The transition mode comes from
	// it and VSM_* variables; Locked overrides both.
	ConfigPath string

	Headless  bool
	Debug     bool
	Locked    bool
	Step      time.Duration
	SessionID string
	Fresh     bool

	// SessionDir overrides where sessions are stored.
	SessionDir string

	In  io.Reader
	Out io.Writer
}

// Execute loads the graph at opts.Path and drives it from line commands.
// With a session ID the machine position is restored before the run and
// saved after it.
func Execute(ctx context.Context, opts RunOptions) error {
	if opts.Path == "" {
		return errors.New("a graph file is required")
	}
	logger := createLogger(opts.Debug)

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if !opts.Headless && isTerminal(opts.Out) {
		tui.PrintBanner(opts.Out)
	}

	step := opts.Step
	if step <= 0 {
		step = time.Second / 60
	}
	clk := clock.NewManual(step)

	machineOpts := []vsm.Option{
		vsm.WithConfig(cfg),
		vsm.WithClock(clk),
		vsm.WithLogger(logger),
	}
	if opts.Debug {
		machineOpts = append(machineOpts, vsm.WithLifecycleHooks(createDebugHooks(logger)))
	}
	if opts.Locked {
		machineOpts = append(machineOpts, vsm.WithTransitionMode(domain.TransitionModeLocked))
	}

	loader := file.NewLoader(opts.Path, file.WithLogger(logger))
	m, err := vsm.Load(ctx, loader, machineOpts...)
	if err != nil {
		return fmt.Errorf("error initializing machine: %w", err)
	}

	var store *file.Store
	if opts.SessionID != "" {
		store = file.NewStore(opts.SessionDir)
		if err := hydrate(ctx, store, m, opts); err != nil {
			return err
		}
	}

	r := vsm.NewRunner(opts.In, opts.Out, clk)
	r.Headless = opts.Headless
	runErr := r.Run(m)

	if store != nil {
		snap := m.Snapshot()
		snap.Name = opts.SessionID
		if err := store.Save(context.WithoutCancel(ctx), opts.SessionID, snap); err != nil {
			return errors.Join(runErr, fmt.Errorf("failed to save session: %w", err))
		}
		logger.Info("Session Saved", "session_id", opts.SessionID, "state", snap.Current)
	}

	if !opts.Headless {
		printSystemMessage(opts.Out, "Finished at '%s' state.", m.CurrentState())
	}
	return runErr
}

func hydrate(ctx context.Context, store *file.Store, m *vsm.Machine, opts RunOptions) error {
	if opts.Fresh {
		if err := store.Delete(ctx, opts.SessionID); err != nil && !errors.Is(err, domain.ErrSnapshotNotFound) {
			return fmt.Errorf("failed to reset session: %w", err)
		}
	}

	snap, err := store.Load(ctx, opts.SessionID)
	switch {
	case errors.Is(err, domain.ErrSnapshotNotFound):
		if !opts.Headless {
			printSystemMessage(opts.Out, "Session '%s' active.", opts.SessionID)
		}
		return nil
	case err != nil:
		return fmt.Errorf("failed to load session: %w", err)
	}

	// Reload guardrail: the graph may have changed since the session was saved.
	if !m.Restore(snap) {
		if !opts.Headless {
			printSystemMessage(opts.Out, "State '%s' no longer exists, starting over.", snap.Current)
		}
		return nil
	}
	if !opts.Headless {
		printSystemMessage(opts.Out, "Resuming at '%s' state...", snap.Current)
	}
	return nil
}
