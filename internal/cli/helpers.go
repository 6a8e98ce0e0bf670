package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/vsm/internal/logging"
	"github.com/aretw0/vsm/pkg/domain"
	"golang.org/x/term"
)

// createLogger configures the application logger.
// In debug mode, it writes to Stderr (to separate from Stdout flow UI).
func createLogger(debug bool) *slog.Logger {
	if debug {
		return logging.New(slog.LevelDebug)
	}
	return logging.NewNop()
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func createDebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTriggerTransition: func(t *domain.Transition) {
			logger.Debug("Trigger Transition", "transition", t.ID, "label", t.Label)
		},
		OnExitState: func(s *domain.State) {
			logger.Debug("Exit State", "state", s.ID)
		},
		OnEnterTransition: func(t *domain.Transition) {
			logger.Debug("Enter Transition", "transition", t.ID, "duration", t.Duration)
		},
		OnExitTransition: func(t *domain.Transition) {
			logger.Debug("Exit Transition", "transition", t.ID)
		},
		OnEnterState: func(s *domain.State) {
			logger.Debug("Enter State", "state", s.ID)
		},
	}
}
