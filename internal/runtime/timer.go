package runtime

import (
	"time"

	"github.com/aretw0/vsm/pkg/clock"
	"github.com/aretw0/vsm/pkg/domain"
)

// TransitionTimer accumulates tick deltas against a duration.
type TransitionTimer struct {
	mode      domain.TimeMode
	elapsed   time.Duration
	duration  time.Duration
	completed bool
}

// Start resets the timer for a new run.
func (t *TransitionTimer) Start(duration time.Duration, mode domain.TimeMode) {
	t.mode = mode
	t.duration = duration
	t.elapsed = 0
	t.completed = false
}

// Update adds the current tick's delta for the timer's time mode.
// Elapsed time is clamped to the duration on completion.
func (t *TransitionTimer) Update(src clock.Source) {
	if t.completed {
		return
	}

	t.elapsed += src.Delta(t.mode)

	if t.elapsed >= t.duration {
		t.elapsed = t.duration
		t.completed = true
	}
}

// IsCompleted reports whether elapsed time reached the duration.
func (t *TransitionTimer) IsCompleted() bool { return t.completed }

// Elapsed returns the accumulated time.
func (t *TransitionTimer) Elapsed() time.Duration { return t.elapsed }

// Duration returns the target duration.
func (t *TransitionTimer) Duration() time.Duration { return t.duration }

// Mode returns the time mode the timer reads.
func (t *TransitionTimer) Mode() domain.TimeMode { return t.mode }
