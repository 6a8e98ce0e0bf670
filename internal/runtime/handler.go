package runtime

import (
	"time"

	"github.com/aretw0/vsm/pkg/clock"
	"github.com/aretw0/vsm/pkg/domain"
)

// transitionSteps are the two halves of a transition, supplied by the machine.
type transitionSteps interface {
	// beginTransition exits the origin and fires enter-transition notifications.
	beginTransition(t *domain.Transition)
	// completeTransition fires exit-transition notifications and enters the target.
	completeTransition(t *domain.Transition)
}

// TransitionHandler executes one transition at a time.
// Timed transitions are spread across ticks; instant ones complete inside Execute.
type TransitionHandler struct {
	steps      transitionSteps
	timer      TransitionTimer
	transition *domain.Transition
	running    bool
	completing bool
	seq        uint64
}

func newTransitionHandler(steps transitionSteps) *TransitionHandler {
	return &TransitionHandler{steps: steps}
}

// Execute starts t. A new call replaces whatever transition was in flight.
func (h *TransitionHandler) Execute(t *domain.Transition) {
	h.transition = t
	h.completing = false
	h.seq++

	if t.IsTimed() {
		h.running = true
		h.timer.Start(t.Duration, t.TimeMode)
		h.steps.beginTransition(t)
		return
	}

	h.running = false
	h.steps.beginTransition(t)
	h.steps.completeTransition(t)
}

// Update advances the timer and completes the transition when it runs out.
func (h *TransitionHandler) Update(src clock.Source) {
	if !h.running {
		return
	}

	h.timer.Update(src)

	if h.timer.IsCompleted() {
		// Still running while the target is entered, so Locked mode rejects
		// triggers from its enter hook. A transition started from there
		// replaces this one and is left alone.
		seq := h.seq
		h.completing = true
		h.steps.completeTransition(h.transition)
		if h.seq == seq {
			h.running = false
			h.completing = false
		}
	}
}

// Stop abandons the running transition. Its target is never entered.
func (h *TransitionHandler) Stop() {
	h.running = false
}

// IsRunning reports whether a timed transition is in flight. It stays true
// while the target state is being entered.
func (h *TransitionHandler) IsRunning() bool { return h.running }

// Transition returns the transition in flight, or nil once its target is
// being entered.
func (h *TransitionHandler) Transition() *domain.Transition {
	if !h.running || h.completing {
		return nil
	}
	return h.transition
}

// Progress returns elapsed and total time of the running transition.
func (h *TransitionHandler) Progress() (elapsed, duration time.Duration) {
	if !h.running || h.completing {
		return 0, 0
	}
	return h.timer.Elapsed(), h.timer.Duration()
}
