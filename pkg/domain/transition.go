package domain

import "time"

// Transition is a directed edge between two nodes.
type Transition struct {
	ID       string
	OriginID string
	TargetID string

	// Label is a free-text trigger name. It does not need to be unique.
	Label string

	// Duration is how long the transition stays in flight.
	// Zero or negative durations complete within the triggering call.
	Duration time.Duration
	TimeMode TimeMode

	OnEnter Handlers[*Transition]
	OnExit  Handlers[*Transition]
}

// NewTransition creates an instant transition from origin to target.
func NewTransition(id, originID, targetID string) *Transition {
	return &Transition{
		ID:       id,
		OriginID: originID,
		TargetID: targetID,
	}
}

// IsTimed reports whether the transition spans ticks.
func (t *Transition) IsTimed() bool {
	return t.Duration > 0
}
