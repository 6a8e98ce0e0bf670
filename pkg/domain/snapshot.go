package domain

import "time"

// Snapshot captures the position of one machine.
// It is what hosts expose and what stores persist.
type Snapshot struct {
	Name     string `json:"name"`
	Current  string `json:"current"`
	Previous string `json:"previous,omitempty"`
	Paused   bool   `json:"paused,omitempty"`

	// Transition is the ID of the timed transition in flight, if any.
	Transition string        `json:"transition,omitempty"`
	Elapsed    time.Duration `json:"elapsed,omitempty"`
	Duration   time.Duration `json:"duration,omitempty"`

	// Sealed holds an encrypted snapshot. Stores wrapped by an encrypting
	// middleware persist envelopes that carry only Name and Sealed.
	Sealed string `json:"sealed,omitempty"`
}

// Transitioning reports whether a timed transition was in flight.
func (s Snapshot) Transitioning() bool {
	return s.Transition != ""
}
