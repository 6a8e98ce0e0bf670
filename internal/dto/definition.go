// Package dto holds the decoded shape of graph definition files.
package dto

import (
	"time"

	"github.com/aretw0/vsm/pkg/domain"
)

// Definition is the root of a definition file.
// It uses "mapstructure" tags so YAML and JSON decode through the same path.
type Definition struct {
	Name        string       `json:"name" mapstructure:"name"`
	Entry       string       `json:"entry" mapstructure:"entry"`
	AnyState    string       `json:"any_state" mapstructure:"any_state"`
	States      []State      `json:"states" mapstructure:"states"`
	Transitions []Transition `json:"transitions" mapstructure:"transitions"`
}

// State declares a state. Short-form transitions may be nested under it.
type State struct {
	ID string `json:"id" mapstructure:"id"`

	// On maps a label to a target state, e.g. {go: Moving}.
	// The generated transition ID is "<state>:<label>".
	On map[string]string `json:"on" mapstructure:"on"`
}

// Transition declares an edge in long form.
type Transition struct {
	ID       string          `json:"id" mapstructure:"id"`
	From     string          `json:"from" mapstructure:"from"`
	To       string          `json:"to" mapstructure:"to"`
	Label    string          `json:"label" mapstructure:"label"`
	Duration time.Duration   `json:"duration" mapstructure:"duration"`
	TimeMode domain.TimeMode `json:"time_mode" mapstructure:"time_mode"`
}
