package domain

import (
	"fmt"
	"strings"
)

// TimeMode selects the clock a timed transition advances with.
type TimeMode int

const (
	// TimeModeScaled follows the host's scaled game time (slow motion, freeze).
	TimeModeScaled TimeMode = iota
	// TimeModeUnscaled follows real elapsed time.
	TimeModeUnscaled
)

func (m TimeMode) String() string {
	switch m {
	case TimeModeScaled:
		return "scaled"
	case TimeModeUnscaled:
		return "unscaled"
	}
	return fmt.Sprintf("TimeMode(%d)", int(m))
}

// MarshalText implements encoding.TextMarshaler.
func (m TimeMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty value means scaled.
func (m *TimeMode) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "", "scaled":
		*m = TimeModeScaled
	case "unscaled":
		*m = TimeModeUnscaled
	default:
		return fmt.Errorf("unknown time mode %q", b)
	}
	return nil
}

// TransitionMode is the policy for triggers arriving while a timed
// transition is in flight.
type TransitionMode int

const (
	// TransitionModeDefault lets a new trigger replace the running transition.
	TransitionModeDefault TransitionMode = iota
	// TransitionModeLocked rejects triggers until the running transition completes.
	TransitionModeLocked
)

func (m TransitionMode) String() string {
	switch m {
	case TransitionModeDefault:
		return "default"
	case TransitionModeLocked:
		return "locked"
	}
	return fmt.Sprintf("TransitionMode(%d)", int(m))
}

// MarshalText implements encoding.TextMarshaler.
func (m TransitionMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty value means default.
func (m *TransitionMode) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "", "default":
		*m = TransitionModeDefault
	case "locked":
		*m = TransitionModeLocked
	default:
		return fmt.Errorf("unknown transition mode %q", b)
	}
	return nil
}
