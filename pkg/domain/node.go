package domain

// Node is a vertex of the state graph.
// It is a closed set: the only implementations are *State and *AnyState,
// so callers dispatch with a type switch.
type Node interface {
	NodeID() string
	node()
}

// State is an ordinary state. Observers subscribe to its enter, exit and
// per-tick update notifications.
type State struct {
	ID string

	OnEnter  Handlers[*State]
	OnExit   Handlers[*State]
	OnUpdate Handlers[*State]
}

// NewState creates a state with the given ID.
func NewState(id string) *State {
	return &State{ID: id}
}

// NodeID returns the state ID.
func (s *State) NodeID() string { return s.ID }

func (*State) node() {}

// AnyState is the wildcard origin node.
// A transition leaving it can fire regardless of the current state.
type AnyState struct {
	ID string
}

// NewAnyState creates the wildcard node with the given ID.
func NewAnyState(id string) *AnyState {
	return &AnyState{ID: id}
}

// NodeID returns the wildcard node ID.
func (a *AnyState) NodeID() string { return a.ID }

func (*AnyState) node() {}
