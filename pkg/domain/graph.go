package domain

import (
	"errors"
	"fmt"
	"slices"
)

// Graph holds the nodes and transitions of one state machine.
// It is built once and treated as read-only while machines execute.
type Graph struct {
	// EntryStateID is the state entered on restart.
	EntryStateID string

	nodes       map[string]Node
	order       []Node
	transitions []*Transition
	byID        map[string]*Transition
}

// NewGraph builds a graph from nodes and transitions.
// IDs must be non-empty and unique within their kind. Origin and target
// references are not checked here; see Validate.
func NewGraph(entryStateID string, nodes []Node, transitions []*Transition) (*Graph, error) {
	g := &Graph{
		EntryStateID: entryStateID,
		nodes:        make(map[string]Node, len(nodes)),
		byID:         make(map[string]*Transition, len(transitions)),
	}

	for _, n := range nodes {
		if n == nil {
			return nil, fmt.Errorf("nil node: %w", ErrEmptyID)
		}
		id := n.NodeID()
		if id == "" {
			return nil, fmt.Errorf("node: %w", ErrEmptyID)
		}
		if _, exists := g.nodes[id]; exists {
			return nil, fmt.Errorf("node %q: %w", id, ErrDuplicateID)
		}
		g.nodes[id] = n
		g.order = append(g.order, n)
	}

	for _, t := range transitions {
		if t == nil || t.ID == "" {
			return nil, fmt.Errorf("transition: %w", ErrEmptyID)
		}
		if _, exists := g.byID[t.ID]; exists {
			return nil, fmt.Errorf("transition %q: %w", t.ID, ErrDuplicateID)
		}
		g.byID[t.ID] = t
		g.transitions = append(g.transitions, t)
	}

	return g, nil
}

// TryGetNode returns the node with the given ID.
func (g *Graph) TryGetNode(id string) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// TryGetState returns the node with the given ID if it is a *State.
func (g *Graph) TryGetState(id string) (*State, bool) {
	s, ok := g.nodes[id].(*State)
	return s, ok
}

// TryGetTransition returns the transition with the given ID.
func (g *Graph) TryGetTransition(id string) (*Transition, bool) {
	t, ok := g.byID[id]
	return t, ok
}

// HasState reports whether id names a *State.
func (g *Graph) HasState(id string) bool {
	_, ok := g.TryGetState(id)
	return ok
}

// HasTransition reports whether a transition with the given ID exists.
func (g *Graph) HasTransition(id string) bool {
	_, ok := g.byID[id]
	return ok
}

// IsAnyState reports whether id names the wildcard node.
func (g *Graph) IsAnyState(id string) bool {
	_, ok := g.nodes[id].(*AnyState)
	return ok
}

// AnyState returns the first wildcard node, if the graph has one.
func (g *Graph) AnyState() (*AnyState, bool) {
	for _, n := range g.order {
		if a, ok := n.(*AnyState); ok {
			return a, true
		}
	}
	return nil, false
}

// Transitions returns the transitions in insertion order.
// Order matters: trigger resolution picks the first match.
func (g *Graph) Transitions() []*Transition {
	return slices.Clone(g.transitions)
}

// Nodes returns the nodes in insertion order.
func (g *Graph) Nodes() []Node {
	return slices.Clone(g.order)
}

// States returns the *State nodes in insertion order.
func (g *Graph) States() []*State {
	states := make([]*State, 0, len(g.order))
	for _, n := range g.order {
		if s, ok := n.(*State); ok {
			states = append(states, s)
		}
	}
	return states
}

// Validate reports structural problems: an entry that is not a state,
// dangling origins or targets, transitions into the wildcard node and
// negative durations. All problems are joined into one error wrapping
// ErrInvalidGraph.
func (g *Graph) Validate() error {
	var errs []error

	if g.EntryStateID == "" {
		errs = append(errs, errors.New("no entry state set"))
	} else if !g.HasState(g.EntryStateID) {
		errs = append(errs, fmt.Errorf("entry state %q does not exist", g.EntryStateID))
	}

	for _, t := range g.transitions {
		if _, ok := g.nodes[t.OriginID]; !ok {
			errs = append(errs, fmt.Errorf("transition %q: origin %q does not exist", t.ID, t.OriginID))
		}
		switch g.nodes[t.TargetID].(type) {
		case *State:
		case *AnyState:
			errs = append(errs, fmt.Errorf("transition %q: target %q is the any-state node", t.ID, t.TargetID))
		default:
			errs = append(errs, fmt.Errorf("transition %q: target %q does not exist", t.ID, t.TargetID))
		}
		if t.Duration < 0 {
			errs = append(errs, fmt.Errorf("transition %q: negative duration %s", t.ID, t.Duration))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidGraph, errors.Join(errs...))
}
