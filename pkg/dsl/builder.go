package dsl

import (
	"fmt"

	"github.com/aretw0/vsm/pkg/domain"
)

// Builder manages the graph construction.
// Nodes and transitions keep the order in which they were first added,
// which is the order label and state resolution scan them in.
type Builder struct {
	entry       string
	nodes       []nodeBuilder
	byID        map[string]nodeBuilder
	transitions []*TransitionBuilder
	byTransID   map[string]*TransitionBuilder
}

type nodeBuilder interface {
	build() domain.Node
}

// New creates a new graph builder whose entry state is entry.
func New(entry string) *Builder {
	return &Builder{
		entry:     entry,
		byID:      make(map[string]nodeBuilder),
		byTransID: make(map[string]*TransitionBuilder),
	}
}

// Entry changes the entry state.
func (b *Builder) Entry(id string) *Builder {
	b.entry = id
	return b
}

// State adds a state to the graph.
// If the state already exists, it returns the existing builder.
// Reusing the ID of an any-state node is reported by Build.
func (b *Builder) State(id string) *StateBuilder {
	if nb, ok := b.byID[id]; ok {
		if sb, ok := nb.(*StateBuilder); ok {
			return sb
		}
	}
	sb := &StateBuilder{state: domain.NewState(id), builder: b}
	b.add(id, sb)
	return sb
}

// AnyState adds the wildcard origin node.
func (b *Builder) AnyState(id string) *Builder {
	if nb, ok := b.byID[id]; ok {
		if _, ok := nb.(*anyStateBuilder); ok {
			return b
		}
	}
	b.add(id, &anyStateBuilder{node: domain.NewAnyState(id)})
	return b
}

func (b *Builder) add(id string, nb nodeBuilder) {
	if _, exists := b.byID[id]; !exists {
		b.byID[id] = nb
	}
	// Duplicates are kept so Build can report them.
	b.nodes = append(b.nodes, nb)
}

// Transition adds a transition to the graph.
// If the transition already exists, it returns the existing builder.
func (b *Builder) Transition(id string) *TransitionBuilder {
	if tb, ok := b.byTransID[id]; ok {
		return tb
	}
	return b.AddTransition(id)
}

// AddTransition always adds a new transition, even when id is taken.
// A repeated ID is reported by Build as domain.ErrDuplicateID.
func (b *Builder) AddTransition(id string) *TransitionBuilder {
	tb := &TransitionBuilder{transition: &domain.Transition{ID: id}, builder: b}
	if _, exists := b.byTransID[id]; !exists {
		b.byTransID[id] = tb
	}
	b.transitions = append(b.transitions, tb)
	return tb
}

// Build compiles the graph.
// References are not checked; call Validate on the result for that.
func (b *Builder) Build() (*domain.Graph, error) {
	nodes := make([]domain.Node, 0, len(b.nodes))
	for _, nb := range b.nodes {
		nodes = append(nodes, nb.build())
	}

	transitions := make([]*domain.Transition, 0, len(b.transitions))
	for _, tb := range b.transitions {
		transitions = append(transitions, tb.transition)
	}

	g, err := domain.NewGraph(b.entry, nodes, transitions)
	if err != nil {
		return nil, fmt.Errorf("failed to build graph: %w", err)
	}
	return g, nil
}

// MustBuild is Build for graphs known to be well formed. It panics on error.
func (b *Builder) MustBuild() *domain.Graph {
	g, err := b.Build()
	if err != nil {
		panic(err)
	}
	return g
}

type anyStateBuilder struct {
	node *domain.AnyState
}

func (a *anyStateBuilder) build() domain.Node { return a.node }
