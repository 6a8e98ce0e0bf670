package memory

import (
	"context"
	"fmt"

	"github.com/aretw0/vsm/pkg/domain"
)

// Loader implements ports.GraphLoader over a build function.
type Loader struct {
	build func() (*domain.Graph, error)
}

// NewLoader creates a loader that calls build on every LoadGraph.
// Use it with a dsl builder function to get a fresh graph each time.
func NewLoader(build func() (*domain.Graph, error)) *Loader {
	return &Loader{build: build}
}

// FromGraph creates a loader that always returns g.
func FromGraph(g *domain.Graph) *Loader {
	return &Loader{build: func() (*domain.Graph, error) { return g, nil }}
}

// LoadGraph returns the graph.
func (l *Loader) LoadGraph(ctx context.Context) (*domain.Graph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.build == nil {
		return nil, fmt.Errorf("memory loader has no graph")
	}
	g, err := l.build()
	if err != nil {
		return nil, fmt.Errorf("failed to build graph: %w", err)
	}
	if g == nil {
		return nil, fmt.Errorf("memory loader has no graph")
	}
	return g, nil
}
