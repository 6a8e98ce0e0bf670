package ports

import (
	"context"

	"github.com/aretw0/vsm/pkg/domain"
)

// GraphLoader defines how a host obtains a graph.
// This allows the definition source (file, memory) to be decoupled.
type GraphLoader interface {
	// LoadGraph builds a fresh graph. Each call returns a new instance, so
	// hooks subscribed on a previous graph are not carried over.
	LoadGraph(ctx context.Context) (*domain.Graph, error)
}

// Watchable defines an interface for loaders that can notify about backend changes.
// This is typically used for hot-reload or dev-mode functionality.
type Watchable interface {
	// Watch returns a channel that is signaled when the underlying graph changes.
	// It abstracts away the specific event details, signaling only that a reload is required.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
