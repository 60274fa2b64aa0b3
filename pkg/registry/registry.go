// Package registry maps node kinds to their handler factories.
package registry

import (
	"fmt"
	"log/slog"

	"github.com/jornadaflow/jornada/pkg/models"
	"github.com/jornadaflow/jornada/pkg/protocol"
)

// Registry holds the closed set of node kind factories. Node kinds are not
// pluggable at runtime: the set is fixed at build time so edge labels and
// handler semantics stay exhaustively checkable.
type Registry struct {
	logger    *slog.Logger
	factories map[models.NodeKind]protocol.NodeFactory
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger,
		factories: make(map[models.NodeKind]protocol.NodeFactory),
	}
}

// Register adds a node factory. Registering a kind twice is a programming
// error and panics at startup.
func (r *Registry) Register(factory protocol.NodeFactory) {
	kind := factory.Kind()
	if _, exists := r.factories[kind]; exists {
		panic(fmt.Sprintf("node kind %q registered twice", kind))
	}

	r.factories[kind] = factory
}

// Create builds a handler for one node instance.
func (r *Registry) Create(node *models.Node) (protocol.Node, error) {
	factory, ok := r.factories[node.Kind]
	if !ok {
		return nil, fmt.Errorf("node kind %q not registered", node.Kind)
	}

	handler, err := factory.Create(node.ID, node.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to create %q handler for node %s: %w", node.Kind, node.ID, err)
	}

	return handler, nil
}

// Knows reports whether a kind has a registered factory.
func (r *Registry) Knows(kind models.NodeKind) bool {
	_, ok := r.factories[kind]
	return ok
}

// Kinds lists the registered node kinds.
func (r *Registry) Kinds() []models.NodeKind {
	kinds := make([]models.NodeKind, 0, len(r.factories))
	for kind := range r.factories {
		kinds = append(kinds, kind)
	}

	return kinds
}
