// Package flowstore manages authored flows: validation against the node
// registry, and publishing immutable execution snapshots.
package flowstore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/jornadaflow/jornada/pkg/models"
	"github.com/jornadaflow/jornada/pkg/registry"
)

var (
	ErrFlowNil       = errors.New("flow cannot be nil")
	ErrNoNodes       = errors.New("flow must have at least one node")
	ErrNoStartNode   = errors.New("flow must have a start node")
	ErrEmptyNodeID   = errors.New("found node with empty id")
	ErrDuplicateNode = errors.New("duplicate node id")
	ErrUnknownKind   = errors.New("unknown node kind")
	ErrDanglingEdge  = errors.New("edge references non-existent node")

	ErrFlowInvalid       = errors.New("flow validation failed")
	ErrSnapshotImmutable = errors.New("published snapshots cannot be edited")
	ErrAlreadyPublished  = errors.New("flow is already a published snapshot")
)

// Validator checks a flow graph against the node registry: every node kind
// must be registered, every config must satisfy its kind's schema and
// decode, and every edge must connect existing nodes.
type Validator struct {
	registry *registry.Registry
}

// NewValidator creates a flow validator over the given registry.
func NewValidator(reg *registry.Registry) *Validator {
	return &Validator{registry: reg}
}

// Validate checks the whole flow. The first problem found is returned.
func (v *Validator) Validate(flow *models.Flow) error {
	if flow == nil {
		return ErrFlowNil
	}

	if len(flow.Nodes) == 0 {
		return ErrNoNodes
	}

	if flow.StartNode() == nil {
		return ErrNoStartNode
	}

	seen := make(map[string]bool, len(flow.Nodes))

	for _, node := range flow.Nodes {
		if node.ID == "" {
			return ErrEmptyNodeID
		}

		if seen[node.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateNode, node.ID)
		}

		seen[node.ID] = true

		if err := v.validateNode(node); err != nil {
			return err
		}
	}

	for _, edge := range flow.Edges {
		if !seen[edge.Source] {
			return fmt.Errorf("%w: edge %s source %s", ErrDanglingEdge, edge.ID, edge.Source)
		}

		if !seen[edge.Target] {
			return fmt.Errorf("%w: edge %s target %s", ErrDanglingEdge, edge.ID, edge.Target)
		}
	}

	return nil
}

func (v *Validator) validateNode(node *models.Node) error {
	if !v.registry.Knows(node.Kind) {
		return fmt.Errorf("%w: node %s kind %q", ErrUnknownKind, node.ID, node.Kind)
	}

	if schema := v.schemaFor(node.Kind); schema != nil {
		if err := validateAgainstSchema(schema, node.Config); err != nil {
			return fmt.Errorf("node %s config invalid: %w", node.ID, err)
		}
	}

	// Schema conformance is necessary but not sufficient: the factory is
	// the authority on whether the config decodes.
	if _, err := v.registry.Create(node); err != nil {
		return fmt.Errorf("node %s config invalid: %w", node.ID, err)
	}

	return nil
}

func (v *Validator) schemaFor(kind models.NodeKind) map[string]any {
	for _, factory := range v.registry.Factories() {
		if factory.Kind() == kind {
			return factory.Schema()
		}
	}

	return nil
}

func validateAgainstSchema(schema map[string]any, config map[string]any) error {
	if config == nil {
		config = map[string]any{}
	}

	schemaLoader := gojsonschema.NewGoLoader(schema)
	dataLoader := gojsonschema.NewGoLoader(config)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return err
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, resultErr := range result.Errors() {
			details = append(details, resultErr.String())
		}

		return errors.New(strings.Join(details, "; "))
	}

	return nil
}
