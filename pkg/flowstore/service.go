package flowstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jornadaflow/jornada/pkg/models"
	"github.com/jornadaflow/jornada/pkg/persistence"
)

// Service manages authored flows over a flow repository. Sessions only ever
// execute published flows: publishing creates an immutable snapshot with its
// own id, so edits to the draft never change a running conversation.
type Service struct {
	persistence persistence.Persistence
	validator   *Validator
}

// NewService creates a flow service.
func NewService(persist persistence.Persistence, validator *Validator) *Service {
	return &Service{persistence: persist, validator: validator}
}

// Flows lists all stored flows.
func (s *Service) Flows(ctx context.Context) ([]*models.Flow, error) {
	return s.persistence.FlowRepository().Flows(ctx)
}

// FlowByID fetches one flow.
func (s *Service) FlowByID(ctx context.Context, id string) (*models.Flow, error) {
	return s.persistence.FlowRepository().FlowByID(ctx, id)
}

// SaveDraft validates and stores a draft flow, assigning an id when absent.
func (s *Service) SaveDraft(ctx context.Context, flow *models.Flow) (*models.Flow, error) {
	if flow == nil {
		return nil, ErrFlowNil
	}

	existing, err := s.existingStatus(ctx, flow.ID)
	if err != nil {
		return nil, err
	}

	if existing == models.FlowStatusPublished {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotImmutable, flow.ID)
	}

	if err := s.validator.Validate(flow); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFlowInvalid, err)
	}

	if flow.ID == "" {
		flow.ID = uuid.New().String()
		flow.CreatedAt = time.Now().UTC()
	}

	flow.Status = models.FlowStatusDraft
	flow.UpdatedAt = time.Now().UTC()

	if err := s.persistence.FlowRepository().SaveFlow(ctx, flow); err != nil {
		return nil, fmt.Errorf("failed to save flow: %w", err)
	}

	return flow, nil
}

// Publish creates an immutable published snapshot of a draft flow and
// returns it. The draft itself is untouched; new sessions reference the
// snapshot's id.
func (s *Service) Publish(ctx context.Context, flowID string) (*models.Flow, error) {
	original, err := s.persistence.FlowRepository().FlowByID(ctx, flowID)
	if err != nil {
		return nil, fmt.Errorf("failed to load flow for publishing: %w", err)
	}

	if original.Status == models.FlowStatusPublished {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyPublished, flowID)
	}

	if err := s.validator.Validate(original); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFlowInvalid, err)
	}

	snapshot := s.snapshot(original)

	if err := s.persistence.FlowRepository().SaveFlow(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to save published flow: %w", err)
	}

	return snapshot, nil
}

// HealthCheck reports whether the backing store is reachable.
func (s *Service) HealthCheck(ctx context.Context) error {
	return s.persistence.HealthCheck(ctx)
}

// Delete removes a flow.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.persistence.FlowRepository().DeleteFlow(ctx, id)
}

func (s *Service) existingStatus(ctx context.Context, id string) (models.FlowStatus, error) {
	if id == "" {
		return "", nil
	}

	existing, err := s.persistence.FlowRepository().FlowByID(ctx, id)
	if err != nil {
		if errors.Is(err, persistence.ErrFlowNotFound) {
			return "", nil
		}

		return "", err
	}

	return existing.Status, nil
}

// snapshot deep-copies a flow into a published version with its own id.
func (s *Service) snapshot(original *models.Flow) *models.Flow {
	now := time.Now().UTC()

	copied := &models.Flow{
		ID:        uuid.New().String(),
		Name:      original.Name,
		Status:    models.FlowStatusPublished,
		Nodes:     make([]*models.Node, 0, len(original.Nodes)),
		Edges:     make([]*models.Edge, 0, len(original.Edges)),
		CreatedAt: now,
		UpdatedAt: now,
	}

	for _, node := range original.Nodes {
		nodeCopy := *node
		nodeCopy.Config = copyMap(node.Config)
		copied.Nodes = append(copied.Nodes, &nodeCopy)
	}

	for _, edge := range original.Edges {
		edgeCopy := *edge
		copied.Edges = append(copied.Edges, &edgeCopy)
	}

	return copied
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}

	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}

	return out
}
