package file

import (
	"context"
	"time"

	"github.com/jornadaflow/jornada/pkg/models"
	"github.com/jornadaflow/jornada/pkg/persistence"
)

// FlowRepository handles flow file operations.
type FlowRepository struct {
	store *Persistence
}

func (r *FlowRepository) Flows(ctx context.Context) ([]*models.Flow, error) {
	ids, err := r.store.listIDs("flows")
	if err != nil {
		if isNotExist(err) {
			return []*models.Flow{}, nil
		}

		return nil, err
	}

	flows := make([]*models.Flow, 0, len(ids))

	for _, id := range ids {
		flow, err := r.FlowByID(ctx, id)
		if err != nil {
			return nil, err
		}

		flows = append(flows, flow)
	}

	return flows, nil
}

func (r *FlowRepository) FlowByID(_ context.Context, id string) (*models.Flow, error) {
	var flow models.Flow

	err := r.store.readJSON(r.store.path("flows", id+".json"), &flow)
	if err != nil {
		if isNotExist(err) {
			return nil, persistence.ErrFlowNotFound
		}

		return nil, persistence.NewStoreError("FlowByID", "flow", id, err)
	}

	return &flow, nil
}

func (r *FlowRepository) SaveFlow(_ context.Context, flow *models.Flow) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now().UTC()
	if flow.CreatedAt.IsZero() {
		flow.CreatedAt = now
	}

	flow.UpdatedAt = now

	return r.store.writeJSON(r.store.path("flows", flow.ID+".json"), flow)
}

func (r *FlowRepository) DeleteFlow(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	err := removeFile(r.store.path("flows", id+".json"))
	if isNotExist(err) {
		return persistence.ErrFlowNotFound
	}

	return err
}
