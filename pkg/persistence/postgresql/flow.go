package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jornadaflow/jornada/pkg/models"
	"github.com/jornadaflow/jornada/pkg/persistence"
)

// FlowRepository implements flow storage on PostgreSQL. Node and edge lists
// are stored as JSONB documents: the interpreter always loads a flow whole.
type FlowRepository struct {
	db *sql.DB
}

func scanFlow(row interface{ Scan(...any) error }) (*models.Flow, error) {
	var (
		flow      models.Flow
		nodesJSON []byte
		edgesJSON []byte
	)

	err := row.Scan(&flow.ID, &flow.Name, &flow.Status, &nodesJSON,
		&edgesJSON, &flow.CreatedAt, &flow.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(nodesJSON, &flow.Nodes); err != nil {
		return nil, fmt.Errorf("failed to decode flow nodes: %w", err)
	}

	if err := json.Unmarshal(edgesJSON, &flow.Edges); err != nil {
		return nil, fmt.Errorf("failed to decode flow edges: %w", err)
	}

	return &flow, nil
}

func (r *FlowRepository) Flows(ctx context.Context) ([]*models.Flow, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, status, nodes, edges, created_at, updated_at FROM flows ORDER BY created_at")
	if err != nil {
		return nil, persistence.NewStoreError("Flows", "flow", "", err)
	}
	defer rows.Close()

	var flows []*models.Flow

	for rows.Next() {
		flow, err := scanFlow(rows)
		if err != nil {
			return nil, persistence.NewStoreError("Flows", "flow", "", err)
		}

		flows = append(flows, flow)
	}

	return flows, rows.Err()
}

func (r *FlowRepository) FlowByID(ctx context.Context, id string) (*models.Flow, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, name, status, nodes, edges, created_at, updated_at FROM flows WHERE id = $1", id)

	flow, err := scanFlow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrFlowNotFound
		}

		return nil, persistence.NewStoreError("FlowByID", "flow", id, err)
	}

	return flow, nil
}

func (r *FlowRepository) SaveFlow(ctx context.Context, flow *models.Flow) error {
	nodesJSON, err := json.Marshal(flow.Nodes)
	if err != nil {
		return fmt.Errorf("failed to encode flow nodes: %w", err)
	}

	edgesJSON, err := json.Marshal(flow.Edges)
	if err != nil {
		return fmt.Errorf("failed to encode flow edges: %w", err)
	}

	now := time.Now().UTC()
	if flow.CreatedAt.IsZero() {
		flow.CreatedAt = now
	}

	flow.UpdatedAt = now

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO flows (id, name, status, nodes, edges, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			status = EXCLUDED.status,
			nodes = EXCLUDED.nodes,
			edges = EXCLUDED.edges,
			updated_at = EXCLUDED.updated_at`,
		flow.ID, flow.Name, flow.Status, nodesJSON, edgesJSON,
		flow.CreatedAt, flow.UpdatedAt)
	if err != nil {
		return persistence.NewStoreError("SaveFlow", "flow", flow.ID, err)
	}

	return nil
}

func (r *FlowRepository) DeleteFlow(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM flows WHERE id = $1", id)
	if err != nil {
		return persistence.NewStoreError("DeleteFlow", "flow", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewStoreError("DeleteFlow", "flow", id, err)
	}

	if affected == 0 {
		return persistence.ErrFlowNotFound
	}

	return nil
}
