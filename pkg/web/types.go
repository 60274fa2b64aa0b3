// Package web provides HTTP request and response types for the flow API.
package web

import (
	"time"

	"github.com/jornadaflow/jornada/pkg/models"
)

// ErrorResponse represents a standardized API error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// SaveFlowRequest represents the request body for creating or updating a
// draft flow. Nodes and edges are submitted as a whole graph; the service
// validates it against the node registry before storing.
type SaveFlowRequest struct {
	Name  string         `json:"name"  validate:"required,min=3"`
	Nodes []*models.Node `json:"nodes" validate:"required,min=1"`
	Edges []*models.Edge `json:"edges"`
}

// StartSessionRequest represents the request body for starting a session on
// a published flow.
type StartSessionRequest struct {
	FlowID            string         `json:"flow_id"             validate:"required"`
	ContactID         string         `json:"contact_id"          validate:"required"`
	ChannelInstanceID string         `json:"channel_instance_id"`
	Variables         map[string]any `json:"variables,omitempty"`
}

// InboundMessageRequest represents one contact message delivered by the
// channel webhook.
type InboundMessageRequest struct {
	ChannelInstanceID string `json:"channel_instance_id"`
	ContactID         string `json:"contact_id" validate:"required"`
	Text              string `json:"text"`
	Kind              string `json:"kind"       validate:"omitempty,oneof=text image audio video document call"`
	MediaRef          string `json:"media_ref"`
}

// NodeKindResponse describes one registered node kind for flow editors.
type NodeKindResponse struct {
	Kind        string         `json:"kind"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Schema      map[string]any `json:"schema"`
}

// SessionResponse is the filtered view of a session returned by the API.
// Internal bookkeeping (send ledger, lease fields) stays server-side.
type SessionResponse struct {
	ID                string         `json:"id"`
	FlowID            string         `json:"flow_id"`
	ContactID         string         `json:"contact_id"`
	ChannelInstanceID string         `json:"channel_instance_id,omitempty"`
	Status            string         `json:"status"`
	CurrentNodeID     string         `json:"current_node_id"`
	Variables         map[string]any `json:"variables,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	LastInteraction   *time.Time     `json:"last_interaction,omitempty"`
	TimeoutAt         *time.Time     `json:"timeout_at,omitempty"`
}

// TransformSessionResponse filters a session into its API representation.
func TransformSessionResponse(session *models.Session) SessionResponse {
	response := SessionResponse{
		ID:                session.ID,
		FlowID:            session.FlowID,
		ContactID:         session.ContactID,
		ChannelInstanceID: session.ChannelInstanceID,
		Status:            string(session.Status),
		CurrentNodeID:     session.CurrentNodeID,
		Variables:         session.Variables,
		CreatedAt:         session.CreatedAt,
		TimeoutAt:         session.TimeoutAt,
	}

	if !session.LastInteraction.IsZero() {
		last := session.LastInteraction
		response.LastInteraction = &last
	}

	return response
}
