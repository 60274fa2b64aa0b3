// Package testutil provides test data builders and fake collaborators for testing.
package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/jornadaflow/jornada/pkg/models"
)

// CreateTestSession creates a session with default values that can be overridden.
func CreateTestSession(overrides ...func(*models.Session)) *models.Session {
	now := time.Now().UTC()
	session := &models.Session{
		ID:                uuid.New().String(),
		FlowID:            "flow-1",
		ContactID:         "contact-1",
		ChannelInstanceID: "channel-1",
		CurrentNodeID:     "start",
		Variables:         map[string]any{},
		Status:            models.SessionStatusActive,
		LastInteraction:   now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	for _, override := range overrides {
		override(session)
	}

	return session
}

// WithCurrentNode sets the session's checkpoint node.
func WithCurrentNode(nodeID string) func(*models.Session) {
	return func(s *models.Session) {
		s.CurrentNodeID = nodeID
	}
}

// WithVariables sets the session variables.
func WithVariables(vars map[string]any) func(*models.Session) {
	return func(s *models.Session) {
		s.Variables = vars
	}
}

// WithSentNodes marks node ids as already sent.
func WithSentNodes(nodeIDs ...string) func(*models.Session) {
	return func(s *models.Session) {
		for _, id := range nodeIDs {
			s.MarkSent(id)
		}
	}
}

// WithSessionStatus sets the session status.
func WithSessionStatus(status models.SessionStatus) func(*models.Session) {
	return func(s *models.Session) {
		s.Status = status
	}
}

// CreateTestFlow creates a published flow with default values that can be overridden.
func CreateTestFlow(overrides ...func(*models.Flow)) *models.Flow {
	now := time.Now().UTC()
	flow := &models.Flow{
		ID:     uuid.New().String(),
		Name:   "Test Flow",
		Status: models.FlowStatusPublished,
		Nodes: []*models.Node{
			{ID: "start", Kind: models.NodeKindStart},
			{ID: "end", Kind: models.NodeKindEnd},
		},
		Edges: []*models.Edge{
			{ID: "e1", Source: "start", Target: "end"},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	for _, override := range overrides {
		override(flow)
	}

	return flow
}

// WithNodes sets the flow's nodes.
func WithNodes(nodes ...*models.Node) func(*models.Flow) {
	return func(f *models.Flow) {
		f.Nodes = nodes
	}
}

// WithEdges sets the flow's edges.
func WithEdges(edges ...*models.Edge) func(*models.Flow) {
	return func(f *models.Flow) {
		f.Edges = edges
	}
}

// CreateTestContact creates a contact with default values that can be overridden.
func CreateTestContact(overrides ...func(*models.Contact)) *models.Contact {
	now := time.Now().UTC()
	contact := &models.Contact{
		ID:        uuid.New().String(),
		Name:      "Maria Silva",
		Phone:     "+5511999990000",
		CreatedAt: now,
		UpdatedAt: now,
	}

	for _, override := range overrides {
		override(contact)
	}

	return contact
}

// WithTags sets the contact's tags.
func WithTags(tags ...string) func(*models.Contact) {
	return func(c *models.Contact) {
		c.Tags = tags
	}
}
