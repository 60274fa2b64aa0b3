package web_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jornadaflow/jornada/pkg/models"
	"github.com/jornadaflow/jornada/pkg/web"
)

func TestTransformSessionResponse(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	deadline := now.Add(5 * time.Minute)

	session := &models.Session{
		ID:                  "session-1",
		FlowID:              "flow-1",
		ContactID:           "contact-1",
		ChannelInstanceID:   "channel-1",
		CurrentNodeID:       "wait",
		Variables:           map[string]any{"name": "Maria"},
		Status:              models.SessionStatusActive,
		Processing:          true,
		ProcessingStartedAt: &now,
		TimeoutAt:           &deadline,
		LastInteraction:     now,
		CreatedAt:           now,
		Internal: models.InternalState{
			SentNodeIDs: []string{"greet"},
		},
	}

	response := web.TransformSessionResponse(session)

	assert.Equal(t, "session-1", response.ID)
	assert.Equal(t, "flow-1", response.FlowID)
	assert.Equal(t, "active", response.Status)
	assert.Equal(t, "wait", response.CurrentNodeID)
	assert.Equal(t, "Maria", response.Variables["name"])
	assert.Equal(t, &deadline, response.TimeoutAt)

	if assert.NotNil(t, response.LastInteraction) {
		assert.Equal(t, now, *response.LastInteraction)
	}
}

func TestTransformSessionResponseOmitsZeroInteraction(t *testing.T) {
	t.Parallel()

	session := &models.Session{
		ID:     "session-2",
		FlowID: "flow-1",
		Status: models.SessionStatusCompleted,
	}

	response := web.TransformSessionResponse(session)

	assert.Nil(t, response.LastInteraction)
	assert.Nil(t, response.TimeoutAt)
	assert.Equal(t, "completed", response.Status)
}
