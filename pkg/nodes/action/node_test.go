package action

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jornadaflow/jornada/pkg/models"
	"github.com/jornadaflow/jornada/pkg/testutil"
)

func TestSetVariableNode(t *testing.T) {
	ts := testutil.CreateTestScope(testutil.WithSession(
		testutil.CreateTestSession(testutil.WithVariables(map[string]any{"name": "Maria"})),
	))

	node, err := NewSetVariableNode("s1", map[string]any{
		"variable": "greeting",
		"value":    "Oi {{name}}",
	})
	require.NoError(t, err)

	outcome, err := node.Execute(context.Background(), ts.Scope)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeAdvance, outcome.Kind)
	assert.Equal(t, "Oi Maria", ts.Scope.Session.Variables["greeting"])
}

func TestTagNode_AddAndRemove(t *testing.T) {
	ts := testutil.CreateTestScope(testutil.WithContact(
		testutil.CreateTestContact(testutil.WithTags("lead")),
	))

	add, err := NewTagNode("t1", map[string]any{"tag": "vip"})
	require.NoError(t, err)

	_, err = add.Execute(context.Background(), ts.Scope)
	require.NoError(t, err)
	assert.True(t, ts.Scope.Contact.HasTag("vip"))
	require.Len(t, ts.Contacts.Saved, 1)

	remove, err := NewTagNode("t2", map[string]any{"tag": "lead", "action": "remove"})
	require.NoError(t, err)

	_, err = remove.Execute(context.Background(), ts.Scope)
	require.NoError(t, err)
	assert.False(t, ts.Scope.Contact.HasTag("lead"))
}

func TestNewTagNode_RejectsUnknownAction(t *testing.T) {
	_, err := NewTagNode("t1", map[string]any{"tag": "vip", "action": "toggle"})
	assert.Error(t, err)
}

func TestNotifyAdminNode_UsesConfiguredRecipient(t *testing.T) {
	ts := testutil.CreateTestScope()

	node, err := NewNotifyAdminNode("n1", map[string]any{
		"recipient": "+5511888880000",
		"message":   "Novo lead aguardando",
	})
	require.NoError(t, err)

	outcome, err := node.Execute(context.Background(), ts.Scope)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeAdvance, outcome.Kind)

	require.Len(t, ts.Sender.Sent, 1)
	assert.Equal(t, "+5511888880000", ts.Sender.Sent[0].Message.Recipient)
}

func TestPixelNode_EmitsSessionContext(t *testing.T) {
	ts := testutil.CreateTestScope(testutil.WithSession(
		testutil.CreateTestSession(testutil.WithVariables(map[string]any{"plano": "completo"})),
	))

	node, err := NewPixelNode("p1", map[string]any{
		"event": "checkout.started",
		"data":  map[string]any{"plan": "{{plano}}"},
	})
	require.NoError(t, err)

	_, err = node.Execute(context.Background(), ts.Scope)
	require.NoError(t, err)

	require.Len(t, ts.Events.Events, 1)
	event := ts.Events.Events[0]
	assert.Equal(t, "checkout.started", event.Type)
	assert.Equal(t, ts.Scope.Session.ID, event.Payload["session_id"])
	assert.Equal(t, "completo", event.Payload["plan"])
}

func TestCallNode_SendsCallKind(t *testing.T) {
	ts := testutil.CreateTestScope()

	node, err := NewCallNode("c1", map[string]any{})
	require.NoError(t, err)

	_, err = node.Execute(context.Background(), ts.Scope)
	require.NoError(t, err)

	require.Len(t, ts.Sender.Sent, 1)
	assert.Equal(t, models.MessageKindCall, ts.Sender.Sent[0].Message.Kind)
}

func TestAINode_StoresGeneratedText(t *testing.T) {
	ts := testutil.CreateTestScope()
	ts.Judge.GenerateResult = "texto gerado"

	node, err := NewAINode("a1", map[string]any{
		"prompt":   "responda o contato",
		"variable": "resposta",
	})
	require.NoError(t, err)

	outcome, err := node.Execute(context.Background(), ts.Scope)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeAdvance, outcome.Kind)
	assert.Equal(t, "texto gerado", ts.Scope.Session.Variables["resposta"])
}

func TestAINode_DegradesToEmpty(t *testing.T) {
	ts := testutil.CreateTestScope()
	ts.Judge.GenerateErr = testutil.ErrFake

	node, err := NewAINode("a1", map[string]any{
		"prompt":   "responda",
		"variable": "resposta",
	})
	require.NoError(t, err)

	outcome, err := node.Execute(context.Background(), ts.Scope)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeAdvance, outcome.Kind)
	assert.Equal(t, "", ts.Scope.Session.Variables["resposta"])
}

func TestWebhookNode_RecordsResponse(t *testing.T) {
	var gotMethod, gotBody string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		buf, _ := io.ReadAll(r.Body)
		gotBody = string(buf)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	ts := testutil.CreateTestScope(testutil.WithSession(
		testutil.CreateTestSession(testutil.WithVariables(map[string]any{"name": "Maria"})),
	))

	node, err := NewWebhookNode("w1", map[string]any{
		"url":  server.URL,
		"body": `{"contact":"{{name}}"}`,
	})
	require.NoError(t, err)

	outcome, err := node.Execute(context.Background(), ts.Scope)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeAdvance, outcome.Kind)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, `{"contact":"Maria"}`, gotBody)
	assert.Equal(t, "201", ts.Scope.Session.Variables["webhook_status"])
	assert.Equal(t, `{"ok":true}`, ts.Scope.Session.Variables["webhook_response"])
}

func TestWebhookNode_TransportErrorAdvances(t *testing.T) {
	ts := testutil.CreateTestScope()

	node, err := NewWebhookNode("w1", map[string]any{
		"url": "http://127.0.0.1:1/unreachable",
	})
	require.NoError(t, err)

	outcome, err := node.Execute(context.Background(), ts.Scope)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeAdvance, outcome.Kind)
	assert.NotEmpty(t, ts.Scope.Session.Variables["webhook_error"])
}
