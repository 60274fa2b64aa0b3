package message

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jornadaflow/jornada/pkg/models"
	"github.com/jornadaflow/jornada/pkg/protocol"
	"github.com/jornadaflow/jornada/pkg/testutil"
)

func TestNewTextNode(t *testing.T) {
	node, err := NewTextNode("n1", map[string]any{
		"content":         "Oi {{name}}",
		"typing_delay_ms": 1500,
	})
	require.NoError(t, err)
	assert.Equal(t, "n1", node.ID())
	assert.Equal(t, models.NodeKindText, node.Kind())
	assert.Equal(t, "Oi {{name}}", node.content)
	assert.Equal(t, 1500, node.typingDelay)
}

func TestNewTextNode_MissingContent(t *testing.T) {
	_, err := NewTextNode("n1", map[string]any{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "content")
}

func TestTextNode_RendersVariables(t *testing.T) {
	ts := testutil.CreateTestScope(testutil.WithSession(
		testutil.CreateTestSession(testutil.WithVariables(map[string]any{"name": "Maria"})),
	))

	node, err := NewTextNode("n1", map[string]any{"content": "Oi {{name}}!"})
	require.NoError(t, err)

	outcome, err := node.Execute(context.Background(), ts.Scope)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeAdvance, outcome.Kind)

	require.Len(t, ts.Sender.Sent, 1)
	sent := ts.Sender.Sent[0]
	assert.Equal(t, "n1", sent.NodeID)
	assert.Equal(t, models.MessageKindText, sent.Message.Kind)
	assert.Equal(t, "Oi Maria!", sent.Message.Content)
	assert.Equal(t, ts.Scope.Session.ChannelInstanceID, sent.Message.ChannelInstance)
	assert.Equal(t, ts.Scope.Contact.Phone, sent.Message.Recipient)
}

func TestTextNode_PausedSuspends(t *testing.T) {
	ts := testutil.CreateTestScope(testutil.WithSendStatus(protocol.SendPaused))

	node, err := NewTextNode("n1", map[string]any{"content": "oi"})
	require.NoError(t, err)

	outcome, err := node.Execute(context.Background(), ts.Scope)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeSuspend, outcome.Kind)
	assert.Equal(t, models.SuspendPaused, outcome.Suspend)
}

func TestTextNode_SendFailureSuspends(t *testing.T) {
	ts := testutil.CreateTestScope(testutil.WithSendStatus(protocol.SendFailed))

	node, err := NewTextNode("n1", map[string]any{"content": "oi"})
	require.NoError(t, err)

	outcome, err := node.Execute(context.Background(), ts.Scope)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeSuspend, outcome.Kind)
	assert.Equal(t, models.SuspendSendFailure, outcome.Suspend)
}

func TestTextNode_DuplicateAdvances(t *testing.T) {
	ts := testutil.CreateTestScope(testutil.WithSendStatus(protocol.SendSkippedDuplicate))

	node, err := NewTextNode("n1", map[string]any{"content": "oi"})
	require.NoError(t, err)

	outcome, err := node.Execute(context.Background(), ts.Scope)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeAdvance, outcome.Kind)
}

func TestAITextNode_Paraphrases(t *testing.T) {
	ts := testutil.CreateTestScope()
	ts.Judge.ParaphraseResult = "rephrased copy"

	node, err := NewAITextNode("n1", map[string]any{"content": "original copy"})
	require.NoError(t, err)

	_, err = node.Execute(context.Background(), ts.Scope)
	require.NoError(t, err)

	require.Len(t, ts.Sender.Sent, 1)
	assert.Equal(t, "rephrased copy", ts.Sender.Sent[0].Message.Content)
}

func TestAITextNode_DegradesToOriginal(t *testing.T) {
	ts := testutil.CreateTestScope()
	ts.Judge.ParaphraseErr = testutil.ErrFake

	node, err := NewAITextNode("n1", map[string]any{"content": "original copy"})
	require.NoError(t, err)

	_, err = node.Execute(context.Background(), ts.Scope)
	require.NoError(t, err)

	require.Len(t, ts.Sender.Sent, 1)
	assert.Equal(t, "original copy", ts.Sender.Sent[0].Message.Content)
}

func TestAITextNode_SkipsParaphraseWhenAlreadySent(t *testing.T) {
	ts := testutil.CreateTestScope(
		testutil.WithSession(testutil.CreateTestSession(testutil.WithSentNodes("n1"))),
		testutil.WithSendStatus(protocol.SendSkippedDuplicate),
	)
	ts.Judge.ParaphraseResult = "should not be used"

	node, err := NewAITextNode("n1", map[string]any{"content": "original copy"})
	require.NoError(t, err)

	outcome, err := node.Execute(context.Background(), ts.Scope)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeAdvance, outcome.Kind)
	require.Len(t, ts.Sender.Sent, 1)
	assert.Equal(t, "original copy", ts.Sender.Sent[0].Message.Content)
}

func TestNewMediaNode_RejectsNonMediaKind(t *testing.T) {
	_, err := NewMediaNode(models.NodeKindText)("n1", map[string]any{"media_ref": "x"})
	assert.Error(t, err)
}

func TestMediaNode_SendsAttachment(t *testing.T) {
	ts := testutil.CreateTestScope(testutil.WithSession(
		testutil.CreateTestSession(testutil.WithVariables(map[string]any{"name": "Maria"})),
	))

	node, err := NewMediaNode(models.NodeKindImage)("n1", map[string]any{
		"media_ref": "https://cdn.example.com/banner.png",
		"caption":   "Para voce, {{name}}",
	})
	require.NoError(t, err)
	assert.Equal(t, models.NodeKindImage, node.Kind())

	outcome, err := node.Execute(context.Background(), ts.Scope)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeAdvance, outcome.Kind)

	require.Len(t, ts.Sender.Sent, 1)
	sent := ts.Sender.Sent[0].Message
	assert.Equal(t, models.MessageKindImage, sent.Kind)
	assert.Equal(t, "https://cdn.example.com/banner.png", sent.MediaRef)
	assert.Equal(t, "Para voce, Maria", sent.Content)
}

func TestNewInteractiveNode_OptionMaps(t *testing.T) {
	node, err := NewInteractiveNode("n1", map[string]any{
		"text": "Escolha:",
		"options": []any{
			map[string]any{"label": "Sim"},
			map[string]any{"label": "Nao"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Sim", "Nao"}, node.options)
}

func TestInteractiveNode_NumbersOptions(t *testing.T) {
	ts := testutil.CreateTestScope()

	node, err := NewInteractiveNode("n1", map[string]any{
		"text":    "Escolha:",
		"options": []any{"Sim", "Nao"},
	})
	require.NoError(t, err)

	_, err = node.Execute(context.Background(), ts.Scope)
	require.NoError(t, err)

	require.Len(t, ts.Sender.Sent, 1)
	assert.Equal(t, "Escolha:\n1. Sim\n2. Nao", ts.Sender.Sent[0].Message.Content)
}

func TestNewInteractiveNode_MissingOptions(t *testing.T) {
	_, err := NewInteractiveNode("n1", map[string]any{"text": "Escolha:"})
	assert.Error(t, err)
}

func TestPixKeyNode_WithLeadIn(t *testing.T) {
	ts := testutil.CreateTestScope()

	node, err := NewPixKeyNode("n1", map[string]any{
		"pix_key": "chave@example.com",
		"message": "Segue a chave:",
	})
	require.NoError(t, err)

	_, err = node.Execute(context.Background(), ts.Scope)
	require.NoError(t, err)

	require.Len(t, ts.Sender.Sent, 1)
	assert.Equal(t, "Segue a chave:\nchave@example.com", ts.Sender.Sent[0].Message.Content)
}

func TestPixKeyNode_KeyOnly(t *testing.T) {
	ts := testutil.CreateTestScope()

	node, err := NewPixKeyNode("n1", map[string]any{"pix_key": "chave@example.com"})
	require.NoError(t, err)

	_, err = node.Execute(context.Background(), ts.Scope)
	require.NoError(t, err)

	require.Len(t, ts.Sender.Sent, 1)
	assert.Equal(t, "chave@example.com", ts.Sender.Sent[0].Message.Content)
}

func TestChargeNode_FormatsAmount(t *testing.T) {
	ts := testutil.CreateTestScope()

	node, err := NewChargeNode("n1", map[string]any{
		"amount":      49.9,
		"description": "Mensalidade",
	})
	require.NoError(t, err)

	_, err = node.Execute(context.Background(), ts.Scope)
	require.NoError(t, err)

	require.Len(t, ts.Sender.Sent, 1)
	assert.Equal(t, "Mensalidade\nR$ 49.90", ts.Sender.Sent[0].Message.Content)
}

func TestNewChargeNode_RejectsZeroAmount(t *testing.T) {
	_, err := NewChargeNode("n1", map[string]any{"amount": 0})
	assert.Error(t, err)
}
