package aichat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jornadaflow/jornada/pkg/models"
	"github.com/jornadaflow/jornada/pkg/testutil"
)

func TestConverterNode_OpensDialogue(t *testing.T) {
	ts := testutil.CreateTestScope()
	ts.Judge.GenerateResult = "Oi! Como posso ajudar?"

	node, err := NewConverterNode("ia1", map[string]any{"prompt": "venda o plano"})
	require.NoError(t, err)

	outcome, err := node.Execute(context.Background(), ts.Scope)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeSuspend, outcome.Kind)
	assert.Equal(t, models.SuspendWaitingReply, outcome.Suspend)

	require.Len(t, ts.Sender.Sent, 1)
	assert.Equal(t, "ia1:turn:1", ts.Sender.Sent[0].NodeID)
	assert.Equal(t, "Oi! Como posso ajudar?", ts.Sender.Sent[0].Message.Content)

	st := ts.Scope.Session.ChatStateFor("ia1", false)
	require.NotNil(t, st)
	assert.Equal(t, 1, st.Turns)
}

func TestConverterNode_PerTurnSendKeys(t *testing.T) {
	ts := testutil.CreateTestScope(testutil.WithInvocation(models.Invocation{UserInput: "me conta mais"}))
	ts.Judge.GenerateResult = "claro!"

	node, err := NewConverterNode("ia1", map[string]any{"prompt": "venda"})
	require.NoError(t, err)

	st := ts.Scope.Session.ChatStateFor("ia1", true)
	st.Turns = 2

	_, err = node.Execute(context.Background(), ts.Scope)
	require.NoError(t, err)

	require.Len(t, ts.Sender.Sent, 1)
	assert.Equal(t, "ia1:turn:3", ts.Sender.Sent[0].NodeID)
}

func TestConverterNode_ExitKeywordEndsDialogue(t *testing.T) {
	ts := testutil.CreateTestScope(testutil.WithInvocation(models.Invocation{UserInput: "Quero FALAR com atendente"}))

	node, err := NewConverterNode("ia1", map[string]any{
		"prompt":        "venda",
		"exit_keywords": []any{"atendente", "parar"},
		"variable":      "ultima_resposta",
	})
	require.NoError(t, err)

	ts.Scope.Session.ChatStateFor("ia1", true).Turns = 1

	outcome, err := node.Execute(context.Background(), ts.Scope)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeAdvance, outcome.Kind)
	assert.Empty(t, ts.Sender.Sent)
	assert.Equal(t, "Quero FALAR com atendente", ts.Scope.Session.Variables["ultima_resposta"])
	assert.Nil(t, ts.Scope.Session.ChatStateFor("ia1", false))
}

func TestConverterNode_TurnBudgetEndsDialogue(t *testing.T) {
	ts := testutil.CreateTestScope(testutil.WithInvocation(models.Invocation{UserInput: "e ai"}))

	node, err := NewConverterNode("ia1", map[string]any{"prompt": "venda", "max_turns": 2})
	require.NoError(t, err)

	ts.Scope.Session.ChatStateFor("ia1", true).Turns = 2

	outcome, err := node.Execute(context.Background(), ts.Scope)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeAdvance, outcome.Kind)
	assert.Empty(t, ts.Sender.Sent)
}

func TestConverterNode_GenerationFailureEndsDialogue(t *testing.T) {
	ts := testutil.CreateTestScope()
	ts.Judge.GenerateErr = testutil.ErrFake

	node, err := NewConverterNode("ia1", map[string]any{"prompt": "venda"})
	require.NoError(t, err)

	outcome, err := node.Execute(context.Background(), ts.Scope)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeAdvance, outcome.Kind)
	assert.Empty(t, ts.Sender.Sent)
}

func TestConverterNode_TranscriptFeedsPrompt(t *testing.T) {
	ts := testutil.CreateTestScope(testutil.WithInvocation(models.Invocation{UserInput: "quanto custa?"}))
	ts.Judge.GenerateResult = "R$ 49,90 por mes"

	node, err := NewConverterNode("ia1", map[string]any{"prompt": "venda o plano"})
	require.NoError(t, err)

	st := ts.Scope.Session.ChatStateFor("ia1", true)
	st.Turns = 1
	st.History = []string{"assistente: Oi! Como posso ajudar?"}

	_, err = node.Execute(context.Background(), ts.Scope)
	require.NoError(t, err)

	require.Len(t, ts.Judge.Prompts, 1)
	assert.Contains(t, ts.Judge.Prompts[0], "venda o plano")
	assert.Contains(t, ts.Judge.Prompts[0], "assistente: Oi! Como posso ajudar?")
	assert.Contains(t, ts.Judge.Prompts[0], "contato: quanto custa?")
}
