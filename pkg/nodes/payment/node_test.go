package payment

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jornadaflow/jornada/pkg/models"
	"github.com/jornadaflow/jornada/pkg/testutil"
)

func inbound(kind models.MessageKind, at time.Time) models.InboundMessage {
	return models.InboundMessage{
		ID:         fmt.Sprintf("m-%d", at.UnixNano()),
		Kind:       kind,
		MediaRef:   "ref",
		ReceivedAt: at,
	}
}

func TestPaymentNode_FirstArrivalArmsGraceTimer(t *testing.T) {
	ts := testutil.CreateTestScope()

	node, err := NewPaymentNode("p1", map[string]any{"no_response_grace": 900})
	require.NoError(t, err)

	outcome, err := node.Execute(context.Background(), ts.Scope)
	require.NoError(t, err)
	assert.Equal(t, models.SuspendWaitingPayment, outcome.Suspend)

	st := ts.Scope.Session.PaymentStateFor("p1", false)
	require.NotNil(t, st)
	assert.Equal(t, ts.Now, st.Since)
	require.NotNil(t, st.NoResponseAt)

	timer, ok := ts.Timers.Pending(ts.Scope.Session.ID)
	require.True(t, ok)
	assert.Equal(t, models.TimerReasonPaymentNoResponse, timer.Reason)
	assert.Equal(t, ts.Now.Add(15*time.Minute), timer.RunAt)
}

func TestPaymentNode_EveryKindBurnsAnAttempt(t *testing.T) {
	ts := testutil.CreateTestScope()
	ts.Messages.Messages = []models.InboundMessage{
		inbound(models.MessageKindText, ts.Now.Add(time.Minute)),
		inbound(models.MessageKindAudio, ts.Now.Add(2*time.Minute)),
		inbound(models.MessageKindVideo, ts.Now.Add(3*time.Minute)),
	}

	node, err := NewPaymentNode("p1", map[string]any{"max_attempts": 3})
	require.NoError(t, err)

	st := ts.Scope.Session.PaymentStateFor("p1", true)
	st.Since = ts.Now

	outcome, err := node.Execute(context.Background(), ts.Scope)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeAdvance, outcome.Kind)
	assert.Equal(t, models.EdgeLabelNotPaid, outcome.NextLabel)

	// Non-attachment kinds never reach the judge.
	assert.Empty(t, ts.Judge.Classified)
	assert.Nil(t, ts.Scope.Session.PaymentStateFor("p1", false))
}

func TestPaymentNode_ValidReceiptRoutesPaid(t *testing.T) {
	ts := testutil.CreateTestScope()
	ts.Messages.Messages = []models.InboundMessage{
		inbound(models.MessageKindImage, ts.Now.Add(time.Minute)),
	}
	ts.Judge.Verdict = models.ReceiptVerdict{IsReceipt: true, Confidence: 0.92}

	node, err := NewPaymentNode("p1", map[string]any{})
	require.NoError(t, err)

	st := ts.Scope.Session.PaymentStateFor("p1", true)
	st.Since = ts.Now

	outcome, err := node.Execute(context.Background(), ts.Scope)
	require.NoError(t, err)
	assert.Equal(t, models.EdgeLabelPaid, outcome.NextLabel)
	assert.Len(t, ts.Judge.Classified, 1)
	assert.Nil(t, ts.Scope.Session.PaymentStateFor("p1", false))
	assert.Contains(t, ts.Timers.Cancelled, ts.Scope.Session.ID)
}

func TestPaymentNode_AllowListDowngradesForeignReceipt(t *testing.T) {
	ts := testutil.CreateTestScope()
	ts.Messages.Messages = []models.InboundMessage{
		inbound(models.MessageKindImage, ts.Now.Add(time.Minute)),
	}
	ts.Judge.Verdict = models.ReceiptVerdict{
		IsReceipt:     true,
		RecipientName: "Outro Fulano",
		RecipientID:   "000.111.222-33",
	}

	node, err := NewPaymentNode("p1", map[string]any{
		"max_attempts": 1,
		"allowed_recipients": []any{
			map[string]any{"name": "Maria Silva", "identifier": "123.456.789-00"},
		},
	})
	require.NoError(t, err)

	st := ts.Scope.Session.PaymentStateFor("p1", true)
	st.Since = ts.Now

	outcome, err := node.Execute(context.Background(), ts.Scope)
	require.NoError(t, err)
	assert.Equal(t, models.EdgeLabelNotPaid, outcome.NextLabel)
}

func TestPaymentNode_AllowListAcceptsRegisteredRecipient(t *testing.T) {
	ts := testutil.CreateTestScope()
	ts.Messages.Messages = []models.InboundMessage{
		inbound(models.MessageKindDocument, ts.Now.Add(time.Minute)),
	}
	ts.Judge.Verdict = models.ReceiptVerdict{
		IsReceipt:     true,
		RecipientName: "MARIA SILVA LTDA",
	}

	node, err := NewPaymentNode("p1", map[string]any{
		"allowed_recipients": []any{
			map[string]any{"name": "maria silva"},
		},
	})
	require.NoError(t, err)

	st := ts.Scope.Session.PaymentStateFor("p1", true)
	st.Since = ts.Now

	outcome, err := node.Execute(context.Background(), ts.Scope)
	require.NoError(t, err)
	assert.Equal(t, models.EdgeLabelPaid, outcome.NextLabel)
}

func TestPaymentNode_ClassifierErrorBurnsAttempt(t *testing.T) {
	ts := testutil.CreateTestScope()
	ts.Messages.Messages = []models.InboundMessage{
		inbound(models.MessageKindImage, ts.Now.Add(time.Minute)),
	}
	ts.Judge.VerdictErr = testutil.ErrFake

	node, err := NewPaymentNode("p1", map[string]any{"max_attempts": 2})
	require.NoError(t, err)

	st := ts.Scope.Session.PaymentStateFor("p1", true)
	st.Since = ts.Now

	outcome, err := node.Execute(context.Background(), ts.Scope)
	require.NoError(t, err)
	assert.Equal(t, models.SuspendWaitingPayment, outcome.Suspend)
	assert.Equal(t, 1, ts.Scope.Session.PaymentStateFor("p1", false).Attempts)
}

func TestPaymentNode_InboundActivityCancelsNoResponse(t *testing.T) {
	ts := testutil.CreateTestScope()
	ts.Messages.Messages = []models.InboundMessage{
		inbound(models.MessageKindText, ts.Now.Add(time.Minute)),
	}

	node, err := NewPaymentNode("p1", map[string]any{"max_attempts": 3, "no_response_grace": 900})
	require.NoError(t, err)

	st := ts.Scope.Session.PaymentStateFor("p1", true)
	st.Since = ts.Now
	at := ts.Now.Add(15 * time.Minute)
	st.NoResponseAt = &at

	outcome, err := node.Execute(context.Background(), ts.Scope)
	require.NoError(t, err)
	assert.Equal(t, models.SuspendWaitingPayment, outcome.Suspend)
	assert.Nil(t, ts.Scope.Session.PaymentStateFor("p1", false).NoResponseAt)
	assert.Contains(t, ts.Timers.Cancelled, ts.Scope.Session.ID)
}

func TestPaymentNode_NoResponseFiresOnSilence(t *testing.T) {
	ts := testutil.CreateTestScope(testutil.WithInvocation(models.Invocation{ResumeFromNoResponse: true}))

	node, err := NewPaymentNode("p1", map[string]any{"no_response_grace": 900})
	require.NoError(t, err)

	st := ts.Scope.Session.PaymentStateFor("p1", true)
	st.Since = ts.Now.Add(-15 * time.Minute)
	at := ts.Now
	st.NoResponseAt = &at

	outcome, err := node.Execute(context.Background(), ts.Scope)
	require.NoError(t, err)
	assert.Equal(t, models.EdgeLabelNoResponse, outcome.NextLabel)
	assert.Nil(t, ts.Scope.Session.PaymentStateFor("p1", false))
}

func TestPaymentNode_StaleNoResponseWakeUpKeepsWaiting(t *testing.T) {
	ts := testutil.CreateTestScope(testutil.WithInvocation(models.Invocation{ResumeFromNoResponse: true}))

	node, err := NewPaymentNode("p1", map[string]any{"no_response_grace": 900})
	require.NoError(t, err)

	st := ts.Scope.Session.PaymentStateFor("p1", true)
	st.Since = ts.Now.Add(-15 * time.Minute)
	st.Attempts = 1

	outcome, err := node.Execute(context.Background(), ts.Scope)
	require.NoError(t, err)
	assert.Equal(t, models.SuspendWaitingPayment, outcome.Suspend)
}

func TestSharedDigitRun(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"123.456.789-00", "12345678900", 11},
		{"doc 123456", "123456", 6},
		{"111222", "333444", 0},
		{"", "123456", 0},
		{"abc", "def", 0},
		{"987123456", "00123456", 6},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, sharedDigitRun(tt.a, tt.b), "%q vs %q", tt.a, tt.b)
	}
}

func TestMatchesRecipient_DigitRunThreshold(t *testing.T) {
	verdict := models.ReceiptVerdict{RecipientID: "12345"}
	assert.False(t, matchesRecipient(verdict, Recipient{Identifier: "12345"}))

	verdict.RecipientID = "123456"
	assert.True(t, matchesRecipient(verdict, Recipient{Identifier: "99-123456-7"}))
}
