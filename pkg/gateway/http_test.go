package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jornadaflow/jornada/pkg/models"
)

func TestSendDelivers(t *testing.T) {
	var received sendRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		_ = json.NewEncoder(w).Encode(sendResponse{OK: true, MessageID: "wamid-1"})
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, APIKey: "secret"}, slog.New(slog.DiscardHandler))

	receipt, err := client.Send(context.Background(), models.OutboundMessage{
		ChannelInstance: "channel-1",
		Recipient:       "+5511999990000",
		Kind:            models.MessageKindText,
		Content:         "oi",
	})
	require.NoError(t, err)

	assert.True(t, receipt.OK)
	assert.Equal(t, "wamid-1", receipt.RemoteMessageID)
	assert.Equal(t, "channel-1", received.ChannelInstance)
	assert.Equal(t, "text", received.Kind)
}

func TestSendRejectionIsNotOKReceipt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(sendResponse{OK: false, Error: "instance disconnected"})
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL}, slog.New(slog.DiscardHandler))

	receipt, err := client.Send(context.Background(), models.OutboundMessage{Kind: models.MessageKindText})
	require.NoError(t, err, "a gateway rejection is a receipt, not an error")

	assert.False(t, receipt.OK)
	assert.Equal(t, "instance disconnected", receipt.ErrorDetails)
}

func TestSendTransportFailureIsError(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1"}, slog.New(slog.DiscardHandler))

	_, err := client.Send(context.Background(), models.OutboundMessage{Kind: models.MessageKindText})
	require.Error(t, err)
}
