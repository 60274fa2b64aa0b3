// Package gateway implements the messaging gateway client: the HTTP bridge
// between the interpreter and the chat provider that actually delivers
// messages to contacts.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jornadaflow/jornada/pkg/models"
)

const (
	defaultTimeout = 30 * time.Second
	maxResponseLen = 64 * 1024
)

// Config holds the gateway client settings.
type Config struct {
	// BaseURL is the gateway's root endpoint, without a trailing slash.
	BaseURL string

	// APIKey is sent as a bearer token when set.
	APIKey string

	// Timeout bounds one send round-trip. Zero means the default.
	Timeout time.Duration
}

// Client sends outbound messages over HTTP. A transport failure is an
// error; a delivery problem reported by the gateway is a not-ok receipt.
type Client struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

// NewClient creates a gateway client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

type sendRequest struct {
	ChannelInstance string `json:"channel_instance"`
	Recipient       string `json:"recipient"`
	Kind            string `json:"kind"`
	Content         string `json:"content,omitempty"`
	MediaRef        string `json:"media_ref,omitempty"`
	ReplyToID       string `json:"reply_to_id,omitempty"`
	TypingDelayMs   int64  `json:"typing_delay_ms,omitempty"`
}

type sendResponse struct {
	OK        bool   `json:"ok"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Send delivers one message through the gateway.
func (c *Client) Send(ctx context.Context, msg models.OutboundMessage) (models.SendReceipt, error) {
	payload, err := json.Marshal(sendRequest{
		ChannelInstance: msg.ChannelInstance,
		Recipient:       msg.Recipient,
		Kind:            string(msg.Kind),
		Content:         msg.Content,
		MediaRef:        msg.MediaRef,
		ReplyToID:       msg.ReplyToID,
		TypingDelayMs:   msg.TypingDelay.Milliseconds(),
	})
	if err != nil {
		return models.SendReceipt{}, fmt.Errorf("failed to encode send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return models.SendReceipt{}, fmt.Errorf("failed to build send request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return models.SendReceipt{}, fmt.Errorf("gateway unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseLen))
	if err != nil {
		return models.SendReceipt{}, fmt.Errorf("failed to read gateway response: %w", err)
	}

	var decoded sendResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return models.SendReceipt{
			OK:           false,
			ErrorDetails: fmt.Sprintf("gateway returned status %d with unparseable body", resp.StatusCode),
		}, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !decoded.OK {
		details := decoded.Error
		if details == "" {
			details = fmt.Sprintf("gateway returned status %d", resp.StatusCode)
		}

		c.logger.WarnContext(ctx, "Gateway rejected send",
			"status", resp.StatusCode, "details", details)

		return models.SendReceipt{OK: false, ErrorDetails: details}, nil
	}

	return models.SendReceipt{OK: true, RemoteMessageID: decoded.MessageID}, nil
}
