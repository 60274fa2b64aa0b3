// Package ai implements the HTTP client for the AI judgment service:
// boolean condition judging, payment receipt classification, paraphrasing
// and free-form generation.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jornadaflow/jornada/pkg/models"
)

const (
	defaultTimeout = 45 * time.Second
	maxResponseLen = 256 * 1024

	answerTrue  = "sim"
	answerFalse = "nao"
)

// Config holds the judgment service client settings.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client talks to the judgment service. Every method returns its
// conservative default alongside the error on failure, so callers that
// degrade instead of aborting can use the value directly.
type Client struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

// NewClient creates a judgment service client.
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

type judgeRequest struct {
	Criterion     string                  `json:"criterion"`
	History       []models.InboundMessage `json:"history,omitempty"`
	KnowledgeBase string                  `json:"knowledge_base,omitempty"`
	Tags          []string                `json:"tags,omitempty"`
}

type judgeResponse struct {
	Answer string `json:"answer"`
}

// Judge answers a natural-language boolean criterion. Any answer other than
// the affirmative token evaluates to false.
func (c *Client) Judge(ctx context.Context, criterion string, jc models.JudgeContext) (bool, error) {
	var decoded judgeResponse

	err := c.post(ctx, "/judge", judgeRequest{
		Criterion:     criterion,
		History:       jc.History,
		KnowledgeBase: jc.KnowledgeBase,
		Tags:          jc.Tags,
	}, &decoded)
	if err != nil {
		return false, err
	}

	answer := strings.ToLower(strings.TrimSpace(decoded.Answer))
	if answer != answerTrue && answer != answerFalse {
		c.logger.WarnContext(ctx, "Judge answered outside the allowed tokens",
			"answer", decoded.Answer)
	}

	return answer == answerTrue, nil
}

type classifyRequest struct {
	Kind     string `json:"kind"`
	MediaRef string `json:"media_ref"`
	Caption  string `json:"caption,omitempty"`
}

// ClassifyReceipt decides whether an attachment is a payment receipt.
func (c *Client) ClassifyReceipt(ctx context.Context, att models.Attachment) (models.ReceiptVerdict, error) {
	var verdict models.ReceiptVerdict

	err := c.post(ctx, "/classify-receipt", classifyRequest{
		Kind:     string(att.Kind),
		MediaRef: att.MediaRef,
		Caption:  att.Caption,
	}, &verdict)
	if err != nil {
		return models.ReceiptVerdict{}, err
	}

	return verdict, nil
}

type textRequest struct {
	Text string `json:"text"`
}

type textResponse struct {
	Text string `json:"text"`
}

// Paraphrase rewrites marketing copy. On failure the original text comes
// back, so callers can send it unchanged.
func (c *Client) Paraphrase(ctx context.Context, text string) (string, error) {
	var decoded textResponse

	if err := c.post(ctx, "/paraphrase", textRequest{Text: text}, &decoded); err != nil {
		return text, err
	}

	if strings.TrimSpace(decoded.Text) == "" {
		return text, nil
	}

	return decoded.Text, nil
}

type generateRequest struct {
	Prompt        string                  `json:"prompt"`
	History       []models.InboundMessage `json:"history,omitempty"`
	KnowledgeBase string                  `json:"knowledge_base,omitempty"`
	Tags          []string                `json:"tags,omitempty"`
}

// Generate produces free-form text for a prompt.
func (c *Client) Generate(ctx context.Context, prompt string, jc models.JudgeContext) (string, error) {
	var decoded textResponse

	err := c.post(ctx, "/generate", generateRequest{
		Prompt:        prompt,
		History:       jc.History,
		KnowledgeBase: jc.KnowledgeBase,
		Tags:          jc.Tags,
	}, &decoded)
	if err != nil {
		return "", err
	}

	return decoded.Text, nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("judgment service unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseLen))
	if err != nil {
		return fmt.Errorf("failed to read judgment response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("judgment service returned status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode judgment response: %w", err)
	}

	return nil
}
