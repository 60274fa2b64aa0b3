package action

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jornadaflow/jornada/pkg/models"
	nodeconfig "github.com/jornadaflow/jornada/pkg/nodes/config"
	"github.com/jornadaflow/jornada/pkg/protocol"
)

const (
	defaultWebhookTimeout = 30 * time.Second
	maxWebhookBody        = 64 * 1024
)

// WebhookNode calls an external HTTP endpoint. The call is fire-and-observe:
// any transport or HTTP error is recorded into the result variables and the
// flow advances regardless.
type WebhookNode struct {
	id      string
	url     string
	method  string
	headers map[string]string
	body    string
	client  *http.Client
}

// NewWebhookNode creates a webhook node handler.
func NewWebhookNode(id string, cfg map[string]any) (*WebhookNode, error) {
	url, err := nodeconfig.String(cfg, "url")
	if err != nil {
		return nil, err
	}

	headers := make(map[string]string)
	if raw, ok := cfg["headers"].(map[string]any); ok {
		for k, v := range raw {
			if s, ok := v.(string); ok {
				headers[k] = s
			}
		}
	}

	timeout := nodeconfig.DurationOr(cfg, "timeout", defaultWebhookTimeout)

	return &WebhookNode{
		id:      id,
		url:     url,
		method:  strings.ToUpper(nodeconfig.StringOr(cfg, "method", http.MethodPost)),
		headers: headers,
		body:    nodeconfig.StringOr(cfg, "body", ""),
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func (n *WebhookNode) ID() string            { return n.id }
func (n *WebhookNode) Kind() models.NodeKind { return models.NodeKindWebhook }

func (n *WebhookNode) Execute(ctx context.Context, scope *protocol.ExecutionScope) (models.Outcome, error) {
	status, body, err := n.call(ctx, scope)
	if err != nil {
		scope.Logger.Warn("webhook call degraded", "node_id", n.id, "url", n.url, "error", err)
		scope.Session.SetVariable("webhook_error", err.Error())

		return models.Advance(""), nil
	}

	scope.Session.SetVariable("webhook_status", fmt.Sprintf("%d", status))
	scope.Session.SetVariable("webhook_response", body)

	return models.Advance(""), nil
}

func (n *WebhookNode) call(ctx context.Context, scope *protocol.ExecutionScope) (int, string, error) {
	var reqBody io.Reader
	if n.body != "" {
		reqBody = strings.NewReader(scope.RenderString(n.body))
	}

	req, err := http.NewRequestWithContext(ctx, n.method, scope.RenderString(n.url), reqBody)
	if err != nil {
		return 0, "", err
	}

	for k, v := range n.headers {
		req.Header.Set(k, scope.RenderString(v))
	}

	if n.body != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxWebhookBody))
	if err != nil {
		return resp.StatusCode, "", err
	}

	return resp.StatusCode, string(body), nil
}
