// Package aichat provides the iaConverter node: an open-ended AI dialogue
// loop that keeps the contact talking until an exit keyword shows up or the
// turn budget runs out.
package aichat

import (
	"context"
	"fmt"
	"strings"

	"github.com/jornadaflow/jornada/pkg/models"
	nodeconfig "github.com/jornadaflow/jornada/pkg/nodes/config"
	"github.com/jornadaflow/jornada/pkg/protocol"
	"github.com/jornadaflow/jornada/pkg/template"
)

const (
	defaultMaxTurns   = 10
	chatHistoryLimit  = 10
	transcriptUserTag = "contato"
	transcriptBotTag  = "assistente"
)

// ConverterNode runs the dialogue loop. Each generated turn is sent under
// a per-turn key so the idempotency set never swallows the next reply.
type ConverterNode struct {
	id           string
	prompt       string
	exitKeywords []string
	maxTurns     int
	variable     string
}

// NewConverterNode creates an iaConverter node handler.
func NewConverterNode(id string, cfg map[string]any) (*ConverterNode, error) {
	prompt, err := nodeconfig.String(cfg, "prompt")
	if err != nil {
		return nil, err
	}

	return &ConverterNode{
		id:           id,
		prompt:       prompt,
		exitKeywords: nodeconfig.Strings(cfg, "exit_keywords"),
		maxTurns:     nodeconfig.IntOr(cfg, "max_turns", defaultMaxTurns),
		variable:     nodeconfig.StringOr(cfg, "variable", ""),
	}, nil
}

func (n *ConverterNode) ID() string            { return n.id }
func (n *ConverterNode) Kind() models.NodeKind { return models.NodeKindIAConverter }

func (n *ConverterNode) Execute(ctx context.Context, scope *protocol.ExecutionScope) (models.Outcome, error) {
	session := scope.Session
	st := session.ChatStateFor(n.id, true)

	if scope.Invocation.HasInput() {
		input := scope.Invocation.UserInput
		st.History = append(st.History, transcriptUserTag+": "+input)

		if n.variable != "" {
			session.SetVariable(n.variable, input)
		}

		if n.shouldExit(input, st) {
			delete(session.Internal.Chat, n.id)

			return models.Advance(""), nil
		}
	} else if st.Turns >= n.maxTurns {
		delete(session.Internal.Chat, n.id)

		return models.Advance(""), nil
	}

	reply, err := n.generate(ctx, scope, st)
	if err != nil {
		// Degraded generation ends the dialogue instead of looping on
		// silence.
		scope.Logger.Warn("dialogue generation degraded", "node_id", n.id, "error", err)
		delete(session.Internal.Chat, n.id)

		return models.Advance(""), nil
	}

	st.Turns++
	st.History = append(st.History, transcriptBotTag+": "+reply)

	status, err := scope.Sender.Send(ctx, fmt.Sprintf("%s:turn:%d", n.id, st.Turns), models.OutboundMessage{
		ChannelInstance: session.ChannelInstanceID,
		Recipient:       scope.Contact.Phone,
		Kind:            models.MessageKindText,
		Content:         reply,
	})
	if err != nil {
		return models.Outcome{}, err
	}

	switch status {
	case protocol.SendPaused:
		return models.Suspend(models.SuspendPaused), nil
	case protocol.SendFailed:
		return models.Suspend(models.SuspendSendFailure), nil
	}

	return models.Suspend(models.SuspendWaitingReply), nil
}

func (n *ConverterNode) shouldExit(input string, st *models.ChatState) bool {
	if st.Turns >= n.maxTurns {
		return true
	}

	for _, keyword := range n.exitKeywords {
		if template.NormalizedContains(input, keyword) {
			return true
		}
	}

	return false
}

func (n *ConverterNode) generate(ctx context.Context, scope *protocol.ExecutionScope, st *models.ChatState) (string, error) {
	prompt := scope.RenderString(n.prompt)
	if len(st.History) > 0 {
		prompt += "\n\n" + strings.Join(st.History, "\n")
	}

	history, err := scope.Messages.Recent(ctx, scope.Session.ID, chatHistoryLimit)
	if err != nil {
		history = nil
	}

	jc := models.JudgeContext{History: history}
	if scope.Contact != nil {
		jc.Tags = scope.Contact.Tags
	}

	reply, err := scope.Judge.Generate(ctx, prompt, jc)
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(reply) == "" {
		return "", fmt.Errorf("empty generation for node %s", n.id)
	}

	return reply, nil
}
