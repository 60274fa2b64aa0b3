package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/jornadaflow/jornada/pkg/models"
	"github.com/jornadaflow/jornada/pkg/protocol"
)

// sender is the engine-owned send path. Order matters: the idempotency set
// is checked before the pause gate so a duplicate short-circuits without
// re-suspending, and persisted immediately after a successful send so a
// crash between send and the next checkpoint cannot re-deliver.
type sender struct {
	run *runState
}

func (s *sender) Send(ctx context.Context, key string, msg models.OutboundMessage) (protocol.SendStatus, error) {
	run := s.run
	engine := run.engine
	session := run.session
	now := engine.now()

	if session.HasSent(key) {
		engine.logger.DebugContext(ctx, "Skipping duplicate send",
			"session_id", session.ID, "send_key", key)

		return protocol.SendSkippedDuplicate, nil
	}

	if engine.cfg.Pause != nil && engine.cfg.Pause.Active(now) && !run.inv.ResumeFromPause {
		engine.logger.InfoContext(ctx, "Send blocked by pause window",
			"session_id", session.ID, "send_key", key)

		return protocol.SendPaused, nil
	}

	receipt, err := engine.gateway.Send(ctx, msg)
	if err != nil || !receipt.OK {
		reason := receipt.ErrorDetails
		if err != nil {
			reason = err.Error()
		}

		return s.fail(ctx, key, msg, reason)
	}

	session.MarkSent(key)
	session.Internal.PausedNodeID = ""
	session.Internal.LastSendFailure = nil

	if err := run.save(ctx); err != nil {
		return protocol.SendFailed, err
	}

	run.record("sent:" + key)
	engine.events.Emit(ctx, "message.sent", map[string]any{
		"session_id": session.ID,
		"send_key":   key,
		"kind":       string(msg.Kind),
		"remote_id":  receipt.RemoteMessageID,
	})

	return protocol.SendDelivered, nil
}

// fail records the send failure on the session, flags a disconnected
// channel when the gateway error phrasing says so, and persists before
// reporting SendFailed.
func (s *sender) fail(ctx context.Context, key string, msg models.OutboundMessage, reason string) (protocol.SendStatus, error) {
	run := s.run
	engine := run.engine
	session := run.session

	engine.logger.ErrorContext(ctx, "Gateway send failed",
		"session_id", session.ID, "send_key", key, "reason", reason)

	session.Internal.LastSendFailure = &models.SendFailure{
		NodeID: key,
		Reason: reason,
		At:     engine.now(),
	}

	if msg.ChannelInstance != "" && engine.isDisconnectPhrase(reason) {
		if markErr := engine.persist.ChannelRepository().MarkDisconnected(ctx, msg.ChannelInstance, reason); markErr != nil {
			engine.logger.ErrorContext(ctx, "Failed to mark channel disconnected",
				"channel_instance_id", msg.ChannelInstance, "error", markErr)
		} else {
			engine.events.Emit(ctx, "channel.disconnected", map[string]any{
				"channel_instance_id": msg.ChannelInstance,
				"session_id":          session.ID,
				"reason":              reason,
			})
		}
	}

	if err := run.save(ctx); err != nil {
		return protocol.SendFailed, fmt.Errorf("failed to persist send failure: %w", err)
	}

	return protocol.SendFailed, nil
}

func (e *Engine) isDisconnectPhrase(reason string) bool {
	lowered := strings.ToLower(reason)

	for _, phrase := range e.cfg.DisconnectPhrases {
		if phrase != "" && strings.Contains(lowered, strings.ToLower(phrase)) {
			return true
		}
	}

	return false
}
