package models

import "time"

// SessionStatus represents the lifecycle state of a session.
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
)

// Session is the mutable per-contact execution state for one flow. It is
// only ever mutated by the dispatcher while the processing lease is held.
type Session struct {
	ID                string         `json:"id"                  validate:"required"`
	FlowID            string         `json:"flow_id"             validate:"required"`
	ContactID         string         `json:"contact_id"          validate:"required"`
	ChannelInstanceID string         `json:"channel_instance_id"`
	CurrentNodeID     string         `json:"current_node_id"`
	Variables         map[string]any `json:"variables"`
	Internal          InternalState  `json:"internal"`
	Status            SessionStatus  `json:"status"`

	// Processing lease. Acquired by a single atomic conditional update,
	// stale leases may be taken over after the lease timeout.
	Processing          bool       `json:"processing"`
	ProcessingStartedAt *time.Time `json:"processing_started_at,omitempty"`

	TimeoutAt       *time.Time `json:"timeout_at,omitempty"`
	LastInteraction time.Time  `json:"last_interaction"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// InternalState is the interpreter's private bookkeeping, kept apart from
// the user-facing variable map so it can never collide with flow variables
// or leak through template substitution.
type InternalState struct {
	// SentNodeIDs is the idempotency set: message nodes already executed.
	// A node id is appended and persisted immediately after its send
	// succeeds, before the dispatch loop continues.
	SentNodeIDs []string `json:"sent_node_ids,omitempty"`

	// PendingDelay marks a long delay the session suspended on.
	PendingDelay *PendingDelay `json:"pending_delay,omitempty"`

	// Wait holds per-node waitInput state, keyed by node id.
	Wait map[string]*WaitState `json:"wait,omitempty"`

	// Payment holds per-node payment sub-machine state, keyed by node id
	// so multiple paymentIdentifier nodes in one flow don't collide.
	Payment map[string]*PaymentState `json:"payment,omitempty"`

	// Chat holds per-node open-ended AI dialogue state, keyed by node id.
	Chat map[string]*ChatState `json:"chat,omitempty"`

	// PausedNodeID is set while suspended on the pause-window gate; the
	// node is retried verbatim on resume.
	PausedNodeID string `json:"paused_node_id,omitempty"`

	// LastSendFailure freezes the session at a failing message node so an
	// operator or retry can resume from exactly that node.
	LastSendFailure *SendFailure `json:"last_send_failure,omitempty"`

	// LastError records an unrecoverable graph error that completed the
	// session.
	LastError string `json:"last_error,omitempty"`
}

// PendingDelay records a suspended long delay: the delay node and the
// wall-clock instant the session should resume at.
type PendingDelay struct {
	NodeID   string    `json:"node_id"`
	ResumeAt time.Time `json:"resume_at"`
}

// WaitState is the bookkeeping for a waitInput (or menu) node the session is
// suspended on.
type WaitState struct {
	Variable   string     `json:"variable,omitempty"`
	TimeoutAt  *time.Time `json:"timeout_at,omitempty"`
	FollowUpAt *time.Time `json:"follow_up_at,omitempty"`
}

// PaymentState is the payment-proof sub-machine state for one
// paymentIdentifier node.
type PaymentState struct {
	Attempts     int        `json:"attempts"`
	Since        time.Time  `json:"since"`
	NoResponseAt *time.Time `json:"no_response_at,omitempty"`
}

// ChatState tracks an iaConverter dialogue loop.
type ChatState struct {
	Turns   int      `json:"turns"`
	History []string `json:"history,omitempty"`
}

// SendFailure records a gateway send that reported not-ok.
type SendFailure struct {
	NodeID string    `json:"node_id"`
	Reason string    `json:"reason"`
	At     time.Time `json:"at"`
}

// HasSent reports whether a node id is in the idempotency set.
func (s *Session) HasSent(nodeID string) bool {
	for _, id := range s.Internal.SentNodeIDs {
		if id == nodeID {
			return true
		}
	}

	return false
}

// MarkSent adds a node id to the idempotency set. The caller persists the
// session immediately afterwards.
func (s *Session) MarkSent(nodeID string) {
	if s.HasSent(nodeID) {
		return
	}

	s.Internal.SentNodeIDs = append(s.Internal.SentNodeIDs, nodeID)
}

// SetVariable writes a user-facing flow variable.
func (s *Session) SetVariable(key string, value any) {
	if s.Variables == nil {
		s.Variables = make(map[string]any)
	}

	s.Variables[key] = value
}

// WaitStateFor returns the waitInput state for a node, creating it when
// requested.
func (s *Session) WaitStateFor(nodeID string, create bool) *WaitState {
	if s.Internal.Wait == nil {
		if !create {
			return nil
		}

		s.Internal.Wait = make(map[string]*WaitState)
	}

	st, ok := s.Internal.Wait[nodeID]
	if !ok && create {
		st = &WaitState{}
		s.Internal.Wait[nodeID] = st
	}

	return st
}

// PaymentStateFor returns the payment sub-machine state for a node, creating
// it when requested.
func (s *Session) PaymentStateFor(nodeID string, create bool) *PaymentState {
	if s.Internal.Payment == nil {
		if !create {
			return nil
		}

		s.Internal.Payment = make(map[string]*PaymentState)
	}

	st, ok := s.Internal.Payment[nodeID]
	if !ok && create {
		st = &PaymentState{}
		s.Internal.Payment[nodeID] = st
	}

	return st
}

// ChatStateFor returns the dialogue state for a node, creating it when
// requested.
func (s *Session) ChatStateFor(nodeID string, create bool) *ChatState {
	if s.Internal.Chat == nil {
		if !create {
			return nil
		}

		s.Internal.Chat = make(map[string]*ChatState)
	}

	st, ok := s.Internal.Chat[nodeID]
	if !ok && create {
		st = &ChatState{}
		s.Internal.Chat[nodeID] = st
	}

	return st
}

// ClearWaitState drops the waitInput bookkeeping for a node and the session
// level timeout stamp.
func (s *Session) ClearWaitState(nodeID string) {
	delete(s.Internal.Wait, nodeID)
	s.TimeoutAt = nil
}

// Complete marks the session terminal. The interpreter never deletes
// sessions, deletion is an external housekeeping concern.
func (s *Session) Complete() {
	s.Status = SessionStatusCompleted
}
