package models

// OutcomeKind is what a node handler tells the dispatcher to do next.
type OutcomeKind string

const (
	// OutcomeAdvance moves to the edge selected by NextLabel (or the
	// explicit NextNodeID) and keeps looping in the same invocation.
	OutcomeAdvance OutcomeKind = "advance"
	// OutcomeSuspend persists session state and returns to the caller.
	OutcomeSuspend OutcomeKind = "suspend"
	// OutcomeTerminate marks the session completed and stops.
	OutcomeTerminate OutcomeKind = "terminate"
)

// SuspendReason says why a handler suspended; the dispatcher maps it onto
// the invocation result flags.
type SuspendReason string

const (
	SuspendWaitingInput   SuspendReason = "waitingForInput"
	SuspendWaitingPayment SuspendReason = "waitingForPayment"
	SuspendScheduledDelay SuspendReason = "scheduledDelay"
	SuspendPaused         SuspendReason = "paused"
	SuspendSendFailure    SuspendReason = "sendFailure"
	SuspendWaitingReply   SuspendReason = "waitingForReply"
)

// Outcome is the uniform result of executing one node.
type Outcome struct {
	Kind       OutcomeKind
	NextLabel  string
	NextNodeID string
	Suspend    SuspendReason
	Reason     string
}

// Advance builds an advance outcome along the labeled edge. An empty label
// follows the default path.
func Advance(label string) Outcome {
	return Outcome{Kind: OutcomeAdvance, NextLabel: label}
}

// AdvanceTo builds an advance outcome to an explicit node id, bypassing edge
// selection. Used by checkpoint advances.
func AdvanceTo(nodeID string) Outcome {
	return Outcome{Kind: OutcomeAdvance, NextNodeID: nodeID}
}

// Suspend builds a suspend outcome with the given reason.
func Suspend(reason SuspendReason) Outcome {
	return Outcome{Kind: OutcomeSuspend, Suspend: reason}
}

// Terminate builds a terminate outcome. A non-empty reason is recorded as
// the session's final error.
func Terminate(reason string) Outcome {
	return Outcome{Kind: OutcomeTerminate, Reason: reason}
}
