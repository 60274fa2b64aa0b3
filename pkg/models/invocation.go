package models

// Invocation is the contract every external trigger uses to run the
// interpreter: an inbound message, a timer wake-up, or a manual operator
// command. At most one resume flag is set per invocation.
type Invocation struct {
	SessionID string `json:"session_id" validate:"required"`

	// Inbound user input, when the trigger carries a message.
	UserInput string      `json:"user_input,omitempty"`
	InputKind MessageKind `json:"input_kind,omitempty"`
	MediaRef  string      `json:"media_ref,omitempty"`

	// Timer wake-up flags.
	ResumeFromDelay      bool `json:"resume_from_delay,omitempty"`
	ResumeFromTimeout    bool `json:"resume_from_timeout,omitempty"`
	ResumeFromFollowUp   bool `json:"resume_from_follow_up,omitempty"`
	ResumeFromPause      bool `json:"resume_from_pause,omitempty"`
	ResumeFromNoResponse bool `json:"resume_from_no_response,omitempty"`

	// ForceDefaultEdge is the operator override: advance a waiting node
	// down its response edge as if the user had replied. Applies only
	// when no meaningful input accompanies it.
	ForceDefaultEdge bool `json:"force_default_edge,omitempty"`
}

// HasInput reports whether the invocation carries a user message.
func (i Invocation) HasInput() bool {
	return i.UserInput != "" || i.MediaRef != ""
}

// IsResume reports whether the invocation is a scheduled wake-up rather
// than a fresh external event.
func (i Invocation) IsResume() bool {
	return i.ResumeFromDelay || i.ResumeFromTimeout || i.ResumeFromFollowUp ||
		i.ResumeFromPause || i.ResumeFromNoResponse
}

// Result reports what one interpreter run did.
type Result struct {
	Success           bool     `json:"success"`
	CurrentNode       string   `json:"current_node,omitempty"`
	Actions           []string `json:"actions,omitempty"`
	WaitingForInput   bool     `json:"waiting_for_input,omitempty"`
	WaitingForPayment bool     `json:"waiting_for_payment,omitempty"`
	ScheduledDelay    bool     `json:"scheduled_delay,omitempty"`
	Paused            bool     `json:"paused,omitempty"`
	Skipped           bool     `json:"skipped,omitempty"`
	Completed         bool     `json:"completed,omitempty"`
	Reason            string   `json:"reason,omitempty"`
}
