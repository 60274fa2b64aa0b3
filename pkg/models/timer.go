package models

import "time"

// TimerReason names what a scheduled wake-up is for. A session holds at most
// one outstanding timer entry; the named reasons collapse to the single next
// wake time, earliest wins.
type TimerReason string

const (
	TimerReasonDelay             TimerReason = "delay"
	TimerReasonTimeout           TimerReason = "timeout"
	TimerReasonFollowUp          TimerReason = "followUp"
	TimerReasonPauseResume       TimerReason = "pauseResume"
	TimerReasonPaymentNoResponse TimerReason = "paymentNoResponse"
)

// TimerStatus represents the lifecycle state of a timer entry.
type TimerStatus string

const (
	TimerStatusScheduled TimerStatus = "scheduled"
	TimerStatusDone      TimerStatus = "done"
)

// TimerEntry is a persisted "run this session again at time T, with reason
// R" record. SessionID is unique: a later schedule request may only tighten
// RunAt, never push a closer deadline further out.
type TimerEntry struct {
	SessionID string      `json:"session_id" validate:"required"`
	RunAt     time.Time   `json:"run_at"     validate:"required"`
	Reason    TimerReason `json:"reason"`
	Status    TimerStatus `json:"status"`
	Attempts  int         `json:"attempts"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// IsDue checks if this timer is due for dispatch at the given time.
func (t *TimerEntry) IsDue(now time.Time) bool {
	return t.Status == TimerStatusScheduled && !t.RunAt.After(now)
}
