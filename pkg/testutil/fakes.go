package testutil

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jornadaflow/jornada/pkg/models"
	"github.com/jornadaflow/jornada/pkg/protocol"
)

// SentMessage is one message recorded by FakeSender.
type SentMessage struct {
	NodeID  string
	Message models.OutboundMessage
}

// FakeSender records messages and returns a configurable status.
type FakeSender struct {
	Status protocol.SendStatus
	Err    error
	Sent   []SentMessage
}

func (s *FakeSender) Send(_ context.Context, nodeID string, msg models.OutboundMessage) (protocol.SendStatus, error) {
	if s.Err != nil {
		return protocol.SendFailed, s.Err
	}

	s.Sent = append(s.Sent, SentMessage{NodeID: nodeID, Message: msg})

	return s.Status, nil
}

// FakeGateway answers sends with a canned receipt and records the outbound
// messages.
type FakeGateway struct {
	Receipt models.SendReceipt
	Err     error
	Sent    []models.OutboundMessage
}

func (g *FakeGateway) Send(_ context.Context, msg models.OutboundMessage) (models.SendReceipt, error) {
	g.Sent = append(g.Sent, msg)

	if g.Err != nil {
		return models.SendReceipt{}, g.Err
	}

	return g.Receipt, nil
}

// OKGateway returns a gateway that accepts everything.
func OKGateway() *FakeGateway {
	return &FakeGateway{Receipt: models.SendReceipt{OK: true, RemoteMessageID: "remote-1"}}
}

// FakeJudge returns canned answers and records the calls it received.
type FakeJudge struct {
	JudgeAnswer      bool
	JudgeErr         error
	Verdict          models.ReceiptVerdict
	VerdictErr       error
	ParaphraseResult string
	ParaphraseErr    error
	GenerateResult   string
	GenerateErr      error

	JudgedCriteria []string
	Classified     []models.Attachment
	Prompts        []string
}

func (j *FakeJudge) Judge(_ context.Context, criterion string, _ models.JudgeContext) (bool, error) {
	j.JudgedCriteria = append(j.JudgedCriteria, criterion)

	return j.JudgeAnswer, j.JudgeErr
}

func (j *FakeJudge) ClassifyReceipt(_ context.Context, att models.Attachment) (models.ReceiptVerdict, error) {
	j.Classified = append(j.Classified, att)

	return j.Verdict, j.VerdictErr
}

func (j *FakeJudge) Paraphrase(_ context.Context, text string) (string, error) {
	if j.ParaphraseErr != nil {
		return text, j.ParaphraseErr
	}

	if j.ParaphraseResult == "" {
		return text, nil
	}

	return j.ParaphraseResult, nil
}

func (j *FakeJudge) Generate(_ context.Context, prompt string, _ models.JudgeContext) (string, error) {
	j.Prompts = append(j.Prompts, prompt)

	return j.GenerateResult, j.GenerateErr
}

// ScheduledTimer is one ScheduleOrTighten call recorded by FakeTimerQueue.
type ScheduledTimer struct {
	SessionID string
	RunAt     time.Time
	Reason    models.TimerReason
}

// FakeTimerQueue records schedule and cancel calls, applying the
// earlier-wins rule in memory.
type FakeTimerQueue struct {
	Scheduled []ScheduledTimer
	Cancelled []string

	pending map[string]ScheduledTimer
}

func (q *FakeTimerQueue) ScheduleOrTighten(_ context.Context, sessionID string, runAt time.Time, reason models.TimerReason) error {
	if q.pending == nil {
		q.pending = map[string]ScheduledTimer{}
	}

	if existing, ok := q.pending[sessionID]; ok && !runAt.Before(existing.RunAt) {
		return nil
	}

	entry := ScheduledTimer{SessionID: sessionID, RunAt: runAt, Reason: reason}
	q.pending[sessionID] = entry
	q.Scheduled = append(q.Scheduled, entry)

	return nil
}

func (q *FakeTimerQueue) Cancel(_ context.Context, sessionID string) error {
	delete(q.pending, sessionID)
	q.Cancelled = append(q.Cancelled, sessionID)

	return nil
}

// Pending returns the session's effective pending timer, if any.
func (q *FakeTimerQueue) Pending(sessionID string) (ScheduledTimer, bool) {
	entry, ok := q.pending[sessionID]

	return entry, ok
}

// FakeMessageLog serves a fixed inbound history.
type FakeMessageLog struct {
	Messages []models.InboundMessage
}

func (l *FakeMessageLog) ListSince(_ context.Context, _ string, since time.Time) ([]models.InboundMessage, error) {
	var out []models.InboundMessage

	for _, msg := range l.Messages {
		if msg.ReceivedAt.After(since) {
			out = append(out, msg)
		}
	}

	return out, nil
}

func (l *FakeMessageLog) Recent(_ context.Context, _ string, limit int) ([]models.InboundMessage, error) {
	if len(l.Messages) <= limit {
		return l.Messages, nil
	}

	return l.Messages[len(l.Messages)-limit:], nil
}

// FakeContactStore records saved contacts.
type FakeContactStore struct {
	Saved []*models.Contact
	Err   error
}

func (s *FakeContactStore) SaveContact(_ context.Context, contact *models.Contact) error {
	if s.Err != nil {
		return s.Err
	}

	s.Saved = append(s.Saved, contact)

	return nil
}

// FakeLease grants or denies acquisition and records every call.
type FakeLease struct {
	Deny bool

	Acquired []string
	Renewed  []string
	Released []string
}

func (l *FakeLease) Acquire(_ context.Context, sessionID string) (bool, error) {
	if l.Deny {
		return false, nil
	}

	l.Acquired = append(l.Acquired, sessionID)

	return true, nil
}

func (l *FakeLease) Renew(_ context.Context, sessionID string) error {
	l.Renewed = append(l.Renewed, sessionID)

	return nil
}

func (l *FakeLease) Release(_ context.Context, sessionID string) error {
	l.Released = append(l.Released, sessionID)

	return nil
}

func (l *FakeLease) IsStale(_ time.Time, _ time.Time) bool { return false }

// EmittedEvent is one event recorded by FakeEventSink.
type EmittedEvent struct {
	Type    string
	Payload map[string]any
}

// FakeEventSink records emitted events.
type FakeEventSink struct {
	Events []EmittedEvent
}

func (s *FakeEventSink) Emit(_ context.Context, eventType string, payload map[string]any) {
	s.Events = append(s.Events, EmittedEvent{Type: eventType, Payload: payload})
}

// TestScope bundles an execution scope with its fakes for assertions.
type TestScope struct {
	Scope    *protocol.ExecutionScope
	Sender   *FakeSender
	Judge    *FakeJudge
	Timers   *FakeTimerQueue
	Messages *FakeMessageLog
	Contacts *FakeContactStore
	Events   *FakeEventSink
	Now      time.Time
}

// CreateTestScope builds an execution scope backed by fakes, with a fixed
// clock and default session, flow and contact that can be overridden.
func CreateTestScope(overrides ...func(*TestScope)) *TestScope {
	ts := &TestScope{
		Sender:   &FakeSender{},
		Judge:    &FakeJudge{},
		Timers:   &FakeTimerQueue{},
		Messages: &FakeMessageLog{},
		Contacts: &FakeContactStore{},
		Events:   &FakeEventSink{},
		Now:      time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC),
	}

	ts.Scope = &protocol.ExecutionScope{
		Session: CreateTestSession(),
		Flow:    CreateTestFlow(),
		Contact: CreateTestContact(),
		Logger:  slog.New(slog.DiscardHandler),
	}

	for _, override := range overrides {
		override(ts)
	}

	ts.Scope.Sender = ts.Sender
	ts.Scope.Judge = ts.Judge
	ts.Scope.Timers = ts.Timers
	ts.Scope.Messages = ts.Messages
	ts.Scope.Contacts = ts.Contacts
	ts.Scope.Publish = ts.Events
	now := ts.Now
	ts.Scope.Now = func() time.Time { return now }

	return ts
}

// WithSession replaces the scope's session.
func WithSession(session *models.Session) func(*TestScope) {
	return func(ts *TestScope) {
		ts.Scope.Session = session
	}
}

// WithFlow replaces the scope's flow.
func WithFlow(flow *models.Flow) func(*TestScope) {
	return func(ts *TestScope) {
		ts.Scope.Flow = flow
	}
}

// WithContact replaces the scope's contact.
func WithContact(contact *models.Contact) func(*TestScope) {
	return func(ts *TestScope) {
		ts.Scope.Contact = contact
	}
}

// WithInvocation sets the triggering invocation.
func WithInvocation(inv models.Invocation) func(*TestScope) {
	return func(ts *TestScope) {
		ts.Scope.Invocation = inv
	}
}

// WithNow fixes the scope clock.
func WithNow(now time.Time) func(*TestScope) {
	return func(ts *TestScope) {
		ts.Now = now
	}
}

// WithSendStatus makes the fake sender answer with the given status.
func WithSendStatus(status protocol.SendStatus) func(*TestScope) {
	return func(ts *TestScope) {
		ts.Sender.Status = status
	}
}

// ErrFake is a sentinel error for failure-path tests.
var ErrFake = errors.New("fake failure")
