package domain

import "time"

// EventType identifies one of the four events ExpenseLifecycle can
// produce. Subscribers register against this exact value.
type EventType string

const (
	EventExpenseCreated   EventType = "EXPENSE_CREATED"
	EventExpenseSubmitted EventType = "EXPENSE_SUBMITTED"
	EventExpenseApproved  EventType = "EXPENSE_APPROVED"
	EventExpenseRejected  EventType = "EXPENSE_REJECTED"
)

// Event is the common shape every domain event carries, regardless of
// which of the four kinds it is. Events are values: once Dispatch hands
// one to a subscriber, nothing else will mutate it.
type Event struct {
	Type        EventType
	ExpenseID   int64
	ActorID     string
	TraceID     string
	OccurredAt  time.Time
	ApplicantID string // set on Approved/Rejected
	Reason      string // set on Rejected only
}

// NewExpenseCreated builds the event published when Create commits.
func NewExpenseCreated(expenseID int64, actorID, traceID string, occurredAt time.Time) Event {
	return Event{
		Type:       EventExpenseCreated,
		ExpenseID:  expenseID,
		ActorID:    actorID,
		TraceID:    traceID,
		OccurredAt: occurredAt,
	}
}

// NewExpenseSubmitted builds the event published when Submit commits.
func NewExpenseSubmitted(expenseID int64, actorID, traceID string, occurredAt time.Time) Event {
	return Event{
		Type:       EventExpenseSubmitted,
		ExpenseID:  expenseID,
		ActorID:    actorID,
		TraceID:    traceID,
		OccurredAt: occurredAt,
	}
}

// NewExpenseApproved builds the event published when Approve commits.
func NewExpenseApproved(expenseID int64, approverID, applicantID, traceID string, occurredAt time.Time) Event {
	return Event{
		Type:        EventExpenseApproved,
		ExpenseID:   expenseID,
		ActorID:     approverID,
		ApplicantID: applicantID,
		TraceID:     traceID,
		OccurredAt:  occurredAt,
	}
}

// NewExpenseRejected builds the event published when Reject commits.
func NewExpenseRejected(expenseID int64, rejectorID, applicantID, reason, traceID string, occurredAt time.Time) Event {
	return Event{
		Type:        EventExpenseRejected,
		ExpenseID:   expenseID,
		ActorID:     rejectorID,
		ApplicantID: applicantID,
		Reason:      reason,
		TraceID:     traceID,
		OccurredAt:  occurredAt,
	}
}
