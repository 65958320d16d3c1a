// Package domain holds the expense aggregate and the values that travel
// with it: actors, audit entries, and the events a committed transition
// produces. Nothing in this package touches storage, HTTP, or the event
// bus — it is the one part of ringi that has no I/O.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// Status is the closed set of states an Expense can occupy.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSubmitted Status = "SUBMITTED"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
)

func (s Status) String() string { return string(s) }

// DefaultCurrency is used whenever a caller omits the currency on Create.
const DefaultCurrency = "JPY"

const maxTitleLen = 100

// Expense is the aggregate root. Its zero value is not valid; use NewDraft
// to construct one, and Submit/Approve/Reject to advance it. Those methods
// return a new post-image rather than mutating in place so the caller's
// pre-read and the persisted post-image can never be confused with each
// other by reference.
type Expense struct {
	ID          int64
	ApplicantID string
	Title       string
	Amount      string // fixed-point decimal, e.g. "1200.00" (12.2)
	Currency    string
	Status      Status
	SubmittedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int64
}

// NewDraft validates inputs and returns a new DRAFT expense at version 0.
// The caller still owns persistence; this only builds the in-memory value.
func NewDraft(applicantID, title, amount, currency string, now time.Time) (*Expense, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fieldError("title", "must not be blank")
	}
	if len(title) > maxTitleLen {
		return nil, fieldError("title", fmt.Sprintf("must be at most %d characters", maxTitleLen))
	}
	if applicantID == "" {
		return nil, fieldError("applicantId", "must not be blank")
	}
	if !isPositiveAmount(amount) {
		return nil, fieldError("amount", "must be a positive number")
	}
	currency = strings.TrimSpace(currency)
	if currency == "" {
		currency = DefaultCurrency
	}
	if len(currency) != 3 {
		return nil, fieldError("currency", "must be a 3-letter code")
	}

	return &Expense{
		ApplicantID: applicantID,
		Title:       title,
		Amount:      amount,
		Currency:    strings.ToUpper(currency),
		Status:      StatusDraft,
		SubmittedAt: nil,
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     0,
	}, nil
}

// Submit returns the post-image of transitioning DRAFT -> SUBMITTED. The
// caller is responsible for checking authorization and the pre-read status
// before calling this; Submit itself only knows how to compute the next
// revision, not whether the caller is allowed to request it.
func (e Expense) Submit(now time.Time) Expense {
	post := e
	post.Status = StatusSubmitted
	post.SubmittedAt = &now
	post.UpdatedAt = now
	post.Version = e.Version + 1
	return post
}

// Approve returns the post-image of transitioning SUBMITTED -> APPROVED.
func (e Expense) Approve(now time.Time) Expense {
	post := e
	post.Status = StatusApproved
	post.UpdatedAt = now
	post.Version = e.Version + 1
	return post
}

// Reject returns the post-image of transitioning SUBMITTED -> REJECTED.
func (e Expense) Reject(now time.Time) Expense {
	post := e
	post.Status = StatusRejected
	post.UpdatedAt = now
	post.Version = e.Version + 1
	return post
}

// CanSubmit reports whether the aggregate is in a state Submit can apply to.
func (e Expense) CanSubmit() bool { return e.Status == StatusDraft }

// CanDecide reports whether the aggregate is in a state Approve/Reject can
// apply to.
func (e Expense) CanDecide() bool { return e.Status == StatusSubmitted }

// FieldError describes one invalid input field, matching the HTTP error
// body's details[] shape.
type FieldError struct {
	Field   string
	Message string
}

func (f FieldError) Error() string { return f.Field + ": " + f.Message }

func fieldError(field, message string) error {
	return FieldError{Field: field, Message: message}
}

// isPositiveAmount checks amount is a fixed-point decimal (12.2) strictly
// greater than zero, without parsing it into a float — the value is stored
// and compared as text/DECIMAL all the way down, never as IEEE 754.
func isPositiveAmount(amount string) bool {
	amount = strings.TrimSpace(amount)
	if amount == "" || strings.HasPrefix(amount, "-") {
		return false
	}

	intPart, fracPart, hasFrac := strings.Cut(amount, ".")
	if hasFrac && len(fracPart) > 2 {
		return false
	}
	if intPart == "" {
		return false
	}
	if len(strings.TrimLeft(intPart, "0")) > 10 {
		return false
	}
	if !isDigits(intPart) || !isDigits(fracPart) {
		return false
	}
	return !allZero(intPart) || !allZero(fracPart)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func allZero(s string) bool {
	for _, r := range s {
		if r != '0' {
			return false
		}
	}
	return true
}
