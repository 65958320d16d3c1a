// Package notification is the mail-shaped reference C9 subscriber. Real
// SMTP/push delivery is out of scope; Sender writes to a durable inbox
// table instead, the way the teacher's notification package wrote to an
// in-database Notification row rather than calling out to a mail
// transport directly.
package notification

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"ringi.sh/ringi/internal/pkg/logger"
	"ringi.sh/ringi/internal/store"
)

// Params holds the fields for one notification message.
type Params struct {
	Recipient string // resolved email address
	Subject   string
	Body      string
	ExpenseID int64
}

func validateParams(p Params) error {
	if strings.TrimSpace(p.Recipient) == "" {
		return fmt.Errorf("recipient is required")
	}
	if strings.TrimSpace(p.Subject) == "" {
		return fmt.Errorf("subject is required")
	}
	return nil
}

// Sender delivers a single notification.
type Sender interface {
	Send(ctx context.Context, p Params) error
}

// InboxSender is the only implementation: it writes to notification_inbox
// synchronously, within whatever transaction db is bound to. There is no
// SMTP/webhook sender in this system; that channel is a Non-goal.
type InboxSender struct {
	db store.DBTX
}

// NewInboxSender wraps db as a Sender.
func NewInboxSender(db store.DBTX) *InboxSender {
	return &InboxSender{db: db}
}

// Send stores one notification row.
func (s *InboxSender) Send(ctx context.Context, p Params) error {
	if err := validateParams(p); err != nil {
		return fmt.Errorf("notification params invalid: %w", err)
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO notification_inbox (recipient, subject, body, expense_id, created_at)
		VALUES ($1, $2, $3, $4, NOW())`,
		p.Recipient, p.Subject, p.Body, p.ExpenseID,
	)
	if err != nil {
		return fmt.Errorf("write notification for %s: %w", p.Recipient, err)
	}

	logger.Debug("notification sent",
		zap.String("recipient", p.Recipient),
		zap.Int64("expense_id", p.ExpenseID),
	)
	return nil
}

var _ Sender = (*InboxSender)(nil)
