package notification

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"ringi.sh/ringi/internal/directory"
	"ringi.sh/ringi/internal/domain"
	"ringi.sh/ringi/internal/eventbus"
	"ringi.sh/ringi/internal/outbox"
	"ringi.sh/ringi/internal/pkg/logger"
)

// Listener is the mail-shaped reference C9 subscriber. It resolves
// recipients through C5 and hands each message to a Sender; it never
// touches ExpenseStore directly.
type Listener struct {
	sender Sender
	dir    directory.UserDirectory
}

func newListener(sender Sender, dir directory.UserDirectory) *Listener {
	return &Listener{sender: sender, dir: dir}
}

// RegisterOnEventBus wires a Listener against the in-process eventbus.Bus
// for the three events a requester or approver cares about. There is no
// handler for EXPENSE_CREATED — nobody needs notifying until a request is
// submitted.
func RegisterOnEventBus(bus *eventbus.Bus, sender Sender, dir directory.UserDirectory) *Listener {
	l := newListener(sender, dir)
	bus.Subscribe(domain.EventExpenseSubmitted, "notification.submitted", eventbus.Handler(l.onSubmitted))
	bus.Subscribe(domain.EventExpenseApproved, "notification.approved", eventbus.Handler(l.onApproved))
	bus.Subscribe(domain.EventExpenseRejected, "notification.rejected", eventbus.Handler(l.onRejected))
	return l
}

// RegisterOnOutbox wires a Listener against the durable outbox.Bus.
func RegisterOnOutbox(bus *outbox.Bus, sender Sender, dir directory.UserDirectory) *Listener {
	l := newListener(sender, dir)
	bus.Subscribe(domain.EventExpenseSubmitted, "notification.submitted", outbox.Handler(l.onSubmitted))
	bus.Subscribe(domain.EventExpenseApproved, "notification.approved", outbox.Handler(l.onApproved))
	bus.Subscribe(domain.EventExpenseRejected, "notification.rejected", outbox.Handler(l.onRejected))
	return l
}

// onSubmitted notifies some reachable approver that a request is pending.
func (l *Listener) onSubmitted(ctx context.Context, event domain.Event) error {
	recipient, err := l.dir.AnyApproverEmail(ctx)
	if err != nil {
		logger.Warn("no approver to notify", zap.Int64("expenseId", event.ExpenseID), zap.Error(err))
		return nil
	}

	return l.sender.Send(ctx, Params{
		Recipient: recipient,
		Subject:   fmt.Sprintf("Expense #%d is pending approval", event.ExpenseID),
		Body:      fmt.Sprintf("Expense #%d was submitted and is awaiting your decision.", event.ExpenseID),
		ExpenseID: event.ExpenseID,
	})
}

// onApproved notifies the applicant their expense was approved.
func (l *Listener) onApproved(ctx context.Context, event domain.Event) error {
	recipient, err := l.dir.EmailOfApplicant(ctx, event.ApplicantID)
	if err != nil {
		return fmt.Errorf("resolve applicant for approval notice: %w", err)
	}

	return l.sender.Send(ctx, Params{
		Recipient: recipient,
		Subject:   fmt.Sprintf("Expense #%d approved", event.ExpenseID),
		Body:      fmt.Sprintf("Your expense #%d has been approved.", event.ExpenseID),
		ExpenseID: event.ExpenseID,
	})
}

// onRejected notifies the applicant their expense was rejected, including
// the approver's reason.
func (l *Listener) onRejected(ctx context.Context, event domain.Event) error {
	recipient, err := l.dir.EmailOfApplicant(ctx, event.ApplicantID)
	if err != nil {
		return fmt.Errorf("resolve applicant for rejection notice: %w", err)
	}

	body := fmt.Sprintf("Your expense #%d has been rejected.", event.ExpenseID)
	if event.Reason != "" {
		body += fmt.Sprintf(" Reason: %s", event.Reason)
	}

	return l.sender.Send(ctx, Params{
		Recipient: recipient,
		Subject:   fmt.Sprintf("Expense #%d rejected", event.ExpenseID),
		Body:      body,
		ExpenseID: event.ExpenseID,
	})
}
