package analytics_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ringi.sh/ringi/internal/analytics"
	"ringi.sh/ringi/internal/domain"
	"ringi.sh/ringi/internal/eventbus"
)

func TestCollector_CountsByTypeAndApplicant(t *testing.T) {
	ctx := context.Background()
	bus, err := eventbus.New(ctx, eventbus.Config{Core: 1, Max: 2, QueueCapacity: 4, TaskTimeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { bus.Shutdown(time.Second) })

	collector := analytics.NewCollector()
	analytics.RegisterOnEventBus(bus, collector)

	now := time.Now()
	require.NoError(t, bus.Publish(ctx,
		domain.NewExpenseCreated(1, "user-1", "trace-1", now),
		domain.NewExpenseSubmitted(1, "user-1", "trace-2", now),
		domain.NewExpenseApproved(1, "approver-1", "user-1", "trace-3", now),
	))

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		m := collector.Metrics()
		if m["event.EXPENSE_APPROVED"] == 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	metrics := collector.Metrics()
	require.Equal(t, 1, metrics["event.EXPENSE_CREATED"])
	require.Equal(t, 1, metrics["event.EXPENSE_SUBMITTED"])
	require.Equal(t, 1, metrics["event.EXPENSE_APPROVED"])
	require.Equal(t, 3, metrics["applicant.user-1"])
}
