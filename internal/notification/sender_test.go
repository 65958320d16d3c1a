package notification_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"ringi.sh/ringi/internal/notification"
	"ringi.sh/ringi/internal/testutil"
)

func TestInboxSender_Send(t *testing.T) {
	ctx := context.Background()
	pool := testutil.OpenPGXPool(t, "notification_send")
	testutil.ApplySQLFile(t, pool, "../../migrations/0001_init.sql")

	sender := notification.NewInboxSender(pool)
	err := sender.Send(ctx, notification.Params{
		Recipient: "approver@example.com",
		Subject:   "Expense #1 is pending approval",
		Body:      "please take a look",
		ExpenseID: 1,
	})
	require.NoError(t, err)

	var count int
	row := pool.QueryRow(ctx, `SELECT count(*) FROM notification_inbox WHERE recipient = $1`, "approver@example.com")
	require.NoError(t, row.Scan(&count))
	require.Equal(t, 1, count)
}

func TestInboxSender_Send_RejectsMissingRecipient(t *testing.T) {
	ctx := context.Background()
	pool := testutil.OpenPGXPool(t, "notification_invalid")
	testutil.ApplySQLFile(t, pool, "../../migrations/0001_init.sql")

	sender := notification.NewInboxSender(pool)
	err := sender.Send(ctx, notification.Params{Subject: "no recipient"})
	require.Error(t, err)
}
