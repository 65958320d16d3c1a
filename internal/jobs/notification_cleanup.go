package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/riverqueue/river"
	"go.uber.org/zap"

	"ringi.sh/ringi/internal/pkg/logger"
	"ringi.sh/ringi/internal/store"
)

// DefaultNotificationRetention is the retention baseline for inbox
// notifications when no configured value is positive.
const DefaultNotificationRetention = 30 * 24 * time.Hour

// NotificationCleanupArgs is a periodic maintenance job that removes
// expired rows from notification_inbox.
type NotificationCleanupArgs struct{}

// Kind returns the job kind identifier for periodic notification cleanup.
func (NotificationCleanupArgs) Kind() string { return "notification_cleanup" }

// InsertOpts ensures at most one cleanup job is enqueued within the same day.
func (NotificationCleanupArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       river.QueueDefault,
		MaxAttempts: 1,
		UniqueOpts: river.UniqueOpts{
			ByPeriod: 24 * time.Hour,
			ByQueue:  true,
			ByArgs:   true,
		},
	}
}

// NotificationCleanupWorker deletes notification_inbox rows older than the
// configured retention duration.
type NotificationCleanupWorker struct {
	river.WorkerDefaults[NotificationCleanupArgs]
	db        store.DBTX
	retention time.Duration
}

// NewNotificationCleanupWorker creates a cleanup worker. Non-positive
// retention falls back to DefaultNotificationRetention.
func NewNotificationCleanupWorker(db store.DBTX, retention time.Duration) *NotificationCleanupWorker {
	if retention <= 0 {
		retention = DefaultNotificationRetention
	}
	return &NotificationCleanupWorker{db: db, retention: retention}
}

// Work removes expired notification_inbox rows.
func (w *NotificationCleanupWorker) Work(ctx context.Context, _ *river.Job[NotificationCleanupArgs]) error {
	cutoff := time.Now().UTC().Add(-w.retention)

	tag, err := w.db.Exec(ctx, `DELETE FROM notification_inbox WHERE created_at < $1`, cutoff)
	if err != nil {
		return fmt.Errorf("delete expired notifications before %s: %w", cutoff.Format(time.RFC3339), err)
	}

	logger.Info("notification cleanup completed",
		zap.Int64("deleted_rows", tag.RowsAffected()),
		zap.String("cutoff", cutoff.Format(time.RFC3339)),
		zap.Duration("retention", w.retention),
	)
	return nil
}
