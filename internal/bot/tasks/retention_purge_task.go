package tasks

import (
	"context"
	"fmt"
	"time"
)

// newRetentionPurgeTask creates the scheduled task that deletes expired event
// markers and messages. Reads already filter expired rows, so the purge only
// reclaims space; running it late never changes observable behavior.
func newRetentionPurgeTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "retention_purge")

	return func(ctx context.Context) error {
		log.InfoContext(ctx, "Starting scheduled retention purge...")
		startTime := time.Now()

		markers, messages, err := deps.Store.PurgeExpired(ctx, time.Now().UTC())

		duration := time.Since(startTime)

		if err != nil {
			log.ErrorContext(ctx, "Retention purge failed", "error", err, "duration", duration)
			return fmt.Errorf("retention purge failed: %w", err)
		}

		log.InfoContext(ctx, "Retention purge completed",
			"markers_removed", markers, "messages_removed", messages, "duration", duration)
		return nil
	}
}
