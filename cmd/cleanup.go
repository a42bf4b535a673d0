package cmd

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// CleanupLoop calls clean every interval until ctx is cancelled. Failures are
// logged and retried on the next tick.
func CleanupLoop(ctx context.Context, interval time.Duration, clean func(context.Context) (int64, error), logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := clean(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("Cleanup failed", zap.Error(err))
			}
		}
	}
}
