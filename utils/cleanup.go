package utils

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StartQuestLogSweeper periodically removes incomplete quest logs from earlier
// days until ctx is cancelled. It is best-effort and logs failures.
func StartQuestLogSweeper(ctx context.Context, interval time.Duration, sweep func(context.Context) (int64, error)) {
	if interval <= 0 {
		interval = time.Hour
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			n, err := sweep(ctx)
			if err != nil {
				Logger.Warn("quest log sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				Logger.Info("swept stale quest logs", zap.Int64("deleted", n))
			}
		}
	}()
}
