package logger

import (
	"context"

	"go.uber.org/zap"
)

// contextKey keeps this package's context values from colliding with
// anything the handlers store.
type contextKey string

const syncRunKey contextKey = "sync_run_id"

// WithSyncRunID attaches a sync run identifier to the context and
// returns a logger enriched with it, so every log line written under
// either carries the run it belongs to.
func WithSyncRunID(ctx context.Context, log *zap.Logger, runID string) (context.Context, *zap.Logger) {
	return context.WithValue(ctx, syncRunKey, runID), log.With(zap.String("sync_run_id", runID))
}

// GetSyncRunID returns the sync run identifier stored in the context,
// or "" outside a run.
func GetSyncRunID(ctx context.Context) string {
	id, _ := ctx.Value(syncRunKey).(string)
	return id
}
