package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithSyncRunID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	ctx, enriched := WithSyncRunID(context.Background(), zap.New(core), "run-42")

	assert.Equal(t, "run-42", GetSyncRunID(ctx))

	enriched.Info("checkpoint")
	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "run-42", entries[0].ContextMap()["sync_run_id"])
}

func TestGetSyncRunID_Missing(t *testing.T) {
	assert.Equal(t, "", GetSyncRunID(context.Background()))
}
