package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vidahome/backend/internal/domain/listing"
)

type countingExecutor struct {
	calls   atomic.Int32
	block   chan struct{}
	summary listing.SyncSummary
}

func (e *countingExecutor) RunIncremental(ctx context.Context, batchSize int) (*listing.SyncSummary, error) {
	e.calls.Add(1)
	if e.block != nil {
		select {
		case <-e.block:
		case <-ctx.Done():
		}
	}
	s := e.summary
	return &s, nil
}

func TestSyncSchedulerConfig_Validate(t *testing.T) {
	cfg := DefaultSyncSchedulerConfig()
	assert.NoError(t, cfg.Validate())

	cfg.Interval = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = DefaultSyncSchedulerConfig()
	cfg.JobTimeout = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestSyncScheduler_TicksRunBatches(t *testing.T) {
	executor := &countingExecutor{summary: listing.SyncSummary{Synced: 1}}
	cfg := SyncSchedulerConfig{
		Enabled:    true,
		Interval:   10 * time.Millisecond,
		BatchSize:  5,
		JobTimeout: time.Second,
	}
	s, err := NewSyncScheduler(cfg, executor, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return executor.calls.Load() >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestSyncScheduler_SkipsOverlappingTicks(t *testing.T) {
	executor := &countingExecutor{block: make(chan struct{})}
	cfg := SyncSchedulerConfig{
		Enabled:    true,
		Interval:   10 * time.Millisecond,
		BatchSize:  5,
		JobTimeout: time.Second,
	}
	s, err := NewSyncScheduler(cfg, executor, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))

	// Let several ticks fire while the first batch is blocked.
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), executor.calls.Load())

	close(executor.block)
	s.Stop()
}

func TestSyncScheduler_DisabledDoesNothing(t *testing.T) {
	executor := &countingExecutor{}
	cfg := DefaultSyncSchedulerConfig()
	cfg.Enabled = false
	cfg.Interval = time.Millisecond
	s, err := NewSyncScheduler(cfg, executor, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))
	time.Sleep(20 * time.Millisecond)
	s.Stop()

	assert.Equal(t, int32(0), executor.calls.Load())
}

func TestSyncScheduler_StopIsIdempotent(t *testing.T) {
	s, err := NewSyncScheduler(DefaultSyncSchedulerConfig(), &countingExecutor{}, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))
	s.Stop()
	s.Stop()
}
