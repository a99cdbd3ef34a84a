package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vidahome/backend/internal/domain/integration"
	"github.com/vidahome/backend/internal/domain/listing"
	"github.com/vidahome/backend/internal/infrastructure/logger"
)

// Config bounds the catalog walk and paces writes.
type Config struct {
	// PageSize is the number of listings requested per catalog page.
	PageSize int

	// DefaultBatchSize is the incremental batch size when the caller
	// does not request one.
	DefaultBatchSize int

	// MaxBatchSize caps the incremental batch size a caller may request.
	MaxBatchSize int

	// WriteDelay is the pause between listing writes, keeping the CRM
	// detail endpoint below its request budget.
	WriteDelay time.Duration
}

func (c *Config) applyDefaults() {
	if c.PageSize <= 0 {
		c.PageSize = 50
	}
	if c.DefaultBatchSize <= 0 {
		c.DefaultBatchSize = 10
	}
	if c.MaxBatchSize < c.DefaultBatchSize {
		c.MaxBatchSize = c.DefaultBatchSize
	}
}

// Orchestrator walks the remote catalog and reconciles the local store
// against it. All three run kinds checkpoint through the append-only
// progress repository; a per-listing failure never aborts a run, only a
// checkpoint write failure does.
type Orchestrator struct {
	cfg      Config
	source   integration.PropertySource
	listings listing.ListingRepository
	progress listing.SyncProgressRepository
	logger   *zap.Logger
}

// NewOrchestrator creates a sync orchestrator.
func NewOrchestrator(
	cfg Config,
	source integration.PropertySource,
	listings listing.ListingRepository,
	progress listing.SyncProgressRepository,
	log *zap.Logger,
) *Orchestrator {
	cfg.applyDefaults()
	return &Orchestrator{
		cfg:      cfg,
		source:   source,
		listings: listings,
		progress: progress,
		logger:   logger.Named(log, "sync"),
	}
}

// RunFull walks the entire remote catalog, upserts every publishable
// listing and soft-deletes local listings absent from the source. The
// run is idempotent: a second pass over an unchanged catalog converges
// to the same store state.
func (o *Orchestrator) RunFull(ctx context.Context) (*listing.SyncSummary, error) {
	ctx, log := o.runLogger(ctx, listing.RunFull)
	log.Info("Starting full sync")

	summary := &listing.SyncSummary{}
	seen := make(map[int64]struct{})
	var lastCod int64

	for offset := 0; ; offset += o.cfg.PageSize {
		page, err := o.source.ListProperties(ctx, integration.SourcePage{Offset: offset, Limit: o.cfg.PageSize})
		if err != nil {
			o.checkpoint(ctx, log, listing.RunFull, lastCod, summary.Synced, listing.StatusRunning, err.Error())
			return summary, fmt.Errorf("failed to list catalog page at offset %d: %w", offset, err)
		}
		if len(page) == 0 {
			break
		}

		for i := range page {
			if ctx.Err() != nil {
				o.checkpoint(context.WithoutCancel(ctx), log, listing.RunFull, lastCod, summary.Synced, listing.StatusRunning, "")
				log.Info("Full sync interrupted", zap.Int("synced", summary.Synced))
				return summary, nil
			}

			p := &page[i]
			summary.Total++
			if !p.IsValid() {
				continue
			}
			if _, dup := seen[p.CodOfer]; dup {
				continue
			}
			seen[p.CodOfer] = struct{}{}

			if err := o.syncOne(ctx, p.CodOfer); err != nil {
				log.Warn("Failed to sync listing",
					zap.Int64("cod_ofer", p.CodOfer),
					zap.Error(err))
				summary.Errors = append(summary.Errors, fmt.Sprintf("listing %d: %v", p.CodOfer, err))
				continue
			}

			summary.Synced++
			if p.CodOfer > lastCod {
				lastCod = p.CodOfer
			}
			o.pace(ctx)
		}

		if len(page) < o.cfg.PageSize {
			break
		}
	}

	if err := o.retireAbsent(ctx, log, seen); err != nil {
		summary.Errors = append(summary.Errors, err.Error())
	}

	if err := o.progress.Append(ctx, listing.NewSyncProgress(listing.RunFull, lastCod, summary.Synced, listing.StatusComplete, "")); err != nil {
		return summary, err
	}

	summary.IsComplete = true
	log.Info("Full sync complete",
		zap.Int("synced", summary.Synced),
		zap.Int("total", summary.Total),
		zap.Int("errors", len(summary.Errors)))
	return summary, nil
}

// RunIncremental syncs up to batchSize listings after the last
// checkpointed position. A batchSize of zero uses the configured
// default; one above the configured maximum is rejected. Repeated runs
// walk the whole catalog exactly once and then report completion.
func (o *Orchestrator) RunIncremental(ctx context.Context, batchSize int) (*listing.SyncSummary, error) {
	if batchSize <= 0 {
		batchSize = o.cfg.DefaultBatchSize
	}
	if batchSize > o.cfg.MaxBatchSize {
		return nil, fmt.Errorf("%w: %d exceeds maximum %d", listing.ErrInvalidBatchSize, batchSize, o.cfg.MaxBatchSize)
	}

	ctx, log := o.runLogger(ctx, listing.RunIncremental)

	cursor, err := o.resumeCursor(ctx)
	if err != nil {
		return nil, err
	}

	ids, err := o.collectSourceIDs(ctx)
	if err != nil {
		o.checkpoint(ctx, log, listing.RunIncremental, cursor, 0, listing.StatusRunning, err.Error())
		return nil, err
	}

	// The catalog carries no ordering guarantee, so the cursor marks a
	// position in the walk, not an id threshold. A cursor id that
	// vanished from the catalog restarts the walk from the beginning.
	start := 0
	if cursor != 0 {
		for i, id := range ids {
			if id == cursor {
				start = i + 1
				break
			}
		}
	}
	end := start + batchSize
	if end > len(ids) {
		end = len(ids)
	}

	log.Info("Starting incremental sync",
		zap.Int64("cursor", cursor),
		zap.Int("position", start),
		zap.Int("batch_size", batchSize))

	summary := &listing.SyncSummary{Total: len(ids)}
	lastCod := cursor
	failed := false

	for _, codOfer := range ids[start:end] {
		if ctx.Err() != nil {
			o.checkpoint(context.WithoutCancel(ctx), log, listing.RunIncremental, lastCod, summary.Synced, listing.StatusRunning, "")
			log.Info("Incremental sync interrupted", zap.Int("synced", summary.Synced))
			return summary, nil
		}

		if err := o.syncOne(ctx, codOfer); err != nil {
			log.Warn("Failed to sync listing",
				zap.Int64("cod_ofer", codOfer),
				zap.Error(err))
			summary.Errors = append(summary.Errors, fmt.Sprintf("listing %d: %v", codOfer, err))
			// The cursor never moves past a failed listing, so the
			// next run retries it.
			failed = true
			continue
		}

		summary.Synced++
		if !failed {
			lastCod = codOfer
		}
		o.pace(ctx)
	}

	reachedEnd := end == len(ids) && !failed
	status := listing.StatusRunning
	if reachedEnd {
		status = listing.StatusComplete
	}
	if err := o.progress.Append(ctx, listing.NewSyncProgress(listing.RunIncremental, lastCod, summary.Synced, status, "")); err != nil {
		return summary, err
	}

	summary.IsComplete = reachedEnd
	log.Info("Incremental sync batch done",
		zap.Int("synced", summary.Synced),
		zap.Int64("cursor", lastCod),
		zap.Bool("complete", reachedEnd))
	return summary, nil
}

// RunDelta reconciles availability against the source without walking
// listing details. New listings are synced in full, returning listings
// are reactivated and listings gone from the source are soft-deleted.
func (o *Orchestrator) RunDelta(ctx context.Context) (*listing.DeltaReport, error) {
	ctx, log := o.runLogger(ctx, listing.RunDelta)
	log.Info("Starting delta sync")

	sourceIDs, err := o.collectSourceIDs(ctx)
	if err != nil {
		return nil, err
	}

	local, err := o.listings.AvailabilityMap(ctx)
	if err != nil {
		return nil, err
	}

	report := listing.ClassifyDelta(local, sourceIDs)

	for _, codOfer := range report.Added {
		if ctx.Err() != nil {
			break
		}
		if err := o.syncOne(ctx, codOfer); err != nil {
			log.Warn("Failed to sync new listing",
				zap.Int64("cod_ofer", codOfer),
				zap.Error(err))
		}
		o.pace(ctx)
	}

	if err := o.listings.Reactivate(ctx, report.Reactivated); err != nil {
		return nil, fmt.Errorf("failed to reactivate listings: %w", err)
	}
	if err := o.listings.MarkUnavailable(ctx, report.Removed); err != nil {
		return nil, fmt.Errorf("failed to retire listings: %w", err)
	}

	total := len(report.Added) + len(report.Reactivated) + report.Unchanged
	if err := o.progress.Append(ctx, listing.NewSyncProgress(listing.RunDelta, 0, total, listing.StatusComplete, "")); err != nil {
		return &report, err
	}

	log.Info("Delta sync complete",
		zap.Int("added", len(report.Added)),
		zap.Int("removed", len(report.Removed)),
		zap.Int("reactivated", len(report.Reactivated)),
		zap.Int("unchanged", report.Unchanged))
	return &report, nil
}

// SyncListing syncs a single listing by its CRM identifier.
func (o *Orchestrator) SyncListing(ctx context.Context, codOfer int64) error {
	return o.syncOne(ctx, codOfer)
}

// syncOne fetches the full record of one listing and upserts metadata
// and features. Stored translations survive the write; only the source
// language text is refreshed from the CRM.
func (o *Orchestrator) syncOne(ctx context.Context, codOfer int64) error {
	detail, err := o.source.GetPropertyDetail(ctx, codOfer)
	if err != nil {
		return err
	}

	now := time.Now()
	bundle := listing.DescriptionBundle{}
	if detail.Descripcion != "" {
		bundle[listing.LangES] = detail.Descripcion
	}
	if existing, err := o.listings.FindByID(ctx, codOfer); err == nil {
		bundle.Merge(existing.Descriptions)
	}

	rec := &listing.ListingRecord{
		CodOfer:      detail.CodOfer,
		Ref:          detail.Ref,
		Poblacion:    detail.Poblacion,
		Tipo:         detail.Tipo,
		Precio:       decimal.NewFromFloat(max(detail.Precio, 0)),
		NoDisponible: detail.NoDisponible,
		Descriptions: bundle,
		FullData:     detail.Raw,
		Photos:       o.source.PhotoURLs(detail),
		MainPhoto:    o.source.MainPhotoURL(detail),
		UpdatedAt:    now,
	}
	feat := listing.DeriveFeatures(detail, now)

	return o.listings.Upsert(ctx, rec, &feat)
}

// retireAbsent soft-deletes every locally available listing the catalog
// walk did not encounter.
func (o *Orchestrator) retireAbsent(ctx context.Context, log *zap.Logger, seen map[int64]struct{}) error {
	local, err := o.listings.AvailabilityMap(ctx)
	if err != nil {
		return fmt.Errorf("failed to load availability map: %w", err)
	}

	var absent []int64
	for codOfer, available := range local {
		if !available {
			continue
		}
		if _, ok := seen[codOfer]; !ok {
			absent = append(absent, codOfer)
		}
	}
	if len(absent) == 0 {
		return nil
	}

	log.Info("Retiring listings absent from source", zap.Int("count", len(absent)))
	if err := o.listings.MarkUnavailable(ctx, absent); err != nil {
		return fmt.Errorf("failed to retire absent listings: %w", err)
	}
	return nil
}

// collectSourceIDs walks the catalog pages collecting publishable ids
// in catalog order, without fetching any detail records. Duplicate ids
// across pages are kept once.
func (o *Orchestrator) collectSourceIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	seen := make(map[int64]struct{})
	for offset := 0; ; offset += o.cfg.PageSize {
		page, err := o.source.ListProperties(ctx, integration.SourcePage{Offset: offset, Limit: o.cfg.PageSize})
		if err != nil {
			return nil, fmt.Errorf("failed to list catalog page at offset %d: %w", offset, err)
		}
		if len(page) == 0 {
			break
		}
		for i := range page {
			if !page[i].IsValid() {
				continue
			}
			if _, dup := seen[page[i].CodOfer]; dup {
				continue
			}
			seen[page[i].CodOfer] = struct{}{}
			ids = append(ids, page[i].CodOfer)
		}
		if len(page) < o.cfg.PageSize {
			break
		}
	}
	return ids, nil
}

// resumeCursor loads the incremental cursor. A completed previous run
// restarts the walk from the beginning of the catalog.
func (o *Orchestrator) resumeCursor(ctx context.Context) (int64, error) {
	latest, err := o.progress.Latest(ctx, listing.RunIncremental)
	if errors.Is(err, listing.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if latest.Status == listing.StatusComplete {
		return 0, nil
	}
	return latest.LastSyncedCodOfer, nil
}

// checkpoint appends a progress row, logging instead of failing when
// the write itself breaks. Used on the interrupt paths where the
// primary error already decides the outcome.
func (o *Orchestrator) checkpoint(ctx context.Context, log *zap.Logger, kind listing.RunKind, cursor int64, total int, status listing.RunStatus, errMsg string) {
	if err := o.progress.Append(ctx, listing.NewSyncProgress(kind, cursor, total, status, errMsg)); err != nil {
		log.Error("Failed to write sync checkpoint", zap.Error(err))
	}
}

// pace sleeps the configured write delay, returning early on
// cancellation.
func (o *Orchestrator) pace(ctx context.Context) {
	if o.cfg.WriteDelay <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(o.cfg.WriteDelay):
	}
}

func (o *Orchestrator) runLogger(ctx context.Context, kind listing.RunKind) (context.Context, *zap.Logger) {
	runID := uuid.New().String()
	ctx, log := logger.WithSyncRunID(ctx, o.logger, runID)
	return ctx, log.With(zap.String("run_kind", string(kind)))
}
