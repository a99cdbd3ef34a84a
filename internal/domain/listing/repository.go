package listing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ListingRepository stores listing metadata and feature rows.
type ListingRepository interface {
	// Upsert inserts or replaces the metadata and feature row of one
	// listing in a single transaction.
	Upsert(ctx context.Context, rec *ListingRecord, feat *FeatureRecord) error

	// FindByID loads one listing with its descriptions. Returns
	// ErrNotFound when the listing is unknown locally.
	FindByID(ctx context.Context, codOfer int64) (*ListingRecord, error)

	// AvailabilityMap returns every known cod_ofer mapped to its
	// availability flag.
	AvailabilityMap(ctx context.Context) (map[int64]bool, error)

	// MarkUnavailable soft-deletes the given listings.
	MarkUnavailable(ctx context.Context, ids []int64) error

	// Reactivate clears the unavailable flag of the given listings.
	Reactivate(ctx context.Context, ids []int64) error

	// FindMissingTranslations returns up to limit available listings
	// whose description bundle lacks at least one target language and
	// carries a non-empty source text.
	FindMissingTranslations(ctx context.Context, limit int) ([]*ListingRecord, error)

	// UpdateDescriptions replaces the stored description bundle of one
	// listing.
	UpdateDescriptions(ctx context.Context, codOfer int64, bundle DescriptionBundle) error
}

// SyncProgressRepository stores sync checkpoints append-only.
type SyncProgressRepository interface {
	// Append persists a new checkpoint row. Existing rows are never
	// updated.
	Append(ctx context.Context, p *SyncProgress) error

	// Latest returns the most recent checkpoint of a run kind, or
	// ErrNotFound when the kind has never run.
	Latest(ctx context.Context, kind RunKind) (*SyncProgress, error)
}

// TranslationStatus is the outcome of one translation attempt.
type TranslationStatus string

const (
	TranslationOK      TranslationStatus = "ok"
	TranslationFailed  TranslationStatus = "failed"
	TranslationSkipped TranslationStatus = "skipped"
)

// TranslationLog is one audit row of the translation pipeline.
type TranslationLog struct {
	ID           uuid.UUID
	CodOfer      int64
	Status       TranslationStatus
	SourceLang   string
	TargetLangs  string
	TokensUsed   int
	CostEstimate decimal.Decimal
	ErrorMessage string
	CreatedAt    time.Time
}

// TranslationLogRepository stores translation audit rows append-only.
type TranslationLogRepository interface {
	Append(ctx context.Context, entry *TranslationLog) error
	CountForListing(ctx context.Context, codOfer int64) (int64, error)
}
