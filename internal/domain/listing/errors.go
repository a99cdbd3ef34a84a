package listing

import "errors"

var (
	// ErrNotFound indicates the listing is unknown to the local store.
	ErrNotFound = errors.New("listing not found")

	// ErrProgressWrite indicates a sync checkpoint could not be
	// persisted. This is the only per-run error that aborts a sync.
	ErrProgressWrite = errors.New("sync progress write failed")

	// ErrInvalidBatchSize indicates a requested batch size is outside
	// the configured bounds.
	ErrInvalidBatchSize = errors.New("invalid batch size")
)
