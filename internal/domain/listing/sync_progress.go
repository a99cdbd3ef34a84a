package listing

import (
	"time"

	"github.com/google/uuid"
)

// RunKind identifies a sync strategy.
type RunKind string

const (
	RunFull        RunKind = "full"
	RunIncremental RunKind = "incremental"
	RunDelta       RunKind = "delta"
)

// RunStatus is the lifecycle state of a sync run.
type RunStatus string

const (
	// StatusRunning marks a run that has started and not yet reached a
	// terminal state. A cancelled run keeps this status so the next run
	// resumes from its cursor.
	StatusRunning RunStatus = "running"

	// StatusComplete marks a run that reached the end of the catalog.
	StatusComplete RunStatus = "complete"

	// StatusError marks a run aborted by a progress persistence
	// failure. Per-listing failures never produce this status.
	StatusError RunStatus = "error"
)

// SyncProgress is one append-only checkpoint of a sync run. The latest
// row per RunKind is the authoritative cursor; history is never
// mutated.
type SyncProgress struct {
	ID                uuid.UUID
	RunKind           RunKind
	LastSyncedCodOfer int64
	TotalSynced       int
	Status            RunStatus
	ErrorMessage      string
	CreatedAt         time.Time
}

// NewSyncProgress builds a checkpoint row with a fresh identity.
func NewSyncProgress(kind RunKind, cursor int64, total int, status RunStatus, errMsg string) *SyncProgress {
	return &SyncProgress{
		ID:                uuid.New(),
		RunKind:           kind,
		LastSyncedCodOfer: cursor,
		TotalSynced:       total,
		Status:            status,
		ErrorMessage:      errMsg,
		CreatedAt:         time.Now(),
	}
}

// SyncSummary is the outcome of a sync run as reported to callers.
type SyncSummary struct {
	Synced     int      `json:"synced"`
	Total      int      `json:"total"`
	IsComplete bool     `json:"isComplete"`
	Errors     []string `json:"errors,omitempty"`
}

// DeltaReport classifies the source catalog against the local store.
// The four buckets partition the union of both id sets: every id lands
// in exactly one bucket.
type DeltaReport struct {
	Added       []int64 `json:"added"`
	Removed     []int64 `json:"removed"`
	Reactivated []int64 `json:"reactivated"`
	Unchanged   int     `json:"unchanged"`
}

// ClassifyDelta buckets the source ids against the local availability
// map. An id absent from the source that is already unavailable locally
// counts as unchanged, not removed.
func ClassifyDelta(local map[int64]bool, source []int64) DeltaReport {
	report := DeltaReport{
		Added:       make([]int64, 0),
		Removed:     make([]int64, 0),
		Reactivated: make([]int64, 0),
	}

	inSource := make(map[int64]struct{}, len(source))
	for _, id := range source {
		if _, dup := inSource[id]; dup {
			continue
		}
		inSource[id] = struct{}{}

		available, known := local[id]
		switch {
		case !known:
			report.Added = append(report.Added, id)
		case !available:
			report.Reactivated = append(report.Reactivated, id)
		default:
			report.Unchanged++
		}
	}

	for id, available := range local {
		if _, present := inSource[id]; present {
			continue
		}
		if available {
			report.Removed = append(report.Removed, id)
		} else {
			report.Unchanged++
		}
	}

	return report
}
