package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/vidahome/backend/internal/domain/listing"
	"github.com/vidahome/backend/internal/infrastructure/persistence/models"
)

// GormSyncProgressRepository implements listing.SyncProgressRepository
// using GORM. Checkpoint rows are append-only.
type GormSyncProgressRepository struct {
	db *gorm.DB
}

// NewGormSyncProgressRepository creates a new sync progress repository.
func NewGormSyncProgressRepository(db *gorm.DB) *GormSyncProgressRepository {
	return &GormSyncProgressRepository{db: db}
}

// Append persists a new checkpoint row.
func (r *GormSyncProgressRepository) Append(ctx context.Context, p *listing.SyncProgress) error {
	model := &models.SyncProgressModel{}
	model.FromDomain(p)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("%w: %v", listing.ErrProgressWrite, err)
	}
	return nil
}

// Latest returns the most recent checkpoint of a run kind.
func (r *GormSyncProgressRepository) Latest(ctx context.Context, kind listing.RunKind) (*listing.SyncProgress, error) {
	var model models.SyncProgressModel
	err := r.db.WithContext(ctx).
		Where("run_kind = ?", string(kind)).
		Order("created_at DESC").
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, listing.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest checkpoint: %w", err)
	}
	return model.ToDomain(), nil
}

// Ensure GormSyncProgressRepository implements the repository interface
var _ listing.SyncProgressRepository = (*GormSyncProgressRepository)(nil)
