package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/vidahome/backend/internal/domain/listing"
	"github.com/vidahome/backend/internal/infrastructure/persistence/models"
)

// GormTranslationLogRepository implements
// listing.TranslationLogRepository using GORM. Audit rows are
// append-only.
type GormTranslationLogRepository struct {
	db *gorm.DB
}

// NewGormTranslationLogRepository creates a new translation log repository.
func NewGormTranslationLogRepository(db *gorm.DB) *GormTranslationLogRepository {
	return &GormTranslationLogRepository{db: db}
}

// Append persists a new audit row.
func (r *GormTranslationLogRepository) Append(ctx context.Context, entry *listing.TranslationLog) error {
	model := &models.TranslationLogModel{}
	model.FromDomain(entry)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to append translation log: %w", err)
	}
	return nil
}

// CountForListing returns how many translation attempts were logged
// for one listing.
func (r *GormTranslationLogRepository) CountForListing(ctx context.Context, codOfer int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.TranslationLogModel{}).
		Where("cod_ofer = ?", codOfer).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count translation logs: %w", err)
	}
	return count, nil
}

// Ensure GormTranslationLogRepository implements the repository interface
var _ listing.TranslationLogRepository = (*GormTranslationLogRepository)(nil)
