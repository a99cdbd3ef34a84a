package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vidahome/backend/internal/domain/listing"
	"github.com/vidahome/backend/internal/infrastructure/persistence/models"
)

// GormListingRepository implements listing.ListingRepository using GORM.
type GormListingRepository struct {
	db *gorm.DB
}

// NewGormListingRepository creates a new listing repository.
func NewGormListingRepository(db *gorm.DB) *GormListingRepository {
	return &GormListingRepository{db: db}
}

// Upsert inserts or replaces the metadata and feature row of one
// listing in a single transaction.
func (r *GormListingRepository) Upsert(ctx context.Context, rec *listing.ListingRecord, feat *listing.FeatureRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		meta := models.PropertyMetadataModelFromDomain(rec)
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cod_ofer"}},
			UpdateAll: true,
		}).Create(meta).Error; err != nil {
			return fmt.Errorf("failed to upsert listing metadata: %w", err)
		}

		if feat != nil {
			features := models.PropertyFeaturesModelFromDomain(feat)
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "cod_ofer"}},
				UpdateAll: true,
			}).Create(features).Error; err != nil {
				return fmt.Errorf("failed to upsert listing features: %w", err)
			}
		}

		return nil
	})
}

// FindByID loads one listing with its descriptions.
func (r *GormListingRepository) FindByID(ctx context.Context, codOfer int64) (*listing.ListingRecord, error) {
	var model models.PropertyMetadataModel
	err := r.db.WithContext(ctx).Where("cod_ofer = ?", codOfer).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, listing.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find listing: %w", err)
	}
	return model.ToDomain(), nil
}

// AvailabilityMap returns every known cod_ofer mapped to its
// availability flag.
func (r *GormListingRepository) AvailabilityMap(ctx context.Context) (map[int64]bool, error) {
	var rows []struct {
		CodOfer      int64
		NoDisponible bool
	}
	err := r.db.WithContext(ctx).
		Model(&models.PropertyMetadataModel{}).
		Select("cod_ofer", "no_disponible").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load availability map: %w", err)
	}

	result := make(map[int64]bool, len(rows))
	for _, row := range rows {
		result[row.CodOfer] = !row.NoDisponible
	}
	return result, nil
}

// MarkUnavailable soft-deletes the given listings.
func (r *GormListingRepository) MarkUnavailable(ctx context.Context, ids []int64) error {
	return r.setAvailability(ctx, ids, true)
}

// Reactivate clears the unavailable flag of the given listings.
func (r *GormListingRepository) Reactivate(ctx context.Context, ids []int64) error {
	return r.setAvailability(ctx, ids, false)
}

func (r *GormListingRepository) setAvailability(ctx context.Context, ids []int64, unavailable bool) error {
	if len(ids) == 0 {
		return nil
	}

	err := r.db.WithContext(ctx).
		Model(&models.PropertyMetadataModel{}).
		Where("cod_ofer IN ?", ids).
		Updates(map[string]any{
			"no_disponible": unavailable,
			"updated_at":    time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update listing availability: %w", err)
	}
	return nil
}

// FindMissingTranslations returns up to limit available listings whose
// description bundle carries a non-empty source text and lacks at
// least one target language.
func (r *GormListingRepository) FindMissingTranslations(ctx context.Context, limit int) ([]*listing.ListingRecord, error) {
	missing := make([]string, 0, len(listing.TargetLanguages))
	for _, lang := range listing.TargetLanguages {
		missing = append(missing, fmt.Sprintf("COALESCE(descriptions->>'%s', '') = ''", lang))
	}

	query := r.db.WithContext(ctx).
		Where("no_disponible = ?", false).
		Where(fmt.Sprintf("COALESCE(descriptions->>'%s', '') <> ''", listing.LangES)).
		Where(strings.Join(missing, " OR ")).
		Order("cod_ofer")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var modelRows []models.PropertyMetadataModel
	if err := query.Find(&modelRows).Error; err != nil {
		return nil, fmt.Errorf("failed to find untranslated listings: %w", err)
	}

	records := make([]*listing.ListingRecord, 0, len(modelRows))
	for i := range modelRows {
		records = append(records, modelRows[i].ToDomain())
	}
	return records, nil
}

// UpdateDescriptions replaces the stored description bundle of one
// listing.
func (r *GormListingRepository) UpdateDescriptions(ctx context.Context, codOfer int64, bundle listing.DescriptionBundle) error {
	payload, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("failed to encode descriptions: %w", err)
	}

	result := r.db.WithContext(ctx).
		Model(&models.PropertyMetadataModel{}).
		Where("cod_ofer = ?", codOfer).
		Updates(map[string]any{
			"descriptions": string(payload),
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update descriptions: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return listing.ErrNotFound
	}
	return nil
}

// Ensure GormListingRepository implements the repository interface
var _ listing.ListingRepository = (*GormListingRepository)(nil)
