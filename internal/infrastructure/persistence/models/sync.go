package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vidahome/backend/internal/domain/listing"
)

// SyncProgressModel is the persistence model for sync checkpoints.
// Rows are append-only; the latest row per run kind is the cursor.
type SyncProgressModel struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	RunKind           string    `gorm:"type:varchar(20);not null;index:idx_sync_progress_kind_created,priority:1"`
	LastSyncedCodOfer int64     `gorm:"not null;default:0"`
	TotalSynced       int       `gorm:"not null;default:0"`
	Status            string    `gorm:"type:varchar(20);not null"`
	ErrorMessage      string    `gorm:"type:text"`
	CreatedAt         time.Time `gorm:"not null;index:idx_sync_progress_kind_created,priority:2,sort:desc"`
}

// TableName returns the table name for GORM
func (SyncProgressModel) TableName() string {
	return "sync_progress"
}

// ToDomain converts the persistence model to a domain SyncProgress.
func (m *SyncProgressModel) ToDomain() *listing.SyncProgress {
	return &listing.SyncProgress{
		ID:                m.ID,
		RunKind:           listing.RunKind(m.RunKind),
		LastSyncedCodOfer: m.LastSyncedCodOfer,
		TotalSynced:       m.TotalSynced,
		Status:            listing.RunStatus(m.Status),
		ErrorMessage:      m.ErrorMessage,
		CreatedAt:         m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain SyncProgress.
func (m *SyncProgressModel) FromDomain(p *listing.SyncProgress) {
	m.ID = p.ID
	m.RunKind = string(p.RunKind)
	m.LastSyncedCodOfer = p.LastSyncedCodOfer
	m.TotalSynced = p.TotalSynced
	m.Status = string(p.Status)
	m.ErrorMessage = p.ErrorMessage
	m.CreatedAt = p.CreatedAt
}

// TranslationLogModel is the persistence model for translation audit
// rows. Rows are append-only.
type TranslationLogModel struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CodOfer      int64           `gorm:"not null;index:idx_translation_log_cod_ofer"`
	Status       string          `gorm:"type:varchar(20);not null"`
	SourceLang   string          `gorm:"type:varchar(5);not null"`
	TargetLangs  string          `gorm:"type:varchar(50)"`
	TokensUsed   int             `gorm:"not null;default:0"`
	CostEstimate decimal.Decimal `gorm:"type:numeric(10,6)"`
	ErrorMessage string          `gorm:"type:text"`
	CreatedAt    time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TranslationLogModel) TableName() string {
	return "translation_log"
}

// ToDomain converts the persistence model to a domain TranslationLog.
func (m *TranslationLogModel) ToDomain() *listing.TranslationLog {
	return &listing.TranslationLog{
		ID:           m.ID,
		CodOfer:      m.CodOfer,
		Status:       listing.TranslationStatus(m.Status),
		SourceLang:   m.SourceLang,
		TargetLangs:  m.TargetLangs,
		TokensUsed:   m.TokensUsed,
		CostEstimate: m.CostEstimate,
		ErrorMessage: m.ErrorMessage,
		CreatedAt:    m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain TranslationLog.
func (m *TranslationLogModel) FromDomain(entry *listing.TranslationLog) {
	m.ID = entry.ID
	m.CodOfer = entry.CodOfer
	m.Status = string(entry.Status)
	m.SourceLang = entry.SourceLang
	m.TargetLangs = entry.TargetLangs
	m.TokensUsed = entry.TokensUsed
	m.CostEstimate = entry.CostEstimate
	m.ErrorMessage = entry.ErrorMessage
	m.CreatedAt = entry.CreatedAt
}
