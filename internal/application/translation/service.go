package translation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vidahome/backend/internal/domain/integration"
	"github.com/vidahome/backend/internal/domain/listing"
	"github.com/vidahome/backend/internal/infrastructure/logger"
)

// ItemError reports a per-listing translation failure inside a batch.
type ItemError struct {
	CodOfer int64  `json:"codOfer"`
	Error   string `json:"error"`
}

// BatchResult is the outcome of a translation batch.
type BatchResult struct {
	Translated   int             `json:"translated"`
	Skipped      int             `json:"skipped"`
	Failed       int             `json:"failed"`
	CostEstimate decimal.Decimal `json:"costEstimate"`
	ErrorDetails []ItemError     `json:"errorDetails,omitempty"`
}

// Service fills the missing target languages of listing descriptions
// through the translation engine. Existing translations are never
// overwritten unless the caller forces a refresh, and the source
// language text is never touched.
type Service struct {
	engine   integration.Translator
	listings listing.ListingRepository
	audit    listing.TranslationLogRepository
	logger   *zap.Logger
}

// NewService creates a translation service.
func NewService(
	engine integration.Translator,
	listings listing.ListingRepository,
	audit listing.TranslationLogRepository,
	log *zap.Logger,
) *Service {
	return &Service{
		engine:   engine,
		listings: listings,
		audit:    audit,
		logger:   logger.Named(log, "translation"),
	}
}

// TranslateListing translates one listing into the given target
// languages, or into all missing targets when none are given. With
// force set, existing target texts are regenerated; the source language
// entry always survives.
func (s *Service) TranslateListing(ctx context.Context, codOfer int64, targetLangs []string, force bool) (*BatchResult, error) {
	rec, err := s.listings.FindByID(ctx, codOfer)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{CostEstimate: decimal.Zero}
	s.translateOne(ctx, rec, targetLangs, force, result)
	if result.Failed > 0 {
		return result, fmt.Errorf("%w: listing %d", integration.ErrTranslationFailed, codOfer)
	}
	return result, nil
}

// TranslateBatch translates the given listings, or up to limit listings
// with missing translations when no ids are given. A per-listing
// failure is recorded and the batch moves on.
func (s *Service) TranslateBatch(ctx context.Context, ids []int64, limit int, targetLangs []string, force bool) (*BatchResult, error) {
	records, err := s.collect(ctx, ids, limit)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{CostEstimate: decimal.Zero}
	for _, rec := range records {
		if ctx.Err() != nil {
			break
		}
		s.translateOne(ctx, rec, targetLangs, force, result)
	}

	s.logger.Info("Translation batch done",
		zap.Int("translated", result.Translated),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
		zap.String("cost_estimate", result.CostEstimate.String()))
	return result, nil
}

func (s *Service) collect(ctx context.Context, ids []int64, limit int) ([]*listing.ListingRecord, error) {
	if len(ids) == 0 {
		records, err := s.listings.FindMissingTranslations(ctx, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to collect untranslated listings: %w", err)
		}
		return records, nil
	}

	records := make([]*listing.ListingRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := s.listings.FindByID(ctx, id)
		if err != nil {
			s.logger.Warn("Skipping unknown listing", zap.Int64("cod_ofer", id), zap.Error(err))
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// translateOne resolves the target set for one listing, calls the
// engine and merges the answer back into the stored bundle.
func (s *Service) translateOne(ctx context.Context, rec *listing.ListingRecord, targetLangs []string, force bool, result *BatchResult) {
	targets := s.resolveTargets(rec, targetLangs, force)
	if len(targets) == 0 {
		result.Skipped++
		s.log(ctx, rec, listing.TranslationSkipped, targets, nil, "")
		return
	}

	source := rec.Descriptions.Get(listing.LangES)
	if source == "" {
		result.Skipped++
		s.log(ctx, rec, listing.TranslationSkipped, targets, nil, "no source text")
		return
	}

	out, err := s.engine.Translate(ctx, integration.TranslationRequest{
		CodOfer:     rec.CodOfer,
		SourceLang:  listing.LangES,
		SourceText:  source,
		TargetLangs: targets,
	})
	if err != nil {
		result.Failed++
		result.ErrorDetails = append(result.ErrorDetails, ItemError{CodOfer: rec.CodOfer, Error: err.Error()})
		s.log(ctx, rec, listing.TranslationFailed, targets, nil, err.Error())
		s.logger.Warn("Failed to translate listing",
			zap.Int64("cod_ofer", rec.CodOfer),
			zap.Error(err))
		return
	}

	for lang, text := range out.Texts {
		if lang == listing.LangES {
			continue
		}
		rec.Descriptions[lang] = text
	}

	if err := s.listings.UpdateDescriptions(ctx, rec.CodOfer, rec.Descriptions); err != nil {
		result.Failed++
		result.ErrorDetails = append(result.ErrorDetails, ItemError{CodOfer: rec.CodOfer, Error: err.Error()})
		s.log(ctx, rec, listing.TranslationFailed, targets, out, err.Error())
		return
	}

	result.Translated++
	result.CostEstimate = result.CostEstimate.Add(out.CostEstimate)
	s.log(ctx, rec, listing.TranslationOK, targets, out, "")
}

// resolveTargets returns the languages to request for one listing. The
// source language is never a target; without force, languages already
// translated are dropped.
func (s *Service) resolveTargets(rec *listing.ListingRecord, requested []string, force bool) []string {
	if len(requested) == 0 {
		requested = listing.TargetLanguages
	}

	var targets []string
	for _, lang := range requested {
		if lang == listing.LangES {
			continue
		}
		if !force && rec.Descriptions.Has(lang) {
			continue
		}
		targets = append(targets, lang)
	}
	return targets
}

func (s *Service) log(ctx context.Context, rec *listing.ListingRecord, status listing.TranslationStatus, targets []string, out *integration.TranslationOutput, errMsg string) {
	entry := &listing.TranslationLog{
		ID:           uuid.New(),
		CodOfer:      rec.CodOfer,
		Status:       status,
		SourceLang:   listing.LangES,
		TargetLangs:  strings.Join(targets, ","),
		CostEstimate: decimal.Zero,
		ErrorMessage: errMsg,
		CreatedAt:    time.Now(),
	}
	if out != nil {
		entry.TokensUsed = out.TokensUsed
		entry.CostEstimate = out.CostEstimate
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Error("Failed to write translation audit row",
			zap.Int64("cod_ofer", rec.CodOfer),
			zap.Error(err))
	}
}
