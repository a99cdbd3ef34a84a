package translation

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vidahome/backend/internal/domain/integration"
	"github.com/vidahome/backend/internal/domain/listing"
)

// fakeEngine echoes the requested target languages, recording every
// request it receives.
type fakeEngine struct {
	requests []integration.TranslationRequest
	failFor  map[int64]error
}

func (f *fakeEngine) Translate(_ context.Context, req integration.TranslationRequest) (*integration.TranslationOutput, error) {
	f.requests = append(f.requests, req)
	if err := f.failFor[req.CodOfer]; err != nil {
		return nil, err
	}
	texts := make(map[string]string, len(req.TargetLangs))
	for _, lang := range req.TargetLangs {
		texts[lang] = "[" + lang + "] " + req.SourceText
	}
	return &integration.TranslationOutput{
		Texts:        texts,
		TokensUsed:   500,
		CostEstimate: decimal.RequireFromString("0.0001"),
	}, nil
}

type memListings struct {
	records map[int64]*listing.ListingRecord
}

func (r *memListings) Upsert(context.Context, *listing.ListingRecord, *listing.FeatureRecord) error {
	return nil
}

func (r *memListings) FindByID(_ context.Context, codOfer int64) (*listing.ListingRecord, error) {
	rec, ok := r.records[codOfer]
	if !ok {
		return nil, listing.ErrNotFound
	}
	cp := *rec
	cp.Descriptions = listing.DescriptionBundle{}
	for k, v := range rec.Descriptions {
		cp.Descriptions[k] = v
	}
	return &cp, nil
}

func (r *memListings) AvailabilityMap(context.Context) (map[int64]bool, error) { return nil, nil }
func (r *memListings) MarkUnavailable(context.Context, []int64) error         { return nil }
func (r *memListings) Reactivate(context.Context, []int64) error              { return nil }

func (r *memListings) FindMissingTranslations(_ context.Context, limit int) ([]*listing.ListingRecord, error) {
	var out []*listing.ListingRecord
	for id, rec := range r.records {
		if rec.NoDisponible || !rec.Descriptions.Has(listing.LangES) {
			continue
		}
		if len(rec.Descriptions.MissingTargets()) == 0 {
			continue
		}
		cp, _ := r.FindByID(context.Background(), id)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CodOfer < out[j].CodOfer })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memListings) UpdateDescriptions(_ context.Context, codOfer int64, bundle listing.DescriptionBundle) error {
	rec, ok := r.records[codOfer]
	if !ok {
		return listing.ErrNotFound
	}
	rec.Descriptions = bundle
	return nil
}

type memAudit struct {
	entries []*listing.TranslationLog
}

func (a *memAudit) Append(_ context.Context, entry *listing.TranslationLog) error {
	a.entries = append(a.entries, entry)
	return nil
}

func (a *memAudit) CountForListing(_ context.Context, codOfer int64) (int64, error) {
	var n int64
	for _, e := range a.entries {
		if e.CodOfer == codOfer {
			n++
		}
	}
	return n, nil
}

func seedListings(ids ...int64) *memListings {
	store := &memListings{records: make(map[int64]*listing.ListingRecord)}
	for _, id := range ids {
		store.records[id] = &listing.ListingRecord{
			CodOfer: id,
			Ref:     fmt.Sprintf("VH-%04d", id),
			Descriptions: listing.DescriptionBundle{
				listing.LangES: fmt.Sprintf("Descripción %d", id),
			},
		}
	}
	return store
}

func newTestService(engine *fakeEngine, store *memListings, audit *memAudit) *Service {
	return NewService(engine, store, audit, zap.NewNop())
}

func TestService_TranslateListing(t *testing.T) {
	engine := &fakeEngine{}
	store := seedListings(1001)
	audit := &memAudit{}
	svc := newTestService(engine, store, audit)

	result, err := svc.TranslateListing(context.Background(), 1001, nil, false)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Translated)
	assert.True(t, result.CostEstimate.Equal(decimal.RequireFromString("0.0001")))

	rec := store.records[1001]
	assert.Equal(t, "Descripción 1001", rec.Descriptions[listing.LangES])
	for _, lang := range listing.TargetLanguages {
		assert.Equal(t, "["+lang+"] Descripción 1001", rec.Descriptions[lang])
	}

	require.Len(t, audit.entries, 1)
	assert.Equal(t, listing.TranslationOK, audit.entries[0].Status)
	assert.Equal(t, 500, audit.entries[0].TokensUsed)
}

func TestService_TranslateListingUnknown(t *testing.T) {
	svc := newTestService(&fakeEngine{}, seedListings(), &memAudit{})

	_, err := svc.TranslateListing(context.Background(), 404, nil, false)
	assert.ErrorIs(t, err, listing.ErrNotFound)
}

func TestService_ExistingTranslationsAreNotRedone(t *testing.T) {
	engine := &fakeEngine{}
	store := seedListings(1)
	store.records[1].Descriptions[listing.LangEN] = "Hand-written English"
	svc := newTestService(engine, store, &memAudit{})

	result, err := svc.TranslateListing(context.Background(), 1, nil, false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Translated)

	// The engine was only asked for the missing languages.
	require.Len(t, engine.requests, 1)
	assert.Equal(t, []string{listing.LangFR, listing.LangDE, listing.LangIT, listing.LangPL}, engine.requests[0].TargetLangs)
	assert.Equal(t, "Hand-written English", store.records[1].Descriptions[listing.LangEN])
}

func TestService_FullyTranslatedListingIsSkipped(t *testing.T) {
	engine := &fakeEngine{}
	store := seedListings(1)
	for _, lang := range listing.TargetLanguages {
		store.records[1].Descriptions[lang] = "done"
	}
	audit := &memAudit{}
	svc := newTestService(engine, store, audit)

	result, err := svc.TranslateListing(context.Background(), 1, nil, false)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Translated)
	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, engine.requests)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, listing.TranslationSkipped, audit.entries[0].Status)
}

func TestService_ForceRegeneratesButKeepsSource(t *testing.T) {
	engine := &fakeEngine{}
	store := seedListings(1)
	store.records[1].Descriptions[listing.LangEN] = "stale"
	svc := newTestService(engine, store, &memAudit{})

	_, err := svc.TranslateListing(context.Background(), 1, []string{listing.LangEN, listing.LangES}, true)
	require.NoError(t, err)

	require.Len(t, engine.requests, 1)
	// The source language is never a translation target.
	assert.Equal(t, []string{listing.LangEN}, engine.requests[0].TargetLangs)
	assert.Equal(t, "[en] Descripción 1", store.records[1].Descriptions[listing.LangEN])
	assert.Equal(t, "Descripción 1", store.records[1].Descriptions[listing.LangES])
}

func TestService_TranslateBatchCollectsMissing(t *testing.T) {
	engine := &fakeEngine{}
	store := seedListings(1, 2, 3)
	for _, lang := range listing.TargetLanguages {
		store.records[2].Descriptions[lang] = "done"
	}
	svc := newTestService(engine, store, &memAudit{})

	result, err := svc.TranslateBatch(context.Background(), nil, 10, nil, false)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Translated)
	assert.Equal(t, 0, result.Skipped)
	assert.True(t, result.CostEstimate.Equal(decimal.RequireFromString("0.0002")))
}

func TestService_TranslateBatchIsolatesFailures(t *testing.T) {
	engine := &fakeEngine{failFor: map[int64]error{2: integration.ErrTranslationFailed}}
	store := seedListings(1, 2, 3)
	audit := &memAudit{}
	svc := newTestService(engine, store, audit)

	result, err := svc.TranslateBatch(context.Background(), []int64{1, 2, 3}, 0, nil, false)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Translated)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.ErrorDetails, 1)
	assert.Equal(t, int64(2), result.ErrorDetails[0].CodOfer)

	count, err := audit.CountForListing(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestService_TranslateBatchSkipsUnknownIDs(t *testing.T) {
	engine := &fakeEngine{}
	store := seedListings(1)
	svc := newTestService(engine, store, &memAudit{})

	result, err := svc.TranslateBatch(context.Background(), []int64{1, 999}, 0, nil, false)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Translated)
	assert.Equal(t, 0, result.Failed)
}

func TestService_NoSourceTextIsSkipped(t *testing.T) {
	engine := &fakeEngine{}
	store := seedListings(1)
	store.records[1].Descriptions = listing.DescriptionBundle{}
	audit := &memAudit{}
	svc := newTestService(engine, store, audit)

	result, err := svc.TranslateListing(context.Background(), 1, nil, false)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, engine.requests)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, "no source text", audit.entries[0].ErrorMessage)
}
