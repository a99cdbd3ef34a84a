package address

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vidahome/backend/internal/domain/integration"
	"github.com/vidahome/backend/internal/infrastructure/cache"
)

// fakeRegistry counts calls so tests can prove cache hits.
type fakeRegistry struct {
	searchCalls int
	refCalls    int
	streetCalls int
	numberCalls int
	searchErr   error
	candidates  []integration.AddressCandidate
	streets     []integration.Street
	numbers     []integration.StreetNumber
}

func (f *fakeRegistry) SearchByAddress(context.Context, integration.AddressQuery) ([]integration.AddressCandidate, error) {
	f.searchCalls++
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.candidates, nil
}

func (f *fakeRegistry) SearchByReference(context.Context, string) ([]integration.AddressCandidate, error) {
	f.refCalls++
	return f.candidates, nil
}

func (f *fakeRegistry) ListStreets(context.Context, string, string, string) ([]integration.Street, error) {
	f.streetCalls++
	return f.streets, nil
}

func (f *fakeRegistry) ListStreetNumbers(context.Context, string, string, string, string, string) ([]integration.StreetNumber, error) {
	f.numberCalls++
	return f.numbers, nil
}

func newTestService(registry *fakeRegistry) (*Service, *cache.InMemoryStore) {
	store := cache.NewInMemoryStore()
	return NewService(registry, store, time.Hour, zap.NewNop()), store
}

func testQuery() integration.AddressQuery {
	return integration.AddressQuery{
		Province:     "Alicante",
		Municipality: "Torrevieja",
		StreetType:   "CALLE",
		Street:       "Mayor",
		Number:       "12",
	}
}

func TestService_SearchByAddressMemoizes(t *testing.T) {
	registry := &fakeRegistry{
		candidates: []integration.AddressCandidate{{Reference: "9872023VH5797S0001WX", Street: "MAYOR"}},
	}
	svc, store := newTestService(registry)
	defer store.Close()
	ctx := context.Background()

	first, err := svc.SearchByAddress(ctx, testQuery())
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := svc.SearchByAddress(ctx, testQuery())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, registry.searchCalls)
}

func TestService_CacheKeyNormalizesInput(t *testing.T) {
	registry := &fakeRegistry{candidates: []integration.AddressCandidate{{Reference: "9872023VH5797S0001WX"}}}
	svc, store := newTestService(registry)
	defer store.Close()
	ctx := context.Background()

	_, err := svc.SearchByAddress(ctx, testQuery())
	require.NoError(t, err)

	shouted := testQuery()
	shouted.Street = "  MAYOR "
	shouted.Municipality = "torrevieja"
	_, err = svc.SearchByAddress(ctx, shouted)
	require.NoError(t, err)

	assert.Equal(t, 1, registry.searchCalls)
}

func TestService_ErrorsAreNotCached(t *testing.T) {
	registry := &fakeRegistry{searchErr: integration.ErrNoAddressMatch}
	svc, store := newTestService(registry)
	defer store.Close()
	ctx := context.Background()

	_, err := svc.SearchByAddress(ctx, testQuery())
	assert.ErrorIs(t, err, integration.ErrNoAddressMatch)

	registry.searchErr = nil
	registry.candidates = []integration.AddressCandidate{{Reference: "9872023VH5797S0001WX"}}

	candidates, err := svc.SearchByAddress(ctx, testQuery())
	require.NoError(t, err)
	assert.Len(t, candidates, 1)
	assert.Equal(t, 2, registry.searchCalls)
}

func TestService_SearchByReferenceMemoizes(t *testing.T) {
	registry := &fakeRegistry{candidates: []integration.AddressCandidate{{Reference: "9872023VH5797S0001WX"}}}
	svc, store := newTestService(registry)
	defer store.Close()
	ctx := context.Background()

	_, err := svc.SearchByReference(ctx, "9872023vh5797s0001wx")
	require.NoError(t, err)
	_, err = svc.SearchByReference(ctx, "  9872023VH5797S0001WX ")
	require.NoError(t, err)

	assert.Equal(t, 1, registry.refCalls)
}

func TestService_ListStreetsMemoizes(t *testing.T) {
	registry := &fakeRegistry{streets: []integration.Street{{Type: "CL", Name: "MAYOR"}}}
	svc, store := newTestService(registry)
	defer store.Close()
	ctx := context.Background()

	_, err := svc.ListStreets(ctx, "Alicante", "Torrevieja", "may")
	require.NoError(t, err)
	streets, err := svc.ListStreets(ctx, "Alicante", "Torrevieja", "MAY")
	require.NoError(t, err)

	require.Len(t, streets, 1)
	assert.Equal(t, 1, registry.streetCalls)

	// A different filter is a different cache entry.
	_, err = svc.ListStreets(ctx, "Alicante", "Torrevieja", "ram")
	require.NoError(t, err)
	assert.Equal(t, 2, registry.streetCalls)
}

func TestService_ListStreetNumbersMemoizes(t *testing.T) {
	registry := &fakeRegistry{numbers: []integration.StreetNumber{{Number: "12", ParcelReference: "9872023VH5797S"}}}
	svc, store := newTestService(registry)
	defer store.Close()
	ctx := context.Background()

	_, err := svc.ListStreetNumbers(ctx, "Alicante", "Torrevieja", "CL", "MAYOR", "1")
	require.NoError(t, err)
	numbers, err := svc.ListStreetNumbers(ctx, "Alicante", "Torrevieja", "CL", "MAYOR", "1")
	require.NoError(t, err)

	require.Len(t, numbers, 1)
	assert.Equal(t, "9872023VH5797S", numbers[0].ParcelReference)
	assert.Equal(t, 1, registry.numberCalls)
}
