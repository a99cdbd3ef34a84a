package address

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vidahome/backend/internal/domain/integration"
	"github.com/vidahome/backend/internal/infrastructure/cache"
	"github.com/vidahome/backend/internal/infrastructure/logger"
)

// Service fronts the cadastral registry with a TTL cache. Registry
// answers change rarely, so every successful lookup is memoized;
// negative answers and errors are never cached.
type Service struct {
	registry integration.AddressRegistry
	store    cache.Store
	ttl      time.Duration
	logger   *zap.Logger
}

// NewService creates an address lookup service.
func NewService(registry integration.AddressRegistry, store cache.Store, ttl time.Duration, log *zap.Logger) *Service {
	return &Service{
		registry: registry,
		store:    store,
		ttl:      ttl,
		logger:   logger.Named(log, "address"),
	}
}

// SearchByAddress finds parcel candidates for a postal address.
func (s *Service) SearchByAddress(ctx context.Context, q integration.AddressQuery) ([]integration.AddressCandidate, error) {
	key := searchKey(q)
	var cached []integration.AddressCandidate
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}

	candidates, err := s.registry.SearchByAddress(ctx, q)
	if err != nil {
		return nil, err
	}

	s.toCache(ctx, key, candidates)
	return candidates, nil
}

// SearchByReference resolves a cadastral reference to its parcel
// candidates.
func (s *Service) SearchByReference(ctx context.Context, reference string) ([]integration.AddressCandidate, error) {
	reference = strings.ToUpper(strings.TrimSpace(reference))
	key := "ref:" + reference

	var cached []integration.AddressCandidate
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}

	candidates, err := s.registry.SearchByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	s.toCache(ctx, key, candidates)
	return candidates, nil
}

// ListStreets returns the street index of a municipality, optionally
// filtered by a name fragment.
func (s *Service) ListStreets(ctx context.Context, province, municipality, filter string) ([]integration.Street, error) {
	key := fmt.Sprintf("streets:%s|%s|%s", normalize(province), normalize(municipality), normalize(filter))

	var cached []integration.Street
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}

	streets, err := s.registry.ListStreets(ctx, province, municipality, filter)
	if err != nil {
		return nil, err
	}

	s.toCache(ctx, key, streets)
	return streets, nil
}

// ListStreetNumbers returns the known portal numbers of one street.
func (s *Service) ListStreetNumbers(ctx context.Context, province, municipality, streetType, street, number string) ([]integration.StreetNumber, error) {
	key := fmt.Sprintf("numbers:%s|%s|%s|%s|%s",
		normalize(province), normalize(municipality), normalize(streetType), normalize(street), normalize(number))

	var cached []integration.StreetNumber
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}

	numbers, err := s.registry.ListStreetNumbers(ctx, province, municipality, streetType, street, number)
	if err != nil {
		return nil, err
	}

	s.toCache(ctx, key, numbers)
	return numbers, nil
}

func (s *Service) fromCache(ctx context.Context, key string, out any) bool {
	payload, err := s.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(payload, out); err != nil {
		s.logger.Warn("Dropping corrupt cache entry", zap.String("key", key), zap.Error(err))
		_ = s.store.Delete(ctx, key)
		return false
	}
	return true
}

func (s *Service) toCache(ctx context.Context, key string, value any) {
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.store.Set(ctx, key, payload, s.ttl); err != nil {
		s.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func searchKey(q integration.AddressQuery) string {
	return fmt.Sprintf("addr:%s|%s|%s|%s|%s",
		normalize(q.Province), normalize(q.Municipality), normalize(q.StreetType), normalize(q.Street), normalize(q.Number))
}

func normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
