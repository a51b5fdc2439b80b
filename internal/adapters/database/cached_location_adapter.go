package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/healthatlas/internal/domain/entities"
	"github.com/zatekoja/healthatlas/internal/domain/providers"
	"github.com/zatekoja/healthatlas/internal/domain/repositories"
	"github.com/zatekoja/healthatlas/internal/infrastructure/observability"
)

// CachedLocationAdapter is a read-through cache in front of the Location registry.
// Locations are never updated in place, so an entry only goes stale through Delete,
// which evicts it.
type CachedLocationAdapter struct {
	adapter    repositories.LocationRepository
	cache      providers.CacheProvider
	ttlSeconds int
	metrics    *observability.Metrics
}

// NewCachedLocationAdapter wraps adapter with cache entries living ttlSeconds
func NewCachedLocationAdapter(adapter repositories.LocationRepository, cache providers.CacheProvider, ttlSeconds int, metrics *observability.Metrics) repositories.LocationRepository {
	return &CachedLocationAdapter{
		adapter:    adapter,
		cache:      cache,
		ttlSeconds: ttlSeconds,
		metrics:    metrics,
	}
}

func locationCacheKey(id string) string {
	return fmt.Sprintf("location:%s", id)
}

// Create stores the location and primes the cache
func (a *CachedLocationAdapter) Create(ctx context.Context, location *entities.Location) error {
	if err := a.adapter.Create(ctx, location); err != nil {
		return err
	}
	a.store(ctx, location)
	return nil
}

// GetByID retrieves a location by ID with caching. Absence is not cached.
func (a *CachedLocationAdapter) GetByID(ctx context.Context, id string) (*entities.Location, error) {
	key := locationCacheKey(id)

	cached, err := a.cache.Get(ctx, key)
	switch {
	case err == nil:
		var location entities.Location
		if err := json.Unmarshal(cached, &location); err == nil {
			observability.RecordCacheHit(ctx, a.metrics, "location")
			return &location, nil
		}
		log.Warn().Err(err).Str("location_id", id).Msg("Failed to unmarshal cached location")
	case !errors.Is(err, providers.ErrCacheMiss):
		log.Warn().Err(err).Str("location_id", id).Msg("Location cache read failed")
	}
	observability.RecordCacheMiss(ctx, a.metrics, "location")

	location, err := a.adapter.GetByID(ctx, id)
	if err != nil || location == nil {
		return location, err
	}
	a.store(ctx, location)
	return location, nil
}

// GetByIDs serves what it can from cache and fetches the rest in one call
func (a *CachedLocationAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Location, error) {
	if len(ids) == 0 {
		return []*entities.Location{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = locationCacheKey(id)
	}

	cached, err := a.cache.GetMulti(ctx, keys)
	if err != nil {
		log.Warn().Err(err).Int("count", len(ids)).Msg("Location cache batch read failed")
		cached = nil
	}

	locations := make([]*entities.Location, 0, len(ids))
	missing := make([]string, 0)
	for i, id := range ids {
		if data, ok := cached[keys[i]]; ok {
			var location entities.Location
			if err := json.Unmarshal(data, &location); err == nil {
				locations = append(locations, &location)
				continue
			}
		}
		missing = append(missing, id)
	}

	if hits := len(ids) - len(missing); hits > 0 {
		observability.RecordCacheHit(ctx, a.metrics, "location")
	}
	if len(missing) == 0 {
		return locations, nil
	}
	observability.RecordCacheMiss(ctx, a.metrics, "location")

	fetched, err := a.adapter.GetByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	for _, location := range fetched {
		a.store(ctx, location)
	}
	return append(locations, fetched...), nil
}

// Delete removes the location and evicts it
func (a *CachedLocationAdapter) Delete(ctx context.Context, id string) error {
	if err := a.adapter.Delete(ctx, id); err != nil {
		return err
	}
	if err := a.cache.Delete(ctx, locationCacheKey(id)); err != nil {
		log.Warn().Err(err).Str("location_id", id).Msg("Failed to evict cached location")
	}
	return nil
}

func (a *CachedLocationAdapter) store(ctx context.Context, location *entities.Location) {
	data, err := json.Marshal(location)
	if err != nil {
		return
	}
	if err := a.cache.Set(ctx, locationCacheKey(location.ID), data, a.ttlSeconds); err != nil {
		log.Warn().Err(err).Str("location_id", location.ID).Msg("Failed to cache location")
	}
}
