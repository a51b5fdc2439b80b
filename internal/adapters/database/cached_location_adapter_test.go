package database

import (
	"context"
	"sync"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/healthatlas/internal/domain/entities"
	"github.com/zatekoja/healthatlas/internal/domain/providers"
)

type MockLocationRepository struct {
	mock.Mock
}

func (m *MockLocationRepository) Create(ctx context.Context, location *entities.Location) error {
	return m.Called(ctx, location).Error(0)
}

func (m *MockLocationRepository) GetByID(ctx context.Context, id string) (*entities.Location, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Location), args.Error(1)
}

func (m *MockLocationRepository) GetByIDs(ctx context.Context, ids []string) ([]*entities.Location, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Location), args.Error(1)
}

func (m *MockLocationRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// mapCache is a process-local CacheProvider
type mapCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string][]byte)}
}

func (c *mapCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.entries[key]; ok {
		return v, nil
	}
	return nil, providers.ErrCacheMiss
}

func (c *mapCache) GetMulti(ctx context.Context, keys []string) (map[string][]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	found := make(map[string][]byte)
	for _, k := range keys {
		if v, ok := c.entries[k]; ok {
			found[k] = v
		}
	}
	return found, nil
}

func (c *mapCache) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *mapCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func pointLocation(id string, lon, lat float64) *entities.Location {
	l := entities.NewLocation("facility", orb.Point{lon, lat})
	l.ID = id
	return l
}

func TestCachedLocationAdapter_GetByIDsFetchesOnlyMisses(t *testing.T) {
	ctx := context.Background()
	inner := new(MockLocationRepository)
	cache := newMapCache()
	adapter := NewCachedLocationAdapter(inner, cache, 60, nil)

	warm := pointLocation("loc-1", 3.39, 6.45)
	inner.On("Create", ctx, warm).Return(nil).Once()
	require.NoError(t, adapter.Create(ctx, warm))

	cold := pointLocation("loc-2", 7.48, 9.04)
	inner.On("GetByIDs", ctx, []string{"loc-2", "loc-3"}).Return([]*entities.Location{cold}, nil).Once()

	locations, err := adapter.GetByIDs(ctx, []string{"loc-1", "loc-2", "loc-3"})
	require.NoError(t, err)
	require.Len(t, locations, 2)

	// second read is served from cache apart from the unknown id
	inner.On("GetByIDs", ctx, []string{"loc-3"}).Return([]*entities.Location{}, nil).Once()
	locations, err = adapter.GetByIDs(ctx, []string{"loc-1", "loc-2", "loc-3"})
	require.NoError(t, err)
	require.Len(t, locations, 2)

	coord, ok := locations[1].Coordinate()
	require.True(t, ok)
	assert.InDelta(t, 9.04, coord.Latitude, 1e-9)

	inner.AssertExpectations(t)
}

func TestCachedLocationAdapter_AllHitsSkipStore(t *testing.T) {
	ctx := context.Background()
	inner := new(MockLocationRepository)
	adapter := NewCachedLocationAdapter(inner, newMapCache(), 60, nil)

	loc := pointLocation("loc-1", 3.39, 6.45)
	inner.On("Create", ctx, loc).Return(nil)
	require.NoError(t, adapter.Create(ctx, loc))

	got, err := adapter.GetByID(ctx, "loc-1")
	require.NoError(t, err)
	assert.Equal(t, "loc-1", got.ID)

	locations, err := adapter.GetByIDs(ctx, []string{"loc-1"})
	require.NoError(t, err)
	assert.Len(t, locations, 1)

	inner.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	inner.AssertNotCalled(t, "GetByIDs", mock.Anything, mock.Anything)
}

func TestCachedLocationAdapter_DeleteEvicts(t *testing.T) {
	ctx := context.Background()
	inner := new(MockLocationRepository)
	adapter := NewCachedLocationAdapter(inner, newMapCache(), 60, nil)

	loc := pointLocation("loc-1", 3.39, 6.45)
	inner.On("Create", ctx, loc).Return(nil)
	inner.On("Delete", ctx, "loc-1").Return(nil)
	inner.On("GetByID", ctx, "loc-1").Return(nil, nil)

	require.NoError(t, adapter.Create(ctx, loc))
	require.NoError(t, adapter.Delete(ctx, "loc-1"))

	got, err := adapter.GetByID(ctx, "loc-1")
	require.NoError(t, err)
	assert.Nil(t, got)
	inner.AssertCalled(t, "GetByID", ctx, "loc-1")
}

func TestCachedLocationAdapter_FailedDeleteKeepsEntry(t *testing.T) {
	ctx := context.Background()
	inner := new(MockLocationRepository)
	cache := newMapCache()
	adapter := NewCachedLocationAdapter(inner, cache, 60, nil)

	loc := pointLocation("loc-1", 3.39, 6.45)
	inner.On("Create", ctx, loc).Return(nil)
	inner.On("Delete", ctx, "loc-1").Return(assert.AnError)

	require.NoError(t, adapter.Create(ctx, loc))
	require.ErrorIs(t, adapter.Delete(ctx, "loc-1"), assert.AnError)

	_, err := cache.Get(ctx, locationCacheKey("loc-1"))
	assert.NoError(t, err)
}
