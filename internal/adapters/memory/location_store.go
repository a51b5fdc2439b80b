package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zatekoja/healthatlas/internal/domain/entities"
	"github.com/zatekoja/healthatlas/internal/domain/repositories"
	apperrors "github.com/zatekoja/healthatlas/pkg/errors"
)

// LocationStore is an in-process LocationRepository
type LocationStore struct {
	mu        sync.RWMutex
	locations map[string]*entities.Location
}

// NewLocationStore creates an empty location store
func NewLocationStore() *LocationStore {
	return &LocationStore{locations: make(map[string]*entities.Location)}
}

var _ repositories.LocationRepository = (*LocationStore)(nil)

// Create stores a location
func (s *LocationStore) Create(ctx context.Context, location *entities.Location) error {
	if err := entities.ValidateGeometry(location.Geometry); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	if location.ID == "" {
		location.ID = uuid.NewString()
	}
	if location.CreatedAt.IsZero() {
		location.CreatedAt = time.Now().UTC()
	}

	stored, err := clone(location)
	if err != nil {
		return apperrors.NewInternalError("failed to store location", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.locations[location.ID]; exists {
		return apperrors.NewConflictError("location with id " + location.ID + " already exists")
	}
	s.locations[location.ID] = stored
	return nil
}

// GetByID retrieves a location, returning (nil, nil) when absent
func (s *LocationStore) GetByID(ctx context.Context, id string) (*entities.Location, error) {
	s.mu.RLock()
	location, ok := s.locations[id]
	s.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	return clone(location)
}

// GetByIDs retrieves the known locations among ids
func (s *LocationStore) GetByIDs(ctx context.Context, ids []string) ([]*entities.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	locations := make([]*entities.Location, 0, len(ids))
	for _, id := range ids {
		location, ok := s.locations[id]
		if !ok {
			continue
		}
		c, err := clone(location)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to read location", err)
		}
		locations = append(locations, c)
	}
	return locations, nil
}

// Delete removes a location
func (s *LocationStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.locations[id]; !ok {
		return apperrors.NewNotFoundError("location with id " + id + " not found")
	}
	delete(s.locations, id)
	return nil
}
