package services

import (
	"context"
	"fmt"

	"github.com/paulmach/orb/geojson"
	"github.com/zatekoja/healthatlas/internal/domain/entities"
	"github.com/zatekoja/healthatlas/internal/domain/repositories"
	apperrors "github.com/zatekoja/healthatlas/pkg/errors"
)

// LocationService exposes the Location registry on its own
type LocationService struct {
	repo repositories.LocationRepository
}

// NewLocationService creates a new location service
func NewLocationService(repo repositories.LocationRepository) *LocationService {
	return &LocationService{repo: repo}
}

// Create stores a standalone geometry
func (s *LocationService) Create(ctx context.Context, objectType string, geometry *geojson.Geometry) (*entities.Location, error) {
	if err := entities.ValidateGeometry(geometry); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	location := &entities.Location{ObjectType: objectType, Geometry: geometry}
	if err := s.repo.Create(ctx, location); err != nil {
		return nil, err
	}
	return location, nil
}

// GetByID retrieves a location by ID
func (s *LocationService) GetByID(ctx context.Context, id string) (*entities.Location, error) {
	location, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if location == nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("location with id %s not found", id))
	}
	return location, nil
}

// Delete removes a location. Entries still pointing at it resolve to no location.
func (s *LocationService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
