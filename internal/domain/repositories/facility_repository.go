package repositories

import (
	"context"

	"github.com/zatekoja/healthatlas/internal/domain/entities"
)

// EntityRepository defines the data operations shared by the directory entity stores.
// GetByID returns (nil, nil) when no record exists.
type EntityRepository[T any] interface {
	// Create creates a new record
	Create(ctx context.Context, entity T) error

	// GetByID retrieves a record by ID
	GetByID(ctx context.Context, id string) (T, error)

	// List retrieves records matching the query
	List(ctx context.Context, query ListQuery) ([]T, error)

	// Update updates a record
	Update(ctx context.Context, entity T) error

	// Delete deletes a record
	Delete(ctx context.Context, id string) error
}

// FacilityRepository defines the interface for facility data operations
type FacilityRepository = EntityRepository[*entities.Facility]

// PharmacyRepository defines the interface for pharmacy data operations
type PharmacyRepository = EntityRepository[*entities.Pharmacy]

// OutbreakRepository defines the interface for outbreak zone data operations
type OutbreakRepository = EntityRepository[*entities.OutbreakZone]

// ProvinceRepository defines the interface for province data operations
type ProvinceRepository interface {
	Create(ctx context.Context, province *entities.Province) error
	GetByID(ctx context.Context, id string) (*entities.Province, error)
	List(ctx context.Context) ([]*entities.Province, error)
	Delete(ctx context.Context, id string) error
}
