package repositories

import (
	"context"

	"github.com/zatekoja/healthatlas/internal/domain/entities"
)

// LocationFinder is the read side of the Location registry used by the join resolver
type LocationFinder interface {
	// GetByID retrieves a location by ID, returning (nil, nil) when absent
	GetByID(ctx context.Context, id string) (*entities.Location, error)

	// GetByIDs retrieves every existing location among ids in a single call.
	// Unknown ids are skipped, order is unspecified.
	GetByIDs(ctx context.Context, ids []string) ([]*entities.Location, error)
}

// LocationRepository defines the interface for the Location registry
type LocationRepository interface {
	LocationFinder

	// Create stores a location, assigning its ID when empty
	Create(ctx context.Context, location *entities.Location) error

	// Delete removes a location
	Delete(ctx context.Context, id string) error
}
