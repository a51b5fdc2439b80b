package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"
	"github.com/zatekoja/healthatlas/internal/domain/entities"
	"github.com/zatekoja/healthatlas/internal/domain/repositories"
	"github.com/zatekoja/healthatlas/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/healthatlas/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/healthatlas/pkg/errors"
)

const locationsTable = "locations"

// LocationAdapter implements LocationRepository on a PostGIS geometry column.
// Geometry crosses the SQL boundary as GeoJSON text.
type LocationAdapter struct {
	client  *postgres.Client
	db      *goqu.Database
	metrics *observability.Metrics
}

// NewLocationAdapter creates a new location adapter
func NewLocationAdapter(client *postgres.Client, metrics *observability.Metrics) repositories.LocationRepository {
	return &LocationAdapter{
		client:  client,
		db:      goqu.New("postgres", client.DB()),
		metrics: metrics,
	}
}

// Create stores a location
func (a *LocationAdapter) Create(ctx context.Context, location *entities.Location) error {
	if err := entities.ValidateGeometry(location.Geometry); err != nil {
		return apperrors.NewValidationError(err.Error())
	}

	geometry, err := location.Geometry.MarshalJSON()
	if err != nil {
		return apperrors.NewInternalError("failed to encode geometry", err)
	}

	if location.ID == "" {
		location.ID = uuid.NewString()
	}
	if location.CreatedAt.IsZero() {
		location.CreatedAt = time.Now().UTC()
	}

	query, _, err := a.db.Insert(locationsTable).Rows(goqu.Record{
		"id":          location.ID,
		"object_type": location.ObjectType,
		"geom":        goqu.L("ST_SetSRID(ST_GeomFromGeoJSON(?), 4326)", string(geometry)),
		"created_at":  location.CreatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	defer recordQuery(ctx, a.metrics, "locations.insert", time.Now())
	if _, err := a.client.DB().ExecContext(ctx, query); err != nil {
		return apperrors.NewInternalError("failed to create location", err)
	}

	return nil
}

// GetByID retrieves a location by id, returning (nil, nil) when absent
func (a *LocationAdapter) GetByID(ctx context.Context, id string) (*entities.Location, error) {
	query, _, err := a.selectLocations().Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	defer recordQuery(ctx, a.metrics, "locations.select", time.Now())
	location, err := scanLocation(a.client.DB().QueryRowContext(ctx, query))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get location", err)
	}

	return location, nil
}

// GetByIDs retrieves every existing location among ids with one query
func (a *LocationAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Location, error) {
	if len(ids) == 0 {
		return []*entities.Location{}, nil
	}

	query, _, err := a.selectLocations().Where(goqu.Ex{"id": ids}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	defer recordQuery(ctx, a.metrics, "locations.select_many", time.Now())
	rows, err := a.client.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get locations by ids", err)
	}
	defer rows.Close()

	locations := make([]*entities.Location, 0, len(ids))
	for rows.Next() {
		location, err := scanLocation(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan location", err)
		}
		locations = append(locations, location)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to get locations by ids", err)
	}

	return locations, nil
}

// Delete removes a location
func (a *LocationAdapter) Delete(ctx context.Context, id string) error {
	query, _, err := a.db.Delete(locationsTable).Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	defer recordQuery(ctx, a.metrics, "locations.delete", time.Now())
	result, err := a.client.DB().ExecContext(ctx, query)
	if err != nil {
		return apperrors.NewInternalError("failed to delete location", err)
	}

	return expectAffected(result, "location with id "+id+" not found")
}

func (a *LocationAdapter) selectLocations() *goqu.SelectDataset {
	return a.db.From(locationsTable).Select(
		goqu.I("id"),
		goqu.I("object_type"),
		goqu.L("ST_AsGeoJSON(geom)").As("geometry"),
		goqu.I("created_at"),
	)
}

func scanLocation(row rowScanner) (*entities.Location, error) {
	location := &entities.Location{}
	var objectType, geometry sql.NullString

	if err := row.Scan(&location.ID, &objectType, &geometry, &location.CreatedAt); err != nil {
		return nil, err
	}
	location.ObjectType = objectType.String

	if geometry.Valid && geometry.String != "" {
		g, err := geojson.UnmarshalGeometry([]byte(geometry.String))
		if err != nil {
			return nil, err
		}
		location.Geometry = g
	}

	return location, nil
}
