package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/healthatlas/internal/domain/entities"
	"github.com/zatekoja/healthatlas/pkg/geo"
	apperrors "github.com/zatekoja/healthatlas/pkg/errors"
)

var locationColumns = []string{"id", "object_type", "geometry", "created_at"}

func TestLocationAdapter_GetByIDsSingleQuery(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewLocationAdapter(client, nil)

	now := time.Now()
	mock.ExpectQuery(sqlPattern(`ST_AsGeoJSON(geom)`, `FROM "locations"`, `"id" IN ('loc-1', 'loc-2')`)).
		WillReturnRows(sqlmock.NewRows(locationColumns).
			AddRow("loc-1", "point", `{"type":"Point","coordinates":[106.660172,10.762622]}`, now).
			AddRow("loc-2", "zone", `{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1],[0,0]]]}`, now))

	locations, err := adapter.GetByIDs(context.Background(), []string{"loc-1", "loc-2"})

	require.NoError(t, err)
	require.Len(t, locations, 2)

	c, ok := locations[0].Coordinate()
	require.True(t, ok)
	assert.Equal(t, 10.762622, c.Latitude)
	assert.Equal(t, 106.660172, c.Longitude)

	_, isPolygon := locations[1].Geometry.Coordinates.(orb.Polygon)
	assert.True(t, isPolygon)
}

func TestLocationAdapter_GetByIDsEmpty(t *testing.T) {
	client, _ := setupMockDB(t)
	adapter := NewLocationAdapter(client, nil)

	locations, err := adapter.GetByIDs(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, locations)
}

func TestLocationAdapter_GetByIDMissing(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewLocationAdapter(client, nil)

	mock.ExpectQuery(sqlPattern(`FROM "locations"`, `"id" = 'nope'`)).
		WillReturnRows(sqlmock.NewRows(locationColumns))

	location, err := adapter.GetByID(context.Background(), "nope")

	assert.NoError(t, err)
	assert.Nil(t, location)
}

func TestLocationAdapter_CreateWritesGeoJSON(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewLocationAdapter(client, nil)

	mock.ExpectExec(sqlPattern(`INSERT INTO "locations"`, `ST_SetSRID(ST_GeomFromGeoJSON('{"type":"Point"`, `4326)`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	location := entities.NewLocation("point", geo.NewCoordinate(6.5, 3.4).Point())
	require.NoError(t, adapter.Create(context.Background(), location))

	assert.NotEmpty(t, location.ID)
	assert.False(t, location.CreatedAt.IsZero())
}

func TestLocationAdapter_CreateRejectsOpenPolygon(t *testing.T) {
	client, _ := setupMockDB(t)
	adapter := NewLocationAdapter(client, nil)

	location := entities.NewLocation("zone", orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 1}}})
	err := adapter.Create(context.Background(), location)

	assert.True(t, apperrors.IsValidation(err))
}
