package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/healthatlas/internal/adapters/events"
	"github.com/zatekoja/healthatlas/internal/adapters/memory"
	"github.com/zatekoja/healthatlas/internal/application/search"
	"github.com/zatekoja/healthatlas/internal/application/services"
	"github.com/zatekoja/healthatlas/internal/domain/entities"
	"github.com/zatekoja/healthatlas/internal/domain/providers"
	"github.com/zatekoja/healthatlas/internal/domain/repositories"
	"github.com/zatekoja/healthatlas/pkg/config"
	apperrors "github.com/zatekoja/healthatlas/pkg/errors"
	"github.com/zatekoja/healthatlas/pkg/geo"
)

// metersPerDegree is the length of one degree of latitude on the 6371 km sphere
const metersPerDegree = 111194.93

var searchConfig = config.SearchConfig{
	DefaultRadiusMeters: 5000,
	DefaultLimit:        50,
	MaxLimit:            500,
	NearbyCandidateCap:  100,
	NearbyDefaultLimit:  10,
}

type memoryDirectory struct {
	facilities *memory.EntityStore[*entities.Facility]
	locations  *memory.LocationStore
	service    *services.DirectoryService[*entities.Facility]
}

func newMemoryDirectory(t *testing.T) *memoryDirectory {
	t.Helper()
	d := &memoryDirectory{
		facilities: memory.NewFacilityStore(),
		locations:  memory.NewLocationStore(),
	}
	d.service = services.NewDirectoryService[*entities.Facility](services.FacilityCatalog, d.facilities, d.locations, nil, searchConfig)
	return d
}

// add stores a facility north of origin at the given distance in meters; a negative
// distance stores it without a location
func (d *memoryDirectory) add(t *testing.T, name string, origin geo.Coordinate, meters int) *entities.Facility {
	t.Helper()

	var geometry *geojson.Geometry
	if meters >= 0 {
		p := geo.NewCoordinate(origin.Latitude+float64(meters)/metersPerDegree, origin.Longitude).Point()
		geometry = geojson.NewGeometry(p)
	}

	created, err := d.service.Create(context.Background(), &entities.Facility{Name: name}, geometry, "")
	require.NoError(t, err)
	return created.Item
}

func names(items []*search.Enriched[*entities.Facility]) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Item.Name
	}
	return out
}

func TestDirectoryService_NearbyRequiresOrigin(t *testing.T) {
	repo := new(MockFacilityRepository)
	locations := new(MockLocationRepository)
	service := services.NewDirectoryService[*entities.Facility](services.FacilityCatalog, repo, locations, nil, searchConfig)

	_, err := service.Nearby(context.Background(), services.NearbyRequest{})

	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	locations.AssertNotCalled(t, "GetByIDs", mock.Anything, mock.Anything)
}

func TestDirectoryService_SearchBuildsStoreQuery(t *testing.T) {
	repo := new(MockFacilityRepository)
	locations := new(MockLocationRepository)
	service := services.NewDirectoryService[*entities.Facility](services.FacilityCatalog, repo, locations, nil, searchConfig)

	expected := repositories.ListQuery{
		Predicate: repositories.Predicate{
			Status: "active",
			AnyOf: []repositories.Condition{
				{Field: "name", Op: repositories.OpContains, Value: "general"},
				{Field: "address", Op: repositories.OpContains, Value: "general"},
				{Field: "phone", Op: repositories.OpContains, Value: "general"},
				{Field: "description", Op: repositories.OpContains, Value: "general"},
			},
			AllOf: []repositories.Condition{
				{Field: "province_id", Op: repositories.OpEquals, Value: "prov-1"},
				{Field: "address", Op: repositories.OpContains, Value: "ring road"},
			},
		},
		OrderBy: "name",
		Order:   repositories.SortAsc,
		Limit:   10,
		Offset:  20,
	}

	f1 := &entities.Facility{Name: "General A"}
	f1.ID = "f1"
	f1.SetLocationRef("loc-1")
	f2 := &entities.Facility{Name: "General B"}
	f2.ID = "f2"

	repo.On("List", mock.Anything, expected).Return([]*entities.Facility{f1, f2}, nil).Once()
	loc := entities.NewLocation("point", orb.Point{3.4, 6.5})
	loc.ID = "loc-1"
	locations.On("GetByIDs", mock.Anything, []string{"loc-1"}).Return([]*entities.Location{loc}, nil).Once()

	page, err := service.Search(context.Background(), services.SearchRequest{
		Query:   " general ",
		Filters: map[string]string{"province_id": "prov-1", "address": "ring road", "facility_type_id": ""},
		Limit:   10,
		Page:    3,
	})

	require.NoError(t, err)
	assert.Equal(t, 3, page.Page)
	assert.Equal(t, 10, page.Limit)
	require.Len(t, page.Items, 2)
	assert.Same(t, loc, page.Items[0].Location)
	assert.Nil(t, page.Items[1].Location)
	assert.False(t, page.Items[0].Ranked)
	repo.AssertExpectations(t)
	locations.AssertExpectations(t)
}

func TestDirectoryService_SearchPropagatesStoreFailure(t *testing.T) {
	repo := new(MockFacilityRepository)
	locations := new(MockLocationRepository)
	service := services.NewDirectoryService[*entities.Facility](services.FacilityCatalog, repo, locations, nil, searchConfig)

	storeErr := apperrors.NewInternalError("failed to list facilities", assert.AnError)
	repo.On("List", mock.Anything, mock.Anything).Return(nil, storeErr)

	_, err := service.Search(context.Background(), services.SearchRequest{})

	assert.Same(t, storeErr, err)
	locations.AssertNotCalled(t, "GetByIDs", mock.Anything, mock.Anything)
}

func TestDirectoryService_SearchWithOriginAppliesRadius(t *testing.T) {
	d := newMemoryDirectory(t)
	origin := geo.NewCoordinate(10.762622, 106.660172)

	d.add(t, "A", origin, 0)
	d.add(t, "B", origin, 11000)
	d.add(t, "C", origin, -1)

	page, err := d.service.Search(context.Background(), services.SearchRequest{Origin: &origin})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "A", page.Items[0].Item.Name)
	assert.Equal(t, 0, *page.Items[0].Distance)

	page, err = d.service.Search(context.Background(), services.SearchRequest{Origin: &origin, RadiusMeters: 100})
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, names(page.Items))

	plain, err := d.service.Search(context.Background(), services.SearchRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, names(plain.Items))
	assert.Nil(t, plain.Items[2].Location)
}

func TestDirectoryService_SearchPagesAreDisjoint(t *testing.T) {
	d := newMemoryDirectory(t)
	origin := geo.NewCoordinate(0, 0)
	for i := 0; i < 15; i++ {
		d.add(t, fmt.Sprintf("Facility %02d", i), origin, i*10)
	}

	first, err := d.service.Search(context.Background(), services.SearchRequest{Limit: 10, Page: 1})
	require.NoError(t, err)
	second, err := d.service.Search(context.Background(), services.SearchRequest{Limit: 10, Page: 2})
	require.NoError(t, err)
	all, err := d.service.Search(context.Background(), services.SearchRequest{})
	require.NoError(t, err)

	assert.Len(t, first.Items, 10)
	assert.Len(t, second.Items, 5)

	union := map[string]bool{}
	for _, item := range append(first.Items, second.Items...) {
		assert.False(t, union[item.Item.ID])
		union[item.Item.ID] = true
	}
	assert.Len(t, union, len(all.Items))
}

func TestDirectoryService_NearbyRanksBeforeTruncating(t *testing.T) {
	d := newMemoryDirectory(t)
	origin := geo.NewCoordinate(6.5244, 3.3792)

	// alphabetical order is the reverse of distance order
	d.add(t, "Alpha", origin, 4000)
	d.add(t, "Bravo", origin, 3000)
	d.add(t, "Charlie", origin, 2000)
	d.add(t, "Delta", origin, 1000)
	d.add(t, "Echo", origin, 9000)
	d.add(t, "Foxtrot", origin, -1)

	ranked, err := d.service.Nearby(context.Background(), services.NearbyRequest{Origin: &origin, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"Delta", "Charlie"}, names(ranked))

	ranked, err = d.service.Nearby(context.Background(), services.NearbyRequest{Origin: &origin})
	require.NoError(t, err)
	assert.Equal(t, []string{"Delta", "Charlie", "Bravo", "Alpha"}, names(ranked))
	for _, item := range ranked {
		assert.LessOrEqual(t, *item.Distance, 5000)
	}
}

func TestDirectoryService_AdvancedSearchSortsByDistanceNilLast(t *testing.T) {
	d := newMemoryDirectory(t)
	origin := geo.NewCoordinate(0, 0)

	d.add(t, "Three hundred", origin, 300)
	d.add(t, "No location", origin, -1)
	d.add(t, "One hundred", origin, 100)

	page, err := d.service.AdvancedSearch(context.Background(), services.AdvancedSearchRequest{
		Origin: &origin,
		SortBy: "distance",
	})

	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, 100, *page.Items[0].Distance)
	assert.Equal(t, 300, *page.Items[1].Distance)
	assert.Nil(t, page.Items[2].Distance)
	assert.True(t, page.Items[2].Ranked)
}

func TestDirectoryService_AdvancedSearchBoundsAndStoreSort(t *testing.T) {
	d := newMemoryDirectory(t)
	origin := geo.NewCoordinate(0, 0)

	d.add(t, "Near", origin, 50)
	d.add(t, "Middle", origin, 500)
	d.add(t, "Far", origin, 5000)
	d.add(t, "Nowhere", origin, -1)

	minDistance, maxDistance := 100, 1000
	page, err := d.service.AdvancedSearch(context.Background(), services.AdvancedSearchRequest{
		Origin:      &origin,
		MinDistance: &minDistance,
		MaxDistance: &maxDistance,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Middle"}, names(page.Items))

	page, err = d.service.AdvancedSearch(context.Background(), services.AdvancedSearchRequest{
		SortBy:    "name",
		SortOrder: "desc",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Nowhere", "Near", "Middle", "Far"}, names(page.Items))
	assert.False(t, page.Items[0].Ranked)

	page, err = d.service.AdvancedSearch(context.Background(), services.AdvancedSearchRequest{
		SortBy: "password",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Far", "Middle", "Near", "Nowhere"}, names(page.Items))
}

func TestDirectoryService_GetNotFound(t *testing.T) {
	d := newMemoryDirectory(t)

	_, err := d.service.Get(context.Background(), "missing")

	assert.True(t, apperrors.IsNotFound(err))
}

func TestDirectoryService_CreateCompensatesLocation(t *testing.T) {
	repo := new(MockFacilityRepository)
	locations := memory.NewLocationStore()
	service := services.NewDirectoryService[*entities.Facility](services.FacilityCatalog, repo, locations, nil, searchConfig)

	repo.On("Create", mock.Anything, mock.Anything).Return(assert.AnError)

	f := &entities.Facility{Name: "Broken"}
	_, err := service.Create(context.Background(), f, geojson.NewGeometry(orb.Point{3.4, 6.5}), "")

	var cwe *services.CompositeWriteError
	require.ErrorAs(t, err, &cwe)
	assert.Equal(t, "create facility", cwe.Step)
	assert.True(t, cwe.Compensated())
	assert.ErrorIs(t, err, assert.AnError)

	require.NotEmpty(t, f.LocationRef())
	loc, err := locations.GetByID(context.Background(), f.LocationRef())
	require.NoError(t, err)
	assert.Nil(t, loc)
}

func TestDirectoryService_CreateRejectsBadGeometry(t *testing.T) {
	d := newMemoryDirectory(t)

	_, err := d.service.Create(context.Background(), &entities.Facility{Name: "Bad"},
		geojson.NewGeometry(orb.LineString{{0, 0}, {1, 1}}), "")

	assert.True(t, apperrors.IsValidation(err))
}

func TestDirectoryService_UpdateReplacesLocation(t *testing.T) {
	d := newMemoryDirectory(t)
	origin := geo.NewCoordinate(1, 1)
	f := d.add(t, "Clinic", origin, 0)
	oldRef := f.LocationRef()
	createdAt := f.CreatedAt

	update := &entities.Facility{Name: "Clinic Renamed"}
	update.ID = f.ID
	result, err := d.service.Update(context.Background(), update, geojson.NewGeometry(orb.Point{2, 2}), "")
	require.NoError(t, err)

	assert.NotEqual(t, oldRef, result.Item.LocationRef())
	assert.Equal(t, createdAt.Unix(), result.Item.CreatedAt.Unix())
	assert.Equal(t, entities.StatusActive, result.Item.Status)

	gone, err := d.locations.GetByID(context.Background(), oldRef)
	require.NoError(t, err)
	assert.Nil(t, gone)

	got, err := d.service.Get(context.Background(), f.ID)
	require.NoError(t, err)
	c, ok := got.Location.Coordinate()
	require.True(t, ok)
	assert.Equal(t, 2.0, c.Latitude)
	assert.Equal(t, "Clinic Renamed", got.Item.Name)
}

func TestDirectoryService_UpdateKeepsLocationWithoutGeometry(t *testing.T) {
	d := newMemoryDirectory(t)
	f := d.add(t, "Clinic", geo.NewCoordinate(1, 1), 0)

	update := &entities.Facility{Name: "Clinic", Phone: "0800"}
	update.ID = f.ID
	result, err := d.service.Update(context.Background(), update, nil, "")

	require.NoError(t, err)
	assert.Equal(t, f.LocationRef(), result.Item.LocationRef())
	assert.NotNil(t, result.Location)
}

func TestDirectoryService_DeleteReportsOrphanedLocation(t *testing.T) {
	repo := new(MockFacilityRepository)
	locations := new(MockLocationRepository)
	service := services.NewDirectoryService[*entities.Facility](services.FacilityCatalog, repo, locations, nil, searchConfig)

	f := &entities.Facility{Name: "Clinic"}
	f.ID = "f1"
	f.SetLocationRef("loc-1")

	repo.On("GetByID", mock.Anything, "f1").Return(f, nil)
	repo.On("Delete", mock.Anything, "f1").Return(nil)
	locations.On("Delete", mock.Anything, "loc-1").Return(assert.AnError)

	err := service.Delete(context.Background(), "f1")

	var cwe *services.CompositeWriteError
	require.ErrorAs(t, err, &cwe)
	assert.Equal(t, "delete location", cwe.Step)
	assert.Equal(t, "location loc-1", cwe.Orphan)
	assert.False(t, cwe.Compensated())
}

func TestDirectoryService_DeleteRemovesLocation(t *testing.T) {
	d := newMemoryDirectory(t)
	f := d.add(t, "Clinic", geo.NewCoordinate(1, 1), 0)

	require.NoError(t, d.service.Delete(context.Background(), f.ID))

	loc, err := d.locations.GetByID(context.Background(), f.LocationRef())
	require.NoError(t, err)
	assert.Nil(t, loc)
	assert.True(t, apperrors.IsNotFound(d.service.Delete(context.Background(), f.ID)))
}

func TestDirectoryService_PublishesEvents(t *testing.T) {
	bus := events.NewMemoryEventBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates, err := bus.Subscribe(ctx, providers.GetKindChannel(entities.KindFacility))
	require.NoError(t, err)

	service := services.NewDirectoryService[*entities.Facility](services.FacilityCatalog,
		memory.NewFacilityStore(), memory.NewLocationStore(), bus, searchConfig)

	created, err := service.Create(context.Background(), &entities.Facility{Name: "Clinic"}, nil, "")
	require.NoError(t, err)

	select {
	case event := <-updates:
		assert.Equal(t, created.Item.ID, event.EntityID)
		assert.Equal(t, entities.DirectoryEventCreated, event.EventType)
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}
}
