package search_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/healthatlas/internal/application/search"
	"github.com/zatekoja/healthatlas/internal/domain/entities"
	"github.com/zatekoja/healthatlas/internal/domain/repositories"
	"github.com/zatekoja/healthatlas/pkg/geo"
)

type MockLocationFinder struct {
	mock.Mock
}

func (m *MockLocationFinder) GetByID(ctx context.Context, id string) (*entities.Location, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Location), args.Error(1)
}

func (m *MockLocationFinder) GetByIDs(ctx context.Context, ids []string) ([]*entities.Location, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Location), args.Error(1)
}

func pointLocation(id string, lat, lon float64) *entities.Location {
	loc := entities.NewLocation("point", geo.NewCoordinate(lat, lon).Point())
	loc.ID = id
	return loc
}

func facility(id, locationID string) *entities.Facility {
	f := &entities.Facility{Name: id}
	f.ID = id
	f.SetLocationRef(locationID)
	return f
}

func facilityRef(f *entities.Facility) string {
	return f.LocationRef()
}

func intPtr(v int) *int {
	return &v
}

func enrichedWithDistances(distances ...*int) []*search.Enriched[*entities.Facility] {
	items := make([]*search.Enriched[*entities.Facility], len(distances))
	for i, d := range distances {
		items[i] = &search.Enriched[*entities.Facility]{Item: facility(string(rune('a'+i)), ""), Distance: d, Ranked: true}
	}
	return items
}

func TestBuildConditions_DefaultsStatusAndSkipsBlankQuery(t *testing.T) {
	p := search.BuildConditions("", "   ", []string{"name", "address"})

	assert.Equal(t, entities.StatusActive, p.Status)
	assert.Empty(t, p.AnyOf)
	assert.Empty(t, p.AllOf)
}

func TestBuildConditions_QueryBecomesOrGroup(t *testing.T) {
	p := search.BuildConditions("inactive", " clinic ", []string{"name", "address"})

	assert.Equal(t, "inactive", p.Status)
	assert.Equal(t, []repositories.Condition{
		{Field: "name", Op: repositories.OpContains, Value: "clinic"},
		{Field: "address", Op: repositories.OpContains, Value: "clinic"},
	}, p.AnyOf)
}

func TestAddFilters_SkipsBlankValues(t *testing.T) {
	base := search.BuildConditions("", "", nil)
	p := search.AddFilters(base,
		search.Filter{Field: "province_id", Value: "prov-1"},
		search.Filter{Field: "facility_type_id", Value: "  "},
		search.Filter{Field: "phone", Value: "0803", Match: search.MatchContains},
	)

	assert.Equal(t, []repositories.Condition{
		{Field: "province_id", Op: repositories.OpEquals, Value: "prov-1"},
		{Field: "phone", Op: repositories.OpContains, Value: "0803"},
	}, p.AllOf)
	assert.Empty(t, base.AllOf)
}

func TestCatalogFilters_IgnoresUnknownKeys(t *testing.T) {
	filters := search.CatalogFilters(
		map[string]string{"province_id": "p1", "address": "main", "password": "x"},
		[]string{"facility_type_id", "province_id"},
		[]string{"phone", "address"},
	)

	assert.Equal(t, []search.Filter{
		{Field: "province_id", Value: "p1", Match: search.MatchExact},
		{Field: "address", Value: "main", Match: search.MatchContains},
	}, filters)
}

func TestJoinLocations_SingleBulkFetch(t *testing.T) {
	finder := new(MockLocationFinder)
	items := []*entities.Facility{
		facility("f1", "loc-1"),
		facility("f2", ""),
		facility("f3", "loc-2"),
		facility("f4", "loc-1"),
		facility("f5", "loc-gone"),
	}

	loc1 := pointLocation("loc-1", 1, 1)
	loc2 := pointLocation("loc-2", 2, 2)
	finder.On("GetByIDs", mock.Anything, []string{"loc-1", "loc-2", "loc-gone"}).
		Return([]*entities.Location{loc2, loc1}, nil).Once()

	enriched, err := search.JoinLocations(context.Background(), finder, items, facilityRef)

	require.NoError(t, err)
	require.Len(t, enriched, 5)
	assert.Same(t, loc1, enriched[0].Location)
	assert.Nil(t, enriched[1].Location)
	assert.Same(t, loc2, enriched[2].Location)
	assert.Same(t, loc1, enriched[3].Location)
	assert.Nil(t, enriched[4].Location)
	for i, e := range enriched {
		assert.Same(t, items[i], e.Item)
	}
	finder.AssertNumberOfCalls(t, "GetByIDs", 1)
}

func TestJoinLocations_NoReferencesNoStoreCall(t *testing.T) {
	finder := new(MockLocationFinder)
	items := []*entities.Facility{facility("f1", ""), facility("f2", "")}

	enriched, err := search.JoinLocations(context.Background(), finder, items, facilityRef)

	require.NoError(t, err)
	assert.Len(t, enriched, 2)
	finder.AssertNotCalled(t, "GetByIDs", mock.Anything, mock.Anything)
}

func TestJoinLocations_PropagatesStoreError(t *testing.T) {
	finder := new(MockLocationFinder)
	storeErr := errors.New("connection reset")
	finder.On("GetByIDs", mock.Anything, []string{"loc-1"}).Return(nil, storeErr)

	_, err := search.JoinLocations(context.Background(), finder, []*entities.Facility{facility("f1", "loc-1")}, facilityRef)

	assert.ErrorIs(t, err, storeErr)
}

func TestRankByDistance_SameCoordinateIsZero(t *testing.T) {
	origin := geo.NewCoordinate(10.762622, 106.660172)
	items := []*search.Enriched[*entities.Facility]{
		{Item: facility("a", "loc-a"), Location: pointLocation("loc-a", 10.762622, 106.660172)},
	}

	ranked := search.RankByDistance(items, origin, 100)

	require.Len(t, ranked, 1)
	require.NotNil(t, ranked[0].Distance)
	assert.Equal(t, 0, *ranked[0].Distance)
}

func TestRankByDistance_ExcludesOutsideRadius(t *testing.T) {
	origin := geo.NewCoordinate(10.762622, 106.660172)
	items := []*search.Enriched[*entities.Facility]{
		{Item: facility("far", "loc-b"), Location: pointLocation("loc-b", 10.862622, 106.660172)},
		{Item: facility("near", "loc-a"), Location: pointLocation("loc-a", 10.762622, 106.660172)},
		{Item: facility("none", "")},
	}

	ranked := search.RankByDistance(items, origin, 5000)

	require.Len(t, ranked, 1)
	assert.Equal(t, "near", ranked[0].Item.ID)
	require.NotNil(t, items[0].Distance)
	assert.Greater(t, *items[0].Distance, 5000)
	assert.Nil(t, items[2].Distance)
}

func TestRankByDistance_StableForEqualDistances(t *testing.T) {
	origin := geo.NewCoordinate(0, 0)
	items := []*search.Enriched[*entities.Facility]{
		{Item: facility("east", "l1"), Location: pointLocation("l1", 0, 0.01)},
		{Item: facility("origin", "l0"), Location: pointLocation("l0", 0, 0)},
		{Item: facility("west", "l2"), Location: pointLocation("l2", 0, -0.01)},
		{Item: facility("north", "l3"), Location: pointLocation("l3", 0.01, 0)},
	}

	ranked := search.RankByDistance(items, origin, 10000)

	ids := make([]string, len(ranked))
	for i, r := range ranked {
		ids[i] = r.Item.ID
	}
	assert.Equal(t, []string{"origin", "east", "west", "north"}, ids)
}

func TestRankByDistance_PolygonUsesCentroid(t *testing.T) {
	square := orb.Polygon{{{0, 0}, {0.02, 0}, {0.02, 0.02}, {0, 0.02}, {0, 0}}}
	zone := entities.NewLocation("zone", square)
	zone.ID = "zone"

	items := []*search.Enriched[*entities.Facility]{{Item: facility("z", "zone"), Location: zone}}
	ranked := search.RankByDistance(items, geo.NewCoordinate(0.01, 0.01), 10)

	require.Len(t, ranked, 1)
	assert.Equal(t, 0, *ranked[0].Distance)
}

func TestFilterByBounds(t *testing.T) {
	items := enrichedWithDistances(intPtr(50), nil, intPtr(150), intPtr(400))

	assert.Len(t, search.FilterByBounds(items, nil, nil), 4)

	kept := search.FilterByBounds(items, intPtr(100), intPtr(400))
	require.Len(t, kept, 2)
	assert.Equal(t, 150, *kept[0].Distance)
	assert.Equal(t, 400, *kept[1].Distance)

	kept = search.FilterByBounds(items, nil, intPtr(100))
	require.Len(t, kept, 1)
	assert.Equal(t, 50, *kept[0].Distance)
}

func TestSortByDistance_NilSortsLast(t *testing.T) {
	items := enrichedWithDistances(intPtr(300), nil, intPtr(100))

	search.SortByDistance(items, false)

	require.NotNil(t, items[0].Distance)
	require.NotNil(t, items[1].Distance)
	assert.Equal(t, 100, *items[0].Distance)
	assert.Equal(t, 300, *items[1].Distance)
	assert.Nil(t, items[2].Distance)
}

func TestSortByDistance_DescendingPutsNilFirst(t *testing.T) {
	items := enrichedWithDistances(intPtr(100), nil, intPtr(300))

	search.SortByDistance(items, true)

	assert.Nil(t, items[0].Distance)
	assert.Equal(t, 300, *items[1].Distance)
	assert.Equal(t, 100, *items[2].Distance)
}

func TestEnriched_MarshalJSON(t *testing.T) {
	f := facility("f1", "loc-1")
	f.Services = []string{"maternity"}

	plain := &search.Enriched[*entities.Facility]{Item: f}
	data, err := json.Marshal(plain)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Equal(t, "f1", fields["id"])
	assert.Contains(t, fields, "location")
	assert.Nil(t, fields["location"])
	assert.NotContains(t, fields, "distance")

	ranked := &search.Enriched[*entities.Facility]{
		Item:     f,
		Location: pointLocation("loc-1", 6.5, 3.4),
		Distance: intPtr(42),
		Ranked:   true,
	}
	data, err = json.Marshal(ranked)
	require.NoError(t, err)

	fields = map[string]any{}
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Equal(t, float64(42), fields["distance"])
	location := fields["location"].(map[string]any)
	geometry := location["geometry"].(map[string]any)
	assert.Equal(t, "Point", geometry["type"])
	assert.Equal(t, []any{3.4, 6.5}, geometry["coordinates"])
}
