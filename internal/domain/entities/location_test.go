package entities

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocation_GeoJSONBoundary(t *testing.T) {
	raw := `{"id":"loc-1","object_type":"hospital","geometry":{"type":"Point","coordinates":[106.660172,10.762622]}}`

	var loc Location
	require.NoError(t, json.Unmarshal([]byte(raw), &loc))

	c, ok := loc.Coordinate()
	require.True(t, ok)
	assert.Equal(t, 10.762622, c.Latitude)
	assert.Equal(t, 106.660172, c.Longitude)

	out, err := json.Marshal(loc.Geometry)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"Point","coordinates":[106.660172,10.762622]}`, string(out))
}

func TestLocation_CoordinateWithoutGeometry(t *testing.T) {
	var nilLoc *Location
	_, ok := nilLoc.Coordinate()
	assert.False(t, ok)

	_, ok = (&Location{ID: "loc-2"}).Coordinate()
	assert.False(t, ok)
}

func TestValidateGeometry(t *testing.T) {
	square := orb.Polygon{{{106.6, 10.7}, {106.7, 10.7}, {106.7, 10.8}, {106.6, 10.8}, {106.6, 10.7}}}

	assert.NoError(t, ValidateGeometry(geojson.NewGeometry(orb.Point{106.66, 10.76})))
	assert.NoError(t, ValidateGeometry(geojson.NewGeometry(square)))

	assert.Error(t, ValidateGeometry(nil))
	assert.Error(t, ValidateGeometry(geojson.NewGeometry(orb.Point{200, 10})))
	assert.Error(t, ValidateGeometry(geojson.NewGeometry(orb.LineString{{0, 0}, {1, 1}})))

	open := orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 1}}}
	assert.Error(t, ValidateGeometry(geojson.NewGeometry(open)))
}

func TestRecord_LocationRef(t *testing.T) {
	f := &Facility{Name: "Cho Ray Hospital"}
	assert.Equal(t, "", f.LocationRef())

	f.SetLocationRef("loc-9")
	assert.Equal(t, "loc-9", f.LocationRef())
	require.NotNil(t, f.LocationID)

	f.SetLocationRef("")
	assert.Nil(t, f.LocationID)
}

func TestFacility_JSONFlattensRecord(t *testing.T) {
	f := Facility{Name: "Cho Ray Hospital", ProvinceID: "hcm"}
	f.SetID("fac-1")
	f.SetLocationRef("loc-1")

	out, err := json.Marshal(f)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(out, &fields))
	assert.Equal(t, "fac-1", fields["id"])
	assert.Equal(t, "loc-1", fields["location_id"])
	assert.Equal(t, "Cho Ray Hospital", fields["name"])
}
