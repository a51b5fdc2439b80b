package geo

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Coordinate is a latitude-first position in degrees (WGS-84).
//
// Geometry stored in the Location registry follows GeoJSON and is longitude-first.
// FromPoint, FromGeometry and Point are the only places where the order is swapped.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// NewCoordinate builds a coordinate from latitude and longitude
func NewCoordinate(lat, lon float64) Coordinate {
	return Coordinate{Latitude: lat, Longitude: lon}
}

// Validate reports whether the coordinate is a finite WGS-84 position
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Latitude) || math.IsInf(c.Latitude, 0) || c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", c.Latitude)
	}
	if math.IsNaN(c.Longitude) || math.IsInf(c.Longitude, 0) || c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", c.Longitude)
	}
	return nil
}

// Point converts the coordinate into a longitude-first orb.Point
func (c Coordinate) Point() orb.Point {
	return orb.Point{c.Longitude, c.Latitude}
}

// FromPoint converts a longitude-first orb.Point into a Coordinate
func FromPoint(p orb.Point) Coordinate {
	return Coordinate{Latitude: p.Lat(), Longitude: p.Lon()}
}

// FromGeometry resolves the reference coordinate of a stored geometry.
// Points map directly; polygons resolve to their area centroid. Any other
// geometry, or an empty polygon, has no coordinate.
func FromGeometry(g orb.Geometry) (Coordinate, bool) {
	switch v := g.(type) {
	case orb.Point:
		return FromPoint(v), true
	case *orb.Point:
		if v == nil {
			return Coordinate{}, false
		}
		return FromPoint(*v), true
	case orb.Polygon:
		if len(v) == 0 || len(v[0]) == 0 {
			return Coordinate{}, false
		}
		centroid, _ := planar.CentroidArea(v)
		return FromPoint(centroid), true
	default:
		return Coordinate{}, false
	}
}
