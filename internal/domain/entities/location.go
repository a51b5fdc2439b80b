package entities

import (
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/zatekoja/healthatlas/pkg/geo"
)

// Location is an independent geometry record referenced by directory entries
type Location struct {
	ID         string            `json:"id" db:"id"`
	ObjectType string            `json:"object_type" db:"object_type"`
	Geometry   *geojson.Geometry `json:"geometry" db:"-"`
	CreatedAt  time.Time         `json:"created_at" db:"created_at"`
}

// NewLocation wraps an orb geometry into a Location without an id
func NewLocation(objectType string, g orb.Geometry) *Location {
	return &Location{
		ObjectType: objectType,
		Geometry:   geojson.NewGeometry(g),
	}
}

// Coordinate returns the latitude-first reference coordinate of the geometry
func (l *Location) Coordinate() (geo.Coordinate, bool) {
	if l == nil || l.Geometry == nil || l.Geometry.Coordinates == nil {
		return geo.Coordinate{}, false
	}
	return geo.FromGeometry(l.Geometry.Coordinates)
}

// ValidateGeometry accepts GeoJSON points and polygons with WGS-84 positions
func ValidateGeometry(g *geojson.Geometry) error {
	if g == nil || g.Coordinates == nil {
		return fmt.Errorf("geometry is required")
	}

	switch v := g.Coordinates.(type) {
	case orb.Point:
		return validatePosition(v)
	case orb.Polygon:
		if len(v) == 0 {
			return fmt.Errorf("polygon must have at least one ring")
		}
		for _, ring := range v {
			if len(ring) < 4 {
				return fmt.Errorf("polygon rings need at least 4 positions")
			}
			if !ring.Closed() {
				return fmt.Errorf("polygon rings must be closed")
			}
			for _, p := range ring {
				if err := validatePosition(p); err != nil {
					return err
				}
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported geometry type %q", g.Coordinates.GeoJSONType())
	}
}

func validatePosition(p orb.Point) error {
	return geo.FromPoint(p).Validate()
}
