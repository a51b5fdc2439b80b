package search

import (
	"encoding/json"
	"fmt"

	"github.com/zatekoja/healthatlas/internal/domain/entities"
	"github.com/zatekoja/healthatlas/pkg/geo"
)

// Enriched is a directory entry joined with its Location and, once a reference
// coordinate has been applied, its distance from it in meters.
type Enriched[T any] struct {
	Item     T
	Location *entities.Location

	// Distance is nil when the entry has no usable geometry
	Distance *int

	// Ranked is set once distances were computed, which makes Distance part of the output
	Ranked bool
}

// Coordinate returns the reference point of the attached Location
func (e *Enriched[T]) Coordinate() (geo.Coordinate, bool) {
	return e.Location.Coordinate()
}

// MarshalJSON flattens the entry fields and appends location and distance
func (e *Enriched[T]) MarshalJSON() ([]byte, error) {
	raw, err := json.Marshal(e.Item)
	if err != nil {
		return nil, err
	}

	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("directory entry must encode as an object: %w", err)
	}

	if fields["location"], err = json.Marshal(e.Location); err != nil {
		return nil, err
	}
	if e.Ranked {
		if fields["distance"], err = json.Marshal(e.Distance); err != nil {
			return nil, err
		}
	}

	return json.Marshal(fields)
}

// Items unwraps the entries
func Items[T any](enriched []*Enriched[T]) []T {
	items := make([]T, len(enriched))
	for i, e := range enriched {
		items[i] = e.Item
	}
	return items
}
