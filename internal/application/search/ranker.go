package search

import (
	"sort"

	"github.com/zatekoja/healthatlas/pkg/geo"
)

// AnnotateDistance sets the rounded distance in meters from origin on every item.
// Items without a usable geometry get a nil distance.
func AnnotateDistance[T any](items []*Enriched[T], origin geo.Coordinate) []*Enriched[T] {
	for _, item := range items {
		item.Ranked = true
		item.Distance = nil

		c, ok := item.Coordinate()
		if !ok {
			continue
		}
		d := geo.DistanceMeters(origin, c)
		item.Distance = &d
	}
	return items
}

// RankByDistance keeps the items within radiusMeters of origin, nearest first.
// Equal distances keep their input order.
func RankByDistance[T any](items []*Enriched[T], origin geo.Coordinate, radiusMeters int) []*Enriched[T] {
	AnnotateDistance(items, origin)

	kept := make([]*Enriched[T], 0, len(items))
	for _, item := range items {
		if item.Distance != nil && *item.Distance <= radiusMeters {
			kept = append(kept, item)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return *kept[i].Distance < *kept[j].Distance
	})
	return kept
}

// FilterByBounds drops items outside [min, max]. With no bound set the items are
// returned as is; otherwise items without a distance are dropped too.
func FilterByBounds[T any](items []*Enriched[T], min, max *int) []*Enriched[T] {
	if min == nil && max == nil {
		return items
	}

	kept := make([]*Enriched[T], 0, len(items))
	for _, item := range items {
		if item.Distance == nil {
			continue
		}
		if min != nil && *item.Distance < *min {
			continue
		}
		if max != nil && *item.Distance > *max {
			continue
		}
		kept = append(kept, item)
	}
	return kept
}

// SortByDistance orders items by distance in place, treating a nil distance as
// infinitely far. The sort is stable.
func SortByDistance[T any](items []*Enriched[T], descending bool) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].Distance, items[j].Distance
		switch {
		case a == nil && b == nil:
			return false
		case a == nil:
			return descending
		case b == nil:
			return !descending
		case descending:
			return *a > *b
		default:
			return *a < *b
		}
	})
}
