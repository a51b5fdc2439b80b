package search

import (
	"context"

	"github.com/zatekoja/healthatlas/internal/domain/entities"
	"github.com/zatekoja/healthatlas/internal/domain/repositories"
)

// JoinLocations attaches each item's Location using a single bulk read.
// ref returns the item's Location id or "" when it has none. Ids the finder does not
// return resolve to a nil Location. Output order matches input order.
func JoinLocations[T any](ctx context.Context, finder repositories.LocationFinder, items []T, ref func(T) string) ([]*Enriched[T], error) {
	enriched := make([]*Enriched[T], len(items))
	seen := make(map[string]struct{}, len(items))
	ids := make([]string, 0, len(items))

	for i, item := range items {
		enriched[i] = &Enriched[T]{Item: item}
		id := ref(item)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	if len(ids) == 0 {
		return enriched, nil
	}

	locations, err := finder.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*entities.Location, len(locations))
	for _, loc := range locations {
		if loc != nil {
			byID[loc.ID] = loc
		}
	}

	for i, item := range items {
		if id := ref(item); id != "" {
			enriched[i].Location = byID[id]
		}
	}

	return enriched, nil
}

// LocationRef adapts a DirectoryEntry for JoinLocations
func LocationRef[T entities.DirectoryEntry](item T) string {
	return item.LocationRef()
}
