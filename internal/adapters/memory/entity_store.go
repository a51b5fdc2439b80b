package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/zatekoja/healthatlas/internal/domain/entities"
	"github.com/zatekoja/healthatlas/internal/domain/repositories"
	apperrors "github.com/zatekoja/healthatlas/pkg/errors"
)

// EntityStore is an in-process EntityRepository. Entries are copied on the way in
// and out so callers never share state with the store.
type EntityStore[T entities.DirectoryEntry] struct {
	mu    sync.RWMutex
	kind  entities.EntityKind
	items map[string]T
}

// NewFacilityStore creates an in-memory facility store
func NewFacilityStore() *EntityStore[*entities.Facility] {
	return NewEntityStore[*entities.Facility](entities.KindFacility)
}

// NewPharmacyStore creates an in-memory pharmacy store
func NewPharmacyStore() *EntityStore[*entities.Pharmacy] {
	return NewEntityStore[*entities.Pharmacy](entities.KindPharmacy)
}

// NewOutbreakStore creates an in-memory outbreak zone store
func NewOutbreakStore() *EntityStore[*entities.OutbreakZone] {
	return NewEntityStore[*entities.OutbreakZone](entities.KindOutbreak)
}

// NewEntityStore creates an empty store for one entity kind
func NewEntityStore[T entities.DirectoryEntry](kind entities.EntityKind) *EntityStore[T] {
	return &EntityStore[T]{
		kind:  kind,
		items: make(map[string]T),
	}
}

var _ repositories.FacilityRepository = (*EntityStore[*entities.Facility])(nil)

// Create stores a copy of entity, generating the id when empty
func (s *EntityStore[T]) Create(ctx context.Context, entity T) error {
	if entity.GetID() == "" {
		entity.SetID(uuid.NewString())
	}

	stored, err := clone(entity)
	if err != nil {
		return apperrors.NewInternalError(fmt.Sprintf("failed to store %s", s.kind), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[entity.GetID()]; exists {
		return apperrors.NewConflictError(fmt.Sprintf("%s with id %s already exists", s.kind, entity.GetID()))
	}
	s.items[entity.GetID()] = stored
	return nil
}

// GetByID returns a copy of the entry or the zero value when absent
func (s *EntityStore[T]) GetByID(ctx context.Context, id string) (T, error) {
	s.mu.RLock()
	stored, ok := s.items[id]
	s.mu.RUnlock()

	var zero T
	if !ok {
		return zero, nil
	}
	return clone(stored)
}

// List filters, orders and pages the entries the same way the SQL adapter does
func (s *EntityStore[T]) List(ctx context.Context, q repositories.ListQuery) ([]T, error) {
	s.mu.RLock()
	type candidate struct {
		item T
		row  row
	}
	candidates := make([]candidate, 0, len(s.items))
	for _, item := range s.items {
		r, err := toRow(item)
		if err != nil {
			s.mu.RUnlock()
			return nil, apperrors.NewInternalError(fmt.Sprintf("failed to read %s", s.kind), err)
		}
		if r.matches(q.Predicate) {
			candidates = append(candidates, candidate{item: item, row: r})
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(candidates, func(i, j int) bool {
		if q.OrderBy != "" {
			c := compare(candidates[i].row, candidates[j].row, q.OrderBy)
			if q.Order == repositories.SortDesc {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return candidates[i].item.GetID() < candidates[j].item.GetID()
	})

	start := min(max(q.Offset, 0), len(candidates))
	end := len(candidates)
	if q.Limit > 0 {
		end = min(start+q.Limit, end)
	}

	items := make([]T, 0, end-start)
	for _, c := range candidates[start:end] {
		item, err := clone(c.item)
		if err != nil {
			return nil, apperrors.NewInternalError(fmt.Sprintf("failed to read %s", s.kind), err)
		}
		items = append(items, item)
	}
	return items, nil
}

// Update replaces a stored entry
func (s *EntityStore[T]) Update(ctx context.Context, entity T) error {
	stored, err := clone(entity)
	if err != nil {
		return apperrors.NewInternalError(fmt.Sprintf("failed to store %s", s.kind), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[entity.GetID()]; !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("%s with id %s not found", s.kind, entity.GetID()))
	}
	s.items[entity.GetID()] = stored
	return nil
}

// Delete removes an entry
func (s *EntityStore[T]) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("%s with id %s not found", s.kind, id))
	}
	delete(s.items, id)
	return nil
}

func clone[T any](v T) (T, error) {
	var out T
	data, err := json.Marshal(v)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(data, &out)
	return out, err
}
