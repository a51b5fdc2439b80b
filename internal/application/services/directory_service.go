package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/paulmach/orb/geojson"
	"github.com/zatekoja/healthatlas/internal/application/search"
	"github.com/zatekoja/healthatlas/internal/domain/entities"
	"github.com/zatekoja/healthatlas/internal/domain/providers"
	"github.com/zatekoja/healthatlas/internal/domain/repositories"
	"github.com/zatekoja/healthatlas/internal/infrastructure/observability"
	"github.com/zatekoja/healthatlas/pkg/config"
	apperrors "github.com/zatekoja/healthatlas/pkg/errors"
	"github.com/zatekoja/healthatlas/pkg/geo"
	"go.opentelemetry.io/otel/attribute"
)

// SearchRequest is a paged keyword and category search.
// A nil Origin disables distance ranking; zero numbers take the configured defaults.
type SearchRequest struct {
	Query        string
	Status       string
	Filters      map[string]string
	Origin       *geo.Coordinate
	RadiusMeters int
	Limit        int
	Page         int
}

// NearbyRequest asks for the closest active entries around Origin
type NearbyRequest struct {
	Origin       *geo.Coordinate
	Filters      map[string]string
	RadiusMeters int
	Limit        int
}

// AdvancedSearchRequest combines filters, sorting and optional distance bounds
type AdvancedSearchRequest struct {
	Query       string
	Status      string
	Filters     map[string]string
	Origin      *geo.Coordinate
	MinDistance *int
	MaxDistance *int
	SortBy      string
	SortOrder   string
	Limit       int
	Page        int
}

// ResultPage is one page of enriched results
type ResultPage[T any] struct {
	Items []*search.Enriched[T]
	Page  int
	Limit int
}

// DirectoryService runs the search pipelines and composite writes for one entity kind
type DirectoryService[T entities.DirectoryEntry] struct {
	catalog   Catalog
	repo      repositories.EntityRepository[T]
	locations repositories.LocationRepository
	events    providers.EventBus
	cfg       config.SearchConfig
	now       func() time.Time
}

// NewDirectoryService creates a directory service. events may be nil.
func NewDirectoryService[T entities.DirectoryEntry](
	catalog Catalog,
	repo repositories.EntityRepository[T],
	locations repositories.LocationRepository,
	events providers.EventBus,
	cfg config.SearchConfig,
) *DirectoryService[T] {
	return &DirectoryService[T]{
		catalog:   catalog,
		repo:      repo,
		locations: locations,
		events:    events,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Catalog returns the searchable columns of the service's entity kind
func (s *DirectoryService[T]) Catalog() Catalog {
	return s.catalog
}

// Search runs a paged keyword search. When an origin is given the page is reduced to
// the entries within the radius, nearest first; pagination happens before that filter.
func (s *DirectoryService[T]) Search(ctx context.Context, req SearchRequest) (*ResultPage[T], error) {
	ctx, span := observability.StartSpan(ctx, "DirectoryService.Search")
	defer span.End()
	span.SetAttributes(attribute.String("directory.kind", string(s.catalog.Kind)))

	limit := s.limit(req.Limit, s.cfg.DefaultLimit)
	page := max(req.Page, 1)

	predicate := search.BuildConditions(req.Status, req.Query, s.catalog.TextFields)
	predicate = search.AddFilters(predicate, s.filters(req.Filters)...)

	items, err := s.repo.List(ctx, repositories.ListQuery{
		Predicate: predicate,
		OrderBy:   s.catalog.NaturalSort,
		Order:     repositories.SortAsc,
		Limit:     limit,
		Offset:    (page - 1) * limit,
	})
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	enriched, err := search.JoinLocations(ctx, s.locations, items, search.LocationRef[T])
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	if req.Origin != nil {
		enriched = search.RankByDistance(enriched, *req.Origin, s.radius(req.RadiusMeters))
	}

	observability.LoggerFromContext(ctx).Debug().
		Str("kind", string(s.catalog.Kind)).
		Int("page", page).
		Int("limit", limit).
		Int("candidates", len(items)).
		Int("results", len(enriched)).
		Bool("ranked", req.Origin != nil).
		Msg("directory search")

	return &ResultPage[T]{Items: enriched, Page: page, Limit: limit}, nil
}

// Nearby ranks up to the candidate cap of active entries by distance and keeps the
// closest ones. The origin is required.
func (s *DirectoryService[T]) Nearby(ctx context.Context, req NearbyRequest) ([]*search.Enriched[T], error) {
	if req.Origin == nil {
		return nil, apperrors.NewValidationError("lat and lng are required")
	}

	ctx, span := observability.StartSpan(ctx, "DirectoryService.Nearby")
	defer span.End()
	span.SetAttributes(attribute.String("directory.kind", string(s.catalog.Kind)))

	predicate := search.AddFilters(search.BuildConditions("", "", nil), s.filters(req.Filters)...)

	items, err := s.repo.List(ctx, repositories.ListQuery{
		Predicate: predicate,
		OrderBy:   s.catalog.NaturalSort,
		Order:     repositories.SortAsc,
		Limit:     s.cfg.NearbyCandidateCap,
	})
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	enriched, err := search.JoinLocations(ctx, s.locations, items, search.LocationRef[T])
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	ranked := search.RankByDistance(enriched, *req.Origin, s.radius(req.RadiusMeters))
	if limit := s.limit(req.Limit, s.cfg.NearbyDefaultLimit); len(ranked) > limit {
		ranked = ranked[:limit]
	}

	observability.LoggerFromContext(ctx).Debug().
		Str("kind", string(s.catalog.Kind)).
		Int("candidates", len(items)).
		Int("results", len(ranked)).
		Msg("directory nearby")

	return ranked, nil
}

// AdvancedSearch applies arbitrary filters and a sort. Ordering by distance happens in
// memory after the store read; other sort keys are applied by the store.
func (s *DirectoryService[T]) AdvancedSearch(ctx context.Context, req AdvancedSearchRequest) (*ResultPage[T], error) {
	ctx, span := observability.StartSpan(ctx, "DirectoryService.AdvancedSearch")
	defer span.End()

	limit := s.limit(req.Limit, s.cfg.DefaultLimit)
	page := max(req.Page, 1)
	column, order, byDistance := s.catalog.resolveSort(req.SortBy, req.SortOrder)
	storeOrder := order
	if byDistance {
		storeOrder = repositories.SortAsc
	}

	span.SetAttributes(
		attribute.String("directory.kind", string(s.catalog.Kind)),
		attribute.String("directory.sort", column),
		attribute.Bool("directory.sort_by_distance", byDistance),
	)

	predicate := search.BuildConditions(req.Status, req.Query, s.catalog.TextFields)
	predicate = search.AddFilters(predicate, s.filters(req.Filters)...)

	items, err := s.repo.List(ctx, repositories.ListQuery{
		Predicate: predicate,
		OrderBy:   column,
		Order:     storeOrder,
		Limit:     limit,
		Offset:    (page - 1) * limit,
	})
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	enriched, err := search.JoinLocations(ctx, s.locations, items, search.LocationRef[T])
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	if req.Origin != nil {
		enriched = search.AnnotateDistance(enriched, *req.Origin)
		enriched = search.FilterByBounds(enriched, req.MinDistance, req.MaxDistance)
		if byDistance {
			search.SortByDistance(enriched, order == repositories.SortDesc)
		}
	}

	observability.LoggerFromContext(ctx).Debug().
		Str("kind", string(s.catalog.Kind)).
		Str("sort", column).
		Bool("sort_by_distance", byDistance).
		Int("results", len(enriched)).
		Msg("directory advanced search")

	return &ResultPage[T]{Items: enriched, Page: page, Limit: limit}, nil
}

// List is Search without a keyword
func (s *DirectoryService[T]) List(ctx context.Context, status string, filters map[string]string, limit, page int) (*ResultPage[T], error) {
	return s.Search(ctx, SearchRequest{Status: status, Filters: filters, Limit: limit, Page: page})
}

// Get returns an entry with its Location
func (s *DirectoryService[T]) Get(ctx context.Context, id string) (*search.Enriched[T], error) {
	ctx, span := observability.StartSpan(ctx, "DirectoryService.Get")
	defer span.End()

	item, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	enriched := &search.Enriched[T]{Item: item}
	if ref := item.LocationRef(); ref != "" {
		if enriched.Location, err = s.locations.GetByID(ctx, ref); err != nil {
			return nil, err
		}
	}
	return enriched, nil
}

// Create stores the entry and, when geometry is given, its Location. A failed entity
// write removes the Location again.
func (s *DirectoryService[T]) Create(ctx context.Context, item T, geometry *geojson.Geometry, objectType string) (*search.Enriched[T], error) {
	ctx, span := observability.StartSpan(ctx, "DirectoryService.Create")
	defer span.End()

	location, err := s.newLocation(geometry, objectType)
	if err != nil {
		return nil, err
	}
	item.Stamp(s.now())

	uow := NewUnitOfWork()
	if location != nil {
		uow.Add("create location",
			func(ctx context.Context) error {
				if err := s.locations.Create(ctx, location); err != nil {
					return err
				}
				item.SetLocationRef(location.ID)
				return nil
			},
			func(ctx context.Context) error { return s.locations.Delete(ctx, location.ID) },
		)
	} else {
		item.SetLocationRef("")
	}
	uow.Add("create "+string(s.catalog.Kind), func(ctx context.Context) error {
		return s.repo.Create(ctx, item)
	}, nil)

	if err := uow.Execute(ctx); err != nil {
		s.markOrphan(err, location)
		observability.RecordError(span, err)
		return nil, err
	}

	s.publish(ctx, item, entities.DirectoryEventCreated)
	return &search.Enriched[T]{Item: item, Location: location}, nil
}

// Update replaces the entry. New geometry creates a new Location; the previous one is
// removed once the entry points at the new one.
func (s *DirectoryService[T]) Update(ctx context.Context, item T, geometry *geojson.Geometry, objectType string) (*search.Enriched[T], error) {
	ctx, span := observability.StartSpan(ctx, "DirectoryService.Update")
	defer span.End()

	existing, err := s.find(ctx, item.GetID())
	if err != nil {
		return nil, err
	}

	location, err := s.newLocation(geometry, objectType)
	if err != nil {
		return nil, err
	}

	oldRef := existing.LocationRef()
	item.SetLocationRef(oldRef)
	carryCreatedAt(existing, item)
	item.Stamp(s.now())

	uow := NewUnitOfWork()
	if location != nil {
		uow.Add("create location",
			func(ctx context.Context) error {
				if err := s.locations.Create(ctx, location); err != nil {
					return err
				}
				item.SetLocationRef(location.ID)
				return nil
			},
			func(ctx context.Context) error { return s.locations.Delete(ctx, location.ID) },
		)
	}
	uow.Add("update "+string(s.catalog.Kind), func(ctx context.Context) error {
		return s.repo.Update(ctx, item)
	}, nil)

	if err := uow.Execute(ctx); err != nil {
		s.markOrphan(err, location)
		observability.RecordError(span, err)
		return nil, err
	}

	if location != nil && oldRef != "" {
		if err := s.locations.Delete(ctx, oldRef); err != nil && !apperrors.IsNotFound(err) {
			observability.LoggerFromContext(ctx).Warn().Err(err).
				Str("kind", string(s.catalog.Kind)).
				Str("id", item.GetID()).
				Str("location_id", oldRef).
				Msg("failed to remove replaced location")
		}
	}

	s.publish(ctx, item, entities.DirectoryEventUpdated)

	if location == nil && oldRef != "" {
		if location, err = s.locations.GetByID(ctx, oldRef); err != nil {
			return nil, err
		}
	}
	return &search.Enriched[T]{Item: item, Location: location}, nil
}

// Delete removes the entry and then its Location. The entry is not restored when the
// Location cannot be removed; the error names the orphaned Location instead.
func (s *DirectoryService[T]) Delete(ctx context.Context, id string) error {
	ctx, span := observability.StartSpan(ctx, "DirectoryService.Delete")
	defer span.End()

	existing, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	ref := existing.LocationRef()

	uow := NewUnitOfWork().Add("delete "+string(s.catalog.Kind), func(ctx context.Context) error {
		return s.repo.Delete(ctx, id)
	}, nil)
	if ref != "" {
		uow.Add("delete location", func(ctx context.Context) error {
			if err := s.locations.Delete(ctx, ref); err != nil && !apperrors.IsNotFound(err) {
				return err
			}
			return nil
		}, nil)
	}

	if err := uow.Execute(ctx); err != nil {
		var cwe *CompositeWriteError
		if errors.As(err, &cwe) && cwe.Step == "delete location" {
			cwe.Orphan = "location " + ref
		}
		observability.RecordError(span, err)
		return err
	}

	s.publish(ctx, existing, entities.DirectoryEventDeleted)
	return nil
}

func (s *DirectoryService[T]) find(ctx context.Context, id string) (T, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return item, err
	}
	if isNil(item) {
		return item, apperrors.NewNotFoundError(fmt.Sprintf("%s with id %s not found", s.catalog.Kind, id))
	}
	return item, nil
}

func (s *DirectoryService[T]) newLocation(geometry *geojson.Geometry, objectType string) (*entities.Location, error) {
	if geometry == nil {
		return nil, nil
	}
	if err := entities.ValidateGeometry(geometry); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	if objectType == "" {
		objectType = string(s.catalog.Kind)
	}
	return &entities.Location{ObjectType: objectType, Geometry: geometry}, nil
}

func (s *DirectoryService[T]) markOrphan(err error, location *entities.Location) {
	var cwe *CompositeWriteError
	if !errors.As(err, &cwe) || location == nil || location.ID == "" || len(cwe.CompensationErrors) == 0 {
		return
	}
	cwe.Orphan = "location " + location.ID
}

func (s *DirectoryService[T]) publish(ctx context.Context, item T, eventType entities.DirectoryEventType) {
	if s.events == nil {
		return
	}

	event := entities.NewDirectoryEvent(s.catalog.Kind, item.GetID(), eventType, item.LocationRef())
	for _, channel := range []string{providers.GetKindChannel(s.catalog.Kind), providers.EventChannelDirectoryUpdates} {
		if err := s.events.Publish(ctx, channel, event); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).
				Str("channel", channel).
				Str("entity_id", item.GetID()).
				Msg("failed to publish directory event")
		}
	}
}

func (s *DirectoryService[T]) filters(values map[string]string) []search.Filter {
	return search.CatalogFilters(values, s.catalog.ExactFilters, s.catalog.ContainsFilters)
}

func (s *DirectoryService[T]) limit(requested, fallback int) int {
	if requested <= 0 {
		return fallback
	}
	if s.cfg.MaxLimit > 0 && requested > s.cfg.MaxLimit {
		return s.cfg.MaxLimit
	}
	return requested
}

func (s *DirectoryService[T]) radius(requested int) int {
	if requested <= 0 {
		return s.cfg.DefaultRadiusMeters
	}
	return requested
}

func isNil[T any](v T) bool {
	rv := reflect.ValueOf(v)
	return !rv.IsValid() || (rv.Kind() == reflect.Pointer && rv.IsNil())
}

// carryCreatedAt keeps the stored creation time and status unless the update sets one
func carryCreatedAt[T entities.DirectoryEntry](existing, item T) {
	base, prev := item.Base(), existing.Base()
	base.CreatedAt = prev.CreatedAt
	if base.Status == "" {
		base.Status = prev.Status
	}
}
