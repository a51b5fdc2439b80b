package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/paulmach/orb/geojson"
	"github.com/zatekoja/healthatlas/internal/application/search"
	"github.com/zatekoja/healthatlas/internal/application/services"
	"github.com/zatekoja/healthatlas/internal/domain/entities"
	apperrors "github.com/zatekoja/healthatlas/pkg/errors"
)

// DirectoryService is the part of services.DirectoryService the handler depends on
type DirectoryService[T entities.DirectoryEntry] interface {
	Catalog() services.Catalog
	Search(ctx context.Context, req services.SearchRequest) (*services.ResultPage[T], error)
	Nearby(ctx context.Context, req services.NearbyRequest) ([]*search.Enriched[T], error)
	AdvancedSearch(ctx context.Context, req services.AdvancedSearchRequest) (*services.ResultPage[T], error)
	Get(ctx context.Context, id string) (*search.Enriched[T], error)
	Create(ctx context.Context, item T, geometry *geojson.Geometry, objectType string) (*search.Enriched[T], error)
	Update(ctx context.Context, item T, geometry *geojson.Geometry, objectType string) (*search.Enriched[T], error)
	Delete(ctx context.Context, id string) error
}

// DirectoryHandler serves search and composite writes for one entity kind
type DirectoryHandler[T entities.DirectoryEntry] struct {
	service  DirectoryService[T]
	newItem  func() T
	validate *validator.Validate
}

// geometryPayload carries the Location part of a write request
type geometryPayload struct {
	Geometry   *geojson.Geometry `json:"geometry"`
	ObjectType string            `json:"object_type"`
}

// listResponse is the envelope of every collection response
type listResponse[T any] struct {
	Items []*search.Enriched[T] `json:"items"`
	Count int                   `json:"count"`
	Page  int                   `json:"page,omitempty"`
	Limit int                   `json:"limit,omitempty"`
}

// NewDirectoryHandler creates a handler; newItem returns an empty entry to decode into
func NewDirectoryHandler[T entities.DirectoryEntry](service DirectoryService[T], newItem func() T) *DirectoryHandler[T] {
	return &DirectoryHandler[T]{
		service:  service,
		newItem:  newItem,
		validate: validator.New(),
	}
}

// NewFacilityHandler creates the facility handler
func NewFacilityHandler(service DirectoryService[*entities.Facility]) *DirectoryHandler[*entities.Facility] {
	return NewDirectoryHandler(service, func() *entities.Facility { return &entities.Facility{} })
}

// NewPharmacyHandler creates the pharmacy handler
func NewPharmacyHandler(service DirectoryService[*entities.Pharmacy]) *DirectoryHandler[*entities.Pharmacy] {
	return NewDirectoryHandler(service, func() *entities.Pharmacy { return &entities.Pharmacy{} })
}

// NewOutbreakHandler creates the outbreak zone handler
func NewOutbreakHandler(service DirectoryService[*entities.OutbreakZone]) *DirectoryHandler[*entities.OutbreakZone] {
	return NewDirectoryHandler(service, func() *entities.OutbreakZone { return &entities.OutbreakZone{} })
}

// Search handles GET /api/{kind}
func (h *DirectoryHandler[T]) Search(w http.ResponseWriter, r *http.Request) {
	params := newQueryParams(r.URL.Query())
	req := services.SearchRequest{
		Query:        params.str("q"),
		Status:       params.str("status"),
		Filters:      params.filters(h.service.Catalog().FilterFields()),
		Origin:       params.origin(),
		RadiusMeters: params.intOrZero("radius", 1),
		Limit:        params.intOrZero("limit", 1),
		Page:         params.intOrZero("page", 1),
	}
	if err := params.err(); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	page, err := h.service.Search(r.Context(), req)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, listResponse[T]{
		Items: page.Items,
		Count: len(page.Items),
		Page:  page.Page,
		Limit: page.Limit,
	})
}

// Nearby handles GET /api/{kind}/nearby
func (h *DirectoryHandler[T]) Nearby(w http.ResponseWriter, r *http.Request) {
	params := newQueryParams(r.URL.Query())
	req := services.NearbyRequest{
		Origin:       params.origin(),
		Filters:      params.filters(h.service.Catalog().FilterFields()),
		RadiusMeters: params.intOrZero("radius", 1),
		Limit:        params.intOrZero("limit", 1),
	}
	if err := params.err(); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	items, err := h.service.Nearby(r.Context(), req)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, listResponse[T]{Items: items, Count: len(items)})
}

// AdvancedSearch handles GET /api/{kind}/search
func (h *DirectoryHandler[T]) AdvancedSearch(w http.ResponseWriter, r *http.Request) {
	params := newQueryParams(r.URL.Query())
	req := services.AdvancedSearchRequest{
		Query:       params.str("q"),
		Status:      params.str("status"),
		Filters:     params.filters(h.service.Catalog().FilterFields()),
		Origin:      params.origin(),
		MinDistance: params.integer("minDistance", 0),
		MaxDistance: params.integer("maxDistance", 0),
		SortBy:      params.str("sortBy"),
		SortOrder:   params.str("sortOrder"),
		Limit:       params.intOrZero("limit", 1),
		Page:        params.intOrZero("page", 1),
	}
	if req.MinDistance != nil && req.MaxDistance != nil && *req.MinDistance > *req.MaxDistance {
		params.errs = append(params.errs, "minDistance must not exceed maxDistance")
	}
	if err := params.err(); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	page, err := h.service.AdvancedSearch(r.Context(), req)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, listResponse[T]{
		Items: page.Items,
		Count: len(page.Items),
		Page:  page.Page,
		Limit: page.Limit,
	})
}

// Get handles GET /api/{kind}/{id}
func (h *DirectoryHandler[T]) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, item)
}

// Create handles POST /api/{kind}
func (h *DirectoryHandler[T]) Create(w http.ResponseWriter, r *http.Request) {
	item, geometry, err := h.decode(w, r)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	item.SetID("")

	created, err := h.service.Create(r.Context(), item, geometry.Geometry, geometry.ObjectType)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

// Update handles PUT /api/{kind}/{id}
func (h *DirectoryHandler[T]) Update(w http.ResponseWriter, r *http.Request) {
	item, geometry, err := h.decode(w, r)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	item.SetID(r.PathValue("id"))

	updated, err := h.service.Update(r.Context(), item, geometry.Geometry, geometry.ObjectType)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/{kind}/{id}
func (h *DirectoryHandler[T]) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), r.PathValue("id")); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decode reads one body into both the entry and its geometry
func (h *DirectoryHandler[T]) decode(w http.ResponseWriter, r *http.Request) (T, geometryPayload, error) {
	var geometry geometryPayload
	item := h.newItem()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return item, geometry, apperrors.NewValidationError("request body too large")
	}
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(item); err != nil {
		return item, geometry, apperrors.NewValidationError("invalid request body: " + err.Error())
	}
	if err := json.Unmarshal(body, &geometry); err != nil {
		return item, geometry, apperrors.NewValidationError("invalid geometry: " + err.Error())
	}
	if err := h.validate.Struct(item); err != nil {
		return item, geometry, apperrors.NewValidationError(err.Error())
	}

	// location_id is owned by the composite write
	item.SetLocationRef("")
	return item, geometry, nil
}
