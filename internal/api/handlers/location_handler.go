package handlers

import (
	"net/http"

	"github.com/zatekoja/healthatlas/internal/application/services"
)

// LocationHandler handles Location registry requests
type LocationHandler struct {
	service *services.LocationService
}

// NewLocationHandler creates a new location handler
func NewLocationHandler(service *services.LocationService) *LocationHandler {
	return &LocationHandler{service: service}
}

// CreateLocation handles POST /api/locations
func (h *LocationHandler) CreateLocation(w http.ResponseWriter, r *http.Request) {
	var payload geometryPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	location, err := h.service.Create(r.Context(), payload.ObjectType, payload.Geometry)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, location)
}

// GetLocation handles GET /api/locations/{id}
func (h *LocationHandler) GetLocation(w http.ResponseWriter, r *http.Request) {
	location, err := h.service.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, location)
}

// DeleteLocation handles DELETE /api/locations/{id}
func (h *LocationHandler) DeleteLocation(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), r.PathValue("id")); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
