package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/zatekoja/healthatlas/internal/application/services"
	"github.com/zatekoja/healthatlas/internal/domain/entities"
	apperrors "github.com/zatekoja/healthatlas/pkg/errors"
)

// ProvinceHandler handles province requests
type ProvinceHandler struct {
	service  *services.ProvinceService
	validate *validator.Validate
}

// NewProvinceHandler creates a new province handler
func NewProvinceHandler(service *services.ProvinceService) *ProvinceHandler {
	return &ProvinceHandler{service: service, validate: validator.New()}
}

// ListProvinces handles GET /api/provinces
func (h *ProvinceHandler) ListProvinces(w http.ResponseWriter, r *http.Request) {
	provinces, err := h.service.List(r.Context())
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"items": provinces,
		"count": len(provinces),
	})
}

// CreateProvince handles POST /api/provinces
func (h *ProvinceHandler) CreateProvince(w http.ResponseWriter, r *http.Request) {
	var province entities.Province
	if err := decodeJSON(w, r, &province); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	if err := h.validate.Struct(&province); err != nil {
		respondWithServiceError(w, r, apperrors.NewValidationError(err.Error()))
		return
	}
	province.ID = ""

	if err := h.service.Create(r.Context(), &province); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, province)
}

// GetProvince handles GET /api/provinces/{id}
func (h *ProvinceHandler) GetProvince(w http.ResponseWriter, r *http.Request) {
	province, err := h.service.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, province)
}

// DeleteProvince handles DELETE /api/provinces/{id}
func (h *ProvinceHandler) DeleteProvince(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), r.PathValue("id")); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
