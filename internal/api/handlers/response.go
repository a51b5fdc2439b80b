package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/zatekoja/healthatlas/internal/application/services"
	"github.com/zatekoja/healthatlas/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/healthatlas/pkg/errors"
)

// maxBodyBytes bounds request bodies; polygons are the largest payloads
const maxBodyBytes = 1 << 20

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithServiceError maps an application error onto a status code. Internal
// details are logged, never returned.
func respondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	logger := observability.LoggerFromContext(r.Context())

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		switch appErr.Type {
		case apperrors.ErrorTypeValidation:
			respondWithError(w, http.StatusBadRequest, appErr.Message)
			return
		case apperrors.ErrorTypeNotFound:
			respondWithError(w, http.StatusNotFound, appErr.Message)
			return
		case apperrors.ErrorTypeConflict:
			respondWithError(w, http.StatusConflict, appErr.Message)
			return
		}
	}

	var cwe *services.CompositeWriteError
	if errors.As(err, &cwe) {
		logger.Error().Err(cwe.Cause).
			Str("step", cwe.Step).
			Str("orphan", cwe.Orphan).
			Errs("compensation_errors", cwe.CompensationErrors).
			Msg("composite write failed")
	} else {
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	respondWithError(w, http.StatusInternalServerError, "internal server error")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		return apperrors.NewValidationError("invalid request body: " + err.Error())
	}
	return nil
}
