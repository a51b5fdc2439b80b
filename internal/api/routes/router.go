package routes

import (
	"net/http"

	"github.com/zatekoja/healthatlas/internal/api/handlers"
	"github.com/zatekoja/healthatlas/internal/api/middleware"
	"github.com/zatekoja/healthatlas/internal/domain/entities"
	"github.com/zatekoja/healthatlas/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	facilityHandler *handlers.DirectoryHandler[*entities.Facility]
	pharmacyHandler *handlers.DirectoryHandler[*entities.Pharmacy]
	outbreakHandler *handlers.DirectoryHandler[*entities.OutbreakZone]
	provinceHandler *handlers.ProvinceHandler
	locationHandler *handlers.LocationHandler
	streamHandler   *handlers.StreamHandler

	allowedOrigins []string
	metrics        *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	facilityHandler *handlers.DirectoryHandler[*entities.Facility],
	pharmacyHandler *handlers.DirectoryHandler[*entities.Pharmacy],
	outbreakHandler *handlers.DirectoryHandler[*entities.OutbreakZone],
	provinceHandler *handlers.ProvinceHandler,
	locationHandler *handlers.LocationHandler,
	streamHandler *handlers.StreamHandler,
	allowedOrigins []string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:             http.NewServeMux(),
		facilityHandler: facilityHandler,
		pharmacyHandler: pharmacyHandler,
		outbreakHandler: outbreakHandler,
		provinceHandler: provinceHandler,
		locationHandler: locationHandler,
		streamHandler:   streamHandler,
		allowedOrigins:  allowedOrigins,
		metrics:         metrics,
	}
}

// directoryRoutes is the route set every directory kind exposes
type directoryRoutes interface {
	Search(w http.ResponseWriter, r *http.Request)
	Nearby(w http.ResponseWriter, r *http.Request)
	AdvancedSearch(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

func (r *Router) registerDirectory(base string, h directoryRoutes) {
	r.mux.HandleFunc("GET "+base, h.Search)
	r.mux.HandleFunc("GET "+base+"/nearby", h.Nearby)
	r.mux.HandleFunc("GET "+base+"/search", h.AdvancedSearch)
	r.mux.HandleFunc("GET "+base+"/{id}", h.Get)
	r.mux.HandleFunc("POST "+base, h.Create)
	r.mux.HandleFunc("PUT "+base+"/{id}", h.Update)
	r.mux.HandleFunc("DELETE "+base+"/{id}", h.Delete)
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.registerDirectory("/api/facilities", r.facilityHandler)
	r.registerDirectory("/api/pharmacies", r.pharmacyHandler)
	r.registerDirectory("/api/outbreaks", r.outbreakHandler)

	r.mux.HandleFunc("GET /api/provinces", r.provinceHandler.ListProvinces)
	r.mux.HandleFunc("POST /api/provinces", r.provinceHandler.CreateProvince)
	r.mux.HandleFunc("GET /api/provinces/{id}", r.provinceHandler.GetProvince)
	r.mux.HandleFunc("DELETE /api/provinces/{id}", r.provinceHandler.DeleteProvince)

	r.mux.HandleFunc("POST /api/locations", r.locationHandler.CreateLocation)
	r.mux.HandleFunc("GET /api/locations/{id}", r.locationHandler.GetLocation)
	r.mux.HandleFunc("DELETE /api/locations/{id}", r.locationHandler.DeleteLocation)

	if r.streamHandler != nil {
		r.mux.HandleFunc("GET /api/stream", r.streamHandler.StreamUpdates)
		r.mux.HandleFunc("GET /api/stream/stats", r.streamHandler.Stats)
		r.mux.HandleFunc("GET /api/stream/{kind}", r.streamHandler.StreamKind)
	}

	// Last wrap is outermost: CORS answers preflights before anything else runs.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.Compression(handler)
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
