package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/healthatlas/internal/domain/entities"
	"github.com/zatekoja/healthatlas/internal/domain/providers"
	"github.com/zatekoja/healthatlas/internal/domain/repositories"
	"github.com/zatekoja/healthatlas/pkg/geo"
)

const heartbeatInterval = 30 * time.Second

// StreamHandler pushes directory change events to clients over Server-Sent Events
type StreamHandler struct {
	eventBus  providers.EventBus
	locations repositories.LocationFinder
	clients   map[string]int
	mu        sync.RWMutex
}

// eventFilter decides whether an event reaches one client
type eventFilter func(ctx context.Context, event *entities.DirectoryEvent) bool

// NewStreamHandler creates a new stream handler
func NewStreamHandler(eventBus providers.EventBus, locations repositories.LocationFinder) *StreamHandler {
	return &StreamHandler{
		eventBus:  eventBus,
		locations: locations,
		clients:   make(map[string]int),
	}
}

// StreamUpdates handles GET /api/stream.
// With lat, lng and optional radius (meters) only writes whose current location lies
// inside the circle are sent; deletions carry no location and are skipped then.
func (h *StreamHandler) StreamUpdates(w http.ResponseWriter, r *http.Request) {
	params := newQueryParams(r.URL.Query())
	origin := params.origin()
	radius := params.intOrZero("radius", 1)
	if err := params.err(); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	var filter eventFilter
	if origin != nil {
		if radius == 0 {
			radius = 5000
		}
		filter = h.withinRadius(*origin, radius)
	}

	h.stream(w, r, providers.EventChannelDirectoryUpdates, filter)
}

// StreamKind handles GET /api/stream/{kind}, optionally narrowed to one entity with ?id=
func (h *StreamHandler) StreamKind(w http.ResponseWriter, r *http.Request) {
	kind := entities.EntityKind(r.PathValue("kind"))
	switch kind {
	case entities.KindFacility, entities.KindPharmacy, entities.KindOutbreak:
	default:
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("unknown kind %q", kind))
		return
	}

	var filter eventFilter
	if id := r.URL.Query().Get("id"); id != "" {
		filter = func(_ context.Context, event *entities.DirectoryEvent) bool {
			return event.EntityID == id
		}
	}

	h.stream(w, r, providers.GetKindChannel(kind), filter)
}

// Stats handles GET /api/stream/stats
func (h *StreamHandler) Stats(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"connected_clients": h.GetClientCount(),
	})
}

func (h *StreamHandler) stream(w http.ResponseWriter, r *http.Request, channel string, filter eventFilter) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	ctx := r.Context()
	events, err := h.eventBus.Subscribe(ctx, channel)
	if err != nil {
		log.Error().Err(err).Str("channel", channel).Msg("Failed to subscribe to channel")
		respondWithError(w, http.StatusServiceUnavailable, "event stream unavailable")
		return
	}

	h.register(channel)
	defer h.unregister(channel)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	h.sendEvent(w, "connected", map[string]interface{}{
		"channel":   channel,
		"timestamp": time.Now().UTC(),
	})
	flusher.Flush()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.sendEvent(w, "heartbeat", map[string]interface{}{"timestamp": time.Now().UTC()})
			flusher.Flush()
		case event, ok := <-events:
			if !ok {
				return
			}
			if filter != nil && !filter(ctx, event) {
				continue
			}
			h.sendEvent(w, string(event.EventType), event)
			flusher.Flush()
		}
	}
}

func (h *StreamHandler) withinRadius(origin geo.Coordinate, radiusMeters int) eventFilter {
	return func(ctx context.Context, event *entities.DirectoryEvent) bool {
		if event.LocationID == "" {
			return false
		}
		location, err := h.locations.GetByID(ctx, event.LocationID)
		if err != nil {
			log.Warn().Err(err).Str("location_id", event.LocationID).Msg("Failed to resolve event location")
			return false
		}
		coord, ok := location.Coordinate()
		if !ok {
			return false
		}
		return geo.DistanceMeters(origin, coord) <= radiusMeters
	}
}

func (h *StreamHandler) register(channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[channel]++
}

func (h *StreamHandler) unregister(channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[channel]--; h.clients[channel] <= 0 {
		delete(h.clients, channel)
	}
}

func (h *StreamHandler) sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal stream event")
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, payload)
}

// GetClientCount returns the number of connected stream clients
func (h *StreamHandler) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, n := range h.clients {
		count += n
	}
	return count
}
