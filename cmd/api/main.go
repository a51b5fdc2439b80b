package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/healthatlas/internal/adapters/cache"
	"github.com/zatekoja/healthatlas/internal/adapters/database"
	"github.com/zatekoja/healthatlas/internal/adapters/events"
	"github.com/zatekoja/healthatlas/internal/adapters/memory"
	"github.com/zatekoja/healthatlas/internal/api/handlers"
	"github.com/zatekoja/healthatlas/internal/api/routes"
	"github.com/zatekoja/healthatlas/internal/application/services"
	"github.com/zatekoja/healthatlas/internal/domain/entities"
	"github.com/zatekoja/healthatlas/internal/domain/providers"
	"github.com/zatekoja/healthatlas/internal/domain/repositories"
	"github.com/zatekoja/healthatlas/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/healthatlas/internal/infrastructure/clients/redis"
	"github.com/zatekoja/healthatlas/internal/infrastructure/observability"
	"github.com/zatekoja/healthatlas/pkg/config"
)

// stores bundles one backend's repositories
type stores struct {
	facilities repositories.FacilityRepository
	pharmacies repositories.PharmacyRepository
	outbreaks  repositories.OutbreakRepository
	provinces  repositories.ProvinceRepository
	locations  repositories.LocationRepository
	close      func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	st, err := openStores(ctx, cfg, metrics)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Store.Backend).Msg("Failed to open stores")
	}
	defer st.close()

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = redis.NewClient(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, continuing with in-process events and no location cache")
		} else {
			defer redisClient.Close()
		}
	}

	var eventBus providers.EventBus
	if redisClient != nil {
		eventBus = events.NewRedisEventBus(redisClient, metrics)
	} else {
		eventBus = events.NewMemoryEventBus()
	}
	defer func() {
		if err := eventBus.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	// memory stores are already process-local, caching them only adds copies
	if redisClient != nil && cfg.Store.Backend == config.StoreBackendPostgres && cfg.Redis.LocationCacheTTLSeconds > 0 {
		st.locations = database.NewCachedLocationAdapter(
			st.locations, cache.NewRedisAdapter(redisClient), cfg.Redis.LocationCacheTTLSeconds, metrics)
		log.Info().Int("ttl_seconds", cfg.Redis.LocationCacheTTLSeconds).Msg("Location cache enabled")
	}

	facilityService := services.NewDirectoryService[*entities.Facility](
		services.FacilityCatalog, st.facilities, st.locations, eventBus, cfg.Search)
	pharmacyService := services.NewDirectoryService[*entities.Pharmacy](
		services.PharmacyCatalog, st.pharmacies, st.locations, eventBus, cfg.Search)
	outbreakService := services.NewDirectoryService[*entities.OutbreakZone](
		services.OutbreakCatalog, st.outbreaks, st.locations, eventBus, cfg.Search)

	router := routes.NewRouter(
		handlers.NewFacilityHandler(facilityService),
		handlers.NewPharmacyHandler(pharmacyService),
		handlers.NewOutbreakHandler(outbreakService),
		handlers.NewProvinceHandler(services.NewProvinceService(st.provinces)),
		handlers.NewLocationHandler(services.NewLocationService(st.locations)),
		handlers.NewStreamHandler(eventBus, st.locations),
		cfg.CORS.AllowedOrigins,
		metrics,
	)

	server := &http.Server{
		Addr:        cfg.Server.ServerAddr(),
		Handler:     router.SetupRoutes(),
		ReadTimeout: 15 * time.Second,
		// event streams stay open, so writes are not bounded here
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Str("backend", cfg.Store.Backend).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	log.Info().Msg("Server stopped")
}

func openStores(ctx context.Context, cfg *config.Config, metrics *observability.Metrics) (*stores, error) {
	if cfg.Store.Backend == config.StoreBackendMemory {
		log.Warn().Msg("Using in-memory stores; data is lost on restart")
		return &stores{
			facilities: memory.NewFacilityStore(),
			pharmacies: memory.NewPharmacyStore(),
			outbreaks:  memory.NewOutbreakStore(),
			provinces:  memory.NewProvinceStore(),
			locations:  memory.NewLocationStore(),
			close:      func() {},
		}, nil
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, pgClient); err != nil {
		_ = pgClient.Close()
		return nil, err
	}

	return &stores{
		facilities: database.NewFacilityAdapter(pgClient, metrics),
		pharmacies: database.NewPharmacyAdapter(pgClient, metrics),
		outbreaks:  database.NewOutbreakAdapter(pgClient, metrics),
		provinces:  database.NewProvinceAdapter(pgClient),
		locations:  database.NewLocationAdapter(pgClient, metrics),
		close: func() {
			if err := pgClient.Close(); err != nil {
				log.Error().Err(err).Msg("Error closing PostgreSQL client")
			}
		},
	}, nil
}
