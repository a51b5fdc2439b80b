package main

import (
	"context"
	"os"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"
	"github.com/zatekoja/healthatlas/internal/adapters/database"
	"github.com/zatekoja/healthatlas/internal/application/services"
	"github.com/zatekoja/healthatlas/internal/domain/entities"
	"github.com/zatekoja/healthatlas/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/healthatlas/internal/infrastructure/observability"
	"github.com/zatekoja/healthatlas/pkg/config"
)

type seedFacility struct {
	facility entities.Facility
	at       orb.Point
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	observability.InitLogger("health-atlas-seed", cfg.Environment)

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to DB")
	}
	defer pgClient.Close()

	ctx := context.Background()
	if err := database.Migrate(ctx, pgClient); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply schema")
	}

	if os.Getenv("RESET_DB") == "true" {
		log.Info().Msg("RESET_DB=true detected, truncating tables before seeding")
		if _, err := pgClient.DB().ExecContext(ctx,
			`TRUNCATE TABLE facilities, pharmacies, outbreak_zones, provinces, locations`); err != nil {
			log.Fatal().Err(err).Msg("Failed to reset tables")
		}
	}

	locations := database.NewLocationAdapter(pgClient, nil)
	provinceService := services.NewProvinceService(database.NewProvinceAdapter(pgClient))
	facilityService := services.NewDirectoryService[*entities.Facility](
		services.FacilityCatalog, database.NewFacilityAdapter(pgClient, nil), locations, nil, cfg.Search)
	pharmacyService := services.NewDirectoryService[*entities.Pharmacy](
		services.PharmacyCatalog, database.NewPharmacyAdapter(pgClient, nil), locations, nil, cfg.Search)
	outbreakService := services.NewDirectoryService[*entities.OutbreakZone](
		services.OutbreakCatalog, database.NewOutbreakAdapter(pgClient, nil), locations, nil, cfg.Search)

	// 1. Provinces
	lagos := &entities.Province{Name: "Lagos", Code: "LA"}
	fct := &entities.Province{Name: "Federal Capital Territory", Code: "FC"}
	for _, p := range []*entities.Province{lagos, fct} {
		if err := provinceService.Create(ctx, p); err != nil {
			log.Fatal().Err(err).Str("province", p.Name).Msg("Failed to create province")
		}
	}

	// 2. Facilities
	facilities := []seedFacility{
		{
			facility: entities.Facility{
				Name: "General Hospital Lagos", Address: "1-3 Broad Street, Odan, Lagos Island",
				ProvinceID: lagos.ID, Services: []string{"emergency", "maternity", "laboratory"},
			},
			at: orb.Point{3.3958, 6.4531},
		},
		{
			facility: entities.Facility{
				Name: "Lagos State University Teaching Hospital", Address: "1-5 Oba Akinjobi Way, Ikeja",
				ProvinceID: lagos.ID, Services: []string{"emergency", "surgery", "radiology"},
			},
			at: orb.Point{3.3421, 6.5967},
		},
		{
			facility: entities.Facility{
				Name: "Garki Hospital", Address: "Area 8, Tafawa Balewa Way, Garki",
				ProvinceID: fct.ID, Services: []string{"outpatient", "laboratory"},
			},
			at: orb.Point{7.4833, 9.0433},
		},
		{
			facility: entities.Facility{
				Name: "National Hospital Abuja", Address: "Plot 132, Central Business District",
				ProvinceID: fct.ID, Services: []string{"oncology", "surgery", "dialysis"},
			},
			at: orb.Point{7.4726, 9.0415},
		},
	}
	for i := range facilities {
		f := &facilities[i].facility
		if _, err := facilityService.Create(ctx, f, geojson.NewGeometry(facilities[i].at), ""); err != nil {
			log.Error().Err(err).Str("facility", f.Name).Msg("Failed to create facility")
		}
	}

	// 3. Pharmacies
	pharmacies := []struct {
		pharmacy entities.Pharmacy
		at       orb.Point
	}{
		{entities.Pharmacy{Name: "HealthPlus Pharmacy Ikeja", Address: "Ikeja City Mall", LicenseNumber: "PCN-LA-0192", ProvinceID: lagos.ID, OpeningHours: "08:00-22:00"}, orb.Point{3.3573, 6.6142}},
		{entities.Pharmacy{Name: "MedPlus Wuse", Address: "Aminu Kano Crescent, Wuse 2", LicenseNumber: "PCN-FC-0311", ProvinceID: fct.ID, OpeningHours: "09:00-21:00"}, orb.Point{7.4698, 9.0781}},
	}
	for i := range pharmacies {
		p := &pharmacies[i].pharmacy
		if _, err := pharmacyService.Create(ctx, p, geojson.NewGeometry(pharmacies[i].at), ""); err != nil {
			log.Error().Err(err).Str("pharmacy", p.Name).Msg("Failed to create pharmacy")
		}
	}

	// 4. Outbreak zone around Lagos Island
	reported := time.Now().UTC().Add(-72 * time.Hour)
	zone := &entities.OutbreakZone{
		Name: "Lagos Island cholera cluster", Disease: "cholera", Severity: entities.SeverityHigh,
		CaseCount: 37, ProvinceID: lagos.ID, ReportedAt: &reported,
	}
	ring := orb.Ring{{3.38, 6.44}, {3.41, 6.44}, {3.41, 6.47}, {3.38, 6.47}, {3.38, 6.44}}
	if _, err := outbreakService.Create(ctx, zone, geojson.NewGeometry(orb.Polygon{ring}), ""); err != nil {
		log.Error().Err(err).Msg("Failed to create outbreak zone")
	}

	log.Info().
		Int("facilities", len(facilities)).
		Int("pharmacies", len(pharmacies)).
		Msg("Seeding completed")
}
