package main

import (
	"context"
	"fmt"
	"time"

	"wifi-voucher/internal/config"
	"wifi-voucher/internal/domain/model"
	"wifi-voucher/internal/domain/ports/repository"
	pg "wifi-voucher/internal/infra/db/postgres"
	"wifi-voucher/internal/infra/logging"
	"wifi-voucher/internal/usecase"
)

var defaultPlans = []model.Plan{
	{ID: "1", Name: "Quick Browse", Duration: "3 Hours", Price: 500, DataAmount: "2", Type: model.PlanThreeHour},
	{ID: "2", Name: "Daily Essential", Duration: "1 Day", Price: 1100, DataAmount: "5", Type: model.PlanDaily, Popular: true},
	{ID: "3", Name: "Weekly Standard", Duration: "1 Week", Price: 2500, DataAmount: "15", Type: model.PlanWeekly, Popular: true},
	{ID: "4", Name: "Monthly Premium", Duration: "1 Month", Price: 4200, DataAmount: "50", Type: model.PlanMonthly},
}

var defaultLocations = []model.Location{
	{ID: "1", Name: "StarNetX 1", WifiName: "StarNetX 1", Username: "user1", Password: "pass123", IsActive: true},
	{ID: "2", Name: "StarNetX 2", WifiName: "StarNetX 2", Username: "user2", Password: "pass456", IsActive: true},
}

func main() {
	// ---- Config ----
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.New(config.LogConfig{Level: "info", Format: "console"}, true).Fatal().Err(err).Msg("load config")
	}
	logger := logging.New(config.LogConfig{Level: cfg.Log.Level, Format: "console"}, true)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dbPool, err := pg.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer dbPool.Close()

	if err := pg.Migrate(ctx, dbPool, logger); err != nil {
		logger.Fatal().Err(err).Msg("migrate")
	}

	planUC := usecase.NewPlanUseCase(pg.NewPlanRepo(dbPool))
	locationRepo := pg.NewLocationRepo(dbPool)

	// Existing catalog is left alone.
	plans, err := planUC.List(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("list plans")
	}
	if len(plans) > 0 {
		fmt.Printf("%d plans already present. No changes.\n", len(plans))
	} else {
		for i := range defaultPlans {
			p := defaultPlans[i]
			if err := planUC.Create(ctx, &p); err != nil {
				logger.Fatal().Err(err).Str("plan", p.Name).Msg("create plan")
			}
			fmt.Printf("seeded plan: %s (id=%s, type=%s, price=%d)\n", p.Name, p.ID, p.Type, p.Price)
		}
	}

	locs, err := locationRepo.ListAll(ctx, repository.NoTX)
	if err != nil {
		logger.Fatal().Err(err).Msg("list locations")
	}
	if len(locs) > 0 {
		fmt.Printf("%d locations already present. No changes.\n", len(locs))
	} else {
		for i := range defaultLocations {
			l := defaultLocations[i]
			if err := locationRepo.Save(ctx, repository.NoTX, &l); err != nil {
				logger.Fatal().Err(err).Str("location", l.Name).Msg("create location")
			}
			fmt.Printf("seeded location: %s (id=%s)\n", l.Name, l.ID)
		}
	}

	fmt.Println("Seeding complete.")
}
