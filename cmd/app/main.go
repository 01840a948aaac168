// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"wifi-voucher/internal/config"
	"wifi-voucher/internal/domain/ports/adapter"
	"wifi-voucher/internal/domain/ports/repository"
	"wifi-voucher/internal/infra/api"
	pg "wifi-voucher/internal/infra/db/postgres"
	"wifi-voucher/internal/infra/logging"
	"wifi-voucher/internal/infra/metrics"
	"wifi-voucher/internal/infra/ratelimit"
	red "wifi-voucher/internal/infra/redis"
	"wifi-voucher/internal/infra/sched"
	"wifi-voucher/internal/infra/telegram"
	"wifi-voucher/internal/infra/worker"
	"wifi-voucher/internal/pool"
	"wifi-voucher/internal/usecase"

	"golang.org/x/sync/errgroup"
)

// set via -ldflags
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		logging.New(config.LogConfig{Level: "info", Format: "console"}, true).Fatal().Err(err).Msg("config")
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] Enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	dbPool, err := pg.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer dbPool.Close()
	logger.Info().Str("database", logging.Redact(cfg.Database.URL, cfg.Runtime.Dev)).Msg("postgres connected")

	if cfg.Database.MigrateOnStart {
		if err := pg.Migrate(ctx, dbPool, logger); err != nil {
			logger.Fatal().Err(err).Msg("migrate")
		}
	}

	// one writer per snapshot
	owner, err := pg.AcquireInstanceLock(ctx, dbPool)
	if err != nil {
		logger.Fatal().Err(err).Msg("snapshot lock")
	}
	defer func() { _ = owner.Release(context.Background()) }()

	// ---- Repositories (Redis-backed cache when configured) ----
	var (
		planRepo     repository.PlanRepository     = pg.NewPlanRepo(dbPool)
		locationRepo repository.LocationRepository = pg.NewLocationRepo(dbPool)
		limiter      repository.RateLimiter        = ratelimit.NewLocal()
		gate         sched.AlertGate
	)
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		planRepo = pg.NewPlanRepoCacheDecorator(planRepo, redisClient, cfg.Redis.TTL, logger)
		locationRepo = pg.NewLocationRepoCacheDecorator(locationRepo, redisClient, cfg.Redis.TTL, logger)
		limiter = red.NewRateLimiter(redisClient)
		gate = red.NewLocker(redisClient)
		logger.Info().Msg("redis cache and shared rate limits enabled")
	}

	// ---- State ----
	secrets, err := pg.CipherFromKey(cfg.Security.EncryptionKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("security.encryption_key")
	}
	if secrets == nil {
		logger.Warn().Msg("security.encryption_key not set; credential passwords are stored in plaintext")
	}
	gateway := pg.NewSnapshotGateway(dbPool, secrets)
	store, ledger, err := usecase.LoadState(ctx, gateway)
	if err != nil {
		logger.Fatal().Err(err).Msg("load credential snapshot")
	}
	logger.Info().Int("credentials", store.Len()).Int("purchases", ledger.Len()).Msg("state loaded")

	writer := usecase.NewSnapshotWriter(gateway, store, ledger)
	alloc := pool.NewAllocator(store, cfg.Pool.MaxClaimAttempts)

	// ---- Use cases ----
	planUC := usecase.NewPlanUseCase(planRepo)
	locationUC := usecase.NewLocationUseCase(locationRepo, logger)
	credentialUC := usecase.NewCredentialUseCase(store, locationRepo, writer, logger)
	purchaseUC := usecase.NewPurchaseUseCase(planRepo, locationRepo, alloc, ledger, writer, logger)

	// ---- Alerts ----
	var notifier adapter.Notifier = telegram.NewLogNotifier(logger)
	if cfg.Telegram.Token != "" {
		bn, err := telegram.NewBotNotifier(&cfg.Telegram, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram")
		}
		notifier = bn
	}
	alertPool := worker.NewPool(cfg.Pool.Workers, logger)
	alertPool.Start(ctx)
	defer alertPool.Stop()

	monitor := sched.NewPoolMonitor(sched.MonitorOptions{
		Interval:  cfg.Pool.MonitorInterval,
		Threshold: cfg.Pool.LowStockThreshold,
		Cooldown:  cfg.Pool.AlertCooldown,
		OnTick:    func() { pg.ReportPoolStats(dbPool) },
	}, store, alertPool, gate, notifier, logger)

	// ---- HTTP ----
	srv := api.NewServer(api.Deps{
		Purchases:          purchaseUC,
		Credentials:        credentialUC,
		Plans:              planUC,
		Locations:          locationUC,
		Auth:               api.NewAuthManager(cfg.Admin.JWTSecret, cfg.Admin.PasswordHash, cfg.Admin.SecureCookie, cfg.Admin.SessionTTL),
		Limiter:            limiter,
		PurchasesPerMinute: cfg.RateLimit.PurchasesPerMinute,
		RequestTimeout:     cfg.HTTP.RequestTimeout,
		CORSOrigin:         cfg.HTTP.CORSOrigin,
		Health:             func(r *http.Request) error { return dbPool.Ping(r.Context()) },
	}, logger)
	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", httpServer.Addr).Str("version", version).Msg("http listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := monitor.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutdown requested")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("service stopped with error")
	}

	// final flush so nothing acknowledged is lost
	flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := writer.Flush(flushCtx); err != nil {
		logger.Error().Err(err).Msg("final snapshot flush failed")
		return
	}
	logger.Info().Msg("bye")
}
