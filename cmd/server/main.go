package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"label-cabinet/backstage/internal/api"
	"label-cabinet/backstage/internal/auth"
	"label-cabinet/backstage/internal/common"
	"label-cabinet/backstage/internal/config"
	"label-cabinet/backstage/internal/db"
	"label-cabinet/backstage/internal/db/repositories"
	"label-cabinet/backstage/internal/events"
	"label-cabinet/backstage/internal/jobs"
	"label-cabinet/backstage/internal/logging"
	"label-cabinet/backstage/internal/mailer"
	"label-cabinet/backstage/internal/metrics"
	"label-cabinet/backstage/internal/providers"
	"label-cabinet/backstage/internal/realtime"
	"label-cabinet/backstage/internal/routes"
	"label-cabinet/backstage/internal/services"
	"label-cabinet/backstage/internal/storage"
	"label-cabinet/backstage/internal/workers"

	"github.com/redis/go-redis/v9"
)

// @title Backstage API
// @version 1.0
// @description Label back-office and artist cabinet.
// @BasePath /
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	if err := logging.Init(cfg.AppEnv); err != nil {
		log.Fatalf("❌ Failed to initialize logger: %v", err)
	}
	defer logging.Close()

	logging.Info("Backstage starting up",
		"environment", cfg.AppEnv,
		"timestamp", time.Now().Format(time.RFC3339),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to DB with sqlx
	sqlxDB, err := db.InitPostgres(cfg.Postgres.DSN())
	if err != nil {
		logging.Fatal("Failed to connect to Postgres (sqlx)", "error", err)
	}
	defer sqlxDB.Close()
	logging.Info("Connected to Postgres (sqlx)")

	// Connect to DB with GORM
	gormDB, err := db.InitPostgresORM(cfg.Postgres.DSN())
	if err != nil {
		logging.Fatal("Failed to connect to Postgres (GORM)", "error", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		logging.Fatal("Failed to migrate schema", "error", err)
	}

	var (
		redisClient *redis.Client
		cache       common.CacheInterface
	)
	if cfg.Redis.Enabled() {
		redisClient = common.NewRedisClient(cfg.Redis)
		defer redisClient.Close()
		cache = common.NewRedisCacheService(redisClient)
	} else {
		logging.Info("Redis disabled, using in-memory cache")
		cache = common.NewCacheService(60, 120)
	}

	store, filesDir, err := newStorage(cfg)
	if err != nil {
		logging.Fatal("Failed to initialise storage", "error", err)
	}

	publisher := newEventPublisher(cfg, redisClient)
	defer publisher.Close()

	var authAdmin providers.AuthAdmin
	if cfg.Supabase.URL != "" && cfg.Supabase.ServiceKey != "" {
		authAdmin = providers.NewSupabaseAuthProvider(cfg.Supabase.URL, cfg.Supabase.ServiceKey)
	} else {
		logging.Warn("Auth admin API not configured, email changes only update profiles")
	}

	minWithdrawal, _ := cfg.MinWithdrawalAmount()

	hub := realtime.NewHub(metrics.NewMetricsRegistry())
	var bridge *realtime.RedisBridge
	if redisClient != nil {
		bridge = realtime.NewRedisBridge(redisClient, realtime.DefaultChannel)
		hub.SetBridge(bridge)
	}

	profileSvc := services.NewProfileService(gormDB, cache, store, hub)
	ticketSvc := services.NewTicketService(gormDB, cache, store, hub)
	newsSvc := services.NewNewsService(gormDB, cache, hub)

	deps := &api.Dependencies{
		DB:       sqlxDB,
		Redis:    redisClient,
		Verifier: auth.NewTokenVerifier(cfg.Supabase.JWTSecret),
		Connect:  common.NewConnectTicketSigner([]byte(cfg.Supabase.JWTSecret), cache),
		Hub:      hub,
		Repo: &api.Repositories{
			Keys: repositories.NewApiKeysRepo(sqlxDB),
		},
		Services: &api.Services{
			Profiles:    profileSvc,
			Finance:     services.NewFinanceService(gormDB, repositories.NewReportRepo(sqlxDB), publisher, hub, minWithdrawal),
			Releases:    services.NewReleaseService(gormDB, store, publisher, hub),
			Tickets:     ticketSvc,
			News:        newsSvc,
			EmailChange: services.NewEmailChangeService(gormDB, mailer.New(cfg.SMTP), authAdmin, cfg.PublicURL),
			Overview:    services.NewOverviewService(gormDB),
		},
		UpSince: time.Now(),
	}

	bg := workers.InitWorkers(ctx, ticketSvc, cfg.TypingTTL, hub, bridge)

	scheduler, err := jobs.InitializeJobs(ctx, newsSvc)
	if err != nil {
		logging.Fatal("Failed to schedule jobs", "error", err)
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           routes.RegisterRoutes(cfg, deps, filesDir),
		ReadHeaderTimeout: 10 * time.Second,
		// Realtime sessions derive from this context and end on shutdown.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		logging.Info("Server starting", "addr", cfg.HTTPAddr, "environment", cfg.AppEnv)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("Server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logging.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error("Graceful shutdown failed", "error", err)
	}
	<-scheduler.Stop().Done()
	bg.Wait()

	logging.Info("Backstage stopped")
}

func newStorage(cfg *config.Config) (storage.ObjectStorage, string, error) {
	if cfg.Storage.Driver == "supabase" {
		return storage.NewSupabaseStorage(cfg.Supabase.URL, cfg.Supabase.ServiceKey), "", nil
	}
	local, err := storage.NewLocalStorage(cfg.Storage.LocalDir, cfg.PublicURL)
	if err != nil {
		return nil, "", err
	}
	return local, local.Root(), nil
}

// newEventPublisher prefers Kafka, then a Redis stream, then the log.
func newEventPublisher(cfg *config.Config, client *redis.Client) events.Publisher {
	switch {
	case len(cfg.Kafka.Brokers) > 0:
		logging.Info("Publishing domain events to Kafka", "topic", cfg.Kafka.Topic)
		return events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	case client != nil:
		logging.Info("Publishing domain events to Redis stream")
		return events.NewRedisStreamPublisher(client, events.DefaultStream, 10000)
	default:
		return events.NewLogPublisher()
	}
}
