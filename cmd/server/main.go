// Command server runs the driveway paving quote, order and bill API.
//
// @title                       Driveway Paving API
// @version                     1.0
// @description                 Quote requests, negotiation, work orders and billing for a driveway paving business.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	_ "github.com/pavingco/driveway-api/docs"
	"github.com/pavingco/driveway-api/internal/api"
	"github.com/pavingco/driveway-api/internal/api/handler"
	"github.com/pavingco/driveway-api/internal/core/service"
	"github.com/pavingco/driveway-api/internal/infrastructure/db/mongo"
	"github.com/pavingco/driveway-api/internal/infrastructure/db/redis"
	"github.com/pavingco/driveway-api/internal/infrastructure/db/sqlstore"
	"github.com/pavingco/driveway-api/internal/infrastructure/queue"
	"github.com/pavingco/driveway-api/internal/pkg/config"
	"github.com/pavingco/driveway-api/pkg/logger"
)

func main() {
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := logger.Init(logger.Options{})
		bootLog.Fatal().Err(err).Msg("configuration")
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.IsDevelopment()})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
	log.Info().Msg("server exited gracefully")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- Relational store ---
	store, err := sqlstore.Open(ctx, sqlstore.Config{
		Driver:          cfg.DB.Driver,
		DSN:             cfg.DB.DSN,
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	}, log)
	if err != nil {
		return err
	}
	defer store.Close()
	if cfg.DB.AutoMigrate {
		if err := store.Migrate(ctx); err != nil {
			return err
		}
	}

	// --- Document store: pictures and audit trail ---
	mongoClient, mongoDB, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	attachments, err := mongo.NewAttachmentStore(mongoDB, cfg.Mongo.Bucket)
	if err != nil {
		return err
	}

	// --- Redis: idempotency keys and revoked tokens ---
	rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer rdb.Close()

	// --- Audit pipeline ---
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	auditService := service.NewAuditService(mongo.NewAuditRepository(mongoDB), log)
	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, auditService, log)
	dispatcher.Start(workerCtx)
	defer func() {
		stopWorkers()
		dispatcher.Wait()
	}()

	// --- Services ---
	authService := service.NewAuthService(store.Clients(), redis.NewTokenRevoker(rdb), cfg.JWTSecret, cfg.TokenTTL, log)
	if err := authService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return err
	}
	workflow := service.NewWorkflowService(store, attachments, dispatcher, log,
		service.WithIdempotency(redis.NewIdempotencyStore(rdb, cfg.Redis.IdempotencyTTL)))

	e := api.NewRouter(api.Dependencies{
		Auth:        authService,
		Clients:     service.NewClientService(store.Clients()),
		Quotes:      workflow,
		Orders:      workflow,
		Bills:       workflow,
		Attachments: attachments,
		Readiness: []handler.DependencyCheck{
			{Name: "sql", Ping: store.Ping},
			{Name: "mongodb", Ping: func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) }},
			{Name: "redis", Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
		},
		Logger: log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("db_driver", cfg.DB.Driver).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
