package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/etalasekita/etalase/internal/app"
	"github.com/etalasekita/etalase/internal/assets"
	"github.com/etalasekita/etalase/internal/auth"
	"github.com/etalasekita/etalase/internal/categories"
	"github.com/etalasekita/etalase/internal/dashboard"
	"github.com/etalasekita/etalase/internal/mapview"
	"github.com/etalasekita/etalase/internal/observability"
	"github.com/etalasekita/etalase/internal/platform/cache"
	"github.com/etalasekita/etalase/internal/platform/db"
	"github.com/etalasekita/etalase/internal/platform/storage"
	"github.com/etalasekita/etalase/internal/products"
	"github.com/etalasekita/etalase/internal/shared"
	"github.com/etalasekita/etalase/internal/smes"
	"github.com/etalasekita/etalase/internal/view"
	"github.com/etalasekita/etalase/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN, db.WithMaxConns(cfg.PGMaxConns))
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr, cache.Options{DB: cfg.RedisDB})
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "etalase_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	metrics := observability.NewMetrics()

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, DB: cfg.RedisDB}
	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	var (
		productUploads products.Uploads
		smeUploads     smes.Uploads
		storageHost    string
	)
	if cfg.SupabaseServiceRoleKey != "" {
		store := storage.New(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey, nil)
		uploader := assets.NewUploader(store, jobClient, metrics, logger)
		productUploads, smeUploads = uploader, uploader
		storageHost = store.Host()
	} else {
		logger.Warn("object storage disabled, image uploads will be rejected")
	}

	var provider auth.Provider
	switch cfg.AuthMode {
	case app.AuthModeLocal:
		provider = auth.NewLocalProvider(cfg.AdminEmail, cfg.AdminPasswordHash, cfg.AuthTokenSecret, cfg.AuthTokenTTL)
	default:
		provider = auth.NewRemoteProvider(cfg.SupabaseURL, cfg.SupabaseAnonKey, cfg.SupabaseServiceRoleKey, nil)
	}
	guard := auth.NewGuard(provider, logger)
	authService := auth.NewService(provider, auth.NewRepository(dbpool))
	authHandler := auth.NewHandler(logger, authService, guard, templates, sessionManager, csrfManager)

	categoryService := categories.NewService(categories.NewRepository(dbpool), logger)
	smeService := smes.NewService(smes.NewRepository(dbpool), smeUploads, logger)
	productService := products.NewService(products.NewRepository(dbpool), productUploads, jobClient, logger)

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	maxBytes := cfg.UploadMaxBytes
	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		Metrics:        metrics,
		StorageHost:    storageHost,
		Guard:          guard,

		AuthHandler:       authHandler,
		DashboardHandler:  dashboard.NewHandler(logger, dashboard.NewService(productService, smeService), templates, csrfManager),
		ProductsHandler:   products.NewHandler(logger, productService, categoryService, smeService, templates, csrfManager, maxBytes),
		SMEsHandler:       smes.NewHandler(logger, smeService, categoryService, templates, csrfManager, maxBytes),
		CategoriesHandler: categories.NewHandler(logger, categoryService, templates, csrfManager, maxBytes),
		MapHandler:        mapview.NewHandler(logger, smeService, templates, csrfManager, maxBytes),
		PublicSMEsHandler: smes.NewPublicHandler(logger, smeService, templates),
		JobHandler:        jobs.NewHandler(inspector, logger),

		ProductsAPI:   products.NewAPI(productService, logger, maxBytes),
		SMEsAPI:       smes.NewAPI(smeService, logger, maxBytes),
		CategoriesAPI: categories.NewAPI(categoryService, logger, maxBytes),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("auth_mode", cfg.AuthMode))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
