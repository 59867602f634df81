package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/OmphileMokhuane/busman/internal/app"
	"github.com/OmphileMokhuane/busman/internal/numbering"
	"github.com/OmphileMokhuane/busman/internal/observability"
	"github.com/OmphileMokhuane/busman/internal/platform/db"
	"github.com/OmphileMokhuane/busman/internal/sales/clients"
	"github.com/OmphileMokhuane/busman/internal/sales/conversion"
	"github.com/OmphileMokhuane/busman/internal/sales/invoices"
	"github.com/OmphileMokhuane/busman/internal/sales/pumps"
	"github.com/OmphileMokhuane/busman/internal/sales/quotations"
	"github.com/OmphileMokhuane/busman/internal/settings"
	"github.com/OmphileMokhuane/busman/internal/shared"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "busman_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	metrics := observability.New()

	numberingRepo := numbering.NewRepository(pool)
	allocator := numbering.NewAllocator(numberingRepo, numberingRepo,
		numbering.WithRetryHook(metrics.RecordAllocationRetry))

	settingsRepo := settings.NewRepository(pool)
	settingsService := settings.NewService(settingsRepo, logger)
	settingsHandler := settings.NewHandler(settingsService, logger)

	quotationsRepo := quotations.NewRepository(pool)
	invoicesRepo := invoices.NewRepository(pool)
	pumpsRepo := pumps.NewRepository(pool)

	clientsRepo := clients.NewRepository(pool)
	clientsService := clients.NewService(clientsRepo, []clients.ReferenceChecker{
		quotationsRepo, invoicesRepo, pumpsRepo,
	}, logger)
	clientsHandler := clients.NewHandler(clientsService, logger)

	invoicesService := invoices.NewService(invoicesRepo, clientsService, allocator, logger)
	invoicesHandler := invoices.NewHandler(invoicesService, metrics, logger)

	quotationsService := quotations.NewService(quotationsRepo, clientsService, allocator, invoicesService, logger)
	quotationsHandler := quotations.NewHandler(quotationsService, logger)

	pumpsService := pumps.NewService(pumpsRepo, clientsService, logger)
	pumpsHandler := pumps.NewHandler(pumpsService, logger)

	conversionRepo := conversion.NewRepository(pool)
	conversionService := conversion.NewService(conversionRepo, allocator, logger)
	conversionHandler := conversion.NewHandler(conversionService, metrics, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		SessionManager:    sessionManager,
		CSRFManager:       csrfManager,
		SettingsHandler:   settingsHandler,
		ClientsHandler:    clientsHandler,
		QuotationsHandler: quotationsHandler,
		InvoicesHandler:   invoicesHandler,
		PumpsHandler:      pumpsHandler,
		ConversionHandler: conversionHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
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
