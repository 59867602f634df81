package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/OmphileMokhuane/busman/internal/app"
	"github.com/OmphileMokhuane/busman/internal/numbering"
	"github.com/OmphileMokhuane/busman/internal/platform/db"
	"github.com/OmphileMokhuane/busman/internal/sales/clients"
	"github.com/OmphileMokhuane/busman/internal/sales/invoices"
	"github.com/OmphileMokhuane/busman/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	numberingRepo := numbering.NewRepository(pool)
	allocator := numbering.NewAllocator(numberingRepo, numberingRepo)

	clientsRepo := clients.NewRepository(pool)
	invoicesRepo := invoices.NewRepository(pool)
	clientsService := clients.NewService(clientsRepo, nil, logger)
	invoicesService := invoices.NewService(invoicesRepo, clientsService, allocator, logger)

	overdueJob := jobs.NewOverdueScanJob(invoicesService, logger)
	overdueTask, err := jobs.NewOverdueScanTask(jobs.OverdueScanPayload{})
	if err != nil {
		logger.Error("build overdue task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskInvoiceOverdueScan, Handler: overdueJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.OverdueScanSchedule, Task: overdueTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
