package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/etalasekita/etalase/cmd/worker/cli"
	"github.com/etalasekita/etalase/internal/app"
	"github.com/etalasekita/etalase/internal/observability"
	"github.com/etalasekita/etalase/internal/platform/db"
	"github.com/etalasekita/etalase/internal/platform/storage"
	"github.com/etalasekita/etalase/internal/smes"
	"github.com/etalasekita/etalase/jobs"
)

// recountSpec refreshes every SME's product_count nightly.
const recountSpec = "0 3 * * *"

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

	if len(os.Args) > 1 {
		if err := runCommand(ctx, cfg.RedisAddr, os.Args[1:]); err != nil {
			logger.Error("worker command", slog.Any("error", err))
			os.Exit(1)
		}
		return
	}

	pool, err := db.New(ctx, cfg.PGDSN, db.WithMaxConns(cfg.PGMaxConns))
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	registry := observability.NewMetrics()
	metrics := registry.Jobs()
	metricsSrv := registry.Server(cfg.WorkerMetricsAddr)
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("worker metrics listener", slog.Any("error", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}()

	smeService := smes.NewService(smes.NewRepository(pool), nil, logger)
	recountJob := jobs.NewRecountJob(smeService, logger, metrics)

	handlers := []jobs.TaskHandler{
		{Type: jobs.TaskSMERecount, Handler: recountJob.Handle},
	}
	if cfg.SupabaseServiceRoleKey != "" {
		store := storage.New(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey, nil)
		purgeJob := jobs.NewPurgeJob(store, logger, metrics)
		handlers = append(handlers, jobs.TaskHandler{Type: jobs.TaskStoragePurge, Handler: purgeJob.Handle})
	} else {
		logger.Warn("object storage disabled, purge tasks stay queued")
	}

	recountTask, err := jobs.NewSMERecountTask(nil)
	if err != nil {
		logger.Error("build recount task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr, DB: cfg.RedisDB},
		Logger:    logger,
		Handlers:  handlers,
		Cron: []jobs.CronRegistration{
			{Spec: recountSpec, Task: recountTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker", slog.Int("handlers", len(handlers)))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}

// runCommand handles "trigger <task>" and "stats".
func runCommand(ctx context.Context, redisAddr string, args []string) error {
	c := cli.NewJobsCLI(redisAddr)
	defer c.Close()

	switch args[0] {
	case "trigger":
		if len(args) < 2 {
			return errors.New("usage: worker trigger <task>")
		}
		info, err := c.Trigger(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("enqueued %s (%s)\n", info.Type, info.ID)
	case "stats":
		stats, err := c.InspectQueue(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("queue=%s pending=%d active=%d scheduled=%d retry=%d archived=%d\n",
			stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry, stats.Archived)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
	return nil
}
