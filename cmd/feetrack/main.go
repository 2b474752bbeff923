package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/feetrack/feetrack/cmd/feetrack/cli"
	"github.com/feetrack/feetrack/internal/app"
	"github.com/feetrack/feetrack/internal/clients"
	"github.com/feetrack/feetrack/internal/contracts"
	"github.com/feetrack/feetrack/internal/metrics"
	"github.com/feetrack/feetrack/internal/observability"
	"github.com/feetrack/feetrack/internal/payments"
	"github.com/feetrack/feetrack/internal/platform/cache"
	"github.com/feetrack/feetrack/internal/platform/db"
	"github.com/feetrack/feetrack/internal/shared"
	"github.com/feetrack/feetrack/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig(".env")
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	if len(os.Args) > 1 && os.Args[1] == "jobs" {
		jobsCLI := cli.NewJobsCLI(cfg.RedisAddr)
		code := jobsCLI.Run(ctx, os.Args[2:], os.Stdout, os.Stderr)
		if err := jobsCLI.Close(); err != nil {
			logger.Warn("jobs cli close", slog.Any("error", err))
		}
		os.Exit(code)
	}

	if err := serve(ctx, stop, cfg, logger); err != nil {
		logger.Error("server", slog.Any("error", err))
		os.Exit(1)
	}
}

func serve(ctx context.Context, stop context.CancelFunc, cfg *app.Config, logger *slog.Logger) error {
	dbpool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
	if err != nil {
		return err
	}
	defer dbpool.Close()

	var summaryCache *cache.Versioned
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, client summaries served uncached", slog.Any("error", err))
	} else {
		defer closeRedis(redisClient, logger)
		summaryCache = cache.NewVersioned(redisClient, "feetrack:clients", cfg.CacheTTL)
	}

	queue := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := queue.Close(); err != nil {
			logger.Warn("queue client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	aggregator := metrics.NewAggregator(metrics.NewRepository(dbpool), logger)
	contractService := contracts.NewService(contracts.NewRepository(dbpool), aggregator, logger)
	clientService := clients.NewService(clients.NewRepository(dbpool), aggregator, contractService, summaryCache, logger)
	paymentService := payments.NewService(payments.NewRepository(dbpool), contractService, aggregator, payments.Deps{
		Queue:       queue,
		Summaries:   clientService,
		Audit:       shared.NewAuditLogger(dbpool),
		Idempotency: shared.NewIdempotencyStore(dbpool),
	}, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		ClientsHandler:   clients.NewHandler(logger, clientService),
		ContractsHandler: contracts.NewHandler(logger, contractService),
		PaymentsHandler:  payments.NewHandler(logger, paymentService),
		JobHandler:       jobs.NewHandler(inspector, logger),
		Metrics:          observability.NewMetrics(),
		RequestLogging:   !cfg.IsProduction(),
	})

	server := &http.Server{
		Addr:              cfg.AppAddr,
		Handler:           router,
		ReadTimeout:       cfg.AppReadTimeout,
		ReadHeaderTimeout: cfg.AppReadTimeout,
		WriteTimeout:      cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func closeRedis(client *redis.Client, logger *slog.Logger) {
	if err := client.Close(); err != nil {
		logger.Warn("redis close", slog.Any("error", err))
	}
}
