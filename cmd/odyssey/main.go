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
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/posting"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/reports"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/taxes"
	"github.com/odyssey-erp/odyssey-ledger/internal/app"
	"github.com/odyssey-erp/odyssey-ledger/internal/inventory"
	"github.com/odyssey-erp/odyssey-ledger/internal/observability"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
	"github.com/odyssey-erp/odyssey-ledger/internal/shared"
	"github.com/odyssey-erp/odyssey-ledger/jobs"
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
	slog.SetDefault(logger)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.Connect(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, reports will not be cached", slog.Any("error", err))
	} else {
		defer func(c *redis.Client) {
			if err := c.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}(redisClient)
	}
	reportCache := cache.New(redisClient, cfg.ReportCacheTTL)

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)

	accountsService := accounts.NewService(accounts.NewRepository(dbpool))
	journalsService := journals.NewService(journals.NewRepository(dbpool))

	postingEngine := posting.NewEngine(posting.NewRepository(dbpool), auditLogger, posting.Config{
		Timeout:          cfg.PostingTimeout,
		LegacyDefaultTax: cfg.LegacyDefaultTax,
		Metrics:          metrics,
		Cache:            reportCache,
		Logger:           logger,
	})

	inventoryService := inventory.NewService(inventory.NewRepository(dbpool), auditLogger, inventory.ServiceConfig{
		Timeout:     cfg.PostingTimeout,
		Idempotency: idempotencyStore,
		Metrics:     metrics,
		Cache:       reportCache,
		Logger:      logger,
	})

	reportsService := reports.NewService(reports.NewRepository(dbpool), reportCache, metrics, logger)
	certificates := taxes.NewCertificateService(dbpool, cfg.CertificateStyle, logger)

	queueOpts, err := jobs.RedisOpt(cfg.RedisAddr)
	if err != nil {
		logger.Error("parse redis address", slog.Any("error", err))
		os.Exit(1)
	}
	inspector := asynq.NewInspector(queueOpts)
	jobClient := jobs.NewClient(queueOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		AccountsHandler:    accounts.NewHandler(logger, accountsService),
		MappingsHandler:    mappings.NewHandler(logger, mappings.NewRepository(dbpool), accountsService),
		PostingHandler:     posting.NewHandler(logger, postingEngine),
		JournalsHandler:    journals.NewHandler(logger, journalsService),
		CertificateHandler: taxes.NewHandler(certificates),
		ReportsHandler:     reports.NewHandler(logger, reportsService),
		InventoryHandler:   inventory.NewHandler(logger, inventoryService),
		JobHandler:         jobs.NewHandler(inspector, jobClient, logger),
		Metrics:            metrics,
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
