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

	"github.com/finbook-app/finbook/internal/app"
	"github.com/finbook-app/finbook/internal/audit"
	"github.com/finbook-app/finbook/internal/documents"
	"github.com/finbook-app/finbook/internal/ledger/accounts"
	"github.com/finbook-app/finbook/internal/ledger/balances"
	"github.com/finbook-app/finbook/internal/ledger/journals"
	"github.com/finbook-app/finbook/internal/observability"
	"github.com/finbook-app/finbook/internal/parties"
	"github.com/finbook-app/finbook/internal/payments"
	"github.com/finbook-app/finbook/internal/platform/cache"
	"github.com/finbook-app/finbook/internal/platform/db"
	"github.com/finbook-app/finbook/jobs"
	"github.com/finbook-app/finbook/report"
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

	dbpool, err := db.New(ctx, db.Config{DSN: cfg.PGDSN, MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, balance caching disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	auditRecorder := audit.NewRecorder(dbpool, logger)
	auditRecorder.OnFailure(metrics.AuditWriteFailed)
	auditService := audit.NewService(audit.NewRepository(dbpool))

	balanceCache := balances.NewCache(redisClient, 10*time.Minute)
	balancesService := balances.NewService(balances.NewRepository(dbpool), balanceCache)

	accountsService := accounts.NewService(accounts.NewRepository(dbpool), auditRecorder)
	journalsService := journals.NewService(journals.NewRepository(dbpool), auditRecorder, balanceCache)
	journalsService.OnPosted(metrics.PostingCommitted)
	journalsService.OnRejected(metrics.Rejection)
	documentsService := documents.NewService(documents.NewRepository(dbpool), auditRecorder, balanceCache, cfg.TaxRate)
	paymentsService := payments.NewService(payments.NewRepository(dbpool), auditRecorder, balanceCache, cfg.PaymentMaxRetries)
	partiesService := parties.NewService(parties.NewRepository(dbpool), auditRecorder)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	var reportHandler *report.Handler
	if cfg.GotenbergURL != "" {
		reportHandler = report.NewHandler(logger, report.NewClient(cfg.GotenbergURL), documentsService, partiesService)
	} else {
		logger.Info("gotenberg url not set, pdf rendering disabled")
	}

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		AccountsHandler:  accounts.NewHandler(logger, accountsService),
		JournalsHandler:  journals.NewHandler(logger, journalsService),
		BalancesHandler:  balances.NewHandler(logger, balancesService),
		DocumentsHandler: documents.NewHandler(logger, documentsService),
		PaymentsHandler:  payments.NewHandler(logger, paymentsService),
		PartiesHandler:   parties.NewHandler(logger, partiesService),
		AuditHandler:     audit.NewHandler(logger, auditService),
		ReportHandler:    reportHandler,
		JobsHandler:      jobsHandler,
		Metrics:          metrics,
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
