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

	"github.com/fiberdesk/fiberdesk/internal/app"
	"github.com/fiberdesk/fiberdesk/internal/audit"
	"github.com/fiberdesk/fiberdesk/internal/billing"
	"github.com/fiberdesk/fiberdesk/internal/budgets"
	"github.com/fiberdesk/fiberdesk/internal/customers"
	"github.com/fiberdesk/fiberdesk/internal/expenses"
	"github.com/fiberdesk/fiberdesk/internal/finance"
	"github.com/fiberdesk/fiberdesk/internal/ledger"
	"github.com/fiberdesk/fiberdesk/internal/observability"
	"github.com/fiberdesk/fiberdesk/internal/plans"
	"github.com/fiberdesk/fiberdesk/internal/platform/cache"
	"github.com/fiberdesk/fiberdesk/internal/platform/db"
	"github.com/fiberdesk/fiberdesk/internal/reports"
	"github.com/fiberdesk/fiberdesk/internal/roles"
	"github.com/fiberdesk/fiberdesk/internal/schema"
	"github.com/fiberdesk/fiberdesk/internal/shared"
	"github.com/fiberdesk/fiberdesk/internal/tax"
	"github.com/fiberdesk/fiberdesk/internal/users"
	"github.com/fiberdesk/fiberdesk/jobs"
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)

	provisioner := schema.NewProvisioner(dbpool)
	if report, err := provisioner.Run(ctx); err != nil {
		logger.Error("provision schema", slog.Any("error", err))
		os.Exit(1)
	} else {
		logger.Info("schema provisioned",
			slog.Int("statements", report.StatementsRun),
			slog.Int("tables", report.TablesUpdated))
	}

	financeRepo := finance.NewRepository(dbpool)
	financeCache := finance.NewCache(redisClient, cfg.ReportCacheTTL)
	financeService := finance.NewService(financeRepo, financeCache)
	financeHandler := finance.NewHandler(logger, financeService)
	if err := financeCache.ListenForInvalidation(ctx, ""); err != nil {
		logger.Warn("cache invalidation listener", slog.Any("error", err))
	}

	reportsService := reports.NewService(financeService)
	reportsHandler := reports.NewHandler(logger, reportsService)

	billingRepo := billing.NewRepository(dbpool)
	billingService := billing.NewService(billingRepo, idempotencyStore, auditLogger, financeService)
	billingHandler := billing.NewHandler(logger, billingService)

	expensesRepo := expenses.NewRepository(dbpool)
	expensesService := expenses.NewService(expensesRepo, auditLogger, financeService)
	expensesHandler := expenses.NewHandler(logger, expensesService)

	taxRepo := tax.NewRepository(dbpool)
	taxService := tax.NewService(taxRepo, auditLogger)
	taxHandler := tax.NewHandler(logger, taxService)

	budgetsRepo := budgets.NewRepository(dbpool)
	budgetsService := budgets.NewService(budgetsRepo, auditLogger)
	budgetsHandler := budgets.NewHandler(logger, budgetsService)

	customersRepo := customers.NewRepository(dbpool)
	customersService := customers.NewService(customersRepo, auditLogger)
	customersHandler := customers.NewHandler(logger, customersService)

	plansRepo := plans.NewRepository(dbpool)
	plansService := plans.NewService(plansRepo, auditLogger)
	plansHandler := plans.NewHandler(logger, plansService)

	ledgerRepo := ledger.NewRepository(dbpool)
	ledgerService := ledger.NewService(ledgerRepo, auditLogger)
	ledgerHandler := ledger.NewHandler(logger, ledgerService)

	schemaHandler := schema.NewHandler(logger, provisioner, auditLogger)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo, auditLogger)
	usersHandler := users.NewHandler(logger, usersService)

	rolesRepo := roles.NewRepository(dbpool)
	rolesService := roles.NewService(rolesRepo, auditLogger)
	rolesHandler := roles.NewHandler(logger, rolesService)

	auditRepo := audit.NewRepository(dbpool)
	auditService := audit.NewService(auditRepo)
	auditHandler := audit.NewHandler(logger, auditService)

	metrics := observability.NewMetrics()

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Warn("jobs client", slog.Any("error", err))
	} else {
		defer func() {
			if err := jobClient.Close(); err != nil {
				logger.Warn("jobs client close", slog.Any("error", err))
			}
		}()
		if _, err := jobClient.Enqueue(ctx, jobs.NewFinanceCacheWarmupTask()); err != nil {
			logger.Warn("enqueue cache warmup", slog.Any("error", err))
		}
	}

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		FinanceHandler:   financeHandler,
		ReportsHandler:   reportsHandler,
		BillingHandler:   billingHandler,
		ExpensesHandler:  expensesHandler,
		TaxHandler:       taxHandler,
		BudgetsHandler:   budgetsHandler,
		CustomersHandler: customersHandler,
		PlansHandler:     plansHandler,
		LedgerHandler:    ledgerHandler,
		SchemaHandler:    schemaHandler,
		UsersHandler:     usersHandler,
		RolesHandler:     rolesHandler,
		AuditHandler:     auditHandler,
		JobHandler:       jobHandler,
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
