package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	appbilling "github.com/propertyflow/backend/internal/application/billing"
	"github.com/propertyflow/backend/internal/domain/billing"
	"github.com/propertyflow/backend/internal/domain/shared"
	"github.com/propertyflow/backend/internal/infrastructure/cache"
	"github.com/propertyflow/backend/internal/infrastructure/config"
	"github.com/propertyflow/backend/internal/infrastructure/logger"
	"github.com/propertyflow/backend/internal/infrastructure/persistence"
	"github.com/propertyflow/backend/internal/infrastructure/scheduler"
	"github.com/propertyflow/backend/internal/infrastructure/telemetry"
	"github.com/propertyflow/backend/internal/interfaces/http/handler"
	"github.com/propertyflow/backend/internal/interfaces/http/middleware"
	"github.com/propertyflow/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	telemetryCfg := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}
	tp, err := telemetry.NewTracerProvider(context.Background(), telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	mp, err := telemetry.NewMeterProvider(context.Background(), telemetryCfg, cfg.Telemetry.MetricsExportInterval, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		if err := mp.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	lp, err := telemetry.NewLoggerProvider(context.Background(), telemetryCfg, cfg.Telemetry.LogsEnabled, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	defer func() {
		if err := lp.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down logger provider", zap.Error(err))
		}
	}()
	log = lp.Bridge(log, telemetryCfg.ServiceName, zapcore.InfoLevel)

	log.Info("Starting billing service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("database_driver", cfg.Database.Driver),
	)

	db, err := persistence.NewDatabase(&cfg.Database, log, cfg.Log.GormLevel)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        dbSystem(cfg.Database.Driver),
	}, log.Named("db_tracing"))
	if err := dbTracing.Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	// sqlite has no migration files; postgres is migrated with cmd/migrate
	if cfg.Database.Driver == "sqlite" {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate sqlite schema", zap.Error(err))
		}
	}
	log.Info("Database connected successfully")

	matching, err := billing.ParseInstallmentMatching(cfg.Billing.InstallmentMatching)
	if err != nil {
		log.Fatal("Invalid installment matching", zap.Error(err))
	}

	chargeService := appbilling.NewChargeService(
		newRepositories(db.DB),
		billing.NewEngine(matching.Matcher()),
		log.Named("charges"),
		appbilling.ChargeServiceConfig{DefaultCurrency: cfg.Billing.DefaultCurrency},
	)

	claims := newClaimStore(cfg, log)
	if claims != nil {
		defer func() {
			if err := claims.Close(); err != nil {
				log.Error("Error closing claim store", zap.Error(err))
			}
		}()
	}

	billingMetrics, err := telemetry.NewBillingMetrics(mp.Meter("billing"))
	if err != nil {
		log.Fatal("Failed to create billing metrics", zap.Error(err))
	}

	runService := appbilling.NewRunService(
		chargeService,
		persistence.NewBillablePartyRepository(db.DB),
		persistence.NewInvoiceRepository(db.DB),
		claims,
		log.Named("billing_run"),
		appbilling.RunServiceConfig{
			Workers:  cfg.Billing.Workers,
			ClaimTTL: cfg.Billing.ClaimTTL,
			Metrics:  billingMetrics,
		},
	)

	schedulerConfig, err := scheduler.NewBillingRunSchedulerConfig(cfg.Scheduler)
	if err != nil {
		log.Fatal("Invalid scheduler configuration", zap.Error(err))
	}
	runScheduler := scheduler.NewBillingRunScheduler(runService, log.Named("scheduler"), schedulerConfig)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runScheduler.Start(ctx); err != nil {
		log.Fatal("Failed to start billing run scheduler", zap.Error(err))
	}

	engine := router.New(
		router.Config{
			ReleaseMode: cfg.App.Env == "production",
			MaxBodySize: cfg.HTTP.MaxBodySize,
			Tracing: middleware.TracingConfig{
				ServiceName: telemetryCfg.ServiceName,
				Enabled:     tp.IsEnabled(),
			},
		},
		log,
		handler.NewHealthHandler(db),
		handler.NewBillingHandler(chargeService, runScheduler),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := runScheduler.Stop(shutdownCtx); err != nil {
		log.Error("Billing run scheduler did not stop in time", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// dbSystem maps the configured driver to the OpenTelemetry db.system value
func dbSystem(driver string) string {
	if driver == "postgres" {
		return "postgresql"
	}
	return driver
}

func newRepositories(db *gorm.DB) appbilling.Repositories {
	return appbilling.Repositories{
		Nodes:        persistence.NewPropertyNodeRepository(db),
		Tenancies:    persistence.NewTenancyRepository(db),
		Ownerships:   persistence.NewOwnershipRepository(db),
		Services:     persistence.NewServiceAssignmentRepository(db),
		Penalties:    persistence.NewPenaltyRepository(db),
		PaymentPlans: persistence.NewPaymentPlanRepository(db),
		InvoiceItems: persistence.NewInvoiceItemRepository(db),
		Receipts:     persistence.NewReceiptRepository(db),
		Currencies:   persistence.NewCurrencyRepository(db),
	}
}

// newClaimStore returns nil when tuple claims are disabled
func newClaimStore(cfg *config.Config, log *zap.Logger) shared.IdempotencyStore {
	if !cfg.Billing.ClaimEnabled {
		log.Info("Billing run tuple claims disabled")
		return nil
	}

	factory := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log.Named("claims")),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	)
	store, err := factory.CreateStore()
	if err != nil {
		log.Fatal("Failed to create claim store", zap.Error(err))
	}
	return store
}
