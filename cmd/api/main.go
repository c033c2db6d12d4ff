package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"spendwise/internal/config"
	"spendwise/internal/database"
	"spendwise/internal/events"
	"spendwise/internal/logger"
	"spendwise/internal/services"
	"spendwise/internal/store"
	"spendwise/internal/validator"
)

// @title           Spendwise API
// @version         1.0
// @description     Spendwise tracks expenses and schedules upcoming ones, converting them into expenses when they fall due.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey PipelineKey
// @in header
// @name X-API-Key

const shutdownTimeout = 30 * time.Second

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	loc := appConfig.Location()

	// Create database manager
	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnw("database close failed", "error", err)
		}
	}()

	// Run migrations
	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	publisher, err := events.NewPublisher(appConfig.AMQPURL, appConfig.AMQPExchange, appConfig.AMQPRoutingKey)
	if err != nil {
		return fmt.Errorf("failed to connect event publisher: %w", err)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warnw("event publisher close failed", "error", err)
		}
	}()

	// Initialize services
	db := dbManager.DB()
	deps := routerDeps{
		categoryService: services.NewCategoryService(db),
		expenseService:  services.NewExpenseService(db, loc),
		upcomingService: services.NewUpcomingExpenseService(db),
		analysisService: services.NewAnalysisService(db, loc),
		auditService:    services.NewAuditService(db),
		pipelineAPIKey:  appConfig.PipelineAPIKey,
		corsOrigins:     appConfig.CORSAllowedOrigins,
		loc:             loc,
	}
	deps.conversionService = services.NewConversionService(store.New(db), publisher, deps.auditService, loc)

	if appConfig.SeedCategories {
		created, err := deps.categoryService.SeedDefaults(ctx)
		if err != nil {
			return fmt.Errorf("failed to seed categories: %w", err)
		}
		if created > 0 {
			log.Infow("seeded default categories", "created", created)
		}
	}

	validator.Register()

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           newRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infow("starting spendwise api", "port", appConfig.Port, "env", appConfig.Env, "timezone", loc.String())
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
