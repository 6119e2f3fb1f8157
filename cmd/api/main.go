package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/vitallink/clinic-records/backend/internal/adapters/cache"
	"github.com/vitallink/clinic-records/backend/internal/adapters/database"
	"github.com/vitallink/clinic-records/backend/internal/adapters/events"
	"github.com/vitallink/clinic-records/backend/internal/adapters/wxml"
	"github.com/vitallink/clinic-records/backend/internal/api/handlers"
	"github.com/vitallink/clinic-records/backend/internal/api/middleware"
	"github.com/vitallink/clinic-records/backend/internal/api/routes"
	"github.com/vitallink/clinic-records/backend/internal/application/services"
	"github.com/vitallink/clinic-records/backend/internal/domain/providers"
	"github.com/vitallink/clinic-records/backend/internal/domain/repositories"
	"github.com/vitallink/clinic-records/backend/internal/infrastructure/clients/postgres"
	"github.com/vitallink/clinic-records/backend/internal/infrastructure/clients/redis"
	"github.com/vitallink/clinic-records/backend/internal/infrastructure/observability"
	"github.com/vitallink/clinic-records/backend/pkg/config"
)

func main() {

	// Load configuration

	cfg, err := config.Load()

	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env)

	// Initialize OpenTelemetry if enabled
	var shutdown func(context.Context) error
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err = observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Printf("Warning: Failed to set up OpenTelemetry: %v", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Printf("Error shutting down OpenTelemetry: %v", err)
				}
			}()
			log.Println("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
	}
	defer pgClient.Close()
	log.Println("PostgreSQL client initialized successfully")

	// Initialize Redis client
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to initialize Redis client: %v", err)
		// Continue without Redis - the application can work without caching
		redisClient = nil
	} else {
		defer redisClient.Close()
		log.Println("Redis client initialized successfully")
	}

	var cacheProvider providers.CacheProvider
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
	}

	// Initialize event bus for cache invalidation and live updates
	var eventBus providers.EventBus
	if redisClient != nil {
		eventBus = events.NewRedisEventBus(redisClient)
		log.Println("Event bus initialized successfully")
	} else {
		log.Println("Event bus disabled (Redis not available)")
	}

	// Initialize adapters

	// Create base patient adapter
	basePatientAdapter := database.NewPatientAdapter(pgClient)

	// Wrap with caching if Redis is available (ingestion re-resolves the
	// same patients file after file)
	var patientAdapter repositories.PatientRepository
	if cacheProvider != nil {
		patientAdapter = database.NewCachedPatientAdapter(basePatientAdapter, cacheProvider, metrics)
		log.Println("Patient adapter wrapped with caching layer")
	} else {
		patientAdapter = basePatientAdapter
		log.Println("Patient adapter running without cache (Redis unavailable)")
	}

	doctorAdapter := database.NewDoctorAdapter(pgClient)
	examAdapter := database.NewExamAdapter(pgClient)
	reportAdapter := database.NewReportAdapter(pgClient)

	// Initialize cache invalidation service
	var cacheInvalidationService *services.CacheInvalidationService
	if cacheProvider != nil && eventBus != nil {
		cacheInvalidationService = services.NewCacheInvalidationService(cacheProvider, eventBus)
		if err := cacheInvalidationService.Start(); err != nil {
			log.Printf("Warning: Failed to start cache invalidation service: %v", err)
		} else {
			log.Println("Cache invalidation service started successfully")
		}
	}

	// Start cache warming service for improved read performance
	if cacheProvider != nil {
		warmingService := services.NewCacheWarmingService(basePatientAdapter, cacheProvider)
		warmingService.StartPeriodicWarming(ctx, 5*time.Minute)
	}

	// Initialize services

	resolver := services.NewEntityResolver(patientAdapter, doctorAdapter)
	upserter := services.NewExamUpserter(examAdapter)

	ingestionService := services.NewIngestionService(
		wxml.NewScannerWithPattern(cfg.Ingest.WatchDir, cfg.Ingest.Pattern),
		resolver,
		upserter,
		examAdapter,
		eventBus,
		metrics,
		cfg.Ingest.ExamNumberMaxLen,
	)

	reportLinkService := services.NewReportLinkService(
		wxml.NewScanner(cfg.Ingest.ReportDir),
		reportAdapter,
		examAdapter,
		eventBus,
		cfg.Ingest.ExamNumberMaxLen,
	)

	statsService := services.NewStatsService(sqlx.NewDb(pgClient.DB(), "postgres"))

	// Initialize handlers

	patientHandler := handlers.NewPatientHandler(patientAdapter, examAdapter)

	doctorHandler := handlers.NewDoctorHandler(doctorAdapter)

	examHandler := handlers.NewExamHandler(examAdapter, reportAdapter)

	reportHandler := handlers.NewReportHandler(reportAdapter)

	statsHandler := handlers.NewStatsHandler(statsService)
	ingestionHandler := handlers.NewIngestionHandler(ingestionService, reportLinkService)

	// Initialize cache middleware
	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider)
		log.Println("Cache middleware initialized successfully")
	}

	// Set up router

	router := routes.NewRouter(
		patientHandler,
		doctorHandler,
		examHandler,
		reportHandler,
		statsHandler,
		ingestionHandler,
		cacheMiddleware,
		metrics,
	)

	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}

	// Close event bus
	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Printf("Error closing event bus: %v", err)
		}
	}

	// Stop cache invalidation service
	if cacheInvalidationService != nil {
		cacheInvalidationService.Stop()
	}

	log.Println("Server stopped")
}
