package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/calebsouthern/attire/internal"
	"github.com/calebsouthern/attire/internal/ai"
	"github.com/calebsouthern/attire/internal/ai/mock"
	"github.com/calebsouthern/attire/internal/ai/xai"
	"github.com/calebsouthern/attire/internal/billing"
	"github.com/calebsouthern/attire/internal/handler"
	"github.com/calebsouthern/attire/internal/metrics"
	"github.com/calebsouthern/attire/internal/middleware"
	"github.com/calebsouthern/attire/internal/repository"
	"github.com/calebsouthern/attire/internal/service"
	"github.com/calebsouthern/attire/internal/storage"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database connection
	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Run migrations
	if err := internal.RunMigrations(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database ready")

	// Initialize repositories
	userRepo := repository.NewUserRepo(db)
	wardrobeRepo := repository.NewWardrobeRepo(db)
	plannerRepo := repository.NewPlannerRepo(db)
	lookRepo := repository.NewLookRepo(db)
	feedRepo := repository.NewFeedRepo(db)
	usageRepo := repository.NewUsageRepo(db)

	// Initialize file storage
	store, err := newStorage(cfg, logger)
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}
	logger.Info("Storage ready", "provider", cfg.StorageProvider)

	// Initialize AI provider
	provider, err := newAIProvider(cfg, logger)
	if err != nil {
		return fmt.Errorf("ai provider initialization failed: %w", err)
	}
	logger.Info("AI provider ready", "provider", cfg.AIProvider)

	// Initialize services
	userService := service.NewUserService(userRepo, logger)
	meterService := service.NewMeterService(usageRepo, logger)
	entitlementService := service.NewEntitlementService(wardrobeRepo, plannerRepo, lookRepo, meterService, logger)
	wardrobeService := service.NewWardrobeService(wardrobeRepo, entitlementService, store, service.NewImagingProcessor(), logger)
	plannerService := service.NewPlannerService(plannerRepo, entitlementService, logger)
	lookService := service.NewLookService(lookRepo, entitlementService, logger)
	feedService := service.NewFeedService(feedRepo, logger)
	chatService := service.NewChatService(provider, meterService, wardrobeService, logger)

	// Initialize Stripe billing (nil when not configured; billing
	// endpoints return 503 in that case)
	var billingService billing.Service
	if cfg.StripeSecretKey != "" {
		billingService = billing.NewStripeService(cfg.StripeSecretKey, cfg.StripeWebhookSecret, billing.PriceConfig{
			StyleProMonthlyPriceID:     cfg.StripeStyleProMonthlyPriceID,
			StyleProYearlyPriceID:      cfg.StripeStyleProYearlyPriceID,
			FashionEliteMonthlyPriceID: cfg.StripeFashionEliteMonthlyPriceID,
			FashionEliteYearlyPriceID:  cfg.StripeFashionEliteYearlyPriceID,
		})
		logger.Info("Stripe billing ready")
	} else {
		logger.Warn("Stripe billing not configured, billing endpoints disabled")
	}

	// Initialize middleware
	isSecure := cfg.Env != "development"
	authMw := middleware.NewAuthMiddleware(userService, logger, isSecure)
	securityMw := middleware.NewSecurityHeadersMiddleware(isSecure)
	loggingMw := middleware.NewRequestLoggingMiddleware(logger)
	metricsAuthMw := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword)
	authLimiter := middleware.NewAuthRateLimiter(logger)

	corsMw := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	// Initialize handlers
	authHandler := handler.NewAuthHandler(userService, logger, isSecure)
	subscriptionHandler := handler.NewSubscriptionHandler(entitlementService, logger)
	chatHandler := handler.NewChatHandler(chatService, logger)
	wardrobeHandler := handler.NewWardrobeHandler(wardrobeService, logger)
	plannerHandler := handler.NewPlannerHandler(plannerService, logger)
	lookHandler := handler.NewLookHandler(lookService, logger)
	feedHandler := handler.NewFeedHandler(feedService, logger)
	billingHandler := handler.NewBillingHandler(billingService, userService, cfg.BaseURL, logger)
	webhookHandler := handler.NewWebhookHandler(billingService, userService, logger)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus metrics (basic auth when configured)
	mux.Handle("GET /metrics", metricsAuthMw.Handler(promhttp.Handler()))

	// Uploaded photos when using local storage
	if cfg.StorageProvider == "local" {
		filesFS := http.FileServer(http.Dir(cfg.LocalStoragePath))
		mux.Handle("GET /files/", http.StripPrefix("/files/", filesFS))
	}

	// Stripe webhooks (signature-verified, no session auth)
	webhookHandler.RegisterRoutes(mux)

	// Auth routes
	authHandler.RegisterPublicRoutes(mux, authLimiter.LimitLogin, authLimiter.LimitSignup)
	authHandler.RegisterProtectedRoutes(mux)

	// API routes (each handler rejects unauthenticated requests itself)
	subscriptionHandler.RegisterRoutes(mux)
	chatHandler.RegisterRoutes(mux)
	wardrobeHandler.RegisterRoutes(mux)
	plannerHandler.RegisterRoutes(mux)
	lookHandler.RegisterRoutes(mux)
	feedHandler.RegisterRoutes(mux)
	billingHandler.RegisterRoutes(mux)

	// Global middleware, outermost first
	stack := middleware.Stack(
		metrics.Middleware,
		loggingMw.Handler,
		securityMw.Handler,
		corsMw.Handler,
		authMw.WithUser,
	)
	root := stack(mux)

	// ==========================================================================
	// Background jobs
	// ==========================================================================

	// Clean up expired sessions once a day
	cleanupCtx, cancelCleanup := context.WithCancel(ctx)
	defer cancelCleanup()
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-cleanupCtx.Done():
				return
			case <-ticker.C:
				if err := userService.DeleteExpiredSessions(cleanupCtx); err != nil {
					logger.Error("session cleanup failed", "error", err)
				}
			}
		}
	}()

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	<-sigChan
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

// newStorage builds the configured file storage backend.
func newStorage(cfg *internal.Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.StorageProvider == "r2" {
		return storage.NewR2Storage(storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicURL:       cfg.R2PublicURL,
		}, logger)
	}
	return storage.NewLocalStorage(storage.LocalConfig{
		BasePath: cfg.LocalStoragePath,
		BaseURL:  cfg.LocalStorageURL,
	}, logger)
}

// newAIProvider builds the configured stylist provider.
func newAIProvider(cfg *internal.Config, logger *slog.Logger) (ai.StylistProvider, error) {
	if cfg.AIProvider == "xai" {
		return xai.New(xai.Config{
			APIKey: cfg.XAIAPIKey,
			Model:  cfg.XAIModel,
			ProviderConfig: ai.ProviderConfig{
				MaxRetries:     cfg.AIMaxRetries,
				RetryBaseDelay: cfg.AIRetryBaseDelay,
				RequestTimeout: cfg.AIRequestTimeout,
			},
		}, logger)
	}
	return mock.New(logger), nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
