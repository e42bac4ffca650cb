package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/fkhayef/splitclaim/docs"
	"github.com/fkhayef/splitclaim/internal/config"
	"github.com/fkhayef/splitclaim/internal/database"
	"github.com/fkhayef/splitclaim/internal/expense"
	"github.com/fkhayef/splitclaim/internal/expense/settle"
	"github.com/fkhayef/splitclaim/internal/media"
	"github.com/fkhayef/splitclaim/internal/metrics"
	"github.com/fkhayef/splitclaim/pkg/logging"
	mw "github.com/fkhayef/splitclaim/pkg/middleware"
)

// @title        Splitclaim API
// @version      1.0
// @description  Claim and reconcile shares of a one-time shared expense.
// @BasePath     /api/v1
func main() {
	// Load .env file
	envErr := godotenv.Load()

	// Load configuration
	cfg := config.Load()
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)
	if envErr != nil {
		logger.Debug("no .env file found, using environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database connection
	db, err := database.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	logger.Info("connected to database")

	if cfg.MigrateOnStart {
		if err := database.RunMigrations(ctx, db); err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.New(registry)

	// Settle Strategy Factory (Factory Pattern)
	settleFactory := settle.NewStrategyFactory()

	opts := []expense.Option{
		expense.WithLogger(logger),
		expense.WithMetrics(recorder),
	}
	if cfg.Storage.Enabled() {
		signer, err := media.NewS3Signer(ctx, media.Config{
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			TTL:       cfg.Storage.ImageURLTTL,
		})
		if err != nil {
			logger.Error("failed to configure image storage", "error", err)
			os.Exit(1)
		}
		opts = append(opts, expense.WithImageSigner(signer))
	} else {
		logger.Warn("S3_BUCKET not set, payment images will be omitted")
	}

	// Expense feature (with settle factory injected)
	expenseRepo := expense.NewRepository(db)
	expenseService := expense.NewService(expenseRepo, settleFactory, opts...)
	expenseHandler := expense.NewHandler(expenseService)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.RequestTimeout))

		// Mount feature routers
		r.Mount("/expenses", expenseHandler.Routes())
	})

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
