package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/budgetd/internal/config"
	"github.com/kailas-cloud/budgetd/internal/db"
	dbRedis "github.com/kailas-cloud/budgetd/internal/db/redis"
	dbSqlite "github.com/kailas-cloud/budgetd/internal/db/sqlite"
	logpkg "github.com/kailas-cloud/budgetd/internal/logger"
	"github.com/kailas-cloud/budgetd/internal/metrics"
	"github.com/kailas-cloud/budgetd/internal/repository/budgets"
	ledgerrepo "github.com/kailas-cloud/budgetd/internal/repository/ledger"
	chiTransport "github.com/kailas-cloud/budgetd/internal/transport/chi"
	budgetuc "github.com/kailas-cloud/budgetd/internal/usecase/budget"
	healthuc "github.com/kailas-cloud/budgetd/internal/usecase/health"
	"github.com/kailas-cloud/budgetd/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting budgetd API server",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("budgets_file", cfg.Budgets.File),
	)

	// Create ledger store based on driver
	var store db.Store
	switch cfg.Database.Driver {
	case "sqlite":
		store, err = dbSqlite.NewStore(dbSqlite.Config{
			Path: cfg.Database.Path,
		})
	case "redis":
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
	default:
		logger.Fatal("Unknown database driver", zap.String("driver", cfg.Database.Driver))
	}
	if err != nil {
		logger.Fatal("Failed to create ledger store", zap.Error(err))
	}
	defer store.Close()

	// Wait for the ledger store to be ready
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Ledger store not ready", zap.Error(err))
	}
	logger.Info("Connected to ledger store")

	// Register budget metrics explicitly (no init())
	metrics.RegisterBudgetMetrics()

	// Budget config source: load the first snapshot and hot-reload on changes.
	// A failed first load is not fatal — the resolver reports unavailable
	// until the watcher picks up a valid file.
	source := budgets.NewSource(cfg.Budgets.File, logger)
	if err := source.Reload(); err != nil {
		logger.Warn("Initial budgets load failed, serving unavailable until the file is valid", zap.Error(err))
	}

	watcher, err := budgets.NewWatcher(source, time.Duration(cfg.Budgets.DebounceMs)*time.Millisecond, logger)
	if err != nil {
		logger.Fatal("Failed to create budgets watcher", zap.Error(err))
	}
	go func() {
		if err := watcher.Watch(ctx); err != nil {
			logger.Error("Budgets watcher exited", zap.Error(err))
		}
	}()

	// Repositories and use case services
	ledger := ledgerrepo.New(store, cfg.Storage.KeyPrefix)
	budgetSvc := budgetuc.New(source, ledger, logger)
	healthSvc := healthuc.New(store, source)

	// Create chi server
	server := chiTransport.NewServer(budgetSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Mount(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
