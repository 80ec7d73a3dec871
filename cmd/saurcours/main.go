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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ausaur/saurcours/internal/config"
	"github.com/ausaur/saurcours/internal/db"
	dbRedis "github.com/ausaur/saurcours/internal/db/redis"
	logpkg "github.com/ausaur/saurcours/internal/logger"
	"github.com/ausaur/saurcours/internal/metrics"
	articlerepo "github.com/ausaur/saurcours/internal/repository/article"
	auditrepo "github.com/ausaur/saurcours/internal/repository/audit"
	"github.com/ausaur/saurcours/internal/repository/searchcache"
	chiTransport "github.com/ausaur/saurcours/internal/transport/chi"
	"github.com/ausaur/saurcours/internal/transport/meili"
	articleuc "github.com/ausaur/saurcours/internal/usecase/article"
	healthuc "github.com/ausaur/saurcours/internal/usecase/health"
	reindexuc "github.com/ausaur/saurcours/internal/usecase/reindex"
	searchuc "github.com/ausaur/saurcours/internal/usecase/search"
	"github.com/ausaur/saurcours/internal/version"
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

	logger.Info("Starting saurcours API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_path", cfg.Database.Path),
		zap.String("search_index", cfg.Search.Index),
	)

	// Register domain metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	// Source of truth
	repo, err := articlerepo.New(cfg.Database.Path)
	if err != nil {
		logger.Fatal("Failed to open articles database", zap.Error(err))
	}
	defer func() { _ = repo.Close() }()

	// Document store adapter. EnsureIndex is idempotent; a downed engine at
	// startup only degrades search, it must not prevent the server from
	// serving the source of truth.
	index := meili.NewClient(&meili.Config{
		BaseURL: cfg.Search.BaseURL,
		APIKey:  cfg.Search.APIKey,
		Index:   cfg.Search.Index,
		Timeout: time.Duration(cfg.Search.TimeoutSec) * time.Second,
		Logger:  logger,
	})
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 10*time.Second)
	if err := index.EnsureIndex(startupCtx); err != nil {
		logger.Warn("Search index not ready at startup", zap.Error(err))
	}
	cancelStartup()

	// Optional result cache
	var kv db.KVStore
	if cfg.Cache.Enabled() {
		kv, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer kv.Close()
		logger.Info("Search result cache enabled", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	// Use case services
	auditLog := auditrepo.New(repo.Conn())
	articleSvc := articleuc.New(repo, index).WithAudit(auditLog)

	searchSvc := searchuc.New(index).
		WithLimits(cfg.Search.DefaultLimit, cfg.Search.MaxLimit).
		WithPerTokenLimit(cfg.Search.PerTokenLimit)
	if kv != nil {
		ttl := time.Duration(cfg.Cache.TTLSec) * time.Second
		searchSvc = searchSvc.WithCache(searchcache.New(kv, ttl, metrics.SearchCacheTotal, logger))
	}

	reindexSvc := reindexuc.New(repo, index)

	var cachePinger healthuc.CachePinger
	if kv != nil {
		cachePinger = kv
	}
	healthSvc := healthuc.New(repo, index, cachePinger)

	// HTTP server
	server := chiTransport.NewServer(articleSvc, searchSvc, reindexSvc, healthSvc, logger).
		WithAuditLog(auditLog)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	r.Handle("/metrics", promhttp.Handler())
	server.Register(r, chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

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
