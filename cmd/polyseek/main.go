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

	"github.com/polyseek/polyseek/internal/config"
	"github.com/polyseek/polyseek/internal/db"
	dbRedis "github.com/polyseek/polyseek/internal/db/redis"
	dbValkey "github.com/polyseek/polyseek/internal/db/valkey"
	"github.com/polyseek/polyseek/internal/dispatch"
	"github.com/polyseek/polyseek/internal/domain/service"
	"github.com/polyseek/polyseek/internal/health"
	logpkg "github.com/polyseek/polyseek/internal/logger"
	"github.com/polyseek/polyseek/internal/metrics"
	"github.com/polyseek/polyseek/internal/registry"
	"github.com/polyseek/polyseek/internal/repository/searchcache"
	chiTransport "github.com/polyseek/polyseek/internal/transport/chi"
	"github.com/polyseek/polyseek/internal/upstream"
	healthuc "github.com/polyseek/polyseek/internal/usecase/health"
	searchuc "github.com/polyseek/polyseek/internal/usecase/search"
	"github.com/polyseek/polyseek/internal/version"
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

	logger.Info("Starting polyseek API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Int("services", len(cfg.Services)),
	)

	// Result-cache backend is optional: no addrs means every search hits
	// the upstreams.
	var store db.Store
	if len(cfg.Database.Addrs) > 0 {
		switch cfg.Database.Driver {
		case "valkey":
			store, err = dbValkey.NewStore(dbValkey.Config{
				Addrs:    cfg.Database.Addrs,
				Password: cfg.Database.Password,
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
			logger.Fatal("Failed to create database store", zap.Error(err))
		}
		defer store.Close()

		ctx := context.Background()
		readiness := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, readiness); err != nil {
			logger.Fatal("Database not ready", zap.Error(err))
		}
		logger.Info("Connected to result cache backend",
			zap.String("driver", cfg.Database.Driver),
			zap.Strings("addrs", cfg.Database.Addrs),
		)
	}

	// Register metrics explicitly (no init())
	metrics.RegisterDispatchMetrics()

	// Build the service registry from configuration
	reg, err := registry.FromConfig(cfg.Services)
	if err != nil {
		logger.Fatal("Failed to build service registry", zap.Error(err))
	}
	logger.Info("Service registry built", zap.Int("services", reg.Len()))

	// One upstream client per network service; offline services need none
	pool, err := upstream.NewPool(networkDescriptors(reg))
	if err != nil {
		logger.Fatal("Failed to build upstream clients", zap.Error(err))
	}

	tracker := health.New(health.Durations{
		AccessDenied: time.Duration(cfg.Suspension.AccessDeniedSec) * time.Second,
		Captcha:      time.Duration(cfg.Suspension.CaptchaSec) * time.Second,
		RateLimited:  time.Duration(cfg.Suspension.RateLimitedSec) * time.Second,
		Generic:      time.Duration(cfg.Suspension.GenericSec) * time.Second,
		Max:          time.Duration(cfg.Suspension.MaxSec) * time.Second,
	}, cfg.Search.TimeoutThreshold)

	dispatcher := dispatch.New(reg, tracker, exchangerFor(pool), dispatch.Config{
		GlobalTimeout: time.Duration(cfg.Search.GlobalTimeoutSec) * time.Second,
		MaxConcurrent: int64(cfg.Search.MaxConcurrent),
	})

	searchOpts := []searchuc.Option{searchuc.WithStrict(cfg.Search.Strict)}
	if store != nil {
		cache := searchcache.New(store, cfg.Cache.KeyPrefix, time.Duration(cfg.Cache.TTLSec)*time.Second)
		searchOpts = append(searchOpts, searchuc.WithCache(cache))
	}
	searchSvc := searchuc.New(reg, dispatcher, tracker, searchOpts...)

	// Health service: nil pinger when the cache backend is disabled
	var pinger healthuc.CachePinger
	if store != nil {
		pinger = store
	}
	healthSvc := healthuc.New(pinger, reg)

	server := chiTransport.NewServer(searchSvc, reg, tracker, healthSvc, logger)

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

func networkDescriptors(reg *registry.Registry) []service.Descriptor {
	entries := reg.All()
	out := make([]service.Descriptor, 0, len(entries))
	for _, e := range entries {
		if e.Descriptor.Protocol() == service.Offline {
			continue
		}
		out = append(out, e.Descriptor)
	}
	return out
}

// exchangerFor adapts the pool lookup to the dispatcher contract. A typed
// nil *upstream.Client must become a nil interface so offline services are
// detected correctly.
func exchangerFor(pool *upstream.Pool) func(string) dispatch.Exchanger {
	return func(name string) dispatch.Exchanger {
		if c := pool.Get(name); c != nil {
			return c
		}
		return nil
	}
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
