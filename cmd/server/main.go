package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/denkain-drill/backend/internal/api"
	practicesession "github.com/denkain-drill/backend/internal/domain/practice_session"
	"github.com/denkain-drill/backend/internal/infrastructure/config"
	"github.com/denkain-drill/backend/internal/service"
	"github.com/denkain-drill/backend/internal/source"
	"github.com/denkain-drill/backend/internal/store"

	_ "github.com/denkain-drill/backend/docs" // generated swagger docs
)

// @title           Denkain Drill API
// @version         1.0
// @description     Exam question drill: pick a dataset, answer shuffled multiple-choice questions, and review weak spots from local statistics.

// @host      localhost:8080
// @BasePath  /

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	defaultMode, err := practicesession.ParseMode(cfg.DefaultMode)
	if err != nil {
		logger.Error("invalid DEFAULT_MODE", "error", err)
		os.Exit(1)
	}

	// ── Dependencies ────────────────────────────────────────────────
	db, err := store.Open(context.Background(), cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logger.Error("failed to open database", "driver", cfg.DBDriver, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	upstream, err := source.NewFetcher(cfg.DataSource, &http.Client{Timeout: 15 * time.Second}, os.DirFS)
	if err != nil {
		logger.Error("invalid DATA_SOURCE", "data_source", cfg.DataSource, "error", err)
		os.Exit(1)
	}

	// Remote data is cached for offline use; a local directory is read as is.
	fetcher := upstream
	var purger service.Purger
	if _, remote := upstream.(*source.HTTPFetcher); remote {
		cached := source.NewCachedFetcher(upstream, db, cfg.CacheVersion, logger)
		fetcher, purger = cached, cached
	}

	loader := source.NewLoader(fetcher)
	stats := store.NewStatsRepository(db, logger)
	registry := service.NewRegistry(loader, stats, defaultMode, logger)
	handler := api.NewHandler(registry, fetcher, logger)

	if cfg.WarmCache {
		warmer := service.NewWarmer(loader, fetcher, purger, cfg.WarmWorkers, logger)
		go func() {
			if _, err := warmer.Warm(context.Background()); err != nil {
				logger.Warn("cache warm-up failed", "error", err)
			}
		}()
	}

	// ── Routes ──────────────────────────────────────────────────────
	mux := http.NewServeMux()
	api.RegisterRoutes(mux, handler)

	// Swagger UI served at /swagger/
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	if cfg.WebDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(cfg.WebDir)))
	}

	// ── Middleware chain: Logging → CORS → mux ──────────────────────
	logged := api.Logging(logger)(api.CORS(cfg.CORSOrigins)(mux))

	// ── Server ──────────────────────────────────────────────────────
	server := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           logged,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		logger.Info("shutting down server")
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("server forced to shutdown", "error", err)
		}
	}()

	logger.Info("starting server",
		"address", cfg.ServerAddress,
		"db_driver", cfg.DBDriver,
		"data_source", cfg.DataSource,
		"default_mode", defaultMode,
	)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed to start", "error", err)
		os.Exit(1)
	}
}
