package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	practicesession "github.com/denkain-drill/backend/internal/domain/practice_session"
	"github.com/denkain-drill/backend/internal/infrastructure/config"
	"github.com/denkain-drill/backend/internal/service"
	"github.com/denkain-drill/backend/internal/source"
	"github.com/denkain-drill/backend/internal/store"
	"github.com/denkain-drill/backend/internal/tui"
)

func main() {
	cfg := config.Load()

	dataSource := flag.String("data", cfg.DataSource, "site root holding data/catalog.json (directory or http(s) URL)")
	dbDriver := flag.String("driver", cfg.DBDriver, "statistics database driver: sqlite, postgres or mysql")
	dbDSN := flag.String("db", cfg.DBDSN, "statistics database DSN")
	mode := flag.String("mode", cfg.DefaultMode, "initial mode: order, random, wrong or weak")
	logPath := flag.String("log", "", "write logs to this file")
	warm := flag.Bool("warm", false, "precache every dataset and exit")
	flag.Parse()

	if err := run(cfg, *dataSource, *dbDriver, *dbDSN, *mode, *logPath, *warm); err != nil {
		fmt.Fprintln(os.Stderr, "drill:", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, dataSource, dbDriver, dbDSN, modeName, logPath string, warm bool) error {
	// The terminal belongs to the UI, so logs go to a file or nowhere.
	var logOut io.Writer = io.Discard
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: slog.LevelDebug}))

	mode, err := practicesession.ParseMode(modeName)
	if err != nil {
		return err
	}

	ctx := context.Background()
	db, err := store.Open(ctx, dbDriver, dbDSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	upstream, err := source.NewFetcher(dataSource, &http.Client{Timeout: 15 * time.Second}, os.DirFS)
	if err != nil {
		return fmt.Errorf("data source: %w", err)
	}
	fetcher := upstream
	var purger service.Purger
	if _, remote := upstream.(*source.HTTPFetcher); remote {
		cached := source.NewCachedFetcher(upstream, db, cfg.CacheVersion, logger)
		fetcher, purger = cached, cached
	}
	loader := source.NewLoader(fetcher)

	if warm {
		return warmCache(ctx, service.NewWarmer(loader, fetcher, purger, cfg.WarmWorkers, logger))
	}

	trainer := service.NewTrainer(loader, store.NewStatsRepository(db, logger), mode, logger)
	_, err = tea.NewProgram(tui.New(ctx, trainer, logger), tea.WithAltScreen()).Run()
	return err
}

func warmCache(ctx context.Context, w *service.Warmer) error {
	results, err := w.Warm(ctx)
	if err != nil {
		return err
	}
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Printf("FAIL %-30s %v\n", r.Dataset.Key(), r.Err)
			continue
		}
		fmt.Printf("ok   %-30s %d questions, %d images\n", r.Dataset.Key(), r.Questions, r.Assets)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d datasets failed", failed, len(results))
	}
	return nil
}
