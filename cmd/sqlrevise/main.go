package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/example/sqlrevise/internal/catalog"
	"github.com/example/sqlrevise/internal/config"
	"github.com/example/sqlrevise/internal/engine"
	"github.com/example/sqlrevise/internal/gitsource"
	"github.com/example/sqlrevise/internal/review"
	"github.com/example/sqlrevise/internal/session"
	"github.com/example/sqlrevise/internal/web"
)

func main() {
	flags := config.Flags()
	if err := flags.Parse(os.Args[1:]); err != nil {
		slog.Error("failed to parse flags", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	fixturesDir := cfg.Fixtures
	if cfg.Repo != "" && gitsource.IsRemote(cfg.Repo) {
		fixturesDir, err = gitsource.LocalPathFor("fixture-packs", cfg.Repo)
		if err != nil {
			slog.Error("failed to resolve fixture pack path", "error", err)
			os.Exit(1)
		}
		if err := gitsource.Sync(cfg.Repo, fixturesDir); err != nil {
			slog.Error("failed to sync fixture pack", "error", err)
			os.Exit(1)
		}
	}

	cat, err := catalog.Load(fixturesDir)
	if err != nil {
		// A corrupt catalog is fatal; there is nothing sensible to serve.
		slog.Error("failed to load fixture catalog", "dir", fixturesDir, "error", err)
		os.Exit(1)
	}
	slog.Info("catalog loaded", "exercises", len(cat.Exercises()), "tables", len(cat.Tables()))

	ctx := context.Background()
	exec, err := engine.NewSQLite(ctx, cat.Tables())
	if err != nil {
		slog.Error("failed to start query engine", "error", err)
		os.Exit(1)
	}
	defer exec.Close()

	store, err := review.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open review store", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := seedReviewState(ctx, store, cat); err != nil {
		slog.Error("failed to seed review state", "error", err)
		os.Exit(1)
	}

	ctrl := session.New(cat, review.NewScheduler(store), exec, slog.Default())
	server := web.NewServer(ctrl, exec, slog.Default())

	slog.Info("listening", "addr", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, server); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// seedReviewState inserts initial review dates for catalog exercises that
// have no record yet. Fixture dates outside ISO format fall back to the
// epoch sentinel, which keeps the exercise immediately due.
func seedReviewState(ctx context.Context, store *review.Store, cat *catalog.Catalog) error {
	for _, e := range cat.Exercises() {
		seed := review.Epoch
		if e.LastReviewed != "" {
			if d, err := time.ParseInLocation("2006-01-02", e.LastReviewed, time.UTC); err == nil {
				seed = d
			} else {
				slog.Warn("ignoring malformed fixture review date",
					"exercise", e.Name,
					"last_reviewed", e.LastReviewed,
				)
			}
		}
		if err := store.Seed(ctx, e.Name, seed); err != nil {
			return err
		}
	}
	return nil
}
