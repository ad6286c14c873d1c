package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/voyagen/wolfflix/internal/actions"
	"github.com/voyagen/wolfflix/internal/busy"
	"github.com/voyagen/wolfflix/internal/cache"
	"github.com/voyagen/wolfflix/internal/catalog"
	"github.com/voyagen/wolfflix/internal/chat"
	"github.com/voyagen/wolfflix/internal/config"
	"github.com/voyagen/wolfflix/internal/embedding"
	"github.com/voyagen/wolfflix/internal/intent"
	"github.com/voyagen/wolfflix/internal/library"
	"github.com/voyagen/wolfflix/internal/live"
	"github.com/voyagen/wolfflix/internal/logging"
	"github.com/voyagen/wolfflix/internal/server"
	"github.com/voyagen/wolfflix/internal/service"
	"github.com/voyagen/wolfflix/internal/session"
	"github.com/voyagen/wolfflix/internal/store"
	"github.com/voyagen/wolfflix/internal/tmdb"
)

func main() {
	configPath := flag.String("config", "", "Optional config file path (YAML); else use environment variables")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	checks := map[string]server.Pinger{}
	appStore, closeStore := openStore(ctx, cfg, checks)
	defer closeStore()

	// Connect to Redis if REDIS_URL is configured.
	var rds *cache.Redis
	if cfg.RedisURL != "" {
		rds, err = cache.New(cfg.RedisURL)
		if err != nil {
			fatal(err, "redis")
		}
		defer rds.Close()
		if err := rds.Ping(ctx); err != nil {
			fatal(err, "redis ping")
		}
		checks["redis"] = rds
		appStore = store.NewCachedStore(appStore, rds)
		logging.Info().Msg("redis connected (caching enabled)")
	} else {
		logging.Info().Msg("redis disabled (REDIS_URL not set)")
	}

	var embedder embedding.Embedder
	if cfg.VoyageAPIKey != "" {
		embedder = embedding.NewClient(cfg.VoyageAPIKey, cfg.VoyageModel)
		logging.Info().Msg("semantic search enabled (VoyageAI)")
	} else {
		logging.Info().Msg("semantic search disabled (VOYAGE_API_KEY not set)")
	}

	provider := tmdb.NewClient(cfg.TMDBAPIKey, tmdb.Options{
		BaseURL:   cfg.TMDBBaseURL,
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.Timeout,
		Rate:      cfg.TMDBRate,
		Cache:     rds,
		Busy:      busy.Default,
	})
	liveSource := live.NewFetcher(cfg.LiveURL, cfg.UserAgent, cfg.Timeout, rds, busy.Default)

	indexer := service.NewIndexer(appStore, embedder, rds)
	go indexer.RunWorker(ctx)
	defer indexer.Wait()

	lib := library.NewService(appStore, cfg.RecentLimit)
	sessions := session.NewManager(provider, lib)
	defer sessions.Shutdown()
	bot := chat.NewBot(intent.NewResolver(cfg.WordBoundaryGenres()), provider, lib, appStore)
	cat := catalog.New(provider, lib, catalog.Options{Live: liveSource, Indexer: indexer})

	srv := server.New(server.Deps{
		Checks:  checks,
		Catalog: cat,
		Library: lib,
		Bot:     bot,
		Actions: actions.New(actions.Deps{Bot: bot, Library: lib, Sessions: sessions, Catalog: cat}),
		Indexer: indexer,
		Live:    liveSource,
		Busy:    busy.Default,
	}, server.Options{Port: cfg.ServerPort, RateLimit: cfg.RateLimit})
	if err := srv.ListenAndServe(ctx); err != nil {
		fatal(err, "server")
	}
}

// openStore connects to Postgres when DATABASE_URL is set, applying
// migrations first, and falls back to the in-memory store otherwise.
func openStore(ctx context.Context, cfg *config.Config, checks map[string]server.Pinger) (store.Store, func()) {
	if cfg.DatabaseURL == "" {
		logging.Warn().Msg("DATABASE_URL not set; lists and chat history are kept in memory")
		return store.NewMemory(), func() {}
	}

	if err := store.EnsurePgvector(cfg.DatabaseURL); err != nil {
		fatal(err, "pgvector")
	}
	if err := store.RunMigrations(cfg.DatabaseURL, migrationsPath()); err != nil {
		fatal(err, "migrate")
	}
	pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		fatal(err, "db")
	}
	checks["postgres"] = pg
	return pg, pg.Close
}

// migrationsPath looks for migrations/ in the working directory, then next
// to the executable.
func migrationsPath() string {
	if abs, err := filepath.Abs("migrations"); err == nil {
		if _, err := os.Stat(abs); err == nil {
			return "file://" + abs
		}
	}
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Join(filepath.Dir(exe), "migrations")
		if _, err := os.Stat(dir); err == nil {
			return "file://" + dir
		}
	}
	return store.DefaultMigrationsPath
}

func fatal(err error, msg string) {
	logging.Error().Err(err).Msg(msg)
	os.Exit(1)
}
