// Command searchd wires the whole module together: config, logger,
// pluggable cache/rate-limit storage, the six provider adapters, the
// search orchestrator, and the status dashboard. Grounded on the
// teacher's cmd/server/main.go bootstrap sequence.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"mediasearch/internal/cache"
	"mediasearch/internal/core"
	"mediasearch/internal/feed"
	"mediasearch/internal/providers"
	"mediasearch/internal/providers/appleitunes"
	"mediasearch/internal/providers/communityradio"
	"mediasearch/internal/providers/graphqlindex"
	"mediasearch/internal/providers/indexhmac"
	"mediasearch/internal/providers/keyworddirectory"
	"mediasearch/internal/providers/shoutcast"
	"mediasearch/internal/ratelimit"
	"mediasearch/internal/search"
	"mediasearch/internal/searchapi"
	"mediasearch/internal/statusweb"
)

func main() {
	godotenv.Load()

	logger := core.NewLogger()

	cfg, err := core.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	cacheStore, limiterStore, closeDB, err := openStorage(cfg, logger)
	if err != nil {
		logger.Error("failed to open storage backend", "error", err)
		os.Exit(1)
	}
	defer closeDB()

	c := cache.New(cacheStore, logger)
	limiter := ratelimit.New(limiterStore, logger)
	registry := providers.New(limiter, logger)

	registerProviders(registry, cfg, logger)

	orchestrator := search.New(registry, limiter, c, cfg.Providers, logger)
	parser := feed.New(logger)
	api := searchapi.New(orchestrator, registry, parser)

	web := statusweb.New(api, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      web.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	logger.Info("starting mediasearch", "addr", addr, "cache_backend", cfg.Cache.Backend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// openStorage selects the memory or sqlite backend for both the cache and
// the rate limiter per cfg.Cache.Backend (§4.6, §4.7).
func openStorage(cfg *core.Config, logger *core.Logger) (cache.Store, ratelimit.Store, func(), error) {
	if cfg.Cache.Backend == "memory" {
		return cache.NewMemoryStore(), ratelimit.NewMemoryStore(), func() {}, nil
	}

	db, err := core.OpenSQLite(cfg.Cache.Path, logger)
	if err != nil {
		return nil, nil, func() {}, err
	}

	ctx := context.Background()
	if err := core.NewMigrationService(db, logger).InitMigrations(ctx); err != nil {
		db.Close()
		return nil, nil, func() {}, err
	}

	cacheStore, err := cache.NewSQLiteStore(ctx, db, logger)
	if err != nil {
		db.Close()
		return nil, nil, func() {}, err
	}
	limiterStore, err := ratelimit.NewSQLiteStore(ctx, db)
	if err != nil {
		db.Close()
		return nil, nil, func() {}, err
	}

	return cacheStore, limiterStore, func() { db.Close() }, nil
}

func registerProviders(registry *providers.Registry, cfg *core.Config, logger *core.Logger) {
	communityCfg := cfg.Providers[core.ProviderCommunityRadio]
	registry.RegisterStation(communityCfg, communityradio.New(communityCfg, logger))

	shoutcastCfg := cfg.Providers[core.ProviderShoutcastStyle]
	registry.RegisterStation(shoutcastCfg, shoutcast.New(shoutcastCfg, logger))

	keywordCfg := cfg.Providers[core.ProviderKeywordDirectory]
	registry.RegisterStation(keywordCfg, keyworddirectory.New(keywordCfg, logger))

	appleCfg := cfg.Providers[core.ProviderAppleITunes]
	registry.RegisterPodcast(appleCfg, appleitunes.New(appleCfg, logger))

	indexCfg := cfg.Providers[core.ProviderIndexHMAC]
	registry.RegisterPodcast(indexCfg, indexhmac.New(indexCfg, logger))

	graphqlCfg := cfg.Providers[core.ProviderGraphQLDirectory]
	registry.RegisterPodcast(graphqlCfg, graphqlindex.New(graphqlCfg, logger))
}
