package di

import (
	"context"
	"fmt"

	"github.com/yx118/MoonTVPlus/internal/advisor"
	"github.com/yx118/MoonTVPlus/internal/cache"
	"github.com/yx118/MoonTVPlus/internal/config"
	"github.com/yx118/MoonTVPlus/internal/handler"
	"github.com/yx118/MoonTVPlus/internal/health"
	"github.com/yx118/MoonTVPlus/internal/metadata"
	"github.com/yx118/MoonTVPlus/internal/metrics"
	"github.com/yx118/MoonTVPlus/internal/server"
	"github.com/yx118/MoonTVPlus/internal/telemetry"
	"github.com/yx118/MoonTVPlus/internal/usage"
)

// InitializeApp initializes application dependencies and returns the
// App instance.
func InitializeApp(ctx context.Context) (*App, error) {
	cfg, err := config.ProvideConfig()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	logger, err := ProvideLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	metricsStore := metrics.NewStore()

	telemetryProvider, err := telemetry.NewProvider(ctx, cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	cacheStore, err := cache.NewStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("cache store: %w", err)
	}

	doubanClient := metadata.NewDoubanClient(cfg.Douban, cacheStore, logger)
	tmdbClient := metadata.NewTMDBClient(cfg.TMDB, cacheStore)

	searchClient, err := ProvideSearchClient(cfg)
	if err != nil {
		return nil, err
	}
	chatClient, err := ProvideChatClient(cfg)
	if err != nil {
		return nil, err
	}
	decisionClient, err := ProvideDecisionClient(cfg)
	if err != nil {
		return nil, err
	}

	orchestrator, err := advisor.New(cfg, decisionClient, searchClient, doubanClient, tmdbClient, metricsStore, logger)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}

	var usageRepository *usage.Repository
	var usageStore usage.Store
	var dbPinger health.Pinger
	if cfg.Database.Enabled() {
		usageRepository = usage.NewRepository(cfg, logger)
		usageStore = usageRepository
		dbPinger = usageRepository
	}
	usageRecorder := usage.NewRecorder(usageStore, logger)

	healthChecker := health.NewChecker(cfg, cacheStore, dbPinger)
	chatHandler := handler.NewChatHandler(cfg, orchestrator, chatClient, metricsStore, usageRecorder, logger)
	adminHandler := handler.NewAdminHandler(usageStore, metricsStore, logger)

	router := handler.NewRouter(cfg, logger, healthChecker, chatHandler, adminHandler)
	httpServer := server.NewHTTPServer(cfg, router)

	return NewApp(httpServer, logger, cfg, telemetryProvider, cacheStore, usageRepository, usageRecorder), nil
}
