package di

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/yx118/MoonTVPlus/internal/cache"
	"github.com/yx118/MoonTVPlus/internal/config"
	"github.com/yx118/MoonTVPlus/internal/telemetry"
	"github.com/yx118/MoonTVPlus/internal/usage"
)

// App bundles the application components.
type App struct {
	Server          *http.Server
	Logger          *slog.Logger
	Config          *config.Config
	Telemetry       *telemetry.Provider
	CacheStore      *cache.Store
	UsageRepository *usage.Repository
	UsageRecorder   *usage.Recorder
}

// NewApp creates the App instance.
func NewApp(
	server *http.Server,
	logger *slog.Logger,
	cfg *config.Config,
	telemetryProvider *telemetry.Provider,
	cacheStore *cache.Store,
	usageRepository *usage.Repository,
	usageRecorder *usage.Recorder,
) *App {
	return &App{
		Server:          server,
		Logger:          logger,
		Config:          cfg,
		Telemetry:       telemetryProvider,
		CacheStore:      cacheStore,
		UsageRepository: usageRepository,
		UsageRecorder:   usageRecorder,
	}
}

// Close releases app resources.
func (a *App) Close() {
	if a.UsageRecorder != nil {
		a.UsageRecorder.Close()
	}
	if a.CacheStore != nil {
		a.CacheStore.Close()
	}
	if a.Telemetry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.Telemetry.Shutdown(ctx); err != nil && a.Logger != nil {
			a.Logger.Warn("telemetry_shutdown_failed", "err", err)
		}
	}
}
