package handler

import (
	"log/slog"
	"strings"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yx118/MoonTVPlus/internal/config"
	"github.com/yx118/MoonTVPlus/internal/health"
	"github.com/yx118/MoonTVPlus/internal/middleware"
)

// NewRouter wires the middleware chain and routes.
func NewRouter(
	cfg *config.Config,
	logger *slog.Logger,
	healthChecker *health.Checker,
	chatHandler *ChatHandler,
	adminHandler *AdminHandler,
) *gin.Engine {
	setGinMode(cfg.Logging.Level)

	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(logger),
		gin.Recovery(),
	)
	if cfg.Telemetry.Enabled {
		router.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
	}
	router.Use(
		// The chat endpoint streams SSE; compressing it would buffer
		// deltas until the response ends.
		gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/api/ai/chat"})),
		middleware.SessionAuth(cfg.Auth.JWTSecret),
		middleware.RateLimit(cfg),
	)

	RegisterHealthRoutes(router, healthChecker)
	chatHandler.RegisterRoutes(router)
	adminHandler.RegisterRoutes(router)

	return router
}

func setGinMode(level string) {
	if strings.EqualFold(strings.TrimSpace(level), "debug") {
		gin.SetMode(gin.DebugMode)
		return
	}
	gin.SetMode(gin.ReleaseMode)
}
