package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yx118/MoonTVPlus/internal/handler/shared"
	"github.com/yx118/MoonTVPlus/internal/httperror"
	"github.com/yx118/MoonTVPlus/internal/metrics"
	"github.com/yx118/MoonTVPlus/internal/middleware"
	"github.com/yx118/MoonTVPlus/internal/usage"
)

// AdminHandler serves usage accounting and runtime statistics to
// elevated users.
type AdminHandler struct {
	store  usage.Store
	stats  *metrics.Store
	logger *slog.Logger
}

// NewAdminHandler builds the admin handler. store is nil when usage
// accounting is not configured.
func NewAdminHandler(store usage.Store, stats *metrics.Store, logger *slog.Logger) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandler{store: store, stats: stats, logger: logger}
}

// RegisterRoutes registers the admin routes.
func (h *AdminHandler) RegisterRoutes(router *gin.Engine) {
	group := router.Group("/api/admin", h.requireElevated)
	group.GET("/usage", h.handleUsage)
	group.GET("/stats", h.handleStats)
}

func (h *AdminHandler) requireElevated(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		status, payload := httperror.Response(httperror.NewUnauthorized(""))
		c.AbortWithStatusJSON(status, payload)
		return
	}
	if !claims.Elevated() {
		status, payload := httperror.Response(httperror.NewForbidden(""))
		c.AbortWithStatusJSON(status, payload)
		return
	}
	c.Next()
}

type usageResponse struct {
	Daily []usage.DailyUsage `json:"daily"`
	Total usage.DailyUsage   `json:"total"`
}

func (h *AdminHandler) handleUsage(c *gin.Context) {
	if h.store == nil {
		shared.WriteError(c, httperror.NewBadConfig("usage accounting is not configured"))
		return
	}

	days := 7
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 365 {
			shared.WriteError(c, httperror.NewInvalidInput("days must be between 1 and 365"))
			return
		}
		days = parsed
	}

	daily, err := h.store.GetRecentUsage(c.Request.Context(), days)
	if err != nil {
		h.logger.Error("usage_query_failed", "err", err)
		shared.WriteError(c, err)
		return
	}
	total, err := h.store.GetTotalUsage(c.Request.Context(), days)
	if err != nil {
		h.logger.Error("usage_query_failed", "err", err)
		shared.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, usageResponse{Daily: daily, Total: total})
}

func (h *AdminHandler) handleStats(c *gin.Context) {
	if h.stats == nil {
		c.JSON(http.StatusOK, map[string]float64{})
		return
	}
	c.JSON(http.StatusOK, h.stats.Snapshot())
}
