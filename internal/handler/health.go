package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yx118/MoonTVPlus/internal/health"
)

// RegisterHealthRoutes registers liveness, readiness, and metrics
// endpoints.
func RegisterHealthRoutes(router *gin.Engine, checker *health.Checker) {
	router.GET("/health", func(c *gin.Context) {
		// Liveness stays shallow so flaky external backends cannot get
		// the pod restarted.
		payload := checker.Collect(c.Request.Context(), false)
		c.JSON(http.StatusOK, payload)
	})

	router.GET("/health/ready", func(c *gin.Context) {
		payload := checker.Collect(c.Request.Context(), true)
		status := http.StatusOK
		if payload.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, payload)
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
