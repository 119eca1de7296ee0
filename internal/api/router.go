package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"gympass-checkin-backend/config"
	"gympass-checkin-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, cfg *config.Config) *gin.Engine {
	r := gin.Default()

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Gympass delivers webhooks from its own egress IPs; the per-client
	// limiter guards the member-facing routes only.
	r.POST("/gympass-webhook", h.GympassWebhook)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst, cfg.Server.RequestIPHeader)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/check-in/initiate-validation", h.InitiateValidation)
		api.GET("/checkin-url", h.CheckInURL)
	}

	return r
}
