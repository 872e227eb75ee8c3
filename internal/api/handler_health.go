package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const pingTimeout = 2 * time.Second

func (h *Handler) ping(c *gin.Context) error {
	ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
	defer cancel()

	err := h.store.Ping(ctx)
	h.metrics.SetStoreUp(err == nil)
	if err != nil {
		log.Warn().Err(err).Msg("database ping failed")
	}
	return err
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	if err := h.ping(c); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": "disconnected"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "connected"})
}

// Ready handles GET /ready.
func (h *Handler) Ready(c *gin.Context) {
	if err := h.ping(c); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ready": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ready": true})
}

// Landing handles GET /.
func (h *Handler) Landing(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", landingPage)
}
