package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CheckInURL handles GET /api/checkin-url: the fully-formed check-in URL for
// the QR code renderer to encode.
func (h *Handler) CheckInURL(c *gin.Context) {
	if h.cfg.App.PublicURL == "" || h.cfg.Gympass.GymID == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "app public_url and gympass gym_id must be configured"})
		return
	}

	url := fmt.Sprintf("%s/api/check-in/initiate-validation?gym_id=%d",
		strings.TrimRight(h.cfg.App.PublicURL, "/"), h.cfg.Gympass.GymID)
	c.JSON(http.StatusOK, gin.H{"url": url})
}
