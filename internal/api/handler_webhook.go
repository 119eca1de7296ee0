package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"gympass-checkin-backend/internal/metrics"
	"gympass-checkin-backend/internal/webhook"
)

// webhookPayload models the check-in event Gympass delivers.
type webhookPayload struct {
	User struct {
		ID string `json:"id"`
	} `json:"user"`
	Gym struct {
		ID int `json:"id"`
	} `json:"gym"`
	Checkin struct {
		ID string `json:"id"`
	} `json:"checkin"`
}

// GympassWebhook handles POST /gympass-webhook. Semantically unusable events
// (wrong gym, missing fields) are still acknowledged with 200 so Gympass does
// not retry them; only a bad signature or unreadable body is refused. Valid
// events are queued for the worker pool and acknowledged immediately.
func (h *Handler) GympassWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	if h.cfg.Webhook.Secret == "" {
		logrus.Warn("webhook secret is not set; skipping signature verification")
	} else {
		signature := c.GetHeader("X-API-Signature")
		if signature == "" || !verifySignature(body, signature, h.cfg.Webhook.Secret) {
			logrus.Warn("webhook signature verification failed or signature missing")
			metrics.WebhookEvents.WithLabelValues("bad_signature").Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		metrics.WebhookEvents.WithLabelValues("bad_json").Inc()
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	if payload.User.ID == "" {
		logrus.Warn("webhook payload missing user id")
		metrics.WebhookEvents.WithLabelValues("missing_fields").Inc()
		c.JSON(http.StatusOK, gin.H{"message": "webhook data missing required fields"})
		return
	}
	if payload.Gym.ID != h.cfg.Gympass.GymID {
		logrus.WithFields(logrus.Fields{
			"webhook_gym_id":    payload.Gym.ID,
			"configured_gym_id": h.cfg.Gympass.GymID,
		}).Warn("webhook received for a different gym")
		metrics.WebhookEvents.WithLabelValues("wrong_gym").Inc()
		c.JSON(http.StatusOK, gin.H{"message": "webhook received for a different gym"})
		return
	}

	h.pool.Dispatch(webhook.Event{
		EventID:    uuid.NewString(),
		UserID:     payload.User.ID,
		GymID:      payload.Gym.ID,
		CheckinID:  payload.Checkin.ID,
		ReceivedAt: time.Now().UTC(),
	})
	metrics.WebhookEvents.WithLabelValues("accepted").Inc()
	c.JSON(http.StatusOK, gin.H{"message": "webhook received and processed"})
}

// verifySignature checks the hex HMAC-SHA256 of the raw payload against the
// X-API-Signature header value.
func verifySignature(payload []byte, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}
