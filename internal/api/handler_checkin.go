package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"gympass-checkin-backend/config"
	"gympass-checkin-backend/internal/checkin"
	"gympass-checkin-backend/internal/gympass"
	"gympass-checkin-backend/internal/metrics"
)

// InitiateValidation handles the GET /api/check-in/initiate-validation
// request: the URL a member's Gympass app hits after scanning the gym's QR
// code. Every failure becomes a declined redirect; the user is mid-scan and a
// 5xx would leave them staring at a broken page.
func (h *Handler) InitiateValidation(c *gin.Context) {
	if h.cfg.Gympass.APIKey == "" {
		logrus.Error("gympass api_key is not set; declining check-in")
		h.decline(c, checkin.ErrConfig)
		return
	}

	attempt, ok := extractAttempt(c)
	if !ok {
		h.decline(c, checkin.ErrMissingInfo)
		return
	}

	log := logrus.WithFields(logrus.Fields{
		"device_id": attempt.DeviceID,
		"user_id":   attempt.UserID,
		"gym_id":    attempt.GymID,
	})

	decision, err := h.evaluator.Evaluate(c.Request.Context(), attempt)
	switch {
	case err != nil && h.cfg.Policy.FailMode == config.FailClosed:
		log.WithError(err).Error("abuse policy evaluation failed; declining (fail_closed)")
		h.decline(c, checkin.ErrPolicyUnavailable)
		return
	case err != nil:
		log.WithError(err).Warn("abuse policy evaluation failed; proceeding with gympass validation (fail_open)")
	case !decision.Allowed:
		log.WithField("reason", decision.Reason).Info("check-in blocked by abuse policy")
		h.decline(c, checkin.ErrAiRestriction)
		return
	}

	result := h.gateway.Validate(c.Request.Context(), attempt.UserID, attempt.GymNumericID)
	metrics.GatewayResults.WithLabelValues(result.Outcome.String()).Inc()

	switch result.Outcome {
	case gympass.Approved:
		log.Info("gympass validation successful")
		h.consumePending(c, attempt.UserID)
		h.redirect(c, checkin.StatusSuccess, "")
	case gympass.Rejected:
		log.WithField("detail", result.Detail).Error("gympass validation rejected")
		h.decline(c, checkin.ErrGympassValidation)
	default:
		log.WithField("detail", result.Detail).Error("gympass api call failed")
		h.decline(c, checkin.ErrGympassAPI)
	}
}

// extractAttempt pulls the caller identity out of the request. The gym id
// comes from the query string, user and device ids from headers set by the
// scanning app. The timestamp is always the server's clock.
func extractAttempt(c *gin.Context) (checkin.Attempt, bool) {
	gymID := c.Query("gym_id")
	if gymID == "" {
		logrus.Warn("check-in request missing gym_id query parameter")
		return checkin.Attempt{}, false
	}

	userID := c.GetHeader("X-User-ID")
	deviceID := c.GetHeader("X-Device-ID")
	if userID == "" || deviceID == "" {
		logrus.Warn("check-in request missing X-User-ID or X-Device-ID header")
		return checkin.Attempt{}, false
	}

	gymNumericID, err := strconv.Atoi(gymID)
	if err != nil {
		logrus.WithField("gym_id", gymID).Warn("check-in request gym_id is not numeric")
		return checkin.Attempt{}, false
	}

	return checkin.Attempt{
		DeviceID:     deviceID,
		UserID:       userID,
		GymID:        gymID,
		GymNumericID: gymNumericID,
		Timestamp:    time.Now().UnixMilli(),
	}, true
}

// consumePending clears the user's webhook-announced pending check-in after a
// successful validation. Best-effort: a store failure must not undo an
// already-approved check-in.
func (h *Handler) consumePending(c *gin.Context, userID string) {
	if h.pending == nil {
		return
	}
	found, err := h.pending.Consume(c.Request.Context(), userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("failed to consume pending check-in")
		return
	}
	if found {
		logrus.WithField("user_id", userID).Info("pending check-in consumed")
	}
}

func (h *Handler) decline(c *gin.Context, kind checkin.ErrorKind) {
	h.redirect(c, checkin.StatusDeclined, kind)
}

func (h *Handler) redirect(c *gin.Context, status checkin.Status, kind checkin.ErrorKind) {
	metrics.CheckinOutcomes.WithLabelValues(string(status), string(kind)).Inc()
	c.Redirect(http.StatusFound, checkin.RedirectURL(h.cfg.App.PublicURL, status, kind))
}
