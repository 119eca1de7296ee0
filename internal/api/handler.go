package api

import (
	"context"

	"gympass-checkin-backend/config"
	"gympass-checkin-backend/internal/gympass"
	"gympass-checkin-backend/internal/policy"
	"gympass-checkin-backend/internal/store"
	"gympass-checkin-backend/internal/webhook"
)

// Gateway is the partner validation call as the handlers consume it.
type Gateway interface {
	Validate(ctx context.Context, userID string, gymID int) gympass.Result
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	cfg       *config.Config
	evaluator policy.Evaluator
	gateway   Gateway
	pending   store.Store
	pool      *webhook.WorkerPool
}

// NewHandler creates a new API handler.
func NewHandler(cfg *config.Config, evaluator policy.Evaluator, gateway Gateway, pending store.Store, pool *webhook.WorkerPool) *Handler {
	return &Handler{
		cfg:       cfg,
		evaluator: evaluator,
		gateway:   gateway,
		pending:   pending,
		pool:      pool,
	}
}
