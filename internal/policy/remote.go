package policy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"gympass-checkin-backend/internal/checkin"
)

// RemoteEvaluator delegates the abuse decision to an external reasoning
// service. Any transport failure, non-200 status or malformed body is an
// evaluator error, never a decline by itself; the orchestrator's fail mode
// decides what happens next.
type RemoteEvaluator struct {
	url    string
	client *http.Client
}

// NewRemoteEvaluator creates an evaluator backed by the reasoning service at
// the given URL.
func NewRemoteEvaluator(url string, timeout time.Duration) *RemoteEvaluator {
	return &RemoteEvaluator{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type remoteRequest struct {
	DeviceID  string `json:"device_id"`
	UserID    string `json:"user_id"`
	GymID     string `json:"gym_id"`
	Timestamp int64  `json:"timestamp"`
}

type remoteResponse struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}

// Evaluate posts the attempt to the reasoning service and returns its verdict.
func (e *RemoteEvaluator) Evaluate(ctx context.Context, attempt checkin.Attempt) (checkin.Decision, error) {
	jsonBody, err := json.Marshal(remoteRequest{
		DeviceID:  attempt.DeviceID,
		UserID:    attempt.UserID,
		GymID:     attempt.GymID,
		Timestamp: attempt.Timestamp,
	})
	if err != nil {
		return checkin.Decision{}, fmt.Errorf("failed to marshal policy request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return checkin.Decision{}, fmt.Errorf("failed to create policy request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return checkin.Decision{}, fmt.Errorf("policy request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return checkin.Decision{}, fmt.Errorf("policy service returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return checkin.Decision{}, fmt.Errorf("failed to read policy response: %w", err)
	}

	var out remoteResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return checkin.Decision{}, fmt.Errorf("failed to unmarshal policy response: %w", err)
	}

	return checkin.Decision{Allowed: out.Allowed, Reason: out.Reason}, nil
}
