// Package gympass is the client for the Gympass partner access-control API.
package gympass

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Outcome classifies the partner's answer to a validation call.
type Outcome int

const (
	// Approved means the partner accepted the check-in (any 2xx status).
	Approved Outcome = iota
	// Rejected means the partner deliberately refused it (any non-2xx status).
	Rejected
	// TransportError means the partner was unreachable or the call failed
	// before a status could be read.
	TransportError
)

// String returns the outcome label used in logs and metrics.
func (o Outcome) String() string {
	switch o {
	case Approved:
		return "approved"
	case Rejected:
		return "rejected"
	default:
		return "transport_error"
	}
}

// Result is the classified answer of one validation call. Detail carries the
// raw diagnostic (status code and body, or the transport error) for logging
// only; it is never surfaced to the end user.
type Result struct {
	Outcome Outcome
	Detail  string
}

// Client calls the partner validation endpoint. Exactly one outbound call is
// made per Validate; retries are the caller's policy.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient creates a validation client. The timeout bounds the whole call;
// this client sits on the synchronous path serving a user mid-QR-scan.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type validateRequest struct {
	UserID string `json:"user_id"`
	GymID  int    `json:"gym_id"`
}

// Validate sends the user and numeric gym id to the partner's access-control
// endpoint and classifies the response.
func (c *Client) Validate(ctx context.Context, userID string, gymID int) Result {
	jsonBody, err := json.Marshal(validateRequest{UserID: userID, GymID: gymID})
	if err != nil {
		return Result{Outcome: TransportError, Detail: fmt.Sprintf("failed to marshal request: %v", err)}
	}

	url := c.baseURL + "/v1/access-control/validate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return Result{Outcome: TransportError, Detail: fmt.Sprintf("failed to create request: %v", err)}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{Outcome: TransportError, Detail: fmt.Sprintf("http request failed: %v", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{Outcome: TransportError, Detail: fmt.Sprintf("failed to read response body: %v", err)}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		// Status-only classification: the sandbox returns bare 2xx answers.
		return Result{Outcome: Approved}
	}
	return Result{Outcome: Rejected, Detail: fmt.Sprintf("%d: %s", resp.StatusCode, body)}
}
