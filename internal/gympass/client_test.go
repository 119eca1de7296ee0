package gympass

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateApprovedOn200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/access-control/validate", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body validateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "user-1", body.UserID)
		assert.Equal(t, 42, body.GymID)

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewClient(server.URL, "test-key", time.Second)
	res := c.Validate(context.Background(), "user-1", 42)
	assert.Equal(t, Approved, res.Outcome)
}

func TestValidateApprovedOnAny2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	c := NewClient(server.URL, "test-key", time.Second)
	res := c.Validate(context.Background(), "user-1", 42)
	assert.Equal(t, Approved, res.Outcome)
}

func TestValidateRejectedCapturesDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"no active check-in"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "test-key", time.Second)
	res := c.Validate(context.Background(), "user-1", 42)
	assert.Equal(t, Rejected, res.Outcome)
	assert.Contains(t, res.Detail, "403")
	assert.Contains(t, res.Detail, "no active check-in")
}

func TestValidateTransportErrorWhenUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // Connection refused from here on.

	c := NewClient(server.URL, "test-key", time.Second)
	res := c.Validate(context.Background(), "user-1", 42)
	assert.Equal(t, TransportError, res.Outcome)
	assert.NotEmpty(t, res.Detail)
}

func TestValidateTransportErrorOnTimeout(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer server.Close()
	defer close(block)

	c := NewClient(server.URL, "test-key", 50*time.Millisecond)
	res := c.Validate(context.Background(), "user-1", 42)
	assert.Equal(t, TransportError, res.Outcome)
}
