package internal

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"gympass-checkin-backend/config"
	"gympass-checkin-backend/internal/api"
	"gympass-checkin-backend/internal/checkin"
	"gympass-checkin-backend/internal/gympass"
	"gympass-checkin-backend/internal/model"
	"gympass-checkin-backend/internal/policy"
	"gympass-checkin-backend/internal/store"
	"gympass-checkin-backend/internal/webhook"
)

// TestCheckInLifecycle wires the real router, store, evaluator and partner
// client together and walks one member through the whole flow: webhook
// announcement, successful QR validation, then a spam burst that trips the
// abuse policy.
func TestCheckInLifecycle(t *testing.T) {
	// In-memory database shared across connections.
	testDB, err := gorm.Open(sqlite.Open("file:integration?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, _ := testDB.DB()
	defer sqlDB.Close()
	require.NoError(t, testDB.AutoMigrate(&model.PendingCheckIn{}))

	// Fake partner API counting validation calls.
	var partnerCalls int64
	partner := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&partnerCalls, 1)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer partner.Close()

	cfg := &config.Config{
		Server: config.ServerConfig{
			RateLimitPerSec: 1000,
			RateLimitBurst:  1000,
		},
		App: config.AppConfig{PublicURL: "http://app.example"},
		Gympass: config.GympassConfig{
			APIKey:  "test-key",
			BaseURL: partner.URL,
			GymID:   42,
			Timeout: time.Second,
		},
		Policy: config.PolicyConfig{
			Mode:              config.PolicyModeWindow,
			FailMode:          config.FailOpen,
			MaxAttempts:       2,
			Window:            time.Minute,
			MaxUsersPerDevice: 3,
		},
		Webhook: config.WebhookConfig{Secret: "s3cret", WorkerPoolSize: 1},
	}

	pending := store.NewGormStore(testDB)
	evaluator := policy.NewWindowEvaluator(cfg.Policy.MaxAttempts, cfg.Policy.Window, cfg.Policy.MaxUsersPerDevice)
	gateway := gympass.NewClient(cfg.Gympass.BaseURL, cfg.Gympass.APIKey, cfg.Gympass.Timeout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool := webhook.NewWorkerPool(cfg.Webhook.WorkerPoolSize, pending)
	pool.Start(ctx)

	router := api.NewRouter(api.NewHandler(cfg, evaluator, gateway, pending, pool), cfg)

	// Step 1: Gympass announces the member's check-in via webhook.
	body := []byte(`{"user":{"id":"user-1"},"gym":{"id":42},"checkin":{"id":"chk-1"}}`)
	mac := hmac.New(sha256.New, []byte("s3cret"))
	mac.Write(body)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/gympass-webhook", bytes.NewReader(body))
	req.Header.Set("X-API-Signature", hex.EncodeToString(mac.Sum(nil)))
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// The worker persists the pending check-in asynchronously.
	assert.Eventually(t, func() bool {
		var rec model.PendingCheckIn
		return testDB.First(&rec, "user_id = ?", "user-1").Error == nil
	}, 2*time.Second, 10*time.Millisecond, "pending check-in was never stored")

	// Step 2: the member scans the QR code.
	checkIn := func(device string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/api/check-in/initiate-validation?gym_id=42", nil)
		req.Header.Set("X-User-ID", "user-1")
		req.Header.Set("X-Device-ID", device)
		router.ServeHTTP(w, req)
		return w
	}

	w = checkIn("dev-1")
	require.Equal(t, http.StatusFound, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "success", loc.Query().Get("status"))
	assert.EqualValues(t, 1, atomic.LoadInt64(&partnerCalls))

	// The successful validation consumed the pending entry.
	var rec model.PendingCheckIn
	assert.True(t, errors.Is(testDB.First(&rec, "user_id = ?", "user-1").Error, gorm.ErrRecordNotFound))

	// Step 3: the same device keeps scanning; the abuse policy steps in
	// before the partner is contacted again.
	w = checkIn("dev-1")
	loc, err = url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "success", loc.Query().Get("status"), "second attempt is still within the window limit")

	w = checkIn("dev-1")
	loc, err = url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "declined", loc.Query().Get("status"))
	assert.Equal(t, checkin.ErrAiRestriction.Message(), loc.Query().Get("message"))
	assert.EqualValues(t, 2, atomic.LoadInt64(&partnerCalls), "a policy decline must not reach the partner")
}

// TestSweeperPurgesStalePendingCheckIns runs the background sweeper against a
// real store and verifies stale rows disappear.
func TestSweeperPurgesStalePendingCheckIns(t *testing.T) {
	testDB, err := gorm.Open(sqlite.Open("file:sweeper?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, _ := testDB.DB()
	defer sqlDB.Close()
	require.NoError(t, testDB.AutoMigrate(&model.PendingCheckIn{}))

	pending := store.NewGormStore(testDB)
	require.NoError(t, pending.Upsert(context.Background(), model.PendingCheckIn{
		UserID: "user-1", GymID: 42, ReceivedAt: time.Now().UTC().Add(-time.Hour),
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go store.Sweep(ctx, pending, 20*time.Millisecond, 30*time.Minute)

	assert.Eventually(t, func() bool {
		var rec model.PendingCheckIn
		return errors.Is(testDB.First(&rec, "user_id = ?", "user-1").Error, gorm.ErrRecordNotFound)
	}, 2*time.Second, 10*time.Millisecond, "stale pending check-in was never purged")
}
