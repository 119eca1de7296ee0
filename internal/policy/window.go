package policy

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"gympass-checkin-backend/internal/checkin"
)

// WindowEvaluator is the deterministic sliding-window evaluator. It denies a
// device that attempts check-in more than maxAttempts times within the rolling
// window, and a device seen with more than maxUsers distinct user ids inside
// that window (one handset rotating through accounts).
//
// Per-device records live in a TTL cache so idle devices are evicted and
// memory stays bounded. Each record carries its own mutex; concurrent attempts
// from unrelated devices never contend.
type WindowEvaluator struct {
	maxAttempts int
	window      time.Duration
	maxUsers    int
	devices     *cache.Cache

	// now is replaceable in tests.
	now func() time.Time
}

type deviceRecord struct {
	mu       sync.Mutex
	attempts []time.Time
	users    map[string]time.Time
}

// NewWindowEvaluator creates a sliding-window evaluator.
func NewWindowEvaluator(maxAttempts int, window time.Duration, maxUsers int) *WindowEvaluator {
	return &WindowEvaluator{
		maxAttempts: maxAttempts,
		window:      window,
		maxUsers:    maxUsers,
		devices:     cache.New(2*window, 2*window),
		now:         time.Now,
	}
}

// Evaluate records the attempt and returns the verdict. Every attempt is
// recorded, including denied ones, so a burst keeps counting against the
// device; earlier verdicts are never cached or replayed.
func (e *WindowEvaluator) Evaluate(_ context.Context, attempt checkin.Attempt) (checkin.Decision, error) {
	rec := e.record(attempt.DeviceID)

	rec.mu.Lock()
	defer rec.mu.Unlock()

	now := e.now()
	cutoff := now.Add(-e.window)

	kept := rec.attempts[:0]
	for _, t := range rec.attempts {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	rec.attempts = append(kept, now)
	for user, seen := range rec.users {
		if !seen.After(cutoff) {
			delete(rec.users, user)
		}
	}
	rec.users[attempt.UserID] = now

	// Keep the record alive as long as the device stays active.
	e.devices.Set(attempt.DeviceID, rec, cache.DefaultExpiration)

	if len(rec.users) > e.maxUsers {
		return checkin.Decision{
			Allowed: false,
			Reason:  fmt.Sprintf("device %s used by %d distinct users within %s", attempt.DeviceID, len(rec.users), e.window),
		}, nil
	}
	if len(rec.attempts) > e.maxAttempts {
		return checkin.Decision{
			Allowed: false,
			Reason:  fmt.Sprintf("rate limit exceeded: %d attempts within %s from device %s", len(rec.attempts), e.window, attempt.DeviceID),
		}, nil
	}
	return checkin.Decision{Allowed: true}, nil
}

// record returns the live record for a device, creating one if needed. Add is
// atomic in go-cache, so a racing creator loses and re-reads the winner.
func (e *WindowEvaluator) record(deviceID string) *deviceRecord {
	for {
		if v, ok := e.devices.Get(deviceID); ok {
			return v.(*deviceRecord)
		}
		rec := &deviceRecord{users: make(map[string]time.Time)}
		if err := e.devices.Add(deviceID, rec, cache.DefaultExpiration); err == nil {
			return rec
		}
	}
}
