// Package webhook processes Gympass webhook events off the request path.
package webhook

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"gympass-checkin-backend/internal/model"
	"gympass-checkin-backend/internal/store"
)

// Event is one verified webhook delivery queued for persistence.
type Event struct {
	EventID    string
	UserID     string
	GymID      int
	CheckinID  string
	ReceivedAt time.Time
}

// WorkerPool persists webhook events in the background so the webhook
// endpoint can acknowledge Gympass immediately and avoid delivery retries.
type WorkerPool struct {
	size    int
	jobs    chan Event
	pending store.Store
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, pending store.Store) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Event, size),
		pending: pending,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	logrus.Debugf("webhook worker %d started", id)
	for {
		select {
		case ev := <-wp.jobs:
			wp.persist(ctx, ev)
		case <-ctx.Done():
			logrus.Debugf("webhook worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues an event for persistence.
func (wp *WorkerPool) Dispatch(ev Event) {
	wp.jobs <- ev
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan Event {
	return wp.jobs
}

func (wp *WorkerPool) persist(ctx context.Context, ev Event) {
	log := logrus.WithFields(logrus.Fields{
		"event_id": ev.EventID,
		"user_id":  ev.UserID,
		"gym_id":   ev.GymID,
	})

	err := wp.pending.Upsert(ctx, model.PendingCheckIn{
		UserID:     ev.UserID,
		GymID:      ev.GymID,
		CheckinID:  ev.CheckinID,
		EventID:    ev.EventID,
		ReceivedAt: ev.ReceivedAt,
	})
	if err != nil {
		log.WithError(err).Error("failed to store pending check-in")
		return
	}
	log.Info("stored pending check-in")
}
