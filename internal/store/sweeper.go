package store

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Sweep periodically purges pending check-ins older than maxAge until the
// context is cancelled. A webhook entry the user never validated at the
// turnstile would otherwise sit in the table forever.
func Sweep(ctx context.Context, s Store, interval, maxAge time.Duration) {
	logrus.WithField("interval", interval).Info("pending check-in sweeper started")

	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logrus.Info("pending check-in sweeper shutting down")
			return
		case <-timer.C:
			purged, err := s.PurgeExpired(ctx, time.Now().UTC().Add(-maxAge))
			if err != nil {
				logrus.WithError(err).Error("failed to purge expired pending check-ins")
			} else if purged > 0 {
				logrus.WithField("purged", purged).Info("purged expired pending check-ins")
			}
			timer.Reset(interval)
		}
	}
}
