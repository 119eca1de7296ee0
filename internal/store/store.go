package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gympass-checkin-backend/internal/model"
)

// Store defines the pending check-in persistence operations.
type Store interface {
	// Upsert records a pending check-in, replacing any previous one for the
	// same user.
	Upsert(ctx context.Context, rec model.PendingCheckIn) error
	// Consume removes the user's pending check-in if one exists and reports
	// whether it was found.
	Consume(ctx context.Context, userID string) (bool, error)
	// PurgeExpired deletes pending check-ins received before the given time
	// and returns how many were removed.
	PurgeExpired(ctx context.Context, olderThan time.Time) (int64, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Upsert(ctx context.Context, rec model.PendingCheckIn) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"gym_id", "checkin_id", "event_id", "received_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to upsert pending check-in for user %s: %w", rec.UserID, err)
	}
	return nil
}

func (s *gormStore) Consume(ctx context.Context, userID string) (bool, error) {
	found := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec model.PendingCheckIn
		if err := tx.First(&rec, "user_id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if err := tx.Delete(&model.PendingCheckIn{}, "user_id = ?", userID).Error; err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to consume pending check-in for user %s: %w", userID, err)
	}
	return found, nil
}

func (s *gormStore) PurgeExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("received_at < ?", olderThan).Delete(&model.PendingCheckIn{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge expired pending check-ins: %w", res.Error)
	}
	return res.RowsAffected, nil
}
