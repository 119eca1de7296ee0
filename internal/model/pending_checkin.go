package model

import "time"

// PendingCheckIn is a check-in announced by a Gympass webhook that has not
// been validated at the turnstile yet. One row per user; a newer webhook for
// the same user replaces the old one. Rows are deleted on successful
// validation and swept once they exceed the pending TTL.
type PendingCheckIn struct {
	UserID     string    `gorm:"primaryKey" json:"user_id"`
	GymID      int       `json:"gym_id"`
	CheckinID  string    `json:"checkin_id"`
	EventID    string    `json:"event_id"`
	ReceivedAt time.Time `json:"received_at"`
}
