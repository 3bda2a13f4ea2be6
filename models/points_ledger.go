package models

import "time"

// PointsLedger accumulates the points awarded to one user on one calendar day.
// Exactly one row exists per (user_id, day_key); rows are never deleted.
type PointsLedger struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;uniqueIndex:idx_user_day,priority:1" json:"user_id"`
	DayKey        string    `gorm:"size:10;not null;uniqueIndex:idx_user_day,priority:2" json:"day_key"`
	PointsAwarded int       `gorm:"not null;default:0" json:"points_awarded"`
	UpdatedAt     time.Time `json:"updated_at"`
	CreatedAt     time.Time `json:"created_at"`
}

func (PointsLedger) TableName() string {
	return "points_ledger"
}
