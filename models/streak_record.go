package models

import "time"

// StreakRecord tracks a user's consecutive-day activity streak.
// LastActiveDay is a day key ("2006-01-02"); empty means no activity yet.
type StreakRecord struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	CurrentStreak int       `gorm:"not null;default:0" json:"current_streak"`
	LongestStreak int       `gorm:"not null;default:0" json:"longest_streak"`
	LastActiveDay string    `gorm:"size:10" json:"last_active_day"`
	UpdatedAt     time.Time `json:"updated_at"`
	CreatedAt     time.Time `json:"created_at"`
}

func (StreakRecord) TableName() string {
	return "streak_records"
}
