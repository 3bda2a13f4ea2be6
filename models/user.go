package models

import "time"

// User is the leaderboard read model. Identity issuance lives in the external
// auth service; this table only mirrors what reporting needs.
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Username    string    `gorm:"size:64;not null" json:"username"`
	TotalPoints int       `gorm:"default:0;index" json:"total_points"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
