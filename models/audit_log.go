package models

import "time"

// AuditLog is an append-only record of a state-changing decision.
type AuditLog struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	Action     string    `gorm:"size:64;index;not null" json:"action"`
	Resource   string    `gorm:"size:64;not null" json:"resource"`
	ResourceID string    `gorm:"size:64" json:"resource_id"`
	Details    string    `gorm:"type:text" json:"details"`
	ActorID    uint      `gorm:"index" json:"actor_id"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
