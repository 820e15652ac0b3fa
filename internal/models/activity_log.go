package models

import "time"

// ActivityLog is the append-only audit trail for ticket actions.
type ActivityLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserName  string    `gorm:"size:255;not null;index" json:"user_name"`
	UserEmail string    `gorm:"size:255;not null" json:"user_email"`
	TicketKey string    `gorm:"size:100;not null;index" json:"ticket_key"`
	Action    string    `gorm:"size:100;not null;index" json:"action"`
	Label     string    `gorm:"size:255;default:''" json:"label"`
	Comment   string    `gorm:"type:text" json:"comment"`
	Details   string    `gorm:"type:text" json:"details"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (ActivityLog) TableName() string { return "activity_logs" }
