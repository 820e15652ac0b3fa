package models

import "time"

// AssigneeUser is a roster entry of people tickets can be assigned to. The
// email is the fallback key for resolving a Jira account id when the request
// does not carry one directly.
type AssigneeUser struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	DisplayName string    `gorm:"size:255;not null" json:"display_name"`
	Username    string    `gorm:"uniqueIndex;size:100;not null" json:"username"`
	Email       string    `gorm:"size:255;not null;default:''" json:"email"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

func (AssigneeUser) TableName() string { return "assignee_users" }
