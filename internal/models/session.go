package models

import "time"

// Session is one authenticated Atlassian OAuth grant. The opaque SessionID is
// the only thing the client-held handle references; Jira credentials never
// leave the server.
type Session struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	SessionID    string `gorm:"uniqueIndex;size:128;not null" json:"session_id"`
	AccessToken  string `gorm:"type:text;not null" json:"-"`
	RefreshToken string `gorm:"type:text" json:"-"`
	CloudID      string `gorm:"size:100;not null" json:"cloud_id"`
	// ExpiresAt reflects the last successful token issuance or refresh
	// (unix seconds). A session without a refresh token is permanently
	// invalid once this passes.
	ExpiresAt int64 `gorm:"not null" json:"expires_at"`
	CreatedAt int64 `gorm:"not null;index" json:"created_at"`

	// User profile captured at login, stored structured so it is not
	// re-parsed per request.
	AccountID   string `gorm:"size:128" json:"account_id"`
	DisplayName string `gorm:"size:255" json:"display_name"`
	Email       string `gorm:"size:255" json:"email"`
	AvatarURL   string `gorm:"size:500" json:"avatar_url"`
}

func (Session) TableName() string { return "sessions" }

// UserInfo is the profile slice of a session handed to callers.
type UserInfo struct {
	AccountID   string `json:"account_id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	AvatarURL   string `json:"avatar_url"`
}

func (s *Session) UserInfo() UserInfo {
	return UserInfo{
		AccountID:   s.AccountID,
		DisplayName: s.DisplayName,
		Email:       s.Email,
		AvatarURL:   s.AvatarURL,
	}
}

// TokenExpiresWithin reports whether the access token expires within margin.
func (s *Session) TokenExpiresWithin(now time.Time, margin time.Duration) bool {
	return now.Unix() > s.ExpiresAt-int64(margin.Seconds())
}
