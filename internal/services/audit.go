package services

import (
	"time"

	"github.com/tickettractor/backend/internal/models"
	"github.com/tickettractor/backend/pkg/logger"
	"gorm.io/gorm"
)

// Audit action kinds recorded by this system.
const (
	ActionLabelUpdate    = "label_update"
	ActionLabelFailed    = "label_failed"
	ActionAssigneeUpdate = "assignee_update"
	ActionAssigneeFailed = "assignee_failed"
	ActionCommentAdded   = "comment_added"
	ActionUserAdded      = "user_added"
	ActionUserRemoved    = "user_removed"
)

// AuditService appends to and queries the activity log.
type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// AuditEntry is one action to record.
type AuditEntry struct {
	UserName  string
	UserEmail string
	TicketKey string
	Action    string
	Label     string
	Comment   string
	Details   string
}

// Record appends an entry. Best-effort: a failed write is logged locally and
// never propagated, so audit problems cannot fail the action they describe.
func (s *AuditService) Record(entry AuditEntry) {
	row := models.ActivityLog{
		UserName:  entry.UserName,
		UserEmail: entry.UserEmail,
		TicketKey: entry.TicketKey,
		Action:    entry.Action,
		Label:     entry.Label,
		Comment:   entry.Comment,
		Details:   entry.Details,
	}
	if err := s.db.Create(&row).Error; err != nil {
		logger.Warn().Err(err).Str("action", entry.Action).Msg("audit write failed")
		return
	}
	logger.Info().
		Str("user", entry.UserName).
		Str("action", entry.Action).
		Str("ticket", entry.TicketKey).
		Str("label", entry.Label).
		Msg("audit")
}

// HistoryResponse is a page of audit entries plus the unpaginated total.
type HistoryResponse struct {
	Entries []models.ActivityLog `json:"entries"`
	Total   int64                `json:"total"`
}

// History returns entries newest-first, optionally filtered by action kind.
func (s *AuditService) History(limit, offset int, action string) (*HistoryResponse, error) {
	if limit <= 0 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}

	query := s.db.Model(&models.ActivityLog{})
	if action != "" {
		query = query.Where("action = ?", action)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var entries []models.ActivityLog
	if err := query.Order("created_at DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, err
	}

	return &HistoryResponse{Entries: entries, Total: total}, nil
}

// DeleteOlderThanDays prunes entries past the retention window. Returns the
// number removed.
func (s *AuditService) DeleteOlderThanDays(days int) (int64, error) {
	if days <= 0 {
		return 0, nil
	}
	cutoff := time.Now().AddDate(0, 0, -days)
	result := s.db.Where("created_at < ?", cutoff).Delete(&models.ActivityLog{})
	return result.RowsAffected, result.Error
}
