package services

import (
	"errors"
	"fmt"

	"github.com/tickettractor/backend/internal/models"
	"github.com/tickettractor/backend/pkg/response"
	"gorm.io/gorm"
)

// AssigneeService manages the local roster of assignable users.
type AssigneeService struct {
	db    *gorm.DB
	audit *AuditService
}

func NewAssigneeService(db *gorm.DB, audit *AuditService) *AssigneeService {
	return &AssigneeService{db: db, audit: audit}
}

type CreateAssigneeRequest struct {
	DisplayName string `json:"display_name" binding:"required"`
	Username    string `json:"username" binding:"required"`
	Email       string `json:"email" binding:"required"`
}

// List returns all active roster entries ordered by display name.
func (s *AssigneeService) List() ([]models.AssigneeUser, error) {
	var users []models.AssigneeUser
	if err := s.db.Where("is_active = ?", true).
		Order("display_name").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Create adds a roster entry. Duplicate usernames conflict.
func (s *AssigneeService) Create(req *CreateAssigneeRequest, actor models.UserInfo) (*models.AssigneeUser, error) {
	var existing models.AssigneeUser
	err := s.db.Where("username = ?", req.Username).First(&existing).Error
	if err == nil {
		return nil, response.NewConflict(fmt.Sprintf("user %q already exists", req.Username))
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user := models.AssigneeUser{
		DisplayName: req.DisplayName,
		Username:    req.Username,
		Email:       req.Email,
		IsActive:    true,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}

	s.audit.Record(AuditEntry{
		UserName:  actor.DisplayName,
		UserEmail: actor.Email,
		TicketKey: "—",
		Action:    ActionUserAdded,
		Details:   fmt.Sprintf("Added assignee user: %s (%s) <%s>", req.DisplayName, req.Username, req.Email),
	})
	return &user, nil
}

// Delete removes a roster entry by id.
func (s *AssigneeService) Delete(id uint, actor models.UserInfo) error {
	var user models.AssigneeUser
	err := s.db.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NewNotFound("user not found")
	}
	if err != nil {
		return err
	}

	if err := s.db.Delete(&user).Error; err != nil {
		return err
	}

	s.audit.Record(AuditEntry{
		UserName:  actor.DisplayName,
		UserEmail: actor.Email,
		TicketKey: "—",
		Action:    ActionUserRemoved,
		Details:   fmt.Sprintf("Removed assignee user: %s (%s)", user.DisplayName, user.Username),
	})
	return nil
}
