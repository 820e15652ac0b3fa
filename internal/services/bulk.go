package services

import (
	"fmt"
	"strings"

	"github.com/tickettractor/backend/internal/models"
	"github.com/tickettractor/backend/internal/services/jira"
	"gorm.io/gorm"
)

// Label conflict policies for bulk ticket updates.
const (
	LabelActionAdd     = "add"
	LabelActionReplace = "replace"
	LabelActionSkip    = "skip"
)

// BulkService applies batches of ticket mutations. Items are processed
// sequentially and independently: one item's failure is captured in its own
// result and never aborts the siblings.
type BulkService struct {
	db    *gorm.DB
	jira  *jira.Client
	audit *AuditService
}

func NewBulkService(db *gorm.DB, jiraClient *jira.Client, audit *AuditService) *BulkService {
	return &BulkService{db: db, jira: jiraClient, audit: audit}
}

// --- Label check ---

type LabelCheckItem struct {
	TicketKey  string `json:"ticket_key" binding:"required"`
	Stage      string `json:"stage" binding:"required"`
	Flow       string `json:"flow" binding:"required"`
	Result     string `json:"result" binding:"required"`
	FailingCmd string `json:"failing_cmd"`
}

type LabelCheckResult struct {
	TicketKey             string   `json:"ticket_key"`
	NewLabel              string   `json:"new_label"`
	ExistingResultsLabels []string `json:"existing_results_labels"`
	HasConflict           bool     `json:"has_conflict"`
}

// CheckLabels reports, per ticket, whether the label the request would build
// already exists byte-for-byte. Lookup failures degrade to "no conflict" so a
// single unreachable ticket does not block the check for the rest.
func (s *BulkService) CheckLabels(creds *Credentials, items []LabelCheckItem) []LabelCheckResult {
	results := make([]LabelCheckResult, 0, len(items))
	for _, item := range items {
		newLabel := jira.BuildLabel(item.Stage, item.Flow, item.Result, item.FailingCmd)

		existing, err := s.jira.GetResultsLabels(creds.CloudID, creds.AccessToken, item.TicketKey)
		if err != nil {
			results = append(results, LabelCheckResult{
				TicketKey:             item.TicketKey,
				NewLabel:              newLabel,
				ExistingResultsLabels: []string{},
			})
			continue
		}

		conflict := false
		for _, label := range existing {
			if label == newLabel {
				conflict = true
				break
			}
		}
		results = append(results, LabelCheckResult{
			TicketKey:             item.TicketKey,
			NewLabel:              newLabel,
			ExistingResultsLabels: existing,
			HasConflict:           conflict,
		})
	}
	return results
}

// --- Bulk label update ---

type TicketUpdateItem struct {
	TicketKey  string `json:"ticket_key" binding:"required"`
	Stage      string `json:"stage" binding:"required"`
	Flow       string `json:"flow" binding:"required"`
	Result     string `json:"result" binding:"required"`
	FailingCmd string `json:"failing_cmd"`
	Comment    string `json:"comment"`
	// LabelAction is the conflict policy: add, replace, or skip.
	LabelAction string `json:"label_action" binding:"omitempty,oneof=add replace skip"`
}

type TicketUpdateResult struct {
	TicketKey    string `json:"ticket_key"`
	Success      bool   `json:"success"`
	LabelApplied string `json:"label_applied,omitempty"`
	CommentAdded bool   `json:"comment_added"`
	Error        string `json:"error,omitempty"`
}

// BulkUpdateResponse aggregates per-item results.
// Successful+Failed == Total always.
type BulkUpdateResponse struct {
	Results    []TicketUpdateResult `json:"results"`
	Total      int                  `json:"total"`
	Successful int                  `json:"successful"`
	Failed     int                  `json:"failed"`
}

// UpdateTickets applies label changes and optional comments to each ticket in
// order.
func (s *BulkService) UpdateTickets(creds *Credentials, items []TicketUpdateItem) *BulkUpdateResponse {
	results := make([]TicketUpdateResult, 0, len(items))
	successful := 0
	for _, item := range items {
		result := s.updateOneTicket(creds, item)
		if result.Success {
			successful++
		}
		results = append(results, result)
	}
	return &BulkUpdateResponse{
		Results:    results,
		Total:      len(results),
		Successful: successful,
		Failed:     len(results) - successful,
	}
}

func (s *BulkService) updateOneTicket(creds *Credentials, item TicketUpdateItem) TicketUpdateResult {
	newLabel := jira.BuildLabel(item.Stage, item.Flow, item.Result, item.FailingCmd)

	labelApplied := ""
	if item.LabelAction != LabelActionSkip {
		currentLabels, err := s.jira.GetIssueLabels(creds.CloudID, creds.AccessToken, item.TicketKey)
		if err != nil {
			return s.failTicket(creds, item.TicketKey, ActionLabelFailed, err)
		}

		var updated []string
		switch item.LabelAction {
		case LabelActionReplace:
			// Drop every results label, then append the new one.
			for _, label := range currentLabels {
				if !strings.HasPrefix(label, jira.ResultsLabelPrefix) {
					updated = append(updated, label)
				}
			}
			updated = append(updated, newLabel)
		default: // add
			updated = append(updated, currentLabels...)
			exists := false
			for _, label := range currentLabels {
				if label == newLabel {
					exists = true
					break
				}
			}
			if !exists {
				updated = append(updated, newLabel)
			}
		}

		if err := s.jira.UpdateIssueLabels(creds.CloudID, creds.AccessToken, item.TicketKey, updated); err != nil {
			return s.failTicket(creds, item.TicketKey, ActionLabelFailed, err)
		}
		labelApplied = newLabel

		s.audit.Record(AuditEntry{
			UserName:  creds.UserInfo.DisplayName,
			UserEmail: creds.UserInfo.Email,
			TicketKey: item.TicketKey,
			Action:    ActionLabelUpdate,
			Label:     newLabel,
			Details:   "policy=" + labelPolicy(item.LabelAction),
		})
	}

	commentAdded := false
	if strings.TrimSpace(item.Comment) != "" {
		if err := s.jira.AddComment(creds.CloudID, creds.AccessToken, item.TicketKey, item.Comment); err != nil {
			return s.failTicket(creds, item.TicketKey, ActionLabelFailed, err)
		}
		commentAdded = true
		s.audit.Record(AuditEntry{
			UserName:  creds.UserInfo.DisplayName,
			UserEmail: creds.UserInfo.Email,
			TicketKey: item.TicketKey,
			Action:    ActionCommentAdded,
			Comment:   item.Comment,
		})
	}

	return TicketUpdateResult{
		TicketKey:    item.TicketKey,
		Success:      true,
		LabelApplied: labelApplied,
		CommentAdded: commentAdded,
	}
}

func labelPolicy(action string) string {
	if action == "" {
		return LabelActionAdd
	}
	return action
}

func (s *BulkService) failTicket(creds *Credentials, ticketKey, action string, err error) TicketUpdateResult {
	s.audit.Record(AuditEntry{
		UserName:  creds.UserInfo.DisplayName,
		UserEmail: creds.UserInfo.Email,
		TicketKey: ticketKey,
		Action:    action,
		Details:   err.Error(),
	})
	return TicketUpdateResult{TicketKey: ticketKey, Error: err.Error()}
}

// --- Bulk assignee update ---

type AssigneeTicketItem struct {
	TicketKey        string `json:"ticket_key" binding:"required"`
	AssigneeUsername string `json:"assignee_username" binding:"required"`
	AccountID        string `json:"account_id"`
	Comment          string `json:"comment"`
}

type AssigneeUpdateResult struct {
	TicketKey    string `json:"ticket_key"`
	Success      bool   `json:"success"`
	AssigneeSet  string `json:"assignee_set,omitempty"`
	CommentAdded bool   `json:"comment_added"`
	Error        string `json:"error,omitempty"`
}

type BulkAssigneeUpdateResponse struct {
	Results    []AssigneeUpdateResult `json:"results"`
	Total      int                    `json:"total"`
	Successful int                    `json:"successful"`
	Failed     int                    `json:"failed"`
}

// UpdateAssignees assigns each ticket, resolving account ids either directly
// from the request or via the roster email and a Jira directory search. The
// directory cache lives for this batch only.
func (s *BulkService) UpdateAssignees(creds *Credentials, items []AssigneeTicketItem) *BulkAssigneeUpdateResponse {
	// Roster emails are the fallback for usernames without a direct account id.
	usernameToEmail := make(map[string]string)
	var roster []models.AssigneeUser
	if err := s.db.Where("is_active = ?", true).Find(&roster).Error; err == nil {
		for _, u := range roster {
			usernameToEmail[u.Username] = u.Email
		}
	}

	accountIDCache := make(map[string]string)
	isBulk := len(items) > 1

	results := make([]AssigneeUpdateResult, 0, len(items))
	successful := 0
	for _, item := range items {
		result := s.updateOneAssignee(creds, item, usernameToEmail, accountIDCache, isBulk)
		if result.Success {
			successful++
		}
		results = append(results, result)
	}
	return &BulkAssigneeUpdateResponse{
		Results:    results,
		Total:      len(results),
		Successful: successful,
		Failed:     len(results) - successful,
	}
}

func (s *BulkService) updateOneAssignee(
	creds *Credentials,
	item AssigneeTicketItem,
	usernameToEmail map[string]string,
	accountIDCache map[string]string,
	isBulk bool,
) AssigneeUpdateResult {
	fail := func(err error) AssigneeUpdateResult {
		s.audit.Record(AuditEntry{
			UserName:  creds.UserInfo.DisplayName,
			UserEmail: creds.UserInfo.Email,
			TicketKey: item.TicketKey,
			Action:    ActionAssigneeFailed,
			Details:   "assignee_update failed: " + err.Error(),
		})
		return AssigneeUpdateResult{TicketKey: item.TicketKey, Error: err.Error()}
	}

	accountID := item.AccountID
	if accountID == "" {
		email := usernameToEmail[item.AssigneeUsername]
		if email == "" {
			return fail(fmt.Errorf("no email configured for user %q, update the user's email in Manage Users", item.AssigneeUsername))
		}

		cached, ok := accountIDCache[item.AssigneeUsername]
		if !ok {
			user, err := s.jira.SearchUser(creds.CloudID, creds.AccessToken, email)
			if err != nil {
				return fail(err)
			}
			if user != nil {
				cached = user.AccountID
			}
			accountIDCache[item.AssigneeUsername] = cached
		}
		accountID = cached
	}

	if accountID == "" {
		return fail(fmt.Errorf("could not resolve Jira user for %q", item.AssigneeUsername))
	}

	if err := s.jira.AssignIssue(creds.CloudID, creds.AccessToken, item.TicketKey, accountID); err != nil {
		return fail(err)
	}

	details := "assignee=" + item.AssigneeUsername
	if isBulk {
		details += "; bulk=true"
	}
	s.audit.Record(AuditEntry{
		UserName:  creds.UserInfo.DisplayName,
		UserEmail: creds.UserInfo.Email,
		TicketKey: item.TicketKey,
		Action:    ActionAssigneeUpdate,
		Details:   details,
	})

	commentAdded := false
	if strings.TrimSpace(item.Comment) != "" {
		if err := s.jira.AddComment(creds.CloudID, creds.AccessToken, item.TicketKey, item.Comment); err != nil {
			return fail(err)
		}
		commentAdded = true
		s.audit.Record(AuditEntry{
			UserName:  creds.UserInfo.DisplayName,
			UserEmail: creds.UserInfo.Email,
			TicketKey: item.TicketKey,
			Action:    ActionCommentAdded,
			Comment:   item.Comment,
		})
	}

	return AssigneeUpdateResult{
		TicketKey:    item.TicketKey,
		Success:      true,
		AssigneeSet:  item.AssigneeUsername,
		CommentAdded: commentAdded,
	}
}

// --- Current assignee lookup ---

type CurrentAssigneeItem struct {
	TicketKey   string `json:"ticket_key"`
	DisplayName string `json:"display_name"`
	AccountID   string `json:"account_id"`
	Error       string `json:"error,omitempty"`
}

// CurrentAssignees fetches the current assignee for each ticket key.
func (s *BulkService) CurrentAssignees(creds *Credentials, ticketKeys []string) []CurrentAssigneeItem {
	results := make([]CurrentAssigneeItem, 0, len(ticketKeys))
	for _, key := range ticketKeys {
		assignee, err := s.jira.GetIssueAssignee(creds.CloudID, creds.AccessToken, key)
		switch {
		case err != nil:
			results = append(results, CurrentAssigneeItem{
				TicketKey:   key,
				DisplayName: "Error",
				Error:       err.Error(),
			})
		case assignee == nil:
			results = append(results, CurrentAssigneeItem{
				TicketKey:   key,
				DisplayName: "Unassigned",
			})
		default:
			results = append(results, CurrentAssigneeItem{
				TicketKey:   key,
				DisplayName: assignee.DisplayName,
				AccountID:   assignee.AccountID,
			})
		}
	}
	return results
}
