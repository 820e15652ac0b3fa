package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tickettractor/backend/internal/middleware"
	"github.com/tickettractor/backend/internal/services"
	"github.com/tickettractor/backend/internal/services/jira"
	"github.com/tickettractor/backend/pkg/response"
)

type AssigneeHandler struct {
	assigneeService *services.AssigneeService
	bulkService     *services.BulkService
	jiraClient      *jira.Client
}

func NewAssigneeHandler(assigneeService *services.AssigneeService, bulkService *services.BulkService, jiraClient *jira.Client) *AssigneeHandler {
	return &AssigneeHandler{
		assigneeService: assigneeService,
		bulkService:     bulkService,
		jiraClient:      jiraClient,
	}
}

// ListUsers returns the active assignee roster.
// GET /api/assignees/users
func (h *AssigneeHandler) ListUsers(c *gin.Context) {
	users, err := h.assigneeService.List()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, users)
}

// AddUser adds a roster entry.
// POST /api/assignees/users
func (h *AssigneeHandler) AddUser(c *gin.Context) {
	var req services.CreateAssigneeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	creds := middleware.GetCredentials(c)
	user, err := h.assigneeService.Create(&req, creds.UserInfo)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, user)
}

// RemoveUser removes a roster entry.
// DELETE /api/assignees/users/:id
func (h *AssigneeHandler) RemoveUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	creds := middleware.GetCredentials(c)
	if err := h.assigneeService.Delete(uint(id), creds.UserInfo); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

type jiraSearchUserResult struct {
	AccountID    string `json:"account_id"`
	DisplayName  string `json:"display_name"`
	EmailAddress string `json:"email_address"`
	AvatarURL    string `json:"avatar_url"`
}

// SearchJiraUsers searches the Jira directory by name or email. Bot and app
// accounts are filtered out.
// GET /api/assignees/search-jira?query=
func (h *AssigneeHandler) SearchJiraUsers(c *gin.Context) {
	query := c.Query("query")
	if len(query) < 2 {
		response.BadRequest(c, "query must be at least 2 characters")
		return
	}

	creds := middleware.GetCredentials(c)
	users, err := h.jiraClient.SearchUsers(creds.CloudID, creds.AccessToken, query)
	if err != nil {
		response.Error(c, err)
		return
	}

	results := make([]jiraSearchUserResult, 0, len(users))
	for _, u := range users {
		if u.AccountType != "atlassian" {
			continue // bots / service accounts
		}
		results = append(results, jiraSearchUserResult{
			AccountID:    u.AccountID,
			DisplayName:  u.DisplayName,
			EmailAddress: u.EmailAddress,
			AvatarURL:    u.AvatarURLs["24x24"],
		})
	}
	response.Success(c, results)
}

type currentAssigneeRequest struct {
	TicketKeys []string `json:"ticket_keys" binding:"required"`
}

// CurrentAssignees bulk-fetches the current assignee for a list of tickets.
// POST /api/assignees/current-assignees
func (h *AssigneeHandler) CurrentAssignees(c *gin.Context) {
	var req currentAssigneeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	creds := middleware.GetCredentials(c)
	response.Success(c, gin.H{"results": h.bulkService.CurrentAssignees(creds, req.TicketKeys)})
}

type bulkAssigneeRequest struct {
	Tickets []services.AssigneeTicketItem `json:"tickets" binding:"required,dive"`
}

// BulkUpdate assigns tickets (and optionally comments) in bulk.
// POST /api/assignees/update
func (h *AssigneeHandler) BulkUpdate(c *gin.Context) {
	var req bulkAssigneeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	creds := middleware.GetCredentials(c)
	response.Success(c, h.bulkService.UpdateAssignees(creds, req.Tickets))
}
