package handlers

import (
	"embed"
	"encoding/json"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tickettractor/backend/internal/middleware"
	"github.com/tickettractor/backend/internal/services"
	"github.com/tickettractor/backend/internal/services/jira"
	"github.com/tickettractor/backend/pkg/response"
)

//go:embed data/*.json
var dropdownFiles embed.FS

type DropdownOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type DropdownConfig struct {
	Stages  []DropdownOption `json:"stages"`
	Flows   []DropdownOption `json:"flows"`
	Results []DropdownOption `json:"results"`
}

type TicketHandler struct {
	bulkService *services.BulkService
	jiraClient  *jira.Client
}

func NewTicketHandler(bulkService *services.BulkService, jiraClient *jira.Client) *TicketHandler {
	return &TicketHandler{bulkService: bulkService, jiraClient: jiraClient}
}

func loadDropdown(name string) []DropdownOption {
	data, err := dropdownFiles.ReadFile("data/" + name)
	if err != nil {
		return nil
	}
	var options []DropdownOption
	if err := json.Unmarshal(data, &options); err != nil {
		return nil
	}
	return options
}

// GetConfig returns the Stage, Flow, and Results dropdown options.
// GET /api/tickets/config
func (h *TicketHandler) GetConfig(c *gin.Context) {
	response.Success(c, DropdownConfig{
		Stages:  loadDropdown("stages.json"),
		Flows:   loadDropdown("flows.json"),
		Results: loadDropdown("results.json"),
	})
}

// GetLabels returns a ticket's labels, highlighting the results-prefixed ones.
// GET /api/tickets/:ticket_key/labels
func (h *TicketHandler) GetLabels(c *gin.Context) {
	ticketKey := c.Param("ticket_key")
	creds := middleware.GetCredentials(c)

	labels, err := h.jiraClient.GetIssueLabels(creds.CloudID, creds.AccessToken, ticketKey)
	if err != nil {
		response.BadRequest(c, "failed to get labels for "+ticketKey+": "+err.Error())
		return
	}

	resultsLabels := make([]string, 0, len(labels))
	for _, label := range labels {
		if strings.HasPrefix(label, jira.ResultsLabelPrefix) {
			resultsLabels = append(resultsLabels, label)
		}
	}

	response.Success(c, gin.H{
		"ticket_key":     ticketKey,
		"labels":         labels,
		"results_labels": resultsLabels,
	})
}

type labelCheckRequest struct {
	Tickets []services.LabelCheckItem `json:"tickets" binding:"required,dive"`
}

// CheckLabels reports which tickets already carry the label each item would
// produce.
// POST /api/tickets/check-labels
func (h *TicketHandler) CheckLabels(c *gin.Context) {
	var req labelCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	creds := middleware.GetCredentials(c)
	response.Success(c, gin.H{"results": h.bulkService.CheckLabels(creds, req.Tickets)})
}

type bulkUpdateRequest struct {
	Tickets []services.TicketUpdateItem `json:"tickets" binding:"required,dive"`
}

// BulkUpdate applies label changes and comments across tickets.
// POST /api/tickets/update
func (h *TicketHandler) BulkUpdate(c *gin.Context) {
	var req bulkUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	creds := middleware.GetCredentials(c)
	response.Success(c, h.bulkService.UpdateTickets(creds, req.Tickets))
}
