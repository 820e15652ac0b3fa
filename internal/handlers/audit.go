package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tickettractor/backend/internal/services"
	"github.com/tickettractor/backend/pkg/response"
)

type AuditHandler struct {
	auditService *services.AuditService
}

func NewAuditHandler(auditService *services.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// History returns audit entries newest-first.
// GET /api/audit/history?limit=&offset=&action=
func (h *AuditHandler) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "200"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	action := c.Query("action")

	history, err := h.auditService.History(limit, offset, action)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, history)
}
