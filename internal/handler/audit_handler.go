package handler

import (
	"net/http"

	"fieldexpense/internal/middleware"
	"fieldexpense/internal/model"
	"fieldexpense/internal/service"
	"fieldexpense/pkg/pagination"
	"fieldexpense/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/audit-logs", middleware.RequireRole(model.RoleAdmin, model.RoleFinance), h.GetAuditLogs)
}

// GetAuditLogs returns the audit trail, newest first
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	p := pagination.Parse(c)

	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.Wrap(logs, total, p)))
}
