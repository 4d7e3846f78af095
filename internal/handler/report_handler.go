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

type ReportHandler struct {
	reportService service.ReportService
}

func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	anyRole := middleware.RequireRole(model.RoleEmployee, model.RoleSupervisor, model.RoleFinance, model.RoleAdmin)
	approvers := middleware.RequireRole(model.RoleSupervisor, model.RoleFinance)

	reports := router.Group("/api/reports")
	{
		reports.GET("", anyRole, h.ListReports)
		reports.POST("", anyRole, h.CreateOrGetReport)
		reports.GET("/:id", anyRole, h.GetReport)
		reports.GET("/:id/ledger", anyRole, h.GetSummaryLedger)
		reports.GET("/:id/history", anyRole, h.GetApprovalHistory)
		reports.DELETE("/:id", anyRole, h.DeleteReport)

		reports.POST("/:id/submit", middleware.RequireRole(model.RoleEmployee), h.Submit)
		reports.POST("/:id/resubmit", middleware.RequireRole(model.RoleEmployee), h.Resubmit)
		reports.POST("/:id/approve", approvers, h.Approve)
		reports.POST("/:id/reject", approvers, h.Reject)
		reports.POST("/:id/request-revision", approvers, h.RequestRevision)
	}
}

type createReportRequest struct {
	Period string `json:"period" binding:"required"`
}

// CreateOrGetReport returns the one report for (caller, period), creating a
// draft if none exists yet
func (h *ReportHandler) CreateOrGetReport(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	var req createReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	report, err := h.reportService.CreateOrGetReport(c.Request.Context(), userID, req.Period)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// ListReports lists reports scoped to the caller's role
func (h *ReportHandler) ListReports(c *gin.Context) {
	userID, role, ok := currentUser(c)
	if !ok {
		return
	}

	p := pagination.Parse(c)
	status := c.Query("status")

	reports, total, err := h.reportService.ListReports(c.Request.Context(), userID, role, status, p.Page, p.Limit)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.Wrap(reports, total, p)))
}

// GetReport returns one report with its snapshot
func (h *ReportHandler) GetReport(c *gin.Context) {
	reportID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	report, err := h.reportService.GetReport(c.Request.Context(), reportID)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// GetSummaryLedger returns the live ledger for editable reports and the
// frozen snapshot otherwise
func (h *ReportHandler) GetSummaryLedger(c *gin.Context) {
	reportID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	ledger, err := h.reportService.GetSummaryLedger(c.Request.Context(), reportID)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, ledger))
}

// GetApprovalHistory returns the report's append-only approval trail
func (h *ReportHandler) GetApprovalHistory(c *gin.Context) {
	reportID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	events, err := h.reportService.GetApprovalHistory(c.Request.Context(), reportID)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, events))
}

// Submit moves a draft into the approval pipeline
func (h *ReportHandler) Submit(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}
	reportID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	report, err := h.reportService.Submit(c.Request.Context(), reportID, userID)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// Resubmit returns a revised report to the stage that asked for changes
func (h *ReportHandler) Resubmit(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}
	reportID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	report, err := h.reportService.Resubmit(c.Request.Context(), reportID, userID)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// Approve advances the report one stage
func (h *ReportHandler) Approve(c *gin.Context) {
	userID, role, ok := currentUser(c)
	if !ok {
		return
	}
	reportID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	report, err := h.reportService.Approve(c.Request.Context(), reportID, userID, role)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// Reject terminates the report with a mandatory reason
func (h *ReportHandler) Reject(c *gin.Context) {
	userID, role, ok := currentUser(c)
	if !ok {
		return
	}
	reportID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req service.CommentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	report, err := h.reportService.Reject(c.Request.Context(), reportID, userID, role, req.Comments)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// RequestRevision sends the report back to the employee with comments
func (h *ReportHandler) RequestRevision(c *gin.Context) {
	userID, role, ok := currentUser(c)
	if !ok {
		return
	}
	reportID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req service.CommentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	report, err := h.reportService.RequestRevision(c.Request.Context(), reportID, userID, role, req.Comments)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// DeleteReport removes a draft report
func (h *ReportHandler) DeleteReport(c *gin.Context) {
	userID, role, ok := currentUser(c)
	if !ok {
		return
	}
	reportID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.reportService.Delete(c.Request.Context(), reportID, userID, role); err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": reportID}))
}
