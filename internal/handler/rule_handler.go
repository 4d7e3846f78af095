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

type RuleHandler struct {
	ruleService service.RuleService
}

func NewRuleHandler(ruleService service.RuleService) *RuleHandler {
	return &RuleHandler{ruleService: ruleService}
}

func (h *RuleHandler) RegisterRoutes(router *gin.RouterGroup) {
	rules := router.Group("/api/rules")
	{
		// Everyone can read the rules that govern their reimbursement.
		rules.GET("", middleware.RequireRole(model.RoleEmployee, model.RoleSupervisor, model.RoleFinance, model.RoleAdmin), h.ListRules)

		// Only finance and admin may change them.
		manage := middleware.RequireRole(model.RoleFinance, model.RoleAdmin)
		rules.POST("", manage, h.CreateRule)
		rules.PUT("/:id", manage, h.UpdateRule)
		rules.DELETE("/:id", manage, h.DeleteRule)
	}
}

// ListRules lists rules, optionally filtered by cost center
func (h *RuleHandler) ListRules(c *gin.Context) {
	p := pagination.Parse(c)
	costCenter := c.Query("cost_center")

	rules, total, err := h.ruleService.ListRules(c.Request.Context(), costCenter, p.Page, p.Limit)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.Wrap(rules, total, p)))
}

// CreateRule adds a reimbursement rule for a (cost center, rule type) pair
func (h *RuleHandler) CreateRule(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	var req service.CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	rule, err := h.ruleService.CreateRule(c.Request.Context(), userID, req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, rule))
}

// UpdateRule replaces an existing rule's parameters
func (h *RuleHandler) UpdateRule(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}
	ruleID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req service.CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	rule, err := h.ruleService.UpdateRule(c.Request.Context(), userID, ruleID, req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, rule))
}

// DeleteRule removes a rule
func (h *RuleHandler) DeleteRule(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}
	ruleID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.ruleService.DeleteRule(c.Request.Context(), userID, ruleID); err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": ruleID}))
}
