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

type EntryHandler struct {
	entryService service.EntryService
}

func NewEntryHandler(entryService service.EntryService) *EntryHandler {
	return &EntryHandler{entryService: entryService}
}

func (h *EntryHandler) RegisterRoutes(router *gin.RouterGroup) {
	entries := router.Group("/api/entries")
	entries.Use(middleware.RequireRole(model.RoleEmployee, model.RoleSupervisor, model.RoleFinance, model.RoleAdmin))
	{
		entries.GET("", h.ListEntries)
		entries.POST("", h.CreateEntry)
		entries.PUT("/:id", h.UpdateEntry)
		entries.DELETE("/:id", h.DeleteEntry)
	}
}

// ListEntries returns the caller's daily entries, paginated
func (h *EntryHandler) ListEntries(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	p := pagination.Parse(c)
	entries, total, err := h.entryService.ListEntries(c.Request.Context(), userID, p.Page, p.Limit)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.Wrap(entries, total, p)))
}

// CreateEntry records a time, mileage, receipt, or description entry
func (h *EntryHandler) CreateEntry(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	var req service.CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	entry, err := h.entryService.CreateEntry(c.Request.Context(), userID, req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, entry))
}

// UpdateEntry edits an entry while its period is still editable
func (h *EntryHandler) UpdateEntry(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}
	entryID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req service.UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	entry, err := h.entryService.UpdateEntry(c.Request.Context(), userID, entryID, req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, entry))
}

// DeleteEntry removes an entry while its period is still editable
func (h *EntryHandler) DeleteEntry(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}
	entryID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.entryService.DeleteEntry(c.Request.Context(), userID, entryID); err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": entryID}))
}
