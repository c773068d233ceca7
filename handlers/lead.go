package handlers

import (
	"net/http"

	"giftkit/middleware"
	"giftkit/services/lead"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LeadHandler serves the public callback form and the sales dashboards.
type LeadHandler struct {
	Service lead.LeadService
	Logger  *zap.Logger
}

func NewLeadHandler(service lead.LeadService, logger *zap.Logger) *LeadHandler {
	return &LeadHandler{Service: service, Logger: logger}
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

type noteRequest struct {
	Text string `json:"text" binding:"required"`
}

type assignRequest struct {
	AssigneeID string `json:"assigneeId" binding:"required"`
}

type bulkAssignRequest struct {
	LeadIDs    []string `json:"leadIds" binding:"required,min=1"`
	AssigneeID string   `json:"assigneeId" binding:"required"`
}

// CallbackHandler handles POST /api/leads/callback.
func (h *LeadHandler) CallbackHandler(c *gin.Context) {
	var req lead.CallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.Logger, err)
		return
	}
	created, err := h.Service.RequestCallback(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": created.ID, "message": "We will call you back shortly"})
}

// ListHandler handles GET /api/dashboard/leads.
func (h *LeadHandler) ListHandler(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)
	var q lead.Query
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, h.Logger, err)
		return
	}
	page, err := h.Service.List(c.Request.Context(), actor, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetHandler handles GET /api/dashboard/leads/:id.
func (h *LeadHandler) GetHandler(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)
	found, err := h.Service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, found)
}

// UpdateStatusHandler handles PATCH /api/dashboard/leads/:id/status.
func (h *LeadHandler) UpdateStatusHandler(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.Logger, err)
		return
	}
	updated, err := h.Service.UpdateStatus(c.Request.Context(), actor, c.Param("id"), req.Status)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// AddNoteHandler handles POST /api/dashboard/leads/:id/notes.
func (h *LeadHandler) AddNoteHandler(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)
	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.Logger, err)
		return
	}
	updated, err := h.Service.AddNote(c.Request.Context(), actor, c.Param("id"), req.Text)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, updated)
}

// StatsHandler handles GET /api/dashboard/stats.
func (h *LeadHandler) StatsHandler(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)
	stats, err := h.Service.Stats(c.Request.Context(), actor)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// AssignHandler handles POST /api/dashboard/leads/:id/assign.
func (h *LeadHandler) AssignHandler(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.Logger, err)
		return
	}
	updated, err := h.Service.Assign(c.Request.Context(), actor, c.Param("id"), req.AssigneeID)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// BulkAssignHandler handles POST /api/dashboard/leads/assign.
func (h *LeadHandler) BulkAssignHandler(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)
	var req bulkAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.Logger, err)
		return
	}
	n, err := h.Service.BulkAssign(c.Request.Context(), actor, req.LeadIDs, req.AssigneeID)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assigned": n})
}
