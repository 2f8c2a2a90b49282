package handler

import (
	"net/http"

	"cleantrack/backend/internal/api/middleware"
	"cleantrack/backend/internal/filter"
	"cleantrack/backend/internal/models"

	"github.com/gin-gonic/gin"
)

type statusUpdateRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
	// ExpectedVersion enables the optimistic check when > 0.
	ExpectedVersion int `json:"expectedVersion"`
}

// CreateComplaint submits a complaint for the calling citizen.
func (h *Handler) CreateComplaint(c *gin.Context) {
	var draft models.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		badRequest(c, err)
		return
	}
	created, err := h.Complaints.SubmitComplaint(c.Request.Context(), draft, middleware.Identity(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) listComplaints(c *gin.Context, reporterID string) {
	criteria, err := filter.ParseCriteria(c.Request.URL.Query())
	if err != nil {
		respondError(c, err)
		return
	}
	criteria.ReporterID = reporterID
	criteria.Now = h.now()

	list, err := h.Complaints.List(c.Request.Context(), criteria)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"complaints": list, "total": len(list)})
}

// ListComplaints is the officials' filtered view over every complaint.
func (h *Handler) ListComplaints(c *gin.Context) {
	h.listComplaints(c, "")
}

// MyComplaints is the citizen's tracking view over their own complaints.
func (h *Handler) MyComplaints(c *gin.Context) {
	h.listComplaints(c, middleware.Identity(c).ID)
}

func (h *Handler) GetComplaint(c *gin.Context) {
	cp, err := h.Complaints.GetFor(c.Request.Context(), c.Param("id"), middleware.Identity(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cp)
}

// UpdateStatus appends an official's note and moves the complaint.
func (h *Handler) UpdateStatus(c *gin.Context) {
	var req statusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	updated, err := h.Complaints.ApplyStatusUpdate(c.Request.Context(), c.Param("id"), req.Status, req.Note, middleware.Identity(c), req.ExpectedVersion)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Statuses lists the statuses officials may choose from.
func (h *Handler) Statuses(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"statuses": h.Complaints.Statuses()})
}
