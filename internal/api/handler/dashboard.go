package handler

import (
	"context"
	"net/http"

	"cleantrack/backend/internal/analysis"
	"cleantrack/backend/internal/api/middleware"
	"cleantrack/backend/internal/apperr"
	"cleantrack/backend/internal/config"
	"cleantrack/backend/internal/filter"
	"cleantrack/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// standings loads every complaint and the leaderboard over them.
func (h *Handler) standings(ctx context.Context) ([]models.Complaint, []analysis.LeaderboardEntry, error) {
	all, err := h.Complaints.List(ctx, filter.Criteria{})
	if err != nil {
		return nil, nil, err
	}
	citizens, err := h.Users.ListUsers(ctx, models.RoleCitizen)
	if err != nil {
		return nil, nil, apperr.Transient("load citizens", err)
	}
	return all, analysis.Leaderboard(citizens, all), nil
}

func (h *Handler) OfficialDashboard(c *gin.Context) {
	all, err := h.Complaints.List(c.Request.Context(), filter.Criteria{})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis.OfficialDashboard(all, h.now()))
}

func (h *Handler) MyDashboard(c *gin.Context) {
	all, board, err := h.standings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis.CitizenDashboard(middleware.Identity(c).ID, all, board, h.now()))
}

func (h *Handler) Rewards(c *gin.Context) {
	all, board, err := h.standings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis.RewardsFor(middleware.Identity(c).ID, all, board))
}

func (h *Handler) Leaderboard(c *gin.Context) {
	_, board, err := h.standings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if len(board) > config.LeaderboardLimit {
		board = board[:config.LeaderboardLimit]
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": board})
}
