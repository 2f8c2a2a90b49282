package handler

import (
	"net/http"

	"cleantrack/backend/internal/access"
	"cleantrack/backend/internal/api/middleware"

	"github.com/gin-gonic/gin"
)

// ListRoutes returns the view routing table.
func (h *Handler) ListRoutes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"routes": access.Routes})
}

// CheckRoute tells the front end whether the caller may open ?path=.
func (h *Handler) CheckRoute(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		path = "/"
	}

	route, decision := access.Check(middleware.Identity(c), path)
	_, params := access.Resolve(path)
	c.JSON(http.StatusOK, gin.H{
		"route":    route,
		"params":   params,
		"decision": decision,
	})
}
