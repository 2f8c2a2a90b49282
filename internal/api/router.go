// Package api wires the handlers and middleware into a gin engine.
package api

import (
	"net/http"

	"cleantrack/backend/internal/api/handler"
	"cleantrack/backend/internal/api/middleware"
	"cleantrack/backend/internal/media"
	"cleantrack/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options are the router settings that do not live on the Handler.
type Options struct {
	FrontendURL string
}

func NewRouter(h *handler.Handler, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware.CORS(opts.FrontendURL))
	r.Use(middleware.MetricsMiddleware())

	r.GET("/health", func(c *gin.Context) {
		body := gin.H{"status": "ok"}
		if h.Hub != nil {
			body["feedClients"] = h.Hub.ClientCount()
		}
		c.JSON(http.StatusOK, body)
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if h.Media != nil {
		r.Static(media.URLPrefix, h.Media.Dir)
	}

	authed := middleware.AuthMiddleware(h.JWTSecret, h.Sessions)
	r.GET("/ws", authed, h.ServeWebSocket)

	api := r.Group("/api")
	{
		api.POST("/auth/register", h.Register)
		api.POST("/auth/login", h.Login)
		api.GET("/routes", h.ListRoutes)
		api.GET("/routes/check", middleware.OptionalAuthMiddleware(h.JWTSecret, h.Sessions), h.CheckRoute)
	}

	private := api.Group("", authed)
	{
		private.POST("/auth/logout", h.Logout)
		private.GET("/auth/me", h.Me)
		private.GET("/profile", h.GetProfile)
		private.PUT("/profile", h.UpdateProfile)
		private.PUT("/profile/password", h.ChangePassword)
		private.GET("/complaints/:id", h.GetComplaint)
		private.GET("/statuses", h.Statuses)
	}

	citizen := private.Group("", middleware.RequireRole(models.RoleCitizen))
	{
		citizen.POST("/uploads", h.Upload)
		citizen.DELETE("/uploads/:name", h.ReleaseUpload)
		citizen.POST("/complaints", h.CreateComplaint)
		citizen.GET("/my/complaints", h.MyComplaints)
		citizen.GET("/my/dashboard", h.MyDashboard)
		citizen.GET("/rewards", h.Rewards)
		citizen.GET("/rewards/leaderboard", h.Leaderboard)
	}

	official := private.Group("", middleware.RequireRole(models.RoleOfficial))
	{
		official.GET("/complaints", h.ListComplaints)
		official.POST("/complaints/:id/status", h.UpdateStatus)
		official.GET("/official/dashboard", h.OfficialDashboard)
	}

	return r
}
