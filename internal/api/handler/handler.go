// Package handler holds the gin handlers of the HTTP API.
package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"cleantrack/backend/internal/apperr"
	"cleantrack/backend/internal/complaint"
	"cleantrack/backend/internal/feed"
	"cleantrack/backend/internal/localization"
	"cleantrack/backend/internal/media"
	"cleantrack/backend/internal/session"
	"cleantrack/backend/internal/storage"

	"github.com/gin-gonic/gin"
)

// Handler holds the services the API talks to.
type Handler struct {
	Users      storage.UserRepository
	Complaints *complaint.Service
	Sessions   *session.Manager
	Hub        *feed.ManagerService
	Media      *media.Store
	Localizer  *localization.Localizer
	JWTSecret  string
	Now        func() time.Time
}

func NewHandler(users storage.UserRepository, complaints *complaint.Service, sessions *session.Manager, hub *feed.ManagerService, store *media.Store, l *localization.Localizer, jwtSecret string) *Handler {
	return &Handler{
		Users:      users,
		Complaints: complaints,
		Sessions:   sessions,
		Hub:        hub,
		Media:      store,
		Localizer:  l,
		JWTSecret:  jwtSecret,
		Now:        time.Now,
	}
}

func (h *Handler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

// respondError writes err as {"error": ...} with the status of its kind.
func respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("ERROR: %s %s: %v", c.Request.Method, c.FullPath(), err)
	}

	body := gin.H{"error": apperr.Message(err)}
	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		body["field"] = ve.Field
	}
	c.AbortWithStatusJSON(status, body)
}

// userError maps user repository errors into the taxonomy.
func userError(op string, err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return apperr.NotFound("user", "")
	case errors.Is(err, storage.ErrDuplicateEmail):
		return &apperr.ConflictError{Message: "email is already registered"}
	}
	return apperr.Transient(op, err)
}

func badRequest(c *gin.Context, err error) {
	respondError(c, apperr.Validation("body", "invalid request body: "+err.Error()))
}
