package handler

import (
	"errors"
	"net/http"
	"strings"

	"cleantrack/backend/internal/access"
	"cleantrack/backend/internal/api/middleware"
	"cleantrack/backend/internal/apperr"
	"cleantrack/backend/internal/auth"
	"cleantrack/backend/internal/models"
	"cleantrack/backend/internal/storage"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Role            string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	// Role is the tab the user logged in from; optional.
	Role string `json:"role"`
}

type authResponse struct {
	Token    string      `json:"token"`
	User     models.User `json:"user"`
	Redirect string      `json:"redirect"`
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t")
}

// startSession opens a session for the user and issues its access token.
func (h *Handler) startSession(c *gin.Context, user *models.User, status int) {
	s, err := h.Sessions.Start(c.Request.Context(), user.Identity())
	if err != nil {
		respondError(c, apperr.Transient("start session", err))
		return
	}

	token, err := auth.GenerateAccessToken(s.ID(), user.Identity(), h.JWTSecret, h.Sessions.TTL)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(status, authResponse{Token: token, User: *user, Redirect: access.HomeFor(user.Role)})
}

// Register creates an account and logs it in.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	name := strings.TrimSpace(req.Name)
	email := models.NormalizeEmail(req.Email)
	role, ok := models.ParseRole(req.Role)
	switch {
	case name == "":
		respondError(c, apperr.Validation("name", "is required"))
		return
	case !validEmail(email):
		respondError(c, apperr.Validation("email", "is not a valid email address"))
		return
	case !ok:
		respondError(c, apperr.Validation("role", "must be citizen or official"))
		return
	}
	if err := auth.ValidateNewPassword(req.Password, req.ConfirmPassword); err != nil {
		respondError(c, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	user := &models.User{Name: name, Email: email, Role: role, PasswordHash: hash, Language: "en"}
	if err := h.Users.CreateUser(c.Request.Context(), user); err != nil {
		respondError(c, userError("create user", err))
		return
	}

	h.startSession(c, user, http.StatusCreated)
}

// Login checks the password and opens a session.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.Users.GetUserByEmail(c.Request.Context(), req.Email)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": auth.ErrInvalidCredentials.Error()})
		return
	}
	if err != nil {
		respondError(c, userError("load user", err))
		return
	}
	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	if req.Role != "" {
		role, ok := models.ParseRole(req.Role)
		if !ok {
			respondError(c, apperr.Validation("role", "must be citizen or official"))
			return
		}
		if role != user.Role {
			respondError(c, apperr.Forbidden("this account is not registered as "+string(role)))
			return
		}
	}

	h.startSession(c, user, http.StatusOK)
}

// Logout ends the current session. The token stops working with it.
func (h *Handler) Logout(c *gin.Context) {
	s, err := h.Sessions.Load(c.Request.Context(), middleware.SessionID(c))
	if err == nil {
		err = s.Logout(c.Request.Context())
	}
	if err != nil {
		respondError(c, apperr.Transient("end session", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"redirect": access.LoginPath})
}

// Me returns the session identity and its home view.
func (h *Handler) Me(c *gin.Context) {
	id := middleware.Identity(c)
	c.JSON(http.StatusOK, gin.H{"identity": id, "redirect": access.HomeFor(id.Role)})
}
