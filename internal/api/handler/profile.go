package handler

import (
	"log"
	"net/http"
	"strings"

	"cleantrack/backend/internal/api/middleware"
	"cleantrack/backend/internal/apperr"
	"cleantrack/backend/internal/auth"

	"github.com/gin-gonic/gin"
)

type profileRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Address        string `json:"address"`
	Language       string `json:"language"`
	TelegramChatID int64  `json:"telegramChatId"`
}

type passwordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (h *Handler) GetProfile(c *gin.Context) {
	user, err := h.Users.GetUserByID(c.Request.Context(), middleware.Identity(c).ID)
	if err != nil {
		respondError(c, userError("load profile", err))
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) supportedLanguage(lang string) bool {
	if h.Localizer == nil {
		return true
	}
	for _, l := range h.Localizer.Languages() {
		if l == lang {
			return true
		}
	}
	return false
}

// UpdateProfile saves the editable profile fields. Name and email changes
// are written back to the session as well.
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	user, err := h.Users.GetUserByID(ctx, middleware.Identity(c).ID)
	if err != nil {
		respondError(c, userError("load profile", err))
		return
	}

	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	lang := strings.ToLower(strings.TrimSpace(req.Language))
	switch {
	case name == "":
		respondError(c, apperr.Validation("name", "is required"))
		return
	case !validEmail(email):
		respondError(c, apperr.Validation("email", "is not a valid email address"))
		return
	case lang != "" && !h.supportedLanguage(lang):
		respondError(c, apperr.Validation("language", "is not supported"))
		return
	}

	user.Name = name
	user.Email = email
	user.Phone = strings.TrimSpace(req.Phone)
	user.Address = strings.TrimSpace(req.Address)
	user.TelegramChatID = req.TelegramChatID
	if lang != "" {
		user.Language = lang
	}

	if err := h.Users.UpdateUser(ctx, user); err != nil {
		respondError(c, userError("update profile", err))
		return
	}
	if err := h.Sessions.Refresh(ctx, middleware.SessionID(c), user.Identity()); err != nil {
		log.Printf("WARNING: Profile of %s saved but session not refreshed: %v", user.ID, err)
	}
	c.JSON(http.StatusOK, user)
}

// ChangePassword requires the current password and a confirmed new one.
func (h *Handler) ChangePassword(c *gin.Context) {
	var req passwordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	user, err := h.Users.GetUserByID(ctx, middleware.Identity(c).ID)
	if err != nil {
		respondError(c, userError("load profile", err))
		return
	}
	if err := auth.CheckPassword(user.PasswordHash, req.CurrentPassword); err != nil {
		respondError(c, apperr.Validation("currentPassword", "is incorrect"))
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
	user.PasswordHash = hash
	if err := h.Users.UpdateUser(ctx, user); err != nil {
		respondError(c, userError("update password", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}
