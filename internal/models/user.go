package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a registered account, either a citizen or a municipal official.
type User struct {
	ID           string `gorm:"primaryKey" json:"id"`
	Name         string `gorm:"size:255;not null" json:"name"`
	Email        string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	Role         Role   `gorm:"size:20;not null;index" json:"role"`
	Phone        string `gorm:"size:50" json:"phone,omitempty"`
	Address      string `gorm:"type:text" json:"address,omitempty"`
	// Language selects the notification locale ("en", "uk").
	Language string `gorm:"size:10;default:'en'" json:"language"`
	// TelegramChatID receives status notifications when non-zero.
	TelegramChatID int64     `gorm:"index" json:"telegramChatId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// BeforeCreate generates a UUID for the user if the ID is not set yet
// and normalizes the email so lookups are case-insensitive.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	u.Email = NormalizeEmail(u.Email)
	return
}

// Identity returns the session view of the user.
func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
