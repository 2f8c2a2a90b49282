package models_test

import (
	"reflect"
	"testing"

	"cleantrack/backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// TestUserBeforeCreate_GeneratesUUID verifies that the BeforeCreate hook generates a valid UUID.
func TestUserBeforeCreate_GeneratesUUID(t *testing.T) {
	// Arrange
	user := &models.User{Name: "John Citizen", Email: "john@example.com", Role: models.RoleCitizen}
	assert.Empty(t, user.ID, "User ID should be empty before BeforeCreate")

	// Act - nil *gorm.DB is acceptable for this hook
	err := user.BeforeCreate(nil)

	// Assert
	assert.NoError(t, err)
	assert.NotEmpty(t, user.ID, "User ID must be populated after BeforeCreate")
	parsed, parseErr := uuid.Parse(user.ID)
	assert.NoError(t, parseErr, "User ID must be a valid UUID string")
	assert.NotEqual(t, uuid.Nil, parsed)
}

func TestUserBeforeCreate_PreservesExistingID(t *testing.T) {
	existingID := uuid.New().String()
	user := &models.User{ID: existingID, Email: "a@b.c"}

	err := user.BeforeCreate(nil)

	assert.NoError(t, err)
	assert.Equal(t, existingID, user.ID, "BeforeCreate should preserve existing ID")
}

func TestUserBeforeCreate_NormalizesEmail(t *testing.T) {
	user := &models.User{Email: "  Officer.Johnson@City.GOV "}

	assert.NoError(t, user.BeforeCreate(nil))
	assert.Equal(t, "officer.johnson@city.gov", user.Email)
}

func TestUserBeforeCreate_MultipleUsers(t *testing.T) {
	users := []*models.User{
		{Email: "one@example.com"},
		{Email: "two@example.com"},
		{Email: "three@example.com"},
	}

	generatedIDs := make(map[string]bool)
	for _, user := range users {
		assert.NoError(t, user.BeforeCreate(nil))
		assert.NotContains(t, generatedIDs, user.ID, "Each user should have a unique ID")
		generatedIDs[user.ID] = true
	}
	assert.Len(t, generatedIDs, len(users))
}

func TestUserIdentity(t *testing.T) {
	user := &models.User{ID: "u-1", Name: "Officer Johnson", Email: "oj@city.gov", Role: models.RoleOfficial, PasswordHash: "secret"}

	id := user.Identity()

	assert.Equal(t, models.Identity{ID: "u-1", Name: "Officer Johnson", Email: "oj@city.gov", Role: models.RoleOfficial}, id)
	assert.True(t, id.IsOfficial())
	assert.False(t, id.IsCitizen())
}

// TestUserStructTags catches accidental tag removal during refactoring.
func TestUserStructTags(t *testing.T) {
	userType := reflect.TypeOf(models.User{})

	idField, found := userType.FieldByName("ID")
	assert.True(t, found)
	assert.Contains(t, idField.Tag.Get("gorm"), "primaryKey")

	emailField, found := userType.FieldByName("Email")
	assert.True(t, found)
	assert.Contains(t, emailField.Tag.Get("gorm"), "uniqueIndex")

	hashField, found := userType.FieldByName("PasswordHash")
	assert.True(t, found)
	assert.Equal(t, "-", hashField.Tag.Get("json"), "password hash must never be serialized")
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want models.Role
		ok   bool
	}{
		{"citizen", models.RoleCitizen, true},
		{"user", models.RoleCitizen, true},
		{" Official ", models.RoleOfficial, true},
		{"admin", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := models.ParseRole(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIdentityNilSafe(t *testing.T) {
	var id *models.Identity
	assert.False(t, id.IsOfficial())
	assert.False(t, id.IsCitizen())
}
