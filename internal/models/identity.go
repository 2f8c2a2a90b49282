package models

import "strings"

// Role is the access role of an authenticated identity.
type Role string

const (
	RoleCitizen  Role = "citizen"
	RoleOfficial Role = "official"
)

// ParseRole normalizes a role name. The front end historically called
// citizens "user", so that alias is accepted as well.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "citizen", "user":
		return RoleCitizen, true
	case "official":
		return RoleOfficial, true
	}
	return "", false
}

// Identity is the authenticated principal held by a session.
type Identity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

func (i *Identity) IsOfficial() bool { return i != nil && i.Role == RoleOfficial }
func (i *Identity) IsCitizen() bool  { return i != nil && i.Role == RoleCitizen }
