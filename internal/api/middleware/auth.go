package middleware

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"cleantrack/backend/internal/access"
	"cleantrack/backend/internal/apperr"
	"cleantrack/backend/internal/auth"
	"cleantrack/backend/internal/models"
	"cleantrack/backend/internal/session"

	"github.com/gin-gonic/gin"
)

const (
	identityKey  = "identity"
	sessionIDKey = "sessionID"
)

// bearerToken reads the access token from the Authorization header. Browsers
// cannot set headers on websocket requests, so ?token= is accepted as well.
func bearerToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if token := c.Query("token"); token != "" {
			return token, nil
		}
		return "", errors.New("authorization header required")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", errors.New("invalid authorization header format")
	}
	return parts[1], nil
}

// resolve validates the token and loads the session it points at. The
// session, not the token, is the source of the identity.
func resolve(c *gin.Context, jwtSecret string, sessions *session.Manager) (*models.Identity, string, error) {
	token, err := bearerToken(c)
	if err != nil {
		return nil, "", err
	}

	claims, err := auth.ValidateAccessToken(token, jwtSecret)
	if err != nil {
		return nil, "", errors.New("invalid or expired token")
	}

	s, err := sessions.Load(c.Request.Context(), claims.SessionID)
	if errors.Is(err, session.ErrNoSession) {
		return nil, "", errors.New("session expired, please log in again")
	}
	if err != nil {
		log.Printf("ERROR: Failed to load session %s: %v", claims.SessionID, err)
		return nil, "", apperr.Transient("load session", err)
	}
	return s.Identity(), s.ID(), nil
}

// AuthMiddleware requires a valid token backed by a live session. When the
// session store cannot be reached the caller gets 503 and keeps its login.
func AuthMiddleware(jwtSecret string, sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, sid, err := resolve(c, jwtSecret, sessions)
		if apperr.HTTPStatus(err) == http.StatusServiceUnavailable {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": apperr.Message(err)})
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":    err.Error(),
				"redirect": access.LoginPath,
			})
			return
		}

		c.Set(identityKey, id)
		c.Set(sessionIDKey, sid)
		c.Next()
	}
}

// OptionalAuthMiddleware sets the identity when a valid session is
// presented and otherwise lets the request through anonymously.
func OptionalAuthMiddleware(jwtSecret string, sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, sid, err := resolve(c, jwtSecret, sessions); err == nil {
			c.Set(identityKey, id)
			c.Set(sessionIDKey, sid)
		}
		c.Next()
	}
}

// RequireRole lets only the given role through. Other callers get the view
// they should be sent to in "redirect".
func RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := Identity(c)
		decision := access.Authorize(id, role)
		if decision.Allow {
			c.Next()
			return
		}

		status := http.StatusForbidden
		if id == nil {
			status = http.StatusUnauthorized
		}
		body := gin.H{"error": "access denied for role " + string(roleOf(id))}
		if decision.IsRedirect() {
			body["redirect"] = decision.Redirect
		}
		c.AbortWithStatusJSON(status, body)
	}
}

func roleOf(id *models.Identity) models.Role {
	if id == nil {
		return "anonymous"
	}
	return id.Role
}

// Identity returns the caller set by the auth middleware, or nil.
func Identity(c *gin.Context) *models.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	id, _ := v.(*models.Identity)
	return id
}

// SessionID returns the session id set by the auth middleware.
func SessionID(c *gin.Context) string {
	return c.GetString(sessionIDKey)
}
