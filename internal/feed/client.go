package feed

import "cleantrack/backend/internal/models"

// Client is one live subscriber of complaint events, e.g. a WebSocket
// connection. The hub only talks to it through this interface.
type Client interface {
	// GetUserID returns the identity the connection was opened with.
	GetUserID() string
	// GetRole decides which events the client may see.
	GetRole() models.Role

	// GetSendChannel returns the channel the hub delivers events on.
	GetSendChannel() chan<- models.Event

	// Run starts the client's pumps.
	Run()
	// Close stops the client. The hub calls it once, on unregister.
	Close()
}

// CanSee reports whether the event may be delivered to the client. Officials
// follow every complaint; citizens only the ones they reported.
func CanSee(c Client, ev models.Event) bool {
	switch c.GetRole() {
	case models.RoleOfficial:
		return true
	case models.RoleCitizen:
		return ev.ReporterID == c.GetUserID()
	}
	return false
}
