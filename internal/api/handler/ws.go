package handler

import (
	"log"
	"net/http"

	"cleantrack/backend/internal/api/middleware"
	"cleantrack/backend/internal/feed"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// callers authenticate with ?token=, any origin may connect
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades an authenticated request to the live feed.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	id := middleware.Identity(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ERROR: Failed to upgrade feed connection for %s: %v", id.ID, err)
		return
	}

	if h.Hub.IsConnected(id.ID) {
		log.Printf("INFO: Replacing existing feed connection of %s.", id.ID)
	}

	client := feed.NewWebSocketClient(h.Hub, conn, id)
	if !h.Hub.Register(client) {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}
	client.Run()
}
