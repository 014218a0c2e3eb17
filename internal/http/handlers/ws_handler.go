// README: Websocket endpoint; joins callers to their role and user rooms.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"gasline/internal/http/middleware"
	"gasline/internal/push"
	"gasline/internal/types"
)

type WSHandler struct {
	hub      *push.Hub
	upgrader websocket.Upgrader
}

func NewWSHandler(hub *push.Hub) *WSHandler {
	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Cross-origin is allowed; authentication already happened in
			// the auth middleware.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *WSHandler) Subscribe(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	rooms := []string{
		push.RoleRoom(middleware.CallerRole(c)),
		push.UserRoom(types.ID(middleware.CallerUID(c))),
	}
	sub := h.hub.Join(conn, rooms)

	// The read side only exists to notice the close.
	go func() {
		defer sub.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
