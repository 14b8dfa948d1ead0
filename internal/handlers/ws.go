package handlers

import (
	"github.com/coder/websocket"
	"github.com/pocketbase/pocketbase/core"

	"github.com/jhalickman/live-poll/internal/security"
	"github.com/jhalickman/live-poll/internal/services"
)

type WSHandler struct {
	coordinator *services.Coordinator
	origins     *security.OriginValidator
}

func NewWSHandler(coordinator *services.Coordinator, origins *security.OriginValidator) *WSHandler {
	return &WSHandler{
		coordinator: coordinator,
		origins:     origins,
	}
}

// HandleWebSocket upgrades the request and runs the connection's pumps
// until it disconnects. The owner identity, if any, is resolved once at
// upgrade time from the authenticated request; takers stay anonymous.
func (h *WSHandler) HandleWebSocket(re *core.RequestEvent) error {
	identity := ""
	if re.Auth != nil {
		identity = re.Auth.Id
	}

	conn, err := websocket.Accept(re.Response, re.Request, h.origins.GetAcceptOptions())
	if err != nil {
		return err
	}
	defer conn.Close(websocket.StatusInternalError, "")

	client := services.NewClient(conn, h.coordinator, identity)
	h.coordinator.Connect(client)

	// Hold the request open until the connection closes; the
	// coordinator removes it from its room on the way out.
	client.Start()
	client.Wait()
	return nil
}
