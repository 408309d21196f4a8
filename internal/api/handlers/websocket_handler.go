package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/isdelr/mediinsight-be/internal/access"
	ws "github.com/isdelr/mediinsight-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler upgrades signed-in clients to the live report feed.
type WebSocketHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a new WebSocketHandler. Cross-origin upgrades are
// accepted only from allowedOrigins; same-origin requests always are.
func NewWebSocketHandler(hub *ws.Hub, allowedOrigins []string) *WebSocketHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed[origin] || origin == "http://"+r.Host || origin == "https://"+r.Host
			},
		},
	}
}

// Serve handles the WebSocket connection request.
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	identity, ok := authorize(w, r, access.ViewOwnDashboard, access.Resource{})
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}

	client := ws.NewClient(h.hub, conn, *identity)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
