package websocket

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/isdelr/mediinsight-be/internal/models"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 32
)

// Client is one websocket connection bound to an identity.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	// Buffered channel of outbound messages. Closed by the hub.
	Send chan []byte

	// answers to the client's own requests; never closed
	replies chan []byte

	Username string
	IsAdmin  bool
}

// NewClient creates a client for identity on conn.
func NewClient(hub *Hub, conn *websocket.Conn, identity models.Identity) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		Send:     make(chan []byte, sendBuffer),
		replies:  make(chan []byte, 4),
		Username: identity.Username,
		IsAdmin:  identity.IsAdmin,
	}
}

func (c *Client) topics() []string {
	if c.IsAdmin {
		return []string{c.Username, AdminTopic}
	}
	return []string{c.Username}
}

// ReadPump reads client messages until the connection fails, then
// unregisters the client. The only request understood is {"action":"ping"}.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("username", c.Username).Msg("Unexpected websocket close")
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Error().Err(err).Bytes("message", data).Msg("Error decoding websocket message")
			c.reply(NewErrorMessage("invalid message"))
			continue
		}
		switch msg.Action {
		case "ping":
			c.reply(NewPongMessage())
		default:
			log.Warn().Str("action", msg.Action).Msg("Unknown websocket action received")
			c.reply(NewErrorMessage("Unknown action: " + msg.Action))
		}
	}
}

// reply queues message without blocking the read loop.
func (c *Client) reply(message []byte) {
	select {
	case c.replies <- message:
	default:
	}
}

// WritePump drains Send to the connection and keeps it alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case message := <-c.replies:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
