package websocket

import (
	"github.com/isdelr/mediinsight-be/internal/models"
	"github.com/rs/zerolog/log"
)

// AdminTopic receives every report change.
const AdminTopic = "admin"

type publication struct {
	topics  []string
	message []byte
}

// Hub maintains the set of active clients and fans report changes out to the
// owner's topic and the admin topic. All state is owned by the Run goroutine.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// A map of topics to the set of clients subscribed to it.
	subscriptions map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	publish    chan publication
	done       chan struct{}
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:       make(map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		publish:       make(chan publication, 64),
		done:          make(chan struct{}),
	}
}

// Run starts the Hub's message processing loop. It returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			for client := range h.clients {
				h.drop(client)
			}
			return
		case client := <-h.register:
			h.clients[client] = true
			for _, topic := range client.topics() {
				h.addSubscription(client, topic)
			}
			log.Info().Int("total_clients", len(h.clients)).Str("username", client.Username).Msg("Client connected")
		case client := <-h.unregister:
			if h.clients[client] {
				h.drop(client)
				log.Info().Int("total_clients", len(h.clients)).Msg("Client disconnected")
			}
		case p := <-h.publish:
			h.deliver(p)
		}
	}
}

// Stop ends Run and disconnects every client.
func (h *Hub) Stop() {
	close(h.done)
}

// Register adds client to the hub.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unregister removes client from the hub.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish sends message once to every client subscribed to any of topics.
func (h *Hub) Publish(message []byte, topics ...string) {
	if message == nil {
		return
	}
	select {
	case h.publish <- publication{topics: topics, message: message}:
	case <-h.done:
	}
}

// ReportCreated pushes a new report to its owner and to admins.
func (h *Hub) ReportCreated(report models.Report) {
	h.Publish(NewReportMessage(ActionReportCreated, report), report.User, AdminTopic)
}

// ReportDeleted pushes a removal to the report's owner and to admins.
func (h *Hub) ReportDeleted(report models.Report) {
	h.Publish(NewReportMessage(ActionReportDeleted, report), report.User, AdminTopic)
}

func (h *Hub) deliver(p publication) {
	seen := make(map[*Client]bool)
	for _, topic := range p.topics {
		for client := range h.subscriptions[topic] {
			if seen[client] {
				continue
			}
			seen[client] = true
			select {
			case client.Send <- p.message:
			default:
				// slow consumer
				h.drop(client)
			}
		}
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	h.removeSubscription(client)
	close(client.Send)
}

func (h *Hub) addSubscription(client *Client, topic string) {
	if h.subscriptions[topic] == nil {
		h.subscriptions[topic] = make(map[*Client]bool)
	}
	h.subscriptions[topic][client] = true
}

func (h *Hub) removeSubscription(client *Client) {
	for topic, subs := range h.subscriptions {
		if _, ok := subs[client]; ok {
			delete(subs, client)
			if len(subs) == 0 {
				delete(h.subscriptions, topic)
			}
		}
	}
}
