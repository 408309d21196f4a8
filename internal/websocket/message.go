package websocket

import (
	"encoding/json"

	"github.com/isdelr/mediinsight-be/internal/models"
	"github.com/rs/zerolog/log"
)

// Actions pushed to clients.
const (
	ActionReportCreated = "report_created"
	ActionReportDeleted = "report_deleted"
	ActionPong          = "pong"
	ActionError         = "error"
)

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

func encode(msg Message) []byte {
	b, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("action", msg.Action).Msg("Failed to encode websocket message")
		return nil
	}
	return b
}

// NewReportMessage wraps a report change.
func NewReportMessage(action string, report models.Report) []byte {
	return encode(Message{Action: action, Payload: report})
}

// NewErrorMessage wraps an error string.
func NewErrorMessage(text string) []byte {
	return encode(Message{Action: ActionError, Payload: map[string]string{"error": text}})
}

// NewPongMessage answers a client ping.
func NewPongMessage() []byte {
	return encode(Message{Action: ActionPong})
}
