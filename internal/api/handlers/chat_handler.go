package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/isdelr/mediinsight-be/internal/access"
	"github.com/isdelr/mediinsight-be/internal/chat"
	"github.com/rs/zerolog/log"
)

// ChatHandler passes a message through to the assistant.
type ChatHandler struct {
	completer chat.Completer
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(completer chat.Completer) *ChatHandler {
	return &ChatHandler{completer: completer}
}

// Send answers {"message": "..."} with {"response": "..."}.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	identity, ok := authorize(w, r, access.Chat, access.Resource{})
	if !ok {
		return
	}
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || strings.TrimSpace(payload.Message) == "" {
		writeError(w, http.StatusBadRequest, "Message is required")
		return
	}

	reply, err := h.completer.Complete(r.Context(), payload.Message)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrEmptyMessage):
			writeError(w, http.StatusBadRequest, "Message is required")
		case errors.Is(err, chat.ErrNotConfigured):
			writeError(w, http.StatusServiceUnavailable, "Chat is not available")
		default:
			log.Error().Err(err).Str("username", identity.Username).Msg("Chat request failed")
			writeError(w, http.StatusBadGateway, "Chat request failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"response": reply})
}
