package handlers

import (
	"net/http"
	"strconv"

	"github.com/isdelr/mediinsight-be/internal/access"
	"github.com/isdelr/mediinsight-be/internal/services"
)

// EventHandler handles HTTP requests related to audit events.
type EventHandler struct {
	service services.EventServiceProvider
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(service services.EventServiceProvider) *EventHandler {
	return &EventHandler{service: service}
}

// GetRecent handles the request to get recent activity. Admin only.
func (h *EventHandler) GetRecent(w http.ResponseWriter, r *http.Request) {
	if _, ok := authorize(w, r, access.ViewAdminDashboard, access.Resource{}); !ok {
		return
	}
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 || limit > 500 {
		limit = recentEventLimit
	}

	events, err := h.service.GetRecentEvents(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err, "Failed to retrieve events")
		return
	}
	writeJSON(w, http.StatusOK, events)
}
