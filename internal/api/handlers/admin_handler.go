package handlers

import (
	"fmt"
	"net/http"

	"github.com/isdelr/mediinsight-be/internal/access"
	"github.com/isdelr/mediinsight-be/internal/models"
	"github.com/isdelr/mediinsight-be/internal/services"
	"github.com/rs/zerolog/log"
)

// StatsProvider returns the latest host sample.
type StatsProvider interface {
	Latest() models.SystemStats
}

// AdminHandler serves the admin dashboard and report deletion.
type AdminHandler struct {
	users   services.UserServiceProvider
	reports services.ReportServiceProvider
	events  services.EventServiceProvider
	stats   StatsProvider
}

// NewAdminHandler creates a new AdminHandler. stats may be nil.
func NewAdminHandler(users services.UserServiceProvider, reports services.ReportServiceProvider, events services.EventServiceProvider, stats StatsProvider) *AdminHandler {
	return &AdminHandler{users: users, reports: reports, events: events, stats: stats}
}

// Totals counts the stored records.
type Totals struct {
	Users   int `json:"users"`
	Reports int `json:"reports"`
}

// AdminDashboard is the body of Dashboard.
type AdminDashboard struct {
	Users   []models.User       `json:"users"`
	Reports []models.Report     `json:"reports"`
	Totals  Totals              `json:"totals"`
	Events  []models.Event      `json:"events"`
	Stats   *models.SystemStats `json:"stats,omitempty"`
}

const recentEventLimit = 20

// Dashboard lists every user and report with totals, recent events and host stats.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if _, ok := authorize(w, r, access.ViewAdminDashboard, access.Resource{}); !ok {
		return
	}
	ctx := r.Context()

	users, err := h.users.ListUsers(ctx)
	if err != nil {
		writeServiceError(w, err, "Failed to retrieve users")
		return
	}
	reports, err := h.reports.ListAll(ctx)
	if err != nil {
		writeServiceError(w, err, "Failed to retrieve reports")
		return
	}
	events, err := h.events.GetRecentEvents(ctx, recentEventLimit)
	if err != nil {
		// the dashboard is still useful without the audit trail
		log.Error().Err(err).Msg("Failed to retrieve events")
		events = []models.Event{}
	}

	body := AdminDashboard{
		Users:   users,
		Reports: reports,
		Totals:  Totals{Users: len(users), Reports: len(reports)},
		Events:  events,
	}
	if h.stats != nil {
		stats := h.stats.Latest()
		body.Stats = &stats
	}
	writeJSON(w, http.StatusOK, body)
}

// DeleteReport removes any report. Admin only.
func (h *AdminHandler) DeleteReport(w http.ResponseWriter, r *http.Request) {
	identity, ok := authorize(w, r, access.DeleteAnyReport, access.Resource{})
	if !ok {
		return
	}
	id, ok := reportID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid report id")
		return
	}

	removed, err := h.reports.Delete(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "Failed to delete report")
		return
	}

	log.Info().Str("username", identity.Username).Int64("report_id", id).Msg("Report deleted")
	recordEvent(r, h.events, "report.delete", "warn",
		fmt.Sprintf("Report %d of '%s' deleted by '%s'.", removed.ID, removed.User, identity.Username), &identity.Username)
	w.WriteHeader(http.StatusNoContent)
}
