package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/mediinsight-be/internal/access"
	"github.com/isdelr/mediinsight-be/internal/auth"
	"github.com/isdelr/mediinsight-be/internal/models"
	"github.com/isdelr/mediinsight-be/internal/prediction"
	"github.com/isdelr/mediinsight-be/internal/services"
	"github.com/rs/zerolog/log"
)

// Safe pages a denied client is pointed to.
const (
	LoginPage     = "/login"
	DashboardPage = "/dashboard"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error    string                  `json:"error"`
	Redirect string                  `json:"redirect,omitempty"`
	Fields   []prediction.FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// authorize applies the access policy to the caller. On deny it writes the
// response and returns false.
func authorize(w http.ResponseWriter, r *http.Request, action access.Action, res access.Resource) (*models.Identity, bool) {
	identity := auth.IdentityFromContext(r.Context())
	decision := access.Authorize(identity, action, res)
	if decision.Allowed {
		return identity, true
	}

	event := log.Warn().Str("action", string(action)).Str("reason", decision.Reason).Str("path", r.URL.Path)
	if identity != nil {
		event = event.Str("username", identity.Username)
	}
	event.Msg("Access denied")

	if decision.Reason == access.ReasonAuthRequired {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: decision.Reason, Redirect: LoginPage})
		return nil, false
	}
	writeJSON(w, http.StatusForbidden, ErrorResponse{Error: decision.Reason, Redirect: DashboardPage})
	return nil, false
}

// writeServiceError maps a domain error to its status code. Internal causes
// are logged, never sent to the client.
func writeServiceError(w http.ResponseWriter, err error, msg string) {
	var (
		verr *prediction.ValidationError
		merr *prediction.ModelError
	)
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid input", Fields: verr.Fields})
	case errors.As(err, &merr):
		log.Error().Err(err).Msg(msg)
		writeError(w, http.StatusBadGateway, "Prediction model failed")
	case errors.Is(err, prediction.ErrUnknownKind):
		writeError(w, http.StatusNotFound, "Unknown model")
	case errors.Is(err, services.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, services.ErrDuplicateUsername):
		writeError(w, http.StatusConflict, "Username already exists")
	case errors.Is(err, services.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, "Email already registered")
	case errors.Is(err, services.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
	default:
		log.Error().Err(err).Msg(msg)
		writeError(w, http.StatusInternalServerError, msg)
	}
}

// reportID parses the {id} URL parameter.
func reportID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// recordEvent writes an audit event. Failures are logged and otherwise ignored.
func recordEvent(r *http.Request, events services.EventServiceProvider, eventType, level, msg string, username *string) {
	if events == nil {
		return
	}
	if err := events.CreateEvent(r.Context(), eventType, level, msg, username); err != nil {
		log.Error().Err(err).Str("type", eventType).Msg("Failed to record event")
	}
}
