package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/mediinsight-be/internal/access"
	"github.com/isdelr/mediinsight-be/internal/models"
	"github.com/isdelr/mediinsight-be/internal/prediction"
	"github.com/isdelr/mediinsight-be/internal/services"
	"github.com/rs/zerolog/log"
)

// Predictor is the part of the prediction gateway the handlers use.
type Predictor interface {
	Predict(ctx context.Context, owner string, kind models.ModelKind, values map[string]string) (models.Report, error)
	Rerun(report models.Report) (string, error)
}

// PredictionHandler serves the per-model forms and submissions.
type PredictionHandler struct {
	gateway Predictor
	events  services.EventServiceProvider
}

// NewPredictionHandler creates a new PredictionHandler.
func NewPredictionHandler(gateway Predictor, events services.EventServiceProvider) *PredictionHandler {
	return &PredictionHandler{gateway: gateway, events: events}
}

// Form returns the input schema of the model named by {kind}.
func (h *PredictionHandler) Form(w http.ResponseWriter, r *http.Request) {
	if _, ok := authorize(w, r, access.Predict, access.Resource{}); !ok {
		return
	}
	kind, ok := prediction.ParseKind(chi.URLParam(r, "kind"))
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown model")
		return
	}
	schema, _ := prediction.SchemaFor(kind)
	writeJSON(w, http.StatusOK, schema)
}

// Submit scores the submitted features and stores the result as a report.
func (h *PredictionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	identity, ok := authorize(w, r, access.Predict, access.Resource{})
	if !ok {
		return
	}
	kind, ok := prediction.ParseKind(chi.URLParam(r, "kind"))
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown model")
		return
	}

	values, err := readValues(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	report, err := h.gateway.Predict(r.Context(), identity.Username, kind, values)
	if err != nil {
		writeServiceError(w, err, "Failed to store prediction")
		return
	}

	log.Info().Str("username", identity.Username).Int64("report_id", report.ID).Str("result", report.Result).Msg("Prediction stored")
	recordEvent(r, h.events, "report.create", "info",
		fmt.Sprintf("%s for '%s': %s.", report.ModelType, report.User, report.Result), &identity.Username)
	writeJSON(w, http.StatusCreated, report)
}

// readValues accepts a JSON object of strings or numbers, or an HTML form.
func readValues(r *http.Request) (map[string]string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var raw map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			return nil, err
		}
		values := make(map[string]string, len(raw))
		for k, v := range raw {
			var s string
			if err := json.Unmarshal(v, &s); err == nil {
				values[k] = s
				continue
			}
			// numbers and anything else are passed through verbatim; validation rejects non-numbers
			values[k] = string(bytes.TrimSpace(v))
		}
		return values, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	values := make(map[string]string, len(r.PostForm))
	for k := range r.PostForm {
		values[k] = r.PostForm.Get(k)
	}
	return values, nil
}
