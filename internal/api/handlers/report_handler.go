package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/isdelr/mediinsight-be/internal/access"
	"github.com/isdelr/mediinsight-be/internal/analytics"
	"github.com/isdelr/mediinsight-be/internal/auth"
	"github.com/isdelr/mediinsight-be/internal/models"
	"github.com/isdelr/mediinsight-be/internal/prediction"
	"github.com/isdelr/mediinsight-be/internal/services"
	"github.com/rs/zerolog/log"
)

// ReportHandler serves report listings, charts, exports, downloads and re-runs.
type ReportHandler struct {
	reports services.ReportServiceProvider
	gateway Predictor

	// adminSeesAll widens an admin's listing from their own reports to every report.
	adminSeesAll bool
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reports services.ReportServiceProvider, gateway Predictor, adminSeesAll bool) *ReportHandler {
	return &ReportHandler{reports: reports, gateway: gateway, adminSeesAll: adminSeesAll}
}

// ListResponse is the body of List.
type ListResponse struct {
	Reports []models.Report   `json:"reports"`
	Summary []analytics.Row   `json:"summary"`
	Usage   map[string]int    `json:"usage"`
	Options analytics.Options `json:"options"`
	Filter  analytics.Filter  `json:"filter"`
}

func (h *ReportHandler) scoped(ctx context.Context, identity *models.Identity) ([]models.Report, error) {
	if identity.IsAdmin && h.adminSeesAll {
		return h.reports.ListAll(ctx)
	}
	return h.reports.ListByOwner(ctx, identity.Username)
}

func filterFrom(r *http.Request) analytics.Filter {
	q := r.URL.Query()
	f := analytics.Filter{Result: q.Get("result")}
	if raw := q.Get("modelType"); raw != "" {
		if kind, ok := prediction.ParseKind(raw); ok {
			f.ModelType = kind
		} else {
			f.ModelType = models.ModelKind(raw)
		}
	}
	return f
}

// filtered loads the caller's reports and applies the query filter.
func (h *ReportHandler) filtered(w http.ResponseWriter, r *http.Request, action access.Action) ([]models.Report, []models.Report, analytics.Filter, bool) {
	identity, ok := authorize(w, r, action, access.Resource{})
	if !ok {
		return nil, nil, analytics.Filter{}, false
	}
	all, err := h.scoped(r.Context(), identity)
	if err != nil {
		writeServiceError(w, err, "Failed to retrieve reports")
		return nil, nil, analytics.Filter{}, false
	}
	f := filterFrom(r)
	return all, f.Apply(all), f, true
}

// List returns the caller's reports filtered by ?modelType= and ?result=,
// with their breakdown and the available filter options.
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	all, reports, f, ok := h.filtered(w, r, access.ViewOwnDashboard)
	if !ok {
		return
	}
	usage := map[string]int{}
	for kind, n := range analytics.Usage(reports) {
		usage[string(kind)] = n
	}
	writeJSON(w, http.StatusOK, ListResponse{
		Reports: reports,
		Summary: analytics.Summarize(reports).Rows(),
		Usage:   usage,
		Options: analytics.OptionsFor(all),
		Filter:  f,
	})
}

// BreakdownChart renders the (model, result) counts of the filtered reports as PNG.
func (h *ReportHandler) BreakdownChart(w http.ResponseWriter, r *http.Request) {
	_, reports, _, ok := h.filtered(w, r, access.ViewCharts)
	if !ok {
		return
	}
	writePNG(w, func(buf *bytes.Buffer) error {
		return analytics.RenderBreakdownChart(buf, analytics.Summarize(reports))
	})
}

// UsageChart renders the number of predictions per model as PNG.
func (h *ReportHandler) UsageChart(w http.ResponseWriter, r *http.Request) {
	_, reports, _, ok := h.filtered(w, r, access.ViewCharts)
	if !ok {
		return
	}
	writePNG(w, func(buf *bytes.Buffer) error {
		return analytics.RenderUsageChart(buf, analytics.Usage(reports))
	})
}

// ExportCSV downloads the filtered reports as CSV.
func (h *ReportHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	_, reports, _, ok := h.filtered(w, r, access.ExportReports)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := analytics.WriteCSV(&buf, reports); err != nil {
		writeServiceError(w, err, "Failed to export reports")
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="reports.csv"`)
	_, _ = w.Write(buf.Bytes())
}

// ExportPDF downloads the filtered reports as PDF with the breakdown chart.
func (h *ReportHandler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	_, reports, _, ok := h.filtered(w, r, access.ExportReports)
	if !ok {
		return
	}
	doc := analytics.Document{Title: "MediInsight Reports", Reports: reports}
	var img bytes.Buffer
	if err := analytics.RenderBreakdownChart(&img, analytics.Summarize(reports)); err != nil {
		log.Warn().Err(err).Msg("Exporting PDF without chart")
	} else {
		doc.Chart = img.Bytes()
	}
	writePDF(w, doc, "reports.pdf")
}

// Download returns one report as PDF. Only the report's owner may download it.
func (h *ReportHandler) Download(w http.ResponseWriter, r *http.Request) {
	report, ok := h.loadReport(w, r, access.DownloadReport)
	if !ok {
		return
	}
	writePDF(w, analytics.SingleReport(report), fmt.Sprintf("report_%d.pdf", report.ID))
}

// RerunResponse is the body of Rerun.
type RerunResponse struct {
	Report        models.Report `json:"report"`
	CurrentResult string        `json:"currentResult"`
	Changed       bool          `json:"changed"`
}

// Rerun scores a stored report's input with the current model. Nothing is stored.
func (h *ReportHandler) Rerun(w http.ResponseWriter, r *http.Request) {
	report, ok := h.loadReport(w, r, access.RerunReport)
	if !ok {
		return
	}
	label, err := h.gateway.Rerun(report)
	if err != nil {
		writeServiceError(w, err, "Failed to re-run prediction")
		return
	}
	writeJSON(w, http.StatusOK, RerunResponse{Report: report, CurrentResult: label, Changed: label != report.Result})
}

// loadReport fetches {id} and authorizes action against it. Anonymous
// callers are turned away before the lookup.
func (h *ReportHandler) loadReport(w http.ResponseWriter, r *http.Request, action access.Action) (models.Report, bool) {
	if auth.IdentityFromContext(r.Context()) == nil {
		authorize(w, r, action, access.Resource{})
		return models.Report{}, false
	}
	id, ok := reportID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid report id")
		return models.Report{}, false
	}
	report, err := h.reports.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "Failed to retrieve report")
		return models.Report{}, false
	}
	if _, ok := authorize(w, r, action, access.Resource{Report: &report}); !ok {
		return models.Report{}, false
	}
	return report, true
}

func writePNG(w http.ResponseWriter, render func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		writeServiceError(w, err, "Failed to render chart")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(buf.Bytes())
}

func writePDF(w http.ResponseWriter, doc analytics.Document, filename string) {
	var buf bytes.Buffer
	if err := analytics.WritePDF(&buf, doc); err != nil {
		writeServiceError(w, err, "Failed to generate PDF")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	_, _ = w.Write(buf.Bytes())
}
