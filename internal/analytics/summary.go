// Package analytics derives counts, filtered views and exportable documents
// from a collection of reports. Everything here is a pure function of its input.
package analytics

import (
	"sort"

	"github.com/isdelr/mediinsight-be/internal/models"
)

// Key identifies one bar of the breakdown chart.
type Key struct {
	Kind  models.ModelKind
	Label string
}

// Summary counts reports per (model kind, result label).
type Summary map[Key]int

// Row is the JSON form of one Summary entry.
type Row struct {
	Kind  models.ModelKind `json:"modelType"`
	Label string           `json:"result"`
	Count int              `json:"count"`
}

// Summarize folds reports into a Summary. An empty input gives an empty Summary.
func Summarize(reports []models.Report) Summary {
	s := Summary{}
	for _, r := range reports {
		s[Key{Kind: r.ModelType, Label: r.Result}]++
	}
	return s
}

// Count returns the number of reports of kind with label.
func (s Summary) Count(kind models.ModelKind, label string) int {
	return s[Key{Kind: kind, Label: label}]
}

// Total is the number of reports summarized.
func (s Summary) Total() int {
	n := 0
	for _, c := range s {
		n += c
	}
	return n
}

// Rows returns the entries sorted by kind then label.
func (s Summary) Rows() []Row {
	rows := make([]Row, 0, len(s))
	for k, c := range s {
		rows = append(rows, Row{Kind: k.Kind, Label: k.Label, Count: c})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Kind != rows[j].Kind {
			return rows[i].Kind < rows[j].Kind
		}
		return rows[i].Label < rows[j].Label
	})
	return rows
}

// Usage counts reports per model kind.
func Usage(reports []models.Report) map[models.ModelKind]int {
	u := map[models.ModelKind]int{}
	for _, r := range reports {
		u[r.ModelType]++
	}
	return u
}

// Filter selects reports by model kind and result. Empty fields match anything.
type Filter struct {
	ModelType models.ModelKind `json:"modelType,omitempty"`
	Result    string           `json:"result,omitempty"`
}

// Apply returns the reports matching f, preserving order.
func (f Filter) Apply(reports []models.Report) []models.Report {
	out := make([]models.Report, 0, len(reports))
	for _, r := range reports {
		if f.ModelType != "" && r.ModelType != f.ModelType {
			continue
		}
		if f.Result != "" && r.Result != f.Result {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Options lists the distinct model kinds and results present in reports,
// sorted, for filter drop-downs.
type Options struct {
	ModelTypes []string `json:"modelTypes"`
	Results    []string `json:"results"`
}

// OptionsFor collects the filter options of reports.
func OptionsFor(reports []models.Report) Options {
	kinds := map[string]bool{}
	results := map[string]bool{}
	for _, r := range reports {
		kinds[string(r.ModelType)] = true
		results[r.Result] = true
	}
	return Options{ModelTypes: sortedKeys(kinds), Results: sortedKeys(results)}
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
