package prediction

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/isdelr/mediinsight-be/internal/models"
	"github.com/rs/zerolog/log"
)

// ReportAppender is the part of the report store the gateway writes to.
type ReportAppender interface {
	Append(ctx context.Context, report models.Report) (models.Report, error)
}

// Gateway validates inputs, invokes the classifier for a model kind and
// records every successful prediction as a report.
type Gateway struct {
	classifiers map[models.ModelKind]Classifier
	reports     ReportAppender
}

// NewGateway creates a Gateway. reports may be nil for a gateway that only
// evaluates (Rerun) and never persists.
func NewGateway(reports ReportAppender, classifiers map[models.ModelKind]Classifier) *Gateway {
	return &Gateway{classifiers: classifiers, reports: reports}
}

// LoadClassifiers loads the model artifact of every kind from paths.
func LoadClassifiers(paths map[models.ModelKind]string) (map[models.ModelKind]Classifier, error) {
	out := make(map[models.ModelKind]Classifier, len(paths))
	for kind, path := range paths {
		schema, ok := SchemaFor(kind)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
		}
		m, err := LoadLinearModel(path, schema)
		if err != nil {
			return nil, err
		}
		out[kind] = m
	}
	return out, nil
}

// Validate converts raw form values into the ordered feature vector of kind.
// Every failing field is reported, not only the first.
func Validate(kind models.ModelKind, values map[string]string) ([]float64, error) {
	schema, ok := SchemaFor(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	features := make([]float64, len(schema.Features))
	var verr ValidationError
	for i, f := range schema.Features {
		raw, ok := f.lookup(values)
		raw = strings.TrimSpace(raw)
		if !ok || raw == "" {
			verr.Fields = append(verr.Fields, FieldError{Field: f.Key, Reason: "is required"})
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			verr.Fields = append(verr.Fields, FieldError{Field: f.Key, Reason: "must be a number"})
			continue
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			verr.Fields = append(verr.Fields, FieldError{Field: f.Key, Reason: "must be a finite number"})
			continue
		}
		features[i] = v
	}
	if len(verr.Fields) > 0 {
		return nil, &verr
	}
	return features, nil
}

// Evaluate runs the classifier of kind on features and maps its output to a
// label. A classifier error, panic or out-of-range output becomes a ModelError.
func (g *Gateway) Evaluate(kind models.ModelKind, features []float64) (label string, err error) {
	c, ok := g.classifiers[kind]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	defer func() {
		if p := recover(); p != nil {
			err = &ModelError{Kind: kind, Err: fmt.Errorf("panic: %v", p)}
		}
	}()

	out, err := c.Predict(features)
	if err != nil {
		return "", &ModelError{Kind: kind, Err: err}
	}
	negative, positive := kind.Labels()
	switch out {
	case 0:
		return negative, nil
	case 1:
		return positive, nil
	}
	return "", &ModelError{Kind: kind, Err: fmt.Errorf("unexpected output %d", out)}
}

// Predict validates values, scores them and appends the resulting report for
// owner. A prediction that cannot be stored is returned as an error.
func (g *Gateway) Predict(ctx context.Context, owner string, kind models.ModelKind, values map[string]string) (models.Report, error) {
	features, err := Validate(kind, values)
	if err != nil {
		return models.Report{}, err
	}

	label, err := g.Evaluate(kind, features)
	if err != nil {
		log.Error().Err(err).Str("username", owner).Str("model", string(kind)).Msg("Classifier invocation failed")
		return models.Report{}, err
	}

	if g.reports == nil {
		return models.Report{}, fmt.Errorf("gateway has no report store")
	}
	schema, _ := SchemaFor(kind)
	report, err := g.reports.Append(ctx, models.Report{
		User:      owner,
		ModelType: kind,
		InputData: Snapshot(schema, features),
		Result:    label,
	})
	if err != nil {
		return models.Report{}, fmt.Errorf("failed to store prediction: %w", err)
	}
	return report, nil
}

// Rerun scores the stored input of report with the current classifier
// without persisting anything.
func (g *Gateway) Rerun(report models.Report) (string, error) {
	values, err := ParseSnapshot(report.InputData)
	if err != nil {
		return "", err
	}
	features, err := Validate(report.ModelType, values)
	if err != nil {
		return "", err
	}
	return g.Evaluate(report.ModelType, features)
}

// Snapshot serializes features as "key=value,key=value" in schema order.
func Snapshot(schema Schema, features []float64) string {
	parts := make([]string, len(schema.Features))
	for i, f := range schema.Features {
		parts[i] = f.Key + "=" + strconv.FormatFloat(features[i], 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}

// ParseSnapshot is the inverse of Snapshot.
func ParseSnapshot(s string) (map[string]string, error) {
	values := map[string]string{}
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("malformed input snapshot %q", s)
		}
		values[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return values, nil
}
