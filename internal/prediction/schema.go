package prediction

import (
	"strings"

	"github.com/isdelr/mediinsight-be/internal/models"
)

// Feature is one named input of a model. Aliases are accepted as form keys.
type Feature struct {
	Key     string   `json:"key"`
	Label   string   `json:"label"`
	Aliases []string `json:"-"`
}

// Schema is the ordered feature list a classifier expects.
type Schema struct {
	Kind     models.ModelKind `json:"kind"`
	Slug     string           `json:"slug"`
	Features []Feature        `json:"features"`
}

var schemas = map[models.ModelKind]Schema{
	models.KindTumor: {
		Kind: models.KindTumor,
		Slug: "tumor",
		Features: []Feature{
			{Key: "size", Label: "Tumor size"},
			{Key: "growth_rate", Label: "Growth rate"},
			{Key: "roundness_score", Label: "Roundness score"},
		},
	},
	models.KindDiabetes: {
		Kind: models.KindDiabetes,
		Slug: "diabetes",
		Features: []Feature{
			{Key: "pregnancies", Label: "Pregnancies", Aliases: []string{"preg"}},
			{Key: "glucose", Label: "Glucose"},
			{Key: "bmi", Label: "BMI"},
		},
	},
}

// SchemaFor returns the feature schema of kind.
func SchemaFor(kind models.ModelKind) (Schema, bool) {
	s, ok := schemas[kind]
	return s, ok
}

// ParseKind resolves a URL slug ("tumor") or a stored display name
// ("Tumor Prediction") to a model kind.
func ParseKind(s string) (models.ModelKind, bool) {
	s = strings.TrimSpace(s)
	for kind, schema := range schemas {
		if strings.EqualFold(s, schema.Slug) || strings.EqualFold(s, string(kind)) {
			return kind, true
		}
	}
	return "", false
}

// lookup finds the raw value for f in values, trying the key then aliases.
func (f Feature) lookup(values map[string]string) (string, bool) {
	if v, ok := values[f.Key]; ok {
		return v, true
	}
	for _, alias := range f.Aliases {
		if v, ok := values[alias]; ok {
			return v, true
		}
	}
	return "", false
}
