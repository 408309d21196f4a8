package prediction

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// Classifier is a pre-trained binary model. Predict returns 0 or 1.
type Classifier interface {
	Predict(features []float64) (int, error)
}

// ClassifierFunc adapts a plain function to Classifier.
type ClassifierFunc func(features []float64) (int, error)

// Predict calls f.
func (f ClassifierFunc) Predict(features []float64) (int, error) {
	return f(features)
}

// LinearModel is a logistic-regression artifact exported by the training
// pipeline. The file format is JSON:
//
//	{"features": ["size", ...], "weights": [1.2, ...], "bias": -2, "threshold": 0.5}
type LinearModel struct {
	Features  []string  `json:"features"`
	Weights   []float64 `json:"weights"`
	Bias      float64   `json:"bias"`
	Threshold float64   `json:"threshold"`
}

// LoadLinearModel reads a model artifact from path and checks it against schema.
func LoadLinearModel(path string, schema Schema) (*LinearModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model artifact: %w", err)
	}
	var m LinearModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse model artifact %s: %w", path, err)
	}
	if err := m.check(schema); err != nil {
		return nil, fmt.Errorf("model artifact %s: %w", path, err)
	}
	return &m, nil
}

func (m *LinearModel) check(schema Schema) error {
	if len(m.Weights) != len(schema.Features) {
		return fmt.Errorf("expected %d weights, got %d", len(schema.Features), len(m.Weights))
	}
	if len(m.Features) != 0 {
		if len(m.Features) != len(schema.Features) {
			return fmt.Errorf("expected %d features, got %d", len(schema.Features), len(m.Features))
		}
		for i, f := range schema.Features {
			if m.Features[i] != f.Key {
				return fmt.Errorf("feature %d is %q, expected %q", i, m.Features[i], f.Key)
			}
		}
	}
	if m.Threshold <= 0 || m.Threshold >= 1 {
		m.Threshold = 0.5
	}
	return nil
}

// Predict scores features and returns 1 when the probability reaches the threshold.
func (m *LinearModel) Predict(features []float64) (int, error) {
	if len(features) != len(m.Weights) {
		return 0, fmt.Errorf("expected %d features, got %d", len(m.Weights), len(features))
	}
	z := m.Bias
	for i, x := range features {
		z += m.Weights[i] * x
	}
	if 1/(1+math.Exp(-z)) >= m.Threshold {
		return 1, nil
	}
	return 0, nil
}
