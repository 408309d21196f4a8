package prediction

import (
	"errors"
	"fmt"
	"strings"

	"github.com/isdelr/mediinsight-be/internal/models"
)

// ErrUnknownKind is returned for a model kind with no registered schema or classifier.
var ErrUnknownKind = errors.New("unknown model kind")

// FieldError describes why one input field was rejected.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError lists every rejected field of a prediction request.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Reason)
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// ModelError wraps a classifier failure. Nothing is persisted when one occurs.
type ModelError struct {
	Kind models.ModelKind
	Err  error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("%s model failed: %v", e.Kind, e.Err)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}
