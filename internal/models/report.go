package models

import "time"

// ModelKind names the classifier that produced a report. The value is the
// display name persisted in reports.model_type.
type ModelKind string

const (
	KindTumor    ModelKind = "Tumor Prediction"
	KindDiabetes ModelKind = "Diabetes Prediction"
)

// Result labels, one pair per model kind.
const (
	LabelBenign      = "Benign Tumor"
	LabelMalignant   = "Malignant Tumor"
	LabelNonDiabetic = "Non-Diabetic"
	LabelDiabetic    = "Diabetic"
)

// Kinds lists every model kind in display order.
var Kinds = []ModelKind{KindTumor, KindDiabetes}

// Short returns the chart label for the kind ("Tumor", "Diabetes").
func (k ModelKind) Short() string {
	switch k {
	case KindTumor:
		return "Tumor"
	case KindDiabetes:
		return "Diabetes"
	}
	return string(k)
}

// Labels returns the (negative, positive) label pair for the kind.
func (k ModelKind) Labels() (string, string) {
	switch k {
	case KindTumor:
		return LabelBenign, LabelMalignant
	case KindDiabetes:
		return LabelNonDiabetic, LabelDiabetic
	}
	return "", ""
}

// Report is one persisted prediction. User holds the owner's username; it is
// not a reference the store enforces.
type Report struct {
	ID        int64     `json:"id"`
	User      string    `json:"user"`
	ModelType ModelKind `json:"modelType"`
	InputData string    `json:"inputData"`
	Result    string    `json:"result"`
	Timestamp time.Time `json:"timestamp"`
}
