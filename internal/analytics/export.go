package analytics

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	"github.com/isdelr/mediinsight-be/internal/models"
)

// DisplayTimeLayout is how timestamps appear in exported documents.
const DisplayTimeLayout = "2006-01-02 15:04"

var csvHeader = []string{"timestamp", "model_type", "input_data", "result"}

// WriteCSV writes one row per report after a header row.
func WriteCSV(w io.Writer, reports []models.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range reports {
		row := []string{r.Timestamp.UTC().Format("2006-01-02 15:04:05"), string(r.ModelType), r.InputData, r.Result}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Document is a printable report. Chart, when set, is a PNG placed after the text.
type Document struct {
	Title   string
	Reports []models.Report
	Chart   []byte
}

// SingleReport builds the document for one downloaded report.
func SingleReport(r models.Report) Document {
	return Document{Title: "MediInsight Report", Reports: []models.Report{r}}
}

// WritePDF renders doc as PDF to w.
func WritePDF(w io.Writer, doc Document) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(190, 10, tr(doc.Title), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 12)

	if len(doc.Reports) == 0 {
		pdf.CellFormat(190, 10, "No reports.", "", 1, "L", false, 0, "")
	}
	for i, r := range doc.Reports {
		if i > 0 {
			pdf.Ln(4)
		}
		lines := []string{
			"Date: " + r.Timestamp.UTC().Format(DisplayTimeLayout),
			"Model Type: " + string(r.ModelType),
			"Input Data: " + r.InputData,
			"Result: " + r.Result,
		}
		if len(doc.Reports) > 1 {
			lines = append([]string{fmt.Sprintf("Report #%d (%s)", r.ID, r.User)}, lines...)
		}
		for _, line := range lines {
			pdf.CellFormat(190, 8, tr(line), "", 1, "L", false, 0, "")
		}
	}

	if len(doc.Chart) > 0 {
		opts := fpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("chart", opts, bytes.NewReader(doc.Chart))
		pdf.ImageOptions("chart", 10, pdf.GetY()+5, 180, 0, true, opts, 0, "")
	}

	return pdf.Output(w)
}
