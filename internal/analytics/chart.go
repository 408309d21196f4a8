package analytics

import (
	"io"

	"github.com/isdelr/mediinsight-be/internal/models"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var labelColors = map[string]drawing.Color{
	models.LabelBenign:      drawing.ColorFromHex("2e7d32"),
	models.LabelMalignant:   drawing.ColorFromHex("c62828"),
	models.LabelDiabetic:    drawing.ColorFromHex("ef6c00"),
	models.LabelNonDiabetic: drawing.ColorFromHex("1565c0"),
}

// RenderBreakdownChart draws one bar per (model kind, label) pair as PNG.
func RenderBreakdownChart(w io.Writer, s Summary) error {
	var bars []chart.Value
	for _, kind := range models.Kinds {
		negative, positive := kind.Labels()
		for _, label := range []string{negative, positive} {
			bars = append(bars, chart.Value{
				Label: label,
				Value: float64(s.Count(kind, label)),
				Style: chart.Style{FillColor: labelColors[label], StrokeColor: labelColors[label]},
			})
		}
	}
	return renderBars(w, "Prediction Result Comparison", bars)
}

// RenderUsageChart draws the number of predictions per model kind as PNG.
func RenderUsageChart(w io.Writer, usage map[models.ModelKind]int) error {
	sky := drawing.ColorFromHex("87ceeb")
	var bars []chart.Value
	for _, kind := range models.Kinds {
		bars = append(bars, chart.Value{
			Label: kind.Short(),
			Value: float64(usage[kind]),
			Style: chart.Style{FillColor: sky, StrokeColor: sky},
		})
	}
	return renderBars(w, "Your Prediction Usage", bars)
}

func renderBars(w io.Writer, title string, bars []chart.Value) error {
	// a zero-height range makes the renderer fail, so the axis always spans at least 1
	top := 1.0
	for _, b := range bars {
		if b.Value > top {
			top = b.Value
		}
	}
	graph := chart.BarChart{
		Title:      title,
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		Width:      640,
		Height:     400,
		BarWidth:   60,
		BarSpacing: 40,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: top},
		},
		Bars: bars,
	}
	return graph.Render(chart.PNG, w)
}
