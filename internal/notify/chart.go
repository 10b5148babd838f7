package notify

import (
	"bytes"
	"errors"

	chart "github.com/wcharczuk/go-chart/v2"
)

// RenderAreaChart draws the per-area due counts as a bar chart PNG.
// Chart rendering is decoration: callers treat a failure as a logged
// degradation and send a text-only notification.
func RenderAreaChart(areas []AreaCount) ([]byte, error) {
	if len(areas) == 0 {
		return nil, errors.New("no areas to chart")
	}

	bars := make([]chart.Value, 0, len(areas))
	maxCount := 0
	for _, a := range areas {
		label := a.Area
		if label == "" {
			label = "(unset)"
		}
		bars = append(bars, chart.Value{Value: float64(a.Count), Label: label})
		if a.Count > maxCount {
			maxCount = a.Count
		}
	}

	graph := chart.BarChart{
		Title:    "Due inspections by area",
		Height:   400,
		BarWidth: 60,
		Bars:     bars,
		YAxis: chart.YAxis{
			// Pin the range so a single bar doesn't degenerate to a
			// zero-height axis.
			Range: &chart.ContinuousRange{Min: 0, Max: float64(maxCount) + 1},
			ValueFormatter: func(v any) string {
				return chart.FloatValueFormatterWithFormat(v, "%.0f")
			},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
