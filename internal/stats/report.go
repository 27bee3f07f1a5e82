package stats

import (
	"context"
	"fmt"
	"io"

	"github.com/verte-zerg/wavescope/internal/model"
	"github.com/verte-zerg/wavescope/internal/store"
)

const sparkWidth = 24

// Report pairs captures with their computed metrics.
type Report struct {
	Captures []model.Capture
	Metrics  []Metrics
}

// BuildReport loads captures matching filter and computes their metrics.
func BuildReport(ctx context.Context, st *store.Store, filter model.CaptureFilter) (Report, error) {
	captures, err := st.ListCaptures(ctx, filter)
	if err != nil {
		return Report{}, fmt.Errorf("list captures: %w", err)
	}
	metrics := make([]Metrics, len(captures))
	for i, c := range captures {
		metrics[i] = Compute(c.Samples, c.SampleIntervalMs)
	}
	return Report{Captures: captures, Metrics: metrics}, nil
}

// RenderCaptureTable prints one row per capture.
func RenderCaptureTable(w io.Writer, r Report) error {
	if len(r.Captures) == 0 {
		_, err := fmt.Fprintln(w, "No captures found.")
		return err
	}
	headers := []string{"ID", "Captured", "Device", "Channel", "Fault", "Samples", "Mean", "RMS", "P-P", "Peak Hz", "Shape"}
	rows := make([][]string, 0, len(r.Captures))
	for i, c := range r.Captures {
		m := r.Metrics[i]
		rows = append(rows, []string{
			fmt.Sprintf("%d", c.ID),
			c.CapturedAt.Local().Format("2006-01-02 15:04:05"),
			c.DeviceID,
			string(c.Channel),
			fmt.Sprintf("%s %s", c.Fault, c.Fault.Name()),
			fmt.Sprintf("%d", m.Count),
			fmt.Sprintf("%.3f", m.Mean),
			fmt.Sprintf("%.3f", m.RMS),
			fmt.Sprintf("%.3f", m.PeakToPeak),
			fmt.Sprintf("%.0f", m.DominantHz),
			Sparkline(Downsample(c.Samples, sparkWidth)),
		})
	}
	rightAlign := map[int]bool{0: true, 5: true, 6: true, 7: true, 8: true, 9: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderTrend plots RMS and peak-to-peak across the report's captures,
// smoothed over window captures.
func RenderTrend(w io.Writer, r Report, window, totalWidth, height int, useColor bool) error {
	if len(r.Metrics) < 2 {
		return nil
	}
	rms := make([]float64, len(r.Metrics))
	p2p := make([]float64, len(r.Metrics))
	for i, m := range r.Metrics {
		rms[i] = m.RMS
		p2p[i] = m.PeakToPeak
	}
	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	return PlotSeriesWithColor(w, "Capture Trend", []Series{
		{Name: "RMS", Values: MovingAverage(rms, window)},
		{Name: "Peak-to-peak", Values: MovingAverage(p2p, window)},
	}, width, height, useColor)
}
