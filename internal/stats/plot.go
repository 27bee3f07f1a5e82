// Package stats renders waveforms and computes waveform metrics.
package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Series represents a named data series sampled at unit spacing.
type Series struct {
	Name   string
	Values []float64
}

// Trace is a named polyline in data coordinates.
type Trace struct {
	Name string
	X    []float64
	Y    []float64
}

// Window is the visible data range of a frame.
type Window struct {
	XStart float64
	XEnd   float64
	YStart float64
	YEnd   float64
}

func (w Window) valid() bool {
	return finite(w.XStart) && finite(w.XEnd) && finite(w.YStart) && finite(w.YEnd) &&
		w.XEnd > w.XStart && w.YEnd > w.YStart
}

// Frame describes one render of traces through a window into a cell grid
// of Width x Height, gutters included.
type Frame struct {
	Traces []Trace
	Window Window
	Width  int
	Height int
	Color  bool
	// XFormat and YFormat format axis labels; nil uses a compact %g form.
	XFormat func(float64) string
	YFormat func(float64) string
}

// Layout is the cell geometry of a frame.
type Layout struct {
	Left       int
	Top        int
	PlotWidth  int
	PlotHeight int
}

// Usable reports whether the plot area has room to draw in.
func (l Layout) Usable() bool {
	return l.PlotWidth > 0 && l.PlotHeight > 0
}

type lineStyle struct {
	name   string
	period int
	on     int
}

type ansiColor struct {
	name string
	code string
}

const (
	defaultPlotHeight   = 10
	minPlotWidth        = 10
	labelWidth          = 8
	axisSeparator       = " │ "
	axisCorner          = " └─"
	bottomGutter        = 2
	rightMargin         = 1
	scaleNote           = "Scaled per series; see min/max below."
	colorReset          = "\x1b[0m"
	terminalWidthBackup = 80
)

var lineStyles = []lineStyle{
	{name: "solid", period: 1, on: 1},
	{name: "dashed", period: 6, on: 3},
	{name: "dotted", period: 4, on: 1},
	{name: "dashdot", period: 8, on: 3},
}

var colorPalette = []ansiColor{
	{name: "cyan", code: "\x1b[36m"},
	{name: "magenta", code: "\x1b[35m"},
	{name: "yellow", code: "\x1b[33m"},
	{name: "green", code: "\x1b[32m"},
	{name: "blue", code: "\x1b[34m"},
}

// LayoutFor computes the plot area inside a width x height cell grid.
func LayoutFor(width, height int) Layout {
	left := labelWidth + runewidth.StringWidth(axisSeparator)
	return Layout{
		Left:       left,
		Top:        0,
		PlotWidth:  width - left - rightMargin,
		PlotHeight: height - bottomGutter,
	}
}

// RenderWindow draws the frame's traces clipped to its window and returns
// one string per terminal row. It returns nil when the grid is too small.
func RenderWindow(f Frame) []string {
	layout := LayoutFor(f.Width, f.Height)
	if !layout.Usable() {
		return nil
	}
	cv := newCanvas(len(f.Traces), layout.PlotWidth, layout.PlotHeight)
	if f.Window.valid() {
		for i, tr := range f.Traces {
			cv.trace(i, lineStyles[i%len(lineStyles)], tr, f.Window)
		}
	}

	xfmt, yfmt := f.XFormat, f.YFormat
	if xfmt == nil {
		xfmt = formatTick
	}
	if yfmt == nil {
		yfmt = formatTick
	}

	lines := make([]string, 0, f.Height)
	yLabels := makeAxisLabels(layout.PlotHeight, f.Window.YStart, f.Window.YEnd, yfmt)
	for y := 0; y < layout.PlotHeight; y++ {
		var row strings.Builder
		row.WriteString(padLabel(yLabels[y]))
		row.WriteString(axisSeparator)
		for x := 0; x < layout.PlotWidth; x++ {
			ch, colorIdx := cv.cell(x, y)
			if f.Color && colorIdx >= 0 {
				row.WriteString(colorPalette[colorIdx%len(colorPalette)].code)
				row.WriteRune(ch)
				row.WriteString(colorReset)
			} else {
				row.WriteRune(ch)
			}
		}
		lines = append(lines, row.String())
	}
	lines = append(lines, strings.Repeat(" ", labelWidth)+axisCorner+strings.Repeat("─", layout.PlotWidth))
	lines = append(lines, strings.Repeat(" ", layout.Left)+xAxisLabels(layout.PlotWidth, f.Window.XStart, f.Window.XEnd, xfmt))
	return lines
}

// WriteWindow writes a titled frame and its legend to w. Color is used when
// forced through the frame or when w is a terminal.
func WriteWindow(w io.Writer, title string, f Frame) error {
	f.Color = shouldUseColor(w, f.Color)
	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	for _, line := range RenderWindow(f) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	names := make([]string, len(f.Traces))
	for i, tr := range f.Traces {
		names[i] = tr.Name
	}
	_, err := fmt.Fprintln(w, renderLegend(names, f.Color))
	return err
}

// PlotSeries renders a multi-line text plot for the provided series.
func PlotSeries(w io.Writer, title string, series []Series, width, height int) error {
	return PlotSeriesWithColor(w, title, series, width, height, false)
}

// PlotSeriesWithColor renders series with unit x spacing, each normalized
// to its own min/max so series with different units share one plot.
func PlotSeriesWithColor(w io.Writer, title string, series []Series, width, height int, forceColor bool) error {
	series = filterSeries(series)
	if len(series) == 0 {
		return nil
	}
	if height <= 0 {
		height = defaultPlotHeight
	}
	if width <= 0 {
		width = autoPlotWidth()
	}
	if width < minPlotWidth {
		width = minPlotWidth
	}

	maxLen := 0
	traces := make([]Trace, 0, len(series))
	ranges := make([][2]float64, 0, len(series))
	for _, s := range series {
		lo, hi := seriesMinMax(s.Values)
		if math.Abs(hi-lo) < 1e-9 {
			lo--
			hi++
		}
		ranges = append(ranges, [2]float64{lo, hi})
		tr := Trace{Name: s.Name, X: make([]float64, len(s.Values)), Y: make([]float64, len(s.Values))}
		for i, v := range s.Values {
			tr.X[i] = float64(i)
			tr.Y[i] = (v - lo) / (hi - lo)
		}
		traces = append(traces, tr)
		if len(s.Values) > maxLen {
			maxLen = len(s.Values)
		}
	}
	xEnd := float64(maxLen - 1)
	if xEnd <= 0 {
		xEnd = 1
	}

	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, scaleNote); err != nil {
		return err
	}
	for i, s := range series {
		if _, err := fmt.Fprintf(w, "%s: min=%.2f max=%.2f\n", s.Name, ranges[i][0], ranges[i][1]); err != nil {
			return err
		}
	}
	frame := Frame{
		Traces:  traces,
		Window:  Window{XStart: 0, XEnd: xEnd, YStart: 0, YEnd: 1},
		Width:   width + labelWidth + runewidth.StringWidth(axisSeparator) + rightMargin,
		Height:  height + bottomGutter,
		Color:   forceColor,
		XFormat: func(v float64) string { return fmt.Sprintf("#%d", int(math.Round(v))+1) },
		YFormat: func(v float64) string { return fmt.Sprintf("%.0f%%", v*100) },
	}
	if err := WriteWindow(w, "", frame); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func filterSeries(series []Series) []Series {
	out := make([]Series, 0, len(series))
	for _, s := range series {
		if len(s.Values) == 0 {
			continue
		}
		out = append(out, s)
	}
	return out
}

func autoPlotWidth() int {
	return PlotWidthFor(terminalWidth())
}

// PlotWidthFor computes a plot width that fits within the total available width.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	plotWidth := LayoutFor(totalWidth, 0).PlotWidth
	if plotWidth < minPlotWidth {
		plotWidth = minPlotWidth
	}
	return plotWidth
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

func makeAxisLabels(height int, lo, hi float64, format func(float64) string) []string {
	labels := make([]string, height)
	if height <= 0 {
		return labels
	}
	labels[0] = format(hi)
	if height > 2 {
		labels[height/2] = format(hi - (hi-lo)*float64(height/2)/float64(height-1))
	}
	if height > 1 {
		labels[height-1] = format(lo)
	}
	return labels
}

// xAxisLabels places start, middle and end labels on a row of width cells,
// dropping the middle one when it would collide.
func xAxisLabels(width int, lo, hi float64, format func(float64) string) string {
	row := []rune(strings.Repeat(" ", width))
	put := func(at int, s string) {
		rs := []rune(s)
		if at < 0 || at+len(rs) > width {
			return
		}
		for i := at - 1; i <= at+len(rs); i++ {
			if i >= 0 && i < width && row[i] != ' ' {
				return
			}
		}
		copy(row[at:], rs)
	}
	start, end := format(lo), format(hi)
	put(0, start)
	put(width-len([]rune(end)), end)
	mid := format((lo + hi) / 2)
	put(width/2-len([]rune(mid))/2, mid)
	return strings.TrimRight(string(row), " ")
}

func padLabel(s string) string {
	s = runewidth.Truncate(s, labelWidth, "")
	return runewidth.FillLeft(s, labelWidth)
}

func formatTick(v float64) string {
	if v == 0 {
		return "0"
	}
	return fmt.Sprintf("%.4g", v)
}

func (ls lineStyle) shouldPlot(x int) bool {
	if ls.period <= 1 {
		return true
	}
	if x < 0 {
		x = -x
	}
	return x%ls.period < ls.on
}

func seriesMinMax(values []float64) (float64, float64) {
	minVal := math.Inf(1)
	maxVal := math.Inf(-1)
	for _, v := range values {
		if !finite(v) {
			continue
		}
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.IsInf(minVal, 1) {
		return 0, 0
	}
	return minVal, maxVal
}

func renderLegend(names []string, useColor bool) string {
	parts := make([]string, 0, len(names))
	marker := brailleFromMask(0x01)
	for i, name := range names {
		label := fmt.Sprintf("%c %s (%s)", marker, name, lineStyles[i%len(lineStyles)].name)
		if useColor {
			label = colorPalette[i%len(colorPalette)].code + label + colorReset
		}
		parts = append(parts, label)
	}
	return "Legend: " + strings.Join(parts, "  ")
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
