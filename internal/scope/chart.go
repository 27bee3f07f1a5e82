// Package scope implements a terminal chart that a viewport controller can drive.
package scope

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/wavescope/internal/model"
	"github.com/verte-zerg/wavescope/internal/stats"
	"github.com/verte-zerg/wavescope/internal/viewport"
)

// DefaultSlots is the number of window slots a chart starts with: x, then y.
const DefaultSlots = 2

// WindowReader supplies the visible window of an axis at render time.
type WindowReader interface {
	Window(axis viewport.Axis) (viewport.Window, bool)
}

// Chart is a braille line chart addressed in terminal cells. It satisfies
// viewport.Host. Chart is not safe for concurrent use; the terminal program
// owns it from a single goroutine.
type Chart struct {
	series     []viewport.Series
	categories []viewport.Value
	windows    []viewport.WindowState
	timeAxis   bool

	width  int
	height int
	color  bool

	// displayed holds the windows of the last render. It drives pixel
	// projection and ScaleExtent, and lags any window written since.
	displayed  [2]viewport.Window
	hasDisplay  [2]bool
}

// NewChart returns an empty chart with the given number of window slots.
func NewChart(slots int) *Chart {
	if slots < 1 {
		slots = DefaultSlots
	}
	c := &Chart{windows: make([]viewport.WindowState, slots)}
	for i := range c.windows {
		c.windows[i] = viewport.PercentWindow(0, 100)
	}
	return c
}

// SetCapture replaces the plotted data with one capture. Window slots are
// kept so a live refresh does not disturb the user's view.
func (c *Chart) SetCapture(capture model.Capture) {
	name := fmt.Sprintf("%s %s", capture.DeviceID, capture.Channel)
	if unit := capture.Channel.Unit(); unit != "" {
		name += " (" + unit + ")"
	}
	data := make([]viewport.Datum, len(capture.Samples))
	c.timeAxis = false
	if len(capture.Labels) == len(capture.Samples) && len(capture.Labels) > 0 {
		if _, err := strconv.ParseFloat(strings.TrimSpace(capture.Labels[0]), 64); err != nil {
			c.timeAxis = true
		}
		for i, v := range capture.Samples {
			data[i] = viewport.PairOf(viewport.Text(capture.Labels[i]), viewport.Num(v))
		}
	} else {
		for i, v := range capture.Samples {
			data[i] = viewport.PairOf(viewport.Num(float64(i)*capture.SampleIntervalMs), viewport.Num(v))
		}
	}
	c.SetSeries([]viewport.Series{{Name: name, Data: data}}, nil)
}

// SetSeries replaces the plotted data.
func (c *Chart) SetSeries(series []viewport.Series, categories []viewport.Value) {
	c.series = series
	c.categories = categories
}

// SetSize records the canvas size in cells.
func (c *Chart) SetSize(width, height int) {
	c.width, c.height = width, height
}

// SetColor toggles ANSI colored traces.
func (c *Chart) SetColor(on bool) {
	c.color = on
}

// Layout returns the cell layout for the current size.
func (c *Chart) Layout() stats.Layout {
	return stats.LayoutFor(c.width, c.height)
}

// Render draws the chart through the windows reported by v and remembers
// them as the displayed scale.
func (c *Chart) Render(v WindowReader) []string {
	return stats.RenderWindow(c.Frame(v))
}

// Frame snapshots the chart as a frame through the windows reported by v.
// The windows become the displayed scale used for pixel projection.
func (c *Chart) Frame(v WindowReader) stats.Frame {
	var win stats.Window
	for _, axis := range []viewport.Axis{viewport.AxisX, viewport.AxisY} {
		w, ok := v.Window(axis)
		c.hasDisplay[axis] = ok
		if ok {
			c.displayed[axis] = w
		}
	}
	if c.hasDisplay[viewport.AxisX] && c.hasDisplay[viewport.AxisY] {
		x, y := c.displayed[viewport.AxisX], c.displayed[viewport.AxisY]
		win = stats.Window{XStart: x.Start, XEnd: x.End, YStart: y.Start, YEnd: y.End}
	}
	frame := stats.Frame{
		Traces: c.Traces(),
		Window: win,
		Width:  c.width,
		Height: c.height,
		Color:  c.color,
	}
	if c.timeAxis {
		frame.XFormat = formatClock
	}
	return frame
}

// Traces converts the series into numeric polylines. Scalars take their x
// from the category at the same index, or the index itself.
func (c *Chart) Traces() []stats.Trace {
	out := make([]stats.Trace, 0, len(c.series))
	for _, s := range c.series {
		tr := stats.Trace{Name: s.Name, X: make([]float64, len(s.Data)), Y: make([]float64, len(s.Data))}
		for i, d := range s.Data {
			x, okX := c.datumX(i, d)
			y, okY := viewport.Numeric(d.Y, viewport.AxisY)
			if !okX || !okY {
				x, y = math.NaN(), math.NaN()
			}
			tr.X[i], tr.Y[i] = x, y
		}
		out = append(out, tr)
	}
	return out
}

func (c *Chart) datumX(i int, d viewport.Datum) (float64, bool) {
	if d.Pair {
		return viewport.Numeric(d.X, viewport.AxisX)
	}
	if i < len(c.categories) {
		return viewport.Numeric(c.categories[i], viewport.AxisX)
	}
	return float64(i), true
}

// States returns a copy of every window slot.
func (c *Chart) States() []viewport.WindowState {
	return append([]viewport.WindowState(nil), c.windows...)
}

// PixelToValue maps a cell position through the displayed windows.
func (c *Chart) PixelToValue(p viewport.Point) (float64, float64, bool) {
	rect, ok := c.PlotRect()
	if !ok || !c.hasDisplay[viewport.AxisX] || !c.hasDisplay[viewport.AxisY] {
		return 0, 0, false
	}
	if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
		return 0, 0, false
	}
	xw, yw := c.displayed[viewport.AxisX], c.displayed[viewport.AxisY]
	fx := (p.X - rect.X) / rect.Width
	fy := (p.Y - rect.Y) / rect.Height
	return xw.Start + fx*xw.Range(), yw.End - fy*yw.Range(), true
}

// SetWindow stores a value window in slot index.
func (c *Chart) SetWindow(index int, start, end float64) {
	if index < 0 || index >= len(c.windows) {
		return
	}
	next := viewport.ValueWindow(start, end)
	if c.windows[index] == next {
		return
	}
	c.windows[index] = next
}

// ResetWindow sets slot index to 0%-100%.
func (c *Chart) ResetWindow(index int) {
	if index < 0 || index >= len(c.windows) {
		return
	}
	c.windows[index] = viewport.PercentWindow(0, 100)
}

// WindowCount returns the number of window slots.
func (c *Chart) WindowCount() int { return len(c.windows) }

// CurrentWindow returns slot index as last written.
func (c *Chart) CurrentWindow(index int) viewport.WindowState {
	if index < 0 || index >= len(c.windows) {
		return viewport.WindowState{}
	}
	return c.windows[index]
}

// PlotRect returns the plot area in cells once a size is known.
func (c *Chart) PlotRect() (viewport.Rect, bool) {
	if c.width <= 0 || c.height <= 0 {
		return viewport.Rect{}, false
	}
	l := c.Layout()
	if !l.Usable() {
		return viewport.Rect{}, false
	}
	return viewport.Rect{
		X:      float64(l.Left),
		Y:      float64(l.Top),
		Width:  float64(l.PlotWidth),
		Height: float64(l.PlotHeight),
	}, true
}

// CanvasSize returns the canvas size in cells.
func (c *Chart) CanvasSize() (float64, float64) {
	return float64(c.width), float64(c.height)
}

// Series returns the plotted series.
func (c *Chart) Series() []viewport.Series { return c.series }

// Categories returns the category labels.
func (c *Chart) Categories() []viewport.Value { return c.categories }

// ScaleExtent returns the window shown by the last render.
func (c *Chart) ScaleExtent(axis viewport.Axis) (viewport.Extent, bool) {
	if (axis != viewport.AxisX && axis != viewport.AxisY) || !c.hasDisplay[axis] {
		return viewport.Extent{}, false
	}
	w := c.displayed[axis]
	return viewport.Extent{Min: w.Start, Max: w.End}, true
}

func formatClock(v float64) string {
	return time.UnixMilli(int64(v)).UTC().Format("15:04:05")
}
