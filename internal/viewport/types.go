// Package viewport turns pointer gestures into anchor-preserving changes of a
// chart's visible data window.
//
// The package never draws anything. It talks to a Host, which owns the plot
// geometry, the series data and the per-axis window slots, and it listens to
// an EventSource for low-level pointer events. Every gesture runs to
// completion synchronously inside the event handler.
package viewport

import (
	"fmt"
	"math"
	"strings"
)

// Axis identifies one of the two chart axes.
type Axis int

const (
	// AxisX is the horizontal (time/category) axis.
	AxisX Axis = iota
	// AxisY is the vertical (value) axis.
	AxisY
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	default:
		return fmt.Sprintf("axis(%d)", int(a))
	}
}

// Extent is the full addressable range of one axis. Max is always > Min.
type Extent struct {
	Min float64
	Max float64
}

// Span returns Max-Min.
func (e Extent) Span() float64 {
	return e.Max - e.Min
}

func (e Extent) valid() bool {
	return isFinite(e.Min) && isFinite(e.Max) && e.Max > e.Min
}

// Window is the visible sub-range of one axis.
type Window struct {
	Start float64
	End   float64
}

// Range returns End-Start.
func (w Window) Range() float64 {
	return w.End - w.Start
}

func (w Window) valid() bool {
	return isFinite(w.Start) && isFinite(w.End) && w.End > w.Start
}

// Within reports whether the window lies inside the extent.
func (w Window) Within(e Extent) bool {
	return w.Start >= e.Min && w.End <= e.Max
}

// RegionKind classifies a pixel position on the chart canvas.
type RegionKind int

const (
	RegionNone RegionKind = iota
	RegionYAxis
	RegionXAxis
	RegionPlot
	RegionCorner
)

func (r RegionKind) String() string {
	switch r {
	case RegionNone:
		return "none"
	case RegionYAxis:
		return "y-axis"
	case RegionXAxis:
		return "x-axis"
	case RegionPlot:
		return "plot"
	case RegionCorner:
		return "corner"
	default:
		return fmt.Sprintf("region(%d)", int(r))
	}
}

// CornerPriority decides which gutter owns the shared bottom-left corner.
type CornerPriority int

const (
	// CornerY hands the corner to the vertical axis (oscilloscope convention).
	CornerY CornerPriority = iota
	CornerX
	CornerNone
)

// ParseCornerPriority accepts "x", "y" or "none".
func ParseCornerPriority(s string) (CornerPriority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "":
		return CornerY, nil
	case "x":
		return CornerX, nil
	case "none":
		return CornerNone, nil
	default:
		return CornerY, fmt.Errorf("invalid corner priority %q (use x, y or none)", s)
	}
}

func (c CornerPriority) String() string {
	switch c {
	case CornerX:
		return "x"
	case CornerNone:
		return "none"
	default:
		return "y"
	}
}

func (c CornerPriority) resolve() RegionKind {
	switch c {
	case CornerX:
		return RegionXAxis
	case CornerY:
		return RegionYAxis
	default:
		return RegionNone
	}
}

// Point is a position in canvas pixel space.
type Point struct {
	X float64
	Y float64
}

func (p Point) finite() bool {
	return isFinite(p.X) && isFinite(p.Y)
}

// Rect is the plot rectangle in canvas pixel space.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// usable rejects layouts that are not computed yet or collapsed.
func (r Rect) usable() bool {
	if !isFinite(r.X) || !isFinite(r.Y) || !isFinite(r.Width) || !isFinite(r.Height) {
		return false
	}
	return r.Width > 2 && r.Height > 2
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp(v, lo, hi float64) float64 {
	if !isFinite(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
