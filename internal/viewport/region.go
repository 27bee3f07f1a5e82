package viewport

import "math"

// regionClassifier maps canvas pixels to chart regions.
type regionClassifier struct {
	host Host
	cfg  Config
}

// Classify returns the resolved region for p. RegionCorner is never
// returned: the corner is handed to an axis, or to none, by CornerPriority.
func (c regionClassifier) Classify(p Point) RegionKind {
	kind := c.classifyRaw(p)
	if kind == RegionCorner {
		return c.cfg.CornerPriority.resolve()
	}
	return kind
}

func (c regionClassifier) classifyRaw(p Point) RegionKind {
	if !p.finite() {
		return RegionNone
	}
	if rect, ok := c.host.PlotRect(); ok && rect.usable() {
		onY := p.X < rect.X
		onX := p.Y > rect.Y+rect.Height
		switch {
		case onX && onY:
			return RegionCorner
		case onY:
			return RegionYAxis
		case onX:
			return RegionXAxis
		case rect.Contains(p):
			return RegionPlot
		default:
			return RegionNone
		}
	}

	// No layout yet: percentage gutters against the canvas box. There is no
	// reliable outer boundary, so everything else counts as plot.
	w, h := c.host.CanvasSize()
	w = math.Max(1, w)
	h = math.Max(1, h)
	onX := p.Y > h*(1-c.cfg.XAxisThreshold)
	onY := p.X < w*c.cfg.YAxisThreshold
	switch {
	case onX && onY:
		return RegionCorner
	case onY:
		return RegionYAxis
	case onX:
		return RegionXAxis
	default:
		return RegionPlot
	}
}
