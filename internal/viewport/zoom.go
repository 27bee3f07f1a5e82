package viewport

import "math"

const (
	minRange = 1e-9
	// snapFraction of the full span snaps a zoom-out back to the full extent.
	snapFraction = 0.98
)

// zoomWindow scales w by 1/factor around anchor, keeping the anchor at the
// same fractional position, then fits the result into ext. A non-finite
// anchor means the window midpoint.
func zoomWindow(w Window, ext Extent, anchor, factor float64) (Window, bool) {
	if !w.valid() || !ext.valid() || !isFinite(factor) || factor <= 0 {
		return Window{}, false
	}
	range0 := math.Max(minRange, w.Range())
	if !isFinite(anchor) {
		anchor = (w.Start + w.End) / 2
	}
	ratio := clamp((anchor-w.Start)/range0, 0, 1)
	range1 := math.Max(minRange, range0/factor)

	ns := anchor - ratio*range1
	ne := ns + range1

	if range1 >= ext.Span()*snapFraction {
		return Window{Start: ext.Min, End: ext.Max}, true
	}
	return fitWindow(Window{Start: ns, End: ne}, ext)
}

// fitWindow shifts w back inside ext, preserving its range where possible,
// and hard-clamps both bounds as a final guarantee.
func fitWindow(w Window, ext Extent) (Window, bool) {
	ns, ne := w.Start, w.End
	if ns < ext.Min {
		off := ext.Min - ns
		ns = ext.Min
		ne += off
	}
	if ne > ext.Max {
		off := ne - ext.Max
		ne = ext.Max
		ns -= off
	}
	ns = math.Max(ext.Min, ns)
	ne = math.Min(ext.Max, ne)
	out := Window{Start: ns, End: ne}
	if !out.valid() {
		return Window{}, false
	}
	return out, true
}

// Zoom scales the window of axis around anchor by factor (>1 zooms in).
// Pass math.NaN() as anchor to zoom around the window midpoint.
func (c *Controller) Zoom(axis Axis, anchor, factor float64) {
	w, ext, ok := c.windows.Read(axis)
	if !ok {
		c.logger.Debug("zoom skipped: no extent", "axis", axis)
		return
	}
	next, ok := zoomWindow(w, ext, anchor, factor)
	if !ok {
		c.logger.Debug("zoom discarded", "axis", axis, "factor", factor)
		return
	}
	c.windows.Write(axis, next)
}
