package viewport

import "math"

// DragSession is the state of one grab gesture. Shifts are always applied to
// the origin windows so successive moves never compound rounding error.
type DragSession struct {
	Origin  Point
	WindowX Window
	WindowY Window
	HasX    bool
	HasY    bool
}

// panWindow translates w by shift and fits it into ext.
func panWindow(w Window, ext Extent, shift float64) (Window, bool) {
	if !w.valid() || !ext.valid() || !isFinite(shift) {
		return Window{}, false
	}
	return fitWindow(Window{Start: w.Start + shift, End: w.End + shift}, ext)
}

// BeginDrag opens a drag session when p is inside the plot region. Axes
// whose window cannot be read are left out of the session.
func (c *Controller) BeginDrag(p Point) bool {
	if !p.finite() || c.classifier.Classify(p) != RegionPlot {
		return false
	}
	s := &DragSession{Origin: p}
	if w, _, ok := c.windows.Read(AxisX); ok {
		s.WindowX, s.HasX = w, true
	}
	if w, _, ok := c.windows.Read(AxisY); ok {
		s.WindowY, s.HasY = w, true
	}
	if !s.HasX && !s.HasY {
		c.logger.Debug("drag skipped: no extent on either axis")
		return false
	}
	c.drag = s
	return true
}

// UpdateDrag applies the total pixel delta since the session origin. Dragging
// right moves the window left so the trace follows the cursor. Dragging down
// moves the window toward higher values; that sign is intentional.
func (c *Controller) UpdateDrag(p Point) {
	s := c.drag
	if s == nil || !p.finite() {
		return
	}
	w, h := c.plotSize()
	dx := p.X - s.Origin.X
	dy := p.Y - s.Origin.Y

	if s.HasX {
		xRange := math.Max(minRange, s.WindowX.Range())
		shift := -(dx / w) * xRange * c.cfg.PanSpeed
		c.panAxis(AxisX, s.WindowX, shift)
	}
	if s.HasY {
		yRange := math.Max(minRange, s.WindowY.Range())
		shift := (dy / h) * yRange * c.cfg.PanSpeed
		c.panAxis(AxisY, s.WindowY, shift)
	}
}

// EndDrag discards the session. It is safe to call without one.
func (c *Controller) EndDrag() {
	c.drag = nil
}

// Dragging reports whether a drag session is open.
func (c *Controller) Dragging() bool {
	return c.drag != nil
}

// Pan shifts the window of axis by fraction of its current range. Positive
// fractions move toward higher values.
func (c *Controller) Pan(axis Axis, fraction float64) {
	w, _, ok := c.windows.Read(axis)
	if !ok {
		return
	}
	c.panAxis(axis, w, fraction*w.Range())
}

func (c *Controller) panAxis(axis Axis, origin Window, shift float64) {
	ext, err := c.extents.Resolve(axis)
	if err != nil {
		c.logger.Debug("pan skipped: no extent", "axis", axis)
		return
	}
	next, ok := panWindow(origin, ext, shift)
	if !ok {
		c.logger.Debug("pan discarded", "axis", axis, "shift", shift)
		return
	}
	c.windows.Write(axis, next)
}

func (c *Controller) plotSize() (w, h float64) {
	if rect, ok := c.host.PlotRect(); ok && rect.usable() {
		w, h = rect.Width, rect.Height
	} else {
		w, h = c.host.CanvasSize()
	}
	return math.Max(1, w), math.Max(1, h)
}
