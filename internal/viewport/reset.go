package viewport

// Reset restores the full extent. RegionXAxis and RegionYAxis reset one
// axis, RegionPlot resets both; other regions do nothing. The reset is
// percent based so it works even when no extent can be resolved.
func (c *Controller) Reset(region RegionKind) {
	switch region {
	case RegionXAxis:
		c.resetAxis(AxisX)
	case RegionYAxis:
		c.resetAxis(AxisY)
	case RegionPlot:
		c.resetAxis(AxisX)
		c.resetAxis(AxisY)
	}
}

// ResetAll resets every window slot the host has.
func (c *Controller) ResetAll() {
	for i := 0; i < c.host.WindowCount(); i++ {
		c.host.ResetWindow(i)
	}
}

func (c *Controller) resetAxis(axis Axis) {
	idx := c.cfg.windowIndex(axis)
	if idx >= c.host.WindowCount() {
		return
	}
	c.host.ResetWindow(idx)
}
