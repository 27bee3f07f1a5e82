package viewport

import "fmt"

const (
	DefaultZoomInFactor   = 1.10
	DefaultZoomOutFactor  = 0.90
	DefaultPanSpeed       = 1.0
	DefaultXAxisThreshold = 0.20
	DefaultYAxisThreshold = 0.18
	DefaultXWindowIndex   = 0
	DefaultYWindowIndex   = 1
)

// Config is the immutable controller configuration.
type Config struct {
	ZoomInFactor   float64
	ZoomOutFactor  float64
	PanSpeed       float64
	CornerPriority CornerPriority
	XAxisThreshold float64
	YAxisThreshold float64

	// XWindowIndex and YWindowIndex select the host window slots that
	// control each axis.
	XWindowIndex int
	YWindowIndex int

	// XExtent and YExtent, when set, replace the data-derived extent.
	XExtent *Extent
	YExtent *Extent
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return Config{
		ZoomInFactor:   DefaultZoomInFactor,
		ZoomOutFactor:  DefaultZoomOutFactor,
		PanSpeed:       DefaultPanSpeed,
		CornerPriority: CornerY,
		XAxisThreshold: DefaultXAxisThreshold,
		YAxisThreshold: DefaultYAxisThreshold,
		XWindowIndex:   DefaultXWindowIndex,
		YWindowIndex:   DefaultYWindowIndex,
	}
}

// Validate reports the first invalid option.
func (c Config) Validate() error {
	if !isFinite(c.ZoomInFactor) || c.ZoomInFactor <= 1 {
		return fmt.Errorf("zoom-in factor must be > 1, got %v", c.ZoomInFactor)
	}
	if !isFinite(c.ZoomOutFactor) || c.ZoomOutFactor <= 0 || c.ZoomOutFactor >= 1 {
		return fmt.Errorf("zoom-out factor must be between 0 and 1, got %v", c.ZoomOutFactor)
	}
	if !isFinite(c.PanSpeed) || c.PanSpeed <= 0 {
		return fmt.Errorf("pan speed must be > 0, got %v", c.PanSpeed)
	}
	if !isFinite(c.XAxisThreshold) || c.XAxisThreshold <= 0 || c.XAxisThreshold >= 1 {
		return fmt.Errorf("x-axis threshold must be between 0 and 1, got %v", c.XAxisThreshold)
	}
	if !isFinite(c.YAxisThreshold) || c.YAxisThreshold <= 0 || c.YAxisThreshold >= 1 {
		return fmt.Errorf("y-axis threshold must be between 0 and 1, got %v", c.YAxisThreshold)
	}
	switch c.CornerPriority {
	case CornerX, CornerY, CornerNone:
	default:
		return fmt.Errorf("unknown corner priority %d", int(c.CornerPriority))
	}
	if c.XWindowIndex < 0 || c.YWindowIndex < 0 {
		return fmt.Errorf("window indices must be >= 0")
	}
	if c.XWindowIndex == c.YWindowIndex {
		return fmt.Errorf("x and y window indices must differ (both %d)", c.XWindowIndex)
	}
	if c.XExtent != nil && !c.XExtent.valid() {
		return fmt.Errorf("x extent override [%v, %v] is invalid", c.XExtent.Min, c.XExtent.Max)
	}
	if c.YExtent != nil && !c.YExtent.valid() {
		return fmt.Errorf("y extent override [%v, %v] is invalid", c.YExtent.Min, c.YExtent.Max)
	}
	return nil
}

func (c Config) windowIndex(axis Axis) int {
	if axis == AxisY {
		return c.YWindowIndex
	}
	return c.XWindowIndex
}

func (c Config) override(axis Axis) *Extent {
	if axis == AxisY {
		return c.YExtent
	}
	return c.XExtent
}
