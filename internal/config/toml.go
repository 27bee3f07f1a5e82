// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/wavescope/internal/viewport"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	View   ViewConfig   `toml:"view"`
	Zoom   ZoomConfig   `toml:"zoom"`
	Extent ExtentConfig `toml:"extent"`
}

// ViewConfig maps display settings.
type ViewConfig struct {
	Refresh *string `toml:"refresh"`
	Live    *bool   `toml:"live"`
	Fault   *string `toml:"fault"`
	Channel *string `toml:"channel"`
	Color   *bool   `toml:"color"`
	Restore *bool   `toml:"restore"`
}

// ZoomConfig maps interaction settings.
type ZoomConfig struct {
	ZoomIn         *float64 `toml:"zoom-in"`
	ZoomOut        *float64 `toml:"zoom-out"`
	PanSpeed       *float64 `toml:"pan-speed"`
	XThreshold     *float64 `toml:"x-threshold"`
	YThreshold     *float64 `toml:"y-threshold"`
	CornerPriority *string  `toml:"corner-priority"`
	XWindowIndex   *int     `toml:"x-window-index"`
	YWindowIndex   *int     `toml:"y-window-index"`
}

// ExtentConfig maps fixed axis extents. Both ends of an axis must be set
// for the override to apply.
type ExtentConfig struct {
	XMin *float64 `toml:"x-min"`
	XMax *float64 `toml:"x-max"`
	YMin *float64 `toml:"y-min"`
	YMax *float64 `toml:"y-max"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// ApplyViewport overlays the file settings on base and validates the result.
func (f FileConfig) ApplyViewport(base viewport.Config) (viewport.Config, error) {
	cfg := base
	z := f.Zoom
	if z.ZoomIn != nil {
		cfg.ZoomInFactor = *z.ZoomIn
	}
	if z.ZoomOut != nil {
		cfg.ZoomOutFactor = *z.ZoomOut
	}
	if z.PanSpeed != nil {
		cfg.PanSpeed = *z.PanSpeed
	}
	if z.XThreshold != nil {
		cfg.XAxisThreshold = *z.XThreshold
	}
	if z.YThreshold != nil {
		cfg.YAxisThreshold = *z.YThreshold
	}
	if z.CornerPriority != nil {
		p, err := viewport.ParseCornerPriority(*z.CornerPriority)
		if err != nil {
			return base, fmt.Errorf("zoom.corner-priority: %w", err)
		}
		cfg.CornerPriority = p
	}
	if z.XWindowIndex != nil {
		cfg.XWindowIndex = *z.XWindowIndex
	}
	if z.YWindowIndex != nil {
		cfg.YWindowIndex = *z.YWindowIndex
	}
	if x, ok, err := extentPair("x", f.Extent.XMin, f.Extent.XMax); err != nil {
		return base, err
	} else if ok {
		cfg.XExtent = &x
	}
	if y, ok, err := extentPair("y", f.Extent.YMin, f.Extent.YMax); err != nil {
		return base, err
	} else if ok {
		cfg.YExtent = &y
	}
	if err := cfg.Validate(); err != nil {
		return base, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func extentPair(axis string, lo, hi *float64) (viewport.Extent, bool, error) {
	switch {
	case lo == nil && hi == nil:
		return viewport.Extent{}, false, nil
	case lo == nil || hi == nil:
		return viewport.Extent{}, false, fmt.Errorf("extent.%s-min and extent.%s-max must be set together", axis, axis)
	}
	return viewport.Extent{Min: *lo, Max: *hi}, true, nil
}
