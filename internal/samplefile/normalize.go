package samplefile

import (
	"fmt"
	"math"

	"github.com/verte-zerg/wavescope/internal/model"
)

// DefaultIntervalMs is used when a file does not state its sample spacing.
const DefaultIntervalMs = 1.0

// Normalize fills defaults and rejects captures that cannot be displayed.
func Normalize(c model.Capture) (model.Capture, error) {
	if len(c.Samples) == 0 {
		return model.Capture{}, fmt.Errorf("capture has no samples")
	}
	finiteCount := 0
	for _, v := range c.Samples {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finiteCount++
		}
	}
	if finiteCount == 0 {
		return model.Capture{}, fmt.Errorf("capture has no finite samples")
	}
	if len(c.Labels) > 0 && len(c.Labels) != len(c.Samples) {
		return model.Capture{}, fmt.Errorf("capture has %d labels for %d samples", len(c.Labels), len(c.Samples))
	}
	if c.SampleIntervalMs < 0 || math.IsNaN(c.SampleIntervalMs) || math.IsInf(c.SampleIntervalMs, 0) {
		return model.Capture{}, fmt.Errorf("invalid sample interval %v", c.SampleIntervalMs)
	}
	if c.SampleIntervalMs == 0 {
		c.SampleIntervalMs = DefaultIntervalMs
	}
	if c.Channel == "" {
		c.Channel = model.ChannelDCPos
	}
	if c.Fault == "" {
		c.Fault = model.FaultNormal
	}
	return c, nil
}
