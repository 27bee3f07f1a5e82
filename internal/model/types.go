// Package model defines shared data structures.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Channel identifies one measured signal of a node.
type Channel string

const (
	ChannelDCPos   Channel = "dc+"
	ChannelDCNeg   Channel = "dc-"
	ChannelCurrent Channel = "current"
	ChannelLeakage Channel = "leakage"
)

// Channels lists every channel in display order.
var Channels = []Channel{ChannelDCPos, ChannelDCNeg, ChannelCurrent, ChannelLeakage}

// Unit returns the measurement unit of the channel.
func (c Channel) Unit() string {
	switch c {
	case ChannelDCPos, ChannelDCNeg:
		return "V"
	case ChannelCurrent:
		return "A"
	case ChannelLeakage:
		return "mA"
	default:
		return ""
	}
}

// ParseChannel accepts a channel name, case-insensitively.
func ParseChannel(s string) (Channel, error) {
	c := Channel(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Channels {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown channel %q (want dc+, dc-, current or leakage)", s)
}

// FaultCode tags the condition a capture was recorded under.
type FaultCode string

const (
	FaultNormal       FaultCode = "E00"
	FaultACIntrusion  FaultCode = "E01"
	FaultInsulation   FaultCode = "E02"
	FaultCapacitorAge FaultCode = "E03"
	FaultIGBTOpen     FaultCode = "E04"
	FaultGrounding    FaultCode = "E05"
)

// FaultCodes lists every known fault code.
var FaultCodes = []FaultCode{FaultNormal, FaultACIntrusion, FaultInsulation, FaultCapacitorAge, FaultIGBTOpen, FaultGrounding}

// Name returns a short human description.
func (f FaultCode) Name() string {
	switch f {
	case FaultNormal:
		return "normal"
	case FaultACIntrusion:
		return "AC intrusion"
	case FaultInsulation:
		return "insulation fault"
	case FaultCapacitorAge:
		return "DC capacitor aging"
	case FaultIGBTOpen:
		return "IGBT open circuit"
	case FaultGrounding:
		return "DC bus grounding"
	default:
		return "unknown"
	}
}

// ParseFaultCode accepts "E03", "e03" or "3".
func ParseFaultCode(s string) (FaultCode, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	if len(v) == 1 {
		v = "E0" + v
	}
	for _, known := range FaultCodes {
		if FaultCode(v) == known {
			return known, nil
		}
	}
	return "", fmt.Errorf("unknown fault code %q (want E00-E05)", s)
}

// Capture is one recorded waveform snapshot.
type Capture struct {
	ID               int64
	DeviceID         string
	Channel          Channel
	Fault            FaultCode
	CapturedAt       time.Time
	SampleIntervalMs float64
	Samples          []float64
	// Labels optionally carries one raw x label per sample, such as a
	// timestamp read from a capture file. Empty means x is derived from
	// SampleIntervalMs.
	Labels []string
}

// DurationMs is the time covered by the samples.
func (c Capture) DurationMs() float64 {
	if len(c.Samples) == 0 {
		return 0
	}
	return float64(len(c.Samples)-1) * c.SampleIntervalMs
}

// ViewState is a saved pair of axis windows for a capture.
type ViewState struct {
	CaptureID int64
	XStart    float64
	XEnd      float64
	YStart    float64
	YEnd      float64
	UpdatedAt time.Time
}

// ViewConfig defines what the scope shows.
type ViewConfig struct {
	CaptureID int64
	Live      bool
	Fault     FaultCode
	Channel   Channel
	Refresh   time.Duration
	Restore   bool
	Color     bool
}

// CaptureFilter narrows capture listings.
type CaptureFilter struct {
	DeviceID string
	Channel  Channel
	Fault    FaultCode
	Since    *time.Time
	Last     int
}
