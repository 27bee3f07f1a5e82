// Package generator synthesizes node waveforms for each fault condition.
package generator

import (
	"math"
	"math/rand"
	"time"

	"github.com/verte-zerg/wavescope/internal/model"
)

const (
	// SampleRate is the simulated ADC rate in Hz.
	SampleRate = 5120.0
	// Points is the number of samples in one snapshot (0.2 s).
	Points = 1024
	// SampleIntervalMs is the spacing between samples.
	SampleIntervalMs = 1000.0 / SampleRate

	baseVoltage = 375.0
	baseCurrent = 12.0
	baseLeakage = 0.02
)

// Snapshot holds one correlated set of channel waveforms.
type Snapshot struct {
	DCPos   []float64
	DCNeg   []float64
	Current []float64
	Leakage []float64
}

// Channel returns the samples for c, or nil for an unknown channel.
func (s Snapshot) Channel(c model.Channel) []float64 {
	switch c {
	case model.ChannelDCPos:
		return s.DCPos
	case model.ChannelDCNeg:
		return s.DCNeg
	case model.ChannelCurrent:
		return s.Current
	case model.ChannelLeakage:
		return s.Leakage
	default:
		return nil
	}
}

// Generator produces randomized waveforms.
type Generator struct {
	rnd *rand.Rand
	// Noise scales every gaussian noise term; 1 is the nominal level.
	Noise float64
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns a deterministic Generator.
func NewSeeded(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed)), Noise: 1}
}

// Capture generates one snapshot and returns the requested channel as a capture.
func (g *Generator) Capture(deviceID string, fault model.FaultCode, channel model.Channel, at time.Time) model.Capture {
	snap := g.Snapshot(fault, float64(at.UnixNano())/1e9)
	return model.Capture{
		DeviceID:         deviceID,
		Channel:          channel,
		Fault:            fault,
		CapturedAt:       at,
		SampleIntervalMs: SampleIntervalMs,
		Samples:          snap.Channel(channel),
	}
}

// Snapshot builds all four channels for fault at wall-clock time now (seconds).
// Slow envelope terms follow now so consecutive snapshots drift.
func (g *Generator) Snapshot(fault model.FaultCode, now float64) Snapshot {
	s := Snapshot{
		DCPos:   make([]float64, Points),
		DCNeg:   make([]float64, Points),
		Current: make([]float64, Points),
		Leakage: make([]float64, Points),
	}
	phase := g.rnd.Float64() * 2 * math.Pi
	for i := 0; i < Points; i++ {
		t := now + float64(i)/SampleRate
		var vp, vn, cur, leak float64
		switch fault {
		case model.FaultNormal:
			vp = baseVoltage + 0.2*sine(100, t, 0) + g.noise(0.5)
			vn = -baseVoltage - 0.2*sine(100, t, 0.1) + g.noise(0.5)
			cur = baseCurrent + 0.15*sine(50, t, 0) + g.noise(0.1)
			leak = baseLeakage + g.noise(0.005)
		case model.FaultACIntrusion:
			amp := 45.0 + 15.0*math.Sin(now*0.5)
			ac := amp*sine(50, t, phase) + amp*0.12*sine(150, t, phase) + amp*0.05*sine(250, t, phase)
			vp = baseVoltage + ac + g.noise(1.5)
			vn = -baseVoltage - ac + g.noise(1.5)
			cur = baseCurrent + 0.8*sine(50, t, phase+0.3) + g.noise(0.3)
			leak = baseLeakage*2 + 0.01*sine(50, t, phase) + g.noise(0.01)
		case model.FaultInsulation:
			vp = baseVoltage - 10 + 3*sine(50, t, 0) + g.noise(2)
			vn = -baseVoltage + 10 - 3*sine(50, t, 0) + g.noise(2)
			cur = baseCurrent + 0.5 + 0.3*sine(50, t, 0) + g.noise(0.2)
			leak = 35 + 15*math.Sin(now*0.3) + 8*sine(50, t, 0) + g.noise(3)
			// partial discharge bursts
			if i%200 < 5 {
				leak += 10
			}
			leak = math.Max(0, leak)
		case model.FaultCapacitorAge:
			ripple := 12*sine(100, t, 0) + 6*sine(200, t, 0) + 3*sine(300, t, 0)
			vp = baseVoltage + ripple + g.noise(1.5)
			vn = -baseVoltage - ripple + g.noise(1.5)
			cur = baseCurrent + 0.8*sine(100, t, 0) + 0.4*sine(200, t, 0) + g.noise(0.3)
			leak = baseLeakage + g.noise(0.01)
		case model.FaultIGBTOpen:
			imbalance := 8*sine(50, t, 0) + 4*sine(100, t, 0)
			vp = baseVoltage + imbalance + g.noise(1.5)
			vn = -baseVoltage + imbalance*0.8 + g.noise(1.5)
			// negative half-cycle missing
			wave := math.Max(baseCurrent, baseCurrent+3*sine(50, t, 0))
			cur = wave + 1.5*sine(100, t, 0) + g.noise(0.2)
			leak = baseLeakage*1.5 + g.noise(0.01)
		case model.FaultGrounding:
			vp = 15 + 5*math.Sin(now*0.5) + 2*sine(50, t, 0) + g.noise(2)
			vn = -720 + 20*math.Sin(now*0.3) + 5*sine(50, t, 0) + g.noise(3)
			cur = baseCurrent + 1.5*sine(50, t, 0) + g.noise(0.5)
			leak = math.Max(0, 40+10*math.Sin(now*0.4)+8*sine(50, t, 0)+g.noise(2))
		default:
			vp = baseVoltage + g.noise(0.5)
			vn = -baseVoltage + g.noise(0.5)
			cur = baseCurrent + g.noise(0.1)
			leak = baseLeakage + g.noise(0.01)
		}
		s.DCPos[i] = round3(vp)
		s.DCNeg[i] = round3(vn)
		s.Current[i] = round3(cur)
		s.Leakage[i] = round3(leak)
	}
	return s
}

func (g *Generator) noise(sigma float64) float64 {
	return g.rnd.NormFloat64() * sigma * g.Noise
}

func sine(freq, t, phase float64) float64 {
	return math.Sin(2*math.Pi*freq*t + phase)
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
