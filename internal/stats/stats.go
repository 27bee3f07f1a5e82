package stats

import (
	"math"
	"strings"
)

const (
	sparkChars = " .:-=+*#%@"
	// SpectrumBins is how many DFT bins are evaluated for frequency analysis.
	SpectrumBins = 115
)

// Metrics summarizes a waveform.
type Metrics struct {
	Count       int
	Min         float64
	Max         float64
	Mean        float64
	RMS         float64
	PeakToPeak  float64
	DominantHz  float64
	DominantAmp float64
}

// Compute returns metrics for samples spaced intervalMs apart. Non-finite
// samples are ignored; the frequency fields stay zero without a valid interval.
func Compute(samples []float64, intervalMs float64) Metrics {
	clean := make([]float64, 0, len(samples))
	for _, v := range samples {
		if finite(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		return Metrics{}
	}
	m := Metrics{Count: len(clean), Mean: Mean(clean), RMS: RMS(clean)}
	m.Min, m.Max = seriesMinMax(clean)
	m.PeakToPeak = m.Max - m.Min
	if intervalMs > 0 && finite(intervalMs) {
		m.DominantHz, m.DominantAmp = DominantFrequency(clean, 1000/intervalMs)
	}
	return m
}

// Mean returns the arithmetic mean.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// RMS returns the root mean square.
func RMS(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(values)))
}

// PeakToPeak returns max-min.
func PeakToPeak(values []float64) float64 {
	lo, hi := seriesMinMax(values)
	return hi - lo
}

// Spectrum returns the amplitude of the first bins DFT bins of values.
// Bin 0 is the DC level; other bins are single-sided amplitudes.
func Spectrum(values []float64, bins int) []float64 {
	n := len(values)
	if n == 0 || bins <= 0 {
		return nil
	}
	if bins > n/2+1 {
		bins = n/2 + 1
	}
	out := make([]float64, bins)
	for k := 0; k < bins; k++ {
		var re, im float64
		for i, v := range values {
			angle := -2 * math.Pi * float64(k) * float64(i) / float64(n)
			re += v * math.Cos(angle)
			im += v * math.Sin(angle)
		}
		norm := 2.0 / float64(n)
		if k == 0 {
			norm = 1.0 / float64(n)
		}
		out[k] = math.Hypot(re, im) * norm
	}
	return out
}

// DominantFrequency returns the frequency and amplitude of the strongest
// non-DC bin, sampling at sampleRate Hz.
func DominantFrequency(values []float64, sampleRate float64) (float64, float64) {
	spec := Spectrum(values, SpectrumBins)
	best := 0
	for k := 1; k < len(spec); k++ {
		if best == 0 || spec[k] > spec[best] {
			best = k
		}
	}
	if best == 0 {
		return 0, 0
	}
	return float64(best) * sampleRate / float64(len(values)), spec[best]
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		den := float64(i + 1)
		if i >= window {
			sum -= values[i-window]
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := seriesMinMax(values)
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// Downsample averages values into width buckets; shorter input is returned as is.
func Downsample(values []float64, width int) []float64 {
	if width <= 0 || len(values) <= width {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, width)
	for i := 0; i < width; i++ {
		start := i * len(values) / width
		end := (i + 1) * len(values) / width
		if end <= start {
			end = start + 1
		}
		out[i] = Mean(values[start:end])
	}
	return out
}
