package stats

import (
	"math"
	"testing"
)

func TestBasicMetrics(t *testing.T) {
	values := []float64{3, -1, 4, -1, 5}
	if got := Mean(values); got != 2 {
		t.Fatalf("mean: got %v", got)
	}
	if got := PeakToPeak(values); got != 6 {
		t.Fatalf("peak-to-peak: got %v", got)
	}
	if got := RMS([]float64{3, -3, 3, -3}); got != 3 {
		t.Fatalf("rms: got %v", got)
	}
}

func TestDominantFrequency(t *testing.T) {
	const rate, n = 5120.0, 1024
	values := make([]float64, n)
	for i := range values {
		tm := float64(i) / rate
		values[i] = 375 + 40*math.Sin(2*math.Pi*50*tm) + 5*math.Sin(2*math.Pi*150*tm)
	}
	hz, amp := DominantFrequency(values, rate)
	if hz != 50 {
		t.Fatalf("expected 50 Hz, got %v", hz)
	}
	if math.Abs(amp-40) > 0.01 {
		t.Fatalf("expected amplitude 40, got %v", amp)
	}
	spec := Spectrum(values, SpectrumBins)
	if math.Abs(spec[0]-375) > 1e-6 {
		t.Fatalf("expected DC 375, got %v", spec[0])
	}
}

func TestComputeSkipsNonFinite(t *testing.T) {
	m := Compute([]float64{1, math.NaN(), 3, math.Inf(1)}, 0)
	if m.Count != 2 || m.Mean != 2 || m.Min != 1 || m.Max != 3 || m.DominantHz != 0 {
		t.Fatalf("unexpected metrics %+v", m)
	}
	if (Compute(nil, 1) != Metrics{}) {
		t.Fatalf("expected zero metrics for no samples")
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	want := []float64{2, 3, 5, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestSparklineAndDownsample(t *testing.T) {
	if got := Sparkline([]float64{0, 9}); got != " @" {
		t.Fatalf("unexpected sparkline %q", got)
	}
	if got := Sparkline([]float64{1, 1, 1}); got != "+++" {
		t.Fatalf("unexpected flat sparkline %q", got)
	}
	got := Downsample([]float64{1, 3, 5, 7}, 2)
	if len(got) != 2 || got[0] != 2 || got[1] != 6 {
		t.Fatalf("unexpected downsample %v", got)
	}
}
