package viewport

import (
	"math"
	"testing"
)

func TestClassifyWithPlotRect(t *testing.T) {
	h := newFakeHost().withPlot()
	c := regionClassifier{host: h, cfg: DefaultConfig()}

	cases := []struct {
		name string
		p    Point
		want RegionKind
	}{
		{name: "y gutter", p: Point{X: 30, Y: 100}, want: RegionYAxis},
		{name: "x gutter", p: Point{X: 300, Y: 350}, want: RegionXAxis},
		{name: "plot", p: Point{X: 300, Y: 100}, want: RegionPlot},
		{name: "plot edge", p: Point{X: 60, Y: 320}, want: RegionPlot},
		{name: "above plot", p: Point{X: 300, Y: 5}, want: RegionNone},
		{name: "right of plot", p: Point{X: 590, Y: 100}, want: RegionNone},
		{name: "corner", p: Point{X: 30, Y: 350}, want: RegionYAxis},
		{name: "nan", p: Point{X: math.NaN(), Y: 10}, want: RegionNone},
	}
	for _, tc := range cases {
		if got := c.Classify(tc.p); got != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestClassifyCornerPriority(t *testing.T) {
	corner := Point{X: 30, Y: 350}
	for _, tc := range []struct {
		priority CornerPriority
		want     RegionKind
	}{
		{CornerX, RegionXAxis},
		{CornerY, RegionYAxis},
		{CornerNone, RegionNone},
	} {
		cfg := DefaultConfig()
		cfg.CornerPriority = tc.priority
		c := regionClassifier{host: newFakeHost().withPlot(), cfg: cfg}
		if raw := c.classifyRaw(corner); raw != RegionCorner {
			t.Fatalf("expected raw corner, got %s", raw)
		}
		first := c.Classify(corner)
		if first != tc.want {
			t.Fatalf("priority %s: expected %s, got %s", tc.priority, tc.want, first)
		}
		for i := 0; i < 10; i++ {
			if got := c.Classify(corner); got != first {
				t.Fatalf("priority %s: classification changed on call %d", tc.priority, i)
			}
		}
	}
}

func TestClassifyFallbackThresholds(t *testing.T) {
	h := newFakeHost()
	c := regionClassifier{host: h, cfg: DefaultConfig()}

	// canvas 600x400: x gutter below y=320, y gutter left of x=108.
	cases := []struct {
		p    Point
		want RegionKind
	}{
		{Point{X: 300, Y: 390}, RegionXAxis},
		{Point{X: 50, Y: 100}, RegionYAxis},
		{Point{X: 50, Y: 390}, RegionYAxis},
		{Point{X: 300, Y: 100}, RegionPlot},
		{Point{X: 599, Y: 0}, RegionPlot},
	}
	for _, tc := range cases {
		if got := c.Classify(tc.p); got != tc.want {
			t.Fatalf("%+v: expected %s, got %s", tc.p, tc.want, got)
		}
	}
}

func TestClassifyIgnoresCollapsedRect(t *testing.T) {
	h := newFakeHost()
	h.rect = &Rect{X: 60, Y: 20, Width: 2, Height: 300}
	c := regionClassifier{host: h, cfg: DefaultConfig()}
	// Outside the tiny rect but inside the fallback plot area.
	if got := c.Classify(Point{X: 300, Y: 100}); got != RegionPlot {
		t.Fatalf("expected fallback plot, got %s", got)
	}
}

func TestParseCornerPriority(t *testing.T) {
	for in, want := range map[string]CornerPriority{"x": CornerX, "Y": CornerY, " none ": CornerNone, "": CornerY} {
		got, err := ParseCornerPriority(in)
		if err != nil || got != want {
			t.Fatalf("%q: expected %s, got %s (%v)", in, want, got, err)
		}
	}
	if _, err := ParseCornerPriority("diagonal"); err == nil {
		t.Fatalf("expected error for unknown priority")
	}
}
