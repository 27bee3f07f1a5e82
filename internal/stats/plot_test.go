package stats

import (
	"bytes"
	"math"
	"strings"
	"testing"
)

const blankCell = '⠀'

func plotCells(t *testing.T, line string, layout Layout) []rune {
	t.Helper()
	runes := []rune(line)
	if len(runes) < layout.Left+layout.PlotWidth {
		t.Fatalf("line too short: %q", line)
	}
	return runes[layout.Left : layout.Left+layout.PlotWidth]
}

func TestLayoutFor(t *testing.T) {
	l := LayoutFor(40, 12)
	if l.Left != 11 || l.PlotWidth != 28 || l.PlotHeight != 10 || !l.Usable() {
		t.Fatalf("unexpected layout %+v", l)
	}
	if LayoutFor(12, 2).Usable() {
		t.Fatalf("expected tiny grid to be unusable")
	}
	if got := RenderWindow(Frame{Width: 12, Height: 2}); got != nil {
		t.Fatalf("expected nil render for unusable grid, got %d lines", len(got))
	}
}

func TestRenderWindowHorizontalLine(t *testing.T) {
	f := Frame{
		Traces: []Trace{{Name: "flat", X: []float64{0, 10}, Y: []float64{5, 5}}},
		Window: Window{XStart: 0, XEnd: 10, YStart: 0, YEnd: 10},
		Width:  40,
		Height: 12,
	}
	lines := RenderWindow(f)
	if len(lines) != f.Height {
		t.Fatalf("expected %d lines, got %d", f.Height, len(lines))
	}
	layout := LayoutFor(f.Width, f.Height)
	for y := 0; y < layout.PlotHeight; y++ {
		for x, r := range plotCells(t, lines[y], layout) {
			if y == 5 && r == blankCell {
				t.Fatalf("row 5 col %d: expected line dots", x)
			}
			if y != 5 && r != blankCell {
				t.Fatalf("row %d col %d: unexpected dots %q", y, x, r)
			}
		}
	}
	if !strings.HasPrefix(lines[0], "      10 │ ") {
		t.Fatalf("unexpected top label line %q", lines[0])
	}
	if !strings.HasPrefix(lines[layout.PlotHeight-1], "       0 │ ") {
		t.Fatalf("unexpected bottom label line %q", lines[layout.PlotHeight-1])
	}
	xLabels := strings.TrimSpace(lines[len(lines)-1])
	if !strings.HasPrefix(xLabels, "0") || !strings.HasSuffix(xLabels, "10") || !strings.Contains(xLabels, "5") {
		t.Fatalf("unexpected x labels %q", xLabels)
	}
}

func TestRenderWindowClipsOutsideData(t *testing.T) {
	f := Frame{
		Traces: []Trace{{Name: "high", X: []float64{0, 5, 10}, Y: []float64{50, 60, 70}}},
		Window: Window{XStart: 0, XEnd: 10, YStart: 0, YEnd: 10},
		Width:  30,
		Height: 8,
	}
	lines := RenderWindow(f)
	layout := LayoutFor(f.Width, f.Height)
	for y := 0; y < layout.PlotHeight; y++ {
		for _, r := range plotCells(t, lines[y], layout) {
			if r != blankCell {
				t.Fatalf("row %d: data above the window must not be drawn", y)
			}
		}
	}
}

func TestRenderWindowDrawsCrossingSegment(t *testing.T) {
	f := Frame{
		Traces: []Trace{{Name: "ramp", X: []float64{-100, 100}, Y: []float64{-100, 100}}},
		Window: Window{XStart: 0, XEnd: 10, YStart: 0, YEnd: 10},
		Width:  30,
		Height: 8,
	}
	lines := RenderWindow(f)
	layout := LayoutFor(f.Width, f.Height)
	top := plotCells(t, lines[0], layout)
	bottom := plotCells(t, lines[layout.PlotHeight-1], layout)
	if top[len(top)-1] == blankCell || bottom[0] == blankCell {
		t.Fatalf("expected the diagonal to reach both corners:\n%s", strings.Join(lines, "\n"))
	}
}

func TestRenderWindowBreaksOnNaN(t *testing.T) {
	f := Frame{
		Traces: []Trace{{Name: "gap", X: []float64{0, 5, 10}, Y: []float64{5, math.NaN(), 5}}},
		Window: Window{XStart: 0, XEnd: 10, YStart: 0, YEnd: 10},
		Width:  40,
		Height: 12,
	}
	lines := RenderWindow(f)
	layout := LayoutFor(f.Width, f.Height)
	row := plotCells(t, lines[5], layout)
	if row[layout.PlotWidth/2] != blankCell {
		t.Fatalf("expected a gap where the sample is missing")
	}
	if row[0] == blankCell || row[len(row)-1] == blankCell {
		t.Fatalf("expected isolated endpoints to be drawn")
	}
}

func TestRenderWindowColor(t *testing.T) {
	f := Frame{
		Traces: []Trace{{Name: "a", X: []float64{0, 10}, Y: []float64{5, 5}}},
		Window: Window{XStart: 0, XEnd: 10, YStart: 0, YEnd: 10},
		Width:  30,
		Height: 8,
		Color:  true,
	}
	if !strings.Contains(strings.Join(RenderWindow(f), "\n"), colorPalette[0].code) {
		t.Fatalf("expected colored output")
	}
}

func TestRenderWindowInvalidWindow(t *testing.T) {
	f := Frame{
		Traces: []Trace{{Name: "a", X: []float64{0, 10}, Y: []float64{5, 5}}},
		Window: Window{XStart: 10, XEnd: 10, YStart: 0, YEnd: 10},
		Width:  30,
		Height: 8,
	}
	lines := RenderWindow(f)
	layout := LayoutFor(f.Width, f.Height)
	for y := 0; y < layout.PlotHeight; y++ {
		for _, r := range plotCells(t, lines[y], layout) {
			if r != blankCell {
				t.Fatalf("expected empty plot for a degenerate window")
			}
		}
	}
}

func TestClipSegment(t *testing.T) {
	x0, y0, x1, y1, ok := clipSegment(-5, 5, 15, 5, 0, 0, 10, 10)
	if !ok || x0 != 0 || x1 != 10 || y0 != 5 || y1 != 5 {
		t.Fatalf("unexpected clip (%v,%v)-(%v,%v) ok=%v", x0, y0, x1, y1, ok)
	}
	if _, _, _, _, ok := clipSegment(-5, -5, -1, -1, 0, 0, 10, 10); ok {
		t.Fatalf("expected outside segment to be rejected")
	}
}

func TestPlotSeries(t *testing.T) {
	var buf bytes.Buffer
	err := PlotSeries(&buf, "Test Plot", []Series{
		{Name: "A", Values: []float64{1, 2, 3, 2, 1}},
		{Name: "B", Values: []float64{1, 1, 2, 3, 4}},
	}, 20, 4)
	if err != nil {
		t.Fatalf("PlotSeries failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Test Plot", "Scaled per series", "A: min=1.00 max=3.00", "100%", "Legend:"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	expectedMin := 1 + 1 + 2 + 4 + 2 + 1
	if len(lines) < expectedMin {
		t.Fatalf("expected at least %d lines of output, got %d", expectedMin, len(lines))
	}
}

func TestPlotWidthFor(t *testing.T) {
	if got := PlotWidthFor(80); got != 80-11-1 {
		t.Fatalf("expected width %d, got %d", 80-12, got)
	}
	if got := PlotWidthFor(0); got != minPlotWidth {
		t.Fatalf("expected min width %d, got %d", minPlotWidth, got)
	}
}
