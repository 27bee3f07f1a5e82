package viewport

import (
	"math"
	"testing"
)

type fakeHost struct {
	rect       *Rect
	canvasW    float64
	canvasH    float64
	windows    []WindowState
	series     []Series
	categories []Value
	scale      map[Axis]Extent
	setCalls   int
	resetCalls int
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		canvasW: 600,
		canvasH: 400,
		windows: []WindowState{{}, {}},
		scale:   map[Axis]Extent{},
	}
}

// withPlot installs a 500x300 plot rectangle at (60, 20).
func (h *fakeHost) withPlot() *fakeHost {
	h.rect = &Rect{X: 60, Y: 20, Width: 500, Height: 300}
	return h
}

func (h *fakeHost) withPairs(xs, ys []float64) *fakeHost {
	data := make([]Datum, len(xs))
	for i := range xs {
		data[i] = PairOf(Num(xs[i]), Num(ys[i]))
	}
	h.series = append(h.series, Series{Name: "s", Data: data})
	return h
}

func (h *fakeHost) PixelToValue(p Point) (float64, float64, bool) {
	if h.rect == nil || !p.finite() {
		return 0, 0, false
	}
	xw := h.valueWindow(0)
	yw := h.valueWindow(1)
	fx := (p.X - h.rect.X) / h.rect.Width
	fy := (p.Y - h.rect.Y) / h.rect.Height
	return xw.Start + fx*xw.Range(), yw.End - fy*yw.Range(), true
}

func (h *fakeHost) valueWindow(idx int) Window {
	st := h.windows[idx]
	if st.HasValue {
		return Window{Start: st.StartValue, End: st.EndValue}
	}
	return Window{Start: 0, End: 1000}
}

func (h *fakeHost) SetWindow(index int, start, end float64) {
	h.setCalls++
	h.windows[index] = ValueWindow(start, end)
}

func (h *fakeHost) ResetWindow(index int) {
	h.resetCalls++
	h.windows[index] = PercentWindow(0, 100)
}

func (h *fakeHost) WindowCount() int { return len(h.windows) }

func (h *fakeHost) CurrentWindow(index int) WindowState {
	if index < 0 || index >= len(h.windows) {
		return WindowState{}
	}
	return h.windows[index]
}

func (h *fakeHost) PlotRect() (Rect, bool) {
	if h.rect == nil {
		return Rect{}, false
	}
	return *h.rect, true
}

func (h *fakeHost) CanvasSize() (float64, float64) { return h.canvasW, h.canvasH }

func (h *fakeHost) Series() []Series { return h.series }

func (h *fakeHost) Categories() []Value { return h.categories }

func (h *fakeHost) ScaleExtent(axis Axis) (Extent, bool) {
	e, ok := h.scale[axis]
	return e, ok
}

type fakeSource struct {
	handlers map[int]func(Event)
	next     int
}

func newFakeSource() *fakeSource {
	return &fakeSource{handlers: map[int]func(Event){}}
}

func (s *fakeSource) Subscribe(h func(Event)) func() {
	id := s.next
	s.next++
	s.handlers[id] = h
	return func() { delete(s.handlers, id) }
}

func (s *fakeSource) emit(ev Event) {
	for _, h := range s.handlers {
		h(ev)
	}
}

func newTestController(t *testing.T, h Host, cfg Config) *Controller {
	t.Helper()
	c, err := New(h, cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func extentPtr(min, max float64) *Extent {
	return &Extent{Min: min, Max: max}
}

func approxEqual(a, b, rel float64) bool {
	if a == b {
		return true
	}
	scale := math.Max(math.Abs(a), math.Abs(b))
	if scale < 1 {
		scale = 1
	}
	return math.Abs(a-b) <= rel*scale
}

func assertWindow(t *testing.T, h *fakeHost, idx int, start, end float64) {
	t.Helper()
	st := h.windows[idx]
	if !st.HasValue {
		t.Fatalf("window %d: expected value window, got %+v", idx, st)
	}
	if !approxEqual(st.StartValue, start, 1e-9) || !approxEqual(st.EndValue, end, 1e-9) {
		t.Fatalf("window %d: expected [%v, %v], got [%v, %v]", idx, start, end, st.StartValue, st.EndValue)
	}
}
