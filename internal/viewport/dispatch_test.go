package viewport

import (
	"math"
	"testing"
)

func newDispatchFixture(t *testing.T) (*fakeHost, *fakeSource, *Controller) {
	t.Helper()
	h := newFakeHost().withPlot().withPairs([]float64{0, 1000}, []float64{0, 1000})
	h.windows[0] = ValueWindow(0, 1000)
	h.windows[1] = ValueWindow(0, 1000)
	src := newFakeSource()
	c := newTestController(t, h, DefaultConfig())
	c.Bind(src)
	return h, src, c
}

func TestWheelInPlotZoomsBothAxes(t *testing.T) {
	h, src, _ := newDispatchFixture(t)
	// (310, 170) is the middle of the plot: value 500 on both axes.
	src.emit(Event{Kind: EventWheel, Pos: Point{X: 310, Y: 170}, WheelDelta: 1})

	half := 1000 / DefaultZoomInFactor / 2
	assertWindow(t, h, 0, 500-half, 500+half)
	assertWindow(t, h, 1, 500-half, 500+half)
}

func TestWheelInGutterZoomsOneAxis(t *testing.T) {
	h, src, _ := newDispatchFixture(t)
	src.emit(Event{Kind: EventWheel, Pos: Point{X: 310, Y: 360}, WheelDelta: 1})
	if h.setCalls != 1 {
		t.Fatalf("expected one write for x gutter, got %d", h.setCalls)
	}
	assertWindow(t, h, 1, 0, 1000)
	if got := h.windows[0]; got.EndValue-got.StartValue >= 1000 {
		t.Fatalf("expected x window to shrink, got %+v", got)
	}

	h, src, _ = newDispatchFixture(t)
	src.emit(Event{Kind: EventWheel, Pos: Point{X: 20, Y: 170}, WheelDelta: 3})
	if h.setCalls != 1 {
		t.Fatalf("expected one write for y gutter, got %d", h.setCalls)
	}
	assertWindow(t, h, 0, 0, 1000)
}

func TestWheelAnchorClampedIntoPlot(t *testing.T) {
	h, src, _ := newDispatchFixture(t)
	// Far left of the y gutter: anchor is pulled to x=61 before projection,
	// so only the y coordinate matters and the y anchor stays at 500.
	src.emit(Event{Kind: EventWheel, Pos: Point{X: 0, Y: 170}, WheelDelta: 1})
	half := 1000 / DefaultZoomInFactor / 2
	assertWindow(t, h, 1, 500-half, 500+half)
}

func TestWheelDownAtFullExtentStaysFull(t *testing.T) {
	h, src, _ := newDispatchFixture(t)
	src.emit(Event{Kind: EventWheel, Pos: Point{X: 310, Y: 170}, WheelDelta: -1})
	assertWindow(t, h, 0, 0, 1000)
	assertWindow(t, h, 1, 0, 1000)
}

func TestWheelIgnored(t *testing.T) {
	cases := []struct {
		name string
		ev   Event
	}{
		{name: "zero delta", ev: Event{Kind: EventWheel, Pos: Point{X: 310, Y: 170}}},
		{name: "nan delta", ev: Event{Kind: EventWheel, Pos: Point{X: 310, Y: 170}, WheelDelta: math.NaN()}},
		{name: "outside", ev: Event{Kind: EventWheel, Pos: Point{X: 310, Y: 5}, WheelDelta: 1}},
		{name: "nan position", ev: Event{Kind: EventWheel, Pos: Point{X: math.NaN(), Y: 5}, WheelDelta: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, src, _ := newDispatchFixture(t)
			src.emit(tc.ev)
			if h.setCalls != 0 {
				t.Fatalf("expected no writes, got %d", h.setCalls)
			}
		})
	}
}

func TestDragLifecycle(t *testing.T) {
	h, src, c := newDispatchFixture(t)

	src.emit(Event{Kind: EventDown, Pos: Point{X: 300, Y: 100}, Button: ButtonRight})
	if c.Dragging() {
		t.Fatalf("right button must not start a drag")
	}
	src.emit(Event{Kind: EventDown, Pos: Point{X: 30, Y: 100}})
	if c.Dragging() {
		t.Fatalf("press in gutter must not start a drag")
	}

	src.emit(Event{Kind: EventDown, Pos: Point{X: 300, Y: 100}})
	if !c.Dragging() {
		t.Fatalf("expected drag to start")
	}
	src.emit(Event{Kind: EventMove, Pos: Point{X: 300, Y: 100}})
	assertWindow(t, h, 0, 0, 1000)
	src.emit(Event{Kind: EventUp, Pos: Point{X: 300, Y: 100}})
	if c.Dragging() {
		t.Fatalf("expected drag to end on release")
	}

	src.emit(Event{Kind: EventDown, Pos: Point{X: 300, Y: 100}})
	src.emit(Event{Kind: EventLeave})
	if c.Dragging() {
		t.Fatalf("expected drag to end on leave")
	}
	calls := h.setCalls
	src.emit(Event{Kind: EventMove, Pos: Point{X: 400, Y: 200}})
	if h.setCalls != calls {
		t.Fatalf("move after leave must not pan")
	}
}

func TestDoubleClickResetsRegion(t *testing.T) {
	cases := []struct {
		name   string
		pos    Point
		resets int
		reset  []bool
	}{
		{name: "x gutter", pos: Point{X: 300, Y: 360}, resets: 1, reset: []bool{true, false}},
		{name: "y gutter", pos: Point{X: 20, Y: 100}, resets: 1, reset: []bool{false, true}},
		{name: "plot", pos: Point{X: 300, Y: 100}, resets: 2, reset: []bool{true, true}},
		{name: "corner", pos: Point{X: 20, Y: 360}, resets: 1, reset: []bool{false, true}},
		{name: "outside", pos: Point{X: 300, Y: 5}, resets: 0, reset: []bool{false, false}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, src, _ := newDispatchFixture(t)
			h.windows[0] = ValueWindow(100, 200)
			h.windows[1] = ValueWindow(100, 200)
			src.emit(Event{Kind: EventDoubleClick, Pos: tc.pos})
			if h.resetCalls != tc.resets {
				t.Fatalf("expected %d resets, got %d", tc.resets, h.resetCalls)
			}
			for i, want := range tc.reset {
				got := h.windows[i].HasPercent && !h.windows[i].HasValue
				if got != want {
					t.Fatalf("window %d: reset=%v, want %v", i, got, want)
				}
			}
		})
	}
}

func TestResetIsIdempotent(t *testing.T) {
	h, _, c := newDispatchFixture(t)
	h.windows[0] = ValueWindow(100, 200)

	c.Reset(RegionPlot)
	first := append([]WindowState(nil), h.windows...)
	c.Reset(RegionPlot)
	for i := range first {
		if h.windows[i] != first[i] {
			t.Fatalf("window %d changed on second reset: %+v vs %+v", i, first[i], h.windows[i])
		}
	}
	w, ok := c.Window(AxisX)
	if !ok || w.Start != 0 || w.End != 1000 {
		t.Fatalf("expected full x window after reset, got %+v", w)
	}
}

func TestResetSkipsMissingSlot(t *testing.T) {
	h := newFakeHost().withPairs([]float64{0, 1}, []float64{0, 1})
	cfg := DefaultConfig()
	cfg.YWindowIndex = 5
	c := newTestController(t, h, cfg)

	c.Reset(RegionYAxis)
	if h.resetCalls != 0 {
		t.Fatalf("expected missing slot to be skipped, got %d resets", h.resetCalls)
	}
	c.Reset(RegionPlot)
	if h.resetCalls != 1 {
		t.Fatalf("expected only x slot reset, got %d", h.resetCalls)
	}
	c.ResetAll()
	if h.resetCalls != 3 {
		t.Fatalf("expected ResetAll to touch both slots, got %d total", h.resetCalls)
	}
}

func TestRebindingReplacesSubscription(t *testing.T) {
	h, src, c := newDispatchFixture(t)
	c.Bind(src)
	if len(src.handlers) != 1 {
		t.Fatalf("expected a single subscription, got %d", len(src.handlers))
	}
	src.emit(Event{Kind: EventWheel, Pos: Point{X: 310, Y: 170}, WheelDelta: 1})
	if h.setCalls != 2 {
		t.Fatalf("expected one zoom per axis, got %d writes", h.setCalls)
	}
	c.Detach()
	if len(src.handlers) != 0 {
		t.Fatalf("expected detach to unsubscribe")
	}
}

func TestRegistryAttach(t *testing.T) {
	h := newFakeHost().withPlot().withPairs([]float64{0, 1000}, []float64{0, 1000})
	src := newFakeSource()
	reg := NewRegistry()

	first, err := reg.Attach(h, src, DefaultConfig())
	if err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	src.emit(Event{Kind: EventDown, Pos: Point{X: 300, Y: 100}})
	if !first.Dragging() {
		t.Fatalf("expected first controller to receive events")
	}

	cfg := DefaultConfig()
	cfg.PanSpeed = 3
	second, err := reg.Attach(h, src, cfg)
	if err != nil {
		t.Fatalf("re-Attach failed: %v", err)
	}
	if first.Dragging() {
		t.Fatalf("expected replaced controller to drop its drag")
	}
	if len(src.handlers) != 1 {
		t.Fatalf("expected exactly one live subscription, got %d", len(src.handlers))
	}
	if got, ok := reg.Lookup(h); !ok || got != second {
		t.Fatalf("expected lookup to return the newest controller")
	}
	if got := second.Config().PanSpeed; got != 3 {
		t.Fatalf("expected new config, got pan speed %v", got)
	}

	reg.Release(h)
	if len(src.handlers) != 0 {
		t.Fatalf("expected release to unsubscribe")
	}
	if _, ok := reg.Lookup(h); ok {
		t.Fatalf("expected lookup to fail after release")
	}

	bad := DefaultConfig()
	bad.ZoomInFactor = 0.5
	if _, err := reg.Attach(h, src, bad); err == nil {
		t.Fatalf("expected invalid config to be rejected")
	}
}

func TestWindowReadFallbacks(t *testing.T) {
	h := newFakeHost().withPairs([]float64{0, 1000}, []float64{0, 10})
	s := windowStore{host: h, cfg: DefaultConfig(), extents: extentResolver{host: h, cfg: DefaultConfig()}}

	cases := []struct {
		name       string
		state      WindowState
		start, end float64
	}{
		{name: "empty", state: WindowState{}, start: 0, end: 1000},
		{name: "percent", state: PercentWindow(25, 75), start: 250, end: 750},
		{name: "inverted value", state: ValueWindow(600, 200), start: 200, end: 600},
		{name: "partly outside", state: ValueWindow(-500, 500), start: 0, end: 500},
		{name: "fully outside", state: ValueWindow(2000, 3000), start: 0, end: 1000},
		{name: "degenerate value", state: ValueWindow(5, 5), start: 0, end: 1000},
		{name: "nan value", state: ValueWindow(math.NaN(), 5), start: 0, end: 1000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h.windows[0] = tc.state
			w, ext, ok := s.Read(AxisX)
			if !ok {
				t.Fatalf("Read failed")
			}
			if ext != (Extent{Min: 0, Max: 1000}) {
				t.Fatalf("unexpected extent %+v", ext)
			}
			if w.Start != tc.start || w.End != tc.end {
				t.Fatalf("expected [%v,%v], got %+v", tc.start, tc.end, w)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	mutations := map[string]func(*Config){
		"zoom in":       func(c *Config) { c.ZoomInFactor = 1 },
		"zoom out":      func(c *Config) { c.ZoomOutFactor = 1.2 },
		"pan speed":     func(c *Config) { c.PanSpeed = 0 },
		"x threshold":   func(c *Config) { c.XAxisThreshold = 1 },
		"y threshold":   func(c *Config) { c.YAxisThreshold = math.NaN() },
		"priority":      func(c *Config) { c.CornerPriority = CornerPriority(9) },
		"same index":    func(c *Config) { c.YWindowIndex = c.XWindowIndex },
		"neg index":     func(c *Config) { c.XWindowIndex = -1 },
		"bad x extent":  func(c *Config) { c.XExtent = extentPtr(5, 5) },
		"nan y extent":  func(c *Config) { c.YExtent = extentPtr(math.NaN(), 1) },
	}
	for name, mutate := range mutations {
		cfg := DefaultConfig()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}
