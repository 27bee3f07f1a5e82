package tui

import (
	"context"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/wavescope/internal/generator"
	"github.com/verte-zerg/wavescope/internal/model"
	"github.com/verte-zerg/wavescope/internal/store"
	"github.com/verte-zerg/wavescope/internal/viewport"
)

// Screen geometry for an 80x24 terminal: one header row, then a 20 row
// canvas whose plot starts at column 11 and spans 68x18 cells.
const (
	testWidth  = 80
	testHeight = 24
	plotMidX   = 11 + 34
	plotMidY   = headerHeight + 9
)

func rampCapture() model.Capture {
	samples := make([]float64, 100)
	for i := range samples {
		samples[i] = float64(i)
	}
	return model.Capture{
		DeviceID:         "node-1",
		Channel:          model.ChannelDCPos,
		Fault:            model.FaultNormal,
		CapturedAt:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		SampleIntervalMs: 1,
		Samples:          samples,
	}
}

func newTestModel(t *testing.T, opts Options) *Model {
	t.Helper()
	if opts.Viewport == (viewport.Config{}) {
		opts.Viewport = viewport.DefaultConfig()
	}
	m, err := NewModel(opts)
	if err != nil {
		t.Fatalf("new model: %v", err)
	}
	t.Cleanup(m.Close)
	m.Update(tea.WindowSizeMsg{Width: testWidth, Height: testHeight})
	if view := m.View(); view == "" {
		t.Fatalf("expected a rendered view")
	}
	return m
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func xWindow(t *testing.T, m *Model) viewport.Window {
	t.Helper()
	w, ok := m.ctrl.Window(viewport.AxisX)
	if !ok {
		t.Fatalf("expected an x window")
	}
	return w
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestWheelZoomsAroundPointer(t *testing.T) {
	m := newTestModel(t, Options{Capture: rampCapture()})
	m.handleMouse(tea.MouseMsg{X: plotMidX, Y: plotMidY, Button: tea.MouseButtonWheelUp, Action: tea.MouseActionPress}, time.Now())

	w := xWindow(t, m)
	if w.Range() >= 99 {
		t.Fatalf("expected the x window to shrink, got %+v", w)
	}
	if w.Start <= 0 || w.End >= 99 {
		t.Fatalf("expected both x edges to move inward, got %+v", w)
	}
	y, _ := m.ctrl.Window(viewport.AxisY)
	if y.Range() >= 99 {
		t.Fatalf("expected the y window to shrink, got %+v", y)
	}
}

func TestKeyboardZoomPanAndReset(t *testing.T) {
	m := newTestModel(t, Options{Capture: rampCapture()})

	m.Update(runeKey('+'))
	w := xWindow(t, m)
	if !near(w.Range(), 90) || !near(w.Start, 4.5) {
		t.Fatalf("expected midpoint zoom to [4.5, 94.5], got %+v", w)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	w = xWindow(t, m)
	if !near(w.End, 99) || !near(w.Range(), 90) {
		t.Fatalf("expected pan to clamp at the extent, got %+v", w)
	}

	m.Update(runeKey('0'))
	w = xWindow(t, m)
	if w.Start != 0 || w.End != 99 {
		t.Fatalf("expected full extent after reset, got %+v", w)
	}
}

func TestZoomAxisToggle(t *testing.T) {
	m := newTestModel(t, Options{Capture: rampCapture()})
	m.Update(runeKey('a'))
	if m.axes != zoomX {
		t.Fatalf("expected x-only zoom, got %s", m.axes)
	}
	m.Update(runeKey('+'))
	y, _ := m.ctrl.Window(viewport.AxisY)
	if y.Start != 0 || y.End != 99 {
		t.Fatalf("y window should be untouched, got %+v", y)
	}
	if xWindow(t, m).Range() >= 99 {
		t.Fatalf("x window should shrink")
	}
}

func TestDoubleClickResets(t *testing.T) {
	m := newTestModel(t, Options{Capture: rampCapture()})
	m.Update(runeKey('+'))

	t0 := time.Now()
	press := tea.MouseMsg{X: plotMidX, Y: plotMidY, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress}
	release := tea.MouseMsg{X: plotMidX, Y: plotMidY, Button: tea.MouseButtonNone, Action: tea.MouseActionRelease}
	m.handleMouse(press, t0)
	m.handleMouse(release, t0.Add(50*time.Millisecond))
	if xWindow(t, m).Range() >= 99 {
		t.Fatalf("a single click must not reset")
	}
	m.handleMouse(press, t0.Add(150*time.Millisecond))
	m.handleMouse(release, t0.Add(200*time.Millisecond))

	w := xWindow(t, m)
	if w.Start != 0 || w.End != 99 {
		t.Fatalf("expected reset after double click, got %+v", w)
	}
}

func TestDragShowsGrabbingAndEndsOnLeave(t *testing.T) {
	m := newTestModel(t, Options{Capture: rampCapture()})
	m.Update(runeKey('+'))

	m.handleMouse(tea.MouseMsg{X: plotMidX, Y: plotMidY, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress}, time.Now())
	if !m.ctrl.Dragging() {
		t.Fatalf("expected a drag to start in the plot")
	}
	if !strings.Contains(m.renderFooter(), "grabbing") {
		t.Fatalf("expected grabbing marker in footer: %s", m.renderFooter())
	}

	before := xWindow(t, m)
	m.handleMouse(tea.MouseMsg{X: plotMidX - 10, Y: plotMidY, Button: tea.MouseButtonLeft, Action: tea.MouseActionMotion}, time.Now())
	after := xWindow(t, m)
	if after.Start <= before.Start {
		t.Fatalf("dragging left should reveal later samples: before %+v after %+v", before, after)
	}

	m.handleMouse(tea.MouseMsg{X: plotMidX, Y: 0, Button: tea.MouseButtonLeft, Action: tea.MouseActionMotion}, time.Now())
	if m.ctrl.Dragging() {
		t.Fatalf("leaving the canvas should end the drag")
	}
}

func TestFooterShowsMetricsAndWindows(t *testing.T) {
	m := newTestModel(t, Options{Capture: rampCapture()})
	footer := m.renderFooter()
	for _, want := range []string{"n=100", "min 0V", "max 99V", "x: [0, 99]", "y: [0, 99]"} {
		if !strings.Contains(footer, want) {
			t.Fatalf("footer missing %q: %s", want, footer)
		}
	}

	m.Update(runeKey('+'))
	if strings.Contains(m.renderFooter(), "n=100") {
		t.Fatalf("metrics should only cover the visible samples")
	}
}

func TestSaveRequiresStoredCapture(t *testing.T) {
	m := newTestModel(t, Options{Capture: rampCapture()})
	m.Update(runeKey('s'))
	if m.errMsg == "" {
		t.Fatalf("expected an error for an unsaved capture")
	}
}

func TestSaveAndRestoreView(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "wavescope.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	capture := rampCapture()
	id, err := st.InsertCapture(context.Background(), capture)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	capture.ID = id

	m := newTestModel(t, Options{Capture: capture, Store: st})
	m.Update(runeKey('+'))
	m.Update(runeKey('s'))
	if m.errMsg != "" {
		t.Fatalf("save failed: %s", m.errMsg)
	}
	saved := xWindow(t, m)

	restored := newTestModel(t, Options{Capture: capture, Store: st, View: model.ViewConfig{Restore: true}})
	got := xWindow(t, restored)
	if !near(got.Start, saved.Start) || !near(got.End, saved.End) {
		t.Fatalf("expected restored window %+v, got %+v", saved, got)
	}
}

func TestLiveModeUsesFixedExtentAndPauses(t *testing.T) {
	m := newTestModel(t, Options{
		View: model.ViewConfig{
			Live:    true,
			Fault:   model.FaultACIntrusion,
			Channel: model.ChannelDCPos,
			Refresh: time.Second,
		},
		Generator: generator.NewSeeded(1),
	})
	ext, err := m.ctrl.Extent(viewport.AxisX)
	if err != nil || ext.Min != 0 || !near(ext.Max, 200) {
		t.Fatalf("expected the live x extent 0..200, got %+v (%v)", ext, err)
	}
	if m.Init() == nil {
		t.Fatalf("live mode should schedule a tick")
	}

	first := m.capture.CapturedAt
	m.Update(tickMsg(first.Add(time.Second)))
	if !m.capture.CapturedAt.After(first) {
		t.Fatalf("tick should regenerate the waveform")
	}

	m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if !m.paused {
		t.Fatalf("space should pause live mode")
	}
	held := m.capture.CapturedAt
	_, cmd := m.Update(tickMsg(held.Add(time.Second)))
	if !m.capture.CapturedAt.Equal(held) || cmd == nil {
		t.Fatalf("paused ticks keep the capture and reschedule")
	}
}

func TestReloadReattachesController(t *testing.T) {
	cfg := viewport.DefaultConfig()
	cfg.ZoomInFactor = 2
	m := newTestModel(t, Options{
		Capture: rampCapture(),
		Reload:  func() (viewport.Config, error) { return cfg, nil },
	})
	old := m.ctrl
	m.Update(runeKey('R'))
	if m.ctrl == old || m.ctrl.Config().ZoomInFactor != 2 {
		t.Fatalf("expected a new controller with the reloaded config")
	}
	if got, ok := m.registry.Lookup(m.chart); !ok || got != m.ctrl {
		t.Fatalf("registry should track the reloaded controller")
	}
	if m.events.Subscribers() != 1 {
		t.Fatalf("expected exactly one subscriber, got %d", m.events.Subscribers())
	}
}
