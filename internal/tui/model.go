// Package tui provides the Bubble Tea scope interface.
package tui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/verte-zerg/wavescope/internal/generator"
	"github.com/verte-zerg/wavescope/internal/model"
	"github.com/verte-zerg/wavescope/internal/scope"
	statsPkg "github.com/verte-zerg/wavescope/internal/stats"
	"github.com/verte-zerg/wavescope/internal/store"
	"github.com/verte-zerg/wavescope/internal/viewport"
)

const (
	canvasZone     = "canvas"
	headerHeight   = 1
	footerHeight   = 3
	keyPanFraction = 0.1
	liveDeviceID   = "live"
)

type zoomAxes int

const (
	zoomBoth zoomAxes = iota
	zoomX
	zoomY
)

func (z zoomAxes) String() string {
	switch z {
	case zoomX:
		return "x"
	case zoomY:
		return "y"
	default:
		return "x+y"
	}
}

type tickMsg time.Time

// Options wires the scope model to its data and settings.
type Options struct {
	View     model.ViewConfig
	Viewport viewport.Config
	// Capture is shown when View.Live is false.
	Capture   model.Capture
	Store     *store.Store
	Generator *generator.Generator
	Logger    *slog.Logger
	// Reload re-reads the viewport settings; nil disables reloading.
	Reload func() (viewport.Config, error)
}

// Model implements the Bubble Tea scope UI.
type Model struct {
	opts   Options
	logger *slog.Logger

	chart    *scope.Chart
	events   *scope.Events
	registry *viewport.Registry
	ctrl     *viewport.Controller
	zones    *zone.Manager

	keys     keyMap
	help     help.Model
	clicks   clickTracker
	axes     zoomAxes
	dblPress *viewport.Point

	capture model.Capture
	paused  bool

	width  int
	height int

	status string
	errMsg string
}

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	grabStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
)

// NewModel builds the scope model and attaches a viewport controller to
// its chart.
func NewModel(opts Options) (*Model, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.View.Live && opts.Generator == nil {
		opts.Generator = generator.New()
	}
	m := &Model{
		opts:     opts,
		logger:   logger,
		chart:    scope.NewChart(scope.DefaultSlots),
		events:   scope.NewEvents(),
		registry: viewport.NewRegistry(),
		zones:    zone.New(),
		keys:     newKeyMap(),
		help:     help.New(),
	}
	m.chart.SetColor(opts.View.Color)
	if opts.View.Live {
		m.refreshLive(time.Now())
	} else {
		m.capture = opts.Capture
		m.chart.SetCapture(opts.Capture)
	}
	if err := m.attach(opts.Viewport); err != nil {
		return nil, err
	}
	if opts.View.Restore {
		m.restoreView()
	}
	return m, nil
}

// Close stops the zone manager's background worker.
func (m *Model) Close() {
	m.registry.Release(m.chart)
	m.zones.Close()
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	if m.opts.View.Live {
		return m.tick()
	}
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.chart.SetSize(m.width, m.canvasHeight())
		return m, nil
	case tickMsg:
		if !m.paused {
			m.refreshLive(time.Time(msg))
		}
		return m, m.tick()
	case tea.MouseMsg:
		m.handleMouse(msg, time.Now())
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	canvasHeight := m.canvasHeight()
	canvas := fitLines(strings.Join(m.chart.Render(m.ctrl), "\n"), m.width, canvasHeight)
	body := strings.Join([]string{
		padLines(m.renderHeader(), m.width),
		m.zones.Mark(canvasZone, canvas),
		m.renderFooter(),
	}, "\n")
	return m.zones.Scan(body)
}

func (m *Model) canvasHeight() int {
	return maxInt(1, m.height-headerHeight-footerHeight)
}

func (m *Model) attach(cfg viewport.Config) error {
	if m.opts.View.Live && cfg.XExtent == nil {
		cfg.XExtent = &viewport.Extent{Min: 0, Max: generator.Points * generator.SampleIntervalMs}
	}
	ctrl, err := m.registry.Attach(m.chart, m.events, cfg, viewport.WithLogger(m.logger))
	if err != nil {
		return fmt.Errorf("attach viewport: %w", err)
	}
	m.ctrl = ctrl
	return nil
}

func (m *Model) tick() tea.Cmd {
	refresh := m.opts.View.Refresh
	if refresh <= 0 {
		refresh = time.Second
	}
	return tea.Tick(refresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) refreshLive(at time.Time) {
	m.capture = m.opts.Generator.Capture(liveDeviceID, m.opts.View.Fault, m.opts.View.Channel, at)
	m.chart.SetCapture(m.capture)
}

// canvasCell returns the mouse position relative to the canvas and whether
// it lies on the canvas. The zone manager is authoritative once it has seen
// a frame; before that the fixed layout is used.
func (m *Model) canvasCell(msg tea.MouseMsg) (x, y int, inside bool) {
	if info := m.zones.Get(canvasZone); info != nil && !info.IsZero() {
		if !info.InBounds(msg) {
			return msg.X - info.StartX, msg.Y - info.StartY, false
		}
		x, y = info.Pos(msg)
		return x, y, true
	}
	x, y = msg.X, msg.Y-headerHeight
	inside = x >= 0 && y >= 0 && x < m.width && y < m.canvasHeight()
	return x, y, inside
}

func (m *Model) handleMouse(msg tea.MouseMsg, now time.Time) {
	x, y, inside := m.canvasCell(msg)
	if !inside {
		if m.ctrl.Dragging() {
			m.events.Publish(viewport.Event{Kind: viewport.EventLeave, Pos: cellPoint(x, y)})
		}
		m.dblPress = nil
		return
	}
	ev, ok := pointerEvent(msg, x, y)
	if !ok {
		return
	}
	m.events.Publish(ev)
	switch ev.Kind {
	case viewport.EventDown:
		if ev.Button == viewport.ButtonLeft && m.clicks.press(now, x, y) {
			p := ev.Pos
			m.dblPress = &p
		}
	case viewport.EventUp:
		if m.dblPress != nil {
			m.events.Publish(viewport.Event{Kind: viewport.EventDoubleClick, Pos: *m.dblPress})
			m.dblPress = nil
		}
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.errMsg = ""
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.ZoomIn):
		m.zoom(m.ctrl.Config().ZoomInFactor)
	case key.Matches(msg, m.keys.ZoomOut):
		m.zoom(m.ctrl.Config().ZoomOutFactor)
	case key.Matches(msg, m.keys.Axis):
		m.axes = (m.axes + 1) % 3
		m.status = "zoom " + m.axes.String()
	case key.Matches(msg, m.keys.Left):
		m.ctrl.Pan(viewport.AxisX, -keyPanFraction)
	case key.Matches(msg, m.keys.Right):
		m.ctrl.Pan(viewport.AxisX, keyPanFraction)
	case key.Matches(msg, m.keys.Up):
		m.ctrl.Pan(viewport.AxisY, keyPanFraction)
	case key.Matches(msg, m.keys.Down):
		m.ctrl.Pan(viewport.AxisY, -keyPanFraction)
	case key.Matches(msg, m.keys.Reset):
		m.ctrl.Reset(viewport.RegionPlot)
	case key.Matches(msg, m.keys.ResetAll):
		m.ctrl.ResetAll()
	case key.Matches(msg, m.keys.Save):
		m.saveView()
	case key.Matches(msg, m.keys.Reload):
		m.reload()
	case key.Matches(msg, m.keys.Pause):
		if m.opts.View.Live {
			m.paused = !m.paused
		}
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m *Model) zoom(factor float64) {
	if m.axes != zoomY {
		m.ctrl.Zoom(viewport.AxisX, math.NaN(), factor)
	}
	if m.axes != zoomX {
		m.ctrl.Zoom(viewport.AxisY, math.NaN(), factor)
	}
}

func (m *Model) saveView() {
	if m.opts.Store == nil || m.capture.ID == 0 {
		m.errMsg = "only stored captures can save a view"
		return
	}
	x, okX := m.ctrl.Window(viewport.AxisX)
	y, okY := m.ctrl.Window(viewport.AxisY)
	if !okX || !okY {
		m.errMsg = "nothing to save: the capture has no extent"
		return
	}
	err := m.opts.Store.SaveViewState(context.Background(), model.ViewState{
		CaptureID: m.capture.ID,
		XStart:    x.Start,
		XEnd:      x.End,
		YStart:    y.Start,
		YEnd:      y.End,
	})
	if err != nil {
		m.logger.Error("save view", "capture", m.capture.ID, "err", err)
		m.errMsg = fmt.Sprintf("failed to save view: %v", err)
		return
	}
	m.status = fmt.Sprintf("saved view of capture %d", m.capture.ID)
}

func (m *Model) restoreView() {
	if m.opts.Store == nil || m.capture.ID == 0 {
		return
	}
	v, ok, err := m.opts.Store.GetViewState(context.Background(), m.capture.ID)
	if err != nil {
		m.logger.Error("load view", "capture", m.capture.ID, "err", err)
		m.errMsg = fmt.Sprintf("failed to load saved view: %v", err)
		return
	}
	if !ok {
		return
	}
	cfg := m.ctrl.Config()
	m.chart.SetWindow(cfg.XWindowIndex, v.XStart, v.XEnd)
	m.chart.SetWindow(cfg.YWindowIndex, v.YStart, v.YEnd)
	m.status = "restored saved view"
}

func (m *Model) reload() {
	if m.opts.Reload == nil {
		return
	}
	cfg, err := m.opts.Reload()
	if err == nil {
		err = m.attach(cfg)
	}
	if err != nil {
		m.logger.Error("reload config", "err", err)
		m.errMsg = fmt.Sprintf("reload failed: %v", err)
		return
	}
	m.status = "config reloaded"
}

func (m *Model) renderHeader() string {
	c := m.capture
	title := fmt.Sprintf("%s  %s  %s %s", c.DeviceID, c.Channel, c.Fault, c.Fault.Name())
	if c.ID > 0 {
		title = fmt.Sprintf("#%d  %s  %s", c.ID, title, c.CapturedAt.Local().Format("2006-01-02 15:04:05"))
	}
	if m.opts.View.Live {
		if m.paused {
			title += "  [paused]"
		} else {
			title += "  [live]"
		}
	}
	return headerStyle.Render(truncateLine(title, m.width))
}

func (m *Model) renderFooter() string {
	lines := []string{
		truncateLine(m.metricsLine(), m.width),
		m.windowLine(),
		m.help.View(m.keys),
	}
	if m.errMsg != "" {
		lines[1] = errorStyle.Render(truncateLine(m.errMsg, m.width))
	}
	return fitLines(footerStyle.Render(strings.Join(lines, "\n")), m.width, footerHeight)
}

func (m *Model) metricsLine() string {
	met := statsPkg.Compute(m.visibleSamples(), m.capture.SampleIntervalMs)
	if met.Count == 0 {
		return "no samples in view"
	}
	unit := m.capture.Channel.Unit()
	segments := []string{
		fmt.Sprintf("n=%d", met.Count),
		fmt.Sprintf("min %.4g%s", met.Min, unit),
		fmt.Sprintf("max %.4g%s", met.Max, unit),
		fmt.Sprintf("mean %.4g%s", met.Mean, unit),
		fmt.Sprintf("rms %.4g%s", met.RMS, unit),
		fmt.Sprintf("p-p %.4g%s", met.PeakToPeak, unit),
	}
	if met.DominantHz > 0 {
		segments = append(segments, fmt.Sprintf("f %.1f Hz", met.DominantHz))
	}
	return strings.Join(segments, "  ")
}

func (m *Model) windowLine() string {
	parts := make([]string, 0, 4)
	for _, axis := range []viewport.Axis{viewport.AxisX, viewport.AxisY} {
		w, ok := m.ctrl.Window(axis)
		if !ok {
			parts = append(parts, fmt.Sprintf("%s: -", axis))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: [%.4g, %.4g]", axis, w.Start, w.End))
	}
	if m.status != "" {
		parts = append(parts, m.status)
	}
	line := truncateLine(strings.Join(parts, "  "), m.width)
	if m.ctrl.Dragging() {
		line = grabStyle.Render("grabbing") + "  " + line
	}
	return line
}

// visibleSamples returns the y values whose x lies inside the current x window.
func (m *Model) visibleSamples() []float64 {
	traces := m.chart.Traces()
	if len(traces) == 0 {
		return nil
	}
	tr := traces[0]
	w, ok := m.ctrl.Window(viewport.AxisX)
	if !ok {
		return tr.Y
	}
	out := make([]float64, 0, len(tr.Y))
	for i, x := range tr.X {
		if x >= w.Start && x <= w.End {
			out = append(out, tr.Y[i])
		}
	}
	return out
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
