// Package browser provides the Bubble Tea capture browser.
package browser

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/wavescope/internal/model"
	"github.com/verte-zerg/wavescope/internal/stats"
	"github.com/verte-zerg/wavescope/internal/store"
)

const (
	tabOverview = iota
	tabCaptures
)

const (
	plotHeight    = 10
	defaultWindow = 5
)

const (
	inputDevice = iota
	inputChannel
	inputFault
	inputSince
	inputLast
	inputWindow
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Model lists stored captures and lets the user pick one to open.
type Model struct {
	store  *store.Store
	filter model.CaptureFilter
	window int

	report stats.Report
	errMsg string

	tabs      []string
	activeTab int
	overview  viewport.Model
	table     table.Model

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string

	selected int64
}

// NewModel constructs a browser over the captures matching filter.
func NewModel(st *store.Store, filter model.CaptureFilter) *Model {
	m := &Model{
		store:     st,
		filter:    filter,
		window:    defaultWindow,
		tabs:      []string{"Overview", "Captures"},
		activeTab: tabCaptures,
		overview:  viewport.New(0, 0),
		table:     newCaptureTable(),
	}
	m.table.Focus()
	m.initInputs()
	m.refreshReport()
	return m
}

// Selected returns the capture chosen with enter, if any.
func (m *Model) Selected() (int64, bool) {
	return m.selected, m.selected > 0
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderOverview()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "tab":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "shift+tab":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "=":
			m.window++
			m.renderOverview()
			return m, nil
		case "-":
			m.window = maxInt(1, m.window-1)
			m.renderOverview()
			return m, nil
		case "/":
			return m.startFilter()
		case "enter":
			if m.activeTab == tabCaptures {
				if id, ok := m.selectedRowID(); ok {
					m.selected = id
					return m, tea.Quit
				}
			}
			return m, nil
		case "g", "home":
			if m.activeTab == tabCaptures {
				m.table.GotoTop()
			} else {
				m.overview.GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabCaptures {
				m.table.GotoBottom()
			} else {
				m.overview.GotoBottom()
			}
			return m, nil
		default:
			var cmd tea.Cmd
			if m.activeTab == tabCaptures {
				m.table, cmd = m.table.Update(msg)
			} else {
				m.overview, cmd = m.overview.Update(msg)
			}
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		inputDevice:  newFilterInput("Device: "),
		inputChannel: newFilterInput("Channel (dc+, dc-, current, leakage): "),
		inputFault:   newFilterInput("Fault (E00-E05): "),
		inputSince:   newFilterInput("Since (YYYY-MM-DD): "),
		inputLast:    newFilterInput("Last: "),
		inputWindow:  newFilterInput("Trend window: "),
	}
	m.setInputsFromFilter()
}

func (m *Model) setInputsFromFilter() {
	m.filterInputs[inputDevice].SetValue(m.filter.DeviceID)
	m.filterInputs[inputChannel].SetValue(string(m.filter.Channel))
	m.filterInputs[inputFault].SetValue(string(m.filter.Fault))
	if m.filter.Since != nil {
		m.filterInputs[inputSince].SetValue(m.filter.Since.Format("2006-01-02"))
	} else {
		m.filterInputs[inputSince].SetValue("")
	}
	if m.filter.Last > 0 {
		m.filterInputs[inputLast].SetValue(strconv.Itoa(m.filter.Last))
	} else {
		m.filterInputs[inputLast].SetValue("")
	}
	m.filterInputs[inputWindow].SetValue(strconv.Itoa(m.window))
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.filterMode && m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.overview.Width = m.width
	m.overview.Height = bodyHeight
	m.table.SetWidth(m.width)
	m.table.SetHeight(m.tableHeight(bodyHeight))
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = maxInt(10, m.width-promptWidth-2)
	}
}

// tableHeight sizes the table so its rendered view, header included, fills
// bodyHeight rows.
func (m *Model) tableHeight(bodyHeight int) int {
	target := maxInt(1, bodyHeight)
	height := maxInt(1, target-1)
	m.table.SetHeight(height)
	for i := 0; i < 2; i++ {
		viewHeight := lipgloss.Height(m.table.View())
		if viewHeight == target {
			break
		}
		height = maxInt(1, height+target-viewHeight)
		m.table.SetHeight(height)
	}
	return height
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	if count == 0 {
		return
	}
	m.activeTab = (m.activeTab + delta + count) % count
	if m.activeTab == tabCaptures {
		m.table.Focus()
	} else {
		m.table.Blur()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	filters := padLines(m.renderFilterSummary(), m.width)
	return tabs + "\n" + filters
}

func (m *Model) renderFilterSummary() string {
	orAny := func(s string) string {
		if s == "" {
			return "any"
		}
		return s
	}
	since := "any"
	if m.filter.Since != nil {
		since = m.filter.Since.Format("2006-01-02")
	}
	last := "all"
	if m.filter.Last > 0 {
		last = strconv.Itoa(m.filter.Last)
	}
	summary := fmt.Sprintf("Filter: device=%s  channel=%s  fault=%s  since=%s  last=%s  window=%d",
		orAny(m.filter.DeviceID), orAny(string(m.filter.Channel)), orAny(string(m.filter.Fault)), since, last, m.window)
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	}
	help := "Tabs: tab/shift+tab  Scroll: up/down/pgup/pgdn  Open: enter  Window: -/=  Filter: /  Quit: q"
	if m.errMsg != "" {
		return headerStyle.Render(help) + "\n" + errorStyle.Render(m.errMsg)
	}
	return headerStyle.Render(help)
}

func (m *Model) renderBody(height int) string {
	if m.filterMode {
		lines := []string{"Filter (enter to apply, esc to cancel)"}
		for _, input := range m.filterInputs {
			lines = append(lines, input.View())
		}
		if m.filterError != "" {
			lines = append(lines, errorStyle.Render(m.filterError))
		}
		return fitLines(strings.Join(lines, "\n"), m.width, height)
	}
	if m.activeTab == tabCaptures {
		if len(m.report.Captures) == 0 {
			return fitLines("No captures found.", m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.table.View()), m.width, height)
	}
	return fitLines(m.overview.View(), m.width, height)
}

func (m *Model) refreshReport() {
	report, err := stats.BuildReport(context.Background(), m.store, m.filter)
	if err != nil {
		m.errMsg = err.Error()
		m.report = stats.Report{}
		m.table.SetRows(nil)
		m.overview.SetContent("Failed to load captures.")
		return
	}
	m.errMsg = ""
	m.report = report
	m.table.SetRows(captureRows(report))
	// Newest capture first under the cursor.
	m.table.GotoBottom()
	m.renderOverview()
}

func (m *Model) renderOverview() {
	if m.errMsg != "" {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.overview.SetContent(renderOverview(m.report, m.window, width))
}

func (m *Model) selectedRowID() (int64, bool) {
	row := m.table.SelectedRow()
	if len(row) == 0 {
		return 0, false
	}
	id, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func renderOverview(r stats.Report, window, width int) string {
	if len(r.Captures) == 0 {
		return "No captures found."
	}
	summary := renderSummaryCards(r, width)
	var buf bytes.Buffer
	if err := stats.RenderTrend(&buf, r, window, width, plotHeight, true); err != nil {
		return fmt.Sprintf("Failed to render trend: %v", err)
	}
	return strings.TrimRight(summary+"\n\n"+buf.String(), "\n")
}

func renderSummaryCards(r stats.Report, width int) string {
	devices := map[string]struct{}{}
	faulty := 0
	var totalRMS, maxP2P float64
	for i, c := range r.Captures {
		devices[c.DeviceID] = struct{}{}
		if c.Fault != model.FaultNormal {
			faulty++
		}
		totalRMS += r.Metrics[i].RMS
		if r.Metrics[i].PeakToPeak > maxP2P {
			maxP2P = r.Metrics[i].PeakToPeak
		}
	}
	cards := []string{
		metricCard("Captures", fmt.Sprintf("%d", len(r.Captures))),
		metricCard("Devices", fmt.Sprintf("%d", len(devices))),
		metricCard("Faulty", fmt.Sprintf("%d", faulty)),
		metricCard("Avg RMS", fmt.Sprintf("%.3f", totalRMS/float64(len(r.Captures)))),
		metricCard("Max P-P", fmt.Sprintf("%.3f", maxP2P)),
	}
	if width < 80 {
		return strings.Join(cards, "\n")
	}
	row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
	row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3], cards[4])
	return lipgloss.JoinVertical(lipgloss.Left, row1, row2)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func newCaptureTable() table.Model {
	t := table.New(table.WithColumns([]table.Column{
		{Title: "ID", Width: 5},
		{Title: "Captured", Width: 19},
		{Title: "Device", Width: 10},
		{Title: "Channel", Width: 8},
		{Title: "Fault", Width: 5},
		{Title: "Samples", Width: 7},
		{Title: "RMS", Width: 9},
		{Title: "P-P", Width: 9},
		{Title: "Peak Hz", Width: 7},
	}))
	t.SetStyles(captureTableStyles())
	return t
}

func captureRows(r stats.Report) []table.Row {
	rows := make([]table.Row, 0, len(r.Captures))
	for i, c := range r.Captures {
		met := r.Metrics[i]
		rows = append(rows, table.Row{
			strconv.FormatInt(c.ID, 10),
			c.CapturedAt.Local().Format("2006-01-02 15:04:05"),
			c.DeviceID,
			string(c.Channel),
			string(c.Fault),
			strconv.Itoa(met.Count),
			fmt.Sprintf("%.3f", met.RMS),
			fmt.Sprintf("%.3f", met.PeakToPeak),
			fmt.Sprintf("%.0f", met.DominantHz),
		})
	}
	return rows
}

func captureTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromFilter()
	return m, m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		if err := m.applyFilter(); err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.filterMode = false
		m.filterError = ""
		m.refreshReport()
		m.updateLayout()
		return m, nil
	case tea.KeyTab:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	if count == 0 {
		return nil
	}
	m.filterIndex = (idx + count) % count
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) applyFilter() error {
	value := func(i int) string {
		return strings.TrimSpace(m.filterInputs[i].Value())
	}
	next := model.CaptureFilter{DeviceID: value(inputDevice)}
	if v := value(inputChannel); v != "" {
		ch, err := model.ParseChannel(v)
		if err != nil {
			return err
		}
		next.Channel = ch
	}
	if v := value(inputFault); v != "" {
		fault, err := model.ParseFaultCode(v)
		if err != nil {
			return err
		}
		next.Fault = fault
	}
	if v := value(inputSince); v != "" {
		parsed, err := time.ParseInLocation("2006-01-02", v, time.Local)
		if err != nil {
			return fmt.Errorf("invalid since date (expected YYYY-MM-DD)")
		}
		next.Since = &parsed
	}
	if v := value(inputLast); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			return fmt.Errorf("invalid last value (use 0 or positive integer)")
		}
		next.Last = parsed
	}
	window := defaultWindow
	if v := value(inputWindow); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			return fmt.Errorf("invalid trend window (use integer >= 1)")
		}
		window = parsed
	}
	m.filter = next
	m.window = window
	return nil
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
