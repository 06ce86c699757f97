// Package statsui provides the Bubble Tea viewer for stored runs.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/keyload/internal/layout"
	"github.com/verte-zerg/keyload/internal/model"
	"github.com/verte-zerg/keyload/internal/stats"
)

const (
	tabOverview = iota
	tabFingerTable
	tabPresses
	tabRuns
)

const (
	plotHeight = 10
	runsLimit  = 200
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

// Source reads runs for the viewer.
type Source interface {
	stats.RunSource
	ListRuns(ctx context.Context, limit int) ([]model.Run, error)
}

// Model implements the Bubble Tea run viewer.
type Model struct {
	src Source
	cfg model.ReportConfig

	runs   []model.Run
	report stats.Report
	errMsg string

	tabs        []string
	activeTab   int
	viewports   []viewport.Model
	fingerTable table.Model
	runsTable   table.Model

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string
}

// NewModel constructs a viewer. An empty cfg.RunID shows the latest run.
func NewModel(src Source, cfg model.ReportConfig) *Model {
	m := &Model{
		src:  src,
		cfg:  cfg,
		tabs: []string{"Overview", "Finger Table", "Presses", "Runs"},
	}
	m.initInputs()
	m.fingerTable = newTable()
	m.runsTable = newTable()
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
	m.refreshReport()
	return m
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
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || (!m.filterMode && msg.String() == "q") {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "=":
			m.cfg.CurveWindow = nextCurveWindow(m.cfg.CurveWindow)
			m.renderTabContents()
			return m, nil
		case "-":
			m.cfg.CurveWindow = prevCurveWindow(m.cfg.CurveWindow)
			m.renderTabContents()
			return m, nil
		case "/":
			return m.startFilter()
		case "enter":
			if m.activeTab == tabRuns {
				m.selectRun(m.runsTable.Cursor())
			}
			return m, nil
		default:
			switch m.activeTab {
			case tabFingerTable:
				var cmd tea.Cmd
				m.fingerTable, cmd = m.fingerTable.Update(msg)
				return m, cmd
			case tabRuns:
				var cmd tea.Cmd
				m.runsTable, cmd = m.runsTable.Update(msg)
				return m, cmd
			}
			vp := m.viewports[m.activeTab]
			var cmd tea.Cmd
			vp, cmd = vp.Update(msg)
			m.viewports[m.activeTab] = vp
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

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		newFilterInput("Run: "),
		newFilterInput("Layout: "),
		newFilterInput("Curve window: "),
	}
	m.setInputsFromConfig()
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func newTable() table.Model {
	t := table.New(table.WithHeight(1))
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
	t.SetStyles(styles)
	return t
}

func (m *Model) setInputsFromConfig() {
	m.filterInputs[0].SetValue(m.report.Run.ID)
	m.filterInputs[1].SetValue(string(m.report.Focus))
	m.filterInputs[2].SetValue(strconv.Itoa(m.cfg.CurveWindow))
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := maxInt(1, lipgloss.Height(activeNavStyle.Render("X")))
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.filterMode && m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = maxInt(1, m.height-headerHeight-footerHeight)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = bodyHeight
	}
	for _, t := range []*table.Model{&m.fingerTable, &m.runsTable} {
		t.SetWidth(m.width)
		t.SetHeight(maxInt(1, bodyHeight-1))
	}
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = maxInt(10, m.width-promptWidth-2)
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	m.activeTab = (m.activeTab + delta + count) % count
	m.fingerTable.Blur()
	m.runsTable.Blur()
	switch m.activeTab {
	case tabFingerTable:
		m.fingerTable.Focus()
	case tabRuns:
		m.runsTable.Focus()
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
	return tabs + "\n" + padLines(m.renderSummaryLine(), m.width)
}

func (m *Model) renderSummaryLine() string {
	run := m.report.Run.ID
	if run == "" {
		run = "none"
	}
	focus := string(m.report.Focus)
	if focus == "" {
		focus = "-"
	}
	summary := fmt.Sprintf("Run: %s  source=%s  layout=%s  window=%d", run, m.report.Run.Source, focus, m.cfg.CurveWindow)
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	}
	help := "Nav: left/right  Scroll: up/down/pgup/pgdn  Window: -/=  Select: /  Quit: q"
	if m.activeTab == tabRuns {
		help = "Nav: left/right  Move: up/down  Open run: enter  Select: /  Quit: q"
	}
	if m.errMsg != "" {
		return headerStyle.Render(help) + "\n" + errorStyle.Render(m.errMsg)
	}
	return headerStyle.Render(help)
}

func (m *Model) renderBody(height int) string {
	if m.filterMode {
		lines := []string{"Select run (enter to apply, esc to cancel)"}
		for _, input := range m.filterInputs {
			lines = append(lines, input.View())
		}
		if m.filterError != "" {
			lines = append(lines, errorStyle.Render(m.filterError))
		}
		return fitLines(strings.Join(lines, "\n"), m.width, height)
	}
	switch m.activeTab {
	case tabFingerTable:
		if len(m.report.Run.Totals) == 0 {
			return fitLines("No runs found.", m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.fingerTable.View()), m.width, height)
	case tabRuns:
		if len(m.runs) == 0 {
			return fitLines("No runs found.", m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.runsTable.View()), m.width, height)
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}

func (m *Model) refreshReport() {
	ctx := context.Background()
	runs, err := m.src.ListRuns(ctx, runsLimit)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.runs = runs
	m.errMsg = ""
	if len(runs) == 0 {
		m.report = stats.Report{}
	} else {
		report, err := stats.BuildReport(ctx, m.src, m.cfg)
		if err != nil {
			m.errMsg = err.Error()
		} else {
			m.report = report
		}
	}
	m.fingerTable.SetRows(nil)
	m.fingerTable.SetColumns(fingerColumns(m.report.Run.Totals))
	m.fingerTable.SetRows(fingerRows(m.report.Run.Totals))
	m.runsTable.SetRows(nil)
	m.runsTable.SetColumns(runColumns())
	m.runsTable.SetRows(runRows(m.runs))
	m.renderTabContents()
}

func (m *Model) selectRun(idx int) {
	if idx < 0 || idx >= len(m.runs) {
		return
	}
	m.cfg.RunID = m.runs[idx].ID
	m.cfg.Layout = ""
	m.refreshReport()
	m.moveTab(tabOverview - m.activeTab)
}

func (m *Model) renderTabContents() {
	width := m.width
	if width <= 0 {
		width = 80
	}
	if len(m.report.Run.Totals) == 0 {
		for i := range m.viewports {
			m.viewports[i].SetContent("No runs found. Score a corpus with: keyload analyze <file>")
		}
		return
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.report, m.cfg.CurveWindow, width))
	m.viewports[tabPresses].SetContent(renderPresses(m.report.Run.Totals))
}

func renderOverview(r stats.Report, window, width int) string {
	cards := summaryCards(r.Run)
	var row string
	if width < 80 {
		row = strings.Join(cards, "\n")
	} else {
		row = lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	}
	var buf bytes.Buffer
	if err := stats.RenderComparison(&buf, r.Run.Totals, layout.Qwer); err != nil {
		return fmt.Sprintf("Failed to render comparison: %v", err)
	}
	if err := stats.RenderChunkCurvesWithSize(&buf, r.Chunks, window, width, plotHeight, true); err != nil {
		return fmt.Sprintf("Failed to render curves: %v", err)
	}
	return strings.TrimRight(row+"\n\n"+buf.String(), "\n")
}

func summaryCards(run model.Run) []string {
	ranks := stats.RankLayouts(run.Totals)
	best, worst := "-", "-"
	if len(ranks) > 0 {
		best = layout.DisplayName(layout.ID(ranks[0].Layout))
		worst = layout.DisplayName(layout.ID(ranks[len(ranks)-1].Layout))
	}
	bestLoad := 0
	if len(ranks) > 0 {
		bestLoad = ranks[0].Load
	}
	return []string{
		metricCard("Chunks", fmt.Sprintf("%d", run.Chunks)),
		metricCard("Best layout", best),
		metricCard("Best load", fmt.Sprintf("%d", bestLoad)),
		metricCard("Worst layout", worst),
		metricCard("Took", run.EndedAt.Sub(run.StartedAt).String()),
	}
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func renderPresses(snap model.Snapshot) string {
	var buf bytes.Buffer
	if err := stats.RenderPresses(&buf, snap); err != nil {
		return fmt.Sprintf("Failed to render presses: %v", err)
	}
	if err := stats.RenderHandBalance(&buf, snap); err != nil {
		return fmt.Sprintf("Failed to render hand balance: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func fingerColumns(snap model.Snapshot) []table.Column {
	cols := []table.Column{{Title: "Finger", Width: 12}}
	for _, name := range stats.Layouts(snap) {
		title := layout.DisplayName(layout.ID(name))
		cols = append(cols, table.Column{Title: title, Width: maxInt(8, lipgloss.Width(title))})
	}
	return append(cols, table.Column{Title: "Best", Width: 9})
}

func fingerRows(snap model.Snapshot) []table.Row {
	names := stats.Layouts(snap)
	if len(names) == 0 {
		return nil
	}
	rows := make([]table.Row, 0, layout.FingerCount+1)
	for _, f := range stats.TableFingers() {
		row := table.Row{f.Label()}
		best, bestVal := "", 0
		for _, name := range names {
			v := stats.FingerValue(snap[name], f, false)
			row = append(row, strconv.Itoa(v))
			if best == "" || v < bestVal {
				best, bestVal = name, v
			}
		}
		rows = append(rows, append(row, best))
	}
	total := table.Row{"Total"}
	for _, name := range names {
		total = append(total, strconv.Itoa(snap[name].Load()))
	}
	best := "-"
	if ranks := stats.RankLayouts(snap); len(ranks) > 0 {
		best = ranks[0].Layout
	}
	return append(rows, append(total, best))
}

func runColumns() []table.Column {
	return []table.Column{
		{Title: "ID", Width: 8},
		{Title: "Started", Width: 16},
		{Title: "Strategy", Width: 10},
		{Title: "Chunks", Width: 6},
		{Title: "Best", Width: 10},
		{Title: "Source", Width: 30},
	}
}

func runRows(runs []model.Run) []table.Row {
	rows := make([]table.Row, 0, len(runs))
	for _, r := range runs {
		best := "-"
		if ranks := stats.RankLayouts(r.Totals); len(ranks) > 0 {
			best = ranks[0].Layout
		}
		id := r.ID
		if len(id) > 8 {
			id = id[:8]
		}
		rows = append(rows, table.Row{
			id,
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.Strategy,
			strconv.Itoa(r.Chunks),
			best,
			r.Source,
		})
	}
	return rows
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromConfig()
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
	runID := strings.TrimSpace(m.filterInputs[0].Value())
	focus := strings.TrimSpace(m.filterInputs[1].Value())
	if focus != "" {
		id, err := layout.Parse(focus)
		if err != nil {
			return err
		}
		focus = string(id)
	}
	window := 1
	if input := strings.TrimSpace(m.filterInputs[2].Value()); input != "" {
		parsed, err := strconv.Atoi(input)
		if err != nil || parsed < 1 {
			return fmt.Errorf("invalid curve window (use integer >= 1)")
		}
		window = parsed
	}
	m.cfg = model.ReportConfig{RunID: runID, Layout: focus, CurveWindow: window}
	return nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func nextCurveWindow(n int) int {
	if n < 5 {
		return 5
	}
	if n%5 == 0 {
		return n + 5
	}
	return ((n / 5) + 1) * 5
}

func prevCurveWindow(n int) int {
	if n <= 5 {
		return 1
	}
	if n%5 == 0 {
		return n - 5
	}
	return (n / 5) * 5
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
