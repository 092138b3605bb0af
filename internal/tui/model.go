// Package tui implements the interactive terminal UI for live profiling.
//
// The model is single-threaded inside the bubbletea event loop; all engine
// access happens through its thread-safe accessors.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mzorec/renderscope/internal/domain"
	"github.com/mzorec/renderscope/internal/engine"
	"github.com/mzorec/renderscope/internal/session"
	"github.com/mzorec/renderscope/internal/timeline"
)

// view selects which pane has focus.
type view int

const (
	viewRanked view = iota
	viewTree
	viewFlame
)

// tickMsg drives the periodic refresh from the engine.
type tickMsg time.Time

const refreshInterval = 500 * time.Millisecond

var (
	styleTitle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	styleRecording = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	styleIdle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	styleHelp      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	stylePendingT  = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
	styleLane      = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// Model is the bubbletea model for the rscope UI.
type Model struct {
	eng      *engine.Engine
	endpoint string

	view   view
	table  table.Model
	width  int
	height int

	zoom float64
	pan  float64

	status   string
	quitting bool
}

// New creates a UI model bound to a running engine.
func New(eng *engine.Engine, endpoint string) Model {
	columns := []table.Column{
		{Title: "Component", Width: 28},
		{Title: "Renders", Width: 8},
		{Title: "Total ms", Width: 10},
		{Title: "Avg ms", Width: 8},
		{Title: "Max ms", Width: 8},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).Foreground(lipgloss.Color("86"))
	styles.Selected = styles.Selected.Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	t.SetStyles(styles)

	return Model{
		eng:      eng,
		endpoint: endpoint,
		table:    t,
		zoom:     1,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetHeight(msg.Height - 8)
		return m, nil

	case tickMsg:
		m.refresh()
		return m, tick()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "s":
			if m.eng.State() == session.StateRecording {
				if summary := m.eng.StopRecording(); summary != nil {
					m.status = fmt.Sprintf("session %d stopped: %d events, %d renders",
						summary.Session, summary.Events, summary.Renders)
				}
			} else {
				m.eng.StartRecording(context.Background())
				m.zoom, m.pan = 1, 0
				m.status = fmt.Sprintf("session %d recording", m.eng.Session())
			}
			m.refresh()
		case "c":
			if m.eng.ClearRecording() {
				m.zoom, m.pan = 1, 0
				m.status = "session cleared"
				m.refresh()
			} else {
				m.status = "stop recording before clearing"
			}
		case "tab":
			m.view = (m.view + 1) % 3
		case "+", "=":
			if m.view == viewFlame {
				m.zoom, m.pan = m.eng.SetView(m.zoom*2, m.pan)
			}
		case "-", "_":
			if m.view == viewFlame {
				m.zoom, m.pan = m.eng.SetView(m.zoom/2, m.pan)
			}
		case "left", "h":
			if m.view == viewFlame {
				m.zoom, m.pan = m.eng.SetView(m.zoom, m.pan-0.1/m.zoom)
			}
		case "right", "l":
			if m.view == viewFlame {
				m.zoom, m.pan = m.eng.SetView(m.zoom, m.pan+0.1/m.zoom)
			}
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model) refresh() {
	rows := make([]table.Row, 0)
	for _, e := range m.eng.Ranked() {
		rows = append(rows, table.Row{
			e.ComponentType,
			fmt.Sprintf("%d", e.RenderCount),
			fmt.Sprintf("%.2f", e.TotalDurationMs),
			fmt.Sprintf("%.2f", e.AverageDurationMs),
			fmt.Sprintf("%.2f", e.MaxDurationMs),
		})
	}
	m.table.SetRows(rows)
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(styleTitle.Render("rscope"))
	b.WriteString("  ")
	b.WriteString(m.endpoint)
	b.WriteString("  ")
	switch m.eng.State() {
	case session.StateRecording:
		b.WriteString(styleRecording.Render(fmt.Sprintf("● REC session %d", m.eng.Session())))
	case session.StateStopped:
		b.WriteString(styleIdle.Render(fmt.Sprintf("■ stopped session %d", m.eng.Session())))
	default:
		b.WriteString(styleIdle.Render("idle"))
	}
	b.WriteString("\n\n")

	switch m.view {
	case viewRanked:
		b.WriteString(m.table.View())
	case viewTree:
		b.WriteString(m.renderTree())
	case viewFlame:
		b.WriteString(m.renderFlame())
	}

	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(m.status)
		b.WriteString("\n")
	}
	help := "s start/stop · c clear · tab view · q quit"
	if m.view == viewFlame {
		help = "+/- zoom · ←/→ pan · " + help
	}
	b.WriteString(styleHelp.Render(help))
	return b.String()
}

func (m Model) renderTree() string {
	roots := m.eng.TreeSnapshot()
	if len(roots) == 0 {
		return styleIdle.Render("no components yet")
	}
	var b strings.Builder
	for _, root := range roots {
		m.renderNode(&b, root, 0)
	}
	return b.String()
}

func (m Model) renderNode(b *strings.Builder, snap domain.ComponentSnapshot, depth int) {
	if depth > 12 {
		return
	}
	b.WriteString(strings.Repeat("  ", depth))
	if snap.IsPending() {
		b.WriteString(stylePendingT.Render(snap.TypeName + " (pending)"))
	} else {
		b.WriteString(snap.TypeName)
	}
	if snap.RenderCount > 0 {
		b.WriteString(styleLane.Render(fmt.Sprintf(" ×%d", snap.RenderCount)))
	}
	b.WriteString("\n")
	for _, child := range snap.Children {
		m.renderNode(b, child, depth+1)
	}
}

const flameBarWidth = 60

func (m Model) renderFlame() string {
	p := m.eng.Flamegraph(m.zoom, m.pan)
	if len(p.Lanes) == 0 {
		return styleIdle.Render("no session events yet")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%.1fms – %.1fms  zoom %.1fx\n", p.Window.StartMs, p.Window.EndMs, p.Zoom)
	for _, lane := range p.Lanes {
		b.WriteString(renderLane(lane))
	}
	return b.String()
}

func renderLane(lane timeline.Swimlane) string {
	row := []rune(strings.Repeat(" ", flameBarWidth))
	for _, seg := range lane.Segments {
		start := int(seg.LeftPercent / 100 * flameBarWidth)
		width := int(seg.WidthPercent / 100 * flameBarWidth)
		if width < 1 {
			width = 1
		}
		for i := start; i < start+width && i < flameBarWidth; i++ {
			row[i] = '█'
		}
	}
	return fmt.Sprintf("%-24s %s\n", lane.TypeName, styleLane.Render(string(row)))
}
