package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"

	"github.com/mzorec/renderscope/internal/domain"
	"github.com/mzorec/renderscope/internal/timeline"
)

var (
	stylePending  = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
	styleType     = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	styleCount    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	styleBranch   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	styleLaneName = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	styleBar      = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

// TextWriter renders human-readable views: ranked table, tree, flamegraph.
type TextWriter struct {
	w     io.Writer
	color bool
}

// NewTextWriter creates a renderer. color=false strips all styling, for
// piped output.
func NewTextWriter(w io.Writer, color bool) *TextWriter {
	return &TextWriter{w: w, color: color}
}

func (t *TextWriter) render(style lipgloss.Style, s string) string {
	if !t.color {
		return s
	}
	return style.Render(s)
}

// WriteRanked renders the per-type aggregate table.
func (t *TextWriter) WriteRanked(entries []domain.RankedEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(t.w, "no renders recorded")
		return err
	}

	table := tablewriter.NewTable(t.w)
	table.Header("Component", "Renders", "Total (ms)", "Avg (ms)", "Min (ms)", "Max (ms)")
	for _, e := range entries {
		table.Append([]string{
			e.ComponentType,
			fmt.Sprintf("%d", e.RenderCount),
			fmt.Sprintf("%.2f", e.TotalDurationMs),
			fmt.Sprintf("%.2f", e.AverageDurationMs),
			fmt.Sprintf("%.2f", e.MinDurationMs),
			fmt.Sprintf("%.2f", e.MaxDurationMs),
		})
	}
	return table.Render()
}

// WriteTree renders the component forest as an indented tree.
func (t *TextWriter) WriteTree(roots []domain.ComponentSnapshot) error {
	if len(roots) == 0 {
		_, err := fmt.Fprintln(t.w, "no components")
		return err
	}
	for _, root := range roots {
		if err := t.writeNode(root, ""); err != nil {
			return err
		}
	}
	return nil
}

func (t *TextWriter) writeNode(snap domain.ComponentSnapshot, prefix string) error {
	name := snap.TypeName
	if snap.IsPending() {
		name = t.render(stylePending, name+" (pending)")
	} else {
		name = t.render(styleType, name)
	}
	renders := ""
	if snap.RenderCount > 0 {
		renders = " " + t.render(styleCount, fmt.Sprintf("×%d", snap.RenderCount))
	}
	if _, err := fmt.Fprintf(t.w, "%s%s%s\n", prefix, name, renders); err != nil {
		return err
	}

	childPrefix := prefix
	if prefix == "" {
		childPrefix = t.render(styleBranch, "└─ ")
	} else {
		childPrefix = "   " + prefix
	}
	for _, child := range snap.Children {
		if err := t.writeNode(child, childPrefix); err != nil {
			return err
		}
	}
	return nil
}

// flameWidth is the character budget for one swimlane row.
const flameWidth = 80

// WriteFlamegraph renders the projection as fixed-width text bars, one
// swimlane per component type.
func (t *TextWriter) WriteFlamegraph(p timeline.Projection) error {
	if len(p.Lanes) == 0 {
		_, err := fmt.Fprintln(t.w, "no session events")
		return err
	}

	if _, err := fmt.Fprintf(t.w, "window %.1fms – %.1fms (zoom %.1fx, pan %.2f)\n",
		p.Window.StartMs, p.Window.EndMs, p.Zoom, p.Pan); err != nil {
		return err
	}

	nameWidth := 0
	for _, lane := range p.Lanes {
		if len(lane.TypeName) > nameWidth {
			nameWidth = len(lane.TypeName)
		}
	}

	for _, lane := range p.Lanes {
		row := []rune(strings.Repeat(" ", flameWidth))
		for _, seg := range lane.Segments {
			start := int(seg.LeftPercent / 100 * flameWidth)
			width := int(seg.WidthPercent / 100 * flameWidth)
			if width < 1 {
				width = 1
			}
			for i := start; i < start+width && i < flameWidth; i++ {
				row[i] = '█'
			}
		}
		name := fmt.Sprintf("%-*s", nameWidth, lane.TypeName)
		if _, err := fmt.Fprintf(t.w, "%s │%s│\n",
			t.render(styleLaneName, name), t.render(styleBar, string(row))); err != nil {
			return err
		}
	}
	return nil
}
