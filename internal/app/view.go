package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"

	"github.com/zjrosen/aftershock/internal/controller"
	"github.com/zjrosen/aftershock/internal/ui/styles"
)

const (
	panelWidth = 36
	panelGap   = 1
)

func fieldZone(i int) string { return fmt.Sprintf("field-%d", i) }

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	sections := []string{m.renderHeader(), m.renderPanels()}
	if m.report != "" {
		sections = append(sections, m.report)
	}
	if m.cfg.UI.ShowStatusBar {
		sections = append(sections, m.renderStatusBar())
	}
	sections = append(sections, m.renderHelp())
	view := lipgloss.JoinVertical(lipgloss.Left, sections...)

	if m.dialog != nil {
		view = m.dialog.Overlay(view)
	}
	if m.toaster.Visible() {
		view = m.toaster.Overlay(view, m.width, m.height)
	}
	if m.debugMode && m.logOverlay.Visible() {
		view = m.logOverlay.Overlay(view)
	}
	return zone.Scan(view)
}

func (m Model) renderHeader() string {
	title := styles.HeaderStyle.Render("aftershock")
	badge := styles.StateBadge(m.ctl.State().String())
	line := title + " " + badge
	if m.screen.Busy() {
		line += "  " + m.spinner.View() + " " + m.screen.Progress()
	}
	return line
}

// renderPanels lays the panels out left to right, wrapping to as many rows
// as the width needs.
func (m Model) renderPanels() string {
	perRow := max(1, (m.width+panelGap)/(panelWidth+panelGap))
	focusedPanel := m.fields[m.focus].panel

	var rows, row []string
	for i, p := range m.ctl.Panels() {
		row = append(row, m.renderPanel(i, p, i == focusedPanel))
		if len(row) == perRow {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, spaced(row)...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, spaced(row)...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func spaced(panels []string) []string {
	out := make([]string, 0, 2*len(panels))
	for i, p := range panels {
		if i > 0 {
			out = append(out, strings.Repeat(" ", panelGap))
		}
		out = append(out, p)
	}
	return out
}

func (m Model) renderPanel(index int, p *controller.Panel, focused bool) string {
	labelWidth := 0
	for _, in := range p.Inputs {
		labelWidth = max(labelWidth, runewidth.StringWidth(in.Label()))
	}
	for _, out := range p.Outputs {
		labelWidth = max(labelWidth, runewidth.StringWidth(out.Label()))
	}

	var lines []string
	for i, f := range m.fields {
		if f.panel != index {
			continue
		}
		marker := "  "
		if i == m.focus {
			marker = styles.SelectionIndicatorStyle.Render("> ")
		}
		var line string
		switch {
		case f.action:
			line = marker + styles.RenderButton(f.param.Label(), f.param.Enabled(), i == m.focus)
		case m.editing && i == m.focus:
			line = marker + styles.RenderField(f.param.Label(), m.input.View(), labelWidth, true)
		default:
			line = marker + styles.RenderField(f.param.Label(), orDash(f.param.Text()), labelWidth, f.param.Enabled())
		}
		lines = append(lines, zone.Mark(fieldZone(i), line))
	}
	for _, out := range p.Outputs {
		value := styles.FieldOutputStyle.Render(orDash(out.Text()))
		lines = append(lines, "  "+styles.FieldLabelStyle.Render(pad(out.Label(), labelWidth))+"  "+value)
	}

	hint := ""
	if len(p.Inputs) > 0 && !p.Inputs[0].Enabled() {
		hint = "locked"
	}
	return styles.RenderPanel(lines, p.Title, hint, panelWidth, focused)
}

func (m Model) renderStatusBar() string {
	parts := []string{"state: " + m.ctl.State().String()}
	if op := m.ctl.Running(); op != "" {
		parts = append(parts, "running: "+string(op))
	}
	if m.recorder != nil {
		if last, ok := m.recorder.Last(); ok {
			parts = append(parts, "last: "+last.FormatStatus())
		}
		if runs, failures := m.recorder.Totals(); runs > 0 {
			parts = append(parts, fmt.Sprintf("runs: %d (%d failed)", runs, failures))
		}
	}
	line := strings.Join(parts, " · ")
	if m.width > 2 {
		line = truncate.StringWithTail(line, uint(m.width-2), "…")
	}
	return styles.StatusBarStyle.Render(line)
}

func (m Model) renderHelp() string {
	var km help.KeyMap = m.keys
	if m.editing {
		km = m.editKeys
	}
	return m.help.View(km)
}

// handleMouse focuses the clicked field and activates it.
func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if msg.Action != tea.MouseActionRelease || msg.Button != tea.MouseButtonLeft {
		return nil
	}
	if m.dialog != nil || m.editing || m.logOverlay.Visible() {
		return nil
	}
	for i := range m.fields {
		if z := zone.Get(fieldZone(i)); z != nil && z.InBounds(msg) {
			m.focus = i
			return m.activate()
		}
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func pad(s string, width int) string {
	return s + strings.Repeat(" ", max(width-runewidth.StringWidth(s), 0))
}
