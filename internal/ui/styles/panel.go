package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Rounded border pieces used by RenderPanel.
const (
	borderTopLeft     = "╭"
	borderTopRight    = "╮"
	borderBottomLeft  = "╰"
	borderBottomRight = "╯"
	borderHorizontal  = "─"
	borderVertical    = "│"
)

// RenderPanel renders rows inside a rounded box with the title inlined in
// the top border: ╭─ Title (hint) ───╮. A focused panel uses
// BorderHighlightFocusColor for its border and title.
func RenderPanel(rows []string, title, hint string, width int, focused bool) string {
	var borderColor lipgloss.TerminalColor = BorderDefaultColor
	if focused {
		borderColor = BorderHighlightFocusColor
	}

	borderStyle := lipgloss.NewStyle().Foreground(borderColor)
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(borderColor)
	hintStyle := lipgloss.NewStyle().Foreground(TextMutedColor)

	innerWidth := max(width-2, 1)

	var top string
	if title == "" {
		top = borderStyle.Render(borderTopLeft + strings.Repeat(borderHorizontal, innerWidth) + borderTopRight)
	} else {
		titleLen := lipgloss.Width(title)
		if hint != "" {
			titleLen = lipgloss.Width(title + " (" + hint + ")")
		}
		dashes := max(innerWidth-titleLen-3, 0)

		top = borderStyle.Render(borderTopLeft+borderHorizontal+" ") + titleStyle.Render(title)
		if hint != "" {
			top += " " + hintStyle.Render("("+hint+")")
		}
		top += borderStyle.Render(" " + strings.Repeat(borderHorizontal, dashes) + borderTopRight)
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		if w := lipgloss.Width(row); w > innerWidth {
			row = lipgloss.NewStyle().MaxWidth(innerWidth).Render(row)
		}
		pad := max(innerWidth-lipgloss.Width(row), 0)
		lines = append(lines, borderStyle.Render(borderVertical)+row+strings.Repeat(" ", pad)+borderStyle.Render(borderVertical))
	}

	bottom := borderStyle.Render(borderBottomLeft + strings.Repeat(borderHorizontal, innerWidth) + borderBottomRight)

	if len(lines) == 0 {
		return top + "\n" + bottom
	}
	return top + "\n" + strings.Join(lines, "\n") + "\n" + bottom
}

// RenderField renders one "label  value" row with the label padded to
// labelWidth. Disabled fields are muted.
func RenderField(label, value string, labelWidth int, enabled bool) string {
	pad := max(labelWidth-lipgloss.Width(label), 0)
	labelText := label + strings.Repeat(" ", pad)
	if !enabled {
		return FieldDisabledStyle.Render(labelText + "  " + value)
	}
	return FieldLabelStyle.Render(labelText) + "  " + FieldValueStyle.Render(value)
}

// RenderButton renders an action button in its enabled, focused or
// disabled style.
func RenderButton(label string, enabled, focused bool) string {
	switch {
	case !enabled:
		return DisabledButtonStyle.Render(label)
	case focused:
		return PrimaryButtonFocusedStyle.Render(label)
	default:
		return PrimaryButtonStyle.Render(label)
	}
}
