// Package modal provides the message dialog used to report failed
// operations. The dialog blocks other input until dismissed.
package modal

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/aftershock/internal/ui/overlay"
	"github.com/zjrosen/aftershock/internal/ui/styles"
)

const (
	minWidth = 40
	maxWidth = 72
)

// Kind selects the dialog's accent.
type Kind int

const (
	KindError Kind = iota
	KindInfo
)

// Config describes one dialog.
type Config struct {
	Title   string
	Message string
	Kind    Kind
}

// DismissMsg is sent when the user closes the dialog.
type DismissMsg struct{}

// Model is an open dialog.
type Model struct {
	config Config
	width  int
	height int
}

// New opens a dialog.
func New(cfg Config) Model {
	return Model{config: cfg}
}

// Title returns the dialog title.
func (m Model) Title() string { return m.config.Title }

// Message returns the dialog body.
func (m Model) Message() string { return m.config.Message }

// Update closes the dialog on enter, esc or space. Everything else is
// swallowed.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "esc", " ":
			return m, func() tea.Msg { return DismissMsg{} }
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}
	return m, nil
}

// View renders the dialog box.
func (m Model) View() string {
	contentWidth := max(minWidth, lipgloss.Width(m.config.Title))
	if m.width > 0 {
		contentWidth = min(contentWidth+lipgloss.Width(m.config.Message)/3, maxWidth, max(m.width-6, minWidth))
	}
	boxWidth := contentWidth + 2

	accent := styles.StatusErrorColor
	if m.config.Kind == KindInfo {
		accent = styles.ToastBorderInfoColor
	}

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(accent).
		PaddingLeft(1).
		Render(m.config.Title)
	divider := lipgloss.NewStyle().
		Foreground(styles.OverlayBorderColor).
		Render(strings.Repeat("─", boxWidth))
	body := lipgloss.NewStyle().
		Foreground(styles.TextPrimaryColor).
		Width(contentWidth).
		Render(m.config.Message)
	button := styles.PrimaryButtonFocusedStyle.Render("OK")

	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(divider)
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Padding(1, 1).Render(body + "\n\n" + button))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Width(boxWidth).
		Render(b.String())
}

// Overlay renders the dialog centered on bg.
func (m Model) Overlay(bg string) string {
	return overlay.Centered(m.width, m.height, m.View(), bg)
}

// SetSize records the screen size used for centering.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
