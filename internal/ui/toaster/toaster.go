// Package toaster shows transient notices at the bottom of the screen.
package toaster

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/aftershock/internal/ui/overlay"
	"github.com/zjrosen/aftershock/internal/ui/styles"
)

// DefaultDuration is how long a notice stays up.
const DefaultDuration = 3 * time.Second

// Style selects the border color and icon.
type Style int

const (
	StyleSuccess Style = iota
	StyleError
	StyleInfo
	StyleWarn
)

// Model holds at most one visible notice. Each Show bumps a sequence
// number so that a dismissal scheduled for an older notice is ignored.
type Model struct {
	message string
	style   Style
	visible bool
	seq     int
}

// New creates an empty toaster.
func New() Model {
	return Model{}
}

// Show replaces the current notice. Pair with ScheduleDismiss(m.Seq(), ...).
func (m Model) Show(message string, style Style) Model {
	m.message = message
	m.style = style
	m.visible = true
	m.seq++
	return m
}

// Hide dismisses the notice if msg belongs to the one showing.
func (m Model) Hide(msg DismissMsg) Model {
	if msg.Seq != m.seq {
		return m
	}
	m.visible = false
	m.message = ""
	return m
}

// Visible reports whether a notice is showing.
func (m Model) Visible() bool {
	return m.visible
}

// Message returns the notice text.
func (m Model) Message() string {
	return m.message
}

// Seq identifies the notice currently showing.
func (m Model) Seq() int {
	return m.seq
}

// View renders the notice box.
func (m Model) View() string {
	if !m.visible || m.message == "" {
		return ""
	}

	style := lipgloss.NewStyle().
		Padding(0, 1).
		Border(lipgloss.RoundedBorder())

	var content string
	switch m.style {
	case StyleError:
		style = style.BorderForeground(styles.ToastBorderErrorColor)
		content = "✗ " + m.message
	case StyleInfo:
		style = style.BorderForeground(styles.ToastBorderInfoColor)
		content = "ℹ " + m.message
	case StyleWarn:
		style = style.BorderForeground(styles.ToastBorderWarnColor)
		content = "! " + m.message
	default:
		style = style.BorderForeground(styles.ToastBorderSuccessColor)
		content = "✓ " + m.message
	}
	return style.Render(content)
}

// Overlay draws the notice near the bottom edge of bg.
func (m Model) Overlay(bg string, width, height int) string {
	if !m.visible || m.message == "" {
		return bg
	}
	return overlay.Place(overlay.Config{
		Width:    width,
		Height:   height,
		Position: overlay.Bottom,
		PadY:     1,
	}, m.View(), bg)
}

// DismissMsg hides the notice with the matching sequence number.
type DismissMsg struct {
	Seq int
}

// ScheduleDismiss hides notice seq after d.
func ScheduleDismiss(seq int, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return DismissMsg{Seq: seq}
	})
}
