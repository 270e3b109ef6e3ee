package logoverlay

import (
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/aftershock/internal/log"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+x":
		return tea.KeyMsg{Type: tea.KeyCtrlX}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func visible(t *testing.T) Model {
	t.Helper()
	m := New()
	m.SetSize(120, 40)
	m.Toggle()
	require.True(t, m.Visible())
	return m
}

func TestNew_Hidden(t *testing.T) {
	m := New()
	require.False(t, m.Visible())
	require.Empty(t, m.View())
	require.Equal(t, "bg", m.Overlay("bg"))
}

func TestAppend_CapsBuffer(t *testing.T) {
	m := New()
	m.capacity = 3
	for i := 0; i < 5; i++ {
		m.Append(fmt.Sprintf("entry %d\n", i))
	}
	require.Equal(t, 3, m.Len())
	require.Equal(t, []string{"entry 2", "entry 3", "entry 4"}, m.entries)
}

func TestView_ShowsEntries(t *testing.T) {
	m := visible(t)
	m.Append("2026-10-16T10:00:00 [INFO] [seq] Run started run=abc")

	view := m.View()
	require.Contains(t, view, "Logs")
	require.Contains(t, view, "Run started")
	require.Contains(t, view, "[c] Clear")
}

func TestView_EmptyBuffer(t *testing.T) {
	m := visible(t)
	require.Contains(t, m.View(), "No logs to display")
}

func TestFilter_HidesLowerLevels(t *testing.T) {
	m := visible(t)
	m.Append("t [DEBUG] [gate] suppressed")
	m.Append("t [WARN] [seq] Run failed")

	m, _ = m.Update(key("w"))
	require.Equal(t, log.LevelWarn, m.minLevel)
	require.NotContains(t, m.View(), "suppressed")
	require.Contains(t, m.View(), "Run failed")

	m, _ = m.Update(key("d"))
	require.Contains(t, m.View(), "suppressed")
}

func TestClear(t *testing.T) {
	m := visible(t)
	m.Append("t [INFO] [ui] hello")
	m, _ = m.Update(key("c"))
	require.Zero(t, m.Len())
}

func TestClose(t *testing.T) {
	for _, k := range []string{"esc", "ctrl+x"} {
		m := visible(t)
		m, cmd := m.Update(key(k))
		require.False(t, m.Visible())
		require.NotNil(t, cmd)
		require.Equal(t, CloseMsg{}, cmd())
	}
}

func TestHiddenIgnoresKeys(t *testing.T) {
	m := New()
	m, cmd := m.Update(key("c"))
	require.Nil(t, cmd)
	require.False(t, m.Visible())
}

func TestLevelOf(t *testing.T) {
	l, ok := levelOf("x [ERROR] [db] failed")
	require.True(t, ok)
	require.Equal(t, log.LevelError, l)

	_, ok = levelOf("plain line")
	require.False(t, ok)
}
