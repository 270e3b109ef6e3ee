package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"
)

func TestRenderPanel(t *testing.T) {
	tests := []struct {
		name           string
		rows           []string
		title          string
		hint           string
		width          int
		wantContains   []string
		wantNotContain []string
	}{
		{
			name:         "title inlined in top border",
			rows:         []string{"Mc  3.0"},
			title:        "b-value",
			width:        30,
			wantContains: []string{"╭─ b-value", "│", "Mc  3.0", "╰", "╯"},
		},
		{
			name:         "hint follows title",
			rows:         []string{"Event ID"},
			title:        "Mainshock",
			hint:         "disabled",
			width:        40,
			wantContains: []string{"╭─ Mainshock", "(disabled)"},
		},
		{
			name:           "no title renders plain border",
			rows:           []string{"x"},
			width:          20,
			wantContains:   []string{"╭", "╮", "x"},
			wantNotContain: []string{"╭─ "},
		},
		{
			name:         "multiple rows",
			rows:         []string{"p  1.08", "c  0.018"},
			title:        "Fit",
			width:        25,
			wantContains: []string{"p  1.08", "c  0.018"},
		},
		{
			name:         "narrow width",
			rows:         []string{"X"},
			title:        "T",
			width:        5,
			wantContains: []string{"╭", "╮", "X", "╰", "╯"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderPanel(tt.rows, tt.title, tt.hint, tt.width, false)
			for _, want := range tt.wantContains {
				require.Contains(t, got, want)
			}
			for _, notWant := range tt.wantNotContain {
				require.NotContains(t, got, notWant)
			}
		})
	}
}

func TestRenderPanel_RowsPaddedToWidth(t *testing.T) {
	got := RenderPanel([]string{"short", "a longer row"}, "Catalog", "", 30, false)
	lines := strings.Split(got, "\n")
	require.Len(t, lines, 4)
	for _, line := range lines {
		require.Equal(t, 30, lipgloss.Width(line), "line %q", line)
	}
}

func TestRenderPanel_FocusChangesColor(t *testing.T) {
	lipgloss.SetColorProfile(termenv.ANSI256)

	rows := []string{"Content"}
	unfocused := RenderPanel(rows, "Forecast", "", 30, false)
	focused := RenderPanel(rows, "Forecast", "", 30, true)
	require.NotEqual(t, unfocused, focused)
}

func TestRenderField(t *testing.T) {
	got := RenderField("Mc", "3.0", 10, true)
	require.Contains(t, got, "Mc")
	require.Contains(t, got, "3.0")
	require.Equal(t, 10+2+3, lipgloss.Width(got))

	require.Contains(t, RenderField("Radius (km)", "100", 4, false), "Radius (km)  100")
}

func TestRenderButton(t *testing.T) {
	require.Contains(t, RenderButton("Fit", true, false), "Fit")
	require.Contains(t, RenderButton("Fit", false, true), "Fit")
}

func TestStateBadge(t *testing.T) {
	require.Contains(t, StateBadge("catalog"), "catalog")
	require.Equal(t, StateInitialColor, StateColor("unknown"))
	require.Equal(t, StateForecastColor, StateColor("forecast"))
}
