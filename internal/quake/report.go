package quake

import (
	"fmt"
	"strings"
)

// FormatDays renders a window length the way forecast tables label it.
func FormatDays(d float64) string {
	switch {
	case d == 1:
		return "1 day"
	case d == 7:
		return "1 week"
	case d == 30:
		return "1 month"
	case d == 365:
		return "1 year"
	default:
		return fmt.Sprintf("%g days", d)
	}
}

// Markdown renders the forecast as a markdown document: a parameter line
// followed by a table of probabilities with expected counts.
func (f Forecast) Markdown(title string) string {
	var sb strings.Builder
	if title != "" {
		fmt.Fprintf(&sb, "# %s\n\n", title)
	}
	p := f.Params
	fmt.Fprintf(&sb, "a = %.3f, b = %.3f, p = %.3f, c = %.3f, Mc = %.1f, N = %d\n\n", p.A, p.B, p.P, p.C, p.Mc, p.N)
	fmt.Fprintf(&sb, "Windows start %s after the mainshock.\n\n", FormatDays(f.Query.StartDays))

	sb.WriteString("| Window |")
	for _, m := range f.Query.Magnitudes {
		fmt.Fprintf(&sb, " M ≥ %.1f |", m)
	}
	sb.WriteString("\n|---|")
	for range f.Query.Magnitudes {
		sb.WriteString("---|")
	}
	sb.WriteString("\n")

	for _, row := range f.Rows {
		fmt.Fprintf(&sb, "| %s |", FormatDays(row.Duration))
		for _, cell := range row.Cells {
			fmt.Fprintf(&sb, " %s (%.2g) |", FormatProbability(cell.Probability), cell.Expected)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatProbability renders a probability as a percentage, using "<1%" and
// ">99%" at the extremes.
func FormatProbability(p float64) string {
	switch {
	case p < 0.01:
		return "<1%"
	case p > 0.99:
		return ">99%"
	default:
		return fmt.Sprintf("%.0f%%", p*100)
	}
}
