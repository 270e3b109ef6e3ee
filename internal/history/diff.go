package history

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// LineType classifies a line of a forecast comparison.
type LineType int

const (
	LineSame LineType = iota
	LineRemoved
	LineAdded
)

// DiffLine is one line of a comparison between two records.
type DiffLine struct {
	Type LineType
	Text string
}

// Table renders the record's forecast as a markdown table.
func (r *Record) Table() string {
	return r.Forecast.Markdown(fmt.Sprintf("%s M%.1f", r.Mainshock.ID, r.Mainshock.Mag))
}

// Diff compares the forecast tables of two records line by line.
func Diff(older, newer *Record) []DiffLine {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(older.Table(), newer.Table())
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)

	var out []DiffLine
	for _, d := range diffs {
		t := LineSame
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			t = LineRemoved
		case diffmatchpatch.DiffInsert:
			t = LineAdded
		}
		for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			out = append(out, DiffLine{Type: t, Text: line})
		}
	}
	return out
}

// Changed reports whether any line differs.
func Changed(lines []DiffLine) bool {
	for _, l := range lines {
		if l.Type != LineSame {
			return true
		}
	}
	return false
}
