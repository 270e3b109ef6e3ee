package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/aftershock/internal/quake"
)

func record(id string, prob float64) *Record {
	ms := quake.Mainshock{ID: id, Mag: 6.4}
	f := quake.Forecast{
		Params: quake.RJParams{A: -1.67, B: 0.91, P: 1.08, C: 0.018, Mc: 3, N: 42},
		Query:  quake.ForecastQuery{StartDays: 7, Durations: []float64{7}, Magnitudes: []float64{5}},
		Rows: []quake.ForecastRow{{
			Duration: 7,
			Cells:    []quake.ForecastCell{{Magnitude: 5, Expected: 0.2, Probability: prob}},
		}},
	}
	return NewRecord(ms, f, time.Date(2019, 7, 6, 3, 19, 53, 500, time.FixedZone("PDT", -7*3600)))
}

func TestNewRecord(t *testing.T) {
	r := record("ci38457511", 0.18)

	require.NotEmpty(t, r.GUID)
	require.Zero(t, r.ID)
	require.Equal(t, time.UTC, r.CreatedAt.Location())
	require.Zero(t, r.CreatedAt.Nanosecond())
	require.Equal(t, "ci38457511 M6.4 2019-07-06 10:19:53 (a=-1.67 b=0.91 p=1.08 c=0.018)", r.Summary())
}

func TestNotFoundError(t *testing.T) {
	var err error = &NotFoundError{GUID: "abc"}
	require.EqualError(t, err, "forecast abc not found")
}

func TestDiff_IdenticalRecords(t *testing.T) {
	a := record("ci38457511", 0.18)
	b := record("ci38457511", 0.18)

	lines := Diff(a, b)
	require.NotEmpty(t, lines)
	require.False(t, Changed(lines))
}

func TestDiff_ChangedProbability(t *testing.T) {
	a := record("ci38457511", 0.18)
	b := record("ci38457511", 0.25)

	lines := Diff(a, b)
	require.True(t, Changed(lines))

	var removed, added []string
	for _, l := range lines {
		switch l.Type {
		case LineRemoved:
			removed = append(removed, l.Text)
		case LineAdded:
			added = append(added, l.Text)
		}
	}
	require.Equal(t, []string{"| 1 week | 18% (0.2) |"}, removed)
	require.Equal(t, []string{"| 1 week | 25% (0.2) |"}, added)
}
