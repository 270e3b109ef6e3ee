package quake

import (
	"fmt"
	"math"
)

// MinBValueEvents is the smallest sample BValue accepts.
const MinBValueEvents = 5

// RJFitter implements Fitter with the closed-form Aki-Utsu b-value
// estimate and a Reasenberg-Jones model with fixed b, p and c.
type RJFitter struct{}

var _ Fitter = RJFitter{}

// BValue estimates b from every catalog event at or above mc, correcting
// for magnitude binning by half the precision.
func (RJFitter) BValue(cat Catalog, mc, precision float64) (BValue, error) {
	if precision < 0 {
		return BValue{}, fmt.Errorf("%w: magnitude precision must not be negative", ErrInvalidQuery)
	}
	sum, n := 0.0, 0
	for _, ev := range cat.Events {
		if ev.Mag >= mc {
			sum += ev.Mag
			n++
		}
	}
	if n < MinBValueEvents {
		return BValue{}, fmt.Errorf("%w: %d events at or above Mc %.2f, need %d", ErrTooFewEvents, n, mc, MinBValueEvents)
	}
	spread := sum/float64(n) - (mc - precision/2)
	if spread <= 0 {
		return BValue{}, fmt.Errorf("%w: magnitudes do not exceed Mc", ErrTooFewEvents)
	}
	return BValue{B: math.Log10(math.E) / spread, Mc: mc, N: n}, nil
}

// FitRJ fits the productivity a so that the model reproduces the number of
// events at or above Mc observed in the data window.
func (RJFitter) FitRJ(cat Catalog, q RJQuery) (RJParams, error) {
	if q.C <= 0 || q.P <= 0 {
		return RJParams{}, fmt.Errorf("%w: p and c must be positive", ErrInvalidQuery)
	}
	if q.StartDays < 0 || q.EndDays <= q.StartDays {
		return RJParams{}, fmt.Errorf("%w: fit window must satisfy 0 <= start < end", ErrInvalidQuery)
	}
	n := len(cat.Select(q.Mc, q.StartDays, q.EndDays))
	if n == 0 {
		return RJParams{}, fmt.Errorf("%w: no events at or above Mc %.2f in the fit window", ErrTooFewEvents, q.Mc)
	}
	integral := OmoriIntegral(q.P, q.C, q.StartDays, q.EndDays)
	a := math.Log10(float64(n)/integral) - q.B*(cat.Mainshock.Mag-q.Mc)
	return RJParams{
		A:            a,
		B:            q.B,
		P:            q.P,
		C:            q.C,
		Mc:           q.Mc,
		MainshockMag: cat.Mainshock.Mag,
		N:            n,
	}, nil
}

// Forecast computes, for each window and magnitude, the expected number of
// events and the probability of at least one.
func (RJFitter) Forecast(p RJParams, q ForecastQuery) (Forecast, error) {
	if err := q.Validate(); err != nil {
		return Forecast{}, err
	}
	if p.C <= 0 || p.P <= 0 {
		return Forecast{}, fmt.Errorf("%w: p and c must be positive", ErrInvalidQuery)
	}
	f := Forecast{Params: p, Query: q, Rows: make([]ForecastRow, 0, len(q.Durations))}
	for _, d := range q.Durations {
		integral := OmoriIntegral(p.P, p.C, q.StartDays, q.StartDays+d)
		row := ForecastRow{Duration: d, Cells: make([]ForecastCell, 0, len(q.Magnitudes))}
		for _, m := range q.Magnitudes {
			expected := math.Pow(10, p.A+p.B*(p.MainshockMag-m)) * integral
			row.Cells = append(row.Cells, ForecastCell{
				Magnitude:   m,
				Expected:    expected,
				Probability: 1 - math.Exp(-expected),
			})
		}
		f.Rows = append(f.Rows, row)
	}
	return f, nil
}

// OmoriIntegral integrates (t+c)^-p over [t1, t2].
func OmoriIntegral(p, c, t1, t2 float64) float64 {
	if math.Abs(p-1) < 1e-9 {
		return math.Log((t2 + c) / (t1 + c))
	}
	return (math.Pow(t2+c, 1-p) - math.Pow(t1+c, 1-p)) / (1 - p)
}
