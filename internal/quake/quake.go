// Package quake defines the earthquake data and model types the forecast
// workflow passes between panels and worker steps, and the collaborator
// interfaces worker steps call: a catalog Source and a statistical Fitter.
//
// The implementations in this package are reference collaborators: a
// deterministic synthetic catalog, a YAML file catalog, and closed-form
// Reasenberg-Jones routines.
package quake

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a source has no such event.
	ErrNotFound = errors.New("event not found")
	// ErrTooFewEvents is returned when a fit has too little data.
	ErrTooFewEvents = errors.New("not enough events")
	// ErrInvalidQuery is returned for inconsistent query parameters.
	ErrInvalidQuery = errors.New("invalid query")
)

// Mainshock is the event a forecast is anchored on.
type Mainshock struct {
	ID    string    `yaml:"id"`
	Time  time.Time `yaml:"time"`
	Mag   float64   `yaml:"mag"`
	Lat   float64   `yaml:"lat"`
	Lon   float64   `yaml:"lon"`
	Depth float64   `yaml:"depth"`
	Place string    `yaml:"place"`
}

// Event is one aftershock.
type Event struct {
	ID    string    `yaml:"id"`
	Time  time.Time `yaml:"time"`
	Mag   float64   `yaml:"mag"`
	Lat   float64   `yaml:"lat"`
	Lon   float64   `yaml:"lon"`
	Depth float64   `yaml:"depth"`
}

// CatalogQuery selects aftershocks of a mainshock. Times are days after
// the mainshock.
type CatalogQuery struct {
	Mainshock Mainshock
	StartDays float64
	EndDays   float64
	RadiusKm  float64
	MinMag    float64
}

// Validate checks the query window and filters.
func (q CatalogQuery) Validate() error {
	switch {
	case q.Mainshock.ID == "":
		return fmt.Errorf("%w: no mainshock", ErrInvalidQuery)
	case q.StartDays < 0 || q.EndDays <= q.StartDays:
		return fmt.Errorf("%w: data window must satisfy 0 <= start < end", ErrInvalidQuery)
	case q.RadiusKm <= 0:
		return fmt.Errorf("%w: radius must be positive", ErrInvalidQuery)
	}
	return nil
}

// Catalog is the aftershock sequence returned for a query, sorted by time.
type Catalog struct {
	Mainshock Mainshock
	Query     CatalogQuery
	Events    []Event
}

// Len returns the number of events.
func (c Catalog) Len() int { return len(c.Events) }

// DaysAfter returns the event's time in days after the mainshock.
func (c Catalog) DaysAfter(ev Event) float64 {
	return ev.Time.Sub(c.Mainshock.Time).Hours() / 24
}

// MaxMag returns the largest aftershock magnitude, or 0 for an empty catalog.
func (c Catalog) MaxMag() float64 {
	max := 0.0
	for i, ev := range c.Events {
		if i == 0 || ev.Mag > max {
			max = ev.Mag
		}
	}
	return max
}

// Select returns events with magnitude >= mc inside [startDays, endDays].
func (c Catalog) Select(mc, startDays, endDays float64) []Event {
	var out []Event
	for _, ev := range c.Events {
		d := c.DaysAfter(ev)
		if ev.Mag >= mc && d >= startDays && d <= endDays {
			out = append(out, ev)
		}
	}
	return out
}

// BValue is the result of a Gutenberg-Richter b-value estimate.
type BValue struct {
	B  float64
	Mc float64
	// N is the number of events at or above Mc.
	N int
}

// RJQuery configures a Reasenberg-Jones fit. B, P and C are held fixed;
// the productivity a is fitted to the events in the data window.
type RJQuery struct {
	Mc        float64
	B         float64
	P         float64
	C         float64
	StartDays float64
	EndDays   float64
}

// RJParams are fitted Reasenberg-Jones parameters.
type RJParams struct {
	A            float64
	B            float64
	P            float64
	C            float64
	Mc           float64
	MainshockMag float64
	N            int
}

// ForecastQuery selects the forecast windows and magnitude thresholds.
// StartDays is when every window begins, in days after the mainshock.
type ForecastQuery struct {
	StartDays  float64
	Durations  []float64
	Magnitudes []float64
}

// Validate checks the forecast windows and thresholds.
func (q ForecastQuery) Validate() error {
	if q.StartDays < 0 {
		return fmt.Errorf("%w: forecast start must not be negative", ErrInvalidQuery)
	}
	if len(q.Durations) == 0 || len(q.Magnitudes) == 0 {
		return fmt.Errorf("%w: forecast needs durations and magnitudes", ErrInvalidQuery)
	}
	for _, d := range q.Durations {
		if d <= 0 {
			return fmt.Errorf("%w: forecast durations must be positive", ErrInvalidQuery)
		}
	}
	return nil
}

// ForecastCell is the expected count and probability of one or more
// events at or above Magnitude within one window.
type ForecastCell struct {
	Magnitude   float64
	Expected    float64
	Probability float64
}

// ForecastRow is one forecast window.
type ForecastRow struct {
	Duration float64
	Cells    []ForecastCell
}

// Forecast is the computed forecast table.
type Forecast struct {
	Params RJParams
	Query  ForecastQuery
	Rows   []ForecastRow
}

// Source provides mainshocks and aftershock catalogs. Implementations are
// called from worker steps only and must be safe for concurrent use.
type Source interface {
	Mainshock(ctx context.Context, eventID string) (Mainshock, error)
	Aftershocks(ctx context.Context, q CatalogQuery) (Catalog, error)
}

// Fitter provides the statistical routines. Called from worker steps only.
type Fitter interface {
	BValue(cat Catalog, mc, precision float64) (BValue, error)
	FitRJ(cat Catalog, q RJQuery) (RJParams, error)
	Forecast(p RJParams, q ForecastQuery) (Forecast, error)
}
