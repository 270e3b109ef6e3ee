package controller

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/zjrosen/aftershock/internal/appstate"
	"github.com/zjrosen/aftershock/internal/config"
	"github.com/zjrosen/aftershock/internal/flags"
	"github.com/zjrosen/aftershock/internal/history"
	"github.com/zjrosen/aftershock/internal/log"
	"github.com/zjrosen/aftershock/internal/quake"
	"github.com/zjrosen/aftershock/internal/sequencer"
	"github.com/zjrosen/aftershock/internal/snapshot"
)

// Each operation below follows the same shape: build a snapshot bound to
// the panel's controls, let start validate it, run worker steps that only
// touch the snapshot, and on success store results and move the state.

type mainshockSnapshot struct {
	p *MainshockPanel
	w snapshot.Writer

	eventID string

	mainshock quake.Mainshock
	mag       *snapshot.Result[float64]
	when      *snapshot.Result[time.Time]
	place     *snapshot.Result[string]
}

func (s *mainshockSnapshot) Load() error {
	var l snapshot.Loader
	s.eventID = strings.TrimSpace(l.Text("Event ID", s.p.EventID, snapshot.NonEmpty()))
	if l.Err() == nil && s.eventID == "" {
		return &snapshot.ValidationError{Field: "Event ID", Reason: "must not be blank"}
	}
	return l.Err()
}

func (s *mainshockSnapshot) Store() { snapshot.StoreAll(s.w, s.mag, s.when, s.place) }
func (s *mainshockSnapshot) Clean() { snapshot.CleanAll(s.mag, s.when, s.place) }

func (c *Controller) loadMainshock() {
	p := c.Mainshock
	snap := &mainshockSnapshot{
		p:     p,
		w:     p.gate,
		mag:   snapshot.NewResult[float64](p.Magnitude),
		when:  snapshot.NewResult[time.Time](p.Time),
		place: snapshot.NewResult[string](p.Place),
	}
	steps := func() []sequencer.Step {
		return []sequencer.Step{
			sequencer.WorkerStep("Fetch mainshock", "Looking up "+snap.eventID, func(ctx context.Context) error {
				ms, err := c.source.Mainshock(ctx, snap.eventID)
				if err != nil {
					if errors.Is(err, quake.ErrNotFound) {
						return sequencer.Fail(fmt.Sprintf("No event with ID %q", snap.eventID), err)
					}
					return sequencer.Fail("Could not fetch the mainshock", err)
				}
				snap.mainshock = ms
				snap.mag.Modify(ms.Mag)
				snap.when.Modify(ms.Time)
				snap.place.Modify(ms.Place)
				return nil
			}),
		}
	}
	c.start(OpMainshock, snap, steps, func() {
		snap.Store()
		ms := snap.mainshock
		c.mainshock = &ms
		c.resetAfter(appstate.Mainshock)
		c.setState(appstate.Mainshock)
	})
}

type catalogSnapshot struct {
	p *CatalogPanel
	w snapshot.Writer

	mainshock *quake.Mainshock
	query     quake.CatalogQuery

	catalog quake.Catalog
	count   *snapshot.Result[int]
	maxMag  *snapshot.Result[float64]
}

func (s *catalogSnapshot) Load() error {
	if s.mainshock == nil {
		return &snapshot.ValidationError{Field: "Mainshock", Reason: "must be loaded first"}
	}
	var l snapshot.Loader
	q := quake.CatalogQuery{
		Mainshock: *s.mainshock,
		StartDays: l.Float("Start (days)", s.p.StartDays, snapshot.Finite(), snapshot.NonNegative[float64]()),
		EndDays:   l.Float("End (days)", s.p.EndDays, snapshot.Finite(), snapshot.Positive[float64]()),
		RadiusKm:  l.Float("Radius (km)", s.p.RadiusKm, snapshot.Finite(), snapshot.Positive[float64]()),
		MinMag:    l.Float("Min magnitude", s.p.MinMag, snapshot.Finite(), snapshot.Range(-2.0, 10.0)),
	}
	if err := l.Err(); err != nil {
		return err
	}
	if q.EndDays <= q.StartDays {
		return &snapshot.ValidationError{Field: "End (days)", Reason: "must be after the start"}
	}
	s.query = q
	return nil
}

func (s *catalogSnapshot) Store() { snapshot.StoreAll(s.w, s.count, s.maxMag) }
func (s *catalogSnapshot) Clean() { snapshot.CleanAll(s.count, s.maxMag) }

func (c *Controller) loadCatalog() {
	p := c.Catalog
	snap := &catalogSnapshot{
		p:         p,
		w:         p.gate,
		mainshock: c.mainshock,
		count:     snapshot.NewResult[int](p.Count),
		maxMag:    snapshot.NewResult[float64](p.MaxMag),
	}
	steps := func() []sequencer.Step {
		status := fmt.Sprintf("Days %g to %g within %g km", snap.query.StartDays, snap.query.EndDays, snap.query.RadiusKm)
		return []sequencer.Step{
			sequencer.WorkerStep("Fetch aftershocks", status, func(ctx context.Context) error {
				cat, err := c.source.Aftershocks(ctx, snap.query)
				if err != nil {
					return sequencer.Fail("Could not load the aftershock catalog", err)
				}
				snap.catalog = cat
				snap.count.Modify(cat.Len())
				if cat.Len() > 0 {
					snap.maxMag.Modify(cat.MaxMag())
				} else {
					snap.maxMag.Unset()
				}
				return nil
			}),
		}
	}
	c.start(OpCatalog, snap, steps, func() {
		snap.Store()
		cat := snap.catalog
		c.catalog = &cat
		c.resetAfter(appstate.Catalog)
		c.setState(appstate.Catalog)
	})
}

type bvalueSnapshot struct {
	p *BValuePanel
	w snapshot.Writer

	catalog   *quake.Catalog
	mc        float64
	precision float64

	b *snapshot.Result[float64]
	n *snapshot.Result[int]
}

func (s *bvalueSnapshot) Load() error {
	if s.catalog == nil {
		return &snapshot.ValidationError{Field: "Catalog", Reason: "must be loaded first"}
	}
	var l snapshot.Loader
	s.mc = l.Float("Mc", s.p.Mc, snapshot.Finite())
	s.precision = l.Float("Mag precision", s.p.Precision, snapshot.Finite(), snapshot.Positive[float64]())
	return l.Err()
}

func (s *bvalueSnapshot) Store() { snapshot.StoreAll(s.w, s.b, s.n) }
func (s *bvalueSnapshot) Clean() { snapshot.CleanAll(s.b, s.n) }

// computeBValue does not advance the application state.
func (c *Controller) computeBValue() {
	p := c.BValue
	snap := &bvalueSnapshot{
		p:       p,
		w:       p.gate,
		catalog: c.catalog,
		b:       snapshot.NewResult[float64](p.B),
		n:       snapshot.NewResult[int](p.N),
	}
	steps := func() []sequencer.Step {
		return []sequencer.Step{
			sequencer.WorkerStep("Estimate b-value", fmt.Sprintf("Mc %g", snap.mc), func(context.Context) error {
				bv, err := c.fitter.BValue(*snap.catalog, snap.mc, snap.precision)
				if err != nil {
					if errors.Is(err, quake.ErrTooFewEvents) {
						return sequencer.Fail("Not enough events above Mc", err)
					}
					return sequencer.Fail("b-value estimate failed", err)
				}
				snap.b.Modify(bv.B)
				snap.n.Modify(bv.N)
				return nil
			}),
		}
	}
	c.start(OpBValue, snap, steps, snap.Store)
}

type fitSnapshot struct {
	p  *FitPanel
	bp *BValuePanel
	w  snapshot.Writer

	catalog *quake.Catalog
	query   quake.RJQuery

	params quake.RJParams
	a      *snapshot.Result[float64]
	n      *snapshot.Result[int]
}

func (s *fitSnapshot) Load() error {
	if s.catalog == nil {
		return &snapshot.ValidationError{Field: "Catalog", Reason: "must be loaded first"}
	}
	var l snapshot.Loader
	s.query = quake.RJQuery{
		Mc:        l.Float("Mc", s.bp.Mc, snapshot.Finite()),
		B:         l.Float("b-value", s.bp.B, snapshot.Finite(), snapshot.Positive[float64]()),
		P:         l.Float("p", s.p.P, snapshot.Finite(), snapshot.Positive[float64]()),
		C:         l.Float("c (days)", s.p.C, snapshot.Finite(), snapshot.Positive[float64]()),
		StartDays: s.catalog.Query.StartDays,
		EndDays:   s.catalog.Query.EndDays,
	}
	return l.Err()
}

func (s *fitSnapshot) Store() { snapshot.StoreAll(s.w, s.a, s.n) }
func (s *fitSnapshot) Clean() { snapshot.CleanAll(s.a, s.n) }

func (c *Controller) fitParameters() {
	p := c.Fit
	snap := &fitSnapshot{
		p:       p,
		bp:      c.BValue,
		w:       p.gate,
		catalog: c.catalog,
		a:       snapshot.NewResult[float64](p.A),
		n:       snapshot.NewResult[int](p.N),
	}
	steps := func() []sequencer.Step {
		return []sequencer.Step{
			sequencer.WorkerStep("Fit parameters", "Reasenberg-Jones", func(context.Context) error {
				params, err := c.fitter.FitRJ(*snap.catalog, snap.query)
				if err != nil {
					if errors.Is(err, quake.ErrTooFewEvents) {
						return sequencer.Fail("Not enough events above Mc to fit", err)
					}
					return sequencer.Fail("Parameter fit failed", err)
				}
				snap.params = params
				snap.a.Modify(params.A)
				snap.n.Modify(params.N)
				return nil
			}),
		}
	}
	c.start(OpFit, snap, steps, func() {
		snap.Store()
		params := snap.params
		c.params = &params
		c.resetAfter(appstate.Parameters)
		c.setState(appstate.Parameters)
	})
}

type forecastSnapshot struct {
	p *ForecastPanel
	w snapshot.Writer

	mainshock quake.Mainshock
	params    *quake.RJParams
	query     quake.ForecastQuery

	forecast quake.Forecast
	table    *snapshot.Result[quake.Forecast]
	saved    *history.Record
	saveErr  error
}

func (s *forecastSnapshot) Load() error {
	if s.params == nil {
		return &snapshot.ValidationError{Field: "Parameters", Reason: "must be fitted first"}
	}
	var l snapshot.Loader
	s.query.StartDays = l.Float("Start (days)", s.p.StartDays, snapshot.Finite(), snapshot.NonNegative[float64]())
	durations := l.Text("Durations (days)", s.p.Durations, snapshot.NonEmpty())
	mags := l.Text("Magnitudes", s.p.Magnitudes, snapshot.NonEmpty())
	if err := l.Err(); err != nil {
		return err
	}

	var err error
	if s.query.Durations, err = parseField("Durations (days)", durations, positiveFinite); err != nil {
		return err
	}
	if s.query.Magnitudes, err = parseField("Magnitudes", mags, finite); err != nil {
		return err
	}
	return nil
}

func (s *forecastSnapshot) Store() { snapshot.StoreAll(s.w, s.table) }
func (s *forecastSnapshot) Clean() { snapshot.CleanAll(s.table) }

func (c *Controller) computeForecast() {
	p := c.Forecast
	snap := &forecastSnapshot{
		p:      p,
		w:      p.gate,
		params: c.params,
		table:  snapshot.NewResult[quake.Forecast](p.Table),
	}
	if c.mainshock != nil {
		snap.mainshock = *c.mainshock
	}
	save := c.history != nil && c.flags.Enabled(flags.FlagForecastHistory)

	steps := func() []sequencer.Step {
		steps := []sequencer.Step{
			sequencer.WorkerStep("Compute forecast", fmt.Sprintf("%d windows", len(snap.query.Durations)), func(context.Context) error {
				f, err := c.fitter.Forecast(*snap.params, snap.query)
				if err != nil {
					return sequencer.Fail("Forecast computation failed", err)
				}
				snap.forecast = f
				snap.table.Modify(f)
				return nil
			}),
		}
		if save {
			// A failed save does not fail the forecast; completion reports it.
			steps = append(steps, sequencer.WorkerStep("Save forecast", "Writing history", func(context.Context) error {
				rec := history.NewRecord(snap.mainshock, snap.forecast, c.now())
				if err := c.history.Save(rec); err != nil {
					log.ErrorErr(log.CatDB, "Saving forecast failed", err, "mainshock", snap.mainshock.ID)
					snap.saveErr = err
					return nil
				}
				snap.saved = rec
				return nil
			}))
		}
		return steps
	}
	c.start(OpForecast, snap, steps, func() {
		snap.Store()
		f := snap.forecast
		c.forecast = &f
		c.setState(appstate.Forecast)
		switch {
		case snap.saveErr != nil:
			c.presenter.ShowError("Save forecast", "The forecast was computed but not saved: "+snap.saveErr.Error())
		case snap.saved != nil:
			c.presenter.ShowNotice("Forecast saved to history")
		}
	})
}

// resetAfter clears the results of every stage after s, both the model
// values and the display controls.
func (c *Controller) resetAfter(s appstate.State) {
	release := c.gate.Block()
	defer release()

	if s < appstate.Mainshock {
		c.mainshock = nil
		c.clear(c.Mainshock.Panel)
	}
	if s < appstate.Catalog {
		c.catalog = nil
		c.clear(c.Catalog.Panel)
	}
	// the b-value belongs to the catalog it was computed from
	if s <= appstate.Catalog {
		c.clear(c.BValue.Panel)
	}
	if s < appstate.Parameters {
		c.params = nil
		c.clear(c.Fit.Panel)
	}
	if s < appstate.Forecast {
		c.forecast = nil
		c.clear(c.Forecast.Panel)
	}
}

func (c *Controller) clear(p *Panel) {
	for _, out := range p.Outputs {
		p.gate.UpdateValue(out, nil)
	}
}

type defaultsSnapshot struct {
	c        *Controller
	defaults config.ForecastDefaults
}

func (s *defaultsSnapshot) Load() error {
	var l snapshot.Loader
	c := s.c
	d := config.ForecastDefaults{
		Mc:                l.Float("Mc", c.BValue.Mc, snapshot.Finite()),
		MagPrecision:      l.Float("Mag precision", c.BValue.Precision, snapshot.Finite(), snapshot.Positive[float64]()),
		DataStartDays:     l.Float("Start (days)", c.Catalog.StartDays, snapshot.Finite(), snapshot.NonNegative[float64]()),
		DataEndDays:       l.Float("End (days)", c.Catalog.EndDays, snapshot.Finite(), snapshot.Positive[float64]()),
		RadiusKm:          l.Float("Radius (km)", c.Catalog.RadiusKm, snapshot.Finite(), snapshot.Positive[float64]()),
		MinMag:            l.Float("Min magnitude", c.Catalog.MinMag, snapshot.Finite()),
		P:                 l.Float("p", c.Fit.P, snapshot.Finite(), snapshot.Positive[float64]()),
		C:                 l.Float("c (days)", c.Fit.C, snapshot.Finite(), snapshot.Positive[float64]()),
		ForecastStartDays: l.Float("Forecast start (days)", c.Forecast.StartDays, snapshot.Finite(), snapshot.NonNegative[float64]()),
	}
	durations := l.Text("Durations (days)", c.Forecast.Durations, snapshot.NonEmpty())
	mags := l.Text("Magnitudes", c.Forecast.Magnitudes, snapshot.NonEmpty())
	if err := l.Err(); err != nil {
		return err
	}

	var err error
	if d.ForecastDurations, err = parseField("Durations (days)", durations, positiveFinite); err != nil {
		return err
	}
	if d.ForecastMags, err = parseField("Magnitudes", mags, finite); err != nil {
		return err
	}
	if err := config.ValidateDefaults(d); err != nil {
		return &snapshot.ValidationError{Field: "Defaults", Reason: err.Error()}
	}
	s.defaults = d
	return nil
}

func (s *defaultsSnapshot) Store() {}
func (s *defaultsSnapshot) Clean() {}

// SaveDefaults writes the current parameter values to the config file.
func (c *Controller) SaveDefaults(configPath string) {
	snap := &defaultsSnapshot{c: c}
	steps := func() []sequencer.Step {
		return []sequencer.Step{
			sequencer.WorkerStep("Save defaults", configPath, func(context.Context) error {
				if err := config.SaveDefaults(configPath, snap.defaults); err != nil {
					return sequencer.Fail("Could not save defaults", err)
				}
				return nil
			}),
		}
	}
	c.start(OpSaveDefaults, snap, steps, func() {
		c.presenter.ShowNotice("Defaults saved to " + configPath)
	})
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func positiveFinite(v float64) bool { return finite(v) && v > 0 }

func parseField(field, text string, ok func(float64) bool) ([]float64, error) {
	values, err := ParseList(text)
	if err != nil {
		return nil, &snapshot.ValidationError{Field: field, Reason: err.Error()}
	}
	if len(values) == 0 {
		return nil, &snapshot.ValidationError{Field: field, Reason: "must not be empty"}
	}
	for _, v := range values {
		if !ok(v) {
			return nil, &snapshot.ValidationError{Field: field, Reason: fmt.Sprintf("has invalid value %v", v)}
		}
	}
	return values, nil
}
