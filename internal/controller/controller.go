// Package controller wires the forecast panels to the notification gate,
// the step sequencer and the application state.
//
// Everything here runs on the UI thread except the bodies of worker steps,
// which see only their snapshot and the quake collaborators.
package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zjrosen/aftershock/internal/appstate"
	"github.com/zjrosen/aftershock/internal/config"
	"github.com/zjrosen/aftershock/internal/flags"
	"github.com/zjrosen/aftershock/internal/history"
	"github.com/zjrosen/aftershock/internal/log"
	"github.com/zjrosen/aftershock/internal/notify"
	"github.com/zjrosen/aftershock/internal/quake"
	"github.com/zjrosen/aftershock/internal/sequencer"
	"github.com/zjrosen/aftershock/internal/snapshot"
)

// Op names a long operation. It doubles as the dialog title for failures.
type Op string

const (
	OpMainshock    Op = "Load mainshock"
	OpCatalog      Op = "Load catalog"
	OpBValue       Op = "Compute b-value"
	OpFit          Op = "Fit parameters"
	OpForecast     Op = "Compute forecast"
	OpSaveDefaults Op = "Save defaults"
)

// ErrBusy is shown when an operation is requested while another runs.
var ErrBusy = errors.New("another operation is still running")

// Presenter is the UI surface the controller reports to. Every method is
// called on the UI thread.
type Presenter interface {
	sequencer.ProgressSink
	// ShowError opens a message dialog.
	ShowError(title, message string)
	// ShowNotice shows a transient notice.
	ShowNotice(message string)
}

// Flusher drops cached catalog data.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Deps are the collaborators a Controller needs.
type Deps struct {
	Sequencer *sequencer.Sequencer
	State     *appstate.Machine
	Source    quake.Source
	Fitter    quake.Fitter
	Presenter Presenter
	Defaults  config.ForecastDefaults

	// Optional.
	Flags   *flags.Registry
	History history.Repository
	Cache   Flusher
}

// Option configures a Controller.
type Option func(*options)

type options struct {
	gateOpts []notify.Option
	now      func() time.Time
}

// WithFatal replaces the gate's dispatch-violation hook.
func WithFatal(fn func(error)) Option {
	return func(o *options) { o.gateOpts = append(o.gateOpts, notify.WithFatal(fn)) }
}

// WithClock sets the time source for saved forecasts.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Controller owns the panels and the model values that flow between them.
type Controller struct {
	gate      *notify.Gate
	seq       *sequencer.Sequencer
	state     *appstate.Machine
	source    quake.Source
	fitter    quake.Fitter
	presenter Presenter
	flags     *flags.Registry
	history   history.Repository
	cache     Flusher
	now       func() time.Time

	Mainshock *MainshockPanel
	Catalog   *CatalogPanel
	BValue    *BValuePanel
	Fit       *FitPanel
	Forecast  *ForecastPanel
	panels    []*Panel

	// Model values produced by completed operations.
	mainshock *quake.Mainshock
	catalog   *quake.Catalog
	params    *quake.RJParams
	forecast  *quake.Forecast

	running   Op
	cancel    context.CancelFunc
	delivered int
	observer  func(Op, sequencer.Outcome)
}

// New creates the controller and registers every panel control.
func New(d Deps, opts ...Option) (*Controller, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Controller{
		gate:      notify.NewGate(o.gateOpts...),
		seq:       d.Sequencer,
		state:     d.State,
		source:    d.Source,
		fitter:    d.Fitter,
		presenter: d.Presenter,
		flags:     d.Flags,
		history:   d.History,
		cache:     d.Cache,
		now:       o.now,
	}

	c.Mainshock = newMainshockPanel()
	c.Catalog = newCatalogPanel(d.Defaults)
	c.BValue = newBValuePanel(d.Defaults)
	c.Fit = newFitPanel(d.Defaults, c.BValue)
	c.Forecast = newForecastPanel(d.Defaults)

	actions := []struct {
		p  *Panel
		fn func()
	}{
		{c.Mainshock.Panel, c.loadMainshock},
		{c.Catalog.Panel, c.loadCatalog},
		{c.BValue.Panel, c.computeBValue},
		{c.Fit.Panel, c.fitParameters},
		{c.Forecast.Panel, c.computeForecast},
	}
	for _, a := range actions {
		if err := c.attach(a.p, a.fn); err != nil {
			return nil, fmt.Errorf("registering %s panel: %w", a.p.Title, err)
		}
		c.panels = append(c.panels, a.p)
	}

	c.refreshEnablement()
	log.Debug(log.CatGate, "Panels registered", "panels", len(c.panels), "controls", len(c.Controls()))
	return c, nil
}

// attach gives the panel a child gate whose router maps the panel's groups
// to handlers, then registers every control through it.
func (c *Controller) attach(p *Panel, action func()) error {
	edit := func(ev notify.Event) error {
		c.delivered++
		log.Debug(log.CatUI, "Parameter edited", "control", ev.Name, "value", ev.New)
		c.refreshEnablement()
		return nil
	}
	press := func(ev notify.Event) error {
		c.delivered++
		log.Debug(log.CatUI, "Action pressed", "control", ev.Name)
		action()
		return nil
	}
	display := func(ev notify.Event) error {
		c.delivered++
		log.Warn(log.CatUI, "Display control changed outside a store", "control", ev.Name)
		return nil
	}

	p.gate = c.gate.Child(notify.WithRouter(func(g notify.Group) (notify.Handler, bool) {
		switch g {
		case p.group:
			return edit, true
		case GroupActions:
			return press, true
		case GroupDisplay:
			return display, true
		default:
			return nil, false
		}
	}))

	for _, in := range p.Inputs {
		if err := p.gate.Register(in, p.Title+"."+in.Label(), p.group, nil); err != nil {
			return err
		}
	}
	if err := p.gate.Register(p.Action, p.Title+"."+p.Action.Label(), GroupActions, nil); err != nil {
		return err
	}
	for _, out := range p.Outputs {
		if err := p.gate.Register(out, p.Title+"."+out.Label(), GroupDisplay, nil); err != nil {
			return err
		}
	}
	return nil
}

// Controls returns the debug name of every registered control, panel by
// panel in registration order.
func (c *Controller) Controls() []string {
	var names []string
	for _, p := range c.panels {
		reg := p.gate.Registry()
		for _, h := range reg.Handles() {
			names = append(names, reg.Name(h))
		}
	}
	return names
}

// Panels returns the panels in workflow order.
func (c *Controller) Panels() []*Panel { return c.panels }

// State returns the current application state.
func (c *Controller) State() appstate.State { return c.state.Get() }

// Running returns the operation in flight, or "".
func (c *Controller) Running() Op { return c.running }

// Delivered counts notifications that reached a handler.
func (c *Controller) Delivered() int { return c.delivered }

// LoadedMainshock returns the current mainshock, if loaded.
func (c *Controller) LoadedMainshock() (quake.Mainshock, bool) {
	if c.mainshock == nil {
		return quake.Mainshock{}, false
	}
	return *c.mainshock, true
}

// LoadedCatalog returns the current aftershock catalog, if loaded.
func (c *Controller) LoadedCatalog() (quake.Catalog, bool) {
	if c.catalog == nil {
		return quake.Catalog{}, false
	}
	return *c.catalog, true
}

// FittedParams returns the fitted model parameters, if fitted.
func (c *Controller) FittedParams() (quake.RJParams, bool) {
	if c.params == nil {
		return quake.RJParams{}, false
	}
	return *c.params, true
}

// ComputedForecast returns the last forecast, if computed.
func (c *Controller) ComputedForecast() (quake.Forecast, bool) {
	if c.forecast == nil {
		return quake.Forecast{}, false
	}
	return *c.forecast, true
}

// OnComplete registers fn to run after every operation's completion.
func (c *Controller) OnComplete(fn func(Op, sequencer.Outcome)) {
	c.observer = fn
}

// Cancel cancels the running operation when the cancelable-runs flag is on.
// Reports whether a cancellation was requested.
func (c *Controller) Cancel() bool {
	if c.cancel == nil || !c.flags.Enabled(flags.FlagCancelableRuns) {
		return false
	}
	log.Info(log.CatSeq, "Cancel requested", "op", string(c.running))
	c.cancel()
	return true
}

// CatalogChanged is called when the catalog file changes on disk.
func (c *Controller) CatalogChanged(ctx context.Context) {
	if c.cache != nil {
		if err := c.cache.Flush(ctx); err != nil {
			log.ErrorErr(log.CatCache, "Flushing catalog cache failed", err)
		}
	}
	if c.state.Get().AtLeast(appstate.Mainshock) {
		c.presenter.ShowNotice("Catalog file changed, reload to pick up edits")
	}
}

// refreshEnablement applies the state and busy rules to every panel.
func (c *Controller) refreshEnablement() {
	st := c.state.Get()
	busy := c.running != ""
	for _, p := range c.panels {
		on := st.AtLeast(p.minState)
		p.gate.EnableGroup(p.group, on)
		p.gate.EnableGroup(GroupActions, on && !busy && p.ready())
	}
}

// setState moves the application state and re-applies enablement.
func (c *Controller) setState(s appstate.State) {
	if err := c.state.Set(s); err != nil {
		log.ErrorErr(log.CatState, "State change rejected", err, "to", s.String())
	}
	c.refreshEnablement()
}

// start loads snap and, when valid, runs the steps built from it. done
// runs on the UI thread only when every step succeeded.
func (c *Controller) start(op Op, snap snapshot.Snapshot, steps func() []sequencer.Step, done func()) {
	if c.running != "" {
		c.presenter.ShowError(string(op), ErrBusy.Error())
		return
	}
	snap.Clean()
	if err := snap.Load(); err != nil {
		log.Info(log.CatSnapshot, "Validation failed", "op", string(op), "error", err)
		c.presenter.ShowError(string(op), err.Error())
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.running = op
	c.cancel = cancel
	c.refreshEnablement()

	c.seq.RunContext(ctx, c.presenter, func(out sequencer.Outcome) {
		cancel()
		c.running = ""
		c.cancel = nil
		if out.OK() {
			done()
		} else {
			log.Warn(log.CatSeq, "Operation failed", "op", string(op), "detail", out.Detail())
			c.presenter.ShowError(string(op), out.Message())
		}
		c.refreshEnablement()
		if c.observer != nil {
			c.observer(op, out)
		}
	}, steps()...)
}
