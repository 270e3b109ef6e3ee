package controller

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zjrosen/aftershock/internal/appstate"
	"github.com/zjrosen/aftershock/internal/config"
	"github.com/zjrosen/aftershock/internal/control"
	"github.com/zjrosen/aftershock/internal/notify"
	"github.com/zjrosen/aftershock/internal/quake"
)

// Groups route change events. Each panel's inputs carry the panel's own
// group; every action and display control shares GroupActions and
// GroupDisplay, scoped by the panel's child gate.
const (
	GroupMainshock notify.Group = iota + 1
	GroupCatalog
	GroupBValue
	GroupFit
	GroupForecast
	GroupActions
	GroupDisplay
)

// Panel is the part of a panel the TUI renders generically.
type Panel struct {
	Title   string
	Inputs  []*control.Param
	Action  *control.Param
	Outputs []*control.Param

	group    notify.Group
	minState appstate.State
	gate     *notify.Gate
	ready    func() bool
}

// Gate returns the panel's child gate.
func (p *Panel) Gate() *notify.Gate { return p.gate }

// MainshockPanel selects the event the forecast is anchored on.
type MainshockPanel struct {
	*Panel
	EventID   *control.Param
	Load      *control.Param
	Magnitude *control.Param
	Time      *control.Param
	Place     *control.Param
}

func newMainshockPanel() *MainshockPanel {
	p := &MainshockPanel{
		EventID:   control.New("Event ID", control.KindText),
		Load:      control.New("Load", control.KindAction),
		Magnitude: control.New("Magnitude", control.KindDisplay, control.WithFormat(formatFixed(1))),
		Time:      control.New("Origin time", control.KindDisplay),
		Place:     control.New("Location", control.KindDisplay),
	}
	p.Panel = &Panel{
		Title:    "Mainshock",
		Inputs:   []*control.Param{p.EventID},
		Action:   p.Load,
		Outputs:  []*control.Param{p.Magnitude, p.Time, p.Place},
		group:    GroupMainshock,
		minState: appstate.Initial,
		ready: func() bool {
			s, _ := p.EventID.Value().(string)
			return strings.TrimSpace(s) != ""
		},
	}
	return p
}

// CatalogPanel selects the aftershock data window.
type CatalogPanel struct {
	*Panel
	StartDays *control.Param
	EndDays   *control.Param
	RadiusKm  *control.Param
	MinMag    *control.Param
	Load      *control.Param
	Count     *control.Param
	MaxMag    *control.Param
}

func newCatalogPanel(d config.ForecastDefaults) *CatalogPanel {
	p := &CatalogPanel{
		StartDays: control.New("Start (days)", control.KindFloat, control.WithValue(d.DataStartDays)),
		EndDays:   control.New("End (days)", control.KindFloat, control.WithValue(d.DataEndDays)),
		RadiusKm:  control.New("Radius (km)", control.KindFloat, control.WithValue(d.RadiusKm)),
		MinMag:    control.New("Min magnitude", control.KindFloat, control.WithValue(d.MinMag)),
		Load:      control.New("Load", control.KindAction),
		Count:     control.New("Events", control.KindDisplay),
		MaxMag:    control.New("Largest", control.KindDisplay, control.WithFormat(formatFixed(1))),
	}
	p.Panel = &Panel{
		Title:    "Catalog",
		Inputs:   []*control.Param{p.StartDays, p.EndDays, p.RadiusKm, p.MinMag},
		Action:   p.Load,
		Outputs:  []*control.Param{p.Count, p.MaxMag},
		group:    GroupCatalog,
		minState: appstate.Mainshock,
		ready:    always,
	}
	return p
}

// BValuePanel estimates the Gutenberg-Richter b-value.
type BValuePanel struct {
	*Panel
	Mc        *control.Param
	Precision *control.Param
	Compute   *control.Param
	B         *control.Param
	N         *control.Param
}

func newBValuePanel(d config.ForecastDefaults) *BValuePanel {
	p := &BValuePanel{
		Mc:        control.New("Mc", control.KindFloat, control.WithValue(d.Mc)),
		Precision: control.New("Mag precision", control.KindFloat, control.WithValue(d.MagPrecision)),
		Compute:   control.New("Compute", control.KindAction),
		B:         control.New("b-value", control.KindDisplay, control.WithFormat(formatFixed(2))),
		N:         control.New("Events >= Mc", control.KindDisplay),
	}
	p.Panel = &Panel{
		Title:    "b-value",
		Inputs:   []*control.Param{p.Mc, p.Precision},
		Action:   p.Compute,
		Outputs:  []*control.Param{p.B, p.N},
		group:    GroupBValue,
		minState: appstate.Catalog,
		ready:    always,
	}
	return p
}

// FitPanel fits the Reasenberg-Jones productivity.
type FitPanel struct {
	*Panel
	P   *control.Param
	C   *control.Param
	Fit *control.Param
	A   *control.Param
	N   *control.Param
}

func newFitPanel(d config.ForecastDefaults, bp *BValuePanel) *FitPanel {
	p := &FitPanel{
		P:   control.New("p", control.KindFloat, control.WithValue(d.P)),
		C:   control.New("c (days)", control.KindFloat, control.WithValue(d.C)),
		Fit: control.New("Fit", control.KindAction),
		A:   control.New("a-value", control.KindDisplay, control.WithFormat(formatFixed(3))),
		N:   control.New("Events fitted", control.KindDisplay),
	}
	p.Panel = &Panel{
		Title:    "Parameters",
		Inputs:   []*control.Param{p.P, p.C},
		Action:   p.Fit,
		Outputs:  []*control.Param{p.A, p.N},
		group:    GroupFit,
		minState: appstate.Catalog,
		ready:    func() bool { return bp.B.Value() != nil },
	}
	return p
}

// ForecastPanel computes forecast probabilities.
type ForecastPanel struct {
	*Panel
	StartDays  *control.Param
	Durations  *control.Param
	Magnitudes *control.Param
	Compute    *control.Param
	Table      *control.Param
}

func newForecastPanel(d config.ForecastDefaults) *ForecastPanel {
	p := &ForecastPanel{
		StartDays:  control.New("Start (days)", control.KindFloat, control.WithValue(d.ForecastStartDays)),
		Durations:  control.New("Durations (days)", control.KindText, control.WithValue(FormatList(d.ForecastDurations))),
		Magnitudes: control.New("Magnitudes", control.KindText, control.WithValue(FormatList(d.ForecastMags))),
		Compute:    control.New("Compute", control.KindAction),
		Table:      control.New("Forecast", control.KindDisplay, control.WithFormat(formatForecast)),
	}
	p.Panel = &Panel{
		Title:    "Forecast",
		Inputs:   []*control.Param{p.StartDays, p.Durations, p.Magnitudes},
		Action:   p.Compute,
		Outputs:  []*control.Param{p.Table},
		group:    GroupForecast,
		minState: appstate.Parameters,
		ready:    always,
	}
	return p
}

func always() bool { return true }

func formatFixed(digits int) func(any) string {
	return func(v any) string {
		f, ok := v.(float64)
		if !ok {
			return control.Format(v)
		}
		return strconv.FormatFloat(f, 'f', digits, 64)
	}
}

func formatForecast(v any) string {
	f, ok := v.(quake.Forecast)
	if !ok {
		return control.Format(v)
	}
	cols := 0
	if len(f.Rows) > 0 {
		cols = len(f.Rows[0].Cells)
	}
	return fmt.Sprintf("%d windows x %d magnitudes", len(f.Rows), cols)
}

// FormatList renders numbers the way list fields are edited.
func FormatList(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, ", ")
}

// ParseList parses a comma or space separated list of numbers.
func ParseList(text string) ([]float64, error) {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t'
	})
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", f)
		}
		out = append(out, v)
	}
	return out, nil
}
