package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/aftershock/internal/appstate"
	"github.com/zjrosen/aftershock/internal/control"
	"github.com/zjrosen/aftershock/internal/controller"
	"github.com/zjrosen/aftershock/internal/log"
	"github.com/zjrosen/aftershock/internal/pubsub"
	"github.com/zjrosen/aftershock/internal/sequencer"
	"github.com/zjrosen/aftershock/internal/ui/markdown"
	"github.com/zjrosen/aftershock/internal/uithread"
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Run the whole forecast pipeline without the terminal ui",
	Long: `Loads the mainshock and its catalog, computes the b-value, fits the
Reasenberg-Jones parameters and prints the forecast table.

Parameters not given on the command line use the config defaults.`,
	Example: `  aftershock forecast --event us7000abcd
  aftershock forecast --event ci38457511 --catalog ridgecrest.yaml --mc 2.5 --mags 4,5,6`,
	RunE: runForecast,
}

// parameter flags, keyed by flag name, in pipeline order.
var forecastParams = []struct {
	flag  string
	usage string
	param func(*controller.Controller) *control.Param
}{
	{"event", "mainshock event ID (required)", func(c *controller.Controller) *control.Param { return c.Mainshock.EventID }},
	{"start", "catalog start, days after the mainshock", func(c *controller.Controller) *control.Param { return c.Catalog.StartDays }},
	{"end", "catalog end, days after the mainshock", func(c *controller.Controller) *control.Param { return c.Catalog.EndDays }},
	{"radius", "catalog radius in km", func(c *controller.Controller) *control.Param { return c.Catalog.RadiusKm }},
	{"min-mag", "catalog minimum magnitude", func(c *controller.Controller) *control.Param { return c.Catalog.MinMag }},
	{"mc", "magnitude of completeness", func(c *controller.Controller) *control.Param { return c.BValue.Mc }},
	{"precision", "magnitude precision", func(c *controller.Controller) *control.Param { return c.BValue.Precision }},
	{"p", "Omori p starting value", func(c *controller.Controller) *control.Param { return c.Fit.P }},
	{"c", "Omori c starting value in days", func(c *controller.Controller) *control.Param { return c.Fit.C }},
	{"forecast-start", "forecast start, days after the mainshock", func(c *controller.Controller) *control.Param { return c.Forecast.StartDays }},
	{"durations", "forecast durations in days, comma separated", func(c *controller.Controller) *control.Param { return c.Forecast.Durations }},
	{"mags", "forecast magnitudes, comma separated", func(c *controller.Controller) *control.Param { return c.Forecast.Magnitudes }},
}

func init() {
	for _, p := range forecastParams {
		forecastCmd.Flags().String(p.flag, "", p.usage)
	}
	_ = forecastCmd.MarkFlagRequired("event")
	forecastCmd.Flags().String("style", "", "table style: auto, dark, light or notty (default: ui.markdown_style)")
	forecastCmd.Flags().Int("width", 100, "wrap width of the printed table")
	forecastCmd.Flags().Bool("raw", false, "print the table as plain markdown")
	forecastCmd.Flags().String("until", appstate.Forecast.String(), "stop once the application reaches this state: mainshock, catalog, parameters or forecast")
	forecastCmd.Flags().Bool("verbose", false, "write info logs to stderr")
	rootCmd.AddCommand(forecastCmd)
}

// consolePresenter reports progress on a writer. It runs on the loop
// goroutine like every other presenter.
type consolePresenter struct {
	out    io.Writer
	failed error
}

func (p *consolePresenter) Begin(int) {}

func (p *consolePresenter) Step(index, total int, title, status string) {
	line := fmt.Sprintf("[%d/%d] %s", index+1, total, title)
	if status != "" {
		line += ": " + status
	}
	_, _ = fmt.Fprintln(p.out, line)
}

func (p *consolePresenter) End() {}

func (p *consolePresenter) ShowError(title, message string) {
	if p.failed == nil {
		p.failed = fmt.Errorf("%s: %s", strings.ToLower(title), message)
	}
}

func (p *consolePresenter) ShowNotice(message string) {
	_, _ = fmt.Fprintln(p.out, message)
}

// stage is one pipeline operation and the panel it belongs to.
type stage struct {
	panel  *controller.Panel
	action *control.Param
}

func runForecast(cmd *cobra.Command, _ []string) error {
	defer closeLog()

	untilName, _ := cmd.Flags().GetString("until")
	until, err := appstate.ParseState(untilName)
	if err != nil {
		return fmt.Errorf("--until: %w", err)
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose && !cfg.Debug {
		log.InitWriter(cmd.ErrOrStderr(), log.LevelInfo)
	}

	loop := uithread.NewLoop()
	svc, err := newServices(loop)
	if err != nil {
		return err
	}
	defer svc.close()

	pres := &consolePresenter{out: cmd.ErrOrStderr()}
	ctl, err := svc.controller(pres)
	if err != nil {
		return fmt.Errorf("building panels: %w", err)
	}

	overrides := map[*control.Param]string{}
	for _, p := range forecastParams {
		if cmd.Flags().Changed(p.flag) {
			v, _ := cmd.Flags().GetString(p.flag)
			overrides[p.param(ctl)] = v
		}
	}

	stages := []stage{
		{ctl.Mainshock.Panel, ctl.Mainshock.Load},
		{ctl.Catalog.Panel, ctl.Catalog.Load},
		{ctl.BValue.Panel, ctl.BValue.Compute},
		{ctl.Fit.Panel, ctl.Fit.Fit},
		{ctl.Forecast.Panel, ctl.Forecast.Compute},
	}

	completed := make(chan sequencer.Outcome, 1)
	ctl.OnComplete(func(op controller.Op, out sequencer.Outcome) {
		log.Debug(log.CatSeq, "Forecast stage done", "op", string(op), "ok", out.OK())
		completed <- out
	})

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	stopped := make(chan error, 1)
	go func() { stopped <- loop.Run(ctx) }()
	pubsub.Forward(ctx, svc.state.Broker(), loop, func(e pubsub.Event[appstate.Change]) {
		_, _ = fmt.Fprintf(pres.out, "state: %s\n", e.Payload.To)
	})

	// start runs on the loop goroutine; it applies the overrides for one
	// stage and presses its action.
	start := func(s stage) error {
		for _, in := range s.panel.Inputs {
			if text, ok := overrides[in]; ok {
				if err := in.Input(text); err != nil {
					return err
				}
			}
		}
		if !s.action.Enabled() {
			return fmt.Errorf("%s: %s is not available", strings.ToLower(s.panel.Title), s.action.Label())
		}
		s.action.Press()
		if ctl.Running() == "" {
			// Rejected before a run started; the presenter holds the reason.
			if pres.failed != nil {
				return pres.failed
			}
			return fmt.Errorf("%s: %s did not start", strings.ToLower(s.panel.Title), s.action.Label())
		}
		return nil
	}

	ran, err := runStages(ctx, loop, stages, start, completed, func() bool { return ctl.State().AtLeast(until) })
	cancel()
	if runErr := <-stopped; err == nil && runErr != nil && !errors.Is(runErr, context.Canceled) {
		err = runErr
	}
	if err == nil && pres.failed != nil {
		err = pres.failed
	}
	if err != nil {
		return err
	}

	f, ok := ctl.ComputedForecast()
	if !ok {
		return printOutputs(cmd.OutOrStdout(), stages[:ran])
	}
	ms, _ := ctl.LoadedMainshock()
	table := f.Markdown(fmt.Sprintf("Forecast for M%.1f %s", ms.Mag, ms.Place))

	if raw, _ := cmd.Flags().GetBool("raw"); raw {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), table)
		return err
	}
	style, _ := cmd.Flags().GetString("style")
	if style == "" {
		style = cfg.UI.MarkdownStyle
	}
	width, _ := cmd.Flags().GetInt("width")
	r, err := markdown.New(width, style)
	if err != nil {
		return err
	}
	rendered, err := r.Render(table)
	if err != nil {
		return fmt.Errorf("rendering forecast: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}

// runStages starts each stage on the loop and waits for its run to
// complete. It stops after the first failure or once reached reports true,
// and returns how many stages ran.
func runStages(ctx context.Context, loop *uithread.Loop, stages []stage, start func(stage) error,
	completed <-chan sequencer.Outcome, reached func() bool) (int, error) {
	for i, s := range stages {
		var startErr error
		if err := loop.Invoke(ctx, func() { startErr = start(s) }); err != nil {
			return i, err
		}
		if startErr != nil {
			return i, startErr
		}
		select {
		case out := <-completed:
			if !out.OK() {
				return i + 1, nil
			}
		case <-ctx.Done():
			return i, ctx.Err()
		}

		var done bool
		if err := loop.Invoke(ctx, func() { done = reached() }); err != nil {
			return i + 1, err
		}
		if done {
			return i + 1, nil
		}
	}
	return len(stages), nil
}

// printOutputs lists the results of the stages that ran, one per line.
func printOutputs(w io.Writer, stages []stage) error {
	for _, s := range stages {
		for _, out := range s.panel.Outputs {
			if _, err := fmt.Fprintf(w, "%s %s: %s\n", s.panel.Title, out.Label(), out.Text()); err != nil {
				return err
			}
		}
	}
	return nil
}
