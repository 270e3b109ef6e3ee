// Package app contains the root application model.
package app

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/aftershock/internal/appstate"
	"github.com/zjrosen/aftershock/internal/config"
	"github.com/zjrosen/aftershock/internal/control"
	"github.com/zjrosen/aftershock/internal/controller"
	"github.com/zjrosen/aftershock/internal/keys"
	"github.com/zjrosen/aftershock/internal/log"
	"github.com/zjrosen/aftershock/internal/metrics"
	"github.com/zjrosen/aftershock/internal/pubsub"
	"github.com/zjrosen/aftershock/internal/sequencer"
	"github.com/zjrosen/aftershock/internal/ui/logoverlay"
	"github.com/zjrosen/aftershock/internal/ui/markdown"
	"github.com/zjrosen/aftershock/internal/ui/modal"
	"github.com/zjrosen/aftershock/internal/ui/styles"
	"github.com/zjrosen/aftershock/internal/ui/toaster"
	"github.com/zjrosen/aftershock/internal/uithread"
	"github.com/zjrosen/aftershock/internal/watcher"
)

// Options are the collaborators the root model needs. Controller must have
// been built with Screen as its presenter.
type Options struct {
	Controller *controller.Controller
	Screen     *Screen
	State      *appstate.Machine
	Recorder   *metrics.Recorder
	Config     config.Config
	ConfigPath string

	// Optional.
	Watcher *watcher.Watcher
	Debug   bool
}

// field is one focusable control.
type field struct {
	panel  int
	param  *control.Param
	action bool
}

// Model is the root application state.
type Model struct {
	ctl        *controller.Controller
	screen     *Screen
	recorder   *metrics.Recorder
	cfg        config.Config
	configPath string

	keys     keys.KeyMap
	editKeys keys.EditKeyMap
	help     help.Model

	fields  []field
	focus   int
	editing bool
	input   textinput.Model

	spinner  spinner.Model
	spinning bool
	toaster  toaster.Model
	dialog   *modal.Model

	report   string
	renderer *markdown.Renderer

	debugMode   bool
	logOverlay  logoverlay.Model
	logListener *log.LogListener

	ctx             context.Context
	cancel          context.CancelFunc
	stateListener   *pubsub.ContinuousListener[appstate.Change]
	watcherListener *pubsub.ContinuousListener[watcher.Change]

	width  int
	height int
}

// New creates the root model.
func New(o Options) Model {
	ctx, cancel := context.WithCancel(context.Background())

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.SpinnerColor)

	in := textinput.New()
	in.Prompt = ""
	in.CharLimit = 64

	m := Model{
		ctl:        o.Controller,
		screen:     o.Screen,
		recorder:   o.Recorder,
		cfg:        o.Config,
		configPath: o.ConfigPath,
		keys:       keys.DefaultKeyMap(),
		editKeys:   keys.DefaultEditKeyMap(),
		help:       help.New(),
		input:      in,
		spinner:    sp,
		toaster:    toaster.New(),
		debugMode:  o.Debug,
		logOverlay: logoverlay.New(),
		ctx:        ctx,
		cancel:     cancel,
	}

	for i, p := range o.Controller.Panels() {
		for _, param := range p.Inputs {
			m.fields = append(m.fields, field{panel: i, param: param})
		}
		m.fields = append(m.fields, field{panel: i, param: p.Action, action: true})
	}

	if o.State != nil {
		m.stateListener = pubsub.NewContinuousListener(ctx, o.State.Broker())
	}
	if o.Watcher != nil {
		m.watcherListener = pubsub.NewContinuousListener(ctx, o.Watcher.Broker())
	}
	if o.Debug {
		m.logListener = log.NewListener(ctx)
	}
	return m
}

// Init starts the event listeners.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("aftershock"),
		listen(m.stateListener),
		listen(m.watcherListener),
		listen(m.logListener),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case uithread.RunMsg:
		msg.Exec()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.logOverlay.SetSize(msg.Width, msg.Height)
		if m.dialog != nil {
			m.dialog.SetSize(msg.Width, msg.Height)
		}
		m.renderer = nil
		m.screen.reportStale = true

	case spinner.TickMsg:
		if !m.screen.Busy() {
			m.spinning = false
			return m, nil
		}
		m.spinner, cmd = m.spinner.Update(msg)

	case toaster.DismissMsg:
		m.toaster = m.toaster.Hide(msg)
		return m, nil

	case modal.DismissMsg:
		m.dialog = nil

	case logoverlay.CloseMsg:
		m.logOverlay.Hide()
		return m, nil

	case log.LogEvent:
		m.logOverlay.Append(msg.Payload)
		return m, listen(m.logListener)

	case pubsub.Event[appstate.Change]:
		log.Debug(log.CatState, "State changed", "from", msg.Payload.From.String(), "to", msg.Payload.To.String())
		return m, listen(m.stateListener)

	case pubsub.Event[watcher.Change]:
		m.ctl.CatalogChanged(m.ctx)
		cmd = listen(m.watcherListener)

	case tea.KeyMsg:
		cmd = m.handleKey(msg)

	case tea.MouseMsg:
		cmd = m.handleMouse(msg)
	}

	return m, tea.Batch(cmd, m.sync())
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.debugMode && key.Matches(msg, m.keys.ToggleLogs) {
		m.logOverlay.Toggle()
		return nil
	}
	if m.logOverlay.Visible() {
		var cmd tea.Cmd
		m.logOverlay, cmd = m.logOverlay.Update(msg)
		return cmd
	}
	if m.dialog != nil {
		var cmd tea.Cmd
		*m.dialog, cmd = m.dialog.Update(msg)
		return cmd
	}
	if m.editing {
		return m.handleEditKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Up):
		m.moveFocus(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveFocus(1)
	case key.Matches(msg, m.keys.NextPanel):
		m.jumpPanel(1)
	case key.Matches(msg, m.keys.PrevPanel):
		m.jumpPanel(-1)
	case key.Matches(msg, m.keys.Activate):
		return m.activate()
	case key.Matches(msg, m.keys.Clear):
		f := m.focused()
		if !f.action && f.param.Enabled() {
			_ = f.param.Input("")
		}
	case key.Matches(msg, m.keys.Cancel):
		return m.cancelRun()
	case key.Matches(msg, m.keys.SaveDefaults):
		m.ctl.SaveDefaults(m.configPath)
	}
	return nil
}

func (m *Model) handleEditKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.editKeys.Discard):
		m.stopEditing()
		return nil
	case key.Matches(msg, m.editKeys.Commit):
		f := m.focused()
		text := m.input.Value()
		m.stopEditing()
		if err := f.param.Input(text); err != nil {
			return m.notify(err.Error(), toaster.StyleError)
		}
		if msg.String() == "tab" {
			m.moveFocus(1)
		}
		return nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

// activate presses the focused action or starts editing the focused input.
func (m *Model) activate() tea.Cmd {
	f := m.focused()
	if !f.param.Enabled() {
		return m.notify(f.param.Label()+" is not available yet", toaster.StyleWarn)
	}
	if f.action {
		f.param.Press()
		return nil
	}
	m.editing = true
	m.input.SetValue(f.param.Text())
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *Model) stopEditing() {
	m.editing = false
	m.input.Blur()
	m.input.Reset()
}

func (m *Model) cancelRun() tea.Cmd {
	if m.ctl.Running() == "" {
		return nil
	}
	if !m.ctl.Cancel() {
		return m.notify("Canceling runs is turned off", toaster.StyleInfo)
	}
	return m.notify(fmt.Sprintf("Canceling %s", m.ctl.Running()), toaster.StyleInfo)
}

func (m *Model) focused() field {
	return m.fields[m.focus]
}

func (m *Model) moveFocus(delta int) {
	n := len(m.fields)
	m.focus = ((m.focus+delta)%n + n) % n
}

// jumpPanel moves focus to the first field of the next or previous panel.
func (m *Model) jumpPanel(delta int) {
	panels := len(m.ctl.Panels())
	target := ((m.focused().panel+delta)%panels + panels) % panels
	for i, f := range m.fields {
		if f.panel == target {
			m.focus = i
			return
		}
	}
}

func (m *Model) notify(message string, style toaster.Style) tea.Cmd {
	m.toaster = m.toaster.Show(message, style)
	return toaster.ScheduleDismiss(m.toaster.Seq(), toaster.DefaultDuration)
}

// sync picks up whatever the controller queued on the screen while the
// last message was handled.
func (m *Model) sync() tea.Cmd {
	var cmds []tea.Cmd

	if m.dialog == nil {
		if cfg, ok := m.screen.takeDialog(); ok {
			d := modal.New(cfg)
			d.SetSize(m.width, m.height)
			m.dialog = &d
			if m.editing {
				m.stopEditing()
			}
		}
	}

	if notices := m.screen.takeNotices(); len(notices) > 0 {
		cmds = append(cmds, m.notify(notices[len(notices)-1], toaster.StyleSuccess))
	}

	if m.screen.Busy() && !m.spinning {
		m.spinning = true
		cmds = append(cmds, m.spinner.Tick)
	}

	if m.screen.reportStale {
		m.screen.reportStale = false
		m.renderReport()
	}
	return tea.Batch(cmds...)
}

// renderReport renders the current forecast, or clears it after a reset.
func (m *Model) renderReport() {
	f, ok := m.ctl.ComputedForecast()
	if !ok {
		m.report = ""
		return
	}
	if m.renderer == nil {
		width := max(m.width-2, 40)
		r, err := markdown.New(width, m.cfg.UI.MarkdownStyle)
		if err != nil {
			log.ErrorErr(log.CatUI, "Creating markdown renderer failed", err)
			m.report = f.Markdown("")
			return
		}
		m.renderer = r
	}

	title := "Forecast"
	if ms, ok := m.ctl.LoadedMainshock(); ok {
		title = fmt.Sprintf("Forecast for M%.1f %s", ms.Mag, ms.Place)
	}
	out, err := m.renderer.Render(f.Markdown(title))
	if err != nil {
		log.ErrorErr(log.CatUI, "Rendering forecast failed", err)
		out = f.Markdown(title)
	}
	m.report = out
}

func listen[T any](l *pubsub.ContinuousListener[T]) tea.Cmd {
	if l == nil {
		return nil
	}
	return l.Listen()
}

// Close stops the listeners. The watcher itself belongs to the caller.
func (m *Model) Close() {
	m.cancel()
}

// Observe returns an OnComplete hook that logs operation results.
func Observe(op controller.Op, out sequencer.Outcome) {
	if out.OK() {
		log.Info(log.CatUI, "Operation finished", "op", string(op), "elapsed", out.Elapsed)
		return
	}
	log.Info(log.CatUI, "Operation did not finish", "op", string(op), "message", out.Message())
}
