package app

import (
	"bytes"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/aftershock/internal/appstate"
	"github.com/zjrosen/aftershock/internal/config"
	"github.com/zjrosen/aftershock/internal/controller"
	"github.com/zjrosen/aftershock/internal/flags"
	"github.com/zjrosen/aftershock/internal/metrics"
	"github.com/zjrosen/aftershock/internal/quake"
	"github.com/zjrosen/aftershock/internal/sequencer"
	"github.com/zjrosen/aftershock/internal/uithread"
)

// TestProgram_LoadMainshock drives a real Bubble Tea program: posted
// closures travel through the program's message loop.
func TestProgram_LoadMainshock(t *testing.T) {
	poster := uithread.NewTeaPoster(nil)
	seq := sequencer.New(poster)
	state := appstate.NewMachine()
	screen := NewScreen()
	t.Cleanup(func() {
		seq.Shutdown()
		seq.Wait()
		poster.Close()
		state.Close()
	})

	ctl, err := controller.New(controller.Deps{
		Sequencer: seq,
		State:     state,
		Source:    quake.SyntheticSource{Seed: 3, Count: 40},
		Fitter:    quake.RJFitter{},
		Presenter: screen,
		Defaults:  config.DefaultForecastDefaults(),
		Flags:     flags.New(nil),
	})
	require.NoError(t, err)

	cfg := config.Defaults()
	cfg.UI.MarkdownStyle = "notty"
	m := New(Options{
		Controller: ctl,
		Screen:     screen,
		State:      state,
		Recorder:   metrics.NewRecorder(4),
		Config:     cfg,
	})

	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(160, 50))
	poster.Bind(tm)

	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return bytes.Contains(b, []byte("Event ID"))
	}, teatest.WithDuration(3*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	tm.Type("us6000m0xl")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	tm.Send(tea.KeyMsg{Type: tea.KeyDown})
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return bytes.Contains(b, []byte("● mainshock"))
	}, teatest.WithDuration(5*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	final, ok := tm.FinalModel(t, teatest.WithFinalTimeout(5*time.Second)).(Model)
	require.True(t, ok)
	require.Equal(t, appstate.Mainshock, final.ctl.State())
	_, loaded := final.ctl.LoadedMainshock()
	require.True(t, loaded)
	require.Equal(t, controller.Op(""), final.ctl.Running())
}
