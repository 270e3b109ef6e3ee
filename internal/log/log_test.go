package log

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLog_FormatAndLevels(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, LevelInfo)
	t.Cleanup(func() { defaultLogger = nil })

	Debug(CatSeq, "hidden")
	Info(CatSeq, "Run started", "run", "r1", "steps", 3)
	ErrorErr(CatDB, "Save failed", errors.New("disk full"))
	Warn(CatGate, "odd fields", "orphan")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[0], "[INFO] [seq] Run started run=r1 steps=3")
	require.Contains(t, lines[1], "[ERROR] [db] Save failed error=disk full")
	require.Contains(t, lines[2], "[WARN] [gate] odd fields orphan=<missing>")
}

func TestLog_Disabled(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, LevelDebug)
	t.Cleanup(func() { defaultLogger = nil })

	SetEnabled(false)
	Error(CatUI, "dropped")
	require.Empty(t, buf.String())

	SetEnabled(true)
	SetMinLevel(LevelError)
	Warn(CatUI, "below minimum")
	require.Empty(t, buf.String())
}

func TestLog_ListenerReceivesEntries(t *testing.T) {
	InitWriter(nil, LevelDebug)
	t.Cleanup(func() { defaultLogger = nil })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l := NewListener(ctx)
	require.NotNil(t, l)

	Info(CatState, "State changed", "to", "catalog")

	ev, ok := l.Listen()().(LogEvent)
	require.True(t, ok)
	require.Contains(t, ev.Payload, "[INFO] [state] State changed to=catalog")
}

func TestLog_NoLogger(t *testing.T) {
	defaultLogger = nil
	require.Nil(t, NewListener(context.Background()))
	require.NotPanics(t, func() { Info(CatUI, "nothing to write to") })
}
