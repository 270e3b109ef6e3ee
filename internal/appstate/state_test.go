package appstate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestState_Ordering(t *testing.T) {
	require.True(t, Forecast.AtLeast(Catalog))
	require.True(t, Catalog.AtLeast(Catalog))
	require.False(t, Mainshock.AtLeast(Catalog))
	require.Equal(t, "parameters", Parameters.String())
	require.Equal(t, "State(9)", State(9).String())
}

func TestParseState(t *testing.T) {
	s, err := ParseState(" Catalog ")
	require.NoError(t, err)
	require.Equal(t, Catalog, s)

	_, err = ParseState("done")
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestMachine_SetPublishesChanges(t *testing.T) {
	m := NewMachine()
	defer m.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := m.Subscribe(ctx)

	require.Equal(t, Initial, m.Get())
	require.NoError(t, m.Set(Mainshock))
	require.NoError(t, m.Set(Mainshock))
	require.NoError(t, m.Set(Catalog))
	require.NoError(t, m.Set(Mainshock), "downward reset is allowed")

	want := []Change{{Initial, Mainshock}, {Mainshock, Catalog}, {Catalog, Mainshock}}
	for _, w := range want {
		select {
		case ev := <-ch:
			require.Equal(t, w, ev.Payload)
		case <-time.After(time.Second):
			require.Fail(t, "missing change", "%v", w)
		}
	}
	select {
	case ev := <-ch:
		require.Fail(t, "unexpected change", "%v", ev.Payload)
	default:
	}
}

func TestMachine_RejectsInvalidState(t *testing.T) {
	m := NewMachine()
	require.ErrorIs(t, m.Set(State(-1)), ErrInvalidState)
	require.ErrorIs(t, m.Set(Forecast+1), ErrInvalidState)
	require.Equal(t, Initial, m.Get())
}

func TestProperty_GetReturnsLastValidSet(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		m := NewMachine()
		defer m.Close()
		want := Initial
		for _, v := range rapid.SliceOf(rapid.IntRange(-2, 7)).Draw(t, "sets") {
			s := State(v)
			err := m.Set(s)
			if s.Valid() {
				if err != nil {
					t.Fatalf("Set(%v): %v", s, err)
				}
				want = s
			} else if err == nil {
				t.Fatalf("Set(%d) accepted", v)
			}
			if m.Get() != want {
				t.Fatalf("Get() = %v, want %v", m.Get(), want)
			}
		}
	})
}
