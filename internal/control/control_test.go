package control

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type event struct {
	old, new any
}

func recorder(p *Param) *[]event {
	var events []event
	p.Bind(func(h Handle, old, new any) {
		events = append(events, event{old, new})
	})
	return &events
}

func TestParam_SetValueNotifiesOnChange(t *testing.T) {
	p := New("Mc", KindFloat, WithValue(4.5))
	events := recorder(p)

	p.SetValue(4.5)
	require.Empty(t, *events, "equal value should not notify")

	p.SetValue(4.7)
	require.Equal(t, []event{{4.5, 4.7}}, *events)
}

func TestParam_NilOverNilStillNotifies(t *testing.T) {
	p := New("Event ID", KindText)
	events := recorder(p)

	p.SetValue(nil)

	require.Equal(t, []event{{nil, nil}}, *events, "framework reports nil->nil as a change")
}

func TestParam_NonComparableValuesAlwaysNotify(t *testing.T) {
	p := New("Table", KindDisplay, WithValue([]float64{1}))
	events := recorder(p)

	p.SetValue([]float64{1})

	require.Len(t, *events, 1)
}

func TestParam_Press(t *testing.T) {
	p := New("Fetch", KindAction)
	events := recorder(p)

	p.Press()
	p.Press()

	require.Equal(t, 2, p.Value())
	require.Equal(t, []event{{nil, 1}, {1, 2}}, *events)
}

func TestParam_Input(t *testing.T) {
	p := New("Mc", KindFloat)

	require.NoError(t, p.Input(" 3.25 "))
	require.Equal(t, 3.25, p.Value())

	err := p.Input("abc")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Mc")
	require.Equal(t, 3.25, p.Value(), "failed parse keeps value")

	require.NoError(t, p.Input(""))
	require.Nil(t, p.Value())
}

func TestParam_EnabledAndRefresh(t *testing.T) {
	p := New("b", KindDisplay, Disabled())
	require.False(t, p.Enabled())

	p.SetEnabled(true)
	require.True(t, p.Enabled())

	p.Refresh()
	p.Refresh()
	require.Equal(t, 2, p.Refreshes())
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		text    string
		want    any
		wantErr bool
	}{
		{"float", KindFloat, "0.95", 0.95, false},
		{"float invalid", KindFloat, "x", nil, true},
		{"int", KindInt, "50", 50, false},
		{"int invalid", KindInt, "5.5", nil, true},
		{"bool", KindBool, "true", true, false},
		{"text", KindText, " us6000abcd ", "us6000abcd", false},
		{"blank", KindFloat, "  ", nil, false},
		{"display", KindDisplay, "1", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.kind, tt.text)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestFormat(t *testing.T) {
	require.Equal(t, "", Format(nil))
	require.Equal(t, "0.95", Format(0.95))
	require.Equal(t, "NaN", Format(math.NaN()))
	require.Equal(t, "50", Format(50))
	require.Equal(t, "2026-01-02 03:04:05Z", Format(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)))
	require.Equal(t, "float", Format(KindFloat))
}

func TestParam_TextUsesCustomFormat(t *testing.T) {
	p := New("b", KindDisplay, WithValue(0.951), WithFormat(func(v any) string {
		return "b=" + Format(v)
	}))
	require.Equal(t, "b=0.951", p.Text())
}
