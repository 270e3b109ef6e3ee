package snapshot

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/aftershock/internal/control"
	"github.com/zjrosen/aftershock/internal/notify"
)

const groupFit notify.Group = 1

// bvalueSnapshot mirrors the shape panels use: inputs loaded from
// controls, outputs bound to display controls.
type bvalueSnapshot struct {
	mcCtl, precisionCtl *control.Param
	gate                *notify.Gate

	mc, precision float64
	b             *Result[float64]
	n             *Result[int]
}

func (s *bvalueSnapshot) Load() error {
	var l Loader
	s.mc = l.Float("Mc", s.mcCtl, Finite())
	s.precision = l.Float("Magnitude precision", s.precisionCtl, Finite(), Positive[float64]())
	return l.Err()
}

func (s *bvalueSnapshot) Store() { StoreAll(s.gate, s.b, s.n) }

func (s *bvalueSnapshot) Clean() { CleanAll(s.b, s.n) }

type fixture struct {
	gate     *notify.Gate
	mc, prec *control.Param
	b, n     *control.Param
	handled  int
	snap     *bvalueSnapshot
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		gate: notify.NewGate(),
		mc:   control.New("Mc", control.KindFloat, control.WithValue(4.5)),
		prec: control.New("Precision", control.KindFloat, control.WithValue(0.1)),
		b:    control.New("b", control.KindDisplay),
		n:    control.New("N", control.KindDisplay),
	}
	count := func(notify.Event) error { f.handled++; return nil }
	for name, c := range map[string]*control.Param{"mc": f.mc, "prec": f.prec, "b": f.b, "n": f.n} {
		require.NoError(t, f.gate.Register(c, name, groupFit, count))
	}
	f.snap = &bvalueSnapshot{
		mcCtl:        f.mc,
		precisionCtl: f.prec,
		gate:         f.gate,
		b:            NewResult[float64](f.b),
		n:            NewResult[int](f.n),
	}
	return f
}

func TestSnapshot_LoadModifyStore(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.snap.Load())
	require.Equal(t, 4.5, f.snap.mc)
	require.Equal(t, 0.1, f.snap.precision)

	f.snap.b.Modify(0.95)
	f.snap.n.Modify(50)
	f.snap.Store()

	require.Equal(t, 0.95, f.b.Value())
	require.Equal(t, 50, f.n.Value())
	require.False(t, f.snap.b.Dirty())
	require.Zero(t, f.handled, "stores never notify")
}

func TestSnapshot_StoreIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.snap.b.Modify(0.95)
	f.snap.Store()
	refreshes := f.b.Refreshes()

	f.snap.Store()
	f.snap.Store()

	require.Equal(t, refreshes, f.b.Refreshes(), "second store writes nothing")
	require.Equal(t, 0.95, f.b.Value())
	require.Zero(t, f.handled)
}

func TestSnapshot_OnlyDirtyFieldsWritten(t *testing.T) {
	f := newFixture(t)
	f.snap.n.Modify(12)

	require.Equal(t, 1, StoreAll(f.gate, f.snap.b, f.snap.n))
	require.Zero(t, f.b.Refreshes())
	require.Nil(t, f.b.Value())
}

func TestSnapshot_CleanDiscardsModifications(t *testing.T) {
	f := newFixture(t)
	f.snap.b.Modify(1.1)
	f.snap.Clean()
	f.snap.Store()

	require.Nil(t, f.b.Value())
	v, ok := f.snap.b.Value()
	require.True(t, ok)
	require.Equal(t, 1.1, v)
}

func TestResult_UnsetClearsControl(t *testing.T) {
	f := newFixture(t)
	f.gate.UpdateValue(f.b, 0.8)

	r := NewResult[float64](f.b)
	_, ok := r.Value()
	require.False(t, ok)

	r.Unset()
	require.True(t, r.StoreTo(f.gate))
	require.Nil(t, f.b.Value())

	r.Unset()
	require.False(t, r.StoreTo(f.gate), "nil over nil is not a change")
	require.Zero(t, f.handled)
}

func TestLoader_FirstFailureIsSticky(t *testing.T) {
	f := newFixture(t)
	f.gate.UpdateValue(f.mc, math.Inf(1))
	f.gate.UpdateValue(f.prec, -0.1)

	err := f.snap.Load()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "Mc", verr.Field)
	require.Equal(t, "Mc must be a finite number", err.Error())
}

func TestLoader_Checks(t *testing.T) {
	tests := []struct {
		name   string
		value  any
		read   func(l *Loader, h control.Handle)
		reason string
	}{
		{"required", nil, func(l *Loader, h control.Handle) { l.Float("x", h) }, "is required"},
		{"positive", 0.0, func(l *Loader, h control.Handle) { l.Float("x", h, Positive[float64]()) }, "must be positive"},
		{"non-negative", -1, func(l *Loader, h control.Handle) { l.Int("x", h, NonNegative[int]()) }, "must not be negative"},
		{"range", 12, func(l *Loader, h control.Handle) { l.Int("x", h, Range(1, 10)) }, "must be between 1 and 10"},
		{"non-empty", "", func(l *Loader, h control.Handle) { l.Text("x", h, NonEmpty()) }, "must not be empty"},
		{"type", "abc", func(l *Loader, h control.Handle) { l.Float("x", h) }, "has unexpected type string"},
		{"bool type", 1, func(l *Loader, h control.Handle) { l.Bool("x", h) }, "has unexpected type int"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var l Loader
			tt.read(&l, control.New("x", control.KindDisplay, control.WithValue(tt.value)))
			var verr *ValidationError
			require.ErrorAs(t, l.Err(), &verr)
			require.Equal(t, tt.reason, verr.Reason)
		})
	}
}

func TestLoader_WideningAndBool(t *testing.T) {
	var l Loader
	count := control.New("count", control.KindInt, control.WithValue(3))
	flag := control.New("flag", control.KindBool)

	require.Equal(t, 3.0, l.Float("count", count, Positive[float64]()))
	require.False(t, l.Bool("flag", flag))
	require.NoError(t, l.Err())
}
