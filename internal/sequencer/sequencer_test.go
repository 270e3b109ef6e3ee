package sequencer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"pgregory.net/rapid"

	"github.com/zjrosen/aftershock/internal/metrics"
	"github.com/zjrosen/aftershock/internal/uithread"
)

type fataler interface {
	Fatalf(format string, args ...any)
}

// harness drives a Loop from the test goroutine, which plays the UI thread.
type harness struct {
	loop    *uithread.Loop
	seq     *Sequencer
	inDrain atomic.Bool
}

func newHarness(opts ...Option) *harness {
	loop := uithread.NewLoop()
	return &harness{loop: loop, seq: New(loop, opts...)}
}

func (h *harness) drive(t fataler, done <-chan struct{}) {
	deadline := time.After(5 * time.Second)
	for {
		h.inDrain.Store(true)
		h.loop.Drain()
		h.inDrain.Store(false)
		select {
		case <-done:
			return
		case <-deadline:
			t.Fatalf("run did not complete")
			return
		case <-time.After(time.Millisecond):
		}
	}
}

type sinkCall struct {
	kind  string
	index int
	title string
}

type recordingSink struct {
	calls []sinkCall
}

func (s *recordingSink) Begin(total int) {
	s.calls = append(s.calls, sinkCall{kind: "begin", index: total})
}

func (s *recordingSink) Step(index, total int, title, status string) {
	s.calls = append(s.calls, sinkCall{kind: "step", index: index, title: title})
}

func (s *recordingSink) End() {
	s.calls = append(s.calls, sinkCall{kind: "end"})
}

// runOnce starts steps and drives the loop until the completion fires.
func (h *harness) runOnce(t fataler, ctx context.Context, sink ProgressSink, steps ...Step) (Outcome, int) {
	var (
		out   Outcome
		calls int
	)
	done := make(chan struct{})
	h.seq.RunContext(ctx, sink, func(o Outcome) {
		if !h.inDrain.Load() {
			t.Fatalf("completion ran off the UI thread")
		}
		calls++
		out = o
		if calls == 1 {
			close(done)
		}
	}, steps...)
	h.drive(t, done)
	h.seq.Wait()
	h.loop.Drain()
	return out, calls
}

func TestSequencer_RunsStepsInOrder(t *testing.T) {
	h := newHarness()
	sink := &recordingSink{}

	var (
		mu    sync.Mutex
		order []string
	)
	record := func(name string) Action {
		return func(context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		}
	}

	out, calls := h.runOnce(t, context.Background(), sink,
		UIStep("Snapshot", "Reading parameters", record("snapshot")),
		WorkerStep("Fetch", "Fetching catalog", record("fetch")),
		UIStep("Store", "Updating panels", record("store")),
	)

	require.Equal(t, 1, calls)
	require.True(t, out.OK())
	require.Equal(t, "Snapshot", out.Name)
	require.Equal(t, 3, out.Executed)
	require.Equal(t, 3, out.Total)
	require.Equal(t, -1, out.FailedStep)
	require.NotEmpty(t, out.RunID)
	require.Equal(t, []string{"snapshot", "fetch", "store"}, order)
	require.Equal(t, []sinkCall{
		{kind: "begin", index: 3},
		{kind: "step", index: 0, title: "Snapshot"},
		{kind: "step", index: 1, title: "Fetch"},
		{kind: "step", index: 2, title: "Store"},
		{kind: "end"},
	}, sink.calls)
}

func TestSequencer_UIStepsRunOnUIThread(t *testing.T) {
	h := newHarness()
	var onUI []bool

	check := func(context.Context) error {
		onUI = append(onUI, h.inDrain.Load())
		return nil
	}
	out, _ := h.runOnce(t, context.Background(), nil,
		UIStep("a", "", check),
		WorkerStep("b", "", func(context.Context) error { return nil }),
		UIStep("c", "", check),
	)

	require.True(t, out.OK())
	require.Equal(t, []bool{true, true}, onUI)
}

func TestSequencer_StopsAtFailingStep(t *testing.T) {
	h := newHarness()
	cause := errors.New("network unreachable")
	ran := 0

	out, calls := h.runOnce(t, context.Background(), nil,
		WorkerStep("Fetch mainshock", "", func(context.Context) error { ran++; return nil }),
		WorkerStep("Fetch catalog", "", func(context.Context) error { ran++; return cause }),
		UIStep("Store", "", func(context.Context) error { ran++; return nil }),
	)

	require.Equal(t, 1, calls)
	require.Equal(t, 2, ran)
	require.False(t, out.OK())
	require.False(t, out.Canceled)
	require.Equal(t, 1, out.FailedStep)
	require.Equal(t, 2, out.Executed)
	require.ErrorIs(t, out.Err, cause)

	var stepErr *StepError
	require.ErrorAs(t, out.Err, &stepErr)
	require.Equal(t, Worker, stepErr.Thread)
	require.Equal(t, "Fetch catalog failed", out.Message())
	require.Equal(t, "step 2 (Fetch catalog, worker): network unreachable", out.Detail())
}

func TestSequencer_UserErrorMessage(t *testing.T) {
	h := newHarness()
	out, _ := h.runOnce(t, context.Background(), nil,
		WorkerStep("Fit", "", func(context.Context) error {
			return Fail("Not enough events above Mc", errors.New("n=3"))
		}),
	)

	require.Equal(t, "Not enough events above Mc", out.Message())
	require.Contains(t, out.Detail(), "n=3")
}

func TestSequencer_RecoversPanics(t *testing.T) {
	h := newHarness()
	out, calls := h.runOnce(t, context.Background(), nil,
		UIStep("Boom", "", func(context.Context) error { panic("index out of range") }),
		WorkerStep("Never", "", func(context.Context) error { return nil }),
	)

	require.Equal(t, 1, calls)
	require.Equal(t, 0, out.FailedStep)
	var panicErr *PanicError
	require.ErrorAs(t, out.Err, &panicErr)
	require.Equal(t, "index out of range", panicErr.Value)
	require.NotEmpty(t, panicErr.Stack)
}

func TestSequencer_CancelBetweenSteps(t *testing.T) {
	h := newHarness()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	second := false
	out, calls := h.runOnce(t, ctx, nil,
		WorkerStep("Forecast", "", func(context.Context) error { cancel(); return nil }),
		UIStep("Store", "", func(context.Context) error { second = true; return nil }),
	)

	require.Equal(t, 1, calls)
	require.False(t, second)
	require.True(t, out.Canceled)
	require.Equal(t, 1, out.Executed)
	require.Equal(t, -1, out.FailedStep)
	require.ErrorIs(t, out.Err, context.Canceled)
	require.Equal(t, "Forecast was canceled", out.Message())
}

func TestSequencer_CanceledInsideStep(t *testing.T) {
	h := newHarness()
	ctx, cancel := context.WithCancel(context.Background())

	out, _ := h.runOnce(t, ctx, nil,
		WorkerStep("Forecast", "", func(ctx context.Context) error {
			cancel()
			<-ctx.Done()
			return ctx.Err()
		}),
	)

	require.True(t, out.Canceled)
	require.Equal(t, 0, out.FailedStep)
}

func TestSequencer_ShutdownReleasesBlockedRun(t *testing.T) {
	h := newHarness()
	var got Outcome
	calls := 0
	h.seq.Run(nil, func(o Outcome) { calls++; got = o },
		UIStep("Store", "", func(context.Context) error { return nil }),
	)

	// Nobody drains the loop, so the UI step stays queued.
	h.seq.Shutdown()
	h.seq.Shutdown()
	h.seq.Wait()
	h.loop.Drain()

	require.Equal(t, 1, calls)
	require.ErrorIs(t, got.Err, ErrShutdown)
}

func TestSequencer_EmptyRunCompletes(t *testing.T) {
	h := newHarness()
	sink := &recordingSink{}
	out, calls := h.runOnce(t, context.Background(), sink)

	require.Equal(t, 1, calls)
	require.True(t, out.OK())
	require.Equal(t, 0, out.Executed)
	require.Equal(t, []sinkCall{{kind: "begin"}, {kind: "end"}}, sink.calls)
}

func TestSequencer_RecordsMetricsAndSpans(t *testing.T) {
	spans := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	recorder := metrics.NewRecorder(4)
	h := newHarness(WithTracer(provider.Tracer("test")), WithRecorder(recorder))

	out, _ := h.runOnce(t, context.Background(), nil,
		UIStep("Snapshot", "", func(context.Context) error { return nil }),
		WorkerStep("Fit", "", func(context.Context) error { return errors.New("singular") }),
	)
	require.False(t, out.OK())

	last, ok := recorder.Last()
	require.True(t, ok)
	require.Equal(t, out.RunID, last.RunID)
	require.False(t, last.Succeeded)
	require.Len(t, last.Steps, 2)
	require.True(t, last.Steps[1].Failed)
	require.Equal(t, "worker", last.Steps[1].Thread)

	names := map[string]int{}
	for _, s := range spans.Ended() {
		names[s.Name()]++
	}
	require.Equal(t, map[string]int{"sequencer.run": 1, "sequencer.step": 2}, names)
}

// For any list of steps where step k fails, exactly steps 0..k execute, in
// order, and the completion runs once on the UI thread.
func TestProperty_SingleCompletionAfterFailingStep(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(t, "steps")
		fail := rapid.IntRange(-1, n-1).Draw(t, "fail")
		threads := rapid.SliceOfN(rapid.SampledFrom([]Thread{UI, Worker}), n, n).Draw(t, "threads")

		h := newHarness()
		var (
			mu       sync.Mutex
			executed []int
		)
		steps := make([]Step, n)
		for i := 0; i < n; i++ {
			action := func(context.Context) error {
				mu.Lock()
				executed = append(executed, i)
				mu.Unlock()
				if i == fail {
					return fmt.Errorf("step %d", i)
				}
				return nil
			}
			if threads[i] == UI {
				steps[i] = UIStep(fmt.Sprint(i), "", action)
			} else {
				steps[i] = WorkerStep(fmt.Sprint(i), "", action)
			}
		}

		out, calls := h.runOnce(t, context.Background(), nil, steps...)

		want := n
		if fail >= 0 {
			want = fail + 1
		}
		if calls != 1 {
			t.Fatalf("completion ran %d times", calls)
		}
		if len(executed) != want {
			t.Fatalf("executed %v, want first %d steps", executed, want)
		}
		for i, got := range executed {
			if got != i {
				t.Fatalf("executed out of order: %v", executed)
			}
		}
		if out.FailedStep != fail || out.Executed != want || out.OK() != (fail < 0) {
			t.Fatalf("outcome %+v for fail=%d", out, fail)
		}
	})
}
