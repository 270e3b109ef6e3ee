// Package sequencer runs long operations as an ordered list of steps that
// alternate between the UI thread and a worker goroutine.
//
// Run is called on the UI thread and returns at once. A worker goroutine
// then walks the steps in order: Worker steps run on it directly, UI steps
// are posted to the UI thread and waited for. The first failing step ends
// the run. Whatever happens, the completion callback runs exactly once, on
// the UI thread, after the last step that executed.
package sequencer

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/aftershock/internal/log"
	"github.com/zjrosen/aftershock/internal/metrics"
	"github.com/zjrosen/aftershock/internal/tracing"
	"github.com/zjrosen/aftershock/internal/uithread"
)

// Completion receives the outcome of a run on the UI thread.
type Completion func(Outcome)

// Sequencer starts step runs. One Sequencer serves any number of runs;
// runs are independent and not ordered relative to each other.
type Sequencer struct {
	ui       uithread.Poster
	tracer   trace.Tracer
	recorder *metrics.Recorder

	wg        sync.WaitGroup
	done      chan struct{}
	closeOnce sync.Once
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithTracer records a span per run and per step.
func WithTracer(t trace.Tracer) Option {
	return func(s *Sequencer) { s.tracer = t }
}

// WithRecorder records run timings.
func WithRecorder(r *metrics.Recorder) Option {
	return func(s *Sequencer) { s.recorder = r }
}

// New creates a sequencer that schedules UI work through ui.
func New(ui uithread.Poster, opts ...Option) *Sequencer {
	s := &Sequencer{
		ui:     ui,
		tracer: noop.NewTracerProvider().Tracer(tracing.ServiceName),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run starts steps without cancellation. See RunContext.
func (s *Sequencer) Run(sink ProgressSink, completion Completion, steps ...Step) string {
	return s.RunContext(context.Background(), sink, completion, steps...)
}

// RunContext starts steps and returns the run ID. Must be called on the UI
// thread. ctx is passed to every action and checked between steps; a
// cancelled run completes with Outcome.Canceled set.
func (s *Sequencer) RunContext(ctx context.Context, sink ProgressSink, completion Completion, steps ...Step) string {
	if sink == nil {
		sink = NopSink{}
	}
	r := &run{
		id:         uuid.NewString(),
		steps:      steps,
		sink:       sink,
		completion: completion,
	}
	if len(steps) > 0 {
		r.name = steps[0].title
	}

	sink.Begin(len(steps))
	log.Debug(log.CatSeq, "Run started", "run", r.id, "name", r.name, "steps", len(steps))

	s.wg.Add(1)
	go s.execute(ctx, r)
	return r.id
}

// Wait blocks until every started run has finished its worker goroutine.
// The completion callbacks may still be queued on the UI thread.
func (s *Sequencer) Wait() {
	s.wg.Wait()
}

// Shutdown releases runs blocked on a UI step that will never be executed
// because the UI thread has stopped.
func (s *Sequencer) Shutdown() {
	s.closeOnce.Do(func() { close(s.done) })
}

type run struct {
	id         string
	name       string
	steps      []Step
	sink       ProgressSink
	completion Completion
}

func (s *Sequencer) execute(ctx context.Context, r *run) {
	defer s.wg.Done()

	start := time.Now()
	ctx, span := s.tracer.Start(ctx, tracing.SpanRun, trace.WithAttributes(
		attribute.String(tracing.AttrRunID, r.id),
		attribute.String(tracing.AttrRunName, r.name),
		attribute.Int(tracing.AttrRunSteps, len(r.steps)),
	))

	out := Outcome{RunID: r.id, Name: r.name, Total: len(r.steps), FailedStep: -1}
	timings := make([]metrics.StepTiming, 0, len(r.steps))

	for i, step := range r.steps {
		if err := ctx.Err(); err != nil {
			out.Canceled = true
			out.Err = err
			break
		}

		s.ui.Post(func() { r.sink.Step(i, len(r.steps), step.title, step.status) })

		stepStart := time.Now()
		err := s.runStep(ctx, i, step)
		out.Executed++
		timings = append(timings, metrics.StepTiming{
			Title:    step.title,
			Thread:   step.thread.String(),
			Duration: time.Since(stepStart),
			Failed:   err != nil,
		})

		if err != nil {
			out.FailedStep = i
			out.Err = &StepError{Index: i, Title: step.title, Thread: step.thread, Err: err}
			out.Canceled = isCancellation(err) && ctx.Err() != nil
			break
		}
	}
	out.Elapsed = time.Since(start)

	if out.OK() {
		span.SetStatus(codes.Ok, "")
		log.Debug(log.CatSeq, "Run succeeded", "run", r.id, "name", r.name, "elapsed", out.Elapsed)
	} else {
		span.RecordError(out.Err)
		span.SetStatus(codes.Error, out.Message())
		log.Warn(log.CatSeq, "Run failed", "run", r.id, "name", r.name,
			"failedStep", out.FailedStep, "canceled", out.Canceled, "detail", out.Detail())
	}
	span.SetAttributes(attribute.Int(tracing.AttrRunExecuted, out.Executed))
	span.End()

	s.recorder.Record(metrics.RunMetrics{
		RunID:      r.id,
		Name:       r.name,
		Steps:      timings,
		Elapsed:    out.Elapsed,
		Succeeded:  out.OK(),
		Canceled:   out.Canceled,
		FinishedAt: time.Now(),
	})

	s.ui.Post(func() {
		r.sink.End()
		if r.completion != nil {
			r.completion(out)
		}
	})
}

func (s *Sequencer) runStep(ctx context.Context, index int, step Step) error {
	ctx, span := s.tracer.Start(ctx, tracing.SpanStep, trace.WithAttributes(
		attribute.Int(tracing.AttrStepIndex, index),
		attribute.String(tracing.AttrStepTitle, step.title),
		attribute.String(tracing.AttrStepThread, step.thread.String()),
	))
	defer span.End()

	var err error
	if step.thread == UI {
		err = s.onUI(ctx, step)
	} else {
		err = call(ctx, step)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// onUI runs step on the UI thread and waits for it.
func (s *Sequencer) onUI(ctx context.Context, step Step) error {
	result := make(chan error, 1)
	s.ui.Post(func() { result <- call(ctx, step) })
	select {
	case err := <-result:
		return err
	case <-s.done:
		return ErrShutdown
	}
}

// call runs the action, converting a panic into a *PanicError.
func call(ctx context.Context, step Step) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	if step.action == nil {
		return nil
	}
	return step.action(ctx)
}
