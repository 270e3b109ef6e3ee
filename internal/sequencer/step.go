package sequencer

import "context"

// Thread says where a step runs.
type Thread int

const (
	// UI steps run on the UI thread; the run waits for them to finish.
	UI Thread = iota
	// Worker steps run on the run's worker goroutine.
	Worker
)

func (t Thread) String() string {
	switch t {
	case UI:
		return "ui"
	case Worker:
		return "worker"
	default:
		return "unknown"
	}
}

// Action is the work a step performs. Worker actions must not touch UI
// state; UI actions must be fast.
type Action func(ctx context.Context) error

// Step is one unit of work in a run. Steps are immutable once built.
type Step struct {
	thread Thread
	title  string
	status string
	action Action
}

// UIStep builds a step that runs on the UI thread.
func UIStep(title, status string, action Action) Step {
	return Step{thread: UI, title: title, status: status, action: action}
}

// WorkerStep builds a step that runs off the UI thread.
func WorkerStep(title, status string, action Action) Step {
	return Step{thread: Worker, title: title, status: status, action: action}
}

// Thread returns where the step runs.
func (s Step) Thread() Thread { return s.thread }

// Title returns the step title shown by progress sinks.
func (s Step) Title() string { return s.title }

// Status returns the status line shown while the step runs.
func (s Step) Status() string { return s.status }
