package sequencer

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrShutdown is the outcome error for a run abandoned because the
// sequencer shut down while it waited on the UI thread.
var ErrShutdown = errors.New("sequencer shut down")

// Outcome is what the completion callback receives. It carries the result
// fields the UI inspects; the raw failure is captured in Err rather than
// thrown across the thread boundary.
type Outcome struct {
	RunID string
	Name  string
	// Executed counts steps that started, the failing one included.
	Executed int
	Total    int
	// FailedStep is the index of the failing step, or -1.
	FailedStep int
	Err        error
	Canceled   bool
	Elapsed    time.Duration
}

// OK reports whether every step ran without error.
func (o Outcome) OK() bool {
	return o.Err == nil && !o.Canceled
}

// Message is the short user-facing description of a failure.
func (o Outcome) Message() string {
	if o.OK() {
		return ""
	}
	if o.Canceled {
		return fmt.Sprintf("%s was canceled", o.Name)
	}
	var userErr *UserError
	if errors.As(o.Err, &userErr) {
		return userErr.Message
	}
	var stepErr *StepError
	if errors.As(o.Err, &stepErr) {
		return fmt.Sprintf("%s failed", stepErr.Title)
	}
	return o.Err.Error()
}

// Detail is the full failure text for the detail pane and the log.
func (o Outcome) Detail() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// StepError wraps the error returned by a failing step.
type StepError struct {
	Index  int
	Title  string
	Thread Thread
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s, %s): %v", e.Index+1, e.Title, e.Thread, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// UserError lets a step attach the message the user should see.
type UserError struct {
	Message string
	Err     error
}

// Fail wraps err with a user-facing message.
func Fail(message string, err error) error {
	return &UserError{Message: message, Err: err}
}

func (e *UserError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *UserError) Unwrap() error { return e.Err }

// PanicError is a panic recovered from a step action.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
