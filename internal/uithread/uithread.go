// Package uithread confines UI state to a single goroutine.
//
// Every control, the application state and the progress display are owned
// by one goroutine: the UI thread. Other goroutines never touch that state
// directly; they hand a closure to a Poster which runs it on the UI thread.
// In the TUI the UI thread is the Bubble Tea update loop (see TeaPoster);
// in the headless CLI and in tests it is a Loop.
package uithread

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Loop.Run when the loop was closed before or
// while running, and by Invoke when the closure could not be delivered.
var ErrClosed = errors.New("ui loop closed")

// Poster schedules a closure onto the UI thread. Post never blocks and
// never runs fn on the caller's goroutine.
type Poster interface {
	Post(fn func())
}

// PosterFunc adapts a plain function to the Poster interface.
type PosterFunc func(fn func())

// Post calls f(fn).
func (f PosterFunc) Post(fn func()) { f(fn) }

// Loop is a serial executor: closures posted to it run one at a time, in
// post order, on the goroutine that called Run. The queue is unbounded so
// that Post never blocks a worker.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	done   chan struct{}
	closed bool
}

// NewLoop creates a loop. Call Run on the goroutine that should own UI state.
func NewLoop() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Post enqueues fn. Closures posted after Close are dropped.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Invoke posts fn and waits for it to finish. It must not be called from
// the loop goroutine itself, which would deadlock.
func (l *Loop) Invoke(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	l.Post(func() {
		defer close(finished)
		fn()
	})
	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drains the queue until ctx is cancelled or Close is called.
// Pending closures are dropped on exit.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	l.mu.Unlock()

	defer l.Close()

	for {
		for {
			fn, ok := l.next()
			if !ok {
				break
			}
			fn()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case <-l.wake:
		}
	}
}

// Drain runs every closure queued so far, plus any they post, on the
// calling goroutine. It is meant for tests that drive the loop by hand
// instead of calling Run.
func (l *Loop) Drain() int {
	n := 0
	for {
		fn, ok := l.next()
		if !ok {
			return n
		}
		fn()
		n++
	}
}

// Pending reports how many closures are queued.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Close stops the loop. Safe to call more than once.
func (l *Loop) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	l.queue = nil
	close(l.done)
}

// Done is closed when the loop is closed.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil, false
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn, true
}
