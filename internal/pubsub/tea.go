package pubsub

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zjrosen/aftershock/internal/uithread"
)

// ContinuousListener turns one subscription into a stream of tea messages.
// The Update loop calls Listen again after handling each event.
type ContinuousListener[T any] struct {
	ctx context.Context
	ch  <-chan Event[T]
}

// NewContinuousListener subscribes to broker for as long as ctx lives.
func NewContinuousListener[T any](ctx context.Context, broker *Broker[T]) *ContinuousListener[T] {
	return &ContinuousListener[T]{ctx: ctx, ch: broker.Subscribe(ctx)}
}

// Listen returns a command that yields the next Event[T], or nil once the
// context is done or the subscription closed.
func (l *ContinuousListener[T]) Listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-l.ctx.Done():
			return nil
		case event, ok := <-l.ch:
			if !ok {
				return nil
			}
			return event
		}
	}
}

// Forward delivers broker events to fn on the UI thread until ctx is done
// or the broker closes. It is the headless counterpart of
// ContinuousListener. The returned channel is closed when forwarding stops.
func Forward[T any](ctx context.Context, broker *Broker[T], ui uithread.Poster, fn func(Event[T])) <-chan struct{} {
	ch := broker.Subscribe(ctx)
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		for event := range ch {
			ui.Post(func() { fn(event) })
		}
	}()
	return stopped
}
