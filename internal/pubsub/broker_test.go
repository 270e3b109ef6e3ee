package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stateChange struct {
	From, To string
}

func receive[T any](t *testing.T, ch <-chan Event[T]) Event[T] {
	t.Helper()
	select {
	case event := <-ch:
		return event
	case <-time.After(time.Second):
		require.Fail(t, "timeout waiting for event")
	}
	return Event[T]{}
}

func subscribers[T any](b *Broker[T]) int {
	n, _ := b.Stats()
	return n
}

func TestBroker_Subscribe(t *testing.T) {
	broker := NewBroker[stateChange]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := broker.Subscribe(ctx)
	require.Equal(t, 1, broker.Publish(UpdatedEvent, stateChange{From: "initial", To: "mainshock"}))

	event := receive(t, ch)
	require.Equal(t, "mainshock", event.Payload.To)
	require.Equal(t, UpdatedEvent, event.Type)
	require.Equal(t, uint64(1), event.Seq)
	require.False(t, event.Timestamp.IsZero())
}

func TestBroker_SequenceNumbers(t *testing.T) {
	broker := NewBroker[int]()
	defer broker.Close()

	broker.Publish(CreatedEvent, 0) // nobody listening, still numbered
	ch := broker.Subscribe(context.Background())
	broker.Publish(CreatedEvent, 1)
	broker.Publish(CreatedEvent, 2)

	require.Equal(t, uint64(2), receive(t, ch).Seq)
	require.Equal(t, uint64(3), receive(t, ch).Seq)
}

func TestBroker_MultipleSubscribers(t *testing.T) {
	broker := NewBroker[int]()
	defer broker.Close()

	ctx := context.Background()
	subs := []<-chan Event[int]{broker.Subscribe(ctx), broker.Subscribe(ctx), broker.Subscribe(ctx)}
	require.Equal(t, 3, subscribers(broker))

	require.Equal(t, 3, broker.Publish(CreatedEvent, 50))

	for i, ch := range subs {
		event := receive(t, ch)
		require.Equal(t, 50, event.Payload, "subscriber %d", i)
	}
}

func TestBroker_ContextCancellation(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch := broker.Subscribe(ctx)
	require.Equal(t, 1, subscribers(broker))

	cancel()
	require.Eventually(t, func() bool { return subscribers(broker) == 0 }, time.Second, 5*time.Millisecond)

	_, ok := <-ch
	require.False(t, ok, "channel should be closed")
}

func TestBroker_PublishDropsWhenFull(t *testing.T) {
	broker := NewBrokerWithBuffer[int](1)
	defer broker.Close()

	ch := broker.Subscribe(context.Background())

	require.Equal(t, 1, broker.Publish(UpdatedEvent, 1))
	require.Equal(t, 0, broker.Publish(UpdatedEvent, 2), "full buffer should drop")

	_, dropped := broker.Stats()
	require.Equal(t, uint64(1), dropped)

	event := <-ch
	require.Equal(t, 1, event.Payload)
}

func TestBroker_ZeroBufferIsOne(t *testing.T) {
	broker := NewBrokerWithBuffer[int](0)
	defer broker.Close()

	ch := broker.Subscribe(context.Background())
	require.Equal(t, 1, broker.Publish(UpdatedEvent, 7))
	require.Equal(t, 7, receive(t, ch).Payload)
}

func TestBroker_Close(t *testing.T) {
	broker := NewBroker[string]()
	ctx, cancel := context.WithCancel(context.Background())

	ch := broker.Subscribe(ctx)
	broker.Close()
	broker.Close()
	cancel() // unsubscribing after close must not close twice

	_, ok := <-ch
	require.False(t, ok, "channel should be closed")
	require.Equal(t, 0, subscribers(broker))

	late := broker.Subscribe(context.Background())
	_, ok = <-late
	require.False(t, ok, "subscribe after close returns a closed channel")

	require.Equal(t, 0, broker.Publish(UpdatedEvent, "ignored"))
}
