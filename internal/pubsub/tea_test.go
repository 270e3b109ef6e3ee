package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/aftershock/internal/uithread"
)

func TestContinuousListener_ReceivesEvents(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewContinuousListener(ctx, broker)
	broker.Publish(UpdatedEvent, "catalog.yaml")
	broker.Publish(UpdatedEvent, "catalog.yaml")

	first, ok := l.Listen()().(Event[string])
	require.True(t, ok, "msg should be Event[string]")
	require.Equal(t, "catalog.yaml", first.Payload)

	second, ok := l.Listen()().(Event[string])
	require.True(t, ok)
	require.Equal(t, first.Seq+1, second.Seq)
}

func TestContinuousListener_NilAfterCancel(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	l := NewContinuousListener(ctx, broker)
	cancel()

	require.Nil(t, l.Listen()())
}

func TestContinuousListener_NilAfterBrokerClose(t *testing.T) {
	broker := NewBroker[string]()
	l := NewContinuousListener(context.Background(), broker)
	broker.Close()

	require.Nil(t, l.Listen()())
}

func TestForward_RunsOnLoop(t *testing.T) {
	broker := NewBroker[stateChange]()
	loop := uithread.NewLoop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got []string
	stopped := Forward(ctx, broker, loop, func(e Event[stateChange]) {
		got = append(got, e.Payload.To)
	})

	broker.Publish(UpdatedEvent, stateChange{From: "initial", To: "mainshock"})
	broker.Publish(UpdatedEvent, stateChange{From: "mainshock", To: "catalog"})
	broker.Close()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("forwarding did not stop after close")
	}
	loop.Drain()
	require.Equal(t, []string{"mainshock", "catalog"}, got)
}
