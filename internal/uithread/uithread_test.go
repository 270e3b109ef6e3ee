package uithread

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

func TestLoop_RunsInPostOrder(t *testing.T) {
	loop := NewLoop()
	var got []int
	for i := 0; i < 5; i++ {
		loop.Post(func() { got = append(got, i) })
	}

	require.Equal(t, 5, loop.Pending())
	require.Equal(t, 5, loop.Drain())
	require.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestLoop_DrainRunsNestedPosts(t *testing.T) {
	loop := NewLoop()
	var got []string
	loop.Post(func() {
		got = append(got, "outer")
		loop.Post(func() { got = append(got, "inner") })
	})

	require.Equal(t, 2, loop.Drain())
	require.Equal(t, []string{"outer", "inner"}, got)
}

func TestLoop_RunExecutesOnSingleGoroutine(t *testing.T) {
	loop := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = loop.Run(ctx) }()

	var (
		mu      sync.Mutex
		counter int
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, loop.Invoke(ctx, func() {
				mu.Lock()
				counter++
				mu.Unlock()
			}))
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 20, counter)
}

func TestLoop_CloseDropsPosts(t *testing.T) {
	loop := NewLoop()
	ran := false
	loop.Close()
	loop.Close()
	loop.Post(func() { ran = true })

	require.Equal(t, 0, loop.Drain())
	require.False(t, ran)
	require.ErrorIs(t, loop.Run(context.Background()), ErrClosed)
	require.ErrorIs(t, loop.Invoke(context.Background(), func() {}), ErrClosed)
}

func TestLoop_RunStopsOnCancel(t *testing.T) {
	loop := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- loop.Run(ctx) }()
	cancel()

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		require.Fail(t, "loop did not stop")
	}

	select {
	case <-loop.Done():
	default:
		require.Fail(t, "loop should be closed after Run returns")
	}
}

type captureSender struct {
	msgs chan tea.Msg
}

func (c *captureSender) Send(msg tea.Msg) { c.msgs <- msg }

func TestTeaPoster_SendsRunMsg(t *testing.T) {
	sender := &captureSender{msgs: make(chan tea.Msg, 1)}
	poster := NewTeaPoster(sender)

	ran := false
	poster.Post(func() { ran = true })

	select {
	case msg := <-sender.msgs:
		runMsg, ok := msg.(RunMsg)
		require.True(t, ok)
		require.False(t, ran, "Post must not run the closure itself")
		runMsg.Exec()
		require.True(t, ran)
	case <-time.After(time.Second):
		require.Fail(t, "no message sent")
	}
}

func TestTeaPoster_PreservesOrder(t *testing.T) {
	sender := &captureSender{msgs: make(chan tea.Msg, 100)}
	poster := NewTeaPoster(sender)
	defer poster.Close()

	var got []int
	for i := 0; i < 100; i++ {
		poster.Post(func() { got = append(got, i) })
	}
	for i := 0; i < 100; i++ {
		select {
		case msg := <-sender.msgs:
			msg.(RunMsg).Exec()
		case <-time.After(time.Second):
			require.FailNow(t, "message not delivered", "after %d", i)
		}
	}
	for i, v := range got {
		require.Equal(t, i, v)
	}
}

func TestTeaPoster_HoldsUntilBound(t *testing.T) {
	poster := NewTeaPoster(nil)
	defer poster.Close()

	ran := 0
	poster.Post(func() { ran++ })
	poster.Post(func() { ran++ })

	sender := &captureSender{msgs: make(chan tea.Msg, 2)}
	poster.Bind(sender)
	for i := 0; i < 2; i++ {
		select {
		case msg := <-sender.msgs:
			msg.(RunMsg).Exec()
		case <-time.After(time.Second):
			require.FailNow(t, "held message not flushed")
		}
	}
	require.Equal(t, 2, ran)
}

func TestTeaPoster_DropsAfterClose(t *testing.T) {
	sender := &captureSender{msgs: make(chan tea.Msg, 1)}
	poster := NewTeaPoster(sender)
	poster.Close()
	poster.Close()

	poster.Post(func() {})
	select {
	case <-sender.msgs:
		require.Fail(t, "closed poster delivered a message")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestCmd_WrapsClosure(t *testing.T) {
	ran := false
	msg := Cmd(func() { ran = true })()

	runMsg, ok := msg.(RunMsg)
	require.True(t, ok)
	runMsg.Exec()
	require.True(t, ran)

	RunMsg{}.Exec()
}
