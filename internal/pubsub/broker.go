package pubsub

import (
	"context"
	"sync"
	"time"
)

// DefaultBufferSize is the per-subscriber queue length of NewBroker.
const DefaultBufferSize = 64

// Broker delivers events to every live subscription. Publish never blocks:
// a subscriber whose queue is full misses the event and the broker counts
// it as dropped.
type Broker[T any] struct {
	mu         sync.RWMutex
	subs       map[chan Event[T]]struct{}
	closed     bool
	bufferSize int
	seq        uint64
	dropped    uint64
}

// NewBroker creates a broker with DefaultBufferSize queues.
func NewBroker[T any]() *Broker[T] {
	return NewBrokerWithBuffer[T](DefaultBufferSize)
}

// NewBrokerWithBuffer creates a broker whose subscriptions queue size
// events. A size below one is treated as one.
func NewBrokerWithBuffer[T any](size int) *Broker[T] {
	if size < 1 {
		size = 1
	}
	return &Broker[T]{
		subs:       make(map[chan Event[T]]struct{}),
		bufferSize: size,
	}
}

// Subscribe returns a channel that receives every later event until ctx is
// done or the broker is closed, whichever comes first; then it is closed.
// Subscribing to a closed broker yields an already closed channel.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		ch := make(chan Event[T])
		close(ch)
		return ch
	}

	sub := make(chan Event[T], b.bufferSize)
	b.subs[sub] = struct{}{}

	go func() {
		<-ctx.Done()
		b.unsubscribe(sub)
	}()
	return sub
}

func (b *Broker[T]) unsubscribe(sub chan Event[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[sub]; !ok {
		return
	}
	delete(b.subs, sub)
	close(sub)
}

// Publish stamps payload and hands it to every subscriber. It returns how
// many subscribers received it.
func (b *Broker[T]) Publish(eventType EventType, payload T) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0
	}

	b.seq++
	event := Event[T]{
		Type:      eventType,
		Payload:   payload,
		Seq:       b.seq,
		Timestamp: time.Now(),
	}

	delivered := 0
	for sub := range b.subs {
		select {
		case sub <- event:
			delivered++
		default:
			b.dropped++
		}
	}
	return delivered
}

// Stats reports the live subscriptions and how many deliveries were
// dropped because a subscriber's queue was full.
func (b *Broker[T]) Stats() (subscribers int, dropped uint64) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs), b.dropped
}

// Close ends every subscription. Later publishes are ignored. Safe to call
// more than once.
func (b *Broker[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for sub := range b.subs {
		close(sub)
	}
	b.subs = nil
}
