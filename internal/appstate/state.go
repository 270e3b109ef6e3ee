// Package appstate holds the application lifecycle state that drives which
// panels are enabled.
package appstate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/zjrosen/aftershock/internal/log"
	"github.com/zjrosen/aftershock/internal/pubsub"
)

// State is one of the ordered lifecycle states.
type State int32

const (
	// Initial: nothing loaded.
	Initial State = iota
	// Mainshock: a mainshock is loaded.
	Mainshock
	// Catalog: the aftershock catalog is loaded.
	Catalog
	// Parameters: model parameters are fitted.
	Parameters
	// Forecast: a forecast has been computed.
	Forecast
)

var names = [...]string{"initial", "mainshock", "catalog", "parameters", "forecast"}

// ErrInvalidState is returned for values outside the defined states.
var ErrInvalidState = errors.New("invalid application state")

func (s State) String() string {
	if !s.Valid() {
		return fmt.Sprintf("State(%d)", int32(s))
	}
	return names[s]
}

// Valid reports whether s is one of the defined states.
func (s State) Valid() bool {
	return s >= Initial && s <= Forecast
}

// AtLeast reports whether s has reached min.
func (s State) AtLeast(min State) bool {
	return s >= min
}

// ParseState converts a state name, case-insensitively.
func ParseState(name string) (State, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range names {
		if n == name {
			return State(i), nil
		}
	}
	return Initial, fmt.Errorf("%w: %q", ErrInvalidState, name)
}

// Change describes a transition.
type Change struct {
	From State
	To   State
}

// Machine holds the current state. Only the controller calls Set, on the UI
// thread, after a run completes; anyone may Get or Subscribe.
type Machine struct {
	state  atomic.Int32
	broker *pubsub.Broker[Change]
}

// NewMachine creates a machine in the Initial state.
func NewMachine() *Machine {
	return &Machine{broker: pubsub.NewBroker[Change]()}
}

// Get returns the current state.
func (m *Machine) Get() State {
	return State(m.state.Load())
}

// Set moves to s, upward or downward. Setting the current state again is a
// no-op and publishes nothing.
func (m *Machine) Set(s State) error {
	if !s.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidState, int32(s))
	}
	from := State(m.state.Swap(int32(s)))
	if from == s {
		return nil
	}
	log.Info(log.CatState, "State changed", "from", from, "to", s)
	m.broker.Publish(pubsub.UpdatedEvent, Change{From: from, To: s})
	return nil
}

// Subscribe delivers every subsequent change until ctx is done.
func (m *Machine) Subscribe(ctx context.Context) <-chan pubsub.Event[Change] {
	return m.broker.Subscribe(ctx)
}

// Broker exposes the change broker for Bubble Tea listeners.
func (m *Machine) Broker() *pubsub.Broker[Change] {
	return m.broker
}

// Close ends every subscription.
func (m *Machine) Close() {
	m.broker.Close()
}
