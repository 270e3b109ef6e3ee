package notify

import (
	"errors"
	"fmt"
)

// ErrAlreadyRegistered is returned when a handle is registered twice.
var ErrAlreadyRegistered = errors.New("control already registered")

// ErrNilHandle is returned when registering a nil handle.
var ErrNilHandle = errors.New("nil control handle")

// UnhandledGroupError reports a control registered under a group that no
// handler was resolved for.
type UnhandledGroupError struct {
	Name  string
	Group Group
}

func (e *UnhandledGroupError) Error() string {
	return fmt.Sprintf("unhandled group %d for control %q", e.Group, e.Name)
}

// DispatchError reports a broken dispatch discipline: a handler returned an
// error, or an event arrived for a control the gate does not know. These
// are programming errors and are routed to the gate's fatal hook.
type DispatchError struct {
	Control string
	Group   Group
	Depth   int64
	Err     error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch violation on %q (group %d, depth %d): %v", e.Control, e.Group, e.Depth, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// errUnregistered marks an event raised by a handle the gate never registered.
var errUnregistered = errors.New("event from unregistered control")
