package notify

import (
	"github.com/zjrosen/aftershock/internal/control"
)

// Group identifies the logical operation a control belongs to. Groups are
// used for dispatch and enablement only, never for ordering.
type Group int

// Handler reacts to a delivered change event. It runs on the UI thread and
// must only perform fast UI updates; slow work goes through a sequencer run.
// A non-nil error is a dispatch violation.
type Handler func(ev Event) error

// Event is a change notification that passed the gate.
type Event struct {
	Control control.Handle
	Name    string
	Group   Group
	Old     any
	New     any
	// Depth is the number of notification frames executing, this one included.
	Depth int64
}

// Entry is the bookkeeping for one registered control.
type Entry struct {
	Name    string
	Group   Group
	handler Handler
}

// Registry associates control handles with debug names, groups and
// handlers. Handles are keyed by identity.
type Registry struct {
	entries map[control.Handle]*Entry
	order   []control.Handle
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[control.Handle]*Entry)}
}

// Add records h. A handle may be registered only once for its lifetime.
func (r *Registry) Add(h control.Handle, name string, group Group, handler Handler) error {
	if h == nil {
		return ErrNilHandle
	}
	if _, exists := r.entries[h]; exists {
		return ErrAlreadyRegistered
	}
	r.entries[h] = &Entry{Name: name, Group: group, handler: handler}
	r.order = append(r.order, h)
	return nil
}

// Lookup returns the entry for h.
func (r *Registry) Lookup(h control.Handle) (*Entry, bool) {
	e, ok := r.entries[h]
	return e, ok
}

// Name returns the debug name for h, or "<unregistered>".
func (r *Registry) Name(h control.Handle) string {
	if e, ok := r.entries[h]; ok {
		return e.Name
	}
	return "<unregistered>"
}

// Members returns the handles registered under group, in registration order.
func (r *Registry) Members(group Group) []control.Handle {
	var out []control.Handle
	for _, h := range r.order {
		if r.entries[h].Group == group {
			out = append(out, h)
		}
	}
	return out
}

// Handles returns every registered handle in registration order.
func (r *Registry) Handles() []control.Handle {
	out := make([]control.Handle, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered handles.
func (r *Registry) Len() int {
	return len(r.order)
}
