// Package notify implements the notification gate: the single path through
// which raw control change events reach panel handlers.
//
// The gate runs entirely on the UI thread. It drops the widget framework's
// spurious null/null events, drops every event raised while the
// application itself is writing a control (the block counter is non-zero),
// and tracks how deeply handlers are nested (the depth counter). Both
// counters are shared cells so that a controller and its sub-controllers
// observe the same values.
package notify

import (
	"github.com/zjrosen/aftershock/internal/control"
	"github.com/zjrosen/aftershock/internal/log"
)

// Router resolves the handler for a group at registration time.
type Router func(group Group) (Handler, bool)

// Gate filters and dispatches control change events.
type Gate struct {
	block  *Counter
	depth  *Counter
	reg    *Registry
	router Router
	fatal  func(error)
}

// Option configures a Gate.
type Option func(*Gate)

// WithRouter sets the group router used when Register is given no handler.
func WithRouter(r Router) Option {
	return func(g *Gate) { g.router = r }
}

// WithFatal replaces the hook that handles dispatch violations.
// The default logs the violation and panics.
func WithFatal(fn func(error)) Option {
	return func(g *Gate) { g.fatal = fn }
}

// WithCounters shares existing block and depth counters.
func WithCounters(block, depth *Counter) Option {
	return func(g *Gate) {
		g.block = block
		g.depth = depth
	}
}

// NewGate creates a root gate with fresh counters.
func NewGate(opts ...Option) *Gate {
	g := &Gate{
		block: NewCounter(),
		depth: NewCounter(),
		reg:   NewRegistry(),
		fatal: panicOnViolation,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Child creates a sub-controller gate. It shares this gate's counters and
// fatal hook but keeps its own registry and router.
func (g *Gate) Child(opts ...Option) *Gate {
	child := &Gate{
		block: g.block,
		depth: g.depth,
		reg:   NewRegistry(),
		fatal: g.fatal,
	}
	for _, opt := range opts {
		opt(child)
	}
	return child
}

// Registry exposes the gate's registry for lookups.
func (g *Gate) Registry() *Registry {
	return g.reg
}

// Register associates h with a name and group, resolves its handler and
// binds the control's listener to the gate. When handler is nil the gate's
// router supplies it; a group the router does not handle is rejected with
// *UnhandledGroupError.
func (g *Gate) Register(h control.Handle, name string, group Group, handler Handler) error {
	if h == nil {
		return ErrNilHandle
	}
	if handler == nil {
		var ok bool
		if g.router != nil {
			handler, ok = g.router(group)
		}
		if !ok || handler == nil {
			return &UnhandledGroupError{Name: name, Group: group}
		}
	}
	if err := g.reg.Add(h, name, group, handler); err != nil {
		return err
	}
	h.Bind(g.OnRawEvent)
	return nil
}

// OnRawEvent is the listener installed on every registered control.
func (g *Gate) OnRawEvent(h control.Handle, old, new any) {
	if IsSpuriousEvent(old, new) {
		log.Debug(log.CatGate, "Dropped null/null event", "control", g.reg.Name(h))
		return
	}
	if g.block.Value() != 0 {
		log.Debug(log.CatGate, "Suppressed event during programmatic write", "control", g.reg.Name(h))
		return
	}

	entry, ok := g.reg.Lookup(h)
	if !ok {
		g.fatal(&DispatchError{Control: "<unregistered>", Depth: g.depth.Value(), Err: errUnregistered})
		return
	}
	g.dispatch(h, entry, old, new)
}

func (g *Gate) dispatch(h control.Handle, entry *Entry, old, new any) {
	release := g.depth.Acquire()
	defer release()

	depth := g.depth.Value()
	if depth > 1 {
		log.Warn(log.CatGate, "Reentrant notification", "control", entry.Name, "depth", depth)
	}

	err := entry.handler(Event{
		Control: h,
		Name:    entry.Name,
		Group:   entry.Group,
		Old:     old,
		New:     new,
		Depth:   depth,
	})
	if err != nil {
		g.fatal(&DispatchError{Control: entry.Name, Group: entry.Group, Depth: depth, Err: err})
	}
}

// UpdateValue is the only sanctioned way to change a control from code. The
// write and refresh happen under the block counter so no notification
// escapes. Reports whether the value changed, counting nil/nil as unchanged.
func (g *Gate) UpdateValue(h control.Handle, v any) bool {
	release := g.block.Acquire()
	defer release()

	old := h.Value()
	h.SetValue(v)
	h.Refresh()
	return !ValuesEqual(old, v)
}

// Enable enables or disables a control. No notification is involved.
func (g *Gate) Enable(h control.Handle, on bool) {
	if h.Enabled() == on {
		return
	}
	h.SetEnabled(on)
	h.Refresh()
}

// EnableGroup enables or disables every control registered under group.
func (g *Gate) EnableGroup(group Group, on bool) {
	for _, h := range g.reg.Members(group) {
		g.Enable(h, on)
	}
}

// Block suppresses notifications until the returned release is called.
// Use it to bracket several writes made outside UpdateValue.
func (g *Gate) Block() (release func()) {
	return g.block.Acquire()
}

// Blocked reports whether a programmatic write is in progress.
func (g *Gate) Blocked() bool {
	return g.block.Value() != 0
}

// Depth returns the number of notification frames currently executing.
func (g *Gate) Depth() int64 {
	return g.depth.Value()
}

func panicOnViolation(err error) {
	log.ErrorErr(log.CatGate, "Dispatch discipline violated", err)
	panic(err)
}
