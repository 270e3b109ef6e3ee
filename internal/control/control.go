// Package control defines the bound parameter handles panels expose to the
// notification gate.
//
// A Param stands in for a widget: it holds a value, an enabled flag and a
// change listener. Its change detection deliberately reproduces the widget
// framework quirk the gate compensates for: a write of nil over nil is
// reported as a change, so listeners see (nil, nil) events.
package control

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Listener receives raw change events from a control.
type Listener func(h Handle, old, new any)

// Handle is an opaque reference to a bound UI parameter.
// Implementations must be pointer types: handle identity is pointer identity.
type Handle interface {
	Value() any
	SetValue(v any)
	Refresh()
	SetEnabled(on bool)
	Enabled() bool
	Bind(l Listener)
}

// Kind selects how a Param parses and formats its value.
type Kind int

const (
	KindFloat   Kind = iota // float64
	KindInt                 // int
	KindText                // string
	KindBool                // bool
	KindAction              // int press counter; a press is a value change
	KindDisplay             // read-only output, any value
)

func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindText:
		return "text"
	case KindBool:
		return "bool"
	case KindAction:
		return "action"
	case KindDisplay:
		return "display"
	default:
		return "unknown"
	}
}

// Param is the concrete control used by every panel.
type Param struct {
	label    string
	kind     Kind
	value    any
	enabled  bool
	listener Listener
	format   func(any) string
	refreshN int
}

// Option configures a Param.
type Option func(*Param)

// WithValue sets the initial value without firing the listener.
func WithValue(v any) Option {
	return func(p *Param) { p.value = v }
}

// WithFormat overrides the display formatting.
func WithFormat(fn func(any) string) Option {
	return func(p *Param) { p.format = fn }
}

// Disabled creates the control in the disabled state.
func Disabled() Option {
	return func(p *Param) { p.enabled = false }
}

// New creates an enabled Param.
func New(label string, kind Kind, opts ...Option) *Param {
	p := &Param{label: label, kind: kind, enabled: true}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Label returns the user-facing label.
func (p *Param) Label() string { return p.label }

// Kind returns the value kind.
func (p *Param) Kind() Kind { return p.kind }

// Value returns the current value; nil means absent.
func (p *Param) Value() any { return p.value }

// SetValue writes v and notifies the bound listener if the value changed
// according to the widget's own equality check.
func (p *Param) SetValue(v any) {
	old := p.value
	p.value = v
	if widgetEqual(old, v) {
		return
	}
	if p.listener != nil {
		p.listener(p, old, v)
	}
}

// Refresh marks the control for redraw. The TUI redraws every frame, so
// this only counts calls for diagnostics and tests.
func (p *Param) Refresh() { p.refreshN++ }

// Refreshes reports how many times Refresh was called.
func (p *Param) Refreshes() int { return p.refreshN }

// SetEnabled toggles whether the user may edit or press the control.
func (p *Param) SetEnabled(on bool) { p.enabled = on }

// Enabled reports whether the user may edit or press the control.
func (p *Param) Enabled() bool { return p.enabled }

// Bind installs the change listener, replacing any previous one.
func (p *Param) Bind(l Listener) { p.listener = l }

// Press simulates a user activating an action control.
func (p *Param) Press() {
	n, _ := p.value.(int)
	p.SetValue(n + 1)
}

// Input parses user-entered text according to the control kind and writes
// it. Blank input clears the value (nil). Parse failures leave the value
// untouched.
func (p *Param) Input(text string) error {
	v, err := Parse(p.kind, text)
	if err != nil {
		return fmt.Errorf("%s: %w", p.label, err)
	}
	p.SetValue(v)
	return nil
}

// Text formats the current value for display and editing.
func (p *Param) Text() string {
	if p.format != nil {
		return p.format(p.value)
	}
	return Format(p.value)
}

// Parse converts text to a value of the given kind.
func Parse(kind Kind, text string) (any, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	switch kind {
	case KindFloat:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", text)
		}
		return f, nil
	case KindInt, KindAction:
		n, err := strconv.Atoi(text)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", text)
		}
		return n, nil
	case KindBool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return nil, fmt.Errorf("invalid boolean %q", text)
		}
		return b, nil
	case KindDisplay:
		return nil, fmt.Errorf("read-only control")
	default:
		return text, nil
	}
}

// Format renders a value the way controls display it.
func Format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return strconv.FormatFloat(x, 'g', -1, 64)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.UTC().Format("2006-01-02 15:04:05Z")
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// widgetEqual is the framework's change check. It treats an absent old
// value as never equal to anything, including another absent value.
// Values of non-comparable types always count as changed.
func widgetEqual(old, new any) bool {
	if old == nil || new == nil {
		return false
	}
	t := reflect.TypeOf(old)
	if t != reflect.TypeOf(new) || !t.Comparable() {
		return false
	}
	return old == new
}
