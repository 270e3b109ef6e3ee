package snapshot

import "github.com/zjrosen/aftershock/internal/control"

// Result is an output field of a snapshot bound to the control that
// displays it. Worker steps call Modify; Store writes the value back only
// when it was modified since the last store or clean.
type Result[T any] struct {
	ctl    control.Handle
	value  T
	absent bool
	dirty  bool
}

// NewResult binds a result to the control that displays it.
func NewResult[T any](ctl control.Handle) *Result[T] {
	return &Result[T]{ctl: ctl, absent: true}
}

// Modify records a new value. It performs no UI access and is safe to call
// from a worker step.
func (r *Result[T]) Modify(v T) {
	r.value = v
	r.absent = false
	r.dirty = true
}

// Unset records that the control should be cleared.
func (r *Result[T]) Unset() {
	var zero T
	r.value = zero
	r.absent = true
	r.dirty = true
}

// Value returns the last recorded value and whether one is present.
func (r *Result[T]) Value() (T, bool) {
	return r.value, !r.absent
}

// Dirty reports whether the value was modified since the last store.
func (r *Result[T]) Dirty() bool { return r.dirty }

// Clean clears the dirty flag.
func (r *Result[T]) Clean() { r.dirty = false }

// StoreTo writes a dirty value to the bound control and clears the flag.
// Reports whether the control's value changed.
func (r *Result[T]) StoreTo(w Writer) bool {
	if !r.dirty {
		return false
	}
	r.dirty = false
	if r.absent {
		return w.UpdateValue(r.ctl, nil)
	}
	return w.UpdateValue(r.ctl, any(r.value))
}
