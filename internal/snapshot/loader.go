package snapshot

import (
	"fmt"
	"math"

	"github.com/zjrosen/aftershock/internal/control"
)

// ValidationError reports the first invalid field found by Load.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// Number is the set of types numeric checks apply to.
type Number interface {
	~int | ~int64 | ~float64
}

// Check validates a loaded value and returns the failure reason, or "".
type Check[T any] func(v T) string

// Finite rejects NaN and infinities.
func Finite() Check[float64] {
	return func(v float64) string {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "must be a finite number"
		}
		return ""
	}
}

// Positive rejects values <= 0.
func Positive[T Number]() Check[T] {
	return func(v T) string {
		if v <= 0 {
			return "must be positive"
		}
		return ""
	}
}

// NonNegative rejects values < 0.
func NonNegative[T Number]() Check[T] {
	return func(v T) string {
		if v < 0 {
			return "must not be negative"
		}
		return ""
	}
}

// Range rejects values outside [lo, hi].
func Range[T Number](lo, hi T) Check[T] {
	return func(v T) string {
		if v < lo || v > hi {
			return fmt.Sprintf("must be between %v and %v", lo, hi)
		}
		return ""
	}
}

// NonEmpty rejects the empty string.
func NonEmpty() Check[string] {
	return func(v string) string {
		if v == "" {
			return "must not be empty"
		}
		return ""
	}
}

// Loader reads control values for Load. The first failure is sticky:
// later reads return zero values and Err keeps reporting the first error.
type Loader struct {
	err error
}

// Err returns the first validation failure, or nil.
func (l *Loader) Err() error { return l.err }

// Float reads a required float field. Int values are widened.
func (l *Loader) Float(field string, h control.Handle, checks ...Check[float64]) float64 {
	var v float64
	switch x := l.value(field, h).(type) {
	case nil:
		return 0
	case float64:
		v = x
	case int:
		v = float64(x)
	default:
		l.fail(field, fmt.Sprintf("has unexpected type %T", x))
		return 0
	}
	return validate(l, field, v, checks)
}

// Int reads a required integer field.
func (l *Loader) Int(field string, h control.Handle, checks ...Check[int]) int {
	switch x := l.value(field, h).(type) {
	case nil:
		return 0
	case int:
		return validate(l, field, x, checks)
	default:
		l.fail(field, fmt.Sprintf("has unexpected type %T", x))
		return 0
	}
}

// Text reads a required string field.
func (l *Loader) Text(field string, h control.Handle, checks ...Check[string]) string {
	switch x := l.value(field, h).(type) {
	case nil:
		return ""
	case string:
		return validate(l, field, x, checks)
	default:
		l.fail(field, fmt.Sprintf("has unexpected type %T", x))
		return ""
	}
}

// Bool reads a boolean field. An absent value reads as false.
func (l *Loader) Bool(field string, h control.Handle) bool {
	if l.err != nil {
		return false
	}
	switch x := h.Value().(type) {
	case nil:
		return false
	case bool:
		return x
	default:
		l.fail(field, fmt.Sprintf("has unexpected type %T", x))
		return false
	}
}

func (l *Loader) value(field string, h control.Handle) any {
	if l.err != nil {
		return nil
	}
	v := h.Value()
	if v == nil {
		l.fail(field, "is required")
	}
	return v
}

func (l *Loader) fail(field, reason string) {
	if l.err == nil {
		l.err = &ValidationError{Field: field, Reason: reason}
	}
}

func validate[T any](l *Loader, field string, v T, checks []Check[T]) T {
	for _, check := range checks {
		if reason := check(v); reason != "" {
			l.fail(field, reason)
			var zero T
			return zero
		}
	}
	return v
}
