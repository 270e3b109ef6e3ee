package notify

import "reflect"

// IsSpuriousEvent reports whether a raw change event is the widget
// framework's null/null notification rather than an application event.
func IsSpuriousEvent(old, new any) bool {
	return old == nil && new == nil
}

// ValuesEqual is the equality used to decide whether a programmatic write
// changed a control. Unlike the widget's own check, two absent values are
// equal.
func ValuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return reflect.DeepEqual(a, b)
}
