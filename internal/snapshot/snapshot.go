// Package snapshot implements the transfer protocol that moves values
// between panels and a background run.
//
// A snapshot is owned by exactly one operation. Load runs on the UI thread
// before the run starts and copies validated control values into plain
// fields. Worker steps read those fields and record results with
// Result.Modify, never touching a control. Store runs on the UI thread
// after the worker steps and pushes only the modified results back through
// the gate, so the writes raise no notifications.
package snapshot

import (
	"github.com/zjrosen/aftershock/internal/control"
	"github.com/zjrosen/aftershock/internal/log"
)

// Snapshot is implemented by every per-operation transfer object.
type Snapshot interface {
	// Load reads and validates the controls. The first invalid field is
	// returned as a *ValidationError.
	Load() error
	// Store writes dirty results back to their controls and clears the
	// dirty flags. Calling it again without new modifications is a no-op.
	Store()
	// Clean clears every dirty flag without writing anything.
	Clean()
}

// Writer performs programmatic control writes. *notify.Gate implements it.
type Writer interface {
	UpdateValue(h control.Handle, v any) bool
	Block() (release func())
}

// Storer is a result field that can be written back through a Writer.
type Storer interface {
	StoreTo(w Writer) bool
	Dirty() bool
	Clean()
}

// StoreAll writes every dirty field inside one blocked region and returns
// how many controls changed value.
func StoreAll(w Writer, fields ...Storer) int {
	release := w.Block()
	defer release()

	changed, written := 0, 0
	for _, f := range fields {
		if !f.Dirty() {
			continue
		}
		written++
		if f.StoreTo(w) {
			changed++
		}
	}
	if written > 0 {
		log.Debug(log.CatSnapshot, "Stored results", "written", written, "changed", changed)
	}
	return changed
}

// CleanAll clears the dirty flag of every field.
func CleanAll(fields ...Storer) {
	for _, f := range fields {
		f.Clean()
	}
}
