// Package flags provides feature flags read from configuration.
// Flags are read-only after initialization; unknown flags read as disabled.
package flags

import (
	"maps"
	"slices"

	"github.com/zjrosen/aftershock/internal/log"
)

const (
	// FlagCancelableRuns lets Esc cancel an in-flight sequencer run.
	// Disabled, a started run always runs to completion or failure.
	FlagCancelableRuns = "cancelable-runs"

	// FlagForecastHistory persists completed forecasts to SQLite.
	FlagForecastHistory = "forecast-history"
)

// Defaults are the values used for flags missing from configuration.
var Defaults = map[string]bool{
	FlagCancelableRuns:  false,
	FlagForecastHistory: true,
}

// Registry holds feature flag state.
type Registry struct {
	flags map[string]bool
}

// New creates a Registry from configured values layered over Defaults.
func New(configured map[string]bool) *Registry {
	flags := maps.Clone(Defaults)
	maps.Copy(flags, configured)
	r := &Registry{flags: flags}
	log.Debug(log.CatConfig, "Feature flags initialized", "flags", r.All())
	return r
}

// Enabled reports whether the named flag is on. Unknown flags and a nil
// registry report false.
func (r *Registry) Enabled(name string) bool {
	if r == nil {
		return false
	}
	value, exists := r.flags[name]
	if !exists {
		log.Debug(log.CatConfig, "Unknown flag accessed", "flag", name)
		return false
	}
	return value
}

// All returns a copy of every flag.
func (r *Registry) All() map[string]bool {
	if r == nil {
		return map[string]bool{}
	}
	return maps.Clone(r.flags)
}

// Names returns the flag names in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(r.flags))
}
