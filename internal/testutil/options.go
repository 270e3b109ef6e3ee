package testutil

import (
	"time"

	"github.com/zjrosen/aftershock/internal/quake"
)

// DefaultMainshock is the mainshock builders start from.
func DefaultMainshock() quake.Mainshock {
	return quake.Mainshock{
		ID:    "ci38457511",
		Time:  time.Date(2019, 7, 6, 3, 19, 53, 0, time.UTC),
		Mag:   7.1,
		Lat:   35.77,
		Lon:   -117.6,
		Depth: 8,
		Place: "Ridgecrest, CA",
	}
}

// MainshockOption configures the builder's mainshock.
type MainshockOption func(*quake.Mainshock)

// ID sets the mainshock event ID.
func ID(id string) MainshockOption {
	return func(ms *quake.Mainshock) { ms.ID = id }
}

// MainshockMag sets the mainshock magnitude.
func MainshockMag(m float64) MainshockOption {
	return func(ms *quake.Mainshock) { ms.Mag = m }
}

// EventOption configures one aftershock.
type EventOption func(ms quake.Mainshock, ev *quake.Event)

// Mag sets the magnitude.
func Mag(m float64) EventOption {
	return func(_ quake.Mainshock, ev *quake.Event) { ev.Mag = m }
}

// Days places the event the given number of days after the mainshock.
func Days(d float64) EventOption {
	return func(ms quake.Mainshock, ev *quake.Event) {
		ev.Time = ms.Time.Add(time.Duration(d * 24 * float64(time.Hour)))
	}
}

// At sets the epicenter.
func At(lat, lon float64) EventOption {
	return func(_ quake.Mainshock, ev *quake.Event) {
		ev.Lat = lat
		ev.Lon = lon
	}
}
