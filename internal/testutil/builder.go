// Package testutil provides builders for catalogs and a throwaway history
// database for tests.
package testutil

import (
	"fmt"
	"sort"
	"time"

	"github.com/zjrosen/aftershock/internal/quake"
)

// Builder accumulates aftershocks for one mainshock.
type Builder struct {
	mainshock quake.Mainshock
	query     quake.CatalogQuery
	events    []quake.Event
}

// NewBuilder starts a catalog around the default mainshock.
func NewBuilder(opts ...MainshockOption) *Builder {
	ms := DefaultMainshock()
	for _, opt := range opts {
		opt(&ms)
	}
	return &Builder{
		mainshock: ms,
		query:     quake.CatalogQuery{Mainshock: ms, StartDays: 0, EndDays: 30, RadiusKm: 50, MinMag: 2.5},
	}
}

// WithEvent adds an aftershock.
func (b *Builder) WithEvent(opts ...EventOption) *Builder {
	ev := quake.Event{
		ID:  fmt.Sprintf("%s-%03d", b.mainshock.ID, len(b.events)+1),
		Mag: 3.0,
		Lat: b.mainshock.Lat,
		Lon: b.mainshock.Lon,
	}
	ev.Time = b.mainshock.Time.Add(time.Hour)
	for _, opt := range opts {
		opt(b.mainshock, &ev)
	}
	b.events = append(b.events, ev)
	return b
}

// WithQuery replaces the query recorded on the catalog.
func (b *Builder) WithQuery(q quake.CatalogQuery) *Builder {
	q.Mainshock = b.mainshock
	b.query = q
	return b
}

// Mainshock returns the builder's mainshock.
func (b *Builder) Mainshock() quake.Mainshock {
	return b.mainshock
}

// Build returns the catalog with events sorted by time.
func (b *Builder) Build() quake.Catalog {
	events := append([]quake.Event(nil), b.events...)
	sort.SliceStable(events, func(i, j int) bool { return events[i].Time.Before(events[j].Time) })
	return quake.Catalog{Mainshock: b.mainshock, Query: b.query, Events: events}
}
