// Package history defines saved forecasts and the repository that stores
// them.
package history

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zjrosen/aftershock/internal/quake"
)

// Record is one completed forecast.
type Record struct {
	ID        int64
	GUID      string
	Mainshock quake.Mainshock
	Forecast  quake.Forecast
	CreatedAt time.Time
}

// NewRecord creates an unsaved record with a fresh GUID.
func NewRecord(ms quake.Mainshock, f quake.Forecast, now time.Time) *Record {
	return &Record{
		GUID:      uuid.NewString(),
		Mainshock: ms,
		Forecast:  f,
		CreatedAt: now.UTC().Truncate(time.Second),
	}
}

// Summary is a one-line description for listings.
func (r *Record) Summary() string {
	return fmt.Sprintf("%s M%.1f %s (a=%.2f b=%.2f p=%.2f c=%.3f)",
		r.Mainshock.ID, r.Mainshock.Mag, r.CreatedAt.Format(time.DateTime),
		r.Forecast.Params.A, r.Forecast.Params.B, r.Forecast.Params.P, r.Forecast.Params.C)
}

// Repository stores records.
type Repository interface {
	// Save inserts a new record and sets its ID.
	Save(r *Record) error
	// List returns the newest records first, at most limit (all when limit <= 0).
	List(limit int) ([]*Record, error)
	// FindByGUID returns *NotFoundError when no record matches.
	FindByGUID(guid string) (*Record, error)
}

// NotFoundError is returned when a record does not exist.
type NotFoundError struct {
	GUID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("forecast %s not found", e.GUID)
}
