package quake

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/aftershock/internal/log"
)

// FileSource reads sequences from a YAML catalog file. The file is read on
// every call so edits are picked up; put a CachedSource in front of it.
//
//	mainshocks:
//	  - id: ci38457511
//	    time: 2019-07-06T03:19:53Z
//	    mag: 7.1
//	    lat: 35.77
//	    lon: -117.6
//	    aftershocks:
//	      - {id: a1, time: 2019-07-06T04:00:00Z, mag: 4.2, lat: 35.8, lon: -117.6}
type FileSource struct {
	Path string
}

var _ Source = FileSource{}

type fileCatalog struct {
	Mainshocks []fileSequence `yaml:"mainshocks"`
}

type fileSequence struct {
	Mainshock   `yaml:",inline"`
	Aftershocks []Event `yaml:"aftershocks"`
}

// Mainshock looks the event up by ID.
func (f FileSource) Mainshock(ctx context.Context, eventID string) (Mainshock, error) {
	seq, err := f.find(ctx, eventID)
	if err != nil {
		return Mainshock{}, err
	}
	return seq.Mainshock, nil
}

// Aftershocks returns the file's aftershocks of the query mainshock that
// fall inside the window, radius and magnitude filter.
func (f FileSource) Aftershocks(ctx context.Context, q CatalogQuery) (Catalog, error) {
	if err := q.Validate(); err != nil {
		return Catalog{}, err
	}
	seq, err := f.find(ctx, q.Mainshock.ID)
	if err != nil {
		return Catalog{}, err
	}

	cat := Catalog{Mainshock: seq.Mainshock, Query: q}
	for _, ev := range seq.Aftershocks {
		d := cat.DaysAfter(ev)
		if d < q.StartDays || d > q.EndDays || ev.Mag < q.MinMag {
			continue
		}
		if DistanceKm(seq.Lat, seq.Lon, ev.Lat, ev.Lon) > q.RadiusKm {
			continue
		}
		cat.Events = append(cat.Events, ev)
	}
	sort.Slice(cat.Events, func(i, j int) bool { return cat.Events[i].Time.Before(cat.Events[j].Time) })
	log.Debug(log.CatQuake, "File catalog", "path", f.Path, "mainshock", q.Mainshock.ID, "events", cat.Len())
	return cat, nil
}

func (f FileSource) find(ctx context.Context, eventID string) (fileSequence, error) {
	if err := ctx.Err(); err != nil {
		return fileSequence{}, err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return fileSequence{}, fmt.Errorf("reading catalog file: %w", err)
	}
	var fc fileCatalog
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fileSequence{}, fmt.Errorf("parsing catalog file %s: %w", f.Path, err)
	}
	eventID = strings.TrimSpace(eventID)
	for _, seq := range fc.Mainshocks {
		if seq.ID == eventID {
			return seq, nil
		}
	}
	return fileSequence{}, fmt.Errorf("%w: %q in %s", ErrNotFound, eventID, f.Path)
}
