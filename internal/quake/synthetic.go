package quake

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"github.com/zjrosen/aftershock/internal/log"
)

// DefaultSyntheticCount is the number of aftershocks a synthetic catalog
// query returns when no count is configured.
const DefaultSyntheticCount = 50

var syntheticEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// SyntheticSource generates reproducible sequences. The same event ID and
// seed always produce the same mainshock and the same catalog.
type SyntheticSource struct {
	Seed  uint64
	Count int
}

var _ Source = SyntheticSource{}

// Mainshock derives a mainshock from the event ID.
func (s SyntheticSource) Mainshock(ctx context.Context, eventID string) (Mainshock, error) {
	if err := ctx.Err(); err != nil {
		return Mainshock{}, err
	}
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return Mainshock{}, fmt.Errorf("%w: empty event ID", ErrNotFound)
	}
	r := s.rng(eventID, 0)
	ms := Mainshock{
		ID:    eventID,
		Time:  syntheticEpoch.Add(time.Duration(r.IntN(365*24)) * time.Hour),
		Mag:   roundTo(5.5+2*r.Float64(), 0.1),
		Lat:   roundTo(-60+120*r.Float64(), 0.001),
		Lon:   roundTo(-180+360*r.Float64(), 0.001),
		Depth: roundTo(5+25*r.Float64(), 0.1),
		Place: "Synthetic sequence " + eventID,
	}
	log.Debug(log.CatQuake, "Synthetic mainshock", "id", ms.ID, "mag", ms.Mag)
	return ms, nil
}

// Aftershocks generates Count events inside the query window with Omori
// decay in time and Gutenberg-Richter magnitudes above MinMag.
func (s SyntheticSource) Aftershocks(ctx context.Context, q CatalogQuery) (Catalog, error) {
	if err := ctx.Err(); err != nil {
		return Catalog{}, err
	}
	if err := q.Validate(); err != nil {
		return Catalog{}, err
	}
	count := s.Count
	if count <= 0 {
		count = DefaultSyntheticCount
	}

	const (
		p = 1.08
		c = 0.05
		b = 1.0
	)
	r := s.rng(q.Mainshock.ID, math.Float64bits(q.StartDays)^math.Float64bits(q.EndDays))
	minMag := q.MinMag
	total := OmoriIntegral(p, c, q.StartDays, q.EndDays)

	events := make([]Event, 0, count)
	for i := 0; i < count; i++ {
		days := omoriQuantile(p, c, q.StartDays, total*r.Float64())
		mag := minMag - math.Log10(1-r.Float64())/b
		if q.Mainshock.Mag > minMag {
			mag = math.Min(mag, q.Mainshock.Mag-0.1)
		}
		bearing := 2 * math.Pi * r.Float64()
		dist := q.RadiusKm * math.Sqrt(r.Float64())
		lat, lon := offset(q.Mainshock.Lat, q.Mainshock.Lon, dist, bearing)
		events = append(events, Event{
			ID:    fmt.Sprintf("%s-%03d", q.Mainshock.ID, i+1),
			Time:  q.Mainshock.Time.Add(time.Duration(days * 24 * float64(time.Hour))),
			Mag:   roundTo(math.Max(mag, minMag), 0.1),
			Lat:   roundTo(lat, 0.001),
			Lon:   roundTo(lon, 0.001),
			Depth: roundTo(q.Mainshock.Depth*(0.5+r.Float64()), 0.1),
		})
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Time.Before(events[j].Time) })

	log.Debug(log.CatQuake, "Synthetic catalog", "mainshock", q.Mainshock.ID, "events", len(events))
	return Catalog{Mainshock: q.Mainshock, Query: q, Events: events}, nil
}

func (s SyntheticSource) rng(id string, salt uint64) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return rand.New(rand.NewPCG(s.Seed, h.Sum64()^salt))
}

// omoriQuantile returns t such that the Omori integral from t1 to t is x.
func omoriQuantile(p, c, t1, x float64) float64 {
	if math.Abs(p-1) < 1e-9 {
		return (t1+c)*math.Exp(x) - c
	}
	return math.Pow(math.Pow(t1+c, 1-p)+x*(1-p), 1/(1-p)) - c
}

// offset moves dist km from (lat, lon) along bearing, on a spherical earth.
func offset(lat, lon, dist, bearing float64) (float64, float64) {
	const earthRadiusKm = 6371.0
	phi1 := lat * math.Pi / 180
	lam1 := lon * math.Pi / 180
	delta := dist / earthRadiusKm
	phi2 := math.Asin(math.Sin(phi1)*math.Cos(delta) + math.Cos(phi1)*math.Sin(delta)*math.Cos(bearing))
	lam2 := lam1 + math.Atan2(math.Sin(bearing)*math.Sin(delta)*math.Cos(phi1), math.Cos(delta)-math.Sin(phi1)*math.Sin(phi2))
	return phi2 * 180 / math.Pi, math.Mod(lam2*180/math.Pi+540, 360) - 180
}

// DistanceKm is the great-circle distance between two points.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371.0
	phi1, phi2 := lat1*math.Pi/180, lat2*math.Pi/180
	dPhi := phi2 - phi1
	dLam := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) + math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLam/2)*math.Sin(dLam/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(a)))
}

func roundTo(v, step float64) float64 {
	return math.Round(v/step) * step
}
