package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/zjrosen/aftershock/internal/history"
	"github.com/zjrosen/aftershock/internal/quake"
)

const forecastColumns = `id, guid, event_id, place, mainshock_time, mainshock_mag, mainshock_lat, mainshock_lon,
	a, b, p, c, mc, n, start_days, durations, magnitudes, table_json, created_at`

// forecastModel is the row shape of the forecasts table. Slices are stored
// as JSON text and times as Unix seconds.
type forecastModel struct {
	ID            int64
	GUID          string
	EventID       string
	Place         string
	MainshockTime int64
	MainshockMag  float64
	MainshockLat  float64
	MainshockLon  float64
	A, B, P, C    float64
	Mc            float64
	N             int
	StartDays     float64
	Durations     string
	Magnitudes    string
	Table         string
	CreatedAt     int64
}

func toForecastModel(r *history.Record) (*forecastModel, error) {
	durations, err := json.Marshal(r.Forecast.Query.Durations)
	if err != nil {
		return nil, fmt.Errorf("encoding durations: %w", err)
	}
	magnitudes, err := json.Marshal(r.Forecast.Query.Magnitudes)
	if err != nil {
		return nil, fmt.Errorf("encoding magnitudes: %w", err)
	}
	table, err := json.Marshal(r.Forecast.Rows)
	if err != nil {
		return nil, fmt.Errorf("encoding forecast table: %w", err)
	}
	p := r.Forecast.Params
	return &forecastModel{
		ID:            r.ID,
		GUID:          r.GUID,
		EventID:       r.Mainshock.ID,
		Place:         r.Mainshock.Place,
		MainshockTime: r.Mainshock.Time.Unix(),
		MainshockMag:  r.Mainshock.Mag,
		MainshockLat:  r.Mainshock.Lat,
		MainshockLon:  r.Mainshock.Lon,
		A:             p.A,
		B:             p.B,
		P:             p.P,
		C:             p.C,
		Mc:            p.Mc,
		N:             p.N,
		StartDays:     r.Forecast.Query.StartDays,
		Durations:     string(durations),
		Magnitudes:    string(magnitudes),
		Table:         string(table),
		CreatedAt:     r.CreatedAt.Unix(),
	}, nil
}

func (m *forecastModel) toDomain() (*history.Record, error) {
	r := &history.Record{
		ID:   m.ID,
		GUID: m.GUID,
		Mainshock: quake.Mainshock{
			ID:    m.EventID,
			Place: m.Place,
			Time:  time.Unix(m.MainshockTime, 0).UTC(),
			Mag:   m.MainshockMag,
			Lat:   m.MainshockLat,
			Lon:   m.MainshockLon,
		},
		CreatedAt: time.Unix(m.CreatedAt, 0).UTC(),
	}
	r.Forecast.Params = quake.RJParams{
		A: m.A, B: m.B, P: m.P, C: m.C, Mc: m.Mc, N: m.N, MainshockMag: m.MainshockMag,
	}
	r.Forecast.Query.StartDays = m.StartDays
	if err := json.Unmarshal([]byte(m.Durations), &r.Forecast.Query.Durations); err != nil {
		return nil, fmt.Errorf("decoding durations of %s: %w", m.GUID, err)
	}
	if err := json.Unmarshal([]byte(m.Magnitudes), &r.Forecast.Query.Magnitudes); err != nil {
		return nil, fmt.Errorf("decoding magnitudes of %s: %w", m.GUID, err)
	}
	if err := json.Unmarshal([]byte(m.Table), &r.Forecast.Rows); err != nil {
		return nil, fmt.Errorf("decoding forecast table of %s: %w", m.GUID, err)
	}
	return r, nil
}

func scanForecast(scanner interface{ Scan(...any) error }) (*forecastModel, error) {
	var m forecastModel
	err := scanner.Scan(
		&m.ID, &m.GUID, &m.EventID, &m.Place, &m.MainshockTime, &m.MainshockMag, &m.MainshockLat, &m.MainshockLon,
		&m.A, &m.B, &m.P, &m.C, &m.Mc, &m.N, &m.StartDays, &m.Durations, &m.Magnitudes, &m.Table, &m.CreatedAt,
	)
	return &m, err
}

type forecastRepository struct {
	db *sql.DB
}

var _ history.Repository = (*forecastRepository)(nil)

func newForecastRepository(db *sql.DB) *forecastRepository {
	return &forecastRepository{db: db}
}

// Save inserts the record and sets its ID.
func (r *forecastRepository) Save(rec *history.Record) error {
	if rec.ID != 0 {
		return fmt.Errorf("forecast %s is already saved", rec.GUID)
	}
	m, err := toForecastModel(rec)
	if err != nil {
		return err
	}
	result, err := r.db.Exec(
		`INSERT INTO forecasts (
			guid, event_id, place, mainshock_time, mainshock_mag, mainshock_lat, mainshock_lon,
			a, b, p, c, mc, n, start_days, durations, magnitudes, table_json, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.GUID, m.EventID, m.Place, m.MainshockTime, m.MainshockMag, m.MainshockLat, m.MainshockLon,
		m.A, m.B, m.P, m.C, m.Mc, m.N, m.StartDays, m.Durations, m.Magnitudes, m.Table, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert forecast: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	rec.ID = id
	return nil
}

// List returns the newest records first.
func (r *forecastRepository) List(limit int) ([]*history.Record, error) {
	query := `SELECT ` + forecastColumns + ` FROM forecasts ORDER BY created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list forecasts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*history.Record
	for rows.Next() {
		m, err := scanForecast(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan forecast: %w", err)
		}
		rec, err := m.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list forecasts: %w", err)
	}
	return out, nil
}

// FindByGUID returns the record with the given GUID.
func (r *forecastRepository) FindByGUID(guid string) (*history.Record, error) {
	row := r.db.QueryRow(`SELECT `+forecastColumns+` FROM forecasts WHERE guid = ?`, guid)
	m, err := scanForecast(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &history.NotFoundError{GUID: guid}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find forecast: %w", err)
	}
	return m.toDomain()
}
