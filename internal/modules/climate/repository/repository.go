package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"climate-server/internal/modules/climate/types"
)

//go:embed sql/last-date.sql
var lastDateSQL string

//go:embed sql/precipitation-since.sql
var precipitationSinceSQL string

//go:embed sql/station-names.sql
var stationNamesSQL string

//go:embed sql/most-active-station.sql
var mostActiveStationSQL string

//go:embed sql/temperature-observations-since.sql
var temperatureObservationsSinceSQL string

//go:embed sql/temperature-stats-from.sql
var temperatureStatsFromSQL string

//go:embed sql/temperature-stats-between.sql
var temperatureStatsBetweenSQL string

var (
	// ErrEmptyDataset means an anchor (last date, most active station) was
	// requested from a measurement table with no rows.
	ErrEmptyDataset = errors.New("no measurements in dataset")
	// ErrQuery wraps any failure reported by the data source.
	ErrQuery = errors.New("query failed")
)

// Store hands out read sessions against the dataset.
type Store interface {
	Session(ctx context.Context) (Session, error)
}

// Session is one read-only unit of work. Close must be called on every path.
type Session interface {
	LastDate(ctx context.Context) (time.Time, error)
	PrecipitationSince(ctx context.Context, since time.Time) ([]types.PrecipitationReading, error)
	StationNames(ctx context.Context) ([]string, error)
	MostActiveStation(ctx context.Context) (string, error)
	TemperatureObservationsSince(ctx context.Context, station string, since time.Time) ([]types.TemperatureObservation, error)
	TemperatureStats(ctx context.Context, start string, end *string) (types.TemperatureStats, error)
	Close() error
}

type storeImpl struct {
	db *sql.DB
}

func NewStore(db *sql.DB) Store {
	return &storeImpl{db: db}
}

// Session opens a read-only transaction so that every query of one operation
// sees the same snapshot.
func (s *storeImpl) Session(ctx context.Context) (Session, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, queryError("begin session", err)
	}
	return &sessionImpl{tx: tx}, nil
}

type sessionImpl struct {
	tx *sql.Tx
}

func (s *sessionImpl) Close() error {
	err := s.tx.Rollback()
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

func (s *sessionImpl) LastDate(ctx context.Context) (time.Time, error) {
	var last sql.NullString
	if err := s.tx.QueryRowContext(ctx, lastDateSQL).Scan(&last); err != nil {
		return time.Time{}, queryError("last date", err)
	}
	if !last.Valid {
		return time.Time{}, ErrEmptyDataset
	}
	t, err := time.Parse(types.DateLayout, last.String)
	if err != nil {
		return time.Time{}, queryError("parse last date", err)
	}
	return t, nil
}

func (s *sessionImpl) PrecipitationSince(ctx context.Context, since time.Time) ([]types.PrecipitationReading, error) {
	rows, err := s.tx.QueryContext(ctx, precipitationSinceSQL, since.Format(types.DateLayout))
	if err != nil {
		return nil, queryError("precipitation", err)
	}
	defer closeRows(rows, "precipitation")

	out := []types.PrecipitationReading{}
	for rows.Next() {
		var (
			rec  types.PrecipitationReading
			prcp sql.NullFloat64
		)
		if err := rows.Scan(&rec.Date, &prcp); err != nil {
			return nil, queryError("scan precipitation", err)
		}
		rec.Precipitation = nullFloat(prcp)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("precipitation rows", err)
	}
	return out, nil
}

func (s *sessionImpl) StationNames(ctx context.Context) ([]string, error) {
	rows, err := s.tx.QueryContext(ctx, stationNamesSQL)
	if err != nil {
		return nil, queryError("station names", err)
	}
	defer closeRows(rows, "station names")

	out := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, queryError("scan station name", err)
		}
		out = append(out, name)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("station names rows", err)
	}
	return out, nil
}

func (s *sessionImpl) MostActiveStation(ctx context.Context) (string, error) {
	var (
		station string
		count   int
	)
	err := s.tx.QueryRowContext(ctx, mostActiveStationSQL).Scan(&station, &count)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrEmptyDataset
	}
	if err != nil {
		return "", queryError("most active station", err)
	}
	return station, nil
}

func (s *sessionImpl) TemperatureObservationsSince(ctx context.Context, station string, since time.Time) ([]types.TemperatureObservation, error) {
	rows, err := s.tx.QueryContext(ctx, temperatureObservationsSinceSQL, station, since.Format(types.DateLayout))
	if err != nil {
		return nil, queryError("temperature observations", err)
	}
	defer closeRows(rows, "temperature observations")

	out := []types.TemperatureObservation{}
	for rows.Next() {
		var rec types.TemperatureObservation
		if err := rows.Scan(&rec.Date, &rec.Temperature); err != nil {
			return nil, queryError("scan temperature observation", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("temperature observations rows", err)
	}
	return out, nil
}

// TemperatureStats aggregates tobs over date >= start and, when end is set,
// date <= end. Both bounds are inclusive and compared as stored text.
func (s *sessionImpl) TemperatureStats(ctx context.Context, start string, end *string) (types.TemperatureStats, error) {
	var row *sql.Row
	if end == nil {
		row = s.tx.QueryRowContext(ctx, temperatureStatsFromSQL, start)
	} else {
		row = s.tx.QueryRowContext(ctx, temperatureStatsBetweenSQL, start, *end)
	}

	var lo, avg, hi sql.NullFloat64
	if err := row.Scan(&lo, &avg, &hi); err != nil {
		return types.TemperatureStats{}, queryError("temperature stats", err)
	}
	return types.TemperatureStats{
		Min: nullFloat(lo),
		Avg: nullFloat(avg),
		Max: nullFloat(hi),
	}, nil
}

func queryError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrQuery, op, err)
}

func closeRows(rows *sql.Rows, what string) {
	if err := rows.Close(); err != nil {
		slog.Error("close "+what+" rows", "error", err)
	}
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
