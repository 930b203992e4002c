// Package dataset loads station and measurement CSV exports into the climate
// database. It backs the developer tools and test fixtures; the HTTP service
// opens the database read-only and never imports it.
//
// Expected headers (column order is free, extra columns are ignored):
//
//	stations:     station,name,latitude,longitude,elevation
//	measurements: station,date,prcp,tobs
//
// An empty prcp cell is stored as NULL.
package dataset

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"climate-server/internal/modules/climate/types"
)

var (
	stationColumns     = []string{"station", "name", "latitude", "longitude", "elevation"}
	measurementColumns = []string{"station", "date", "prcp", "tobs"}
)

const (
	insertStationSQL     = `INSERT INTO station (station, name, latitude, longitude, elevation) VALUES (?, ?, ?, ?, ?)`
	insertMeasurementSQL = `INSERT INTO measurement (station, date, prcp, tobs) VALUES (?, ?, ?, ?)`
)

// ReadStations parses a station CSV export.
func ReadStations(r io.Reader) ([]types.Station, error) {
	var out []types.Station
	err := readCSV(r, stationColumns, func(line int, get func(string) string) error {
		lat, err := parseFloat(get("latitude"))
		if err != nil {
			return fmt.Errorf("line %d: latitude: %w", line, err)
		}
		lon, err := parseFloat(get("longitude"))
		if err != nil {
			return fmt.Errorf("line %d: longitude: %w", line, err)
		}
		elev, err := parseFloat(get("elevation"))
		if err != nil {
			return fmt.Errorf("line %d: elevation: %w", line, err)
		}
		code := get("station")
		if code == "" {
			return fmt.Errorf("line %d: empty station code", line)
		}
		out = append(out, types.Station{
			Station:   code,
			Name:      get("name"),
			Latitude:  lat,
			Longitude: lon,
			Elevation: elev,
		})
		return nil
	})
	return out, err
}

// ReadMeasurements parses a measurement CSV export. Dates must be YYYY-MM-DD
// so that text comparison in SQL matches calendar order.
func ReadMeasurements(r io.Reader) ([]types.Measurement, error) {
	var out []types.Measurement
	err := readCSV(r, measurementColumns, func(line int, get func(string) string) error {
		date := get("date")
		if _, err := time.Parse(types.DateLayout, date); err != nil {
			return fmt.Errorf("line %d: date %q: %w", line, date, err)
		}
		var prcp *float64
		if s := get("prcp"); s != "" {
			v, err := parseFloat(s)
			if err != nil {
				return fmt.Errorf("line %d: prcp: %w", line, err)
			}
			prcp = &v
		}
		tobs, err := parseFloat(get("tobs"))
		if err != nil {
			return fmt.Errorf("line %d: tobs: %w", line, err)
		}
		out = append(out, types.Measurement{
			Station:       get("station"),
			Date:          date,
			Precipitation: prcp,
			Temperature:   tobs,
		})
		return nil
	})
	return out, err
}

// InsertStations writes stations in one transaction, in slice order.
func InsertStations(ctx context.Context, db *sql.DB, stations []types.Station) error {
	return insertAll(ctx, db, insertStationSQL, len(stations), func(i int) []any {
		s := stations[i]
		return []any{s.Station, s.Name, s.Latitude, s.Longitude, s.Elevation}
	})
}

// InsertMeasurements writes measurements in one transaction, in slice order.
func InsertMeasurements(ctx context.Context, db *sql.DB, measurements []types.Measurement) error {
	return insertAll(ctx, db, insertMeasurementSQL, len(measurements), func(i int) []any {
		m := measurements[i]
		var prcp any
		if m.Precipitation != nil {
			prcp = *m.Precipitation
		}
		return []any{m.Station, m.Date, prcp, m.Temperature}
	})
}

// Import reads both exports and loads them, stations first so measurement
// foreign keys resolve.
func Import(ctx context.Context, db *sql.DB, stationsCSV, measurementsCSV io.Reader) (int, int, error) {
	stations, err := ReadStations(stationsCSV)
	if err != nil {
		return 0, 0, fmt.Errorf("read stations: %w", err)
	}
	measurements, err := ReadMeasurements(measurementsCSV)
	if err != nil {
		return 0, 0, fmt.Errorf("read measurements: %w", err)
	}
	if err := InsertStations(ctx, db, stations); err != nil {
		return 0, 0, fmt.Errorf("insert stations: %w", err)
	}
	if err := InsertMeasurements(ctx, db, measurements); err != nil {
		return len(stations), 0, fmt.Errorf("insert measurements: %w", err)
	}
	return len(stations), len(measurements), nil
}

func insertAll(ctx context.Context, db *sql.DB, query string, n int, args func(int) []any) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	return tx.Commit()
}

func readCSV(r io.Reader, required []string, row func(line int, get func(string) string) error) error {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return errors.New("empty csv: missing header")
	}
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return fmt.Errorf("missing column %q", col)
		}
	}

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		get := func(col string) string {
			return strings.TrimSpace(rec[index[col]])
		}
		if err := row(line, get); err != nil {
			return err
		}
	}
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
