// Package datasettest builds throwaway climate databases for tests.
package datasettest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"climate-server/internal/config"
	"climate-server/internal/dataset"
	"climate-server/internal/db"
	"climate-server/internal/migrate"
	"climate-server/internal/modules/climate/types"
)

// Path creates a migrated, seeded sqlite file under t.TempDir and returns its path.
func Path(t testing.TB, stations []types.Station, measurements []types.Measurement) string {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "hawaii.sqlite")

	rw, err := db.Open(config.Config{Driver: "sqlite3", Path: path, MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("open writable dataset: %v", err)
	}
	defer func() {
		if err := db.Close(rw); err != nil {
			t.Fatalf("close writable dataset: %v", err)
		}
	}()

	if _, err := migrate.Run(ctx, rw); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := dataset.InsertStations(ctx, rw, stations); err != nil {
		t.Fatalf("insert stations: %v", err)
	}
	if err := dataset.InsertMeasurements(ctx, rw, measurements); err != nil {
		t.Fatalf("insert measurements: %v", err)
	}
	return path
}

// Open seeds a dataset like Path and reopens it read-only, the way the
// service does. The handle is closed on test cleanup.
func Open(t testing.TB, stations []types.Station, measurements []types.Measurement) *sql.DB {
	t.Helper()
	path := Path(t, stations, measurements)

	ro, err := db.Open(config.Config{Driver: "sqlite3", Path: path, ReadOnly: true, MaxOpenConns: 4, MaxIdleConns: 4})
	if err != nil {
		t.Fatalf("open read-only dataset: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(ro); err != nil {
			t.Errorf("close read-only dataset: %v", err)
		}
	})
	return ro
}

// Station returns a station fixture with the given code and name.
func Station(code, name string) types.Station {
	return types.Station{Station: code, Name: name, Latitude: 21.27, Longitude: -157.82, Elevation: 3}
}

// Measurement returns a measurement fixture; prcp may be nil.
func Measurement(station, date string, prcp *float64, tobs float64) types.Measurement {
	return types.Measurement{Station: station, Date: date, Precipitation: prcp, Temperature: tobs}
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
