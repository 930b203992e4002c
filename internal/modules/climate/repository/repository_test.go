package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"climate-server/internal/dataset/datasettest"
	"climate-server/internal/modules/climate/repository"
	"climate-server/internal/modules/climate/types"
)

const (
	waihee  = "USC00519281"
	waikiki = "USC00519397"
	kaneohe = "USC00513117"
)

var f = datasettest.Float

func fixtureStations() []types.Station {
	return []types.Station{
		datasettest.Station(waikiki, "WAIKIKI 717.2, HI US"),
		datasettest.Station(kaneohe, "KANEOHE 838.1, HI US"),
		datasettest.Station(waihee, "WAIHEE 837.5, HI US"),
	}
}

func fixtureMeasurements() []types.Measurement {
	return []types.Measurement{
		datasettest.Measurement(waihee, "2016-08-22", f(0.5), 77),
		datasettest.Measurement(waihee, "2016-08-23", f(0.1), 76),
		datasettest.Measurement(waikiki, "2016-08-23", nil, 81),
		datasettest.Measurement(waihee, "2017-01-10", f(0), 60),
		datasettest.Measurement(waihee, "2017-01-20", nil, 65),
		datasettest.Measurement(kaneohe, "2017-01-31", f(0.02), 70),
		datasettest.Measurement(waihee, "2017-08-23", f(0.45), 79),
		datasettest.Measurement(kaneohe, "2017-08-23", f(0), 82),
	}
}

func openSession(t *testing.T, stations []types.Station, measurements []types.Measurement) repository.Session {
	t.Helper()
	store := repository.NewStore(datasettest.Open(t, stations, measurements))
	sess, err := store.Session(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, sess.Close()) })
	return sess
}

func day(s string) time.Time {
	t, err := time.Parse(types.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestLastDate(t *testing.T) {
	ctx := context.Background()

	t.Run("max over all stations", func(t *testing.T) {
		sess := openSession(t, fixtureStations(), fixtureMeasurements())
		got, err := sess.LastDate(ctx)
		require.NoError(t, err)
		assert.Equal(t, day("2017-08-23"), got)
	})

	t.Run("empty dataset", func(t *testing.T) {
		sess := openSession(t, fixtureStations(), nil)
		_, err := sess.LastDate(ctx)
		assert.ErrorIs(t, err, repository.ErrEmptyDataset)
	})
}

func TestPrecipitationSince(t *testing.T) {
	ctx := context.Background()
	sess := openSession(t, fixtureStations(), fixtureMeasurements())

	got, err := sess.PrecipitationSince(ctx, day("2016-08-23"))
	require.NoError(t, err)

	dates := make([]string, 0, len(got))
	for _, r := range got {
		dates = append(dates, r.Date)
		assert.GreaterOrEqual(t, r.Date, "2016-08-23")
	}
	assert.Equal(t, []string{
		"2016-08-23", "2016-08-23", "2017-01-10", "2017-01-20", "2017-01-31", "2017-08-23", "2017-08-23",
	}, dates, "rows come back in table order")

	require.NotNil(t, got[0].Precipitation)
	assert.InDelta(t, 0.1, *got[0].Precipitation, 1e-9)
	assert.Nil(t, got[1].Precipitation, "missing prcp stays null")
}

func TestStationNames(t *testing.T) {
	ctx := context.Background()

	t.Run("row order", func(t *testing.T) {
		sess := openSession(t, fixtureStations(), nil)
		got, err := sess.StationNames(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"WAIKIKI 717.2, HI US", "KANEOHE 838.1, HI US", "WAIHEE 837.5, HI US"}, got)
	})

	t.Run("no stations is an empty slice", func(t *testing.T) {
		sess := openSession(t, nil, nil)
		got, err := sess.StationNames(ctx)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestMostActiveStation(t *testing.T) {
	ctx := context.Background()

	t.Run("highest count wins", func(t *testing.T) {
		sess := openSession(t, fixtureStations(), fixtureMeasurements())
		got, err := sess.MostActiveStation(ctx)
		require.NoError(t, err)
		assert.Equal(t, waihee, got)
	})

	t.Run("tie resolves to lowest station code", func(t *testing.T) {
		ms := []types.Measurement{
			datasettest.Measurement(waikiki, "2017-01-01", nil, 70),
			datasettest.Measurement(kaneohe, "2017-01-01", nil, 71),
			datasettest.Measurement(waikiki, "2017-01-02", nil, 72),
			datasettest.Measurement(kaneohe, "2017-01-02", nil, 73),
		}
		sess := openSession(t, fixtureStations(), ms)
		got, err := sess.MostActiveStation(ctx)
		require.NoError(t, err)
		assert.Equal(t, kaneohe, got)
	})

	t.Run("empty dataset", func(t *testing.T) {
		sess := openSession(t, fixtureStations(), nil)
		_, err := sess.MostActiveStation(ctx)
		assert.ErrorIs(t, err, repository.ErrEmptyDataset)
	})
}

func TestTemperatureObservationsSince(t *testing.T) {
	ctx := context.Background()
	sess := openSession(t, fixtureStations(), fixtureMeasurements())

	got, err := sess.TemperatureObservationsSince(ctx, waihee, day("2016-08-23"))
	require.NoError(t, err)
	assert.Equal(t, []types.TemperatureObservation{
		{Date: "2016-08-23", Temperature: 76},
		{Date: "2017-01-10", Temperature: 60},
		{Date: "2017-01-20", Temperature: 65},
		{Date: "2017-08-23", Temperature: 79},
	}, got)

	none, err := sess.TemperatureObservationsSince(ctx, "UNKNOWN", day("2016-08-23"))
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestTemperatureStats(t *testing.T) {
	ctx := context.Background()
	sess := openSession(t, fixtureStations(), fixtureMeasurements())
	str := func(s string) *string { return &s }

	t.Run("inclusive range", func(t *testing.T) {
		got, err := sess.TemperatureStats(ctx, "2017-01-01", str("2017-01-31"))
		require.NoError(t, err)
		require.NotNil(t, got.Min)
		require.NotNil(t, got.Avg)
		require.NotNil(t, got.Max)
		assert.InDelta(t, 60.0, *got.Min, 1e-9)
		assert.InDelta(t, 65.0, *got.Avg, 1e-9)
		assert.InDelta(t, 70.0, *got.Max, 1e-9)
	})

	t.Run("open-ended", func(t *testing.T) {
		got, err := sess.TemperatureStats(ctx, "2017-08-23", nil)
		require.NoError(t, err)
		require.NotNil(t, got.Min)
		assert.InDelta(t, 79.0, *got.Min, 1e-9)
		assert.InDelta(t, 80.5, *got.Avg, 1e-9)
		assert.InDelta(t, 82.0, *got.Max, 1e-9)
	})

	t.Run("no matching rows gives null aggregates", func(t *testing.T) {
		got, err := sess.TemperatureStats(ctx, "2018-01-01", str("2018-12-31"))
		require.NoError(t, err)
		assert.Nil(t, got.Min)
		assert.Nil(t, got.Avg)
		assert.Nil(t, got.Max)
	})

	t.Run("malformed start compares as text", func(t *testing.T) {
		got, err := sess.TemperatureStats(ctx, "not-a-date", nil)
		require.NoError(t, err)
		assert.Nil(t, got.Avg)
	})
}

func TestSession_CloseTwice(t *testing.T) {
	store := repository.NewStore(datasettest.Open(t, nil, nil))
	sess, err := store.Session(context.Background())
	require.NoError(t, err)
	require.NoError(t, sess.Close())
	assert.NoError(t, sess.Close())
}

func TestStore_DriverFailures(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk I/O error")

	t.Run("begin", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		mock.ExpectBegin().WillReturnError(boom)

		_, err = repository.NewStore(db).Session(ctx)
		assert.ErrorIs(t, err, repository.ErrQuery)
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	tests := []struct {
		name   string
		expect func(mock sqlmock.Sqlmock)
		call   func(sess repository.Session) error
	}{
		{
			name: "last date",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT MAX\(date\) FROM measurement`).WillReturnError(boom)
			},
			call: func(sess repository.Session) error {
				_, err := sess.LastDate(ctx)
				return err
			},
		},
		{
			name: "unparseable last date",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT MAX\(date\) FROM measurement`).
					WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow("23/08/2017"))
			},
			call: func(sess repository.Session) error {
				_, err := sess.LastDate(ctx)
				return err
			},
		},
		{
			name: "precipitation",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT date, prcp`).WithArgs("2016-08-23").WillReturnError(boom)
			},
			call: func(sess repository.Session) error {
				_, err := sess.PrecipitationSince(ctx, day("2016-08-23"))
				return err
			},
		},
		{
			name: "precipitation row error",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT date, prcp`).WillReturnRows(
					sqlmock.NewRows([]string{"date", "prcp"}).
						AddRow("2016-08-23", 0.1).
						RowError(0, boom))
			},
			call: func(sess repository.Session) error {
				_, err := sess.PrecipitationSince(ctx, day("2016-08-23"))
				return err
			},
		},
		{
			name: "station names",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT name`).WillReturnError(boom)
			},
			call: func(sess repository.Session) error {
				_, err := sess.StationNames(ctx)
				return err
			},
		},
		{
			name: "most active station",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`GROUP BY station`).WillReturnError(boom)
			},
			call: func(sess repository.Session) error {
				_, err := sess.MostActiveStation(ctx)
				return err
			},
		},
		{
			name: "temperature observations",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT date, tobs`).WithArgs(waihee, "2016-08-23").WillReturnError(boom)
			},
			call: func(sess repository.Session) error {
				_, err := sess.TemperatureObservationsSince(ctx, waihee, day("2016-08-23"))
				return err
			},
		},
		{
			name: "temperature stats",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT MIN\(tobs\), AVG\(tobs\), MAX\(tobs\)`).WithArgs("2017-01-01").WillReturnError(boom)
			},
			call: func(sess repository.Session) error {
				_, err := sess.TemperatureStats(ctx, "2017-01-01", nil)
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			mock.ExpectBegin()
			tt.expect(mock)
			mock.ExpectRollback()

			sess, err := repository.NewStore(db).Session(ctx)
			require.NoError(t, err)

			err = tt.call(sess)
			assert.ErrorIs(t, err, repository.ErrQuery)
			assert.NotErrorIs(t, err, repository.ErrEmptyDataset)

			require.NoError(t, sess.Close())
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
