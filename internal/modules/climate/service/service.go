package service

import (
	"context"
	"log/slog"

	"climate-server/internal/modules/climate/repository"
	"climate-server/internal/modules/climate/types"
)

// windowDays is the length of the "last year" window ending at the last date.
const windowDays = 365

var routes = []types.Route{
	{Path: "/api/v1.0/precipitation", Description: "Precipitation by date for the last year of data"},
	{Path: "/api/v1.0/stations", Description: "Names of all weather stations"},
	{Path: "/api/v1.0/tobs", Description: "Temperature observations of the most active station for the last year of data"},
	{Path: "/api/v1.0/<start>", Description: "Min, average and max temperature from start (YYYY-MM-DD) onwards"},
	{Path: "/api/v1.0/<start>/<end>", Description: "Min, average and max temperature between start and end (YYYY-MM-DD), inclusive"},
}

// Service answers climate queries. Each call runs in its own read session.
type Service struct {
	store repository.Store
}

func NewService(store repository.Store) *Service {
	return &Service{store: store}
}

// Welcome lists the available routes.
func (s *Service) Welcome() []types.Route {
	out := make([]types.Route, len(routes))
	copy(out, routes)
	return out
}

// Precipitation maps date to precipitation for the year ending at the last
// recorded date. Readings from several stations on the same date collapse
// into one entry; the last row read wins.
func (s *Service) Precipitation(ctx context.Context) (map[string]*float64, error) {
	sess, err := s.store.Session(ctx)
	if err != nil {
		return nil, err
	}
	defer closeSession(sess, "precipitation")

	last, err := sess.LastDate(ctx)
	if err != nil {
		return nil, err
	}
	readings, err := sess.PrecipitationSince(ctx, last.AddDate(0, 0, -windowDays))
	if err != nil {
		return nil, err
	}

	out := make(map[string]*float64, len(readings))
	for _, r := range readings {
		out[r.Date] = r.Precipitation
	}
	return out, nil
}

func (s *Service) Stations(ctx context.Context) ([]string, error) {
	sess, err := s.store.Session(ctx)
	if err != nil {
		return nil, err
	}
	defer closeSession(sess, "stations")

	return sess.StationNames(ctx)
}

// TemperatureObservations returns the last year of temperature observations
// of the station with the most measurements.
func (s *Service) TemperatureObservations(ctx context.Context) ([]types.TemperatureObservation, error) {
	sess, err := s.store.Session(ctx)
	if err != nil {
		return nil, err
	}
	defer closeSession(sess, "tobs")

	station, err := sess.MostActiveStation(ctx)
	if err != nil {
		return nil, err
	}
	last, err := sess.LastDate(ctx)
	if err != nil {
		return nil, err
	}
	return sess.TemperatureObservationsSince(ctx, station, last.AddDate(0, 0, -windowDays))
}

// TemperatureRange summarises tobs from start, up to end when given. Dates are
// passed through unvalidated; a range with no measurements yields null
// aggregates.
func (s *Service) TemperatureRange(ctx context.Context, start string, end *string) (types.TemperatureSummary, error) {
	sess, err := s.store.Session(ctx)
	if err != nil {
		return types.TemperatureSummary{}, err
	}
	defer closeSession(sess, "temperature range")

	stats, err := sess.TemperatureStats(ctx, start, end)
	if err != nil {
		return types.TemperatureSummary{}, err
	}
	return types.TemperatureSummary{
		StartDate:      start,
		EndDate:        end,
		MinTemperature: stats.Min,
		AvgTemperature: stats.Avg,
		MaxTemperature: stats.Max,
	}, nil
}

func closeSession(sess repository.Session, op string) {
	if err := sess.Close(); err != nil {
		slog.Error("close session failed", "op", op, "error", err)
	}
}
