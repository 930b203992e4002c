package types

// DateLayout is the storage and wire format of measurement dates.
const DateLayout = "2006-01-02"

// Station is one row of the station table.
type Station struct {
	ID        int64   `json:"id"`
	Station   string  `json:"station"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Elevation float64 `json:"elevation"`
}

// Measurement is one dated observation. Precipitation is nil when the
// station reported no value for that day.
type Measurement struct {
	ID            int64    `json:"id"`
	Station       string   `json:"station"`
	Date          string   `json:"date"`
	Precipitation *float64 `json:"prcp"`
	Temperature   float64  `json:"tobs"`
}

// PrecipitationReading is a (date, prcp) row of the last-year window.
type PrecipitationReading struct {
	Date          string
	Precipitation *float64
}

// TemperatureObservation is one element of the tobs response.
type TemperatureObservation struct {
	Date        string  `json:"date"`
	Temperature float64 `json:"temperature"`
}

// TemperatureStats holds MIN/AVG/MAX over a date range; each is nil when no
// measurement matched.
type TemperatureStats struct {
	Min *float64
	Avg *float64
	Max *float64
}

// TemperatureSummary is the response of the start and start/end routes.
type TemperatureSummary struct {
	StartDate      string   `json:"start_date"`
	EndDate        *string  `json:"end_date"`
	MinTemperature *float64 `json:"min_temperature"`
	AvgTemperature *float64 `json:"avg_temperature"`
	MaxTemperature *float64 `json:"max_temperature"`
}

// Route describes one entry of the welcome page.
type Route struct {
	Path        string
	Description string
}
