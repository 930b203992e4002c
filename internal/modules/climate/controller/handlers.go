package controller

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"

	"climate-server/internal/modules/climate/repository"
	"climate-server/internal/modules/climate/views"
	"climate-server/internal/utils"
)

const (
	welcomeTitle      = "Hawaii Climate API"
	welcomeDateFormat = "YYYY-MM-DD"
)

func (c *climateControllerImpl) handleWelcome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	data := &views.WelcomeData{
		Title:      welcomeTitle,
		Routes:     c.service.Welcome(),
		DateFormat: welcomeDateFormat,
	}
	var buf bytes.Buffer
	if err := views.RenderWelcome(&buf, data); err != nil {
		slog.Error("welcome template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	utils.WriteHTML(w, http.StatusOK, buf.Bytes())
}

func (c *climateControllerImpl) handlePrecipitation(w http.ResponseWriter, r *http.Request) {
	prcp, err := c.service.Precipitation(r.Context())
	if err != nil {
		writeQueryError(w, "precipitation", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, prcp)
}

func (c *climateControllerImpl) handleStations(w http.ResponseWriter, r *http.Request) {
	names, err := c.service.Stations(r.Context())
	if err != nil {
		writeQueryError(w, "stations", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, names)
}

func (c *climateControllerImpl) handleTemperatureObservations(w http.ResponseWriter, r *http.Request) {
	obs, err := c.service.TemperatureObservations(r.Context())
	if err != nil {
		writeQueryError(w, "tobs", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, obs)
}

func (c *climateControllerImpl) handleTemperatureFrom(w http.ResponseWriter, r *http.Request) {
	summary, err := c.service.TemperatureRange(r.Context(), r.PathValue("start"), nil)
	if err != nil {
		writeQueryError(w, "temperature range", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, summary)
}

func (c *climateControllerImpl) handleTemperatureBetween(w http.ResponseWriter, r *http.Request) {
	end := r.PathValue("end")
	summary, err := c.service.TemperatureRange(r.Context(), r.PathValue("start"), &end)
	if err != nil {
		writeQueryError(w, "temperature range", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, summary)
}

func writeQueryError(w http.ResponseWriter, op string, err error) {
	slog.Error(op+" failed", "error", err)
	if errors.Is(err, repository.ErrEmptyDataset) {
		utils.WriteError(w, http.StatusInternalServerError, "no measurements available")
		return
	}
	utils.WriteError(w, http.StatusInternalServerError, "query failed")
}
