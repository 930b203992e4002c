package httpapi

import (
	"net/http"
	"time"

	"climate-server/internal/config"
)

// Handler wraps mux with request ids, access logging and metrics.
func Handler(mux *http.ServeMux, metrics *Metrics) http.Handler {
	return requestID(requestLogger(metrics.instrument(mux)))
}

func NewServer(cfg config.Config, mux *http.ServeMux, metrics *Metrics) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           Handler(mux, metrics),
		ReadHeaderTimeout: 5 * time.Second,
	}
}
