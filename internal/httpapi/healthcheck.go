package httpapi

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"climate-server/internal/utils"
)

const healthcheckTimeout = 2 * time.Second

// rowQuerier is the part of *sql.DB the probe needs.
type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type healthchecker struct {
	db rowQuerier
}

// handleHealthz runs a trivial query against the dataset handle. A read-only
// handle that cannot answer SELECT 1 in time is reported as unhealthy.
func (h healthchecker) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthcheckTimeout)
	defer cancel()

	var one int
	if err := h.db.QueryRowContext(ctx, `SELECT 1`).Scan(&one); err != nil || one != 1 {
		slog.Error("dataset health check failed", "error", err, "result", one)
		utils.WriteError(w, http.StatusInternalServerError, "dataset unavailable")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func registerHealthcheck(mux *http.ServeMux, db rowQuerier) {
	mux.HandleFunc("GET /healthz", healthchecker{db: db}.handleHealthz)
}
