package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"

	"climate-server/internal/config"
)

const AppName = "climate-server"

// New returns the process logger: colourised tint output for dev builds,
// JSON lines for anything stamped with a real version.
func New(cfg config.Config, version string) *slog.Logger {
	return newWithWriter(os.Stdout, cfg, version)
}

func newWithWriter(w io.Writer, cfg config.Config, version string) *slog.Logger {
	if version == "dev" {
		h := tint.NewHandler(w, &tint.Options{
			Level:      cfg.LogLevel,
			AddSource:  true,
			TimeFormat: time.Kitchen,
			NoColor:    cfg.AppEnv == "prod",
		})
		return slog.New(h).With("app", AppName)
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	})
	return slog.New(h).With(
		"app", AppName,
		"version", version,
		"env", cfg.AppEnv,
	)
}
