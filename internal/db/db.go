package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"climate-server/internal/config"

	_ "github.com/mattn/go-sqlite3"
)

// ErrDatasetMissing is returned when a read-only open targets a file that does not exist.
var ErrDatasetMissing = errors.New("dataset file not found")

func Open(cfg config.Config) (*sql.DB, error) {
	dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, err
	}

	var db *sql.DB
	if cfg.LogSQL {
		connector, err := NewLoggingConnector(dsn, slog.Default())
		if err != nil {
			return nil, fmt.Errorf("db connector: %w", err)
		}
		db = sql.OpenDB(connector)
	} else {
		db, err = sql.Open(cfg.Driver, dsn)
		if err != nil {
			return nil, fmt.Errorf("db open: %w", err)
		}
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns >= 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	return db, nil
}

func Close(db *sql.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}

// buildDSN turns the configured target into a go-sqlite3 DSN. An explicit
// DSN is used verbatim only for writable opens; read-only opens of either
// DSN or Path get mode=ro and must point at an existing file.
func buildDSN(cfg config.Config) (string, error) {
	if cfg.ReadOnly {
		target := cfg.Path
		if cfg.DSN != "" {
			target = cfg.DSN
		}
		return readOnlyDSN(target)
	}
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}

	path := cfg.Path
	dir := filepath.Dir(path)
	if dir != "." && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	// rollback journal (not WAL) keeps the file openable with mode=ro afterwards
	params := []string{
		"_foreign_keys=on",
		"_busy_timeout=5000",
		"_journal_mode=DELETE",
	}
	if strings.HasPrefix(path, "file:") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return path + sep + strings.Join(params, "&"), nil
	}
	return fmt.Sprintf("file:%s?%s", path, strings.Join(params, "&")), nil
}

// readOnlyDSN accepts a plain path or a file: URI with optional query.
// sqlite would otherwise create an empty database on first open, so the file
// is checked before any connection is made.
func readOnlyDSN(target string) (string, error) {
	file, rawQuery, _ := strings.Cut(strings.TrimPrefix(target, "file:"), "?")
	if _, err := os.Stat(file); err != nil {
		if errors.Is(err, os.ErrNotExist) || file == "" {
			return "", fmt.Errorf("%w: %s", ErrDatasetMissing, target)
		}
		return "", fmt.Errorf("stat %s: %w", file, err)
	}

	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "", fmt.Errorf("parse dsn query %q: %w", rawQuery, err)
	}
	var params []string
	if rawQuery != "" {
		params = append(params, rawQuery)
	}
	switch mode := query.Get("mode"); mode {
	case "":
		params = append(params, "mode=ro")
	case "ro":
	default:
		return "", fmt.Errorf("dsn mode=%s conflicts with a read-only open", mode)
	}
	if !query.Has("_busy_timeout") {
		params = append(params, "_busy_timeout=5000")
	}
	return "file:" + file + "?" + strings.Join(params, "&"), nil
}
