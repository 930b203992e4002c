package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"climate-server/internal/config"
	"climate-server/internal/db"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestRun_Import(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Config{Driver: "sqlite3", Path: filepath.Join(dir, "hawaii.sqlite"), MaxOpenConns: 1}
	stations := writeFile(t, dir, "hawaii_stations.csv",
		"station,name,latitude,longitude,elevation\n"+
			"USC00519397,\"WAIKIKI 717.2, HI US\",21.2716,-157.8168,3\n")
	measurements := writeFile(t, dir, "hawaii_measurements.csv",
		"station,date,prcp,tobs\n"+
			"USC00519397,2010-01-01,0.08,65\n"+
			"USC00519397,2010-01-02,,63\n")

	ctx := context.Background()
	if err := run(ctx, cfg, []string{"migrate"}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := run(ctx, cfg, []string{"import", stations, measurements}); err != nil {
		t.Fatalf("import: %v", err)
	}

	cfg.ReadOnly = true
	conn, err := db.Open(cfg)
	if err != nil {
		t.Fatalf("open read-only: %v", err)
	}
	defer db.Close(conn)

	var n, nulls int
	if err := conn.QueryRow(`SELECT COUNT(*), SUM(prcp IS NULL) FROM measurement`).Scan(&n, &nulls); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 || nulls != 1 {
		t.Errorf("measurements = %d (null prcp %d); want 2 (1)", n, nulls)
	}
}

func TestRun_BadArgs(t *testing.T) {
	cfg := config.Config{Driver: "sqlite3", Path: filepath.Join(t.TempDir(), "x.sqlite")}
	tests := [][]string{
		{"seed"},
		{"import", "only-one.csv"},
	}
	for _, args := range tests {
		if err := run(context.Background(), cfg, args); err == nil {
			t.Errorf("run(%v) = nil; want error", args)
		}
	}
	if _, err := os.Stat(cfg.Path); !os.IsNotExist(err) {
		t.Errorf("bad arguments must not create the database")
	}
}
