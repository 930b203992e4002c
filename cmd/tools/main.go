// Command tools prepares a local climate dataset: it applies the schema
// migrations and imports the station and measurement CSV exports.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"climate-server/internal/config"
	"climate-server/internal/dataset"
	"climate-server/internal/db"
	"climate-server/internal/logging"
	"climate-server/internal/migrate"
)

const usage = `usage: %s <command>
  migrate                               apply pending schema migrations
  import <stations.csv> <measurements.csv>  migrate, then load both CSV exports
`

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, usage, os.Args[0])
		os.Exit(2)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	cfg.ReadOnly = false
	cfg.MaxOpenConns = 1
	slog.SetDefault(logging.New(cfg, "dev"))

	if err := run(context.Background(), cfg, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, args []string) error {
	switch args[0] {
	case "migrate", "import":
	default:
		return fmt.Errorf("unknown command (want migrate or import)")
	}
	if args[0] == "import" && len(args) != 3 {
		return errors.New("import needs <stations.csv> <measurements.csv>")
	}

	conn, err := db.Open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(conn); closeErr != nil {
			slog.Error("db close", "err", closeErr)
		}
	}()

	applied, err := migrate.Run(ctx, conn)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		fmt.Println("schema up to date")
	} else {
		fmt.Printf("migrations applied: %s\n", strings.Join(applied, ", "))
	}
	if args[0] == "migrate" {
		return nil
	}

	stations, err := os.Open(args[1])
	if err != nil {
		return err
	}
	defer stations.Close()
	measurements, err := os.Open(args[2])
	if err != nil {
		return err
	}
	defer measurements.Close()

	ns, nm, err := dataset.Import(ctx, conn, stations, measurements)
	if err != nil {
		return err
	}
	fmt.Printf("imported %d stations, %d measurements\n", ns, nm)
	return nil
}
