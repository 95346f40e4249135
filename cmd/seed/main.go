// Command seed loads the bundled region, city, district and barangay
// hierarchy. Rows are upserted by id, so running it twice is harmless.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/votehubph/backend/internal/config"
	"github.com/votehubph/backend/internal/database"
	"github.com/votehubph/backend/internal/logger"
)

func main() {
	batch := flag.Int("batch", 100, "rows per insert")
	quiet := flag.Bool("quiet", false, "hide the progress bar")
	flag.Parse()

	l := logger.Setup()
	cfg, err := config.Load()
	if err != nil {
		l.Error("config_error", "err", err)
		os.Exit(1)
	}

	data, err := database.DefaultSeed()
	if err != nil {
		l.Error("seed_parse_error", "err", err)
		os.Exit(1)
	}

	db, err := database.New(cfg)
	if err != nil {
		l.Error("db_open_error", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	var progress func(int)
	if !*quiet {
		bar := progressbar.NewOptions(data.Total(),
			progressbar.OptionSetDescription("seeding locations"),
			progressbar.OptionSetWidth(50),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionShowCount(),
			progressbar.OptionOnCompletion(func() {
				fmt.Println()
			}),
		)
		progress = func(n int) { _ = bar.Add(n) }
	}

	start := time.Now()
	if err := database.Seed(context.Background(), db.GetDB(), data, *batch, progress); err != nil {
		l.Error("seed_error", "err", err)
		os.Exit(1)
	}
	l.Info("seed_done",
		"regions", len(data.Regions),
		"cities", len(data.Cities),
		"districts", len(data.Districts),
		"barangays", len(data.Barangays),
		"elapsed", time.Since(start).Round(time.Millisecond))
}
