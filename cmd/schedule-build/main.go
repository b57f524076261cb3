package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/danielpatrickdp/morty-express/internal/missionlog"
	"github.com/danielpatrickdp/morty-express/internal/planet"
)

// #region file-format

type scheduleFile struct {
	GeneratedAt string          `json:"generated_at"`
	Schedule    []scheduleEntry `json:"schedule"`
}

type scheduleEntry struct {
	StepNumber         int                `json:"step_number"`
	Planet             int                `json:"planet"`
	AverageSuccessRate float64            `json:"average_success_rate"`
	PlanetRates        map[string]float64 `json:"planet_rates"`
}

// #endregion file-format

// #region main

func main() {
	dbPath := flag.String("db", "", "mission log database with recorded probe runs")
	outPath := flag.String("out", "planet_schedule.json", "schedule JSON to write")
	minAttempts := flag.Int("min-attempts", 1, "skip (step, planet) cells with fewer samples")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: schedule-build --db path/to/morty_express.db [--out file] [--min-attempts N]")
		os.Exit(2)
	}

	db, err := missionlog.Open(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	store, err := missionlog.NewStore(db)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	rates, err := store.StepRates()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	entries := buildEntries(rates, *minAttempts)
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "no usable step data in the database")
		os.Exit(1)
	}

	out := scheduleFile{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Schedule:    entries,
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode schedule: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*outPath, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", *outPath, err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %d schedule entries to %s\n", len(entries), *outPath)
}

// #endregion main

// #region build

// buildEntries picks, for each step position with data, the planet with the
// best pooled survival rate, recording every planet's measured rate.
func buildEntries(rates []missionlog.StepRate, minAttempts int) []scheduleEntry {
	type cell struct {
		rates    map[string]float64
		best     planet.ID
		bestRate float64
		seen     bool
	}
	byStep := make(map[int]*cell)
	maxStep := 0

	for _, sr := range rates {
		if sr.Attempts < minAttempts {
			continue
		}
		c, ok := byStep[sr.Step]
		if !ok {
			c = &cell{rates: make(map[string]float64), bestRate: -1}
			byStep[sr.Step] = c
		}
		rate := sr.Rate()
		c.rates[strconv.Itoa(int(sr.Planet))] = rate
		if rate > c.bestRate {
			c.bestRate = rate
			c.best = sr.Planet
			c.seen = true
		}
		if sr.Step > maxStep {
			maxStep = sr.Step
		}
	}

	var out []scheduleEntry
	for step := 1; step <= maxStep; step++ {
		c, ok := byStep[step]
		if !ok || !c.seen {
			continue
		}
		out = append(out, scheduleEntry{
			StepNumber:         step,
			Planet:             int(c.best),
			AverageSuccessRate: c.bestRate,
			PlanetRates:        c.rates,
		})
	}
	return out
}

// #endregion build
