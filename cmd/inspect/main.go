package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/danielpatrickdp/morty-express/internal/mission"
	"github.com/danielpatrickdp/morty-express/internal/missionlog"
	"github.com/danielpatrickdp/morty-express/internal/planet"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to morty_express.db")
	last := flag.Int("last", 20, "show N most recent runs")
	runID := flag.String("run", "", "show one run's trip log")
	jsonOut := flag.Bool("json", false, "output as JSON instead of tables")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/morty_express.db [--last N] [--run id] [--json]")
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

	if *runID != "" {
		err = runDetailMode(store, *runID, *jsonOut)
	} else {
		err = runListMode(store, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listOutput struct {
	Runs       []missionlog.RunSummary `json:"runs"`
	BestPolicy string                  `json:"best_policy,omitempty"`
	BestScore  float64                 `json:"best_score,omitempty"`
	Planets    []planetRow             `json:"planets"`
}

type planetRow struct {
	Planet    string  `json:"planet"`
	Attempts  int     `json:"attempts"`
	Successes int     `json:"successes"`
	Rate      float64 `json:"rate"`
}

func runListMode(store *missionlog.Store, last int, jsonOut bool) error {
	runs, err := store.Runs(last)
	if err != nil {
		return err
	}
	stats, err := store.PlanetStats()
	if err != nil {
		return err
	}
	bestID, bestScore, err := store.BestPolicy()
	if err != nil {
		return err
	}

	out := listOutput{Runs: runs, BestPolicy: string(bestID), BestScore: bestScore}
	for _, ps := range stats {
		out.Planets = append(out.Planets, planetRow{
			Planet:    ps.Planet.String(),
			Attempts:  ps.Attempts,
			Successes: ps.Successes,
			Rate:      ps.Rate(),
		})
	}
	if jsonOut {
		return printJSON(out)
	}

	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "no runs found")
		return nil
	}

	fmt.Printf("%-10s  %-22s  %9s  %5s  %5s  %8s  %s\n",
		"Run", "Policy", "Delivered", "Lost", "Trips", "Time", "Created")
	for _, r := range runs {
		fmt.Printf("%-10s  %-22s  %9d  %5d  %5d  %8s  %s\n",
			shortID(r.RunID), r.Policy, r.Delivered, r.Lost, r.Trips,
			r.Duration.Round(time.Second), r.CreatedAt.Format("2006-01-02 15:04"))
	}

	fmt.Println("\nPlanet totals (all runs):")
	for _, pr := range out.Planets {
		fmt.Printf("  %-12s %6d trips  %5.1f%%\n", pr.Planet, pr.Attempts, pr.Rate)
	}

	if bestID != "" {
		fmt.Printf("\nBest policy (decay-weighted): %s (%.1f delivered)\n", bestID, bestScore)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

func runDetailMode(store *missionlog.Store, runID string, jsonOut bool) error {
	trips, err := store.Trips(runID)
	if err != nil {
		return err
	}
	if len(trips) == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	if jsonOut {
		return printJSON(trips)
	}

	fmt.Printf("%5s  %-12s  %5s  %-8s  %9s  %9s  %5s\n",
		"Step", "Planet", "Count", "Outcome", "Remaining", "Delivered", "Lost")
	for _, tr := range trips {
		outcome := "lost"
		if tr.Survived {
			outcome = "survived"
		}
		fmt.Printf("%5d  %-12s  %5d  %-8s  %9d  %9d  %5d\n",
			tr.Step, tr.Planet, tr.Count, outcome, tr.Remaining, tr.Delivered, tr.Lost)
	}
	summarizeTrips(trips)
	return nil
}

func summarizeTrips(trips []mission.Trip) {
	var attempts, successes [planet.Count]int
	for _, tr := range trips {
		attempts[tr.Planet]++
		if tr.Survived {
			successes[tr.Planet]++
		}
	}
	fmt.Println("\nPer planet:")
	for _, p := range planet.All {
		rate := 0.0
		if attempts[p] > 0 {
			rate = float64(successes[p]) / float64(attempts[p]) * 100
		}
		fmt.Printf("  %-12s %4d trips  %5.1f%%\n", p, attempts[p], rate)
	}
}

// #endregion detail-mode

// #region output

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion output
