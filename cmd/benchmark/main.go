package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/danielpatrickdp/morty-express/internal/bench"
	"github.com/danielpatrickdp/morty-express/internal/mission"
	"github.com/danielpatrickdp/morty-express/internal/missionlog"
	"github.com/danielpatrickdp/morty-express/internal/planet"
	"github.com/danielpatrickdp/morty-express/internal/policy"
	"github.com/danielpatrickdp/morty-express/internal/replay"
	"github.com/danielpatrickdp/morty-express/internal/schedule"
)

// #region main

func main() {
	policyFlag := flag.String("policy", "all", "policy to benchmark, or 'all'")
	runs := flag.Int("runs", 10, "runs per policy")
	workers := flag.Int("workers", 4, "parallel runs")
	seed := flag.Int64("seed", 1, "base seed for the simulated world")
	schedulePath := flag.String("schedule", "", "schedule JSON driving the simulated rates")
	dbPath := flag.String("db", "", "persist runs to this mission log database")
	flag.Parse()

	sched, err := schedule.Load(*schedulePath)
	if *schedulePath != "" && err != nil {
		log.Printf("schedule %s unusable, using flat rates: %v", *schedulePath, err)
	}

	var store *missionlog.Store
	if *dbPath != "" {
		db, err := missionlog.Open(*dbPath)
		if err != nil {
			log.Fatalf("open mission log: %v", err)
		}
		defer db.Close()
		if store, err = missionlog.NewStore(db); err != nil {
			log.Fatalf("mission log schema: %v", err)
		}
	}

	targets := selectPolicies(*policyFlag)
	if len(targets) == 0 {
		fmt.Fprintf(os.Stderr, "unknown policy %q\n", *policyFlag)
		os.Exit(2)
	}

	rate := worldRates(sched)
	fmt.Printf("%-22s %6s %8s %8s %8s %8s %7s\n",
		"Policy", "Runs", "Mean", "Median", "Stdev", "±95%", "Best")
	for _, cfg := range targets {
		b := &bench.Benchmark{
			Policy: cfg,
			Sched:  sched,
			NewClient: func(run int) mission.Client {
				return replay.NewSimulator(replay.NewRateModel(*seed+int64(run), rate))
			},
			Store:       store,
			Concurrency: *workers,
		}
		report, err := b.Run(context.Background(), *runs)
		if err != nil {
			log.Fatalf("benchmark %s: %v", cfg.ID, err)
		}
		st := report.Stats
		fmt.Printf("%-22s %6d %8.1f %8.1f %8.1f %8.1f %7d\n",
			cfg.ID, st.Runs, st.Mean, st.Median, st.Stdev, st.Margin95, st.Best)
	}
}

// #endregion main

// #region world

// worldRates builds the simulated survival rates: the schedule's measured
// per-step rates when available, otherwise a flat baseline with Purge
// strong early and On-a-Cob improving late.
func worldRates(sched *schedule.Index) func(step int, p planet.ID) float64 {
	return func(step int, p planet.ID) float64 {
		if sched != nil {
			if e, ok := sched.EntryAt(step); ok && e.Rates[p] > 0 {
				return e.Rates[p]
			}
		}
		switch p {
		case planet.Purge:
			if step < 150 {
				return 82
			}
			return 48
		case planet.Cronenberg:
			return 56
		default:
			if step >= 150 {
				return 68
			}
			return 38
		}
	}
}

// #endregion world

// #region helpers

func selectPolicies(name string) []policy.Config {
	all := policy.Policies()
	if name != "all" {
		cfg, ok := all[policy.PolicyID(name)]
		if !ok {
			return nil
		}
		return []policy.Config{cfg}
	}
	out := make([]policy.Config, 0, len(all))
	for _, cfg := range all {
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// #endregion helpers
