package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/danielpatrickdp/morty-express/internal/citadel"
	"github.com/danielpatrickdp/morty-express/internal/mission"
	"github.com/danielpatrickdp/morty-express/internal/missionlog"
	"github.com/danielpatrickdp/morty-express/internal/planet"
	"github.com/danielpatrickdp/morty-express/internal/policy"
	"github.com/danielpatrickdp/morty-express/internal/schedule"
)

// #region main
func main() {
	policyFlag := flag.String("policy", string(policy.PolicyTransitionEnforcer), "routing policy to run")
	logEvery := flag.Int("log-every", 25, "progress line every N trips (0 disables)")
	tokenName := flag.String("request-token", "", "request an API token for this name and exit (needs -email)")
	tokenEmail := flag.String("email", "", "email address for -request-token")
	flag.Parse()

	token := os.Getenv("MORTY_TOKEN")
	baseURL := envOr("MORTY_BASE_URL", "https://challenge.sphinxhq.com")
	dbPath := envOr("MORTY_DB", "morty_express.db")
	schedulePath := envOr("MORTY_SCHEDULE", "planet_schedule.json")

	if *tokenName != "" {
		if *tokenEmail == "" {
			log.Fatal("-request-token needs -email")
		}
		requestToken(baseURL, *tokenName, *tokenEmail)
		return
	}

	cfg, ok := policy.Policies()[policy.PolicyID(*policyFlag)]
	if !ok {
		log.Fatalf("unknown policy %q", *policyFlag)
	}

	// Schedule load is fail-soft: a missing or malformed file leaves the
	// schedule-coupled rules inert.
	sched, err := schedule.Load(schedulePath)
	if err != nil {
		log.Printf("schedule %s unusable, continuing without: %v", schedulePath, err)
	}

	ccfg := citadel.DefaultConfig()
	ccfg.BaseURL = baseURL
	ccfg.Token = token
	client, err := citadel.NewClient(ccfg)
	if err != nil {
		log.Fatalf("citadel client: %v", err)
	}

	db, err := missionlog.Open(dbPath)
	if err != nil {
		log.Fatalf("open mission log: %v", err)
	}
	defer db.Close()
	store, err := missionlog.NewStore(db)
	if err != nil {
		log.Fatalf("mission log schema: %v", err)
	}

	fmt.Printf("Morty Express ready.\n")
	fmt.Printf("  Policy: %s | DB: %s | Service: %s\n", cfg.ID, dbPath, baseURL)

	driver := mission.NewDriver(client, cfg, sched)
	driver.LogEvery = *logEvery

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	res, err := driver.Run(ctx)
	if err != nil {
		log.Fatalf("run aborted: %v", err)
	}
	if err := store.RecordRun(res); err != nil {
		log.Printf("failed to persist run %s: %v", res.RunID, err)
	}

	printResult(res)
}

// #endregion main

// #region output

func printResult(res *mission.Result) {
	fmt.Printf("\nRun %s complete (%s, %s)\n", res.RunID, res.Policy, res.Duration.Round(time.Second))
	fmt.Printf("  Delivered: %d\n", res.Delivered)
	fmt.Printf("  Lost:      %d\n", res.Lost)
	fmt.Printf("  Trips:     %d\n", res.Trips)

	var attempts, successes [planet.Count]int
	for _, tr := range res.Log {
		attempts[tr.Planet]++
		if tr.Survived {
			successes[tr.Planet]++
		}
	}
	fmt.Println("  Per planet:")
	for _, p := range planet.All {
		rate := 0.0
		if attempts[p] > 0 {
			rate = float64(successes[p]) / float64(attempts[p]) * 100
		}
		fmt.Printf("    %-12s %4d trips  %5.1f%%\n", p, attempts[p], rate)
	}
}

// #endregion output

// #region helpers

// requestToken runs the unauthenticated token-issuance flow and prints the
// service's reply.
func requestToken(baseURL, name, email string) {
	ccfg := citadel.DefaultConfig()
	ccfg.BaseURL = baseURL
	client, err := citadel.NewUnauthenticatedClient(ccfg)
	if err != nil {
		log.Fatalf("citadel client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), ccfg.Timeout)
	defer cancel()

	msg, err := client.RequestToken(ctx, name, email)
	if err != nil {
		log.Fatalf("request token: %v", err)
	}
	fmt.Println(msg)
	fmt.Println("Set MORTY_TOKEN once the token arrives.")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
