package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/morty-express/internal/planet"
	"github.com/danielpatrickdp/morty-express/internal/replay"
)

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "path to replay fixture JSON")
	verbose := flag.Bool("v", false, "print every trip")
	flag.Parse()

	if *fixturePath == "" {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.json [-v]")
		os.Exit(2)
	}

	f, err := replay.LoadFixture(*fixturePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	res, sum, err := replay.Replay(context.Background(), f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if f.Description != "" {
		fmt.Printf("Fixture: %s\n", f.Description)
	}
	fmt.Printf("Policy:  %s\n", f.Policy)

	if *verbose {
		for _, tr := range res.Log {
			mark := "LOST"
			if tr.Survived {
				mark = "ok"
			}
			fmt.Printf("  step %3d  %-12s x%d  %-4s  remaining=%d\n",
				tr.Step, tr.Planet, tr.Count, mark, tr.Remaining)
		}
	}

	fmt.Printf("\nDelivered: %d  Lost: %d  Trips: %d\n", sum.Delivered, sum.Lost, sum.Trips)
	for _, p := range planet.All {
		fmt.Printf("  %-12s %4d trips  %4d survived\n", p, sum.Attempts[p], sum.Successes[p])
	}

	if !sum.Matched() {
		fmt.Println("\nMismatches:")
		for _, m := range sum.Mismatches {
			fmt.Printf("  - %s\n", m)
		}
		os.Exit(1)
	}
	if f.Expected != nil {
		fmt.Println("\nAll expectations met.")
	}
}

// #endregion main
