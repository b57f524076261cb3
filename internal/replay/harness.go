package replay

import (
	"context"
	"fmt"

	"github.com/danielpatrickdp/morty-express/internal/mission"
	"github.com/danielpatrickdp/morty-express/internal/planet"
)

// #region types

// Summary aggregates one replayed episode: totals, per-planet usage, and
// any mismatches against the fixture's expected results.
type Summary struct {
	Delivered int
	Lost      int
	Trips     int

	Attempts  [planet.Count]int
	Successes [planet.Count]int

	Mismatches []string
}

// Matched reports whether the episode met every expectation in the fixture.
func (s Summary) Matched() bool {
	return len(s.Mismatches) == 0
}

// #endregion types

// #region replay

// Replay runs a fixture's policy through the full driver pipeline against
// the scripted simulator and checks the outcome against the fixture's
// expectations. Operates entirely in-memory.
func Replay(ctx context.Context, f *Fixture) (*mission.Result, Summary, error) {
	sim := NewSimulator(f.Script())
	if f.Pool > 0 {
		sim = NewSimulatorWithPool(f.Script(), f.Pool)
	}

	driver := mission.NewDriver(sim, f.PolicyConfig(), f.ScheduleIndex())
	res, err := driver.Run(ctx)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("replay %q: %w", f.Description, err)
	}
	return res, summarize(res, f.Expected), nil
}

func summarize(res *mission.Result, want *FixtureExpected) Summary {
	s := Summary{
		Delivered: res.Delivered,
		Lost:      res.Lost,
		Trips:     res.Trips,
	}
	for _, tr := range res.Log {
		s.Attempts[tr.Planet]++
		if tr.Survived {
			s.Successes[tr.Planet]++
		}
	}

	if want == nil {
		return s
	}
	if want.Delivered != 0 && res.Delivered != want.Delivered {
		s.Mismatches = append(s.Mismatches,
			fmt.Sprintf("delivered %d, expected %d", res.Delivered, want.Delivered))
	}
	if want.Lost != 0 && res.Lost != want.Lost {
		s.Mismatches = append(s.Mismatches,
			fmt.Sprintf("lost %d, expected %d", res.Lost, want.Lost))
	}
	if want.Trips != 0 && res.Trips != want.Trips {
		s.Mismatches = append(s.Mismatches,
			fmt.Sprintf("trips %d, expected %d", res.Trips, want.Trips))
	}
	return s
}

// #endregion replay
