package policy

import (
	"testing"

	"github.com/danielpatrickdp/morty-express/internal/planet"
	"github.com/danielpatrickdp/morty-express/internal/schedule"
)

func TestChooseCountBounds(t *testing.T) {
	for id, cfg := range Policies() {
		h := newHarness(cfg, nil)
		for trip := 1; trip <= 400; trip += 13 {
			for _, remaining := range []int{0, 1, 2, 3, 57, 1000} {
				for _, p := range planet.All {
					n := h.sel.ChooseCount(p, trip, remaining)
					if remaining <= 0 {
						if n != 0 {
							t.Fatalf("policy %s: count %d with empty pool", id, n)
						}
						continue
					}
					max := MaxBatch
					if remaining < max {
						max = remaining
					}
					if n < 1 || n > max {
						t.Fatalf("policy %s trip %d remaining %d: count %d out of [1,%d]",
							id, trip, remaining, n, max)
					}
				}
			}
			h.tracker.Record(planet.Purge, trip%3 != 0)
		}
	}
}

func TestChooseCountFlat(t *testing.T) {
	h := newHarness(minimalConfig(), nil)
	if n := h.sel.ChooseCount(planet.Purge, 300, 1000); n != 3 {
		t.Fatalf("flat count = %d, want 3", n)
	}
	if n := h.sel.ChooseCount(planet.Purge, 300, 2); n != 2 {
		t.Fatalf("flat count with pool 2 = %d, want 2", n)
	}
}

func TestChooseCountFlatUntilThreshold(t *testing.T) {
	cfg := minimalConfig()
	cfg.Payload = AggressivePayload()
	h := newHarness(cfg, nil)
	// Terrible recent results, but still inside the flat opening.
	h.record(planet.Cronenberg, false, 10)
	if n := h.sel.ChooseCount(planet.Cronenberg, 150, 1000); n != 3 {
		t.Fatalf("count at trip 150 = %d, want flat 3", n)
	}
	if n := h.sel.ChooseCount(planet.Cronenberg, 151, 1000); n != 1 {
		t.Fatalf("count at trip 151 = %d, want tiered 1", n)
	}
}

func TestChooseCountTiers(t *testing.T) {
	cfg := minimalConfig()
	cfg.Payload = AggressivePayload()

	cases := []struct {
		successes, failures int
		want                int
	}{
		{3, 2, 3}, // 60% ≥ 52
		{1, 1, 2}, // 50% in [44, 52)
		{3, 7, 1}, // 30% < 44
	}
	for _, c := range cases {
		h := newHarness(cfg, nil)
		h.record(planet.Cronenberg, true, c.successes)
		h.record(planet.Cronenberg, false, c.failures)
		if n := h.sel.ChooseCount(planet.Cronenberg, 200, 1000); n != c.want {
			t.Fatalf("%d/%d: count = %d, want %d",
				c.successes, c.successes+c.failures, n, c.want)
		}
	}
}

func TestChooseCountConservativeTiers(t *testing.T) {
	cfg := Policies()[PolicyDynamic]
	if cfg.Payload.FlatOnly || cfg.Payload.FlatUntil != 60 {
		t.Fatalf("dynamic payload = %+v, want conservative tiering", cfg.Payload)
	}

	// The flat opening ends at 60 completed trips, earlier than the
	// aggressive profile's 150.
	h := newHarness(cfg, nil)
	h.record(planet.Cronenberg, false, 10)
	if n := h.sel.ChooseCount(planet.Cronenberg, 60, 1000); n != 3 {
		t.Fatalf("count at trip 60 = %d, want flat 3", n)
	}
	if n := h.sel.ChooseCount(planet.Cronenberg, 61, 1000); n != 1 {
		t.Fatalf("count at trip 61 = %d, want tiered 1", n)
	}

	cases := []struct {
		successes, failures int
		want                int
	}{
		{6, 4, 3}, // 60% ≥ 55
		{1, 1, 2}, // 50% in [45, 55)
		{3, 7, 1}, // 30% < 45
	}
	for _, c := range cases {
		h := newHarness(cfg, nil)
		h.record(planet.Cronenberg, true, c.successes)
		h.record(planet.Cronenberg, false, c.failures)
		if n := h.sel.ChooseCount(planet.Cronenberg, 100, 1000); n != c.want {
			t.Fatalf("%d/%d: count = %d, want %d",
				c.successes, c.successes+c.failures, n, c.want)
		}
	}

	// Purge caps at 2 from 120 completed trips; a weak On-a-Cob gets one
	// batch slot back from 180.
	h2 := newHarness(cfg, nil)
	h2.record(planet.Purge, true, 10)
	if n := h2.sel.ChooseCount(planet.Purge, 120, 1000); n != 3 {
		t.Fatalf("pre-cap Purge count = %d, want 3", n)
	}
	if n := h2.sel.ChooseCount(planet.Purge, 121, 1000); n != 2 {
		t.Fatalf("late Purge count = %d, want capped 2", n)
	}
	h2.record(planet.OnACob, true, 3)
	h2.record(planet.OnACob, false, 7) // 30% → tier 1
	if n := h2.sel.ChooseCount(planet.OnACob, 181, 1000); n != 2 {
		t.Fatalf("late On-a-Cob count = %d, want boosted 2", n)
	}
}

func TestChooseCountLateCapAndBoost(t *testing.T) {
	cfg := minimalConfig()
	cfg.Payload = AggressivePayload()
	h := newHarness(cfg, nil)

	// Purge is capped at 2 from trip 122 even inside the flat opening.
	if n := h.sel.ChooseCount(planet.Purge, 122, 1000); n != 2 {
		t.Fatalf("late Purge count = %d, want capped 2", n)
	}
	if n := h.sel.ChooseCount(planet.Purge, 121, 1000); n != 3 {
		t.Fatalf("pre-cap Purge count = %d, want 3", n)
	}

	// On-a-Cob gets pushed back up by one late in the run.
	h.record(planet.OnACob, true, 3)
	h.record(planet.OnACob, false, 7) // 30% → tier 1
	if n := h.sel.ChooseCount(planet.OnACob, 202, 1000); n != 2 {
		t.Fatalf("late On-a-Cob count = %d, want boosted 2", n)
	}
}

func TestChooseCountScheduleOverride(t *testing.T) {
	entries := []schedule.Entry{
		{Step: 200, Planet: planet.Purge, AverageRate: 80},
	}
	cfg := Policies()[PolicyScheduleGuided]
	h := newHarness(cfg, entries)

	// Predicted rate says 1, but the schedule is highly confident in
	// this exact planet: force the full batch.
	h.record(planet.Purge, true, 3)
	h.record(planet.Purge, false, 7)
	if n := h.sel.ChooseCount(planet.Purge, 200, 1000); n != 3 {
		t.Fatalf("high-override count = %d, want 3", n)
	}

	// A weak schedule position caps an otherwise-full batch at 2.
	low := []schedule.Entry{
		{Step: 200, Planet: planet.Purge, AverageRate: 40},
	}
	h2 := newHarness(cfg, low)
	h2.record(planet.Cronenberg, true, 6)
	h2.record(planet.Cronenberg, false, 4) // 60% → tier 3
	if n := h2.sel.ChooseCount(planet.Cronenberg, 200, 1000); n != 2 {
		t.Fatalf("low-override count = %d, want 2", n)
	}
}

func TestChooseCountPhaseOverrideUsesRange(t *testing.T) {
	entries := []schedule.Entry{
		{Step: 200, Planet: planet.Purge, AverageRate: 70},
		{Step: 201, Planet: planet.Purge, AverageRate: 70},
		{Step: 202, Planet: planet.Purge, AverageRate: 70},
	}
	cfg := Policies()[PolicySchedulePhase]
	h := newHarness(cfg, entries)

	h.record(planet.Purge, true, 3)
	h.record(planet.Purge, false, 7) // 30% → tier 1
	// Range average 70 ≥ 65 and the range's planet matches: full batch.
	if n := h.sel.ChooseCount(planet.Purge, 201, 1000); n != 3 {
		t.Fatalf("phase-override count = %d, want 3", n)
	}
}
