package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/danielpatrickdp/morty-express/internal/planet"
	"github.com/danielpatrickdp/morty-express/internal/policy"
	"github.com/danielpatrickdp/morty-express/internal/schedule"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a recorded episode: the
// policy to run, an optional schedule, the scripted per-step outcomes, and
// the expected end-of-run totals.
type Fixture struct {
	Description     string                 `json:"description"`
	Policy          string                 `json:"policy"`
	Pool            int                    `json:"pool,omitempty"`
	Schedule        []FixtureScheduleEntry `json:"schedule,omitempty"`
	Outcomes        []FixtureOutcome       `json:"outcomes,omitempty"`
	DefaultSurvived bool                   `json:"default_survived"`
	Expected        *FixtureExpected       `json:"expected,omitempty"`
}

// FixtureScheduleEntry mirrors the schedule file's entry shape with JSON tags.
type FixtureScheduleEntry struct {
	StepNumber  int                `json:"step_number"`
	Planet      int                `json:"planet"`
	AverageRate float64            `json:"average_success_rate"`
	PlanetRates map[string]float64 `json:"planet_rates,omitempty"`
}

// FixtureOutcome scripts one step: whichever planet the policy picks at
// that step resolves per the survived map. Steps with no entry fall back to
// the fixture default.
type FixtureOutcome struct {
	Step     int             `json:"step"`
	Survived map[string]bool `json:"survived"`
}

// FixtureExpected captures the expected end-of-run totals.
type FixtureExpected struct {
	Delivered int `json:"delivered"`
	Lost      int `json:"lost"`
	Trips     int `json:"trips"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("fixture %s: %w", path, err)
	}
	return &f, nil
}

func (f *Fixture) validate() error {
	if _, ok := policy.Policies()[policy.PolicyID(f.Policy)]; !ok {
		return fmt.Errorf("unknown policy %q", f.Policy)
	}
	for _, e := range f.Schedule {
		if !planet.ID(e.Planet).Valid() {
			return fmt.Errorf("schedule step %d: invalid planet %d", e.StepNumber, e.Planet)
		}
	}
	return nil
}

// PolicyConfig resolves the fixture's policy preset.
func (f *Fixture) PolicyConfig() policy.Config {
	return policy.Policies()[policy.PolicyID(f.Policy)]
}

// ScheduleIndex builds the schedule index embedded in the fixture.
func (f *Fixture) ScheduleIndex() *schedule.Index {
	entries := make([]schedule.Entry, 0, len(f.Schedule))
	for _, fe := range f.Schedule {
		e := schedule.Entry{
			Step:        fe.StepNumber,
			Planet:      planet.ID(fe.Planet),
			AverageRate: fe.AverageRate,
		}
		for k, v := range fe.PlanetRates {
			if idx, err := strconv.Atoi(k); err == nil && planet.ID(idx).Valid() {
				e.Rates[planet.ID(idx)] = v
			}
		}
		entries = append(entries, e)
	}
	return schedule.NewIndex(entries)
}

// Script converts the fixture outcomes into the simulator's script form.
func (f *Fixture) Script() *Script {
	sc := &Script{Default: f.DefaultSurvived, steps: make(map[int][planet.Count]bool)}
	for _, o := range f.Outcomes {
		var row [planet.Count]bool
		for p := range row {
			row[p] = f.DefaultSurvived
		}
		for k, v := range o.Survived {
			if idx, err := strconv.Atoi(k); err == nil && planet.ID(idx).Valid() {
				row[idx] = v
			}
		}
		sc.steps[o.Step] = row
	}
	return sc
}

// #endregion fixture-loader
