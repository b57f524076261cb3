package schedule

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/danielpatrickdp/morty-express/internal/planet"
)

// #region json-schema

// scheduleSchema constrains the probe-generated schedule file. Planet ids
// and rates outside their domains are rejected before any entry is indexed.
const scheduleSchema = `{
	"type": "object",
	"required": ["schedule"],
	"properties": {
		"schedule": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["step_number", "planet"],
				"properties": {
					"step_number": {"type": "integer", "minimum": 1},
					"planet": {"type": "integer", "minimum": 0, "maximum": 2},
					"average_success_rate": {"type": "number", "minimum": 0, "maximum": 100},
					"planet_rates": {
						"type": "object",
						"additionalProperties": {"type": "number", "minimum": 0, "maximum": 100}
					}
				}
			}
		}
	}
}`

var compiledSchema = jsonschema.MustCompileString("planet_schedule.json", scheduleSchema)

// #endregion

// #region index

// Index is the process-wide read-only schedule table: trip position → best
// planet plus per-planet rates, with precomputed maximal same-planet ranges.
// Construct once at startup and inject it into the policy engine.
type Index struct {
	entries map[int]Entry
	maxStep int
	ranges  []Range
}

// NewIndex builds an index from already-parsed entries. Used by tests and
// by the schedule builder; Load is the file-backed path.
func NewIndex(entries []Entry) *Index {
	idx := &Index{entries: make(map[int]Entry, len(entries))}
	for _, e := range entries {
		idx.entries[e.Step] = e
		if e.Step > idx.maxStep {
			idx.maxStep = e.Step
		}
	}
	idx.ranges = buildRanges(idx.entries)
	return idx
}

// Load reads and validates a schedule file. It always returns a usable
// index: when the file is missing, malformed, or fails schema validation
// the index is empty and the error describes why, so callers can log a
// warning and continue.
func Load(path string) (*Index, error) {
	empty := NewIndex(nil)
	if path == "" {
		return empty, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return empty, nil
		}
		return empty, fmt.Errorf("read schedule %s: %w", path, err)
	}

	var doc interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return empty, fmt.Errorf("parse schedule %s: %w", path, err)
	}
	if err := compiledSchema.Validate(doc); err != nil {
		return empty, fmt.Errorf("validate schedule %s: %w", path, err)
	}

	var f fileSchedule
	if err := json.Unmarshal(data, &f); err != nil {
		return empty, fmt.Errorf("parse schedule %s: %w", path, err)
	}

	entries := make([]Entry, 0, len(f.Schedule))
	for _, fe := range f.Schedule {
		e := Entry{
			Step:        fe.StepNumber,
			Planet:      planet.ID(fe.Planet),
			AverageRate: fe.AverageSuccessRate,
		}
		for key, rate := range fe.PlanetRates {
			idx, err := strconv.Atoi(key)
			if err != nil || !planet.ID(idx).Valid() {
				continue
			}
			e.Rates[idx] = rate
		}
		entries = append(entries, e)
	}
	return NewIndex(entries), nil
}

// #endregion

// #region lookups

// Len returns the number of indexed trip positions.
func (x *Index) Len() int {
	return len(x.entries)
}

// MaxStep returns the highest indexed trip position, 0 when empty.
func (x *Index) MaxStep() int {
	return x.maxStep
}

// EntryAt returns the entry for a trip position: an exact match when
// present, otherwise the entry at the maximum known position. The bool is
// false only when the table is empty. The beyond-range fallback is
// deliberate: the probe data covers a fixed horizon and the tail entry is
// the best available estimate past it.
func (x *Index) EntryAt(step int) (Entry, bool) {
	if len(x.entries) == 0 {
		return Entry{}, false
	}
	if e, ok := x.entries[step]; ok {
		return e, true
	}
	return x.entries[x.maxStep], true
}

// RankedAt returns the planets at a position ordered by observed rate,
// highest first. The sort is stable, so equal rates keep planet index
// order.
func (x *Index) RankedAt(step int) []Ranked {
	e, ok := x.EntryAt(step)
	if !ok {
		return nil
	}
	ranked := make([]Ranked, 0, planet.Count)
	for _, p := range planet.All {
		ranked = append(ranked, Ranked{Planet: p, Rate: e.Rates[p]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Rate > ranked[j].Rate
	})
	return ranked
}

// Ranges returns the precomputed maximal same-planet runs in step order.
func (x *Index) Ranges() []Range {
	return x.ranges
}

// RangeContaining returns the range whose [Start, End] holds the position.
// A position past the last range maps to the last range; a position before
// the first known range (or an empty table) reports false.
func (x *Index) RangeContaining(step int) (Range, bool) {
	if len(x.ranges) == 0 {
		return Range{}, false
	}
	for _, r := range x.ranges {
		if step >= r.Start && step <= r.End {
			return r, true
		}
	}
	last := x.ranges[len(x.ranges)-1]
	if step > last.End {
		return last, true
	}
	return Range{}, false
}

// #endregion

// #region range-builder

func buildRanges(entries map[int]Entry) []Range {
	if len(entries) == 0 {
		return nil
	}
	steps := make([]int, 0, len(entries))
	for s := range entries {
		steps = append(steps, s)
	}
	sort.Ints(steps)

	var ranges []Range
	start := steps[0]
	current := entries[start].Planet
	rateSum := entries[start].AverageRate
	count := 1

	for _, s := range steps[1:] {
		e := entries[s]
		if e.Planet == current {
			rateSum += e.AverageRate
			count++
			continue
		}
		ranges = append(ranges, Range{
			Start:   start,
			End:     s - 1,
			Planet:  current,
			AvgRate: rateSum / float64(count),
			Length:  s - start,
		})
		start = s
		current = e.Planet
		rateSum = e.AverageRate
		count = 1
	}
	ranges = append(ranges, Range{
		Start:   start,
		End:     steps[len(steps)-1],
		Planet:  current,
		AvgRate: rateSum / float64(count),
		Length:  steps[len(steps)-1] - start + 1,
	})
	return ranges
}

// #endregion
