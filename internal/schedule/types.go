package schedule

import "github.com/danielpatrickdp/morty-express/internal/planet"

// #region entry

// Entry is one row of the empirical schedule: the best planet observed at a
// given trip position, with the per-planet average survival rates measured
// there. Entries are immutable once loaded.
type Entry struct {
	Step        int
	Planet      planet.ID
	AverageRate float64
	Rates       [planet.Count]float64
}

// #endregion

// #region range

// Range is a maximal contiguous run of trip positions sharing the same best
// planet, with the aggregate average rate over the run. Computed once at
// load time.
type Range struct {
	Start   int
	End     int
	Planet  planet.ID
	AvgRate float64
	Length  int
}

// #endregion

// #region ranked

// Ranked pairs a planet with its observed rate at a position, used for
// rate-descending orderings.
type Ranked struct {
	Planet planet.ID
	Rate   float64
}

// #endregion

// #region file-format

// fileSchedule mirrors the JSON layout produced by the probe experiments.
type fileSchedule struct {
	GeneratedAt string      `json:"generated_at,omitempty"`
	Schedule    []fileEntry `json:"schedule"`
}

type fileEntry struct {
	StepNumber         int                `json:"step_number"`
	Planet             int                `json:"planet"`
	AverageSuccessRate float64            `json:"average_success_rate"`
	PlanetRates        map[string]float64 `json:"planet_rates"`
}

// #endregion
