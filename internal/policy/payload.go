package policy

import "github.com/danielpatrickdp/morty-express/internal/planet"

// #region choose-count

// ChooseCount sizes the batch for a trip: tiered on the chosen planet's
// recent survival rate, adjusted for planet-specific late-game behavior,
// optionally overridden by the schedule rate, and always clamped to the
// remaining pool. Returns 0 only when the pool is empty; otherwise the
// result is in [1, min(3, remaining)].
func (s *Selector) ChooseCount(p planet.ID, trip, remaining int) int {
	if remaining <= 0 {
		return 0
	}
	pc := s.cfg.Payload
	elapsed := trip - 1

	base := MaxBatch
	if !pc.FlatOnly && elapsed >= pc.FlatUntil {
		predicted := s.tracker.WindowedRate(p, pc.Window)
		switch {
		case predicted >= pc.FullRate:
			base = MaxBatch
		case predicted >= pc.HalfRate:
			base = 2
		default:
			base = 1
		}
	}

	if !pc.FlatOnly {
		if p == pc.LateCapPlanet && pc.LateCapFrom > 0 && elapsed >= pc.LateCapFrom && base > 2 {
			base = 2
		}
		if p == pc.LateBoostPlanet && pc.LateBoostFrom > 0 && elapsed >= pc.LateBoostFrom && base < MaxBatch {
			base++
		}
	}

	if pc.ScheduleOverride {
		rate, pick, ok := s.scheduleRate(trip)
		if ok {
			if rate >= pc.OverrideHigh && p == pick {
				base = MaxBatch
			} else if rate <= pc.OverrideLow && base > 2 {
				base = 2
			}
		}
	}

	if base > remaining {
		base = remaining
	}
	return base
}

// scheduleRate returns the schedule's rate and pick for payload overrides:
// the active range for phase policies, the point entry otherwise.
func (s *Selector) scheduleRate(trip int) (float64, planet.ID, bool) {
	if s.cfg.PhaseMode {
		if r, ok := s.sched.RangeContaining(trip); ok {
			return r.AvgRate, r.Planet, true
		}
		return 0, 0, false
	}
	if e, ok := s.sched.EntryAt(trip); ok {
		return e.AverageRate, e.Planet, true
	}
	return 0, 0, false
}

// #endregion
