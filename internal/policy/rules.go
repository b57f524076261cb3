package policy

import (
	"sort"

	"github.com/danielpatrickdp/morty-express/internal/planet"
)

// #region scoring-pipeline

// scores runs every enabled additive rule and returns the per-planet score
// map for the given 1-based trip position. Every policy variant is this
// same pipeline with a different rule subset enabled.
func (s *Selector) scores(trip int) [planet.Count]float64 {
	elapsed := trip - 1
	var scores [planet.Count]float64

	// Base: recency-windowed survival rate.
	window := s.cfg.BaseWindow
	if s.cfg.LateFrom > 0 && elapsed >= s.cfg.LateFrom {
		window = s.cfg.LateWindow
	}
	for _, p := range planet.All {
		scores[p] = s.tracker.WindowedRate(p, window)
	}

	// Consensus: reward agreement from the fixed plan and the two
	// ranking sub-selectors.
	if s.cfg.ConsensusBonuses {
		scores[planPlanet(s.cfg.PhasePlan, elapsed)] += s.cfg.PlanBonus
		scores[s.subWindowedPick(elapsed)] += s.cfg.WindowedBonus
		scores[s.subPerformancePick(elapsed)] += s.cfg.PerformanceBonus
	}

	// Time-phase biases.
	for _, b := range s.cfg.Biases {
		if b.active(elapsed) {
			scores[b.Planet] += b.Bonus
		}
	}

	// Schedule-entry coupling: the schedule's pick earns a bonus scaled
	// by how far its historical average sits above 50%; the others pay
	// for their observed deficit against it.
	if s.cfg.ScheduleEntryBonus {
		if e, ok := s.sched.EntryAt(trip); ok {
			scores[e.Planet] += (e.AverageRate - 50) / s.cfg.EntryBonusDivisor
			for _, p := range planet.All {
				if p == e.Planet {
					continue
				}
				if d := (e.AverageRate - e.Rates[p]) / s.cfg.DeficitDivisor; d > 0 {
					scores[p] -= d
				}
			}
		}
	}

	// Schedule-rank coupling: every planet earns by its rate at this
	// position, discounted per rank below the schedule's top pick.
	if s.cfg.ScheduleRankBonus {
		for i, r := range s.sched.RankedAt(trip) {
			if i == 0 {
				scores[r.Planet] += (r.Rate - 50) / s.cfg.RankTopDivisor
			} else {
				scores[r.Planet] += (r.Rate-50)/s.cfg.RankRestDivisor - float64(i)*s.cfg.RankPenalty
			}
		}
	}

	// Live recency trend against a baseline.
	if s.cfg.RecentTrend {
		for _, p := range planet.All {
			if r := s.tracker.WindowedRate(p, s.cfg.TrendWindow); r > 0 {
				scores[p] += (r - s.cfg.TrendBaseline) / s.cfg.TrendDivisor
			}
		}
	}

	// Deviation: punish the schedule's favourite when live results have
	// fallen well short of its historical rate.
	if s.cfg.PreferredDeviation {
		if ranked := s.sched.RankedAt(trip); len(ranked) > 0 {
			pref := ranked[0]
			if r := s.tracker.WindowedRate(pref.Planet, s.cfg.DeviationWindow); r > 0 && pref.Rate-r > s.cfg.DeviationMargin {
				scores[pref.Planet] -= s.cfg.DeviationPenalty
			}
		}
	}

	// Failure suppression: a planet whose short-window rate sits under
	// the floor is penalized, not removed.
	if s.cfg.FailureSuppression {
		for _, p := range planet.All {
			if r := s.tracker.WindowedRate(p, s.cfg.FailureWindow); r > 0 && r < s.cfg.FailureFloor {
				scores[p] -= s.cfg.FailurePenalty
			}
		}
	}

	// Confidence accumulator and hard cooldowns.
	if s.cfg.Confidence {
		for _, p := range planet.All {
			scores[p] += s.confidence[p]
		}
	}
	if s.cfg.Cooldown {
		for _, p := range planet.All {
			if s.cooldown[p] > 0 {
				scores[p] -= s.cfg.CooldownPenalty
			}
		}
	}

	return scores
}

// #endregion

// #region ranking

// rankPlanets orders planets by score descending, breaking ties by
// lifetime attempts descending so more-tried planets beat noise. The sort
// is stable, so full ties keep planet index order.
func rankPlanets(scores [planet.Count]float64, tracker *planet.Tracker) [planet.Count]planet.ID {
	order := planet.All
	sort.SliceStable(order[:], func(i, j int) bool {
		a, b := order[i], order[j]
		if scores[a] != scores[b] {
			return scores[a] > scores[b]
		}
		return tracker.Attempts(a) > tracker.Attempts(b)
	})
	return order
}

// #endregion

// #region sub-selectors

// planPlanet reads the fixed phase plan at a completed-trip count.
func planPlanet(plan []PhaseStep, elapsed int) planet.ID {
	for _, step := range plan {
		if elapsed <= step.Until {
			return step.Planet
		}
	}
	return planet.Purge
}

// subWindowedPick is the sliding-window sub-selector feeding the consensus
// bonus: Purge through the opening, then a pure windowed ranking with late
// On-a-Cob/Cronenberg bias.
func (s *Selector) subWindowedPick(elapsed int) planet.ID {
	if elapsed < 20 {
		return planet.Purge
	}
	window := 30
	if elapsed > 180 {
		window = 50
	}
	var rates [planet.Count]float64
	for _, p := range planet.All {
		rates[p] = s.tracker.WindowedRate(p, window)
	}
	if elapsed >= 80 {
		rates[planet.Cronenberg] += 3.0
	}
	if elapsed >= 150 {
		rates[planet.OnACob] += 2.0
		rates[planet.Purge] -= 2.0
	}
	return rankPlanets(rates, s.tracker)[0]
}

// subPerformancePick is the performance-ranking sub-selector feeding the
// consensus bonus: mostly Purge with Cronenberg sprinkled in early, then a
// windowed ranking with the mid-game bias distilled from benchmark data.
func (s *Selector) subPerformancePick(elapsed int) planet.ID {
	if elapsed < 30 {
		if elapsed%6 == 0 {
			return planet.Cronenberg
		}
		return planet.Purge
	}
	window := 25
	if elapsed > 80 {
		window = 40
	}
	var rates [planet.Count]float64
	for _, p := range planet.All {
		rates[p] = s.tracker.WindowedRate(p, window)
	}
	if elapsed > 120 {
		rates[planet.Cronenberg] += 2.5
		rates[planet.OnACob] += 1.0
		rates[planet.Purge] -= 1.5
	}
	return rankPlanets(rates, s.tracker)[0]
}

// #endregion
