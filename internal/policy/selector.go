package policy

import (
	"github.com/danielpatrickdp/morty-express/internal/planet"
	"github.com/danielpatrickdp/morty-express/internal/schedule"
	"github.com/danielpatrickdp/morty-express/internal/streak"
)

// #region selector

// blockState tracks execution of one schedule-phase block.
type blockState struct {
	active    bool
	planet    planet.ID
	end       int
	avgRate   float64
	attempts  int
	successes int
}

// Selector is the policy engine: a pure function of (trip position, tracker
// state, schedule index, streak state) plus the small per-policy state some
// rules carry (confidence, cooldowns, the active schedule block). One
// selector serves one run; runs never share selectors.
type Selector struct {
	cfg     Config
	tracker *planet.Tracker
	sched   *schedule.Index
	gov     *streak.Governor

	confidence [planet.Count]float64
	cooldown   [planet.Count]int
	block      blockState
}

// NewSelector wires a selector to the run's tracker, schedule, and governor.
func NewSelector(cfg Config, tracker *planet.Tracker, sched *schedule.Index, gov *streak.Governor) *Selector {
	if sched == nil {
		sched = schedule.NewIndex(nil)
	}
	return &Selector{cfg: cfg, tracker: tracker, sched: sched, gov: gov}
}

// Config returns the selector's policy configuration.
func (s *Selector) Config() Config {
	return s.cfg
}

// #endregion

// #region choose-planet

// ChoosePlanet decides the planet for the given 1-based trip position.
func (s *Selector) ChoosePlanet(trip int) planet.ID {
	elapsed := trip - 1

	if s.cfg.PlanOnly {
		return planPlanet(s.cfg.PhasePlan, elapsed)
	}
	if elapsed < s.cfg.BootstrapTrips {
		return s.cfg.BootstrapPlanet
	}
	if s.cfg.MixCycle > 0 && elapsed >= s.cfg.MixFrom && elapsed < s.cfg.MixTo {
		if elapsed%s.cfg.MixCycle < s.cfg.MixShare {
			return s.cfg.MixPrimary
		}
		return s.cfg.MixAlternate
	}

	if s.cfg.PhaseMode {
		p, ok := s.blockTarget(trip)
		if !ok {
			p = s.scoredChoice(trip)
		}
		// Periodic probe: briefly sample the best alternate so live
		// stats for the other planets never go completely stale.
		if s.cfg.ProbeInterval > 0 && trip%s.cfg.ProbeInterval == 0 {
			for _, r := range s.sched.RankedAt(trip) {
				if r.Planet != p {
					p = r.Planet
					break
				}
			}
		}
		return p
	}

	if s.cfg.GuidedMode {
		if p, ok := s.guidedTarget(trip); ok {
			return p
		}
	}

	return s.scoredChoice(trip)
}

// scoredChoice runs the additive scoring pipeline, applies the streak
// override, and picks the winner with the attempts tie-break.
func (s *Selector) scoredChoice(trip int) planet.ID {
	scores := s.scores(trip)
	order := rankPlanets(scores, s.tracker)

	if inc, n, ok := s.gov.Current(); ok && n >= s.streakLimit(trip) {
		// Incumbent has held the portal too long: drop it and rescore.
		// If filtering somehow empties the set, the unfiltered ranking
		// below still applies.
		for _, p := range order {
			if p != inc {
				return p
			}
		}
	}
	return order[0]
}

// streakLimit returns the active anti-starvation threshold. With a dynamic
// limit and a schedule range covering the position, longer blocks tolerate
// longer streaks.
func (s *Selector) streakLimit(trip int) int {
	limit := s.cfg.StreakLimit
	if limit <= 0 {
		return planHorizon
	}
	if s.cfg.DynamicStreakLimit {
		if r, ok := s.sched.RangeContaining(trip); ok {
			dynamic := r.Length/2 + s.cfg.StreakLimitBase
			if dynamic < s.cfg.StreakLimitMin {
				dynamic = s.cfg.StreakLimitMin
			}
			if dynamic > s.cfg.StreakLimitMax {
				dynamic = s.cfg.StreakLimitMax
			}
			limit = dynamic
		}
	}
	return limit
}

// #endregion

// #region guided

// guidedTarget follows the schedule's pick unless live results have fallen
// materially behind the historical average, in which case the caller falls
// back to the scored pipeline.
func (s *Selector) guidedTarget(trip int) (planet.ID, bool) {
	e, ok := s.sched.EntryAt(trip)
	if !ok {
		return 0, false
	}
	recent := s.tracker.WindowedRate(e.Planet, s.cfg.GuidedWindow)
	if recent > 0 && e.AverageRate > 0 && recent < e.AverageRate-s.cfg.GuidedTolerance {
		return 0, false
	}
	if s.cfg.ProbeInterval > 0 && (trip-1)%s.cfg.ProbeInterval == 0 {
		if ranked := s.sched.RankedAt(trip); len(ranked) > 1 {
			return ranked[1].Planet, true
		}
	}
	return e.Planet, true
}

// #endregion

// #region phase-blocks

// blockTarget executes schedule ranges as blocks: enter the range covering
// the position, stay on its planet until the range ends or live results
// underperform the block average.
func (s *Selector) blockTarget(trip int) (planet.ID, bool) {
	r, ok := s.sched.RangeContaining(trip)
	if ok && (!s.block.active || trip > s.block.end) {
		s.block = blockState{active: true, planet: r.Planet, end: r.End, avgRate: r.AvgRate}
	}
	if !ok || !s.block.active {
		return 0, false
	}
	recent := s.tracker.WindowedRate(s.block.planet, s.cfg.GuidedWindow)
	if recent > 0 && s.block.avgRate-recent > s.cfg.PhaseExitMargin {
		return 0, false
	}
	return s.block.planet, true
}

// #endregion

// #region observe

// Observe feeds one trip outcome back into the rule state the selector
// owns: the confidence accumulator, cooldown counters, and in-block
// statistics. The caller updates the tracker and governor first so the
// recency windows already include this outcome.
func (s *Selector) Observe(p planet.ID, survived bool) {
	if s.cfg.Confidence {
		delta := s.cfg.ConfidenceGain
		if !survived {
			delta = -s.cfg.ConfidenceLoss
		}
		s.confidence[p] = clamp(s.cfg.ConfidenceMin, s.cfg.ConfidenceMax, s.confidence[p]+delta)
	}

	if s.cfg.Cooldown {
		for _, q := range planet.All {
			if q != p && s.cooldown[q] > 0 {
				s.cooldown[q]--
			}
		}
		if !survived && s.tracker.WindowedRate(p, s.cfg.CooldownWindow) < s.cfg.CooldownFloor {
			s.cooldown[p] = s.cfg.CooldownTrips
		}
	}

	if s.cfg.PhaseMode && s.block.active {
		if p == s.block.planet {
			s.block.attempts++
			if survived {
				s.block.successes++
			}
			if s.block.attempts >= s.cfg.PhaseMinAttempts {
				rate := float64(s.block.successes) / float64(s.block.attempts) * 100
				if rate+s.cfg.PhaseBlockMargin < s.block.avgRate {
					s.block.active = false
				}
			}
		} else if s.block.attempts > 0 {
			s.block.attempts--
		}
	}
}

// #endregion

// #region helpers

func clamp(lo, hi, v float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// #endregion
