package policy

import "github.com/danielpatrickdp/morty-express/internal/planet"

// #region policy-id

// PolicyID identifies a routing policy preset.
type PolicyID string

const (
	PolicyTransitionEnforcer PolicyID = "transition_enforcer"
	PolicyHybridControl      PolicyID = "hybrid_control"
	PolicyScheduleGuided     PolicyID = "schedule_guided"
	PolicySchedulePhase      PolicyID = "schedule_phase"
	PolicyPlanetPriority     PolicyID = "planet_priority"
	PolicyWindowed           PolicyID = "windowed"
	PolicyPerformance        PolicyID = "performance"
	PolicyDynamic            PolicyID = "dynamic_adaptive"
	PolicyPhased             PolicyID = "phased"
)

// #endregion

// #region phase-plan

// PhaseStep maps a trip-count ceiling to a planet: the step applies while
// the number of completed trips is at or below Until.
type PhaseStep struct {
	Until  int
	Planet planet.ID
}

// planHorizon caps the final open-ended phase step.
const planHorizon = 1 << 30

// DefaultPhasePlan is the fixed rotation distilled from the best historical
// run: Cronenberg briefly at the start, Purge through the early game, then
// alternating On-a-Cob/Cronenberg blocks, Purge again mid-late, Cronenberg
// to finish.
func DefaultPhasePlan() []PhaseStep {
	return []PhaseStep{
		{Until: 6, Planet: planet.Cronenberg},
		{Until: 128, Planet: planet.Purge},
		{Until: 164, Planet: planet.OnACob},
		{Until: 166, Planet: planet.Cronenberg},
		{Until: 204, Planet: planet.OnACob},
		{Until: 209, Planet: planet.Cronenberg},
		{Until: 211, Planet: planet.OnACob},
		{Until: 323, Planet: planet.Purge},
		{Until: planHorizon, Planet: planet.Cronenberg},
	}
}

// #endregion

// #region bias

// Bias is a time-phase score adjustment: Bonus applies to Planet while the
// completed-trip count is in [From, To). To == 0 means no upper bound.
type Bias struct {
	From   int
	To     int
	Planet planet.ID
	Bonus  float64
}

func (b Bias) active(elapsed int) bool {
	return elapsed >= b.From && (b.To == 0 || elapsed < b.To)
}

// #endregion

// #region payload-config

// PayloadConfig sizes the batch committed per trip. Base size starts at
// MaxBatch and degrades as the chosen planet's recent survival rate drops
// below the tier thresholds; planet-specific late-game adjustments cap or
// restore it. The result is always clamped to the remaining pool.
type PayloadConfig struct {
	FlatOnly  bool // always send MaxBatch (clamped to remaining)
	FlatUntil int  // send MaxBatch unconditionally below this completed-trip count

	Window   int     // recency window for the predicted rate
	FullRate float64 // predicted rate ≥ FullRate → 3
	HalfRate float64 // predicted rate ≥ HalfRate → 2, else 1

	LateCapPlanet   planet.ID
	LateCapFrom     int // cap at 2 from this completed-trip count (Purge decays late)
	LateBoostPlanet planet.ID
	LateBoostFrom   int // push back toward 3 from this count (On-a-Cob improves late)

	// Schedule-rate overrides, used by the schedule-guided and
	// schedule-phase policies.
	ScheduleOverride bool
	OverrideHigh     float64 // schedule rate ≥ OverrideHigh → force 3
	OverrideLow      float64 // schedule rate ≤ OverrideLow → cap at 2
}

// MaxBatch is the largest batch the portal accepts per trip.
const MaxBatch = 3

// AggressivePayload keeps payloads at 3 deep into the run and only tiers
// down late, matching the best-scoring historical runs.
func AggressivePayload() PayloadConfig {
	return PayloadConfig{
		FlatUntil:       150,
		Window:          25,
		FullRate:        52,
		HalfRate:        44,
		LateCapPlanet:   planet.Purge,
		LateCapFrom:     121,
		LateBoostPlanet: planet.OnACob,
		LateBoostFrom:   201,
	}
}

// ConservativePayload tiers down earlier and on a wider window.
func ConservativePayload() PayloadConfig {
	return PayloadConfig{
		FlatUntil:       60,
		Window:          35,
		FullRate:        55,
		HalfRate:        45,
		LateCapPlanet:   planet.Purge,
		LateCapFrom:     120,
		LateBoostPlanet: planet.OnACob,
		LateBoostFrom:   180,
	}
}

// FlatPayload always commits the maximum batch.
func FlatPayload() PayloadConfig {
	return PayloadConfig{FlatOnly: true}
}

// #endregion

// #region config

// Config is the full rule set for one policy: every selection rule is a
// toggle plus its tuned constants, so variants differ only in which rules
// they enable and with what numbers. Constants were tuned empirically
// against historical runs and live here rather than in code so retuning
// needs no code change.
type Config struct {
	ID PolicyID

	// Fixed-plan execution: when PlanOnly is set the phase plan alone
	// decides and every other selection rule is skipped.
	PlanOnly  bool
	PhasePlan []PhaseStep

	// Early-game bootstrap: below BootstrapTrips completed trips the
	// hardcoded planet is returned unconditionally.
	BootstrapTrips  int
	BootstrapPlanet planet.ID

	// Mixed bootstrap: while the completed-trip count is in [MixFrom,
	// MixTo), picks rotate on a fixed cycle — MixShare positions on
	// MixPrimary, the rest on MixAlternate. Keeps a second planet's live
	// stats warm before the scored rules take over. Inactive when
	// MixCycle is 0.
	MixFrom      int
	MixTo        int
	MixCycle     int
	MixShare     int
	MixPrimary   planet.ID
	MixAlternate planet.ID

	// Windowed base score. LateFrom > 0 widens the window to LateWindow
	// once that many trips have completed.
	BaseWindow int
	LateWindow int
	LateFrom   int

	// Consensus bonuses from the three sub-selectors (phase plan,
	// windowed ranking, performance ranking), plus time-phase biases.
	ConsensusBonuses bool
	PlanBonus        float64
	WindowedBonus    float64
	PerformanceBonus float64
	Biases           []Bias

	// Schedule-entry coupling: bonus for the schedule's pick proportional
	// to (avg−50)/EntryBonusDivisor, deficit penalty for the others.
	ScheduleEntryBonus bool
	EntryBonusDivisor  float64
	DeficitDivisor     float64

	// Schedule-rank coupling: per-rank bonus (rate−50)/divisor with a
	// penalty per rank below the schedule's top pick.
	ScheduleRankBonus bool
	RankTopDivisor    float64
	RankRestDivisor   float64
	RankPenalty       float64

	// Live recency trend and schedule-deviation penalty.
	RecentTrend        bool
	TrendWindow        int
	TrendBaseline      float64
	TrendDivisor       float64
	PreferredDeviation bool
	DeviationWindow    int
	DeviationMargin    float64
	DeviationPenalty   float64

	// Streak override. When DynamicStreakLimit is set and a schedule
	// range covers the position, the limit becomes
	// clamp(StreakLimitMin, StreakLimitMax, rangeLen/2 + StreakLimitBase).
	StreakLimit        int
	DynamicStreakLimit bool
	StreakLimitMin     int
	StreakLimitMax     int
	StreakLimitBase    int

	// Failure suppression: planets whose short-window rate sits under the
	// floor are penalized, not removed.
	FailureSuppression bool
	FailureWindow      int
	FailureFloor       float64
	FailurePenalty     float64

	// Per-planet confidence accumulator and hard cooldown.
	Confidence      bool
	ConfidenceGain  float64
	ConfidenceLoss  float64
	ConfidenceMin   float64
	ConfidenceMax   float64
	Cooldown        bool
	CooldownTrips   int
	CooldownWindow  int
	CooldownFloor   float64
	CooldownPenalty float64

	// Schedule-guided follow with live deviation checks, and
	// schedule-phase block execution with early exit.
	GuidedMode       bool
	GuidedWindow     int
	GuidedTolerance  float64
	ProbeInterval    int
	PhaseMode        bool
	PhaseExitMargin  float64
	PhaseBlockMargin float64
	PhaseMinAttempts int

	Payload PayloadConfig
}

// #endregion

// #region presets

// hybridBase is the shared scoring substrate: windowed base score,
// sub-selector consensus bonuses, and the historical time-phase biases.
func hybridBase(id PolicyID) Config {
	return Config{
		ID:               id,
		PhasePlan:        DefaultPhasePlan(),
		BaseWindow:       35,
		ConsensusBonuses: true,
		PlanBonus:        1.5,
		WindowedBonus:    1.0,
		PerformanceBonus: 1.0,
		Biases: []Bias{
			{From: 0, To: 60, Planet: planet.Purge, Bonus: 2.5},
			{From: 60, To: 150, Planet: planet.Cronenberg, Bonus: 2.0},
			{From: 150, Planet: planet.OnACob, Bonus: 2.0},
		},
		StreakLimit: 40,
		Payload:     AggressivePayload(),
	}
}

// Policies returns the full set of built-in policy configs.
func Policies() map[PolicyID]Config {
	enforcer := hybridBase(PolicyTransitionEnforcer)
	enforcer.ScheduleEntryBonus = true
	enforcer.EntryBonusDivisor = 12
	enforcer.DeficitDivisor = 28
	enforcer.ScheduleRankBonus = true
	enforcer.RankTopDivisor = 18
	enforcer.RankRestDivisor = 18
	enforcer.RankPenalty = 0.35
	enforcer.FailureSuppression = true
	enforcer.FailureWindow = 20
	enforcer.FailureFloor = 42
	enforcer.FailurePenalty = 1.8
	enforcer.StreakLimit = 18
	enforcer.DynamicStreakLimit = true
	enforcer.StreakLimitMin = 10
	enforcer.StreakLimitMax = 26
	enforcer.StreakLimitBase = 8

	priority := hybridBase(PolicyPlanetPriority)
	priority.ScheduleRankBonus = true
	priority.RankTopDivisor = 10
	priority.RankRestDivisor = 14
	priority.RankPenalty = 0.5
	priority.RecentTrend = true
	priority.TrendWindow = 30
	priority.TrendBaseline = 55
	priority.TrendDivisor = 18
	priority.PreferredDeviation = true
	priority.DeviationWindow = 25
	priority.DeviationMargin = 12
	priority.DeviationPenalty = 2.5
	priority.Confidence = true
	priority.ConfidenceGain = 1.2
	priority.ConfidenceLoss = 1.5
	priority.ConfidenceMin = -4
	priority.ConfidenceMax = 6
	priority.Cooldown = true
	priority.CooldownTrips = 8
	priority.CooldownWindow = 15
	priority.CooldownFloor = 45
	priority.CooldownPenalty = 2.0

	guided := hybridBase(PolicyScheduleGuided)
	guided.GuidedMode = true
	guided.GuidedWindow = 25
	guided.GuidedTolerance = 12
	guided.ProbeInterval = 45
	guided.Payload.ScheduleOverride = true
	guided.Payload.OverrideHigh = 70
	guided.Payload.OverrideLow = 45

	phase := hybridBase(PolicySchedulePhase)
	phase.PhaseMode = true
	phase.PhaseExitMargin = 10
	phase.PhaseBlockMargin = 8
	phase.PhaseMinAttempts = 5
	phase.ProbeInterval = 35
	phase.GuidedWindow = 25
	phase.ScheduleRankBonus = true
	phase.RankTopDivisor = 14
	phase.RankRestDivisor = 14
	phase.RankPenalty = 0.4
	phase.Payload.ScheduleOverride = true
	phase.Payload.OverrideHigh = 65
	phase.Payload.OverrideLow = 48

	windowed := Config{
		ID:              PolicyWindowed,
		BootstrapTrips:  20,
		BootstrapPlanet: planet.Purge,
		BaseWindow:      30,
		LateWindow:      50,
		LateFrom:        181,
		Biases: []Bias{
			{From: 80, Planet: planet.Cronenberg, Bonus: 3.0},
			{From: 150, Planet: planet.OnACob, Bonus: 2.0},
			{From: 150, Planet: planet.Purge, Bonus: -2.0},
		},
		StreakLimit: 40,
		Payload:     FlatPayload(),
	}

	performance := Config{
		ID:           PolicyPerformance,
		MixTo:        30,
		MixCycle:     6,
		MixShare:     1,
		MixPrimary:   planet.Cronenberg,
		MixAlternate: planet.Purge,
		BaseWindow:   25,
		LateWindow:   40,
		LateFrom:     81,
		Biases: []Bias{
			{From: 121, Planet: planet.Cronenberg, Bonus: 2.5},
			{From: 121, Planet: planet.OnACob, Bonus: 1.0},
			{From: 121, Planet: planet.Purge, Bonus: -1.5},
		},
		StreakLimit: 40,
		Payload:     FlatPayload(),
	}

	dynamic := Config{
		ID:              PolicyDynamic,
		BootstrapTrips:  40,
		BootstrapPlanet: planet.Purge,
		MixFrom:         40,
		MixTo:           80,
		MixCycle:        10,
		MixShare:        7,
		MixPrimary:      planet.Purge,
		MixAlternate:    planet.Cronenberg,
		BaseWindow:      30,
		LateWindow:      40,
		LateFrom:        170,
		Biases: []Bias{
			{From: 40, To: 170, Planet: planet.Cronenberg, Bonus: 2.0},
			{From: 40, To: 170, Planet: planet.Purge, Bonus: -1.5},
			{From: 170, Planet: planet.OnACob, Bonus: 1.5},
			{From: 170, Planet: planet.Cronenberg, Bonus: 2.5},
			{From: 170, Planet: planet.Purge, Bonus: -3.0},
		},
		StreakLimit: 40,
		Payload:     ConservativePayload(),
	}

	phased := Config{
		ID:        PolicyPhased,
		PlanOnly:  true,
		PhasePlan: DefaultPhasePlan(),
		Payload:   FlatPayload(),
	}

	return map[PolicyID]Config{
		PolicyTransitionEnforcer: enforcer,
		PolicyHybridControl:      hybridBase(PolicyHybridControl),
		PolicyScheduleGuided:     guided,
		PolicySchedulePhase:      phase,
		PolicyPlanetPriority:     priority,
		PolicyWindowed:           windowed,
		PolicyPerformance:        performance,
		PolicyDynamic:            dynamic,
		PolicyPhased:             phased,
	}
}

// DefaultConfig returns the production policy.
func DefaultConfig() Config {
	return Policies()[PolicyTransitionEnforcer]
}

// #endregion
