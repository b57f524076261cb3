package replay

import (
	"context"
	"errors"
	"math/rand"

	"github.com/danielpatrickdp/morty-express/internal/citadel"
	"github.com/danielpatrickdp/morty-express/internal/planet"
)

// #region script

// Script resolves one trip outcome per (step, planet). Steps with no
// scripted row fall back to the default.
type Script struct {
	Default bool
	steps   map[int][planet.Count]bool
}

// Outcome returns the scripted result for a step and planet.
func (sc *Script) Outcome(step int, p planet.ID) bool {
	if row, ok := sc.steps[step]; ok {
		return row[p]
	}
	return sc.Default
}

// #endregion script

// #region world-model

// WorldModel decides trip outcomes for the simulator.
type WorldModel interface {
	Outcome(step int, p planet.ID) bool
}

// RateModel is a stochastic world: per-(step, planet) survival probability
// resolved with a seeded source, so a given seed replays identically.
type RateModel struct {
	rng  *rand.Rand
	rate func(step int, p planet.ID) float64
}

// NewRateModel builds a stochastic world from a rate function returning
// percentages in [0, 100].
func NewRateModel(seed int64, rate func(step int, p planet.ID) float64) *RateModel {
	return &RateModel{rng: rand.New(rand.NewSource(seed)), rate: rate}
}

// Outcome samples one trip.
func (m *RateModel) Outcome(step int, p planet.ID) bool {
	return m.rng.Float64()*100 < m.rate(step, p)
}

// #endregion world-model

// #region simulator

// Simulator is an in-process stand-in for the citadel service: same
// interface, same state bookkeeping, outcomes decided by a world model
// instead of the real portal.
type Simulator struct {
	world WorldModel
	pool  int
	total int

	delivered int
	lost      int
	steps     int
}

// NewSimulator builds a simulator over a world model with the standard
// 1000-unit pool.
func NewSimulator(world WorldModel) *Simulator {
	return NewSimulatorWithPool(world, 1000)
}

// NewSimulatorWithPool builds a simulator with a custom pool size.
func NewSimulatorWithPool(world WorldModel, pool int) *Simulator {
	return &Simulator{world: world, pool: pool, total: pool}
}

func (s *Simulator) state() citadel.State {
	return citadel.State{
		InCitadel:  s.pool,
		OnJessica:  s.delivered,
		Lost:       s.lost,
		StepsTaken: s.steps,
	}
}

// StartEpisode resets the simulated episode.
func (s *Simulator) StartEpisode(ctx context.Context) (citadel.State, error) {
	s.pool = s.total
	s.delivered = 0
	s.lost = 0
	s.steps = 0
	return s.state(), nil
}

// SendMorties resolves one batch against the world model.
func (s *Simulator) SendMorties(ctx context.Context, p planet.ID, count int) (citadel.TripResult, error) {
	if !p.Valid() {
		return citadel.TripResult{}, errors.New("simulator: invalid planet")
	}
	if count < 1 || count > 3 || count > s.pool {
		return citadel.TripResult{}, errors.New("simulator: invalid count")
	}

	s.steps++
	survived := s.world.Outcome(s.steps, p)
	s.pool -= count
	if survived {
		s.delivered += count
	} else {
		s.lost += count
	}

	return citadel.TripResult{Survived: survived, Count: count, State: s.state()}, nil
}

// Status reports the simulated state without advancing it.
func (s *Simulator) Status(ctx context.Context) (citadel.State, error) {
	return s.state(), nil
}

// #endregion simulator
