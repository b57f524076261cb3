package missionlog

// #region imports
import (
	"database/sql"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/morty-express/internal/mission"
	"github.com/danielpatrickdp/morty-express/internal/planet"
	"github.com/danielpatrickdp/morty-express/internal/policy"
)

// #endregion

// #region schema

const runsSchema = `
CREATE TABLE IF NOT EXISTS runs (
    run_id      TEXT PRIMARY KEY,
    policy_id   TEXT NOT NULL,
    delivered   INTEGER NOT NULL,
    lost        INTEGER NOT NULL,
    trips       INTEGER NOT NULL,
    duration_ms INTEGER NOT NULL DEFAULT 0,
    created_at  TEXT NOT NULL
);
`

const tripsSchema = `
CREATE TABLE IF NOT EXISTS trips (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id      TEXT NOT NULL,
    step        INTEGER NOT NULL,
    planet      INTEGER NOT NULL,
    morty_count INTEGER NOT NULL,
    survived    INTEGER NOT NULL DEFAULT 0,
    remaining   INTEGER NOT NULL,
    delivered   INTEGER NOT NULL,
    lost        INTEGER NOT NULL
);
`

const tripsIndexes = `
CREATE INDEX IF NOT EXISTS idx_trips_run ON trips(run_id, step);
CREATE INDEX IF NOT EXISTS idx_trips_step ON trips(step, planet);
`

// #endregion

// #region store

// Store persists completed runs and their trip logs in SQLite, and answers
// the historical queries the policies and tools need.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the mission log database at path.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open mission log %s: %w", path, err)
	}
	return db, nil
}

// NewStore initializes the schema and returns a Store.
func NewStore(db *sql.DB) (*Store, error) {
	for _, stmt := range []string{runsSchema, tripsSchema, tripsIndexes} {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("mission log schema: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// #endregion

// #region record-run

// RecordRun persists a completed run and its full trip log in one
// transaction. Aborted runs never reach the store.
func (s *Store) RecordRun(res *mission.Result) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (run_id, policy_id, delivered, lost, trips, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		res.RunID,
		string(res.Policy),
		res.Delivered,
		res.Lost,
		res.Trips,
		res.Duration.Milliseconds(),
		res.StartedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", res.RunID, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO trips (run_id, step, planet, morty_count, survived, remaining, delivered, lost)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("record trips: %w", err)
	}
	defer stmt.Close()

	for _, tr := range res.Log {
		survived := 0
		if tr.Survived {
			survived = 1
		}
		if _, err := stmt.Exec(res.RunID, tr.Step, int(tr.Planet), tr.Count,
			survived, tr.Remaining, tr.Delivered, tr.Lost); err != nil {
			return fmt.Errorf("record trip %d: %w", tr.Step, err)
		}
	}
	return tx.Commit()
}

// #endregion

// #region best-policy

// BestPolicy returns the policy with the highest decay-weighted delivered
// count across recorded runs. Returns ("", 0, nil) when no policy has at
// least 3 runs.
func (s *Store) BestPolicy() (policy.PolicyID, float64, error) {
	rows, err := s.db.Query(`SELECT policy_id, delivered, created_at FROM runs`)
	if err != nil {
		return "", 0, fmt.Errorf("best policy: %w", err)
	}
	defer rows.Close()

	type accum struct {
		weightedSum float64
		totalWeight float64
		count       int
	}

	now := time.Now()
	const halfLifeHours = 7.0 * 24.0
	byPolicy := make(map[policy.PolicyID]*accum)

	for rows.Next() {
		var pid string
		var delivered float64
		var createdAt string
		if err := rows.Scan(&pid, &delivered, &createdAt); err != nil {
			return "", 0, fmt.Errorf("best policy: %w", err)
		}
		ts, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			continue
		}
		weight := math.Exp(-now.Sub(ts).Hours() / halfLifeHours)

		id := policy.PolicyID(pid)
		if _, ok := byPolicy[id]; !ok {
			byPolicy[id] = &accum{}
		}
		byPolicy[id].weightedSum += delivered * weight
		byPolicy[id].totalWeight += weight
		byPolicy[id].count++
	}
	if err := rows.Err(); err != nil {
		return "", 0, fmt.Errorf("best policy: %w", err)
	}

	var bestID policy.PolicyID
	bestScore := -1.0
	for pid, a := range byPolicy {
		if a.count < 3 {
			continue
		}
		if avg := a.weightedSum / a.totalWeight; avg > bestScore {
			bestScore = avg
			bestID = pid
		}
	}
	if bestID == "" {
		return "", 0, nil
	}
	return bestID, bestScore, nil
}

// #endregion

// #region queries

// RunSummary is one row of the runs table.
type RunSummary struct {
	RunID     string
	Policy    policy.PolicyID
	Delivered int
	Lost      int
	Trips     int
	Duration  time.Duration
	CreatedAt time.Time
}

// Runs lists recorded runs, newest first.
func (s *Store) Runs(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT run_id, policy_id, delivered, lost, trips, duration_ms, created_at
		FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		var pid, createdAt string
		var durMS int64
		if err := rows.Scan(&r.RunID, &pid, &r.Delivered, &r.Lost, &r.Trips, &durMS, &createdAt); err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		r.Policy = policy.PolicyID(pid)
		r.Duration = time.Duration(durMS) * time.Millisecond
		if ts, err := time.Parse(time.RFC3339, createdAt); err == nil {
			r.CreatedAt = ts
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Trips returns the full trip log for a run in step order.
func (s *Store) Trips(runID string) ([]mission.Trip, error) {
	rows, err := s.db.Query(`
		SELECT step, planet, morty_count, survived, remaining, delivered, lost
		FROM trips WHERE run_id = ? ORDER BY step`, runID)
	if err != nil {
		return nil, fmt.Errorf("run trips: %w", err)
	}
	defer rows.Close()

	var out []mission.Trip
	for rows.Next() {
		var tr mission.Trip
		var p, survived int
		if err := rows.Scan(&tr.Step, &p, &tr.Count, &survived, &tr.Remaining, &tr.Delivered, &tr.Lost); err != nil {
			return nil, fmt.Errorf("run trips: %w", err)
		}
		tr.Planet = planet.ID(p)
		tr.Survived = survived == 1
		out = append(out, tr)
	}
	return out, rows.Err()
}

// PlanetStat aggregates outcomes for one planet across all recorded runs.
type PlanetStat struct {
	Planet    planet.ID
	Attempts  int
	Successes int
}

// Rate returns the success percentage, 0 when untried.
func (ps PlanetStat) Rate() float64 {
	if ps.Attempts == 0 {
		return 0
	}
	return float64(ps.Successes) / float64(ps.Attempts) * 100
}

// PlanetStats aggregates per-planet trip outcomes across all runs.
func (s *Store) PlanetStats() ([planet.Count]PlanetStat, error) {
	var out [planet.Count]PlanetStat
	for _, p := range planet.All {
		out[p].Planet = p
	}

	rows, err := s.db.Query(`
		SELECT planet, COUNT(*), SUM(survived) FROM trips GROUP BY planet`)
	if err != nil {
		return out, fmt.Errorf("planet stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p, attempts, successes int
		if err := rows.Scan(&p, &attempts, &successes); err != nil {
			return out, fmt.Errorf("planet stats: %w", err)
		}
		if id := planet.ID(p); id.Valid() {
			out[id].Attempts = attempts
			out[id].Successes = successes
		}
	}
	return out, rows.Err()
}

// StepRate is the observed survival rate at one step position for one
// planet, pooled across runs. Input for schedule building.
type StepRate struct {
	Step      int
	Planet    planet.ID
	Attempts  int
	Successes int
}

// Rate returns the success percentage, 0 when untried.
func (sr StepRate) Rate() float64 {
	if sr.Attempts == 0 {
		return 0
	}
	return float64(sr.Successes) / float64(sr.Attempts) * 100
}

// StepRates returns pooled per-(step, planet) outcomes in step order.
func (s *Store) StepRates() ([]StepRate, error) {
	rows, err := s.db.Query(`
		SELECT step, planet, COUNT(*), SUM(survived)
		FROM trips GROUP BY step, planet ORDER BY step, planet`)
	if err != nil {
		return nil, fmt.Errorf("step rates: %w", err)
	}
	defer rows.Close()

	var out []StepRate
	for rows.Next() {
		var sr StepRate
		var p int
		if err := rows.Scan(&sr.Step, &p, &sr.Attempts, &sr.Successes); err != nil {
			return nil, fmt.Errorf("step rates: %w", err)
		}
		sr.Planet = planet.ID(p)
		out = append(out, sr)
	}
	return out, rows.Err()
}

// #endregion
