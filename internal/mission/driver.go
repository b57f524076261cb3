package mission

// #region imports
import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/danielpatrickdp/morty-express/internal/citadel"
	"github.com/danielpatrickdp/morty-express/internal/planet"
	"github.com/danielpatrickdp/morty-express/internal/policy"
	"github.com/danielpatrickdp/morty-express/internal/schedule"
	"github.com/danielpatrickdp/morty-express/internal/streak"
)

// #endregion

// #region client-interface

// Client is the portal transport the driver runs against: the live citadel
// service or the replay simulator.
type Client interface {
	StartEpisode(ctx context.Context) (citadel.State, error)
	SendMorties(ctx context.Context, p planet.ID, count int) (citadel.TripResult, error)
	Status(ctx context.Context) (citadel.State, error)
}

// #endregion

// #region types

// Trip is one committed portal send, recorded with the service's
// authoritative step number and the post-trip state.
type Trip struct {
	Step      int
	Planet    planet.ID
	Count     int
	Survived  bool
	Remaining int
	Delivered int
	Lost      int
}

// Result is a completed run: identity, totals, and the full trip log.
type Result struct {
	RunID     string
	Policy    policy.PolicyID
	Delivered int
	Lost      int
	Trips     int
	StartedAt time.Time
	Duration  time.Duration
	Log       []Trip
}

// #endregion

// #region driver

// Driver executes one episode end to end: pick a planet, size the batch,
// commit it, feed the outcome back into the policy state, repeat until the
// pool is empty. Each driver owns fresh per-run state; drivers are not
// reused across runs.
type Driver struct {
	client  Client
	sel     *policy.Selector
	tracker *planet.Tracker
	gov     *streak.Governor

	// LogEvery emits a progress line every N trips; 0 disables.
	LogEvery int
}

// NewDriver wires a driver for one run of the given policy.
func NewDriver(client Client, cfg policy.Config, sched *schedule.Index) *Driver {
	tracker := planet.NewTracker(0)
	gov := streak.NewGovernor()
	return &Driver{
		client:  client,
		sel:     policy.NewSelector(cfg, tracker, sched, gov),
		tracker: tracker,
		gov:     gov,
	}
}

// #endregion

// #region run

// Run plays a full episode. Any service error aborts the run and discards
// the in-progress log; the error is returned as-is for the caller to
// surface. The service's step counter is authoritative throughout.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	st, err := d.client.StartEpisode(ctx)
	if err != nil {
		return nil, fmt.Errorf("mission start: %w", err)
	}

	total := st.InCitadel + st.OnJessica + st.Lost
	remaining := st.InCitadel
	trip := st.StepsTaken + 1

	res := &Result{
		RunID:     uuid.NewString(),
		Policy:    d.sel.Config().ID,
		StartedAt: start,
	}

	for remaining > 0 {
		p := d.sel.ChoosePlanet(trip)
		count := d.sel.ChooseCount(p, trip, remaining)

		out, err := d.client.SendMorties(ctx, p, count)
		if err != nil {
			return nil, fmt.Errorf("mission trip %d: %w", trip, err)
		}
		if got := out.InCitadel + out.OnJessica + out.Lost; got != total {
			return nil, fmt.Errorf("mission trip %d: pool mismatch: %d != %d", trip, got, total)
		}

		// Feed the outcome back before the next decision so the recency
		// windows already include it.
		d.tracker.Record(p, out.Survived)
		d.gov.Observe(p)
		d.sel.Observe(p, out.Survived)

		res.Log = append(res.Log, Trip{
			Step:      out.StepsTaken,
			Planet:    p,
			Count:     count,
			Survived:  out.Survived,
			Remaining: out.InCitadel,
			Delivered: out.OnJessica,
			Lost:      out.Lost,
		})

		if d.LogEvery > 0 && len(res.Log)%d.LogEvery == 0 {
			log.Printf("[MISSION] trip %d: planet=%s count=%d survived=%v remaining=%d delivered=%d lost=%d",
				out.StepsTaken, p, count, out.Survived, out.InCitadel, out.OnJessica, out.Lost)
		}

		remaining = out.InCitadel
		trip = out.StepsTaken + 1

		res.Delivered = out.OnJessica
		res.Lost = out.Lost
		res.Trips = out.StepsTaken
	}

	res.Duration = time.Since(start)
	return res, nil
}

// #endregion
