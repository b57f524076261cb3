package mission

import (
	"context"
	"errors"
	"testing"

	"github.com/danielpatrickdp/morty-express/internal/citadel"
	"github.com/danielpatrickdp/morty-express/internal/planet"
	"github.com/danielpatrickdp/morty-express/internal/policy"
)

// fakePortal is a deterministic in-memory stand-in for the citadel service.
type fakePortal struct {
	pool      int
	delivered int
	lost      int
	steps     int

	// survive decides each trip's outcome from the post-send step number.
	survive func(step int, p planet.ID) bool
	// failAt makes SendMorties error on that step; 0 disables.
	failAt int
	// stepStride advances the counter by more than 1 per send when > 1.
	stepStride int
	// corrupt makes responses violate pool conservation.
	corrupt bool
}

func newFakePortal(survive func(step int, p planet.ID) bool) *fakePortal {
	return &fakePortal{pool: 1000, survive: survive, stepStride: 1}
}

func (f *fakePortal) state() citadel.State {
	return citadel.State{
		InCitadel:  f.pool,
		OnJessica:  f.delivered,
		Lost:       f.lost,
		StepsTaken: f.steps,
	}
}

func (f *fakePortal) StartEpisode(ctx context.Context) (citadel.State, error) {
	return f.state(), nil
}

func (f *fakePortal) Status(ctx context.Context) (citadel.State, error) {
	return f.state(), nil
}

func (f *fakePortal) SendMorties(ctx context.Context, p planet.ID, count int) (citadel.TripResult, error) {
	f.steps += f.stepStride
	if f.failAt > 0 && f.steps >= f.failAt {
		return citadel.TripResult{}, errors.New("portal offline")
	}
	if count < 1 || count > 3 || count > f.pool {
		return citadel.TripResult{}, errors.New("bad count")
	}

	survived := f.survive(f.steps, p)
	f.pool -= count
	if survived {
		f.delivered += count
	} else {
		f.lost += count
	}

	st := f.state()
	if f.corrupt {
		st.Lost++
	}
	return citadel.TripResult{Survived: survived, Count: count, State: st}, nil
}

func flatPolicy() policy.Config {
	return policy.Config{BaseWindow: 10, Payload: policy.FlatPayload()}
}

func TestRunDrainsPoolInExactTripCount(t *testing.T) {
	portal := newFakePortal(func(int, planet.ID) bool { return true })
	d := NewDriver(portal, flatPolicy(), nil)

	res, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// 1000 units at batch 3: 333 full trips plus one single.
	if res.Trips != 334 {
		t.Fatalf("trips = %d, want 334", res.Trips)
	}
	if res.Delivered != 1000 || res.Lost != 0 {
		t.Fatalf("delivered=%d lost=%d, want 1000/0", res.Delivered, res.Lost)
	}
	if last := res.Log[len(res.Log)-1]; last.Count != 1 {
		t.Fatalf("final batch = %d, want 1", last.Count)
	}
}

func TestRunConservesPoolEveryTrip(t *testing.T) {
	portal := newFakePortal(func(step int, p planet.ID) bool { return step%3 != 0 })
	d := NewDriver(portal, policy.DefaultConfig(), nil)

	res, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, tr := range res.Log {
		if tr.Remaining+tr.Delivered+tr.Lost != 1000 {
			t.Fatalf("step %d: pool leak: %d+%d+%d", tr.Step, tr.Remaining, tr.Delivered, tr.Lost)
		}
		if tr.Count < 1 || tr.Count > 3 {
			t.Fatalf("step %d: batch %d out of range", tr.Step, tr.Count)
		}
	}
	if res.Delivered+res.Lost != 1000 {
		t.Fatalf("final totals leak: %d+%d", res.Delivered, res.Lost)
	}
	if res.RunID == "" {
		t.Fatal("missing run ID")
	}
}

func TestRunAbortsOnServiceError(t *testing.T) {
	portal := newFakePortal(func(int, planet.ID) bool { return true })
	portal.failAt = 5
	d := NewDriver(portal, flatPolicy(), nil)

	res, err := d.Run(context.Background())
	if err == nil {
		t.Fatal("expected error from failing portal")
	}
	if res != nil {
		t.Fatal("aborted run must discard its result")
	}
}

func TestRunFollowsServiceStepCounter(t *testing.T) {
	portal := newFakePortal(func(int, planet.ID) bool { return true })
	portal.stepStride = 2
	d := NewDriver(portal, flatPolicy(), nil)

	res, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i, tr := range res.Log {
		if want := (i + 1) * 2; tr.Step != want {
			t.Fatalf("trip %d recorded step %d, want service's %d", i, tr.Step, want)
		}
	}
}

func TestRunRejectsInconsistentState(t *testing.T) {
	portal := newFakePortal(func(int, planet.ID) bool { return true })
	portal.corrupt = true
	d := NewDriver(portal, flatPolicy(), nil)

	if _, err := d.Run(context.Background()); err == nil {
		t.Fatal("expected pool-mismatch error")
	}
}
