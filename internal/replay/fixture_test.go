package replay

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/danielpatrickdp/morty-express/internal/planet"
	"github.com/danielpatrickdp/morty-express/internal/policy"
)

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFixture(t *testing.T) {
	path := writeFixture(t, `{
		"description": "phased sweep",
		"policy": "phased",
		"pool": 30,
		"schedule": [
			{"step_number": 1, "planet": 2, "average_success_rate": 88.0,
			 "planet_rates": {"0": 40.0, "1": 55.0, "2": 88.0}}
		],
		"outcomes": [
			{"step": 1, "survived": {"1": false}}
		],
		"default_survived": true,
		"expected": {"delivered": 27, "lost": 3, "trips": 10}
	}`)

	f, err := LoadFixture(path)
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	if f.PolicyConfig().ID != policy.PolicyPhased {
		t.Fatalf("policy = %s, want phased", f.PolicyConfig().ID)
	}

	idx := f.ScheduleIndex()
	e, ok := idx.EntryAt(1)
	if !ok || e.Planet != planet.Purge || e.Rates[planet.Cronenberg] != 55 {
		t.Fatalf("schedule entry = %+v ok=%v", e, ok)
	}

	sc := f.Script()
	if sc.Outcome(1, planet.Cronenberg) {
		t.Fatal("step 1 Cronenberg should be scripted to fail")
	}
	if !sc.Outcome(1, planet.Purge) {
		t.Fatal("step 1 Purge should fall back to the row default")
	}
	if !sc.Outcome(99, planet.Cronenberg) {
		t.Fatal("unscripted step should use the fixture default")
	}
}

func TestLoadFixtureRejectsUnknownPolicy(t *testing.T) {
	path := writeFixture(t, `{"policy": "does_not_exist", "default_survived": true}`)
	if _, err := LoadFixture(path); err == nil {
		t.Fatal("unknown policy accepted")
	}
}

func TestLoadFixtureRejectsInvalidPlanet(t *testing.T) {
	path := writeFixture(t, `{
		"policy": "phased",
		"schedule": [{"step_number": 1, "planet": 9, "average_success_rate": 50}],
		"default_survived": true
	}`)
	if _, err := LoadFixture(path); err == nil {
		t.Fatal("invalid schedule planet accepted")
	}
}

func TestLoadFixtureMissingFile(t *testing.T) {
	if _, err := LoadFixture(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("missing file accepted")
	}
}
