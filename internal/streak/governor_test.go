package streak

import (
	"testing"

	"github.com/danielpatrickdp/morty-express/internal/planet"
)

func TestGovernorFresh(t *testing.T) {
	g := NewGovernor()
	if _, _, ok := g.Current(); ok {
		t.Fatal("fresh governor should have no incumbent")
	}
}

func TestGovernorStreakSequence(t *testing.T) {
	g := NewGovernor()
	seq := []planet.ID{2, 2, 2, 0, 0, 2}
	want := []int{1, 2, 3, 1, 2, 1}

	for i, p := range seq {
		g.Observe(p)
		got, count, ok := g.Current()
		if !ok {
			t.Fatalf("trip %d: governor reports no incumbent", i)
		}
		if got != p {
			t.Fatalf("trip %d: incumbent = %d, want %d", i, got, p)
		}
		if count != want[i] {
			t.Fatalf("trip %d: streak = %d, want %d", i, count, want[i])
		}
	}
}
