// Package streak tracks consecutive-use runs per planet so the policy
// engine can force a switch away from an over-used incumbent.
package streak

import "github.com/danielpatrickdp/morty-express/internal/planet"

// #region governor

// Governor holds the last-used planet and the length of the current
// same-planet run. A fresh governor has no incumbent.
type Governor struct {
	last   planet.ID
	hasRun bool
	count  int
}

// NewGovernor returns a governor with no recorded trips.
func NewGovernor() *Governor {
	return &Governor{}
}

// Observe records the planet used on the latest trip. The streak counter
// resets to 1 exactly when the planet changes and increments otherwise.
func (g *Governor) Observe(p planet.ID) {
	if g.hasRun && g.last == p {
		g.count++
	} else {
		g.count = 1
	}
	g.last = p
	g.hasRun = true
}

// Current returns the incumbent planet and its streak length. ok is false
// until the first trip is observed.
func (g *Governor) Current() (p planet.ID, count int, ok bool) {
	if !g.hasRun {
		return 0, 0, false
	}
	return g.last, g.count, true
}

// #endregion
