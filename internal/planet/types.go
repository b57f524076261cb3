package planet

import "fmt"

// #region planet-id

// ID identifies one of the three portal destinations. The set is closed:
// planets are never added or removed at runtime, so state keyed by planet
// lives in fixed-size [Count]T arrays rather than maps.
type ID int

const (
	OnACob     ID = 0 // "On a Cob" Planet
	Cronenberg ID = 1 // Cronenberg World
	Purge      ID = 2 // The Purge Planet

	// Count is the number of planets.
	Count = 3
)

// All lists every planet in index order.
var All = [Count]ID{OnACob, Cronenberg, Purge}

// #endregion

// #region validation

// Valid reports whether p is one of the three known planets.
func (p ID) Valid() bool {
	return p >= 0 && p < Count
}

// String returns the display name used in logs and CLI output.
func (p ID) String() string {
	switch p {
	case OnACob:
		return "On a Cob Planet"
	case Cronenberg:
		return "Cronenberg World"
	case Purge:
		return "The Purge Planet"
	default:
		return fmt.Sprintf("planet(%d)", int(p))
	}
}

// #endregion
