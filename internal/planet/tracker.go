package planet

// #region tracker-types

// lifetime holds the all-time counters for one planet.
type lifetime struct {
	Attempts  int
	Successes int
}

// window is a bounded ring of recent boolean outcomes. When full, a new
// outcome evicts the oldest.
type window struct {
	buf   []bool
	start int
	size  int
}

func (w *window) push(v bool) {
	if w.size < len(w.buf) {
		w.buf[(w.start+w.size)%len(w.buf)] = v
		w.size++
		return
	}
	w.buf[w.start] = v
	w.start = (w.start + 1) % len(w.buf)
}

// last returns up to n most recent outcomes, oldest first.
func (w *window) last(n int) []bool {
	if n > w.size {
		n = w.size
	}
	out := make([]bool, 0, n)
	for i := w.size - n; i < w.size; i++ {
		out = append(out, w.buf[(w.start+i)%len(w.buf)])
	}
	return out
}

// #endregion

// #region tracker

// DefaultWindowCapacity bounds how many recent outcomes are retained per planet.
const DefaultWindowCapacity = 40

// Tracker maintains per-planet lifetime counters and a bounded recency
// window of trip outcomes. It is pure bookkeeping: no I/O, no errors,
// single-writer per run.
type Tracker struct {
	stats  [Count]lifetime
	recent [Count]window
	cap    int
}

// NewTracker creates a tracker with the given recency window capacity.
// capacity <= 0 falls back to DefaultWindowCapacity.
func NewTracker(capacity int) *Tracker {
	if capacity <= 0 {
		capacity = DefaultWindowCapacity
	}
	t := &Tracker{cap: capacity}
	for i := range t.recent {
		t.recent[i].buf = make([]bool, capacity)
	}
	return t
}

// Record updates lifetime counters and the recency window for one trip outcome.
func (t *Tracker) Record(p ID, survived bool) {
	t.stats[p].Attempts++
	if survived {
		t.stats[p].Successes++
	}
	t.recent[p].push(survived)
}

// Attempts returns the lifetime trip count for a planet.
func (t *Tracker) Attempts(p ID) int {
	return t.stats[p].Attempts
}

// Successes returns the lifetime survived-trip count for a planet.
func (t *Tracker) Successes(p ID) int {
	return t.stats[p].Successes
}

// LifetimeRate returns the all-time survival percentage for a planet,
// or 0 when the planet has never been tried.
func (t *Tracker) LifetimeRate(p ID) float64 {
	s := t.stats[p]
	if s.Attempts == 0 {
		return 0
	}
	return float64(s.Successes) / float64(s.Attempts) * 100
}

// WindowedRate returns the survival percentage over the most recent
// min(windowSize, retained) outcomes for a planet. An empty window falls
// back to the lifetime rate, matching the policy engine's expectation that
// an untried planet scores from whatever evidence exists.
func (t *Tracker) WindowedRate(p ID, windowSize int) float64 {
	if windowSize <= 0 || windowSize > t.cap {
		windowSize = t.cap
	}
	results := t.recent[p].last(windowSize)
	if len(results) == 0 {
		return t.LifetimeRate(p)
	}
	hits := 0
	for _, ok := range results {
		if ok {
			hits++
		}
	}
	return float64(hits) / float64(len(results)) * 100
}

// #endregion
