package rules

import "time"

// Window is an effective-dated validity range. A nil To is open ended.
type Window struct {
	From time.Time
	To   *time.Time
}

func (w Window) Covers(date time.Time) bool {
	return w.Overlaps(date, date)
}

// Overlaps reports whether the window intersects the inclusive range [start, end].
func (w Window) Overlaps(start, end time.Time) bool {
	if DateOnly(w.From).After(DateOnly(end)) {
		return false
	}
	return w.To == nil || !DateOnly(*w.To).Before(DateOnly(start))
}

// LatestOverlapping picks the candidate whose window overlaps [start, end] with
// the latest From. On equal From the later candidate in the slice wins.
func LatestOverlapping[T any](candidates []T, window func(T) Window, start, end time.Time) (T, bool) {
	var best T
	var bestFrom time.Time
	found := false
	for _, candidate := range candidates {
		w := window(candidate)
		if !w.Overlaps(start, end) {
			continue
		}
		from := DateOnly(w.From)
		if !found || !from.Before(bestFrom) {
			best = candidate
			bestFrom = from
			found = true
		}
	}
	return best, found
}

func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
