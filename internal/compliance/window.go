package compliance

import "time"

// DefaultWindowDays is the trailing window used for compliance scores.
const DefaultWindowDays = 7

// Window is a range of whole calendar days in Location. Start is inclusive,
// End exclusive; both sit on midnight.
type Window struct {
	Start    time.Time
	End      time.Time
	Location *time.Location
}

// TrailingWeek returns the 7 calendar days ending with the day of now.
func TrailingWeek(now time.Time, loc *time.Location) Window {
	return TrailingDays(now, DefaultWindowDays, loc)
}

// TrailingDays returns the n calendar days ending with the day of now.
func TrailingDays(now time.Time, n int, loc *time.Location) Window {
	if loc == nil {
		loc = time.UTC
	}
	if n <= 0 {
		n = DefaultWindowDays
	}
	end := StartOfDay(now, loc).AddDate(0, 0, 1)
	return Window{Start: end.AddDate(0, 0, -n), End: end, Location: loc}
}

// Days is the number of calendar days covered.
func (w Window) Days() int {
	n := 0
	for d := w.Start; d.Before(w.End); d = d.AddDate(0, 0, 1) {
		n++
	}
	return n
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// LastDay is the midnight of the final day in the window.
func (w Window) LastDay() time.Time {
	return w.End.AddDate(0, 0, -1)
}

func (w Window) location() *time.Location {
	if w.Location == nil {
		return time.UTC
	}
	return w.Location
}

// StartOfDay truncates t to midnight of its calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// dayKey identifies a calendar day without carrying a *time.Location,
// so it is safe as a map key.
type dayKey struct {
	year  int
	month time.Month
	day   int
}

func keyOf(t time.Time, loc *time.Location) dayKey {
	t = t.In(loc)
	return dayKey{t.Year(), t.Month(), t.Day()}
}

func (k dayKey) before(o dayKey) bool {
	if k.year != o.year {
		return k.year < o.year
	}
	if k.month != o.month {
		return k.month < o.month
	}
	return k.day < o.day
}
