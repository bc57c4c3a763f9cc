package compliance

import (
	"time"

	"alcyxob/coach-tracker/internal/domain"
)

// Plan is any plan kind carrying activation state.
type Plan interface {
	ActivationState() domain.Activation
}

// EligibleOn reports whether a plan governs the calendar day of day.
//
// A plan takes effect the day after it was activated and stays visible through
// the day it was deactivated. Rows without an activation timestamp predate the
// field and are always eligible while active.
func EligibleOn(a domain.Activation, day time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	if a.IsTemplate {
		return false
	}
	d := keyOf(day, loc)
	if a.ActivatedAt != nil && !keyOf(*a.ActivatedAt, loc).before(d) {
		return false
	}
	if a.IsActive {
		return true
	}
	if a.DeactivatedAt == nil {
		return false
	}
	return !keyOf(*a.DeactivatedAt, loc).before(d)
}

// GoverningPlan picks the plan governing day. Active plans win over plans
// that were deactivated that day; after that the latest activation wins.
func GoverningPlan[P Plan](plans []P, day time.Time, loc *time.Location) (P, bool) {
	var (
		best  P
		found bool
	)
	for _, p := range plans {
		a := p.ActivationState()
		if !EligibleOn(a, day, loc) {
			continue
		}
		if !found || outranks(a, best.ActivationState()) {
			best, found = p, true
		}
	}
	return best, found
}

func outranks(a, b domain.Activation) bool {
	if a.IsActive != b.IsActive {
		return a.IsActive
	}
	switch {
	case a.ActivatedAt == nil:
		return false
	case b.ActivatedAt == nil:
		return true
	default:
		return a.ActivatedAt.After(*b.ActivatedAt)
	}
}
