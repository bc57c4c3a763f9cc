package compliance

import (
	"time"

	"alcyxob/coach-tracker/internal/domain"
)

// WorkoutSchedule is a workout plan together with its days.
type WorkoutSchedule struct {
	Plan domain.WorkoutPlan
	Days []domain.WorkoutDay
}

func (s WorkoutSchedule) ActivationState() domain.Activation { return s.Plan.ActivationState() }

// MealSchedule is a meal plan together with its meal rows.
type MealSchedule struct {
	Plan  domain.MealPlan
	Meals []domain.Meal
}

func (s MealSchedule) ActivationState() domain.Activation { return s.Plan.ActivationState() }

// WorkoutOn returns the workout schedule governing the calendar day of day.
func (in ClientInput) WorkoutOn(day time.Time, loc *time.Location) (*WorkoutSchedule, bool) {
	s, ok := GoverningPlan(in.WorkoutPlans, day, loc)
	if !ok {
		return nil, false
	}
	return &s, true
}

// MealsOn returns the meal schedule governing the calendar day of day.
func (in ClientInput) MealsOn(day time.Time, loc *time.Location) (*MealSchedule, bool) {
	s, ok := GoverningPlan(in.MealPlans, day, loc)
	if !ok {
		return nil, false
	}
	return &s, true
}

// EligibleWithin reports whether the plan governs at least one day of w.
// Callers use it to skip loading rows of plans that cannot matter.
func EligibleWithin(a domain.Activation, w Window) bool {
	loc := w.location()
	for d := w.Start; d.Before(w.End); d = d.AddDate(0, 0, 1) {
		if EligibleOn(a, d, loc) {
			return true
		}
	}
	return false
}
