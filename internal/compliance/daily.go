package compliance

import (
	"time"

	"alcyxob/coach-tracker/internal/domain"
)

// DayMetrics is a single-day breakdown for the client dashboard.
type DayMetrics struct {
	Date                 time.Time `json:"date"`
	MealsExpected        int       `json:"mealsExpected"`
	MealsCompleted       int       `json:"mealsCompleted"`
	WorkoutScheduled     bool      `json:"workoutScheduled"`
	WorkoutCompleted     bool      `json:"workoutCompleted"`
	RestDayLogged        bool      `json:"restDayLogged"`
	SupplementsExpected  int       `json:"supplementsExpected"`
	SupplementsCompleted int       `json:"supplementsCompleted"`
	Percentage           int       `json:"percentage"`
	Included             bool      `json:"included"`
}

// ScheduledDay returns the plan day for the weekday of day. Flexible plans
// have no fixed mapping, so ok is false for them.
func ScheduledDay(plan *domain.WorkoutPlan, days []domain.WorkoutDay, day time.Time, loc *time.Location) (domain.WorkoutDay, bool) {
	if plan == nil || plan.ScheduleMode == domain.ScheduleFlexible {
		return domain.WorkoutDay{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	wd := int(day.In(loc).Weekday())
	for _, d := range days {
		if d.DayOfWeek == wd {
			return d, true
		}
	}
	return domain.WorkoutDay{}, false
}

// Daily scores a single calendar day against the plans governing that day. A
// workout counts towards the day only on fixed-schedule plans where that
// weekday is a training day.
func Daily(in ClientInput, day time.Time, loc *time.Location) DayMetrics {
	w := TrailingDays(day, 1, loc)
	dm := DayMetrics{Date: w.Start}

	if ms, ok := in.MealsOn(day, loc); ok {
		dm.MealsExpected = ExpectedMealUnits(ms.Meals, 1)
		dm.MealsCompleted = CompletedMealUnits(ms.Meals, in.MealCompletions, w)
	}
	dm.SupplementsExpected = ExpectedSupplementUnits(in.Supplements, 1)
	dm.SupplementsCompleted = CompletedSupplementUnits(in.SupplementCompletions, w)
	if ws, ok := in.WorkoutOn(day, loc); ok {
		if d, ok := ScheduledDay(&ws.Plan, ws.Days, day, loc); ok && !d.IsRest {
			dm.WorkoutScheduled = true
		}
	}
	dm.WorkoutCompleted = CompletedWorkoutUnits(in.WorkoutCompletions, w) > 0
	dm.RestDayLogged = CompletedRestDayUnits(in.WorkoutCompletions, w) > 0

	meals := Category{Expected: dm.MealsExpected, Completed: dm.MealsCompleted}
	supps := Category{Expected: dm.SupplementsExpected, Completed: dm.SupplementsCompleted}
	workout := Category{}
	if dm.WorkoutScheduled {
		workout.Expected = 1
		if dm.WorkoutCompleted {
			workout.Completed = 1
		}
	}
	expected := meals.Expected + supps.Expected + workout.Expected
	if expected > 0 {
		dm.Included = true
		dm.Percentage = Percentage(meals.Completed+supps.Completed+workout.Completed, expected)
	}
	return dm
}
