// Package compliance turns already-fetched plans and completion rows into
// adherence percentages. It performs no I/O; callers fetch the client's plans
// and the rows for the window first, and the plan governing each scored day
// is resolved here.
package compliance

import (
	"math"
	"sort"
	"time"

	"alcyxob/coach-tracker/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ClientInput is everything fetched for one client. WorkoutPlans and
// MealPlans hold every plan that may govern a day of the scored range.
type ClientInput struct {
	ClientID primitive.ObjectID

	WorkoutPlans       []WorkoutSchedule
	WorkoutCompletions []domain.WorkoutCompletion

	MealPlans       []MealSchedule
	MealCompletions []domain.MealCompletion

	Supplements           []domain.Supplement
	SupplementCompletions []domain.SupplementCompletion

	WeightLogs []domain.WeightLog
}

// Category counts expected and completed units of one kind.
type Category struct {
	Expected  int `json:"expected"`
	Completed int `json:"completed"`
}

// Percentage returns the category score; ok is false when nothing was expected.
func (c Category) Percentage() (pct int, ok bool) {
	if c.Expected <= 0 {
		return 0, false
	}
	return Percentage(c.Completed, c.Expected), true
}

// ClientMetrics is the per-client breakdown.
type ClientMetrics struct {
	ClientID   primitive.ObjectID `json:"clientId"`
	Workout    Category           `json:"workout"`
	RestDay    Category           `json:"restDay"`
	Meal       Category           `json:"meal"`
	Supplement Category           `json:"supplement"`

	WeightChangeKg *float64 `json:"weightChangeKg,omitempty"`

	// Percentage is meaningful only when Included is true.
	Percentage int  `json:"percentage"`
	Included   bool `json:"included"`
}

// Result is the cross-client outcome for one window.
type Result struct {
	PerClient map[primitive.ObjectID]int           `json:"perClient"`
	Overall   int                                  `json:"overall"`
	Clients   map[primitive.ObjectID]ClientMetrics `json:"clients"`
	Excluded  []primitive.ObjectID                 `json:"excluded"`
}

// Percentage is round-half-up(100 * completed / expected), clamped to [0, 100].
// It returns 0 when expected is not positive.
func Percentage(completed, expected int) int {
	if expected <= 0 {
		return 0
	}
	p := roundHalfUp(100 * float64(completed) / float64(expected))
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// ExpectedWorkoutUnits counts non-rest days in the plan, scaled from a week
// to the given number of days.
func ExpectedWorkoutUnits(days []domain.WorkoutDay, windowDays int) int {
	n := 0
	for _, d := range days {
		if !d.IsRest {
			n++
		}
	}
	return perWeek(n, windowDays)
}

func expectedRestUnits(days []domain.WorkoutDay, windowDays int) int {
	n := 0
	for _, d := range days {
		if d.IsRest {
			n++
		}
	}
	return perWeek(n, windowDays)
}

func perWeek(n, windowDays int) int {
	if windowDays == DefaultWindowDays {
		return n
	}
	return roundHalfUp(float64(n*windowDays) / DefaultWindowDays)
}

// ExpectedMealUnits is the number of distinct meal groups times the window length.
func ExpectedMealUnits(meals []domain.Meal, windowDays int) int {
	return distinctGroups(meals) * windowDays
}

// ExpectedSupplementUnits is the supplement count times the window length.
func ExpectedSupplementUnits(supplements []domain.Supplement, windowDays int) int {
	return len(supplements) * windowDays
}

// CompletedWorkoutUnits counts in-window completions that ticked at least one
// exercise group. Rest-day entries are never counted here.
func CompletedWorkoutUnits(completions []domain.WorkoutCompletion, w Window) int {
	n := 0
	for i := range completions {
		c := &completions[i]
		if !c.IsRestDay() && w.Contains(c.CompletedDate) {
			n++
		}
	}
	return n
}

// CompletedRestDayUnits counts in-window rest-day entries.
func CompletedRestDayUnits(completions []domain.WorkoutCompletion, w Window) int {
	n := 0
	for i := range completions {
		c := &completions[i]
		if c.IsRestDay() && w.Contains(c.CompletedDate) {
			n++
		}
	}
	return n
}

// CompletedMealUnits counts distinct (meal group, day) pairs with at least
// one completed option. Completions for meals outside meals are ignored.
func CompletedMealUnits(meals []domain.Meal, completions []domain.MealCompletion, w Window) int {
	type unit struct {
		group MealGroupKey
		day   dayKey
	}
	groups := mealGroupIndex(meals)
	loc := w.location()
	done := make(map[unit]struct{})
	for _, c := range completions {
		g, ok := groups[c.MealID]
		if !ok || !w.Contains(c.CompletedAt) {
			continue
		}
		done[unit{g, keyOf(c.CompletedAt, loc)}] = struct{}{}
	}
	return len(done)
}

// CompletedSupplementUnits is the raw in-window completion count.
func CompletedSupplementUnits(completions []domain.SupplementCompletion, w Window) int {
	n := 0
	for _, c := range completions {
		if w.Contains(c.CompletedAt) {
			n++
		}
	}
	return n
}

// WeightChange is the difference between the last and first in-window
// check-ins, rounded to 10g. It is nil with fewer than two check-ins.
func WeightChange(logs []domain.WeightLog, w Window) *float64 {
	var in []domain.WeightLog
	for _, l := range logs {
		if w.Contains(l.LoggedAt) {
			in = append(in, l)
		}
	}
	if len(in) < 2 {
		return nil
	}
	sort.SliceStable(in, func(i, j int) bool { return in[i].LoggedAt.Before(in[j].LoggedAt) })
	delta := math.Round((in[len(in)-1].WeightKg-in[0].WeightKg)*100) / 100
	return &delta
}

// ComputeClient scores one client over w, using the plans governing the
// window's last day.
func ComputeClient(in ClientInput, w Window) ClientMetrics {
	days := w.Days()
	m := ClientMetrics{ClientID: in.ClientID}
	last, loc := w.LastDay(), w.location()

	if ws, ok := in.WorkoutOn(last, loc); ok {
		m.Workout = Category{
			Expected:  ExpectedWorkoutUnits(ws.Days, days),
			Completed: CompletedWorkoutUnits(in.WorkoutCompletions, w),
		}
		m.RestDay = Category{
			Expected:  expectedRestUnits(ws.Days, days),
			Completed: CompletedRestDayUnits(in.WorkoutCompletions, w),
		}
	}
	if ms, ok := in.MealsOn(last, loc); ok {
		m.Meal = Category{
			Expected:  ExpectedMealUnits(ms.Meals, days),
			Completed: CompletedMealUnits(ms.Meals, in.MealCompletions, w),
		}
	}
	m.Supplement = Category{
		Expected:  ExpectedSupplementUnits(in.Supplements, days),
		Completed: CompletedSupplementUnits(in.SupplementCompletions, w),
	}
	m.WeightChangeKg = WeightChange(in.WeightLogs, w)

	expected, completed := 0, 0
	for _, c := range []Category{m.Workout, m.Meal, m.Supplement} {
		expected += c.Expected
		completed += c.Completed
	}
	if expected > 0 {
		m.Included = true
		m.Percentage = Percentage(completed, expected)
	}
	return m
}

// Compute scores every client and averages the included ones. Clients with
// nothing expected are listed in Excluded and do not drag the average down.
func Compute(inputs []ClientInput, w Window) Result {
	res := Result{
		PerClient: make(map[primitive.ObjectID]int, len(inputs)),
		Clients:   make(map[primitive.ObjectID]ClientMetrics, len(inputs)),
	}
	sum := 0
	for _, in := range inputs {
		m := ComputeClient(in, w)
		res.Clients[in.ClientID] = m
		if !m.Included {
			res.Excluded = append(res.Excluded, in.ClientID)
			continue
		}
		res.PerClient[in.ClientID] = m.Percentage
		sum += m.Percentage
	}
	if n := len(res.PerClient); n > 0 {
		res.Overall = roundHalfUp(float64(sum) / float64(n))
	}
	return res
}

// WeekMetrics is one bucket of a weekly history.
type WeekMetrics struct {
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Percentage int       `json:"percentage"`
	Included   bool      `json:"included"`
}

// Weekly scores consecutive 7-day windows ending on the day of end, oldest
// first. Each week is scored against the plans governing its last day.
func Weekly(in ClientInput, end time.Time, weeks int, loc *time.Location) []WeekMetrics {
	if weeks <= 0 {
		return nil
	}
	out := make([]WeekMetrics, 0, weeks)
	for i := weeks - 1; i >= 0; i-- {
		w := TrailingWeek(end.AddDate(0, 0, -DefaultWindowDays*i), loc)
		m := ComputeClient(in, w)
		out = append(out, WeekMetrics{Start: w.Start, End: w.End, Percentage: m.Percentage, Included: m.Included})
	}
	return out
}
