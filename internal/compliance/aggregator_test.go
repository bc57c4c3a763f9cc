package compliance

import (
	"testing"
	"time"

	"alcyxob/coach-tracker/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var now = time.Date(2026, time.October, 18, 15, 30, 0, 0, time.UTC) // a Sunday

func daysAgo(n int) time.Time {
	return StartOfDay(now, time.UTC).AddDate(0, 0, -n).Add(9 * time.Hour)
}

// weekPlan is an active legacy plan (no activation stamp), so it governs
// every day.
func weekPlan(trainingDays int) WorkoutSchedule {
	plan := domain.WorkoutPlan{ID: primitive.NewObjectID(), ScheduleMode: domain.ScheduleFixed}
	plan.IsActive = true
	days := make([]domain.WorkoutDay, 7)
	for i := range days {
		days[i] = domain.WorkoutDay{
			ID:            primitive.NewObjectID(),
			WorkoutPlanID: plan.ID,
			DayOfWeek:     i,
			IsRest:        i >= trainingDays,
		}
	}
	return WorkoutSchedule{Plan: plan, Days: days}
}

func mealSchedule(meals ...domain.Meal) MealSchedule {
	plan := domain.MealPlan{ID: primitive.NewObjectID()}
	plan.IsActive = true
	return MealSchedule{Plan: plan, Meals: meals}
}

func trained(at time.Time) domain.WorkoutCompletion {
	return domain.WorkoutCompletion{ID: primitive.NewObjectID(), CompletedDate: at, CompletedGroupIDs: []string{"g1"}}
}

func rested(at time.Time) domain.WorkoutCompletion {
	return domain.WorkoutCompletion{ID: primitive.NewObjectID(), CompletedDate: at}
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		name      string
		completed int
		expected  int
		want      int
	}{
		{"three of ten", 3, 10, 30},
		{"half rounds up", 1, 8, 13}, // 12.5
		{"below half rounds down", 1, 3, 33},
		{"two thirds", 2, 3, 67},
		{"all done", 7, 7, 100},
		{"overshoot clamps", 9, 7, 100},
		{"nothing expected", 3, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Percentage(tt.completed, tt.expected))
		})
	}
}

func TestWindow_TrailingWeek(t *testing.T) {
	w := TrailingWeek(now, time.UTC)

	assert.Equal(t, 7, w.Days())
	assert.Equal(t, time.Date(2026, time.October, 12, 0, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC), w.End)
	assert.True(t, w.Contains(now))
	assert.True(t, w.Contains(daysAgo(6)))
	assert.False(t, w.Contains(daysAgo(7)))
}

func TestWorkoutCompliance_FiveDayPlanFourSessions(t *testing.T) {
	plan := weekPlan(5)
	in := ClientInput{
		ClientID:    primitive.NewObjectID(),
		WorkoutPlans: []WorkoutSchedule{plan},
		WorkoutCompletions: []domain.WorkoutCompletion{
			trained(daysAgo(0)), trained(daysAgo(1)), trained(daysAgo(3)), trained(daysAgo(5)),
		},
	}

	m := ComputeClient(in, TrailingWeek(now, time.UTC))

	assert.Equal(t, Category{Expected: 5, Completed: 4}, m.Workout)
	pct, ok := m.Workout.Percentage()
	require.True(t, ok)
	assert.Equal(t, 80, pct)
	assert.True(t, m.Included)
	assert.Equal(t, 80, m.Percentage)
}

func TestRestDayCompletions_NeverCountAsWorkouts(t *testing.T) {
	plan := weekPlan(5)
	in := ClientInput{
		WorkoutPlans: []WorkoutSchedule{plan},
		WorkoutCompletions: []domain.WorkoutCompletion{
			trained(daysAgo(0)),
			rested(daysAgo(1)),
			rested(daysAgo(2)),
			{CompletedDate: daysAgo(3), CompletedGroupIDs: []string{}},
		},
	}

	m := ComputeClient(in, TrailingWeek(now, time.UTC))

	assert.Equal(t, 1, m.Workout.Completed)
	assert.Equal(t, Category{Expected: 2, Completed: 3}, m.RestDay)
	assert.Equal(t, 20, m.Percentage)
}

func TestCompletionsOutsideWindowIgnored(t *testing.T) {
	plan := weekPlan(5)
	in := ClientInput{
		WorkoutPlans: []WorkoutSchedule{plan},
		WorkoutCompletions: []domain.WorkoutCompletion{trained(daysAgo(7)), trained(daysAgo(30)), trained(now.AddDate(0, 0, 1))},
	}

	m := ComputeClient(in, TrailingWeek(now, time.UTC))

	assert.Equal(t, 0, m.Workout.Completed)
	assert.True(t, m.Included)
	assert.Equal(t, 0, m.Percentage)
}

func TestMealGroup_OptionsCountOnce(t *testing.T) {
	optA := domain.Meal{ID: primitive.NewObjectID(), Name: "Breakfast", Time: "08:00", Option: "A", Sequence: 1}
	optB := domain.Meal{ID: primitive.NewObjectID(), Name: "Breakfast", Time: "08:00", Option: "B", Sequence: 2}
	lunch := domain.Meal{ID: primitive.NewObjectID(), Name: "Lunch", Time: "13:00", Sequence: 3}
	meals := []domain.Meal{optA, optB, lunch}
	w := TrailingWeek(now, time.UTC)

	t.Run("one completion of two options is one unit", func(t *testing.T) {
		done := []domain.MealCompletion{{MealID: optA.ID, CompletedAt: daysAgo(0)}}
		assert.Equal(t, 1, CompletedMealUnits(meals, done, w))
	})

	t.Run("both options on the same day is still one unit", func(t *testing.T) {
		done := []domain.MealCompletion{
			{MealID: optA.ID, CompletedAt: daysAgo(0)},
			{MealID: optB.ID, CompletedAt: daysAgo(0)},
		}
		assert.Equal(t, 1, CompletedMealUnits(meals, done, w))
	})

	t.Run("same group on different days counts per day", func(t *testing.T) {
		done := []domain.MealCompletion{
			{MealID: optA.ID, CompletedAt: daysAgo(0)},
			{MealID: optB.ID, CompletedAt: daysAgo(1)},
		}
		assert.Equal(t, 2, CompletedMealUnits(meals, done, w))
	})

	t.Run("meals outside the plan are ignored", func(t *testing.T) {
		done := []domain.MealCompletion{{MealID: primitive.NewObjectID(), CompletedAt: daysAgo(0)}}
		assert.Equal(t, 0, CompletedMealUnits(meals, done, w))
	})

	t.Run("expected units are distinct groups times seven", func(t *testing.T) {
		assert.Equal(t, 14, ExpectedMealUnits(meals, w.Days()))
	})

	t.Run("client score", func(t *testing.T) {
		in := ClientInput{
			MealPlans: []MealSchedule{mealSchedule(meals...)},
			MealCompletions: []domain.MealCompletion{
				{MealID: optA.ID, CompletedAt: daysAgo(0)},
				{MealID: optB.ID, CompletedAt: daysAgo(0)},
				{MealID: lunch.ID, CompletedAt: daysAgo(0)},
			},
		}
		m := ComputeClient(in, w)
		assert.Equal(t, Category{Expected: 14, Completed: 2}, m.Meal)
		assert.Equal(t, 14, m.Percentage)
	})
}

func TestGroupKey_Normalises(t *testing.T) {
	a := GroupKeyOf(domain.Meal{Name: " Breakfast ", Time: "08:00"})
	b := GroupKeyOf(domain.Meal{Name: "breakfast", Time: "08:00 "})
	c := GroupKeyOf(domain.Meal{Name: "Breakfast0", Time: "8:00"})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestGroupMeals_Ordering(t *testing.T) {
	meals := []domain.Meal{
		{Name: "Dinner", Time: "19:00", Sequence: 4},
		{Name: "Breakfast", Time: "08:00", Option: "B", Sequence: 2},
		{Name: "Breakfast", Time: "08:00", Option: "A", Sequence: 1},
		{Name: "Lunch", Time: "13:00", Sequence: 3},
	}

	groups := GroupMeals(meals)

	require.Len(t, groups, 3)
	assert.Equal(t, "breakfast", groups[0].Key.Name)
	require.Len(t, groups[0].Options, 2)
	assert.Equal(t, "A", groups[0].Options[0].Option)
	assert.Equal(t, "lunch", groups[1].Key.Name)
	assert.Equal(t, "dinner", groups[2].Key.Name)
}

func TestSupplements(t *testing.T) {
	supps := []domain.Supplement{{ID: primitive.NewObjectID()}, {ID: primitive.NewObjectID()}}
	var done []domain.SupplementCompletion
	for i := 0; i < 7; i++ {
		done = append(done, domain.SupplementCompletion{SupplementID: supps[0].ID, CompletedAt: daysAgo(i)})
	}
	done = append(done, domain.SupplementCompletion{SupplementID: supps[1].ID, CompletedAt: daysAgo(9)})

	m := ComputeClient(ClientInput{Supplements: supps, SupplementCompletions: done}, TrailingWeek(now, time.UTC))

	assert.Equal(t, Category{Expected: 14, Completed: 7}, m.Supplement)
	assert.Equal(t, 50, m.Percentage)
}

func TestComputeClient_SumsCategories(t *testing.T) {
	plan := weekPlan(3)
	meal := domain.Meal{ID: primitive.NewObjectID(), Name: "Breakfast", Time: "08:00"}
	supp := domain.Supplement{ID: primitive.NewObjectID()}
	in := ClientInput{
		WorkoutPlans: []WorkoutSchedule{plan},
		WorkoutCompletions:    []domain.WorkoutCompletion{trained(daysAgo(0)), trained(daysAgo(2))},
		MealPlans:             []MealSchedule{mealSchedule(meal)},
		MealCompletions:       []domain.MealCompletion{{MealID: meal.ID, CompletedAt: daysAgo(0)}, {MealID: meal.ID, CompletedAt: daysAgo(1)}},
		Supplements:           []domain.Supplement{supp},
		SupplementCompletions: []domain.SupplementCompletion{{SupplementID: supp.ID, CompletedAt: daysAgo(0)}},
	}

	m := ComputeClient(in, TrailingWeek(now, time.UTC))

	// (2 + 2 + 1) / (3 + 7 + 7)
	assert.Equal(t, 29, m.Percentage)
}

func TestComputeClient_OvershootCountsTowardsTotal(t *testing.T) {
	plan := weekPlan(3)
	breakfast := domain.Meal{ID: primitive.NewObjectID(), Name: "Breakfast", Time: "08:00"}
	var workouts []domain.WorkoutCompletion
	for i := 0; i < 7; i++ {
		workouts = append(workouts, trained(daysAgo(i)))
	}
	in := ClientInput{
		WorkoutPlans:       []WorkoutSchedule{plan},
		WorkoutCompletions: workouts,
		MealPlans:          []MealSchedule{mealSchedule(breakfast)},
	}

	m := ComputeClient(in, TrailingWeek(now, time.UTC))

	assert.Equal(t, Category{Expected: 3, Completed: 7}, m.Workout)
	assert.Equal(t, Category{Expected: 7, Completed: 0}, m.Meal)
	// (7 + 0) / (3 + 7)
	assert.Equal(t, 70, m.Percentage)
	pct, ok := m.Workout.Percentage()
	require.True(t, ok)
	assert.Equal(t, 100, pct)
}

func TestComputeClient_OvershootClampsAtHundred(t *testing.T) {
	plan := weekPlan(2)
	var workouts []domain.WorkoutCompletion
	for i := 0; i < 6; i++ {
		workouts = append(workouts, trained(daysAgo(i)))
	}

	m := ComputeClient(ClientInput{WorkoutPlans: []WorkoutSchedule{plan}, WorkoutCompletions: workouts}, TrailingWeek(now, time.UTC))

	assert.Equal(t, 100, m.Percentage)
}

func TestWeightChange(t *testing.T) {
	w := TrailingWeek(now, time.UTC)
	logs := []domain.WeightLog{
		{WeightKg: 80.4, LoggedAt: daysAgo(1)},
		{WeightKg: 81.2, LoggedAt: daysAgo(6)},
		{WeightKg: 90, LoggedAt: daysAgo(20)},
	}

	change := WeightChange(logs, w)
	require.NotNil(t, change)
	assert.InDelta(t, -0.8, *change, 0.001)

	assert.Nil(t, WeightChange(logs[:1], w))
}

func TestCompute_ExcludesClientsWithNothingExpected(t *testing.T) {
	planA := weekPlan(5)
	clientA := ClientInput{
		ClientID:    primitive.NewObjectID(),
		WorkoutPlans: []WorkoutSchedule{planA},
		WorkoutCompletions: []domain.WorkoutCompletion{
			trained(daysAgo(0)), trained(daysAgo(1)), trained(daysAgo(2)), trained(daysAgo(3)),
		},
	}
	clientB := ClientInput{ClientID: primitive.NewObjectID()}

	res := Compute([]ClientInput{clientA, clientB}, TrailingWeek(now, time.UTC))

	assert.Equal(t, 80, res.PerClient[clientA.ClientID])
	_, scored := res.PerClient[clientB.ClientID]
	assert.False(t, scored)
	assert.Equal(t, []primitive.ObjectID{clientB.ClientID}, res.Excluded)
	assert.Equal(t, 80, res.Overall)
	assert.False(t, res.Clients[clientB.ClientID].Included)
}

func TestCompute_ZeroPercentClientStillCounts(t *testing.T) {
	planA := weekPlan(5)
	planB := weekPlan(4)
	a := ClientInput{ClientID: primitive.NewObjectID(), WorkoutPlans: []WorkoutSchedule{planA},
		WorkoutCompletions: []domain.WorkoutCompletion{trained(daysAgo(0)), trained(daysAgo(1)), trained(daysAgo(2)), trained(daysAgo(3)), trained(daysAgo(4))}}
	b := ClientInput{ClientID: primitive.NewObjectID(), WorkoutPlans: []WorkoutSchedule{planB}}
	c := ClientInput{ClientID: primitive.NewObjectID(), WorkoutPlans: []WorkoutSchedule{planB},
		WorkoutCompletions: []domain.WorkoutCompletion{trained(daysAgo(0))}}

	res := Compute([]ClientInput{a, b, c}, TrailingWeek(now, time.UTC))

	assert.Equal(t, 100, res.PerClient[a.ClientID])
	assert.Equal(t, 0, res.PerClient[b.ClientID])
	assert.Equal(t, 25, res.PerClient[c.ClientID])
	// (100 + 0 + 25) / 3 = 41.67
	assert.Equal(t, 42, res.Overall)
	assert.Empty(t, res.Excluded)
}

func TestCompute_NoClients(t *testing.T) {
	res := Compute(nil, TrailingWeek(now, time.UTC))

	assert.Equal(t, 0, res.Overall)
	assert.Empty(t, res.PerClient)
}

func TestWeekly(t *testing.T) {
	plan := weekPlan(2)
	in := ClientInput{
		WorkoutPlans: []WorkoutSchedule{plan},
		WorkoutCompletions: []domain.WorkoutCompletion{
			trained(daysAgo(0)), trained(daysAgo(1)), // this week: 100
			trained(daysAgo(8)), // last week: 50
		},
	}

	weeks := Weekly(in, now, 3, time.UTC)

	require.Len(t, weeks, 3)
	assert.Equal(t, 0, weeks[0].Percentage)
	assert.Equal(t, 50, weeks[1].Percentage)
	assert.Equal(t, 100, weeks[2].Percentage)
	assert.Equal(t, weeks[1].End, weeks[2].Start)
	assert.Nil(t, Weekly(in, now, 0, time.UTC))
}

func TestDaily(t *testing.T) {
	plan := weekPlan(7) // every weekday is a training day
	meal := domain.Meal{ID: primitive.NewObjectID(), Name: "Lunch", Time: "13:00"}
	in := ClientInput{
		WorkoutPlans: []WorkoutSchedule{plan},
		WorkoutCompletions: []domain.WorkoutCompletion{trained(daysAgo(0))},
		MealPlans:          []MealSchedule{mealSchedule(meal)},
		MealCompletions:    []domain.MealCompletion{{MealID: meal.ID, CompletedAt: daysAgo(1)}},
	}

	dm := Daily(in, now, time.UTC)

	assert.True(t, dm.WorkoutScheduled)
	assert.True(t, dm.WorkoutCompleted)
	assert.Equal(t, 1, dm.MealsExpected)
	assert.Equal(t, 0, dm.MealsCompleted)
	assert.Equal(t, 50, dm.Percentage)

	in.WorkoutPlans[0].Plan.ScheduleMode = domain.ScheduleFlexible
	dm = Daily(in, now, time.UTC)
	assert.False(t, dm.WorkoutScheduled)
	assert.Equal(t, 0, dm.Percentage)
}

func TestPlanActivatedMidHistory(t *testing.T) {
	activated := daysAgo(3)
	plan := weekPlan(7)
	plan.Plan.ActivatedAt = &activated
	in := ClientInput{
		WorkoutPlans:       []WorkoutSchedule{plan},
		WorkoutCompletions: []domain.WorkoutCompletion{trained(daysAgo(0))},
	}

	t.Run("weeks before activation have no plan", func(t *testing.T) {
		weeks := Weekly(in, now, 4, time.UTC)

		require.Len(t, weeks, 4)
		for _, wk := range weeks[:3] {
			assert.False(t, wk.Included, "week starting %s", wk.Start.Format(time.DateOnly))
		}
		assert.True(t, weeks[3].Included)
	})

	t.Run("days up to activation have nothing scheduled", func(t *testing.T) {
		for n := 6; n >= 3; n-- {
			dm := Daily(in, daysAgo(n), time.UTC)
			assert.False(t, dm.WorkoutScheduled, "%d days ago", n)
			assert.False(t, dm.Included, "%d days ago", n)
		}
		for n := 2; n >= 0; n-- {
			assert.True(t, Daily(in, daysAgo(n), time.UTC).WorkoutScheduled, "%d days ago", n)
		}
	})
}

func TestPlanSwitchMidHistory(t *testing.T) {
	switched := daysAgo(7)
	activatedOld := daysAgo(40)
	old := weekPlan(7)
	old.Plan.IsActive = false
	old.Plan.ActivatedAt = &activatedOld
	old.Plan.DeactivatedAt = &switched
	current := weekPlan(0) // all rest days
	current.Plan.ActivatedAt = &switched
	in := ClientInput{WorkoutPlans: []WorkoutSchedule{current, old}}

	// Last week ended the day the switch happened, so the old plan governs it.
	weeks := Weekly(in, now, 2, time.UTC)
	require.Len(t, weeks, 2)
	assert.True(t, weeks[0].Included)
	assert.False(t, weeks[1].Included, "rest-only plan expects nothing")

	assert.True(t, Daily(in, daysAgo(7), time.UTC).WorkoutScheduled)
	assert.False(t, Daily(in, daysAgo(6), time.UTC).WorkoutScheduled)
}

func TestEligibleWithin(t *testing.T) {
	w := TrailingWeek(now, time.UTC)
	activatedToday := StartOfDay(now, time.UTC).Add(time.Hour)
	longAgo := daysAgo(30)
	beforeWindow := daysAgo(8)

	assert.True(t, EligibleWithin(domain.Activation{IsActive: true}, w))
	assert.False(t, EligibleWithin(domain.Activation{IsActive: true, ActivatedAt: &activatedToday}, w))
	assert.False(t, EligibleWithin(domain.Activation{ActivatedAt: &longAgo, DeactivatedAt: &beforeWindow}, w))
	assert.False(t, EligibleWithin(domain.Activation{}, w), "drafts never govern")
}
