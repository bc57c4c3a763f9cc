package compliance

import (
	"testing"
	"time"

	"alcyxob/coach-tracker/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func at(t time.Time) *time.Time { return &t }

func mealPlan(name string, a domain.Activation) domain.MealPlan {
	return domain.MealPlan{ID: primitive.NewObjectID(), Name: name, Activation: a}
}

func TestEligibleOn(t *testing.T) {
	today := now
	earlierToday := StartOfDay(now, time.UTC).Add(2 * time.Hour)
	tests := []struct {
		name string
		a    domain.Activation
		want bool
	}{
		{"activated today is not eligible", domain.Activation{IsActive: true, ActivatedAt: at(earlierToday)}, false},
		{"activated yesterday is eligible", domain.Activation{IsActive: true, ActivatedAt: at(daysAgo(1))}, true},
		{"legacy row without activation is eligible", domain.Activation{IsActive: true}, true},
		{"deactivated earlier today stays visible", domain.Activation{ActivatedAt: at(daysAgo(10)), DeactivatedAt: at(earlierToday)}, true},
		{"deactivated yesterday is gone", domain.Activation{ActivatedAt: at(daysAgo(10)), DeactivatedAt: at(daysAgo(1))}, false},
		{"never activated draft", domain.Activation{}, false},
		{"template never governs", domain.Activation{IsActive: true, IsTemplate: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EligibleOn(tt.a, today, time.UTC))
		})
	}
}

func TestEligibleOn_UsesLocalCalendarDay(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	// 02:00 UTC on the 18th is still the 17th in UTC-5.
	activated := time.Date(2026, time.October, 18, 2, 0, 0, 0, time.UTC)
	a := domain.Activation{IsActive: true, ActivatedAt: &activated}
	day := time.Date(2026, time.October, 18, 12, 0, 0, 0, loc)

	assert.True(t, EligibleOn(a, day, loc))
	assert.False(t, EligibleOn(a, day, time.UTC))
}

func TestGoverningPlan(t *testing.T) {
	earlierToday := StartOfDay(now, time.UTC).Add(2 * time.Hour)

	t.Run("plan switched today keeps the old plan for today", func(t *testing.T) {
		old := mealPlan("old", domain.Activation{ActivatedAt: at(daysAgo(30)), DeactivatedAt: at(earlierToday)})
		fresh := mealPlan("fresh", domain.Activation{IsActive: true, ActivatedAt: at(earlierToday)})

		got, ok := GoverningPlan([]domain.MealPlan{fresh, old}, now, time.UTC)
		require.True(t, ok)
		assert.Equal(t, "old", got.Name)

		got, ok = GoverningPlan([]domain.MealPlan{fresh, old}, now.AddDate(0, 0, 1), time.UTC)
		require.True(t, ok)
		assert.Equal(t, "fresh", got.Name)
	})

	t.Run("only plan activated today leaves no governing plan", func(t *testing.T) {
		fresh := mealPlan("fresh", domain.Activation{IsActive: true, ActivatedAt: at(earlierToday)})
		_, ok := GoverningPlan([]domain.MealPlan{fresh}, now, time.UTC)
		assert.False(t, ok)
	})

	t.Run("active beats deactivated", func(t *testing.T) {
		active := mealPlan("active", domain.Activation{IsActive: true, ActivatedAt: at(daysAgo(5))})
		closing := mealPlan("closing", domain.Activation{ActivatedAt: at(daysAgo(2)), DeactivatedAt: at(earlierToday)})

		got, ok := GoverningPlan([]domain.MealPlan{closing, active}, now, time.UTC)
		require.True(t, ok)
		assert.Equal(t, "active", got.Name)
	})

	t.Run("latest activation wins, legacy last", func(t *testing.T) {
		legacy := mealPlan("legacy", domain.Activation{IsActive: true})
		older := mealPlan("older", domain.Activation{IsActive: true, ActivatedAt: at(daysAgo(9))})
		newer := mealPlan("newer", domain.Activation{IsActive: true, ActivatedAt: at(daysAgo(3))})

		got, ok := GoverningPlan([]domain.MealPlan{legacy, older, newer}, now, time.UTC)
		require.True(t, ok)
		assert.Equal(t, "newer", got.Name)

		got, ok = GoverningPlan([]domain.MealPlan{legacy}, now, time.UTC)
		require.True(t, ok)
		assert.Equal(t, "legacy", got.Name)
	})

	t.Run("works for workout plans", func(t *testing.T) {
		wp := domain.WorkoutPlan{Name: "split"}
		wp.IsActive = true
		got, ok := GoverningPlan([]domain.WorkoutPlan{wp}, now, time.UTC)
		require.True(t, ok)
		assert.Equal(t, "split", got.Name)
	})

	t.Run("empty input", func(t *testing.T) {
		_, ok := GoverningPlan[domain.WorkoutPlan](nil, now, time.UTC)
		assert.False(t, ok)
	})
}
