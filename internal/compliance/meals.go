package compliance

import (
	"sort"
	"strings"

	"alcyxob/coach-tracker/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MealGroupKey identifies a meal regardless of which option (A/B) was picked.
type MealGroupKey struct {
	Name string `json:"name"`
	Time string `json:"time"`
}

// GroupKeyOf normalises a meal row into its group key.
func GroupKeyOf(m domain.Meal) MealGroupKey {
	return MealGroupKey{
		Name: strings.ToLower(strings.TrimSpace(m.Name)),
		Time: strings.TrimSpace(m.Time),
	}
}

// MealGroup is every option row sharing one MealGroupKey.
type MealGroup struct {
	Key     MealGroupKey  `json:"key"`
	Options []domain.Meal `json:"options"`
}

// GroupMeals groups meal rows, ordered by time and then the lowest sequence
// number in the group.
func GroupMeals(meals []domain.Meal) []MealGroup {
	index := make(map[MealGroupKey]int)
	var groups []MealGroup
	for _, m := range meals {
		k := GroupKeyOf(m)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, MealGroup{Key: k})
		}
		groups[i].Options = append(groups[i].Options, m)
	}
	for i := range groups {
		sort.SliceStable(groups[i].Options, func(a, b int) bool {
			return groups[i].Options[a].Sequence < groups[i].Options[b].Sequence
		})
	}
	sort.SliceStable(groups, func(a, b int) bool {
		if groups[a].Key.Time != groups[b].Key.Time {
			return groups[a].Key.Time < groups[b].Key.Time
		}
		return groups[a].Options[0].Sequence < groups[b].Options[0].Sequence
	})
	return groups
}

func mealGroupIndex(meals []domain.Meal) map[primitive.ObjectID]MealGroupKey {
	idx := make(map[primitive.ObjectID]MealGroupKey, len(meals))
	for _, m := range meals {
		idx[m.ID] = GroupKeyOf(m)
	}
	return idx
}

func distinctGroups(meals []domain.Meal) int {
	seen := make(map[MealGroupKey]struct{})
	for _, m := range meals {
		seen[GroupKeyOf(m)] = struct{}{}
	}
	return len(seen)
}
