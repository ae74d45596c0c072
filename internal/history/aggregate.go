// Package history builds the history, totals and statistics views over a
// user's activities and meals.
package history

import (
	"zakfit/api/internal/models"
	"zakfit/api/internal/window"
)

// IncludeActivities reports whether the data-type filter selects activities.
// An absent filter selects both kinds; an unknown one selects neither.
func IncludeActivities(typeFilter string) bool {
	switch window.Normalize(typeFilter) {
	case "", "activity", "both":
		return true
	}
	return false
}

func IncludeMeals(typeFilter string) bool {
	switch window.Normalize(typeFilter) {
	case "", "meal", "both":
		return true
	}
	return false
}

type Totals struct {
	TotalCaloriesBurned   int     `json:"totalCaloriesBurned"`
	TotalActivities       int     `json:"totalActivities"`
	TotalMeals            int     `json:"totalMeals"`
	TotalCaloriesConsumed float64 `json:"totalCaloriesConsumed"`
	TotalProteins         float64 `json:"totalProteins"`
	TotalLipids           float64 `json:"totalLipids"`
	TotalCarbs            float64 `json:"totalCarbs"`
}

// Sum aggregates activities and meals. Missing calories burned count as 0.
func Sum(activities []models.Activity, meals []models.Meal) Totals {
	t := Totals{TotalActivities: len(activities), TotalMeals: len(meals)}
	for _, a := range activities {
		if a.CaloriesBurned != nil {
			t.TotalCaloriesBurned += *a.CaloriesBurned
		}
	}
	for _, m := range meals {
		t.TotalCaloriesConsumed += m.TotalCalories
		t.TotalProteins += m.TotalProtein
		t.TotalLipids += m.TotalLipid
		t.TotalCarbs += m.TotalCarbohydrate
	}
	return t
}

type Stats struct {
	MostFrequentActivity     *string `json:"mostFrequentActivity"`
	MostFrequentActivityType *string `json:"mostFrequentActivityType"`
	MostFrequentMeal         *string `json:"mostFrequentMeal"`
	MostFrequentMealType     *string `json:"mostFrequentMealType"`
}

// Frequencies computes Stats over every activity and meal of a user. The
// largest group by name wins; equal groups go to the lexicographically
// smallest name. The reported type is the one of the group's first row in
// input order.
func Frequencies(activities []models.Activity, meals []models.Meal) Stats {
	var s Stats
	if a, ok := mostFrequent(activities, func(a models.Activity) string { return a.Name }); ok {
		name, typ := a.Name, a.Type.Name
		s.MostFrequentActivity, s.MostFrequentActivityType = &name, &typ
	}
	if m, ok := mostFrequent(meals, func(m models.Meal) string { return m.Name }); ok {
		name, typ := m.Name, m.Type
		s.MostFrequentMeal, s.MostFrequentMealType = &name, &typ
	}
	return s
}

func mostFrequent[T any](items []T, key func(T) string) (T, bool) {
	type group struct {
		first T
		count int
	}
	groups := map[string]*group{}
	for _, it := range items {
		k := key(it)
		if g, ok := groups[k]; ok {
			g.count++
			continue
		}
		groups[k] = &group{first: it, count: 1}
	}

	var (
		best     *group
		bestName string
	)
	for name, g := range groups {
		if best == nil || g.count > best.count || (g.count == best.count && name < bestName) {
			best, bestName = g, name
		}
	}
	if best == nil {
		var zero T
		return zero, false
	}
	return best.first, true
}
