// Package nutrition computes meal totals from an ingredient list.
//
// The calculator never touches the store: callers fetch the foods first and
// pass them in, so the same input always yields the same totals.
package nutrition

import (
	"math"

	"zakfit/api/internal/models"
)

type Ingredient struct {
	Food     models.Food
	Quantity int
}

type Totals struct {
	Calories     float64 `json:"totalCalories"`
	Protein      float64 `json:"totalProtein"`
	Lipid        float64 `json:"totalLipid"`
	Carbohydrate float64 `json:"totalCarbohydrate"`
}

// Factor scales a food's nutrient values to the given quantity. Foods
// expressed per 100 g read the quantity as grams, foods expressed per unit
// read it as a count.
func Factor(calculationUnit, quantity int) float64 {
	if calculationUnit == models.UnitPer100Gram {
		return float64(quantity) / 100.0
	}
	return float64(quantity)
}

// Round2 rounds to two decimals, halves away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Contribution returns the rounded nutrients one ingredient adds to a meal.
func Contribution(in Ingredient) Totals {
	f := Factor(in.Food.CalculationUnit, in.Quantity)
	return Totals{
		Calories:     Round2(in.Food.Calories * f),
		Protein:      Round2(in.Food.Proteins * f),
		Lipid:        Round2(in.Food.Lipids * f),
		Carbohydrate: Round2(in.Food.Carbohydrates * f),
	}
}

// RecomputeTotals sums the per-ingredient contributions. Each product is
// rounded before it is accumulated.
func RecomputeTotals(ingredients []Ingredient) Totals {
	var t Totals
	for _, in := range ingredients {
		c := Contribution(in)
		t.Calories += c.Calories
		t.Protein += c.Protein
		t.Lipid += c.Lipid
		t.Carbohydrate += c.Carbohydrate
	}
	return t
}

// Differs reports whether a stored meal's totals no longer match t.
func Differs(m models.Meal, t Totals) bool {
	const eps = 1e-6
	return math.Abs(m.TotalCalories-t.Calories) > eps ||
		math.Abs(m.TotalProtein-t.Protein) > eps ||
		math.Abs(m.TotalLipid-t.Lipid) > eps ||
		math.Abs(m.TotalCarbohydrate-t.Carbohydrate) > eps
}
