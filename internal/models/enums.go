package models

import "slices"

var ActivityTypeNames = []string{
	"cardio", "bodybuilding", "yoga", "running",
	"cycling", "swimming", "walking", "stretching",
}

var MealTypes = []string{"breakfast", "lunch", "dinner", "snack"}

var FoodCategories = []string{
	"vegetable", "fruit", "fish", "meat",
	"starchy", "dairy", "oil", "beverage",
}

// DietPreferences is shared by Food.PreferenceCategory and User.PreferredFoodType.
var DietPreferences = []string{"omnivore", "flexitarian", "vegetarian", "vegan", "pescatarian"}

var Genders = []string{"male", "female", "other"}

var DailyActivityLevels = []string{"sedentary", "twice-a-week", "three-four-a-week", "daily", "intensive"}

var PersonalObjectives = []string{"lose-weight", "maintain", "gain-muscle"}

const (
	ObjectiveWeight   = "weight"
	ObjectiveActivity = "activity"
	ObjectiveCaloric  = "caloric"
)

var ObjectiveTypes = []string{ObjectiveWeight, ObjectiveActivity, ObjectiveCaloric}

const (
	UnitPerItem    = 1
	UnitPer100Gram = 100
)

// DefaultDietPreference is used for foods created without a preference category.
const DefaultDietPreference = "flexitarian"

func IsOneOf(v string, allowed []string) bool {
	return slices.Contains(allowed, v)
}
