// Package models holds the records shared by the store, the core calculators
// and the HTTP layer.
package models

import "time"

type User struct {
	ID                  string    `json:"id"`
	Email               string    `json:"email"`
	PasswordHash        string    `json:"-"`
	FirstName           string    `json:"firstName"`
	LastName            string    `json:"lastName"`
	YearOfBirth         *int      `json:"yearOfBirth"`
	Size                *int      `json:"size"`
	Weight              *int      `json:"weight"`
	Gender              *string   `json:"gender"`
	FrequencyOfActivity *int      `json:"frequencyOfActivity"`
	BMR                 *float64  `json:"bmr"`
	PreferredFoodType   *string   `json:"preferredFoodType"`
	TypeOfDailyActivity *string   `json:"typeOfDailyActivity"`
	CalorieDaily        *float64  `json:"calorieDaily"`
	ProteinDaily        *float64  `json:"proteinDaily"`
	LipidDaily          *float64  `json:"lipidDaily"`
	CarbohydrateDaily   *float64  `json:"carbohydrateDaily"`
	ObjectivePersonal   *string   `json:"objectivePersonal"`
	CreatedAt           time.Time `json:"createdAt"`
}

type ActivityType struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Activity struct {
	ID             string       `json:"id"`
	UserID         string       `json:"-"`
	Type           ActivityType `json:"type"`
	Name           string       `json:"name"`
	Duration       *int         `json:"duration"`
	CaloriesBurned *int         `json:"caloriesBurned"`
	Date           time.Time    `json:"date"`
}

// FoodOwner tells system foods apart from foods created by a user. The zero
// value is a system food.
type FoodOwner struct {
	userID string
}

func SystemFood() FoodOwner { return FoodOwner{} }

func UserFood(userID string) FoodOwner { return FoodOwner{userID: userID} }

func (o FoodOwner) IsSystem() bool { return o.userID == "" }

// UserID returns the owner id and false for system foods.
func (o FoodOwner) UserID() (string, bool) {
	return o.userID, o.userID != ""
}

// VisibleTo reports whether userID may read the food.
func (o FoodOwner) VisibleTo(userID string) bool {
	return o.IsSystem() || o.userID == userID
}

// OwnedBy reports whether userID may change the food.
func (o FoodOwner) OwnedBy(userID string) bool {
	return !o.IsSystem() && o.userID == userID
}

type Food struct {
	ID                 string    `json:"id"`
	Owner              FoodOwner `json:"-"`
	Name               string    `json:"name"`
	Category           string    `json:"categoryFood"`
	PreferenceCategory string    `json:"categoryPreference"`
	Calories           float64   `json:"calories"`
	Proteins           float64   `json:"proteins"`
	Carbohydrates      float64   `json:"carbohydrates"`
	Lipids             float64   `json:"lipids"`
	CalculationUnit    int       `json:"calculationUnit"`
}

// MealIngredient is one pivot row joined with the name of its food.
type MealIngredient struct {
	FoodID   string `json:"foodId"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type Meal struct {
	ID                string           `json:"id"`
	UserID            string           `json:"-"`
	Name              string           `json:"nameOfMeal"`
	Type              string           `json:"typeOfMeal"`
	Date              time.Time        `json:"date"`
	TotalCalories     float64          `json:"totalCalories"`
	TotalProtein      float64          `json:"totalProtein"`
	TotalLipid        float64          `json:"totalLipid"`
	TotalCarbohydrate float64          `json:"totalCarbohydrate"`
	Ingredients       []MealIngredient `json:"ingredients"`
}

type Objective struct {
	ID     string    `json:"id"`
	UserID string    `json:"-"`
	Type   string    `json:"type"`
	Value  int       `json:"value"`
	Date   time.Time `json:"-"`
}
