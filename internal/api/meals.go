package api

import (
	"net/http"
	"strings"

	"zakfit/api/internal/apperr"
	"zakfit/api/internal/filter"
	"zakfit/api/internal/models"
	"zakfit/api/internal/store"
	"zakfit/api/internal/window"
)

// ── Meals ─────────────────────────────────────────────────────────────────────

type IngredientRequest struct {
	FoodID   string `json:"foodId"`
	Quantity int    `json:"quantity"`
}

type CreateMealRequest struct {
	Name        string              `json:"nameOfMeal"`
	Type        string              `json:"typeOfMeal"`
	Date        *string             `json:"date"`
	Ingredients []IngredientRequest `json:"ingredients"`
}

type UpdateMealRequest struct {
	Name        *string             `json:"nameOfMeal"`
	Type        *string             `json:"typeOfMeal"`
	Date        *string             `json:"date"`
	Ingredients []IngredientRequest `json:"ingredients"`
}

// ingredientInputs validates a requested ingredient list. Food ids that are
// not UUIDs cannot exist and are reported as missing.
func ingredientInputs(items []IngredientRequest) ([]store.IngredientInput, error) {
	if len(items) == 0 {
		return nil, apperr.BadRequest("A meal needs at least one ingredient")
	}
	out := make([]store.IngredientInput, 0, len(items))
	for i, it := range items {
		if it.Quantity <= 0 {
			return nil, apperr.BadRequest("Ingredient %d quantity must be greater than 0", i+1)
		}
		foodID, ok := canonicalID(it.FoodID)
		if !ok {
			return nil, apperr.NotFound("Food with ID %s not found", it.FoodID)
		}
		out = append(out, store.IngredientInput{FoodID: foodID, Quantity: it.Quantity})
	}
	return out, nil
}

func mealType(s string) (string, error) {
	t := window.Normalize(s)
	if !models.IsOneOf(t, models.MealTypes) {
		return "", apperr.BadRequest("Invalid meal type, expected one of: %s", strings.Join(models.MealTypes, ", "))
	}
	return t, nil
}

func (a *App) localMeal(m models.Meal) models.Meal {
	m.Date = a.local(m.Date)
	return m
}

func (a *App) localMeals(list []models.Meal) []models.Meal {
	for i := range list {
		list[i].Date = a.local(list[i].Date)
	}
	return list
}

func (a *App) HandleCreateMeal(w http.ResponseWriter, r *http.Request) {
	var req CreateMealRequest
	if err := decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		a.writeError(w, r, apperr.BadRequest("Meal name cannot be empty"))
		return
	}
	typ, err := mealType(req.Type)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	items, err := ingredientInputs(req.Ingredients)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	m := models.Meal{UserID: currentUser(r), Name: name, Type: typ, Date: a.now()}
	if req.Date != nil {
		if m.Date, err = a.parseTime(*req.Date); err != nil {
			a.writeError(w, r, err)
			return
		}
	}
	created, err := a.Store.CreateMeal(r.Context(), m, items)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, 201, a.localMeal(created))
}

func (a *App) HandleListMeals(w http.ResponseWriter, r *http.Request) {
	list, err := a.Store.ListMeals(r.Context(), currentUser(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, 200, a.localMeals(list))
}

func (a *App) HandleMealsToday(w http.ResponseWriter, r *http.Request) {
	day := window.DayRange(a.now())
	list, err := a.Store.MealsBetween(r.Context(), currentUser(r), day.From, day.To)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, 200, a.localMeals(list))
}

func (a *App) HandleFilterMeals(w http.ResponseWriter, r *http.Request) {
	c := filter.MealCriteria{Criteria: criteria(r), Type: r.URL.Query().Get("type")}
	list, err := a.Store.FilterMeals(r.Context(), filter.Meals(currentUser(r), c, a.now()))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, 200, a.localMeals(list))
}

func (a *App) HandleGetMeal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	m, err := a.Store.MealByID(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if m.UserID != currentUser(r) {
		a.writeError(w, r, apperr.Forbidden("You cannot access this meal"))
		return
	}
	writeJSON(w, 200, a.localMeal(m))
}

// HandleUpdateMeal patches a meal. A present ingredients list replaces the
// current one and the totals are recomputed in the same transaction.
func (a *App) HandleUpdateMeal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var req UpdateMealRequest
	if err := decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	var patch store.MealPatch
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			a.writeError(w, r, apperr.BadRequest("Meal name cannot be empty"))
			return
		}
		patch.Name = &name
	}
	if req.Type != nil {
		typ, err := mealType(*req.Type)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		patch.Type = &typ
	}
	if req.Date != nil {
		d, err := a.parseTime(*req.Date)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		patch.Date = &d
	}
	if req.Ingredients != nil {
		items, err := ingredientInputs(req.Ingredients)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		patch.ReplaceIngredients = true
		patch.Ingredients = items
	}
	updated, err := a.Store.UpdateMeal(r.Context(), id, currentUser(r), patch)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, 200, a.localMeal(updated))
}

func (a *App) HandleDeleteMeal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.Store.DeleteMeal(r.Context(), id, currentUser(r)); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true})
}
