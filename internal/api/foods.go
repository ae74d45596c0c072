package api

import (
	"net/http"
	"strings"

	"zakfit/api/internal/apperr"
	"zakfit/api/internal/models"
)

// ── Foods ─────────────────────────────────────────────────────────────────────

type FoodRequest struct {
	Name               string  `json:"name"`
	Category           string  `json:"categoryFood"`
	PreferenceCategory string  `json:"categoryPreference"`
	Calories           float64 `json:"calories"`
	Proteins           float64 `json:"proteins"`
	Carbohydrates      float64 `json:"carbohydrates"`
	Lipids             float64 `json:"lipids"`
	CalculationUnit    int     `json:"calculationUnit"`
}

// UpdateFoodRequest changes only the fields present in the body.
type UpdateFoodRequest struct {
	Name               *string  `json:"name"`
	Category           *string  `json:"categoryFood"`
	PreferenceCategory *string  `json:"categoryPreference"`
	Calories           *float64 `json:"calories"`
	Proteins           *float64 `json:"proteins"`
	Carbohydrates      *float64 `json:"carbohydrates"`
	Lipids             *float64 `json:"lipids"`
	CalculationUnit    *int     `json:"calculationUnit"`
}

// ValidateFood checks the invariants shared by every food, system or not.
func ValidateFood(f models.Food) error {
	switch {
	case strings.TrimSpace(f.Name) == "":
		return apperr.BadRequest("Food name cannot be empty")
	case f.Calories < 0:
		return apperr.BadRequest("Calories cannot be negative")
	case f.Proteins < 0:
		return apperr.BadRequest("Proteins cannot be negative")
	case f.Carbohydrates < 0:
		return apperr.BadRequest("Carbohydrates cannot be negative")
	case f.Lipids < 0:
		return apperr.BadRequest("Lipids cannot be negative")
	case f.CalculationUnit != models.UnitPerItem && f.CalculationUnit != models.UnitPer100Gram:
		return apperr.BadRequest("Calculation unit must be 1 or 100")
	case !models.IsOneOf(f.Category, models.FoodCategories):
		return apperr.BadRequest("Invalid food category, expected one of: %s", strings.Join(models.FoodCategories, ", "))
	case !models.IsOneOf(f.PreferenceCategory, models.DietPreferences):
		return apperr.BadRequest("Invalid preference category, expected one of: %s", strings.Join(models.DietPreferences, ", "))
	}
	return nil
}

func (a *App) HandleListSystemFoods(w http.ResponseWriter, r *http.Request) {
	foods, err := a.Store.ListSystemFoods(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, 200, foods)
}

// HandleListMyFoods lists the system foods together with the caller's own.
func (a *App) HandleListMyFoods(w http.ResponseWriter, r *http.Request) {
	foods, err := a.Store.ListVisibleFoods(r.Context(), currentUser(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, 200, foods)
}

func (a *App) HandleGetFood(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	f, err := a.Store.FoodByID(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if !f.Owner.VisibleTo(currentUser(r)) {
		a.writeError(w, r, apperr.NotFound("Food not found"))
		return
	}
	writeJSON(w, 200, f)
}

func (a *App) HandleCreateFood(w http.ResponseWriter, r *http.Request) {
	var req FoodRequest
	if err := decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	if req.PreferenceCategory == "" {
		req.PreferenceCategory = models.DefaultDietPreference
	}
	f := models.Food{
		Owner:              models.UserFood(currentUser(r)),
		Name:               strings.TrimSpace(req.Name),
		Category:           req.Category,
		PreferenceCategory: req.PreferenceCategory,
		Calories:           req.Calories,
		Proteins:           req.Proteins,
		Carbohydrates:      req.Carbohydrates,
		Lipids:             req.Lipids,
		CalculationUnit:    req.CalculationUnit,
	}
	if err := ValidateFood(f); err != nil {
		a.writeError(w, r, err)
		return
	}
	created, err := a.Store.CreateFood(r.Context(), f)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, 201, created)
}

func (a *App) HandleUpdateFood(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var req UpdateFoodRequest
	if err := decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	ctx := r.Context()
	uid := currentUser(r)
	f, err := a.Store.FoodByID(ctx, id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if !f.Owner.VisibleTo(uid) {
		a.writeError(w, r, apperr.NotFound("Food not found"))
		return
	}
	if !f.Owner.OwnedBy(uid) {
		a.writeError(w, r, apperr.Forbidden("You cannot modify this food"))
		return
	}
	if req.Name != nil {
		f.Name = strings.TrimSpace(*req.Name)
	}
	if req.Category != nil {
		f.Category = *req.Category
	}
	if req.PreferenceCategory != nil {
		f.PreferenceCategory = *req.PreferenceCategory
	}
	if req.Calories != nil {
		f.Calories = *req.Calories
	}
	if req.Proteins != nil {
		f.Proteins = *req.Proteins
	}
	if req.Carbohydrates != nil {
		f.Carbohydrates = *req.Carbohydrates
	}
	if req.Lipids != nil {
		f.Lipids = *req.Lipids
	}
	if req.CalculationUnit != nil {
		f.CalculationUnit = *req.CalculationUnit
	}
	if err := ValidateFood(f); err != nil {
		a.writeError(w, r, err)
		return
	}
	updated, err := a.Store.UpdateFood(ctx, f, uid)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, 200, updated)
}

func (a *App) HandleDeleteFood(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.Store.DeleteFood(r.Context(), id, currentUser(r)); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true})
}
