package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"zakfit/api/internal/apperr"
	"zakfit/api/internal/filter"
	"zakfit/api/internal/models"
	"zakfit/api/internal/nutrition"
	"zakfit/api/internal/window"
)

// IngredientInput is one requested ingredient of a meal.
type IngredientInput struct {
	FoodID   string
	Quantity int
}

// MealPatch lists the fields to change on a meal. Nil fields are kept.
// Ingredients replaces the whole list when ReplaceIngredients is set.
type MealPatch struct {
	Name               *string
	Type               *string
	Date               *time.Time
	ReplaceIngredients bool
	Ingredients        []IngredientInput
}

const mealSelect = `
  SELECT m.id, m.user_id, m.name, m.meal_type, m.eaten_at,
         m.total_calories, m.total_protein, m.total_lipid, m.total_carbohydrate
  FROM meals m`

func scanMeal(row pgx.Row) (models.Meal, error) {
	var m models.Meal
	err := row.Scan(&m.ID, &m.UserID, &m.Name, &m.Type, &m.Date,
		&m.TotalCalories, &m.TotalProtein, &m.TotalLipid, &m.TotalCarbohydrate)
	m.Ingredients = []models.MealIngredient{}
	return m, err
}

func queryMeals(ctx context.Context, q querier, withIngredients bool, sql string, args ...any) ([]models.Meal, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, wrap(err, "query meals", "")
	}
	defer rows.Close()

	out := []models.Meal{}
	for rows.Next() {
		m, err := scanMeal(rows)
		if err != nil {
			return nil, wrap(err, "scan meal", "")
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(err, "query meals", "")
	}
	rows.Close()

	if withIngredients && len(out) > 0 {
		if err := attachIngredients(ctx, q, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// attachIngredients fills Ingredients for every meal with a single query.
func attachIngredients(ctx context.Context, q querier, meals []models.Meal) error {
	ids := make([]string, len(meals))
	for i, m := range meals {
		ids[i] = m.ID
	}
	rows, err := q.Query(ctx, `
    SELECT mf.meal_id, mf.food_id, f.name, mf.quantity
    FROM meal_foods mf
    JOIN foods f ON f.id = mf.food_id
    WHERE mf.meal_id = ANY($1::uuid[])
    ORDER BY f.name, mf.id;
  `, ids)
	if err != nil {
		return wrap(err, "query meal ingredients", "")
	}
	defer rows.Close()

	byMeal := map[string][]models.MealIngredient{}
	for rows.Next() {
		var mealID string
		var in models.MealIngredient
		if err := rows.Scan(&mealID, &in.FoodID, &in.Name, &in.Quantity); err != nil {
			return wrap(err, "scan meal ingredient", "")
		}
		byMeal[mealID] = append(byMeal[mealID], in)
	}
	if err := rows.Err(); err != nil {
		return wrap(err, "query meal ingredients", "")
	}
	for i := range meals {
		if ins, ok := byMeal[meals[i].ID]; ok {
			meals[i].Ingredients = ins
		}
	}
	return nil
}

// resolveIngredients validates every requested ingredient before anything
// is written. Foods must exist and be visible to userID.
func resolveIngredients(ctx context.Context, q querier, userID string, items []IngredientInput) ([]nutrition.Ingredient, error) {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.FoodID
	}
	foods, err := visibleFoodsByID(ctx, q, userID, ids)
	if err != nil {
		return nil, err
	}
	out := make([]nutrition.Ingredient, 0, len(items))
	for _, it := range items {
		f, ok := foods[it.FoodID]
		if !ok {
			return nil, apperr.NotFound("Food with ID %s not found", it.FoodID)
		}
		out = append(out, nutrition.Ingredient{Food: f, Quantity: it.Quantity})
	}
	return out, nil
}

func insertIngredients(ctx context.Context, tx pgx.Tx, mealID string, items []IngredientInput) error {
	for _, it := range items {
		if _, err := tx.Exec(ctx, `
      INSERT INTO meal_foods (meal_id, food_id, quantity) VALUES ($1, $2, $3);
    `, mealID, it.FoodID, it.Quantity); err != nil {
			return wrap(err, "insert meal ingredient", "")
		}
	}
	return nil
}

// calcIngredients loads the pivot rows of the given meals with their full
// foods, keyed by meal id.
func calcIngredients(ctx context.Context, q querier, mealIDs []string) (map[string][]nutrition.Ingredient, error) {
	rows, err := q.Query(ctx, `
    SELECT mf.meal_id, mf.quantity,
           f.id, COALESCE(f.user_id::text, ''), f.name, f.category, f.preference_category,
           f.calories, f.protein, f.carbohydrate, f.lipid, f.calculation_unit
    FROM meal_foods mf
    JOIN foods f ON f.id = mf.food_id
    WHERE mf.meal_id = ANY($1::uuid[]);
  `, mealIDs)
	if err != nil {
		return nil, wrap(err, "query meal foods", "")
	}
	defer rows.Close()

	out := map[string][]nutrition.Ingredient{}
	for rows.Next() {
		var mealID, owner string
		var in nutrition.Ingredient
		f := &in.Food
		if err := rows.Scan(&mealID, &in.Quantity,
			&f.ID, &owner, &f.Name, &f.Category, &f.PreferenceCategory,
			&f.Calories, &f.Proteins, &f.Carbohydrates, &f.Lipids, &f.CalculationUnit); err != nil {
			return nil, wrap(err, "scan meal food", "")
		}
		if owner != "" {
			f.Owner = models.UserFood(owner)
		}
		out[mealID] = append(out[mealID], in)
	}
	return out, wrap(rows.Err(), "query meal foods", "")
}

func writeTotals(ctx context.Context, q querier, mealID string, t nutrition.Totals) error {
	_, err := q.Exec(ctx, `
    UPDATE meals SET total_calories = $2, total_protein = $3, total_lipid = $4, total_carbohydrate = $5
    WHERE id = $1;
  `, mealID, t.Calories, t.Protein, t.Lipid, t.Carbohydrate)
	return wrap(err, "update meal totals", "")
}

// recomputeMeals resets and rewrites the totals of every listed meal from
// its current pivot rows.
func recomputeMeals(ctx context.Context, tx pgx.Tx, mealIDs []string) error {
	if len(mealIDs) == 0 {
		return nil
	}
	byMeal, err := calcIngredients(ctx, tx, mealIDs)
	if err != nil {
		return err
	}
	for _, id := range mealIDs {
		if err := writeTotals(ctx, tx, id, nutrition.RecomputeTotals(byMeal[id])); err != nil {
			return err
		}
	}
	return nil
}

func mealIDsUsingFood(ctx context.Context, q querier, foodID string) ([]string, error) {
	rows, err := q.Query(ctx, `SELECT DISTINCT meal_id FROM meal_foods WHERE food_id = $1;`, foodID)
	if err != nil {
		return nil, wrap(err, "query meals using food", "")
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, wrap(err, "scan meal id", "")
		}
		ids = append(ids, id)
	}
	return ids, wrap(rows.Err(), "query meals using food", "")
}

// CreateMeal stores m with its ingredients and computed totals in one
// transaction. A zero Date means now.
func (s *Store) CreateMeal(ctx context.Context, m models.Meal, items []IngredientInput) (models.Meal, error) {
	if m.Date.IsZero() {
		m.Date = s.now()
	}
	var id string
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		ingredients, err := resolveIngredients(ctx, tx, m.UserID, items)
		if err != nil {
			return err
		}
		t := nutrition.RecomputeTotals(ingredients)
		err = tx.QueryRow(ctx, `
      INSERT INTO meals (user_id, name, meal_type, eaten_at, total_calories, total_protein, total_lipid, total_carbohydrate)
      VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
      RETURNING id;
    `, m.UserID, m.Name, m.Type, m.Date, t.Calories, t.Protein, t.Lipid, t.Carbohydrate).Scan(&id)
		if err != nil {
			return wrap(err, "insert meal", "")
		}
		return insertIngredients(ctx, tx, id, items)
	})
	if err != nil {
		return models.Meal{}, err
	}
	return s.MealByID(ctx, id)
}

func (s *Store) MealByID(ctx context.Context, id string) (models.Meal, error) {
	meals, err := queryMeals(ctx, s.pool, true, mealSelect+` WHERE m.id = $1;`, id)
	if err != nil {
		return models.Meal{}, err
	}
	if len(meals) == 0 {
		return models.Meal{}, apperr.NotFound("Meal not found")
	}
	return meals[0], nil
}

// UpdateMeal applies patch to a meal owned by userID. Replacing the
// ingredients and recomputing the totals happen in the same transaction.
func (s *Store) UpdateMeal(ctx context.Context, id, userID string, patch MealPatch) (models.Meal, error) {
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		m, err := scanMeal(tx.QueryRow(ctx, mealSelect+` WHERE m.id = $1 FOR UPDATE;`, id))
		if err != nil {
			return wrap(err, "get meal", "Meal not found")
		}
		if m.UserID != userID {
			return apperr.Forbidden("You cannot modify this meal")
		}
		if patch.Name != nil {
			m.Name = *patch.Name
		}
		if patch.Type != nil {
			m.Type = *patch.Type
		}
		if patch.Date != nil {
			m.Date = *patch.Date
		}
		if patch.ReplaceIngredients {
			if _, err := resolveIngredients(ctx, tx, userID, patch.Ingredients); err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `DELETE FROM meal_foods WHERE meal_id = $1;`, id); err != nil {
				return wrap(err, "clear meal ingredients", "")
			}
			if err := insertIngredients(ctx, tx, id, patch.Ingredients); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(ctx, `UPDATE meals SET name = $2, meal_type = $3, eaten_at = $4 WHERE id = $1;`,
			id, m.Name, m.Type, m.Date); err != nil {
			return wrap(err, "update meal", "")
		}
		return recomputeMeals(ctx, tx, []string{id})
	})
	if err != nil {
		return models.Meal{}, err
	}
	return s.MealByID(ctx, id)
}

// DeleteMeal removes a meal owned by userID together with its pivot rows.
func (s *Store) DeleteMeal(ctx context.Context, id, userID string) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		var owner string
		err := tx.QueryRow(ctx, `SELECT user_id FROM meals WHERE id = $1 FOR UPDATE;`, id).Scan(&owner)
		if err != nil {
			return wrap(err, "get meal", "Meal not found")
		}
		if owner != userID {
			return apperr.Forbidden("You cannot delete this meal")
		}
		_, err = tx.Exec(ctx, `DELETE FROM meals WHERE id = $1;`, id)
		return wrap(err, "delete meal", "")
	})
}

// ListMeals returns every meal of userID with ingredients, newest first.
func (s *Store) ListMeals(ctx context.Context, userID string) ([]models.Meal, error) {
	return queryMeals(ctx, s.pool, true, mealSelect+` WHERE m.user_id = $1 ORDER BY m.eaten_at DESC, m.id;`, userID)
}

// MealsBetween returns meals with from <= date < to, oldest first.
func (s *Store) MealsBetween(ctx context.Context, userID string, from, to time.Time) ([]models.Meal, error) {
	return queryMeals(ctx, s.pool, true, mealSelect+`
    WHERE m.user_id = $1 AND m.eaten_at >= $2 AND m.eaten_at < $3
    ORDER BY m.eaten_at, m.id;`, userID, from, to)
}

// FilterMeals runs a query composed by filter.Meals.
func (s *Store) FilterMeals(ctx context.Context, q filter.Query) ([]models.Meal, error) {
	return queryMeals(ctx, s.pool, true, mealSelect+` WHERE `+q.WhereSQL()+` ORDER BY `+q.OrderBy+`;`, q.Args...)
}

// MealsInWindow returns meals inside the closed window, newest first.
func (s *Store) MealsInWindow(ctx context.Context, userID string, w window.Window, withIngredients bool) ([]models.Meal, error) {
	return queryMeals(ctx, s.pool, withIngredients, mealSelect+`
    WHERE m.user_id = $1 AND m.eaten_at >= $2 AND m.eaten_at <= $3
    ORDER BY m.eaten_at DESC, m.id;`, userID, w.Start, w.End)
}

// ListAllMeals returns every meal of userID without ingredients, oldest first.
func (s *Store) ListAllMeals(ctx context.Context, userID string) ([]models.Meal, error) {
	return queryMeals(ctx, s.pool, false, mealSelect+` WHERE m.user_id = $1 ORDER BY m.eaten_at, m.id;`, userID)
}

// ReconcileMealTotals walks every meal in batches and rewrites the totals
// that no longer match the pivot rows. It returns how many meals were
// checked and how many were fixed.
func (s *Store) ReconcileMealTotals(ctx context.Context, batchSize int) (checked, fixed int, err error) {
	if batchSize <= 0 {
		batchSize = 500
	}
	after := "00000000-0000-0000-0000-000000000000"
	for {
		batch, err := queryMeals(ctx, s.pool, false, mealSelect+` WHERE m.id > $1 ORDER BY m.id LIMIT $2;`, after, batchSize)
		if err != nil {
			return checked, fixed, err
		}
		if len(batch) == 0 {
			return checked, fixed, nil
		}
		ids := make([]string, len(batch))
		for i, m := range batch {
			ids[i] = m.ID
		}
		byMeal, err := calcIngredients(ctx, s.pool, ids)
		if err != nil {
			return checked, fixed, err
		}
		drifted := []string{}
		for _, m := range batch {
			if nutrition.Differs(m, nutrition.RecomputeTotals(byMeal[m.ID])) {
				drifted = append(drifted, m.ID)
			}
		}
		if len(drifted) > 0 {
			// Recompute under row locks so a concurrent ingredient replace is not overwritten.
			err := s.inTx(ctx, func(tx pgx.Tx) error {
				if _, err := tx.Exec(ctx, `SELECT 1 FROM meals WHERE id = ANY($1::uuid[]) FOR UPDATE;`, drifted); err != nil {
					return wrap(err, "lock meals", "")
				}
				return recomputeMeals(ctx, tx, drifted)
			})
			if err != nil {
				return checked, fixed, err
			}
			fixed += len(drifted)
		}
		checked += len(batch)
		after = batch[len(batch)-1].ID
		if len(batch) < batchSize {
			return checked, fixed, nil
		}
	}
}
