package store

import (
	"context"

	"github.com/jackc/pgx/v5"

	"zakfit/api/internal/apperr"
	"zakfit/api/internal/models"
)

const foodColumns = `id, COALESCE(user_id::text, ''), name, category, preference_category,
  calories, protein, carbohydrate, lipid, calculation_unit`

func scanFood(row pgx.Row) (models.Food, error) {
	var f models.Food
	var owner string
	err := row.Scan(&f.ID, &owner, &f.Name, &f.Category, &f.PreferenceCategory,
		&f.Calories, &f.Proteins, &f.Carbohydrates, &f.Lipids, &f.CalculationUnit)
	if owner == "" {
		f.Owner = models.SystemFood()
	} else {
		f.Owner = models.UserFood(owner)
	}
	return f, err
}

func ownerArg(o models.FoodOwner) any {
	id, _ := o.UserID()
	return nullable(id)
}

func queryFoods(ctx context.Context, q querier, sql string, args ...any) ([]models.Food, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, wrap(err, "query foods", "")
	}
	defer rows.Close()

	out := []models.Food{}
	for rows.Next() {
		f, err := scanFood(rows)
		if err != nil {
			return nil, wrap(err, "scan food", "")
		}
		out = append(out, f)
	}
	return out, wrap(rows.Err(), "query foods", "")
}

// ListSystemFoods returns the foods shared by every user.
func (s *Store) ListSystemFoods(ctx context.Context) ([]models.Food, error) {
	return queryFoods(ctx, s.pool, `SELECT `+foodColumns+` FROM foods WHERE user_id IS NULL ORDER BY name, id;`)
}

// ListVisibleFoods returns system foods and the foods created by userID.
func (s *Store) ListVisibleFoods(ctx context.Context, userID string) ([]models.Food, error) {
	return queryFoods(ctx, s.pool, `SELECT `+foodColumns+` FROM foods WHERE user_id IS NULL OR user_id = $1 ORDER BY name, id;`, userID)
}

// ListOwnFoods returns only the foods created by userID.
func (s *Store) ListOwnFoods(ctx context.Context, userID string) ([]models.Food, error) {
	return queryFoods(ctx, s.pool, `SELECT `+foodColumns+` FROM foods WHERE user_id = $1 ORDER BY name, id;`, userID)
}

func (s *Store) FoodByID(ctx context.Context, id string) (models.Food, error) {
	f, err := scanFood(s.pool.QueryRow(ctx, `SELECT `+foodColumns+` FROM foods WHERE id = $1;`, id))
	return f, wrap(err, "get food", "Food not found")
}

// visibleFoodsByID loads the requested foods that userID may use, keyed by id.
func visibleFoodsByID(ctx context.Context, q querier, userID string, ids []string) (map[string]models.Food, error) {
	foods, err := queryFoods(ctx, q, `
    SELECT `+foodColumns+` FROM foods
    WHERE id = ANY($1::uuid[]) AND (user_id IS NULL OR user_id = $2);
  `, ids, userID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.Food, len(foods))
	for _, f := range foods {
		out[f.ID] = f
	}
	return out, nil
}

func insertFood(ctx context.Context, q querier, f models.Food) (models.Food, error) {
	created, err := scanFood(q.QueryRow(ctx, `
    INSERT INTO foods (user_id, name, category, preference_category, calories, protein, carbohydrate, lipid, calculation_unit)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    RETURNING `+foodColumns+`;
  `, ownerArg(f.Owner), f.Name, f.Category, f.PreferenceCategory,
		f.Calories, f.Proteins, f.Carbohydrates, f.Lipids, f.CalculationUnit))
	return created, wrap(err, "insert food", "")
}

func (s *Store) CreateFood(ctx context.Context, f models.Food) (models.Food, error) {
	return insertFood(ctx, s.pool, f)
}

// CreateSystemFoods inserts a batch of shared foods atomically.
func (s *Store) CreateSystemFoods(ctx context.Context, foods []models.Food) ([]models.Food, error) {
	out := make([]models.Food, 0, len(foods))
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		for _, f := range foods {
			f.Owner = models.SystemFood()
			created, err := insertFood(ctx, tx, f)
			if err != nil {
				return err
			}
			out = append(out, created)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func ownedFoodForUpdate(ctx context.Context, tx pgx.Tx, id, userID string) (models.Food, error) {
	f, err := scanFood(tx.QueryRow(ctx, `SELECT `+foodColumns+` FROM foods WHERE id = $1 FOR UPDATE;`, id))
	if err != nil {
		return models.Food{}, wrap(err, "get food", "Food not found")
	}
	if !f.Owner.VisibleTo(userID) {
		return models.Food{}, apperr.NotFound("Food not found")
	}
	if !f.Owner.OwnedBy(userID) {
		return models.Food{}, apperr.Forbidden("You cannot modify this food")
	}
	return f, nil
}

// UpdateFood rewrites a food owned by userID and recomputes the totals of
// every meal using it in the same transaction.
func (s *Store) UpdateFood(ctx context.Context, f models.Food, userID string) (models.Food, error) {
	var updated models.Food
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := ownedFoodForUpdate(ctx, tx, f.ID, userID); err != nil {
			return err
		}
		var err error
		updated, err = scanFood(tx.QueryRow(ctx, `
      UPDATE foods SET name = $2, category = $3, preference_category = $4,
        calories = $5, protein = $6, carbohydrate = $7, lipid = $8, calculation_unit = $9
      WHERE id = $1
      RETURNING `+foodColumns+`;
    `, f.ID, f.Name, f.Category, f.PreferenceCategory,
			f.Calories, f.Proteins, f.Carbohydrates, f.Lipids, f.CalculationUnit))
		if err != nil {
			return wrap(err, "update food", "Food not found")
		}
		mealIDs, err := mealIDsUsingFood(ctx, tx, f.ID)
		if err != nil {
			return err
		}
		return recomputeMeals(ctx, tx, mealIDs)
	})
	return updated, err
}

// DeleteFood removes a food owned by userID. Meals that used it lose the
// ingredient and are recomputed in the same transaction.
func (s *Store) DeleteFood(ctx context.Context, id, userID string) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := ownedFoodForUpdate(ctx, tx, id, userID); err != nil {
			return err
		}
		mealIDs, err := mealIDsUsingFood(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM foods WHERE id = $1;`, id); err != nil {
			return wrap(err, "delete food", "")
		}
		return recomputeMeals(ctx, tx, mealIDs)
	})
}
