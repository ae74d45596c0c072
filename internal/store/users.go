package store

import (
	"context"

	"github.com/jackc/pgx/v5"

	"zakfit/api/internal/apperr"
	"zakfit/api/internal/models"
)

const userColumns = `id, email, password_hash, first_name, last_name,
  year_of_birth, height_cm, weight_kg, gender, activity_frequency,
  bmr, preferred_food_type, daily_activity_level,
  calorie_daily, protein_daily, lipid_daily, carbohydrate_daily,
  personal_objective, created_at`

func scanUser(row pgx.Row) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.YearOfBirth, &u.Size, &u.Weight, &u.Gender, &u.FrequencyOfActivity,
		&u.BMR, &u.PreferredFoodType, &u.TypeOfDailyActivity,
		&u.CalorieDaily, &u.ProteinDaily, &u.LipidDaily, &u.CarbohydrateDaily,
		&u.ObjectivePersonal, &u.CreatedAt)
	return u, err
}

// CreateUser inserts a user whose password is already hashed.
func (s *Store) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	row := s.pool.QueryRow(ctx, `
    INSERT INTO users (email, password_hash, first_name, last_name)
    VALUES ($1, $2, $3, $4)
    RETURNING `+userColumns+`;
  `, u.Email, u.PasswordHash, u.FirstName, u.LastName)
	created, err := scanUser(row)
	if isUniqueViolation(err) {
		return models.User{}, apperr.Conflict("This email is already in use")
	}
	return created, wrap(err, "insert user", "")
}

func (s *Store) UserByID(ctx context.Context, id string) (models.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1;`, id))
	return u, wrap(err, "get user", "User not found")
}

// UserByEmail matches emails case-insensitively.
func (s *Store) UserByEmail(ctx context.Context, email string) (models.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1);`, email))
	return u, wrap(err, "get user by email", "User not found")
}

// UpdateUser writes every mutable column of u.
func (s *Store) UpdateUser(ctx context.Context, u models.User) (models.User, error) {
	row := s.pool.QueryRow(ctx, `
    UPDATE users SET
      email = $2, password_hash = $3, first_name = $4, last_name = $5,
      year_of_birth = $6, height_cm = $7, weight_kg = $8, gender = $9, activity_frequency = $10,
      bmr = $11, preferred_food_type = $12, daily_activity_level = $13,
      calorie_daily = $14, protein_daily = $15, lipid_daily = $16, carbohydrate_daily = $17,
      personal_objective = $18
    WHERE id = $1
    RETURNING `+userColumns+`;
  `, u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName,
		u.YearOfBirth, u.Size, u.Weight, u.Gender, u.FrequencyOfActivity,
		u.BMR, u.PreferredFoodType, u.TypeOfDailyActivity,
		u.CalorieDaily, u.ProteinDaily, u.LipidDaily, u.CarbohydrateDaily,
		u.ObjectivePersonal)
	updated, err := scanUser(row)
	if isUniqueViolation(err) {
		return models.User{}, apperr.Conflict("This email is already in use")
	}
	return updated, wrap(err, "update user", "User not found")
}
