package store

import (
	"context"

	"zakfit/api/internal/apperr"
	"zakfit/api/internal/models"
)

func (s *Store) ListActivityTypes(ctx context.Context) ([]models.ActivityType, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name FROM activity_types ORDER BY name;`)
	if err != nil {
		return nil, wrap(err, "list activity types", "")
	}
	defer rows.Close()

	out := []models.ActivityType{}
	for rows.Next() {
		var t models.ActivityType
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, wrap(err, "scan activity type", "")
		}
		out = append(out, t)
	}
	return out, wrap(rows.Err(), "list activity types", "")
}

func (s *Store) ActivityTypeByID(ctx context.Context, id string) (models.ActivityType, error) {
	var t models.ActivityType
	err := s.pool.QueryRow(ctx, `SELECT id, name FROM activity_types WHERE id = $1;`, id).Scan(&t.ID, &t.Name)
	return t, wrap(err, "get activity type", "Activity type not found")
}

// ActivityTypeIDsByName resolves a type name, ignoring case. An unknown
// name yields an empty slice.
func (s *Store) ActivityTypeIDsByName(ctx context.Context, name string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT id FROM activity_types WHERE lower(name) = lower($1);`, name)
	if err != nil {
		return nil, wrap(err, "resolve activity type", "")
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, wrap(err, "scan activity type id", "")
		}
		ids = append(ids, id)
	}
	return ids, wrap(rows.Err(), "resolve activity type", "")
}

func (s *Store) CreateActivityType(ctx context.Context, name string) (models.ActivityType, error) {
	var t models.ActivityType
	err := s.pool.QueryRow(ctx, `INSERT INTO activity_types (name) VALUES ($1) RETURNING id, name;`, name).Scan(&t.ID, &t.Name)
	if isUniqueViolation(err) {
		return models.ActivityType{}, apperr.Conflict("This activity type already exists")
	}
	return t, wrap(err, "insert activity type", "")
}

// DeleteActivityType removes a type and, by cascade, its activities.
func (s *Store) DeleteActivityType(ctx context.Context, id string) error {
	ct, err := s.pool.Exec(ctx, `DELETE FROM activity_types WHERE id = $1;`, id)
	if err != nil {
		return wrap(err, "delete activity type", "")
	}
	if ct.RowsAffected() == 0 {
		return apperr.NotFound("Activity type not found")
	}
	return nil
}
