package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"zakfit/api/internal/apperr"
	"zakfit/api/internal/filter"
	"zakfit/api/internal/models"
	"zakfit/api/internal/window"
)

const activitySelect = `
  SELECT a.id, a.user_id, a.name, a.duration_min, a.calories_burned, a.occurred_at, t.id, t.name
  FROM activities a
  JOIN activity_types t ON t.id = a.activity_type_id`

func scanActivity(row pgx.Row) (models.Activity, error) {
	var a models.Activity
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Duration, &a.CaloriesBurned, &a.Date, &a.Type.ID, &a.Type.Name)
	return a, err
}

func (s *Store) queryActivities(ctx context.Context, sql string, args ...any) ([]models.Activity, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, wrap(err, "query activities", "")
	}
	defer rows.Close()

	out := []models.Activity{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, wrap(err, "scan activity", "")
		}
		out = append(out, a)
	}
	return out, wrap(rows.Err(), "query activities", "")
}

// CreateActivity stores a for its user. A zero Date means now.
func (s *Store) CreateActivity(ctx context.Context, a models.Activity) (models.Activity, error) {
	if _, err := s.ActivityTypeByID(ctx, a.Type.ID); err != nil {
		return models.Activity{}, err
	}
	if a.Date.IsZero() {
		a.Date = s.now()
	}
	var id string
	err := s.pool.QueryRow(ctx, `
    INSERT INTO activities (user_id, activity_type_id, name, duration_min, calories_burned, occurred_at)
    VALUES ($1, $2, $3, $4, $5, $6)
    RETURNING id;
  `, a.UserID, a.Type.ID, a.Name, a.Duration, a.CaloriesBurned, a.Date).Scan(&id)
	if err != nil {
		return models.Activity{}, wrap(err, "insert activity", "")
	}
	return s.ActivityByID(ctx, id)
}

func (s *Store) ActivityByID(ctx context.Context, id string) (models.Activity, error) {
	a, err := scanActivity(s.pool.QueryRow(ctx, activitySelect+` WHERE a.id = $1;`, id))
	return a, wrap(err, "get activity", "Activity not found")
}

// OwnedActivity loads an activity and checks it belongs to userID.
func (s *Store) OwnedActivity(ctx context.Context, id, userID string) (models.Activity, error) {
	a, err := s.ActivityByID(ctx, id)
	if err != nil {
		return models.Activity{}, err
	}
	if a.UserID != userID {
		return models.Activity{}, apperr.Forbidden("You cannot modify this activity")
	}
	return a, nil
}

// UpdateActivity writes the mutable fields of a. Ownership must have been
// checked with OwnedActivity.
func (s *Store) UpdateActivity(ctx context.Context, a models.Activity) (models.Activity, error) {
	if _, err := s.ActivityTypeByID(ctx, a.Type.ID); err != nil {
		return models.Activity{}, err
	}
	ct, err := s.pool.Exec(ctx, `
    UPDATE activities
    SET activity_type_id = $3, name = $4, duration_min = $5, calories_burned = $6, occurred_at = $7
    WHERE id = $1 AND user_id = $2;
  `, a.ID, a.UserID, a.Type.ID, a.Name, a.Duration, a.CaloriesBurned, a.Date)
	if err != nil {
		return models.Activity{}, wrap(err, "update activity", "")
	}
	if ct.RowsAffected() == 0 {
		return models.Activity{}, apperr.NotFound("Activity not found")
	}
	return s.ActivityByID(ctx, a.ID)
}

func (s *Store) DeleteActivity(ctx context.Context, id, userID string) error {
	if _, err := s.OwnedActivity(ctx, id, userID); err != nil {
		return err
	}
	ct, err := s.pool.Exec(ctx, `DELETE FROM activities WHERE id = $1 AND user_id = $2;`, id, userID)
	if err != nil {
		return wrap(err, "delete activity", "")
	}
	if ct.RowsAffected() == 0 {
		return apperr.NotFound("Activity not found")
	}
	return nil
}

// ListActivities returns every activity of userID, newest first.
func (s *Store) ListActivities(ctx context.Context, userID string) ([]models.Activity, error) {
	return s.queryActivities(ctx, activitySelect+` WHERE a.user_id = $1 ORDER BY a.occurred_at DESC, a.id;`, userID)
}

// ActivitiesBetween returns activities with from <= date < to, oldest first.
func (s *Store) ActivitiesBetween(ctx context.Context, userID string, from, to time.Time) ([]models.Activity, error) {
	return s.queryActivities(ctx, activitySelect+`
    WHERE a.user_id = $1 AND a.occurred_at >= $2 AND a.occurred_at < $3
    ORDER BY a.occurred_at, a.id;`, userID, from, to)
}

// FilterActivities runs a query composed by filter.Activities.
func (s *Store) FilterActivities(ctx context.Context, q filter.Query) ([]models.Activity, error) {
	return s.queryActivities(ctx, activitySelect+` WHERE `+q.WhereSQL()+` ORDER BY `+q.OrderBy+`;`, q.Args...)
}

// ActivitiesInWindow returns activities inside the closed window, newest first.
func (s *Store) ActivitiesInWindow(ctx context.Context, userID string, w window.Window) ([]models.Activity, error) {
	return s.queryActivities(ctx, activitySelect+`
    WHERE a.user_id = $1 AND a.occurred_at >= $2 AND a.occurred_at <= $3
    ORDER BY a.occurred_at DESC, a.id;`, userID, w.Start, w.End)
}

// ListAllActivities returns every activity of userID, oldest first.
func (s *Store) ListAllActivities(ctx context.Context, userID string) ([]models.Activity, error) {
	return s.queryActivities(ctx, activitySelect+` WHERE a.user_id = $1 ORDER BY a.occurred_at, a.id;`, userID)
}
