package store

import (
	"context"

	"github.com/jackc/pgx/v5"

	"zakfit/api/internal/apperr"
	"zakfit/api/internal/models"
)

// ObjectiveValues maps an objective type to its value. Types are applied in
// models.ObjectiveTypes order.
type ObjectiveValues map[string]int

const objectiveColumns = `id, user_id, type, value, created_at`

func scanObjective(row pgx.Row) (models.Objective, error) {
	var o models.Objective
	err := row.Scan(&o.ID, &o.UserID, &o.Type, &o.Value, &o.Date)
	return o, err
}

func queryObjectives(ctx context.Context, q querier, sql string, args ...any) ([]models.Objective, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, wrap(err, "query objectives", "")
	}
	defer rows.Close()

	out := []models.Objective{}
	for rows.Next() {
		o, err := scanObjective(rows)
		if err != nil {
			return nil, wrap(err, "scan objective", "")
		}
		out = append(out, o)
	}
	return out, wrap(rows.Err(), "query objectives", "")
}

func insertObjective(ctx context.Context, q querier, userID, typ string, value int) (models.Objective, error) {
	o, err := scanObjective(q.QueryRow(ctx, `
    INSERT INTO objectives (user_id, type, value) VALUES ($1, $2, $3)
    RETURNING `+objectiveColumns+`;
  `, userID, typ, value))
	return o, wrap(err, "insert objective", "")
}

// CreateObjectives inserts one row per provided type in a single transaction.
func (s *Store) CreateObjectives(ctx context.Context, userID string, values ObjectiveValues) ([]models.Objective, error) {
	out := []models.Objective{}
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		for _, typ := range models.ObjectiveTypes {
			v, ok := values[typ]
			if !ok {
				continue
			}
			o, err := insertObjective(ctx, tx, userID, typ, v)
			if err != nil {
				return err
			}
			out = append(out, o)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListObjectives returns every objective of userID, newest first.
func (s *Store) ListObjectives(ctx context.Context, userID string) ([]models.Objective, error) {
	return queryObjectives(ctx, s.pool, `
    SELECT `+objectiveColumns+` FROM objectives WHERE user_id = $1 ORDER BY created_at DESC, id;
  `, userID)
}

// LatestObjectives returns the newest objective of each type, newest first.
func (s *Store) LatestObjectives(ctx context.Context, userID string) ([]models.Objective, error) {
	return queryObjectives(ctx, s.pool, `
    SELECT `+objectiveColumns+` FROM (
      SELECT DISTINCT ON (type) `+objectiveColumns+`
      FROM objectives
      WHERE user_id = $1
      ORDER BY type, created_at DESC, id
    ) latest
    ORDER BY created_at DESC, type;
  `, userID)
}

// UpsertLatestObjectives overwrites the value of the newest objective of each
// provided type, creating one when the type has none yet.
func (s *Store) UpsertLatestObjectives(ctx context.Context, userID string, values ObjectiveValues) ([]models.Objective, error) {
	out := []models.Objective{}
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		for _, typ := range models.ObjectiveTypes {
			v, ok := values[typ]
			if !ok {
				continue
			}
			o, err := scanObjective(tx.QueryRow(ctx, `
        SELECT `+objectiveColumns+` FROM objectives
        WHERE user_id = $1 AND type = $2
        ORDER BY created_at DESC, id
        LIMIT 1
        FOR UPDATE;
      `, userID, typ))
			if err != nil && !isNoRows(err) {
				return wrap(err, "get latest objective", "")
			}
			if isNoRows(err) {
				o, err = insertObjective(ctx, tx, userID, typ, v)
				if err != nil {
					return err
				}
				out = append(out, o)
				continue
			}
			o, err = scanObjective(tx.QueryRow(ctx, `
        UPDATE objectives SET value = $2 WHERE id = $1 RETURNING `+objectiveColumns+`;
      `, o.ID, v))
			if err != nil {
				return wrap(err, "update objective", "")
			}
			out = append(out, o)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteObjective removes an objective owned by userID.
func (s *Store) DeleteObjective(ctx context.Context, id, userID string) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		var owner string
		err := tx.QueryRow(ctx, `SELECT user_id FROM objectives WHERE id = $1 FOR UPDATE;`, id).Scan(&owner)
		if err != nil {
			return wrap(err, "get objective", "Objective not found")
		}
		if owner != userID {
			return apperr.Forbidden("You cannot delete this objective")
		}
		_, err = tx.Exec(ctx, `DELETE FROM objectives WHERE id = $1;`, id)
		return wrap(err, "delete objective", "")
	})
}
