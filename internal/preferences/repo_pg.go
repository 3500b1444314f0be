package preferences

import (
	"context"
	"database/sql"
	"errors"
	"sort"
)

type PGRepo struct {
	DB *sql.DB
}

const upsertPreferenceQuery = `
INSERT INTO user_preferences (user_id, key, value, created_at, updated_at)
VALUES ($1, $2, $3, now(), now())
ON CONFLICT (user_id, key) DO UPDATE SET
  value = EXCLUDED.value,
  updated_at = now()`

func (r *PGRepo) Get(ctx context.Context, userID, key string) (string, error) {
	const query = `
SELECT value
FROM user_preferences
WHERE user_id = $1 AND key = $2
LIMIT 1`
	var value string
	err := r.DB.QueryRowContext(ctx, query, userID, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

func (r *PGRepo) GetAll(ctx context.Context, userID string) (map[string]string, error) {
	const query = `
SELECT key, value
FROM user_preferences
WHERE user_id = $1`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prefs := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		prefs[key] = value
	}
	return prefs, rows.Err()
}

func (r *PGRepo) Set(ctx context.Context, userID, key, value string) error {
	_, err := r.DB.ExecContext(ctx, upsertPreferenceQuery, userID, key, value)
	return err
}

func (r *PGRepo) Delete(ctx context.Context, userID, key string) error {
	const query = `
DELETE FROM user_preferences
WHERE user_id = $1 AND key = $2`
	res, err := r.DB.ExecContext(ctx, query, userID, key)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Apply runs the batch in one transaction. Deletes are idempotent here; the
// not-found distinction only matters for the single-key endpoint.
func (r *PGRepo) Apply(ctx context.Context, userID string, sets map[string]string, deletes []string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Deterministic order keeps concurrent batches from deadlocking on
	// row locks.
	keys := make([]string, 0, len(sets))
	for key := range sets {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if _, err := tx.ExecContext(ctx, upsertPreferenceQuery, userID, key, sets[key]); err != nil {
			return err
		}
	}
	const deleteQuery = `
DELETE FROM user_preferences
WHERE user_id = $1 AND key = $2`
	for _, key := range deletes {
		if _, err := tx.ExecContext(ctx, deleteQuery, userID, key); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *PGRepo) GetOrgTag(ctx context.Context, userID, org, key string) (string, error) {
	const query = `
SELECT value
FROM user_org_tags
WHERE user_id = $1 AND org = $2 AND key = $3
LIMIT 1`
	var value string
	err := r.DB.QueryRowContext(ctx, query, userID, org, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

func (r *PGRepo) SetOrgTag(ctx context.Context, userID, org, key, value string) error {
	const query = `
INSERT INTO user_org_tags (user_id, org, key, value, created_at, updated_at)
VALUES ($1, $2, $3, $4, now(), now())
ON CONFLICT (user_id, org, key) DO UPDATE SET
  value = EXCLUDED.value,
  updated_at = now()`
	_, err := r.DB.ExecContext(ctx, query, userID, org, key, value)
	return err
}
