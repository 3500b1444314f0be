package users

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Upsert(ctx context.Context, user User) error {
	const query = `
INSERT INTO users (id, username, email, full_name, is_staff, year_of_birth, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, now(), now())
ON CONFLICT (id) DO UPDATE SET
  username = EXCLUDED.username,
  email = EXCLUDED.email,
  full_name = EXCLUDED.full_name,
  is_staff = EXCLUDED.is_staff,
  year_of_birth = EXCLUDED.year_of_birth,
  updated_at = now()`
	_, err := r.DB.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		nullableString(user.FullName),
		user.IsStaff,
		nullableInt(user.YearOfBirth),
	)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, userID string) (User, error) {
	const query = `
SELECT id, username, email, full_name, is_staff, year_of_birth, created_at, updated_at
FROM users
WHERE id = $1
LIMIT 1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, userID))
}

func (r *PGRepo) GetByUsername(ctx context.Context, username string) (User, error) {
	const query = `
SELECT id, username, email, full_name, is_staff, year_of_birth, created_at, updated_at
FROM users
WHERE username = $1
LIMIT 1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, username))
}

func (r *PGRepo) scanOne(row *sql.Row) (User, error) {
	var user User
	var fullName sql.NullString
	var yearOfBirth sql.NullInt64
	var updatedAt sql.NullTime
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&fullName,
		&user.IsStaff,
		&yearOfBirth,
		&user.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	if fullName.Valid {
		user.FullName = fullName.String
	}
	if yearOfBirth.Valid {
		yob := int(yearOfBirth.Int64)
		user.YearOfBirth = &yob
	}
	if updatedAt.Valid {
		user.UpdatedAt = updatedAt.Time
	} else {
		user.UpdatedAt = time.Now().UTC()
	}
	return user, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableInt(value *int) any {
	if value == nil {
		return nil
	}
	return *value
}
