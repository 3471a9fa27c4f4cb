package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"clinic-booking-api/internal/model"
)

const userColumns = `id, email, password_hash, name, role, specialty, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	u := &model.User{}
	var role string
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &role, &u.Specialty, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = model.Role(role)
	return u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	err := s.db.QueryRow(ctx,
		`INSERT INTO users (id, email, password_hash, name, role, specialty)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 RETURNING created_at, updated_at`,
		u.ID, u.Email, u.PasswordHash, u.Name, string(u.Role), u.Specialty,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if pgCode(err) == codeUniqueViolation {
		return model.ErrDuplicate
	}
	return err
}

func (s *Store) UserByID(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	return u, notFound(err)
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
	return u, notFound(err)
}

// UpdateUser writes the editable profile fields and reloads the row into u.
func (s *Store) UpdateUser(ctx context.Context, u *model.User) error {
	got, err := scanUser(s.db.QueryRow(ctx,
		`UPDATE users SET name=$1, email=$2, specialty=$3, updated_at=NOW()
		 WHERE id=$4
		 RETURNING `+userColumns,
		u.Name, u.Email, u.Specialty, u.ID,
	))
	switch {
	case pgCode(err) == codeUniqueViolation:
		return model.ErrDuplicate
	case err != nil:
		return notFound(err)
	}
	*u = *got
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (s *Store) UsersByRole(ctx context.Context, role model.Role) ([]model.User, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE role = $1 ORDER BY name`, string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}
