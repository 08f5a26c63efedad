package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hackgods/care-booking/internal/actor"
)

const actorColumns = `
	id, name, email, phone, password_hash, role, active,
	specialty, license_number, years_of_experience, base_fee,
	address, date_of_birth, gender, created_at, updated_at`

func scanActor(row rowScanner) (*actor.Actor, error) {
	var a actor.Actor
	var dob sql.NullInt64
	var gender sql.NullString
	var createdAt, updatedAt int64

	err := row.Scan(
		&a.ID,
		&a.Name,
		&a.Email,
		&a.Phone,
		&a.PasswordHash,
		&a.Role,
		&a.Active,
		&a.Specialty,
		&a.LicenseNumber,
		&a.YearsOfExperience,
		&a.BaseFee,
		&a.Address,
		&dob,
		&gender,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, actor.ErrActorNotFound
		}
		return nil, err
	}

	a.DateOfBirth = timePtr(dob)
	if gender.Valid {
		g := actor.Gender(gender.String)
		a.Gender = &g
	}
	a.CreatedAt = fromMillis(createdAt)
	a.UpdatedAt = fromMillis(updatedAt)
	return &a, nil
}

func (s *Store) GetActor(ctx context.Context, id uuid.UUID) (*actor.Actor, error) {
	row := s.q(ctx).QueryRowContext(ctx, `SELECT `+actorColumns+` FROM actors WHERE id = ?`, id.String())
	return scanActor(row)
}

func (s *Store) GetActorByEmail(ctx context.Context, email string) (*actor.Actor, error) {
	row := s.q(ctx).QueryRowContext(ctx, `SELECT `+actorColumns+` FROM actors WHERE email = ?`, email)
	return scanActor(row)
}

func (s *Store) CreateActor(ctx context.Context, a *actor.Actor) (*actor.Actor, error) {
	var gender sql.NullString
	if a.Gender != nil {
		gender = sql.NullString{String: string(*a.Gender), Valid: true}
	}

	row := s.q(ctx).QueryRowContext(ctx, `
INSERT INTO actors (
	id, name, email, phone, password_hash, role, active,
	specialty, license_number, years_of_experience, base_fee,
	address, date_of_birth, gender, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING `+actorColumns,
		a.ID.String(), a.Name, a.Email, a.Phone, a.PasswordHash, string(a.Role), a.Active,
		a.Specialty, a.LicenseNumber, a.YearsOfExperience, a.BaseFee,
		a.Address, nullMillis(a.DateOfBirth), gender, toMillis(a.CreatedAt), toMillis(a.UpdatedAt),
	)
	created, err := scanActor(row)
	if err != nil {
		if isUniqueViolation(err, "actors.email") {
			return nil, actor.ErrEmailTaken
		}
		return nil, fmt.Errorf("insert actor: %w", err)
	}
	return created, nil
}

func (s *Store) ListActors(ctx context.Context, f actor.Filter) ([]actor.Actor, error) {
	var w where
	if f.Role != nil {
		w.add("role = ?", string(*f.Role))
	}
	if f.ActiveOnly {
		w.add("active = ?", true)
	}
	if f.Specialty != nil {
		w.add("LOWER(specialty) LIKE ?", "%"+strings.ToLower(*f.Specialty)+"%")
	}
	query := `SELECT ` + actorColumns + ` FROM actors ` + w.sql() +
		` ORDER BY created_at, id ` + w.page(f.Limit, f.Offset)

	rows, err := s.q(ctx).QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []actor.Actor
	for rows.Next() {
		a, err := scanActor(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

func (s *Store) SetActorActive(ctx context.Context, id uuid.UUID, active bool) (*actor.Actor, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
UPDATE actors
SET active = ?, updated_at = ?
WHERE id = ?
RETURNING `+actorColumns, active, toMillis(nowUTC()), id.String())
	return scanActor(row)
}

func (s *Store) CountActorsByRole(ctx context.Context) (map[actor.Role]actor.RoleCount, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
SELECT role, COUNT(*), COALESCE(SUM(CASE WHEN active THEN 1 ELSE 0 END), 0)
FROM actors
GROUP BY role
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[actor.Role]actor.RoleCount)
	for rows.Next() {
		var role string
		var c actor.RoleCount
		if err := rows.Scan(&role, &c.Total, &c.Active); err != nil {
			return nil, err
		}
		out[actor.Role(role)] = c
	}
	return out, rows.Err()
}
