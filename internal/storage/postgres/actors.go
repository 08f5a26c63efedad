package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hackgods/care-booking/internal/actor"
)

const actorColumns = `
	id, name, email, phone, password_hash, role, active,
	specialty, license_number, years_of_experience, base_fee::float8,
	address, date_of_birth, gender, created_at, updated_at`

func scanActor(row pgx.Row) (*actor.Actor, error) {
	var a actor.Actor
	var gender *string

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
		&a.DateOfBirth,
		&gender,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, actor.ErrActorNotFound
		}
		return nil, err
	}

	if gender != nil {
		g := actor.Gender(*gender)
		a.Gender = &g
	}
	return &a, nil
}

func (s *Store) GetActor(ctx context.Context, id uuid.UUID) (*actor.Actor, error) {
	row := s.q(ctx).QueryRow(ctx, `SELECT `+actorColumns+` FROM actors WHERE id = $1`, id)
	return scanActor(row)
}

func (s *Store) GetActorByEmail(ctx context.Context, email string) (*actor.Actor, error) {
	row := s.q(ctx).QueryRow(ctx, `SELECT `+actorColumns+` FROM actors WHERE email = $1`, email)
	return scanActor(row)
}

func (s *Store) CreateActor(ctx context.Context, a *actor.Actor) (*actor.Actor, error) {
	var gender *string
	if a.Gender != nil {
		g := string(*a.Gender)
		gender = &g
	}

	row := s.q(ctx).QueryRow(ctx, `
		INSERT INTO actors (
			id, name, email, phone, password_hash, role, active,
			specialty, license_number, years_of_experience, base_fee,
			address, date_of_birth, gender, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING `+actorColumns,
		a.ID, a.Name, a.Email, a.Phone, a.PasswordHash, string(a.Role), a.Active,
		a.Specialty, a.LicenseNumber, a.YearsOfExperience, a.BaseFee,
		a.Address, a.DateOfBirth, gender, a.CreatedAt, a.UpdatedAt,
	)
	created, err := scanActor(row)
	if err != nil {
		if isUniqueViolation(err, "actors_email_key") {
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
		w.add("specialty ILIKE ?", "%"+*f.Specialty+"%")
	}
	query := `SELECT ` + actorColumns + ` FROM actors ` + w.sql() +
		` ORDER BY created_at, id ` + w.page(f.Limit, f.Offset)

	rows, err := s.q(ctx).Query(ctx, query, w.args...)
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
	row := s.q(ctx).QueryRow(ctx, `
		UPDATE actors
		SET active = $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+actorColumns, id, active)
	return scanActor(row)
}

func (s *Store) CountActorsByRole(ctx context.Context) (map[actor.Role]actor.RoleCount, error) {
	rows, err := s.q(ctx).Query(ctx, `
		SELECT role, COUNT(*), COUNT(*) FILTER (WHERE active)
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
