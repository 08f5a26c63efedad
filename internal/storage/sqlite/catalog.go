package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/hackgods/care-booking/internal/catalog"
)

const serviceColumns = `
	id, name, description, category, duration_minutes, price, active,
	max_participants, current_participants, created_at, updated_at`

func scanService(row rowScanner) (*catalog.WellnessService, error) {
	var w catalog.WellnessService
	var createdAt, updatedAt int64

	err := row.Scan(
		&w.ID,
		&w.Name,
		&w.Description,
		&w.Category,
		&w.DurationMinutes,
		&w.Price,
		&w.Active,
		&w.MaxParticipants,
		&w.CurrentParticipants,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, catalog.ErrServiceNotFound
		}
		return nil, err
	}
	w.CreatedAt = fromMillis(createdAt)
	w.UpdatedAt = fromMillis(updatedAt)
	return &w, nil
}

func (s *Store) CreateService(ctx context.Context, w *catalog.WellnessService) (*catalog.WellnessService, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
INSERT INTO wellness_services (
	id, name, description, category, duration_minutes, price, active,
	max_participants, current_participants, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING `+serviceColumns,
		w.ID.String(), w.Name, w.Description, string(w.Category), w.DurationMinutes, w.Price, w.Active,
		w.MaxParticipants, w.CurrentParticipants, toMillis(w.CreatedAt), toMillis(w.UpdatedAt),
	)
	created, err := scanService(row)
	if err != nil {
		return nil, fmt.Errorf("insert wellness service: %w", err)
	}
	return created, nil
}

func (s *Store) GetService(ctx context.Context, id uuid.UUID) (*catalog.WellnessService, error) {
	row := s.q(ctx).QueryRowContext(ctx, `SELECT `+serviceColumns+` FROM wellness_services WHERE id = ?`, id.String())
	return scanService(row)
}

func (s *Store) ListServices(ctx context.Context, category *catalog.Category) ([]catalog.WellnessService, error) {
	var w where
	w.add("active = ?", true)
	if category != nil {
		w.add("category = ?", string(*category))
	}

	rows, err := s.q(ctx).QueryContext(ctx, `SELECT `+serviceColumns+` FROM wellness_services `+w.sql()+` ORDER BY name`, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []catalog.WellnessService
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *svc)
	}
	return result, rows.Err()
}

func (s *Store) CountActiveServicesByCategory(ctx context.Context) (map[catalog.Category]int64, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
SELECT category, COUNT(*)
FROM wellness_services
WHERE active = 1
GROUP BY category
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[catalog.Category]int64)
	for rows.Next() {
		var c string
		var n int64
		if err := rows.Scan(&c, &n); err != nil {
			return nil, err
		}
		out[catalog.Category(c)] = n
	}
	return out, rows.Err()
}
