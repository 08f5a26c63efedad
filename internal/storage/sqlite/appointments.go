package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/care-booking/internal/appointment"
)

const (
	appointmentColumns = `
	id, requester_id, provider_id, starts_at, duration_minutes, status, payment_status,
	consultation_fee, notes, cancellation_reason, created_at, updated_at`

	// sqlite names the columns of a violated index, not the index
	activeSlotHint = "appointments.provider_id"
)

func scanAppointment(row rowScanner) (*appointment.Appointment, error) {
	var a appointment.Appointment
	var startsAt, createdAt, updatedAt int64

	err := row.Scan(
		&a.ID,
		&a.RequesterID,
		&a.ProviderID,
		&startsAt,
		&a.DurationMinutes,
		&a.Status,
		&a.PaymentStatus,
		&a.ConsultationFee,
		&a.Notes,
		&a.CancellationReason,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appointment.ErrAppointmentNotFound
		}
		return nil, err
	}

	a.StartsAt = fromMillis(startsAt)
	a.CreatedAt = fromMillis(createdAt)
	a.UpdatedAt = fromMillis(updatedAt)
	return &a, nil
}

func collectAppointments(rows *sql.Rows) ([]appointment.Appointment, error) {
	defer rows.Close()

	var result []appointment.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) CreateAppointment(ctx context.Context, a *appointment.Appointment) (*appointment.Appointment, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
INSERT INTO appointments (
	id, requester_id, provider_id, starts_at, duration_minutes, status, payment_status,
	consultation_fee, notes, cancellation_reason, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING `+appointmentColumns,
		a.ID.String(), a.RequesterID.String(), a.ProviderID.String(), toMillis(a.StartsAt), a.DurationMinutes,
		string(a.Status), string(a.PaymentStatus), a.ConsultationFee, a.Notes, a.CancellationReason,
		toMillis(a.CreatedAt), toMillis(a.UpdatedAt),
	)
	created, err := scanAppointment(row)
	if err != nil {
		if isUniqueViolation(err, activeSlotHint) {
			return nil, appointment.ErrSlotConflict
		}
		return nil, fmt.Errorf("insert appointment: %w", err)
	}
	return created, nil
}

func (s *Store) GetAppointment(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	row := s.q(ctx).QueryRowContext(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = ?`, id.String())
	return scanAppointment(row)
}

func (s *Store) ListAppointments(ctx context.Context, f appointment.Filter) ([]appointment.Appointment, error) {
	var w where
	if f.RequesterID != nil {
		w.add("requester_id = ?", f.RequesterID.String())
	}
	if f.ProviderID != nil {
		w.add("provider_id = ?", f.ProviderID.String())
	}
	if f.Status != nil {
		w.add("status = ?", string(*f.Status))
	}
	if f.From != nil {
		w.add("starts_at >= ?", toMillis(*f.From))
	}
	if f.To != nil {
		w.add("starts_at <= ?", toMillis(*f.To))
	}
	query := `SELECT ` + appointmentColumns + ` FROM appointments ` + w.sql() +
		` ORDER BY starts_at DESC, id ` + w.page(f.Limit, f.Offset)

	rows, err := s.q(ctx).QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (s *Store) UpdateAppointment(ctx context.Context, a *appointment.Appointment, expected appointment.Status) (*appointment.Appointment, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
UPDATE appointments
SET starts_at = ?,
    duration_minutes = ?,
    status = ?,
    consultation_fee = ?,
    notes = ?,
    cancellation_reason = ?,
    updated_at = ?
WHERE id = ?
  AND status = ?
RETURNING `+appointmentColumns,
		toMillis(a.StartsAt), a.DurationMinutes, string(a.Status), a.ConsultationFee,
		a.Notes, a.CancellationReason, toMillis(a.UpdatedAt), a.ID.String(), string(expected),
	)
	updated, err := scanAppointment(row)
	if err != nil {
		if isUniqueViolation(err, activeSlotHint) {
			return nil, appointment.ErrSlotConflict
		}
		return nil, err
	}
	return updated, nil
}

func (s *Store) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status appointment.PaymentStatus, at time.Time) (*appointment.Appointment, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
UPDATE appointments
SET payment_status = ?, updated_at = ?
WHERE id = ?
RETURNING `+appointmentColumns, string(status), toMillis(at), id.String())
	return scanAppointment(row)
}

func (s *Store) FindOverdue(ctx context.Context, before time.Time) ([]appointment.Appointment, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
SELECT `+appointmentColumns+`
FROM appointments
WHERE status = ?
  AND starts_at < ?
ORDER BY starts_at
`, string(appointment.StatusScheduled), toMillis(before))
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (s *Store) CountAppointmentsByStatus(ctx context.Context) (map[appointment.Status]int64, error) {
	counts, err := s.countBy(ctx, "SELECT status, COUNT(*) FROM appointments GROUP BY status")
	if err != nil {
		return nil, err
	}
	out := make(map[appointment.Status]int64, len(counts))
	for k, v := range counts {
		out[appointment.Status(k)] = v
	}
	return out, nil
}

func (s *Store) CountAppointmentsByPaymentStatus(ctx context.Context) (map[appointment.PaymentStatus]int64, error) {
	counts, err := s.countBy(ctx, "SELECT payment_status, COUNT(*) FROM appointments GROUP BY payment_status")
	if err != nil {
		return nil, err
	}
	out := make(map[appointment.PaymentStatus]int64, len(counts))
	for k, v := range counts {
		out[appointment.PaymentStatus(k)] = v
	}
	return out, nil
}

func (s *Store) countBy(ctx context.Context, query string) (map[string]int64, error) {
	rows, err := s.q(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var key string
		var n int64
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		out[key] = n
	}
	return out, rows.Err()
}
