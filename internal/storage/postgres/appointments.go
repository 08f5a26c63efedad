package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hackgods/care-booking/internal/appointment"
)

const (
	appointmentColumns = `
	id, requester_id, provider_id, starts_at, duration_minutes, status, payment_status,
	consultation_fee::float8, notes, cancellation_reason, created_at, updated_at`

	activeSlotIndex = "appointments_active_slot_uq"
)

func scanAppointment(row pgx.Row) (*appointment.Appointment, error) {
	var a appointment.Appointment

	err := row.Scan(
		&a.ID,
		&a.RequesterID,
		&a.ProviderID,
		&a.StartsAt,
		&a.DurationMinutes,
		&a.Status,
		&a.PaymentStatus,
		&a.ConsultationFee,
		&a.Notes,
		&a.CancellationReason,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, appointment.ErrAppointmentNotFound
		}
		return nil, err
	}

	a.StartsAt = a.StartsAt.UTC()
	return &a, nil
}

func collectAppointments(rows pgx.Rows) ([]appointment.Appointment, error) {
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
	row := s.q(ctx).QueryRow(ctx, `
		INSERT INTO appointments (
			id, requester_id, provider_id, starts_at, duration_minutes, status, payment_status,
			consultation_fee, notes, cancellation_reason, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+appointmentColumns,
		a.ID, a.RequesterID, a.ProviderID, a.StartsAt, a.DurationMinutes,
		string(a.Status), string(a.PaymentStatus), a.ConsultationFee, a.Notes, a.CancellationReason,
		a.CreatedAt, a.UpdatedAt,
	)
	created, err := scanAppointment(row)
	if err != nil {
		if isUniqueViolation(err, activeSlotIndex) {
			return nil, appointment.ErrSlotConflict
		}
		return nil, fmt.Errorf("insert appointment: %w", err)
	}
	return created, nil
}

func (s *Store) GetAppointment(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	row := s.q(ctx).QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
	return scanAppointment(row)
}

func (s *Store) ListAppointments(ctx context.Context, f appointment.Filter) ([]appointment.Appointment, error) {
	var w where
	if f.RequesterID != nil {
		w.add("requester_id = ?", *f.RequesterID)
	}
	if f.ProviderID != nil {
		w.add("provider_id = ?", *f.ProviderID)
	}
	if f.Status != nil {
		w.add("status = ?", string(*f.Status))
	}
	if f.From != nil {
		w.add("starts_at >= ?", *f.From)
	}
	if f.To != nil {
		w.add("starts_at <= ?", *f.To)
	}
	query := `SELECT ` + appointmentColumns + ` FROM appointments ` + w.sql() +
		` ORDER BY starts_at DESC, id ` + w.page(f.Limit, f.Offset)

	rows, err := s.q(ctx).Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (s *Store) UpdateAppointment(ctx context.Context, a *appointment.Appointment, expected appointment.Status) (*appointment.Appointment, error) {
	row := s.q(ctx).QueryRow(ctx, `
		UPDATE appointments
		SET starts_at = $2,
		    duration_minutes = $3,
		    status = $4,
		    consultation_fee = $5,
		    notes = $6,
		    cancellation_reason = $7,
		    updated_at = $8
		WHERE id = $1
		  AND status = $9
		RETURNING `+appointmentColumns,
		a.ID, a.StartsAt, a.DurationMinutes, string(a.Status), a.ConsultationFee,
		a.Notes, a.CancellationReason, a.UpdatedAt, string(expected),
	)
	updated, err := scanAppointment(row)
	if err != nil {
		if isUniqueViolation(err, activeSlotIndex) {
			return nil, appointment.ErrSlotConflict
		}
		return nil, err
	}
	return updated, nil
}

func (s *Store) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status appointment.PaymentStatus, at time.Time) (*appointment.Appointment, error) {
	row := s.q(ctx).QueryRow(ctx, `
		UPDATE appointments
		SET payment_status = $2,
		    updated_at = $3
		WHERE id = $1
		RETURNING `+appointmentColumns, id, string(status), at)
	return scanAppointment(row)
}

func (s *Store) FindOverdue(ctx context.Context, before time.Time) ([]appointment.Appointment, error) {
	rows, err := s.q(ctx).Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status = $1
		  AND starts_at < $2
		ORDER BY starts_at
	`, string(appointment.StatusScheduled), before)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (s *Store) CountAppointmentsByStatus(ctx context.Context) (map[appointment.Status]int64, error) {
	counts, err := s.countBy(ctx, "status")
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
	counts, err := s.countBy(ctx, "payment_status")
	if err != nil {
		return nil, err
	}
	out := make(map[appointment.PaymentStatus]int64, len(counts))
	for k, v := range counts {
		out[appointment.PaymentStatus(k)] = v
	}
	return out, nil
}

// countBy groups appointments by a fixed column name.
func (s *Store) countBy(ctx context.Context, column string) (map[string]int64, error) {
	rows, err := s.q(ctx).Query(ctx, `SELECT `+column+`, COUNT(*) FROM appointments GROUP BY `+column)
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
