package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hackgods/care-booking/internal/payment"
)

const paymentColumns = `
	id, appointment_id, requester_id, provider_id, amount::float8, method, transaction_id,
	card_last_four, card_type, billing_address, status, failure_reason,
	refund_amount::float8, refund_reason, processed_at, created_at, updated_at`

func scanPayment(row pgx.Row) (*payment.Payment, error) {
	var p payment.Payment

	err := row.Scan(
		&p.ID,
		&p.AppointmentID,
		&p.RequesterID,
		&p.ProviderID,
		&p.Amount,
		&p.Method,
		&p.TransactionID,
		&p.CardLastFour,
		&p.CardType,
		&p.BillingAddress,
		&p.Status,
		&p.FailureReason,
		&p.RefundAmount,
		&p.RefundReason,
		&p.ProcessedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payment.ErrPaymentNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) CreatePayment(ctx context.Context, p *payment.Payment) (*payment.Payment, error) {
	row := s.q(ctx).QueryRow(ctx, `
		INSERT INTO payments (
			id, appointment_id, requester_id, provider_id, amount, method, transaction_id,
			card_last_four, card_type, billing_address, status, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING `+paymentColumns,
		p.ID, p.AppointmentID, p.RequesterID, p.ProviderID, p.Amount, string(p.Method), p.TransactionID,
		p.CardLastFour, p.CardType, p.BillingAddress, string(p.Status), p.CreatedAt, p.UpdatedAt,
	)
	created, err := scanPayment(row)
	if err != nil {
		return nil, fmt.Errorf("insert payment: %w", err)
	}
	return created, nil
}

func (s *Store) GetPayment(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	row := s.q(ctx).QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	return scanPayment(row)
}

func (s *Store) GetPaymentByTransactionID(ctx context.Context, transactionID string) (*payment.Payment, error) {
	row := s.q(ctx).QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE transaction_id = $1`, transactionID)
	return scanPayment(row)
}

func (s *Store) ListPayments(ctx context.Context, f payment.Filter) ([]payment.Payment, error) {
	var w where
	if f.RequesterID != nil {
		w.add("requester_id = ?", *f.RequesterID)
	}
	if f.ProviderID != nil {
		w.add("provider_id = ?", *f.ProviderID)
	}
	if f.AppointmentID != nil {
		w.add("appointment_id = ?", *f.AppointmentID)
	}
	if f.Status != nil {
		w.add("status = ?", string(*f.Status))
	}
	query := `SELECT ` + paymentColumns + ` FROM payments ` + w.sql() +
		` ORDER BY created_at DESC, id ` + w.page(f.Limit, f.Offset)

	rows, err := s.q(ctx).Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []payment.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

func (s *Store) TransitionPayment(ctx context.Context, id uuid.UUID, from payment.Status, t payment.Transition) (*payment.Payment, error) {
	row := s.q(ctx).QueryRow(ctx, `
		UPDATE payments
		SET status = $3,
		    updated_at = $4,
		    processed_at = COALESCE($5, processed_at),
		    failure_reason = COALESCE($6, failure_reason),
		    refund_amount = COALESCE($7, refund_amount),
		    refund_reason = COALESCE($8, refund_reason)
		WHERE id = $1
		  AND status = $2
		RETURNING `+paymentColumns,
		id, string(from), string(t.To), t.At, t.ProcessedAt, t.FailureReason, t.RefundAmount, t.RefundReason,
	)
	return scanPayment(row)
}

func (s *Store) SumRevenue(ctx context.Context, start, end time.Time) (payment.Revenue, error) {
	var rev payment.Revenue
	err := s.q(ctx).QueryRow(ctx, `
		SELECT COALESCE(SUM(amount) FILTER (WHERE status = 'COMPLETED'), 0)::float8,
		       COUNT(*) FILTER (WHERE status = 'COMPLETED'),
		       COUNT(*) FILTER (WHERE status = 'FAILED')
		FROM payments
		WHERE processed_at BETWEEN $1 AND $2
	`, start, end).Scan(&rev.TotalRevenue, &rev.CompletedPayments, &rev.FailedPayments)
	if err != nil {
		return payment.Revenue{}, err
	}
	return rev, nil
}
