package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/care-booking/internal/payment"
)

const paymentColumns = `
	id, appointment_id, requester_id, provider_id, amount, method, transaction_id,
	card_last_four, card_type, billing_address, status, failure_reason,
	refund_amount, refund_reason, processed_at, created_at, updated_at`

func scanPayment(row rowScanner) (*payment.Payment, error) {
	var p payment.Payment
	var processedAt sql.NullInt64
	var createdAt, updatedAt int64

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
		&processedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, payment.ErrPaymentNotFound
		}
		return nil, err
	}

	p.ProcessedAt = timePtr(processedAt)
	p.CreatedAt = fromMillis(createdAt)
	p.UpdatedAt = fromMillis(updatedAt)
	return &p, nil
}

func (s *Store) CreatePayment(ctx context.Context, p *payment.Payment) (*payment.Payment, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
INSERT INTO payments (
	id, appointment_id, requester_id, provider_id, amount, method, transaction_id,
	card_last_four, card_type, billing_address, status, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING `+paymentColumns,
		p.ID.String(), p.AppointmentID.String(), p.RequesterID.String(), p.ProviderID.String(),
		p.Amount, string(p.Method), p.TransactionID,
		p.CardLastFour, p.CardType, p.BillingAddress, string(p.Status),
		toMillis(p.CreatedAt), toMillis(p.UpdatedAt),
	)
	created, err := scanPayment(row)
	if err != nil {
		return nil, fmt.Errorf("insert payment: %w", err)
	}
	return created, nil
}

func (s *Store) GetPayment(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	row := s.q(ctx).QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id.String())
	return scanPayment(row)
}

func (s *Store) GetPaymentByTransactionID(ctx context.Context, transactionID string) (*payment.Payment, error) {
	row := s.q(ctx).QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE transaction_id = ?`, transactionID)
	return scanPayment(row)
}

func (s *Store) ListPayments(ctx context.Context, f payment.Filter) ([]payment.Payment, error) {
	var w where
	if f.RequesterID != nil {
		w.add("requester_id = ?", f.RequesterID.String())
	}
	if f.ProviderID != nil {
		w.add("provider_id = ?", f.ProviderID.String())
	}
	if f.AppointmentID != nil {
		w.add("appointment_id = ?", f.AppointmentID.String())
	}
	if f.Status != nil {
		w.add("status = ?", string(*f.Status))
	}
	query := `SELECT ` + paymentColumns + ` FROM payments ` + w.sql() +
		` ORDER BY created_at DESC, id ` + w.page(f.Limit, f.Offset)

	rows, err := s.q(ctx).QueryContext(ctx, query, w.args...)
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
	row := s.q(ctx).QueryRowContext(ctx, `
UPDATE payments
SET status = ?,
    updated_at = ?,
    processed_at = COALESCE(?, processed_at),
    failure_reason = COALESCE(?, failure_reason),
    refund_amount = COALESCE(?, refund_amount),
    refund_reason = COALESCE(?, refund_reason)
WHERE id = ?
  AND status = ?
RETURNING `+paymentColumns,
		string(t.To), toMillis(t.At), nullMillis(t.ProcessedAt), t.FailureReason, t.RefundAmount, t.RefundReason,
		id.String(), string(from),
	)
	return scanPayment(row)
}

func (s *Store) SumRevenue(ctx context.Context, start, end time.Time) (payment.Revenue, error) {
	var rev payment.Revenue
	err := s.q(ctx).QueryRowContext(ctx, `
SELECT COALESCE(SUM(CASE WHEN status = 'COMPLETED' THEN amount END), 0.0),
       COUNT(CASE WHEN status = 'COMPLETED' THEN 1 END),
       COUNT(CASE WHEN status = 'FAILED' THEN 1 END)
FROM payments
WHERE processed_at BETWEEN ? AND ?
`, toMillis(start), toMillis(end)).Scan(&rev.TotalRevenue, &rev.CompletedPayments, &rev.FailedPayments)
	if err != nil {
		return payment.Revenue{}, err
	}
	return rev, nil
}
