package payment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/hackgods/care-booking/internal/appointment"
	"github.com/hackgods/care-booking/internal/outbox"
)

const (
	EventPaymentInitiated = "PAYMENT_INITIATED"
	EventPaymentCompleted = "PAYMENT_COMPLETED"
	EventPaymentFailed    = "PAYMENT_FAILED"
	EventPaymentRefunded  = "PAYMENT_REFUNDED"
)

var tracer = otel.Tracer("github.com/hackgods/care-booking/internal/payment")

// Scheduler is the part of the scheduling service payments call back into.
type Scheduler interface {
	Get(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	ApplyPaymentStatus(ctx context.Context, id uuid.UUID, status appointment.PaymentStatus) (*appointment.Appointment, error)
}

type Service struct {
	repo      Repository
	scheduler Scheduler
	gateway   Gateway
	timeout   time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(repo Repository, scheduler Scheduler, gateway Gateway, timeout time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Service{
		repo:      repo,
		scheduler: scheduler,
		gateway:   gateway,
		timeout:   timeout,
		logger:    logger,
		now:       time.Now,
	}
}

type ProcessInput struct {
	AppointmentID  uuid.UUID
	Amount         float64
	Method         string
	CardLastFour   *string
	CardType       *string
	BillingAddress *string
}

// Process charges an appointment. A declined or timed out charge is not an
// error: the returned payment is FAILED and carries the reason, and the
// appointment keeps its payment status. Errors are reserved for bad input
// and store failures.
func (s *Service) Process(ctx context.Context, in ProcessInput) (*Payment, error) {
	ctx, span := tracer.Start(ctx, "payment.Process")
	defer span.End()

	appt, err := s.scheduler.Get(ctx, in.AppointmentID)
	if err != nil {
		return nil, err
	}

	amount := in.Amount
	if amount == 0 {
		amount = appt.ConsultationFee
	}
	if !(amount > 0) || math.IsInf(amount, 1) {
		return nil, fmt.Errorf("%w: amount must be a positive number", ErrInvalidPayment)
	}
	method, err := ParseMethod(in.Method)
	if err != nil {
		return nil, err
	}
	if in.CardLastFour != nil && !isLastFour(*in.CardLastFour) {
		return nil, fmt.Errorf("%w: card last four must be 4 digits", ErrInvalidPayment)
	}

	now := s.now().UTC()
	p := &Payment{
		ID:             uuid.New(),
		AppointmentID:  appt.ID,
		RequesterID:    appt.RequesterID,
		ProviderID:     appt.ProviderID,
		Amount:         roundCents(amount),
		Method:         method,
		TransactionID:  uuid.NewString(),
		CardLastFour:   in.CardLastFour,
		CardType:       in.CardType,
		BillingAddress: in.BillingAddress,
		Status:         StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	span.SetAttributes(
		attribute.String("payment.id", p.ID.String()),
		attribute.String("payment.transaction_id", p.TransactionID),
	)

	var pending *Payment
	err = s.repo.InTx(ctx, func(txCtx context.Context) error {
		created, err := s.repo.CreatePayment(txCtx, p)
		if err != nil {
			return err
		}
		pending = created
		return s.appendEvent(txCtx, EventPaymentInitiated, created, map[string]any{
			"transaction_id": created.TransactionID,
			"amount":         created.Amount,
			"method":         created.Method,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	chargeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	chargeErr := s.gateway.Charge(chargeCtx, ChargeRequest{
		TransactionID: pending.TransactionID,
		Amount:        pending.Amount,
		Method:        pending.Method,
	})
	cancel()

	// The outcome must be recorded even when the caller has gone away.
	persistCtx := context.WithoutCancel(ctx)

	if chargeErr == nil {
		done, err := s.complete(persistCtx, pending)
		if err == nil {
			return done, nil
		}
		// the charge went through but could not be recorded; close the row
		// as FAILED rather than leave it PENDING
		s.logger.Error("record completed payment",
			zap.String("payment_id", pending.ID.String()),
			zap.Error(err),
		)
		if _, failErr := s.fail(persistCtx, pending, FailureRecordingError); failErr != nil {
			return nil, errors.Join(err, failErr)
		}
		return nil, err
	}

	reason := FailureGatewayError
	if errors.Is(chargeErr, context.DeadlineExceeded) || errors.Is(chargeErr, context.Canceled) {
		reason = FailureProcessingTimeout
	}
	span.SetAttributes(attribute.String("payment.failure_reason", reason))
	s.logger.Warn("payment failed",
		zap.String("payment_id", pending.ID.String()),
		zap.String("reason", reason),
		zap.Error(chargeErr),
	)
	return s.fail(persistCtx, pending, reason)
}

func (s *Service) complete(ctx context.Context, p *Payment) (*Payment, error) {
	var done *Payment
	err := s.repo.InTx(ctx, func(txCtx context.Context) error {
		at := s.now().UTC()
		updated, err := s.repo.TransitionPayment(txCtx, p.ID, StatusPending, Transition{
			To:          StatusCompleted,
			At:          at,
			ProcessedAt: &at,
		})
		if err != nil {
			return err
		}
		if _, err := s.scheduler.ApplyPaymentStatus(txCtx, p.AppointmentID, appointment.PaymentPaid); err != nil {
			return err
		}
		done = updated
		return s.appendEvent(txCtx, EventPaymentCompleted, updated, map[string]any{
			"transaction_id": updated.TransactionID,
			"amount":         updated.Amount,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("complete payment: %w", err)
	}

	s.logger.Info("payment completed",
		zap.String("payment_id", done.ID.String()),
		zap.String("appointment_id", done.AppointmentID.String()),
		zap.Float64("amount", done.Amount),
	)
	return done, nil
}

func (s *Service) fail(ctx context.Context, p *Payment, reason string) (*Payment, error) {
	var failed *Payment
	err := s.repo.InTx(ctx, func(txCtx context.Context) error {
		at := s.now().UTC()
		updated, err := s.repo.TransitionPayment(txCtx, p.ID, StatusPending, Transition{
			To:            StatusFailed,
			At:            at,
			ProcessedAt:   &at,
			FailureReason: &reason,
		})
		if err != nil {
			return err
		}
		failed = updated
		return s.appendEvent(txCtx, EventPaymentFailed, updated, map[string]any{
			"transaction_id": updated.TransactionID,
			"reason":         reason,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("fail payment: %w", err)
	}
	return failed, nil
}

// Refund returns money on a completed payment. Without an amount the whole
// payment is refunded. The owning appointment moves to REFUNDED in the same
// transaction.
func (s *Service) Refund(ctx context.Context, id uuid.UUID, amount *float64, reason *string) (*Payment, error) {
	current, err := s.repo.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != StatusCompleted {
		return nil, fmt.Errorf("%w: cannot refund a %s payment", ErrInvalidState, current.Status)
	}

	refund := current.Amount
	if amount != nil {
		refund = roundCents(*amount)
	}
	// also rejects NaN
	if !(refund > 0 && refund <= current.Amount) {
		return nil, ErrInvalidRefundAmount
	}

	var refunded *Payment
	err = s.repo.InTx(ctx, func(txCtx context.Context) error {
		updated, err := s.repo.TransitionPayment(txCtx, id, StatusCompleted, Transition{
			To:           StatusRefunded,
			At:           s.now().UTC(),
			RefundAmount: &refund,
			RefundReason: reason,
		})
		if err != nil {
			if errors.Is(err, ErrPaymentNotFound) {
				return fmt.Errorf("%w: payment changed concurrently", ErrInvalidState)
			}
			return err
		}
		if _, err := s.scheduler.ApplyPaymentStatus(txCtx, updated.AppointmentID, appointment.PaymentRefunded); err != nil {
			return err
		}
		refunded = updated
		return s.appendEvent(txCtx, EventPaymentRefunded, updated, map[string]any{
			"refund_amount": refund,
			"reason":        reason,
		})
	})
	if err != nil {
		if errors.Is(err, ErrInvalidState) {
			return nil, err
		}
		return nil, fmt.Errorf("refund payment: %w", err)
	}

	s.logger.Info("payment refunded",
		zap.String("payment_id", id.String()),
		zap.Float64("refund_amount", refund),
	)
	return refunded, nil
}

// Revenue sums completed payments processed within [start, end] and counts
// completed and failed attempts in the same window.
func (s *Service) Revenue(ctx context.Context, start, end time.Time) (Revenue, error) {
	if end.Before(start) {
		return Revenue{}, ErrInvalidWindow
	}
	rev, err := s.repo.SumRevenue(ctx, start.UTC(), end.UTC())
	if err != nil {
		return Revenue{}, fmt.Errorf("sum revenue: %w", err)
	}
	rev.TotalRevenue = roundCents(rev.TotalRevenue)
	return rev, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Payment, error) {
	p, err := s.repo.GetPayment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}

func (s *Service) GetByTransactionID(ctx context.Context, transactionID string) (*Payment, error) {
	p, err := s.repo.GetPaymentByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("get payment by transaction id: %w", err)
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, f Filter) ([]Payment, error) {
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	payments, err := s.repo.ListPayments(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

func (s *Service) appendEvent(ctx context.Context, eventType string, p *Payment, payload map[string]any) error {
	apptID, payID := p.AppointmentID, p.ID
	ev, err := outbox.NewEvent(eventType, &apptID, &payID, payload, s.now())
	if err != nil {
		return err
	}
	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		return fmt.Errorf("insert %s event: %w", eventType, err)
	}
	return nil
}

func isLastFour(v string) bool {
	if len(v) != 4 {
		return false
	}
	for _, r := range v {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
