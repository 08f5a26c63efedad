package payment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/care-booking/internal/outbox"
)

var (
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrInvalidPayment      = errors.New("invalid payment")
	ErrInvalidState        = errors.New("invalid payment state")
	ErrInvalidRefundAmount = errors.New("refund amount must be positive and not exceed the payment amount")
	ErrInvalidWindow       = errors.New("revenue window end is before start")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error

	CreatePayment(ctx context.Context, p *Payment) (*Payment, error)
	GetPayment(ctx context.Context, id uuid.UUID) (*Payment, error)
	GetPaymentByTransactionID(ctx context.Context, transactionID string) (*Payment, error)
	ListPayments(ctx context.Context, f Filter) ([]Payment, error)

	// TransitionPayment applies t when the stored status equals from.
	// ErrPaymentNotFound on a miss.
	TransitionPayment(ctx context.Context, id uuid.UUID, from Status, t Transition) (*Payment, error)

	// SumRevenue folds payments whose processed_at lies in [start, end].
	SumRevenue(ctx context.Context, start, end time.Time) (Revenue, error)

	outbox.Writer
}
