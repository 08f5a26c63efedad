package payment

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusRefunded  Status = "REFUNDED"
)

var Statuses = []Status{StatusPending, StatusCompleted, StatusFailed, StatusRefunded}

func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	for _, known := range Statuses {
		if s == known {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrInvalidPayment, raw)
}

type Method string

const (
	MethodCreditCard   Method = "CREDIT_CARD"
	MethodDebitCard    Method = "DEBIT_CARD"
	MethodPayPal       Method = "PAYPAL"
	MethodBankTransfer Method = "BANK_TRANSFER"
	MethodCash         Method = "CASH"
)

var Methods = []Method{MethodCreditCard, MethodDebitCard, MethodPayPal, MethodBankTransfer, MethodCash}

func ParseMethod(raw string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(raw)))
	for _, known := range Methods {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: unknown payment method %q", ErrInvalidPayment, raw)
}

const (
	FailureGatewayError      = "Payment gateway error"
	FailureProcessingTimeout = "Processing timeout"
	FailureRecordingError    = "Payment recording error"
)

type Payment struct {
	ID             uuid.UUID
	AppointmentID  uuid.UUID
	RequesterID    uuid.UUID
	ProviderID     uuid.UUID
	Amount         float64
	Method         Method
	TransactionID  string
	CardLastFour   *string
	CardType       *string
	BillingAddress *string
	Status         Status
	FailureReason  *string
	RefundAmount   *float64
	RefundReason   *string
	ProcessedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Transition is the set of columns written when a payment leaves a status.
type Transition struct {
	To            Status
	At            time.Time
	ProcessedAt   *time.Time
	FailureReason *string
	RefundAmount  *float64
	RefundReason  *string
}

type Filter struct {
	RequesterID   *uuid.UUID
	ProviderID    *uuid.UUID
	AppointmentID *uuid.UUID
	Status        *Status
	Limit         int
	Offset        int
}

// Revenue is the settled money in a processed-at window.
type Revenue struct {
	TotalRevenue      float64
	CompletedPayments int64
	FailedPayments    int64
}
