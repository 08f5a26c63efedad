package appointment

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusScheduled  Status = "SCHEDULED"
	StatusConfirmed  Status = "CONFIRMED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
	StatusNoShow     Status = "NO_SHOW"
)

var Statuses = []Status{
	StatusScheduled,
	StatusConfirmed,
	StatusInProgress,
	StatusCompleted,
	StatusCancelled,
	StatusNoShow,
}

func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	for _, known := range Statuses {
		if s == known {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrInvalidStatus, raw)
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentPaid      PaymentStatus = "PAID"
	PaymentRefunded  PaymentStatus = "REFUNDED"
	PaymentCancelled PaymentStatus = "CANCELLED"
)

var PaymentStatuses = []PaymentStatus{
	PaymentPending,
	PaymentPaid,
	PaymentRefunded,
	PaymentCancelled,
}

func (p PaymentStatus) Valid() bool {
	for _, known := range PaymentStatuses {
		if p == known {
			return true
		}
	}
	return false
}

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"

	DefaultDurationMinutes = 30
)

// Appointment is a booking of one provider slot by one requester.
// StartsAt carries the booked date and time as a UTC wall clock value;
// the location has no meaning.
type Appointment struct {
	ID                 uuid.UUID
	RequesterID        uuid.UUID
	ProviderID         uuid.UUID
	StartsAt           time.Time
	DurationMinutes    int
	Status             Status
	PaymentStatus      PaymentStatus
	ConsultationFee    float64
	Notes              *string
	CancellationReason *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (a *Appointment) Date() string {
	return a.StartsAt.Format(DateLayout)
}

func (a *Appointment) Time() string {
	return a.StartsAt.Format(TimeLayout)
}

func (a *Appointment) IsParty(id uuid.UUID) bool {
	return a.RequesterID == id || a.ProviderID == id
}

// SlotKey names the (provider, date, time) tuple an appointment occupies.
func SlotKey(providerID uuid.UUID, startsAt time.Time) string {
	return fmt.Sprintf("slot:%s:%s", providerID, startsAt.Format("20060102T1504"))
}

// ParseSlot combines an ISO date and a clock time into a starts-at value.
func ParseSlot(date, clock string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(date))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	c, err := parseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), c.Second(), 0, time.UTC), nil
}

func parseClock(clock string) (time.Time, error) {
	clock = strings.TrimSpace(clock)
	for _, layout := range []string{TimeLayout, "15:04:05"} {
		if t, err := time.Parse(layout, clock); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: time must be HH:MM or HH:MM:SS", ErrInvalidInput)
}

type Filter struct {
	RequesterID *uuid.UUID
	ProviderID  *uuid.UUID
	Status      *Status
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}
