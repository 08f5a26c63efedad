package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/care-booking/internal/actor"
	"github.com/hackgods/care-booking/internal/outbox"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrRequesterNotFound   = errors.New("requester not found")
	ErrProviderNotFound    = errors.New("provider not found")
	ErrSlotConflict        = errors.New("provider already has an appointment at this date and time")
	ErrInvalidStatus       = errors.New("invalid appointment status")
	ErrInvalidInput        = errors.New("invalid appointment input")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	// InTx runs fn inside one store transaction. Calls made with the
	// context passed to fn join that transaction; nested calls reuse it.
	InTx(ctx context.Context, fn func(ctx context.Context) error) error

	GetActor(ctx context.Context, id uuid.UUID) (*actor.Actor, error)

	// CreateAppointment returns ErrSlotConflict when the provider already
	// holds a non-cancelled appointment at the same starts_at.
	CreateAppointment(ctx context.Context, a *Appointment) (*Appointment, error)
	GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListAppointments(ctx context.Context, f Filter) ([]Appointment, error)

	// UpdateAppointment writes schedule, status, fee and notes fields when
	// the stored status still equals expected. ErrAppointmentNotFound on a miss.
	UpdateAppointment(ctx context.Context, a *Appointment, expected Status) (*Appointment, error)
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status PaymentStatus, at time.Time) (*Appointment, error)

	FindOverdue(ctx context.Context, before time.Time) ([]Appointment, error)

	outbox.Writer
}
