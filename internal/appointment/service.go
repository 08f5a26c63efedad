package appointment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/hackgods/care-booking/internal/actor"
	"github.com/hackgods/care-booking/internal/outbox"
	redisclient "github.com/hackgods/care-booking/internal/redis"
)

const (
	EventAppointmentBooked               = "APPOINTMENT_BOOKED"
	EventAppointmentRescheduled          = "APPOINTMENT_RESCHEDULED"
	EventAppointmentStatusChanged        = "APPOINTMENT_STATUS_CHANGED"
	EventAppointmentCancelled            = "APPOINTMENT_CANCELLED"
	EventAppointmentPaymentStatusChanged = "APPOINTMENT_PAYMENT_STATUS_CHANGED"
)

var tracer = otel.Tracer("github.com/hackgods/care-booking/internal/appointment")

type Service struct {
	repo   Repository
	locker redisclient.Locker
	logger *zap.Logger
	now    func() time.Time
}

func NewService(repo Repository, locker redisclient.Locker, logger *zap.Logger) *Service {
	if locker == nil {
		locker = redisclient.NopLocker{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:   repo,
		locker: locker,
		logger: logger,
		now:    time.Now,
	}
}

type BookInput struct {
	RequesterID     uuid.UUID
	ProviderID      uuid.UUID
	Date            string
	Time            string
	Fee             float64
	DurationMinutes int
	Notes           *string
}

// Book reserves a provider slot for a requester.
// A Redis lock per slot turns concurrent attempts away early; the partial
// unique index on (provider_id, starts_at) is what guarantees at most one
// live appointment per slot.
func (s *Service) Book(ctx context.Context, in BookInput) (*Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointment.Book")
	defer span.End()

	startsAt, err := ParseSlot(in.Date, in.Time)
	if err != nil {
		return nil, err
	}

	if _, err := s.loadParty(ctx, in.RequesterID, actor.RoleRequester, ErrRequesterNotFound); err != nil {
		return nil, err
	}
	provider, err := s.loadParty(ctx, in.ProviderID, actor.RoleProvider, ErrProviderNotFound)
	if err != nil {
		return nil, err
	}

	fee := in.Fee
	if fee == 0 && provider.BaseFee != nil {
		fee = *provider.BaseFee
	}
	if fee < 0 {
		return nil, fmt.Errorf("%w: fee must not be negative", ErrInvalidInput)
	}
	duration := in.DurationMinutes
	if duration == 0 {
		duration = DefaultDurationMinutes
	}
	if duration < 0 {
		return nil, fmt.Errorf("%w: duration must be positive", ErrInvalidInput)
	}

	now := s.now().UTC()
	appt := &Appointment{
		ID:              uuid.New(),
		RequesterID:     in.RequesterID,
		ProviderID:      in.ProviderID,
		StartsAt:        startsAt,
		DurationMinutes: duration,
		Status:          StatusScheduled,
		PaymentStatus:   PaymentPending,
		ConsultationFee: roundCents(fee),
		Notes:           in.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	span.SetAttributes(
		attribute.String("appointment.id", appt.ID.String()),
		attribute.String("appointment.slot", SlotKey(appt.ProviderID, startsAt)),
	)

	var created *Appointment
	err = s.locker.WithSlotLock(ctx, SlotKey(appt.ProviderID, startsAt), func(lockCtx context.Context) error {
		return s.repo.InTx(lockCtx, func(txCtx context.Context) error {
			c, err := s.repo.CreateAppointment(txCtx, appt)
			if err != nil {
				return err
			}
			created = c
			return s.appendEvent(txCtx, EventAppointmentBooked, c.ID, map[string]any{
				"requester_id": c.RequesterID.String(),
				"provider_id":  c.ProviderID.String(),
				"date":         c.Date(),
				"time":         c.Time(),
				"fee":          c.ConsultationFee,
			})
		})
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) || errors.Is(err, ErrSlotConflict) {
			span.SetStatus(codes.Error, "slot conflict")
			return nil, ErrSlotConflict
		}
		span.RecordError(err)
		return nil, fmt.Errorf("book appointment: %w", err)
	}

	s.logger.Info("appointment booked",
		zap.String("appointment_id", created.ID.String()),
		zap.String("provider_id", created.ProviderID.String()),
		zap.Time("starts_at", created.StartsAt),
	)
	return created, nil
}

type UpdateInput struct {
	Date            *string
	Time            *string
	Status          *string
	Notes           *string
	Fee             *float64
	DurationMinutes *int
}

// Update edits schedule, status, notes and fee. A change of date or time
// is a reschedule and goes through the same slot checks as Book. The
// payment status is never touched here.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*Appointment, error) {
	current, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}

	next := *current

	if in.Date != nil || in.Time != nil {
		date, clock := current.Date(), current.StartsAt.Format("15:04:05")
		if in.Date != nil {
			date = *in.Date
		}
		if in.Time != nil {
			clock = *in.Time
		}
		startsAt, err := ParseSlot(date, clock)
		if err != nil {
			return nil, err
		}
		next.StartsAt = startsAt
	}
	rescheduled := !next.StartsAt.Equal(current.StartsAt)
	if rescheduled && current.Status.Terminal() {
		return nil, fmt.Errorf("%w: cannot reschedule a %s appointment", ErrInvalidStatus, current.Status)
	}

	if in.Status != nil {
		to, err := ParseStatus(*in.Status)
		if err != nil {
			return nil, err
		}
		if to != current.Status {
			if err := checkTransition(current.Status, to); err != nil {
				return nil, err
			}
			next.Status = to
		}
	}

	if in.Fee != nil {
		if *in.Fee < 0 {
			return nil, fmt.Errorf("%w: fee must not be negative", ErrInvalidInput)
		}
		next.ConsultationFee = roundCents(*in.Fee)
	}
	if in.DurationMinutes != nil {
		if *in.DurationMinutes <= 0 {
			return nil, fmt.Errorf("%w: duration must be positive", ErrInvalidInput)
		}
		next.DurationMinutes = *in.DurationMinutes
	}
	if in.Notes != nil {
		next.Notes = in.Notes
	}
	next.UpdatedAt = s.now().UTC()

	write := func(ctx context.Context) error {
		return s.repo.InTx(ctx, func(txCtx context.Context) error {
			updated, err := s.repo.UpdateAppointment(txCtx, &next, current.Status)
			if err != nil {
				return s.staleAsInvalid(err)
			}
			if rescheduled {
				if err := s.appendEvent(txCtx, EventAppointmentRescheduled, id, map[string]any{
					"from": current.StartsAt.Format(time.DateTime),
					"to":   updated.StartsAt.Format(time.DateTime),
				}); err != nil {
					return err
				}
			}
			if updated.Status != current.Status {
				if err := s.appendEvent(txCtx, EventAppointmentStatusChanged, id, map[string]any{
					"from": current.Status,
					"to":   updated.Status,
				}); err != nil {
					return err
				}
			}
			next = *updated
			return nil
		})
	}

	if rescheduled {
		err = s.locker.WithSlotLock(ctx, SlotKey(next.ProviderID, next.StartsAt), write)
	} else {
		err = write(ctx)
	}
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) || errors.Is(err, ErrSlotConflict) {
			return nil, ErrSlotConflict
		}
		if errors.Is(err, ErrInvalidStatus) {
			return nil, err
		}
		return nil, fmt.Errorf("update appointment: %w", err)
	}

	return &next, nil
}

// SetStatus moves the appointment along the status graph. Unknown tokens
// and edges outside the graph fail with ErrInvalidStatus.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, raw string) (*Appointment, error) {
	to, err := ParseStatus(raw)
	if err != nil {
		return nil, err
	}

	current, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkTransition(current.Status, to); err != nil {
		return nil, err
	}

	next := *current
	next.Status = to
	next.UpdatedAt = s.now().UTC()

	updated, err := s.transition(ctx, &next, current.Status, EventAppointmentStatusChanged, map[string]any{
		"from": current.Status,
		"to":   to,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("appointment status changed",
		zap.String("appointment_id", id.String()),
		zap.String("from", string(current.Status)),
		zap.String("to", string(to)),
	)
	return updated, nil
}

// Cancel is a no-op on an already cancelled appointment. Completed and
// no-show appointments cannot be cancelled.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason string) (*Appointment, error) {
	current, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == StatusCancelled {
		return current, nil
	}
	if err := checkTransition(current.Status, StatusCancelled); err != nil {
		return nil, err
	}

	next := *current
	next.Status = StatusCancelled
	if reason != "" {
		next.CancellationReason = &reason
	}
	next.UpdatedAt = s.now().UTC()

	updated, err := s.transition(ctx, &next, current.Status, EventAppointmentCancelled, map[string]any{
		"from":   current.Status,
		"reason": reason,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("appointment cancelled", zap.String("appointment_id", id.String()))
	return updated, nil
}

// ApplyPaymentStatus is the only writer of an appointment's payment status.
// It joins the transaction carried by ctx when there is one.
func (s *Service) ApplyPaymentStatus(ctx context.Context, id uuid.UUID, status PaymentStatus) (*Appointment, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown payment status %q", ErrInvalidInput, status)
	}

	var updated *Appointment
	err := s.repo.InTx(ctx, func(txCtx context.Context) error {
		a, err := s.repo.UpdatePaymentStatus(txCtx, id, status, s.now().UTC())
		if err != nil {
			return err
		}
		updated = a
		return s.appendEvent(txCtx, EventAppointmentPaymentStatusChanged, id, map[string]any{
			"payment_status": status,
		})
	})
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("apply payment status: %w", err)
	}
	return updated, nil
}

// SweepOverdue lists scheduled appointments dated before now's calendar day.
// It only reports them.
func (s *Service) SweepOverdue(ctx context.Context, now time.Time) ([]Appointment, error) {
	y, m, d := now.UTC().Date()
	cutoff := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	overdue, err := s.repo.FindOverdue(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("find overdue appointments: %w", err)
	}
	return overdue, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return a, nil
}

func (s *Service) List(ctx context.Context, f Filter) ([]Appointment, error) {
	if f.Limit <= 0 {
		f.Limit = 20 // default
	}
	if f.Limit > 100 {
		f.Limit = 100 // max
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	appointments, err := s.repo.ListAppointments(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appointments, nil
}

func (s *Service) transition(ctx context.Context, next *Appointment, expected Status, eventType string, payload map[string]any) (*Appointment, error) {
	var updated *Appointment
	err := s.repo.InTx(ctx, func(txCtx context.Context) error {
		a, err := s.repo.UpdateAppointment(txCtx, next, expected)
		if err != nil {
			return s.staleAsInvalid(err)
		}
		updated = a
		return s.appendEvent(txCtx, eventType, a.ID, payload)
	})
	if err != nil {
		if errors.Is(err, ErrInvalidStatus) {
			return nil, err
		}
		return nil, fmt.Errorf("update appointment status: %w", err)
	}
	return updated, nil
}

// staleAsInvalid maps a conditional update miss to ErrInvalidStatus: the row
// existed when loaded, so someone else moved it in between.
func (s *Service) staleAsInvalid(err error) error {
	if errors.Is(err, ErrAppointmentNotFound) {
		return fmt.Errorf("%w: appointment changed concurrently", ErrInvalidStatus)
	}
	return err
}

func (s *Service) loadParty(ctx context.Context, id uuid.UUID, role actor.Role, notFound error) (*actor.Actor, error) {
	a, err := s.repo.GetActor(ctx, id)
	if err != nil {
		if errors.Is(err, actor.ErrActorNotFound) {
			return nil, notFound
		}
		return nil, fmt.Errorf("load %s: %w", role, err)
	}
	if a.Role != role || !a.Active {
		return nil, notFound
	}
	return a, nil
}

func (s *Service) appendEvent(ctx context.Context, eventType string, appointmentID uuid.UUID, payload map[string]any) error {
	id := appointmentID
	ev, err := outbox.NewEvent(eventType, &id, nil, payload, s.now())
	if err != nil {
		return err
	}
	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		return fmt.Errorf("insert %s event: %w", eventType, err)
	}
	return nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
