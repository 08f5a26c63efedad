package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/care-booking/internal/actor"
	"github.com/hackgods/care-booking/internal/appointment"
	"github.com/hackgods/care-booking/internal/outbox"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newActor(t *testing.T, s *Store, role actor.Role, email string) *actor.Actor {
	t.Helper()
	now := time.Now().UTC()
	a, err := s.CreateActor(context.Background(), &actor.Actor{
		ID:           uuid.New(),
		Name:         string(role),
		Email:        email,
		PasswordHash: "hash",
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("create actor: %v", err)
	}
	return a
}

func newAppointment(requester, provider uuid.UUID, startsAt time.Time) *appointment.Appointment {
	now := time.Now().UTC()
	return &appointment.Appointment{
		ID:              uuid.New(),
		RequesterID:     requester,
		ProviderID:      provider,
		StartsAt:        startsAt,
		DurationMinutes: 30,
		Status:          appointment.StatusScheduled,
		PaymentStatus:   appointment.PaymentPending,
		ConsultationFee: 10,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "reopen.db")

	first, err := Open(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	newActor(t, first, actor.RoleAdmin, "admin@example.com")
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second, err := Open(path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer second.Close()

	var applied int
	if err := second.sqlDB.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&applied); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if applied != 1 {
		t.Fatalf("applied migrations = %d, want 1", applied)
	}
	if _, err := second.GetActorByEmail(context.Background(), "admin@example.com"); err != nil {
		t.Fatalf("data lost across reopen: %v", err)
	}
}

func TestCreateActorDuplicateEmail(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	newActor(t, s, actor.RoleRequester, "dup@example.com")

	now := time.Now().UTC()
	_, err := s.CreateActor(context.Background(), &actor.Actor{
		ID: uuid.New(), Name: "again", Email: "dup@example.com", PasswordHash: "x",
		Role: actor.RoleRequester, Active: true, CreatedAt: now, UpdatedAt: now,
	})
	if !errors.Is(err, actor.ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}
}

func TestActiveSlotIndex(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()
	r := newActor(t, s, actor.RoleRequester, "r@example.com")
	p := newActor(t, s, actor.RoleProvider, "p@example.com")
	at := time.Date(2030, 1, 15, 10, 0, 0, 0, time.UTC)

	first, err := s.CreateAppointment(ctx, newAppointment(r.ID, p.ID, at))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.CreateAppointment(ctx, newAppointment(r.ID, p.ID, at)); !errors.Is(err, appointment.ErrSlotConflict) {
		t.Fatalf("duplicate err = %v, want ErrSlotConflict", err)
	}

	cancelled := *first
	cancelled.Status = appointment.StatusCancelled
	if _, err := s.UpdateAppointment(ctx, &cancelled, appointment.StatusScheduled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := s.CreateAppointment(ctx, newAppointment(r.ID, p.ID, at)); err != nil {
		t.Fatalf("rebook cancelled slot: %v", err)
	}
}

func TestUpdateAppointmentIsConditional(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()
	r := newActor(t, s, actor.RoleRequester, "r@example.com")
	p := newActor(t, s, actor.RoleProvider, "p@example.com")

	a, err := s.CreateAppointment(ctx, newAppointment(r.ID, p.ID, time.Date(2030, 1, 15, 10, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	next := *a
	next.Status = appointment.StatusCompleted
	if _, err := s.UpdateAppointment(ctx, &next, appointment.StatusConfirmed); !errors.Is(err, appointment.ErrAppointmentNotFound) {
		t.Fatalf("stale update err = %v, want ErrAppointmentNotFound", err)
	}
}

func TestInTxRollsBack(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()
	id := uuid.New()
	boom := errors.New("boom")

	err := s.InTx(ctx, func(txCtx context.Context) error {
		now := time.Now().UTC()
		if _, err := s.CreateActor(txCtx, &actor.Actor{
			ID: id, Name: "tmp", Email: "tmp@example.com", PasswordHash: "x",
			Role: actor.RoleAdmin, Active: true, CreatedAt: now, UpdatedAt: now,
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if _, err := s.GetActor(ctx, id); !errors.Is(err, actor.ErrActorNotFound) {
		t.Fatalf("get err = %v, want ErrActorNotFound", err)
	}
}

func TestEventLogPublishing(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()
	appt := uuid.New()

	for _, typ := range []string{"APPOINTMENT_BOOKED", "APPOINTMENT_CANCELLED"} {
		ev, err := outbox.NewEvent(typ, &appt, nil, map[string]any{"k": "v"}, time.Now())
		if err != nil {
			t.Fatalf("new event: %v", err)
		}
		if err := s.InsertEvent(ctx, ev); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	events, err := s.FetchUnpublishedEvents(ctx, 10)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(events) != 2 || events[0].EventType != "APPOINTMENT_BOOKED" {
		t.Fatalf("events = %+v", events)
	}
	if events[0].AppointmentID == nil || *events[0].AppointmentID != appt || events[0].PaymentID != nil {
		t.Fatalf("ids = %v / %v", events[0].AppointmentID, events[0].PaymentID)
	}
	if string(events[0].Payload) != `{"k":"v"}` {
		t.Fatalf("payload = %s", events[0].Payload)
	}

	if err := s.MarkEventsPublished(ctx, []int64{events[0].ID}, time.Now()); err != nil {
		t.Fatalf("mark: %v", err)
	}
	rest, err := s.FetchUnpublishedEvents(ctx, 10)
	if err != nil {
		t.Fatalf("fetch rest: %v", err)
	}
	if len(rest) != 1 || rest[0].EventType != "APPOINTMENT_CANCELLED" {
		t.Fatalf("rest = %+v", rest)
	}
}

func TestUpSection(t *testing.T) {
	t.Parallel()

	got := upSection("-- +migrate Up\nCREATE TABLE a(x);\n-- +migrate Down\nDROP TABLE a;")
	if got != "\nCREATE TABLE a(x);\n" {
		t.Fatalf("up section = %q", got)
	}
}
