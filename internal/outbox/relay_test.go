package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap/zaptest"
)

type memRepo struct {
	events    []Event
	published map[int64]time.Time
}

func (r *memRepo) FetchUnpublishedEvents(_ context.Context, limit int) ([]Event, error) {
	var out []Event
	for _, ev := range r.events {
		if _, done := r.published[ev.ID]; done {
			continue
		}
		out = append(out, ev)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *memRepo) MarkEventsPublished(_ context.Context, ids []int64, at time.Time) error {
	for _, id := range ids {
		r.published[id] = at
	}
	return nil
}

type captureWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func seedEvents(t *testing.T, n int) *memRepo {
	t.Helper()
	repo := &memRepo{published: map[int64]time.Time{}}
	for i := 0; i < n; i++ {
		id := uuid.New()
		ev, err := NewEvent("APPOINTMENT_BOOKED", &id, nil, map[string]any{"n": i}, time.Now())
		if err != nil {
			t.Fatalf("new event: %v", err)
		}
		ev.ID = int64(i + 1)
		repo.events = append(repo.events, ev)
	}
	return repo
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestPublishBatchShipsAndMarks(t *testing.T) {
	repo := seedEvents(t, 3)
	w := &captureWriter{}
	relay := NewRelay(repo, w, RelayConfig{TopicPrefix: "care.", BatchSize: 2}, zaptest.NewLogger(t))

	n, err := relay.PublishBatch(context.Background())
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if n != 2 || len(w.msgs) != 2 {
		t.Fatalf("published %d, captured %d, want 2", n, len(w.msgs))
	}

	msg := w.msgs[0]
	if msg.Topic != "care.appointment.booked" {
		t.Fatalf("topic = %q", msg.Topic)
	}
	if string(msg.Key) != repo.events[0].AppointmentID.String() {
		t.Fatalf("key = %q, want appointment id", msg.Key)
	}
	if header(msg, "event_id") != "1" || header(msg, "event_type") != "APPOINTMENT_BOOKED" {
		t.Fatalf("headers = %v", msg.Headers)
	}

	n, err = relay.PublishBatch(context.Background())
	if err != nil {
		t.Fatalf("second publish: %v", err)
	}
	if n != 1 || len(repo.published) != 3 {
		t.Fatalf("second batch = %d, published = %d", n, len(repo.published))
	}

	n, err = relay.PublishBatch(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("drained publish = %d, %v", n, err)
	}
}

func TestPublishBatchKeepsEventsWhenBrokerFails(t *testing.T) {
	repo := seedEvents(t, 2)
	w := &captureWriter{err: errors.New("broker down")}
	relay := NewRelay(repo, w, RelayConfig{}, zaptest.NewLogger(t))

	if _, err := relay.PublishBatch(context.Background()); err == nil {
		t.Fatal("expected an error")
	}
	if len(repo.published) != 0 {
		t.Fatalf("events marked despite failed write: %v", repo.published)
	}
}

func TestTopic(t *testing.T) {
	cases := map[string]string{
		"PAYMENT_COMPLETED":                  "care.payment.completed",
		"APPOINTMENT_PAYMENT_STATUS_CHANGED": "care.appointment.payment.status.changed",
	}
	for in, want := range cases {
		if got := Topic("care.", in); got != want {
			t.Errorf("Topic(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEventKeyFallsBackToPayment(t *testing.T) {
	pay := uuid.New()
	ev := Event{PaymentID: &pay}
	if string(ev.Key()) != pay.String() {
		t.Fatalf("key = %q, want payment id", ev.Key())
	}
	if (Event{}).Key() != nil {
		t.Fatal("event without ids has no key")
	}
}
