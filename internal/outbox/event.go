package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event is one append-only row of event_logs. Rows are written in the same
// transaction as the state change they describe and later shipped to Kafka
// by the relay.
type Event struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	PaymentID     *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
	PublishedAt   *time.Time
}

// Writer is implemented by stores that can append events.
type Writer interface {
	InsertEvent(ctx context.Context, ev Event) error
}

// Repository is the store side of the relay.
type Repository interface {
	FetchUnpublishedEvents(ctx context.Context, limit int) ([]Event, error)
	MarkEventsPublished(ctx context.Context, ids []int64, at time.Time) error
}

// NewEvent builds an event with a JSON payload.
func NewEvent(eventType string, appointmentID, paymentID *uuid.UUID, payload map[string]any, now time.Time) (Event, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Event{
		EventType:     eventType,
		AppointmentID: appointmentID,
		PaymentID:     paymentID,
		Payload:       data,
		CreatedAt:     now.UTC(),
	}, nil
}

// Key returns the partition key for the event. Events of one appointment
// land on the same partition so consumers see them in order.
func (e Event) Key() []byte {
	switch {
	case e.AppointmentID != nil:
		return []byte(e.AppointmentID.String())
	case e.PaymentID != nil:
		return []byte(e.PaymentID.String())
	}
	return nil
}
