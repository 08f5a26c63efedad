package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/hackgods/care-booking/internal/outbox"
)

func (s *Store) InsertEvent(ctx context.Context, ev outbox.Event) error {
	_, err := s.q(ctx).Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payment_id, payload, created_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, now()))
	`, ev.EventType, ev.AppointmentID, ev.PaymentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}
	return nil
}

func (s *Store) FetchUnpublishedEvents(ctx context.Context, limit int) ([]outbox.Event, error) {
	rows, err := s.q(ctx).Query(ctx, `
		SELECT id, event_type, appointment_id, payment_id, payload, created_at, published_at
		FROM event_logs
		WHERE published_at IS NULL
		ORDER BY id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []outbox.Event
	for rows.Next() {
		var ev outbox.Event
		if err := rows.Scan(
			&ev.ID,
			&ev.EventType,
			&ev.AppointmentID,
			&ev.PaymentID,
			&ev.Payload,
			&ev.CreatedAt,
			&ev.PublishedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ev)
	}
	return result, rows.Err()
}

func (s *Store) MarkEventsPublished(ctx context.Context, ids []int64, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.q(ctx).Exec(ctx, `
		UPDATE event_logs
		SET published_at = $2
		WHERE id = ANY($1)
		  AND published_at IS NULL
	`, ids, at)
	if err != nil {
		return fmt.Errorf("mark events published: %w", err)
	}
	return nil
}
