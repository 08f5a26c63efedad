package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/care-booking/internal/outbox"
)

func (s *Store) InsertEvent(ctx context.Context, ev outbox.Event) error {
	created := ev.CreatedAt
	if created.IsZero() {
		created = nowUTC()
	}
	payload := ev.Payload
	if payload == nil {
		payload = []byte("{}")
	}

	_, err := s.q(ctx).ExecContext(ctx, `
INSERT INTO event_logs (event_type, appointment_id, payment_id, payload, created_at)
VALUES (?, ?, ?, ?, ?)
`, ev.EventType, nullUUID(ev.AppointmentID), nullUUID(ev.PaymentID), payload, toMillis(created))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}
	return nil
}

func (s *Store) FetchUnpublishedEvents(ctx context.Context, limit int) ([]outbox.Event, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
SELECT id, event_type, appointment_id, payment_id, payload, created_at, published_at
FROM event_logs
WHERE published_at IS NULL
ORDER BY id
LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []outbox.Event
	for rows.Next() {
		var ev outbox.Event
		var apptID, payID uuid.NullUUID
		var createdAt int64
		var publishedAt sql.NullInt64
		if err := rows.Scan(&ev.ID, &ev.EventType, &apptID, &payID, &ev.Payload, &createdAt, &publishedAt); err != nil {
			return nil, err
		}
		if apptID.Valid {
			ev.AppointmentID = &apptID.UUID
		}
		if payID.Valid {
			ev.PaymentID = &payID.UUID
		}
		ev.CreatedAt = fromMillis(createdAt)
		ev.PublishedAt = timePtr(publishedAt)
		result = append(result, ev)
	}
	return result, rows.Err()
}

func (s *Store) MarkEventsPublished(ctx context.Context, ids []int64, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids)+1)
	args = append(args, toMillis(at))
	for _, id := range ids {
		args = append(args, id)
	}

	_, err := s.q(ctx).ExecContext(ctx, `
UPDATE event_logs
SET published_at = ?
WHERE published_at IS NULL
  AND id IN (`+placeholders+`)
`, args...)
	if err != nil {
		return fmt.Errorf("mark events published: %w", err)
	}
	return nil
}
