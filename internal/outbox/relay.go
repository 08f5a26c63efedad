package outbox

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

// MessageWriter is the subset of *kafka.Writer the relay needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type RelayConfig struct {
	TopicPrefix string
	PollEvery   time.Duration
	BatchSize   int
}

// Relay ships unpublished event_logs rows to Kafka. Delivery is at least
// once: rows are marked only after the broker acknowledged the batch.
type Relay struct {
	repo   Repository
	writer MessageWriter
	cfg    RelayConfig
	logger *zap.Logger
	now    func() time.Time
}

func NewRelay(repo Repository, writer MessageWriter, cfg RelayConfig, logger *zap.Logger) *Relay {
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{repo: repo, writer: writer, cfg: cfg, logger: logger, now: time.Now}
}

// NewKafkaWriter builds the writer used in production.
func NewKafkaWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
}

func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.PollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := r.PublishBatch(ctx)
			if err != nil {
				r.logger.Error("outbox publish failed", zap.Error(err))
				continue
			}
			if n > 0 {
				r.logger.Debug("outbox batch published", zap.Int("events", n))
			}
		}
	}
}

// PublishBatch publishes one batch and returns how many events were sent.
func (r *Relay) PublishBatch(ctx context.Context) (int, error) {
	events, err := r.repo.FetchUnpublishedEvents(ctx, r.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch unpublished events: %w", err)
	}
	if len(events) == 0 {
		return 0, nil
	}

	msgs := make([]kafka.Message, 0, len(events))
	ids := make([]int64, 0, len(events))
	for _, ev := range events {
		msgs = append(msgs, r.message(ctx, ev))
		ids = append(ids, ev.ID)
	}

	if err := r.writer.WriteMessages(ctx, msgs...); err != nil {
		return 0, fmt.Errorf("write messages: %w", err)
	}
	if err := r.repo.MarkEventsPublished(ctx, ids, r.now().UTC()); err != nil {
		return 0, fmt.Errorf("mark events published: %w", err)
	}
	return len(events), nil
}

func (r *Relay) message(ctx context.Context, ev Event) kafka.Message {
	headers := &headerCarrier{headers: []kafka.Header{
		{Key: "event_id", Value: []byte(strconv.FormatInt(ev.ID, 10))},
		{Key: "event_type", Value: []byte(ev.EventType)},
	}}
	otel.GetTextMapPropagator().Inject(ctx, headers)

	return kafka.Message{
		Topic:   Topic(r.cfg.TopicPrefix, ev.EventType),
		Key:     ev.Key(),
		Value:   ev.Payload,
		Headers: headers.headers,
		Time:    ev.CreatedAt,
	}
}

// Topic maps APPOINTMENT_BOOKED to <prefix>appointment.booked.
func Topic(prefix, eventType string) string {
	return prefix + strings.ReplaceAll(strings.ToLower(eventType), "_", ".")
}

type headerCarrier struct {
	headers []kafka.Header
}

func (c *headerCarrier) Get(key string) string {
	for _, h := range c.headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c *headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c.headers))
	for _, h := range c.headers {
		keys = append(keys, h.Key)
	}
	return keys
}

func (c *headerCarrier) Set(key, value string) {
	for i := range c.headers {
		if c.headers[i].Key == key {
			c.headers[i].Value = []byte(value)
			return
		}
	}
	c.headers = append(c.headers, kafka.Header{Key: key, Value: []byte(value)})
}

var _ propagation.TextMapCarrier = (*headerCarrier)(nil)
