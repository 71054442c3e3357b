package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const relaySource = "shopping-price-tracker"

// RedisClient is the subset of the go-redis client the relay publishes with.
type RedisClient interface {
	XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd
	Close() error
}

type OutboxRepo interface {
	GetPending(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkProcessed(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, err error) error
	CountByStatus(ctx context.Context, statuses ...string) (int64, error)
}

// Relay publishes price history events from the outbox as flat stream
// records, one field per value, so consumers can read them without
// decoding nested JSON.
type Relay struct {
	redis      RedisClient
	outbox     OutboxRepo
	logger     *slog.Logger
	interval   time.Duration
	batchSize  int
	maxBatches int
}

type RelayConfig struct {
	PollInterval time.Duration
	BatchSize    int
	// MaxBatches bounds how many full batches one tick drains.
	MaxBatches int
}

func NewRelay(outbox OutboxRepo, redisClient RedisClient, logger *slog.Logger, config RelayConfig) *Relay {
	if config.PollInterval <= 0 {
		config.PollInterval = 5 * time.Second
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	if config.MaxBatches <= 0 {
		config.MaxBatches = 10
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Relay{
		redis:      redisClient,
		outbox:     outbox,
		logger:     logger.With("component", "relay"),
		interval:   config.PollInterval,
		batchSize:  config.BatchSize,
		maxBatches: config.MaxBatches,
	}
}

// Start drains the outbox once, then on every tick until ctx is cancelled.
func (r *Relay) Start(ctx context.Context) error {
	r.logger.Info("starting relay", "interval", r.interval, "batch_size", r.batchSize)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if published, err := r.drain(ctx); err != nil {
			r.logger.Error("outbox drain failed", "published", published, "error", err)
		} else if published > 0 {
			r.logger.Debug("outbox drained", "published", published)
		}

		select {
		case <-ctx.Done():
			r.logger.Info("relay stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// drain publishes pending events batch by batch. It stops after a short
// batch, after a batch with a failure, or after maxBatches.
func (r *Relay) drain(ctx context.Context) (int, error) {
	published := 0

	for batch := 0; batch < r.maxBatches; batch++ {
		events, err := r.outbox.GetPending(ctx, r.batchSize)
		if err != nil {
			return published, fmt.Errorf("failed to get pending events: %w", err)
		}

		failed := false
		for _, event := range events {
			if err := r.deliver(ctx, event); err != nil {
				failed = true
				r.logger.Error("price history event not delivered",
					"event_id", event.ID,
					"product_id", event.AggregateID,
					"retry_count", event.RetryCount,
					"error", err)
				continue
			}
			published++
		}

		if failed || len(events) < r.batchSize || ctx.Err() != nil {
			break
		}
	}

	return published, nil
}

func (r *Relay) deliver(ctx context.Context, event *OutboxEvent) error {
	if err := r.publish(ctx, event); err != nil {
		if markErr := r.outbox.MarkFailed(ctx, event.ID, err); markErr != nil {
			r.logger.Error("failed to mark event as failed", "event_id", event.ID, "error", markErr)
		}
		return err
	}

	if err := r.outbox.MarkProcessed(ctx, event.ID); err != nil {
		return fmt.Errorf("published but not marked processed: %w", err)
	}
	return nil
}

func (r *Relay) publish(ctx context.Context, event *OutboxEvent) error {
	values, err := streamRecord(event)
	if err != nil {
		return err
	}

	stream := event.TargetStream
	if stream == "" {
		stream = DefaultStream
	}

	id, err := r.redis.XAdd(ctx, &redis.XAddArgs{Stream: stream, Values: values}).Result()
	if err != nil {
		return fmt.Errorf("failed to publish to redis: %w", err)
	}

	r.logger.Info("price history published",
		"stream", stream,
		"stream_id", id,
		"product_id", values["product_id"],
		"first_capture", values["first_capture"])
	return nil
}

// streamRecord flattens a price history event into stream fields. Missing
// price statistics are published as empty strings.
func streamRecord(event *OutboxEvent) (map[string]any, error) {
	if event.EventType != EventPriceHistoryAdded {
		return nil, fmt.Errorf("%w: unsupported event type %q", ErrInvalidEvent, event.EventType)
	}

	var p PriceHistoryPayload
	if err := json.Unmarshal(event.Payload, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	if p.ProductID == "" {
		return nil, fmt.Errorf("%w: payload has no product id", ErrInvalidEvent)
	}

	capturedAt := p.Entry.Timestamp
	if capturedAt.IsZero() {
		capturedAt = event.CreatedAt
	}

	return map[string]any{
		"event_id":      event.ID.String(),
		"event_type":    event.EventType,
		"source":        relaySource,
		"product_id":    p.ProductID,
		"name":          p.Name,
		"category":      p.Category,
		"brand":         p.Brand,
		"source_url":    p.SourceURL,
		"store_count":   strconv.Itoa(p.StoreCount),
		"history_size":  strconv.Itoa(p.HistorySize),
		"first_capture": strconv.FormatBool(p.FirstCapture),
		"captured_at":   capturedAt.UTC().Format(time.RFC3339Nano),
		"lowest_price":  formatPrice(p.Entry.LowestPrice),
		"highest_price": formatPrice(p.Entry.HighestPrice),
		"average_price": formatPrice(p.Entry.AveragePrice),
		"currency":      p.Entry.Currency,
		"retry_count":   strconv.Itoa(event.RetryCount),
	}, nil
}

func formatPrice(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// PendingCount returns events still waiting for a successful publish.
func (r *Relay) PendingCount(ctx context.Context) (int64, error) {
	return r.outbox.CountByStatus(ctx, OutboxStatusPending, OutboxStatusFailed)
}

func (r *Relay) DeadLetterCount(ctx context.Context) (int64, error) {
	return r.outbox.CountByStatus(ctx, OutboxStatusDeadLetter)
}
