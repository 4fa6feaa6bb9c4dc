package kafka

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/MolSig-Alphabet/internal/config"
	"github.com/turtacn/MolSig-Alphabet/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolSig-Alphabet/pkg/errors"
)

var (
	ErrAlreadyRunning = errors.New(errors.ErrCodeConflict, "consumer already running")
	ErrConsumerClosed = errors.New(errors.ErrCodeMessageQueue, "consumer closed")
)

// Handler processes one decoded envelope.  Returning an error leaves the
// message uncommitted so it is redelivered after a rebalance.
type Handler func(ctx context.Context, env *EventEnvelope) error

// ConsumerMetrics holds consumer counters.
type ConsumerMetrics struct {
	MessagesConsumed  atomic.Int64
	MessagesProcessed atomic.Int64
	MessagesFailed    atomic.Int64
}

// ReaderInterface abstracts kafka.Reader for testing.
type ReaderInterface interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads envelopes off a topic and feeds them to a handler.
type Consumer struct {
	reader  ReaderInterface
	logger  logging.Logger
	running atomic.Bool
	closed  atomic.Bool
	metrics *ConsumerMetrics
}

// NewConsumer creates a Consumer for one topic within the configured group.
func NewConsumer(cfg config.KafkaConfig, topic string, logger logging.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "at least one broker is required")
	}
	if cfg.GroupID == "" {
		return nil, errors.New(errors.ErrCodeValidation, "group id is required")
	}

	startOffset := kafka.FirstOffset
	if cfg.AutoOffsetReset == "latest" {
		startOffset = kafka.LastOffset
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:           cfg.Brokers,
		GroupID:           cfg.GroupID,
		Topic:             topic,
		MinBytes:          1,
		MaxBytes:          10 * 1024 * 1024,
		MaxWait:           time.Second,
		StartOffset:       startOffset,
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    30 * time.Second,
	})

	return &Consumer{
		reader:  reader,
		logger:  logger,
		metrics: &ConsumerMetrics{},
	}, nil
}

// NewConsumerWithReader wraps an existing reader (for tests).
func NewConsumerWithReader(r ReaderInterface, logger logging.Logger) *Consumer {
	return &Consumer{reader: r, logger: logger, metrics: &ConsumerMetrics{}}
}

// Run fetches and handles messages until the context is canceled or the
// consumer is closed.  Messages that fail to decode are committed and
// dropped; handler failures leave the offset uncommitted for redelivery.
func (c *Consumer) Run(ctx context.Context, handler Handler) error {
	if c.closed.Load() {
		return ErrConsumerClosed
	}
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer c.running.Store(false)

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if c.closed.Load() {
				return nil
			}
			return errors.Wrap(err, errors.ErrCodeMessageQueue, "failed to fetch message")
		}
		c.metrics.MessagesConsumed.Add(1)

		env, err := DecodeEnvelope(msg.Value)
		if err != nil {
			c.metrics.MessagesFailed.Add(1)
			c.logger.Warn("dropping undecodable message",
				logging.String("topic", msg.Topic),
				logging.Int64("offset", msg.Offset),
				logging.Err(err))
			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				return errors.Wrap(err, errors.ErrCodeMessageQueue, "failed to commit message")
			}
			continue
		}

		if err := handler(ctx, env); err != nil {
			c.metrics.MessagesFailed.Add(1)
			c.logger.Error("message handler failed",
				logging.String("event_id", env.EventID),
				logging.String("event_type", env.EventType),
				logging.Err(err))
			continue
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return errors.Wrap(err, errors.ErrCodeMessageQueue, "failed to commit message")
		}
		c.metrics.MessagesProcessed.Add(1)
	}
}

// Metrics returns the consumer counters.
func (c *Consumer) Metrics() *ConsumerMetrics { return c.metrics }

// Close stops the consumer and releases the group membership.
func (c *Consumer) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.reader.Close()
}
