package kafka

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/MolSig-Alphabet/internal/config"
	"github.com/turtacn/MolSig-Alphabet/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolSig-Alphabet/pkg/errors"
)

var ErrProducerClosed = errors.New(errors.ErrCodeMessageQueue, "producer closed")

// ProducerMetrics holds producer counters.
type ProducerMetrics struct {
	MessagesSent   atomic.Int64
	MessagesFailed atomic.Int64
	BytesSent      atomic.Int64
}

// WriterInterface abstracts kafka.Writer for testing.
type WriterInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes event envelopes to the message stream.
type Producer struct {
	writer  WriterInterface
	logger  logging.Logger
	closed  atomic.Bool
	metrics *ProducerMetrics
}

// NewProducer creates a Producer from the platform Kafka configuration.
func NewProducer(cfg config.KafkaConfig, logger logging.Logger) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "at least one broker is required")
	}
	batchSize := cfg.BatchSize
	if batchSize == 0 {
		batchSize = 100
	}
	maxAttempts := cfg.ProducerRetries + 1

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		MaxAttempts:  maxAttempts,
		BatchSize:    batchSize,
		BatchTimeout: time.Second,
		RequiredAcks: kafka.RequireAll,
	}

	return &Producer{
		writer:  writer,
		logger:  logger,
		metrics: &ProducerMetrics{},
	}, nil
}

// NewProducerWithWriter wraps an existing writer (for tests).
func NewProducerWithWriter(w WriterInterface, logger logging.Logger) *Producer {
	return &Producer{writer: w, logger: logger, metrics: &ProducerMetrics{}}
}

// Publish sends one envelope.  The key routes all events of one molecule or
// alphabet to the same partition, preserving per-entity ordering.
func (p *Producer) Publish(ctx context.Context, topic, key string, env *EventEnvelope) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	value, err := json.Marshal(env)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal envelope")
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.metrics.MessagesFailed.Add(1)
		return errors.Wrap(err, errors.ErrCodeMessageQueue, "failed to publish message")
	}
	p.metrics.MessagesSent.Add(1)
	p.metrics.BytesSent.Add(int64(len(value)))
	return nil
}

// PublishMolecules submits a batch of molecule notations to the stream.
func (p *Producer) PublishMolecules(ctx context.Context, source string, notations []string) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	msgs := make([]kafka.Message, 0, len(notations))
	now := time.Now().UTC()
	for _, notation := range notations {
		env, err := NewEnvelope("molecule.submitted", source, MoleculeSubmittedPayload{
			Notation:    notation,
			Source:      source,
			SubmittedAt: now,
		})
		if err != nil {
			return err
		}
		value, err := json.Marshal(env)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal envelope")
		}
		msgs = append(msgs, kafka.Message{
			Topic: TopicMoleculeSubmitted,
			Key:   []byte(notation),
			Value: value,
		})
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		p.metrics.MessagesFailed.Add(int64(len(msgs)))
		return errors.Wrap(err, errors.ErrCodeMessageQueue, "failed to publish molecule batch")
	}
	p.metrics.MessagesSent.Add(int64(len(msgs)))
	p.logger.Debug("published molecule batch", logging.Int("count", len(msgs)))
	return nil
}

// Metrics returns the producer counters.
func (p *Producer) Metrics() *ProducerMetrics { return p.metrics }

// Close flushes buffered messages and shuts the producer down.
func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := p.writer.Close(); err != nil {
		return errors.Wrap(err, errors.ErrCodeMessageQueue, "failed to close producer")
	}
	return nil
}
