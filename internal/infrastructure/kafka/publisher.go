// Package kafka publishes product change events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	domain "catalog/backend/internal/domain/product"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const defaultPublishTimeout = 2 * time.Second

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes product events as JSON, keyed by product id so every
// change of one product lands on the same partition.
type Publisher struct {
	writer  messageWriter
	topic   string
	timeout time.Duration
	logger  *zap.Logger
}

var _ domain.EventPublisher = (*Publisher)(nil)

// NewPublisher builds a publisher for topic on brokers. Each Publish gives
// up after timeout, retries included.
func NewPublisher(brokers []string, topic string, timeout time.Duration, logger *zap.Logger) *Publisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireAll,
		MaxAttempts:            3,
		WriteBackoffMin:        50 * time.Millisecond,
		WriteBackoffMax:        500 * time.Millisecond,
		WriteTimeout:           timeout,
	}
	p := newPublisher(writer, topic, logger)
	if timeout > 0 {
		p.timeout = timeout
	}
	return p
}

func newPublisher(w messageWriter, topic string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		writer:  w,
		topic:   topic,
		timeout: defaultPublishTimeout,
		logger:  logger.With(zap.String("topic", topic)),
	}
}

// Publish sends e and waits for the broker acknowledgement, but never longer
// than the publisher timeout.
func (p *Publisher) Publish(ctx context.Context, e domain.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return errors.Wrap(err, "marshal product event")
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(e.ProductID, 10)),
		Value: data,
		Time:  e.Timestamp,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(e.Type)},
		},
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return errors.Wrapf(err, "write %s event", e.Type)
	}

	p.logger.Debug("product event sent",
		zap.String("type", string(e.Type)),
		zap.Int64("product_id", e.ProductID),
	)
	return nil
}

// Close flushes pending messages and releases broker connections.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
