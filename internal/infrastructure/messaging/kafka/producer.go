// Package kafka publishes finalized reactions for downstream consumers such
// as model-training pipelines.
package kafka

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/enzymemap/internal/config"
	"github.com/turtacn/enzymemap/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/enzymemap/pkg/errors"
	rtypes "github.com/turtacn/enzymemap/pkg/types/reaction"
)

// TopicReactionFinalized is the default topic for finalized-reaction events.
const TopicReactionFinalized = "reaction.finalized"

var ErrProducerClosed = errors.New(errors.ErrCodeMessagingError, "producer is closed")

// writerInterface abstracts kafka.Writer for testing.
type writerInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer writes finalized-reaction events.  Messages are keyed by EC
// number so all rows of one enzyme class land on the same partition.
type Producer struct {
	writer writerInterface
	topic  string
	logger logging.Logger
	closed atomic.Bool
	sent   atomic.Int64
	failed atomic.Int64
}

// NewProducer constructs a Producer from configuration.
func NewProducer(cfg config.KafkaConfig, logger logging.Logger) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New(errors.ErrCodeBadRequest, "at least one broker is required")
	}
	topic := cfg.Topic
	if topic == "" {
		topic = TopicReactionFinalized
	}

	batchTimeout := cfg.BatchTimeout
	if batchTimeout == 0 {
		batchTimeout = time.Second
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout == 0 {
		writeTimeout = 10 * time.Second
	}
	batchSize := cfg.BatchSize
	if batchSize == 0 {
		batchSize = 100
	}

	requiredAcks := kafka.RequireOne
	switch cfg.RequiredAcks {
	case -1:
		requiredAcks = kafka.RequireAll
	case 0:
		requiredAcks = kafka.RequireNone
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		MaxAttempts:            cfg.MaxRetries + 1,
		BatchSize:              batchSize,
		BatchTimeout:           batchTimeout,
		WriteTimeout:           writeTimeout,
		RequiredAcks:           requiredAcks,
		AllowAutoTopicCreation: cfg.AllowAutoTopicCreation,
	}

	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Producer{writer: writer, topic: topic, logger: logger.Named("kafka")}, nil
}

// newProducerWithWriter wires a custom writer, for tests.
func newProducerWithWriter(w writerInterface, topic string, logger logging.Logger) *Producer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Producer{writer: w, topic: topic, logger: logger}
}

// PublishFinalized emits one event per finalized reaction.
func (p *Producer) PublishFinalized(ctx context.Context, reactions []rtypes.FinalizedReaction) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	if len(reactions) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(reactions))
	for _, f := range reactions {
		value, err := json.Marshal(f)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "cannot serialize finalized reaction")
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(f.ECNumber),
			Value: value,
			Time:  time.Now(),
		})
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		p.failed.Add(int64(len(msgs)))
		return errors.Wrap(err, errors.ErrCodeMessagingError, "publish failed")
	}

	p.sent.Add(int64(len(msgs)))
	p.logger.Debug("published finalized reactions",
		logging.String("topic", p.topic),
		logging.Int("count", len(msgs)),
	)
	return nil
}

// Sent returns the number of successfully published messages.
func (p *Producer) Sent() int64 { return p.sent.Load() }

// Failed returns the number of messages that could not be published.
func (p *Producer) Failed() int64 { return p.failed.Load() }

// Close shuts the producer down.  Safe to call more than once.
func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := p.writer.Close()
	p.logger.Info("kafka producer closed", logging.Int64("sent", p.sent.Load()))
	return err
}
