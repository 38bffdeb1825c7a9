package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"

	kafkaconfig "bizqueue/pkg/kafka/config"
	"bizqueue/pkg/logger"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/compress"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// PublishFunc sends one message.
type PublishFunc func(ctx context.Context, msg Message) error

// ProducerMiddleware wraps a publish; call next to continue the chain.
type ProducerMiddleware func(ctx context.Context, msg Message, next func(ctx context.Context, msg Message) error) error

// Producer writes keyed events to a single topic. Messages with the same key
// (a business id) land on the same partition and keep their order.
type Producer struct {
	writer messageWriter
	topic  string

	mu      sync.RWMutex
	closed  bool
	publish PublishFunc
}

var compressionCodecs = map[string]compress.Compression{
	"none": compress.None,
	"gzip": compress.Gzip,
	"lz4":  compress.Lz4,
	"zstd": compress.Zstd,
}

var ackLevels = map[int]kafka.RequiredAcks{
	0: kafka.RequireNone,
	1: kafka.RequireOne,
}

func NewProducer(cfg *kafkaconfig.Config, topic string, log *logger.Logger) (*Producer, error) {
	switch {
	case cfg == nil:
		return nil, errors.New("kafka config is required")
	case len(cfg.Brokers) == 0:
		return nil, errors.New("at least one broker is required")
	case topic == "":
		return nil, errors.New("producer topic is required")
	}

	codec, ok := compressionCodecs[cfg.ProducerCompression]
	if !ok {
		codec = compress.Snappy
	}
	acks, ok := ackLevels[cfg.ProducerRequireAcks]
	if !ok {
		acks = kafka.RequireAll
	}

	producerLog := log.With("topic", topic)
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: acks,
		Compression:  codec,
		MaxAttempts:  cfg.ProducerMaxAttempts,
		BatchTimeout: cfg.ProducerBatchTimeout,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...any) {
			producerLog.Error("kafka writer error", "detail", fmt.Sprintf(msg, args...))
		}),
	}

	return newProducer(writer, topic), nil
}

func newProducer(writer messageWriter, topic string) *Producer {
	p := &Producer{writer: writer, topic: topic}
	p.publish = p.write
	return p
}

func (p *Producer) Topic() string {
	return p.topic
}

// Use wraps the current chain; the last registered middleware runs first.
func (p *Producer) Use(middleware ProducerMiddleware) {
	p.mu.Lock()
	defer p.mu.Unlock()
	next := p.publish
	p.publish = func(ctx context.Context, msg Message) error {
		return middleware(ctx, msg, next)
	}
}

func (p *Producer) Publish(ctx context.Context, msg Message) error {
	p.mu.RLock()
	closed, publish := p.closed, p.publish
	p.mu.RUnlock()

	if closed {
		return ErrProducerClosed
	}
	if err := msg.validate(); err != nil {
		return err
	}
	msg.Topic = p.topic
	return publish(ctx, msg)
}

func (p *Producer) write(ctx context.Context, msg Message) error {
	if err := p.writer.WriteMessages(ctx, msg.toKafka()); err != nil {
		return NewTransientError("publish to "+p.topic, err)
	}
	return nil
}

func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.writer.Close()
}
