package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	kafkaconfig "bizqueue/pkg/kafka/config"
	"bizqueue/pkg/logger"

	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type ConsumerMiddleware func(ctx context.Context, msg Message, next MessageHandler) error

// Consumer reads one topic in a consumer group and commits each record once
// its handler has finished with it.
type Consumer struct {
	reader     messageReader
	maxRetries int
	backoff    time.Duration
	log        *logger.Logger

	mu      sync.RWMutex
	closed  bool
	handler MessageHandler
	wg      sync.WaitGroup
}

func NewConsumer(cfg *kafkaconfig.Config, topic string, groupID string, handler MessageHandler, log *logger.Logger) (*Consumer, error) {
	switch {
	case cfg == nil:
		return nil, errors.New("kafka config is required")
	case len(cfg.Brokers) == 0:
		return nil, errors.New("at least one broker is required")
	case topic == "":
		return nil, errors.New("consumer topic is required")
	case groupID == "":
		return nil, errors.New("consumer group is required")
	case handler == nil:
		return nil, errors.New("message handler is required")
	}

	readerLog := log.With("topic", topic, "group_id", groupID)
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:           cfg.Brokers,
		Topic:             topic,
		GroupID:           groupID,
		MinBytes:          cfg.ConsumerMinBytes,
		MaxBytes:          cfg.ConsumerMaxBytes,
		MaxWait:           cfg.ConsumerMaxWait,
		CommitInterval:    cfg.ConsumerCommitInterval,
		HeartbeatInterval: cfg.ConsumerHeartbeatInterval,
		SessionTimeout:    cfg.ConsumerSessionTimeout,
		RebalanceTimeout:  cfg.ConsumerRebalanceTimeout,
		StartOffset:       cfg.ConsumerStartOffset,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...any) {
			readerLog.Error("kafka reader error", "detail", fmt.Sprintf(msg, args...))
		}),
	})

	return newConsumer(reader, topic, groupID, cfg.ConsumerMaxRetries, handler, log), nil
}

func newConsumer(reader messageReader, topic, groupID string, maxRetries int, handler MessageHandler, log *logger.Logger) *Consumer {
	return &Consumer{
		reader:     reader,
		maxRetries: maxRetries,
		backoff:    time.Second,
		log:        log.With("topic", topic, "group_id", groupID),
		handler:    handler,
	}
}

// Use wraps the current handler; the last registered middleware runs first.
func (c *Consumer) Use(middleware ConsumerMiddleware) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.handler
	c.handler = func(ctx context.Context, msg Message) error {
		return middleware(ctx, msg, next)
	}
}

// Start blocks consuming until ctx is cancelled. Each record is committed after
// its handler returns, whether it succeeded, exhausted its retries, or failed permanently.
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return ErrConsumerClosed
	}
	c.wg.Add(1)
	handler := c.handler
	c.mu.RUnlock()
	defer c.wg.Done()

	for {
		record, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Warn("kafka consumer fetch failed", "error", err)
			if !c.sleep(ctx) {
				return ctx.Err()
			}
			continue
		}

		msg := fromKafka(record)
		if err := c.handle(ctx, handler, msg); err != nil {
			c.log.Error("kafka consumer dropped message",
				"offset", msg.Offset,
				"event_id", msg.GetEventID(),
				"error", err,
			)
		}

		if err := c.reader.CommitMessages(ctx, record); err != nil {
			c.log.Warn("kafka consumer commit failed", "offset", record.Offset, "error", err)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, handler MessageHandler, msg Message) error {
	for {
		err := handler(ctx, msg)
		if err == nil {
			return nil
		}
		retries := msg.GetRetryCount()
		if !ShouldRetry(err, retries, c.maxRetries) {
			return err
		}
		msg.IncrementRetryCount()
		c.log.Warn("retrying kafka message",
			"attempt", retries+1,
			"max_retries", c.maxRetries,
			"error", err,
		)
		if !c.sleep(ctx) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) sleep(ctx context.Context) bool {
	timer := time.NewTimer(c.backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Close waits for Start to return; cancel its context first.
func (c *Consumer) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.wg.Wait()
	return c.reader.Close()
}
