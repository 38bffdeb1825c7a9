package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"bizqueue/pkg/logger"

	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []int64
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
}

func TestMessageBuilder(t *testing.T) {
	msg, err := NewMessage().
		WithKey("b1").
		WithValue(map[string]string{"state": "busy"}).
		WithEventType("availability.published").
		Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if msg.GetEventID() == "" {
		t.Error("expected generated event id")
	}
	if msg.Headers[HeaderTimestamp] == "" {
		t.Error("expected timestamp header")
	}

	var decoded map[string]string
	if err := msg.DecodeValue(&decoded); err != nil || decoded["state"] != "busy" {
		t.Errorf("unexpected decode: %v, %v", decoded, err)
	}
}

func TestMessageBuilder_EncodingFailure(t *testing.T) {
	_, err := NewMessage().WithKey("k").WithValue(make(chan int)).Build()
	if !errors.Is(err, ErrInvalidMessage) {
		t.Errorf("expected ErrInvalidMessage, got %v", err)
	}
}

func TestRetryCount(t *testing.T) {
	msg := Message{}
	for i := 0; i < 12; i++ {
		msg.IncrementRetryCount()
	}
	if msg.GetRetryCount() != 12 {
		t.Errorf("expected 12 retries, got %d", msg.GetRetryCount())
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"nil", nil, ErrorTypeUnknown},
		{"deadline", context.DeadlineExceeded, ErrorTypeTransient},
		{"refused", errors.New("dial tcp: Connection Refused"), ErrorTypeTransient},
		{"explicit permanent", NewPermanentError("bad", nil), ErrorTypePermanent},
		{"explicit transient", NewTransientError("flaky", nil), ErrorTypeTransient},
		{"unknown", errors.New("schema mismatch"), ErrorTypePermanent},
		{"broker temporary", fmt.Errorf("write: %w", kafka.LeaderNotAvailable), ErrorTypeTransient},
		{"broker fatal", kafka.MessageSizeTooLarge, ErrorTypePermanent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.want {
				t.Errorf("ClassifyError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, "bizqueue.availability")

	var seen []string
	p.Use(func(ctx context.Context, msg Message, next func(ctx context.Context, msg Message) error) error {
		seen = append(seen, msg.Topic)
		return next(ctx, msg)
	})

	msg, _ := NewMessage().WithKey("b1").WithValue("x").Build()
	if err := p.Publish(context.Background(), msg); err != nil {
		t.Fatalf("Publish() error: %v", err)
	}
	if len(w.messages) != 1 || string(w.messages[0].Key) != "b1" {
		t.Fatalf("unexpected written messages: %+v", w.messages)
	}
	if len(seen) != 1 || seen[0] != "bizqueue.availability" {
		t.Errorf("middleware should observe the producer topic, got %v", seen)
	}
}

func TestProducer_RejectsInvalid(t *testing.T) {
	p := newProducer(&fakeWriter{}, "t")

	if err := p.Publish(context.Background(), Message{Value: []byte("x")}); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("expected ErrEmptyKey, got %v", err)
	}
	if err := p.Publish(context.Background(), Message{Key: "k"}); !errors.Is(err, ErrEmptyValue) {
		t.Errorf("expected ErrEmptyValue, got %v", err)
	}

	_ = p.Close()
	if err := p.Publish(context.Background(), Message{Key: "k", Value: []byte("x")}); !errors.Is(err, ErrProducerClosed) {
		t.Errorf("expected ErrProducerClosed, got %v", err)
	}
}

func TestProducer_WriteFailureIsTransient(t *testing.T) {
	p := newProducer(&fakeWriter{err: errors.New("broker down")}, "t")
	err := p.Publish(context.Background(), Message{Key: "k", Value: []byte("x")})
	if ClassifyError(err) != ErrorTypeTransient {
		t.Errorf("expected transient error, got %v", err)
	}
}

func TestConsumer_RetriesTransientThenCommits(t *testing.T) {
	r := &fakeReader{queue: []kafka.Message{
		{Key: []byte("a"), Value: []byte("1"), Offset: 1},
		{Key: []byte("b"), Value: []byte("2"), Offset: 2},
	}}

	var mu sync.Mutex
	attempts := map[string]int{}
	handler := func(ctx context.Context, msg Message) error {
		mu.Lock()
		defer mu.Unlock()
		attempts[msg.Key]++
		if msg.Key == "a" && attempts["a"] < 3 {
			return NewTransientError("flaky", nil)
		}
		if msg.Key == "b" {
			return NewPermanentError("bad payload", nil)
		}
		return nil
	}

	c := newConsumer(r, "t", "g", 5, handler, testLogger())
	c.backoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	deadline := time.After(2 * time.Second)
	for {
		r.mu.Lock()
		n := len(r.committed)
		r.mu.Unlock()
		if n == 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for commits")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if attempts["a"] != 3 {
		t.Errorf("expected 3 attempts for transient failure, got %d", attempts["a"])
	}
	if attempts["b"] != 1 {
		t.Errorf("permanent failure must not be retried, got %d attempts", attempts["b"])
	}
}

func TestProducer_LastMiddlewareRunsFirst(t *testing.T) {
	p := newProducer(&fakeWriter{}, "t")

	var order []string
	for _, name := range []string{"inner", "outer"} {
		p.Use(func(ctx context.Context, msg Message, next func(ctx context.Context, msg Message) error) error {
			order = append(order, name)
			return next(ctx, msg)
		})
	}

	if err := p.Publish(context.Background(), Message{Key: "k", Value: []byte("x")}); err != nil {
		t.Fatalf("Publish() error: %v", err)
	}
	if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
		t.Errorf("unexpected middleware order: %v", order)
	}
}

func TestMessage_KafkaRoundTripKeepsHeaders(t *testing.T) {
	msg, _ := NewMessage().WithKey("b1").WithValue("x").WithEventType("booking.changed").Build()

	got := fromKafka(msg.toKafka())
	if got.Key != "b1" || got.GetEventType() != "booking.changed" || got.GetEventID() != msg.GetEventID() {
		t.Errorf("unexpected message after conversion: %+v", got)
	}
}
