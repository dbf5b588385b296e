package bus

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/opensource-finance/gridpay/internal/domain"
)

func TestChannelBusPublishSubscribe(t *testing.T) {
	b := NewChannelBus(16)
	defer b.Close()

	var received atomic.Int64
	done := make(chan struct{}, 1)

	_, err := b.Subscribe(context.Background(), domain.TopicBatchProcessed, func(ctx context.Context, msg *domain.Message) error {
		if string(msg.Payload) != `{"batchId":"b-1"}` {
			t.Errorf("unexpected payload: %s", msg.Payload)
		}
		received.Add(1)
		done <- struct{}{}
		return nil
	})
	if err != nil {
		t.Fatalf("failed to subscribe: %v", err)
	}

	if err := b.Publish(context.Background(), domain.TopicBatchProcessed, []byte(`{"batchId":"b-1"}`)); err != nil {
		t.Fatalf("failed to publish: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}

	if received.Load() != 1 {
		t.Errorf("expected 1 message, got %d", received.Load())
	}
}

func TestChannelBusTopicIsolation(t *testing.T) {
	b := NewChannelBus(16)
	defer b.Close()

	var count atomic.Int64
	_, err := b.Subscribe(context.Background(), "other.topic", func(ctx context.Context, msg *domain.Message) error {
		count.Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("failed to subscribe: %v", err)
	}

	if err := b.Publish(context.Background(), domain.TopicBatchProcessed, []byte("x")); err != nil {
		t.Fatalf("failed to publish: %v", err)
	}

	time.Sleep(100 * time.Millisecond)
	if count.Load() != 0 {
		t.Errorf("expected no cross-topic delivery, got %d messages", count.Load())
	}
}

func TestChannelBusUnsubscribe(t *testing.T) {
	b := NewChannelBus(16)
	defer b.Close()

	var count atomic.Int64
	sub, err := b.Subscribe(context.Background(), "t", func(ctx context.Context, msg *domain.Message) error {
		count.Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("failed to subscribe: %v", err)
	}

	if sub.Topic() != "t" {
		t.Errorf("expected topic t, got %s", sub.Topic())
	}

	if err := sub.Unsubscribe(); err != nil {
		t.Fatalf("failed to unsubscribe: %v", err)
	}

	_ = b.Publish(context.Background(), "t", []byte("x"))
	time.Sleep(100 * time.Millisecond)

	if count.Load() != 0 {
		t.Errorf("expected no delivery after unsubscribe, got %d", count.Load())
	}
}

func TestChannelBusRequestTimeout(t *testing.T) {
	b := NewChannelBus(16)
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if _, err := b.Request(ctx, "echo", []byte("ping")); err == nil {
		t.Error("expected timeout error when no replier exists")
	}
}

func TestChannelBusClosed(t *testing.T) {
	b := NewChannelBus(16)
	if err := b.Close(); err != nil {
		t.Fatalf("failed to close: %v", err)
	}

	if err := b.Publish(context.Background(), "t", []byte("x")); err == nil {
		t.Error("expected publish error on closed bus")
	}
	if _, err := b.Subscribe(context.Background(), "t", func(ctx context.Context, msg *domain.Message) error { return nil }); err == nil {
		t.Error("expected subscribe error on closed bus")
	}
	if err := b.Ping(context.Background()); err == nil {
		t.Error("expected ping error on closed bus")
	}
}
