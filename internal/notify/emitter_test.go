package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/PovetkinRoman/bankApp-sub000/internal/domain"
)

type publisherStub struct {
	published chan publishedEvent
	err       error
}

type publishedEvent struct {
	exchange   string
	routingKey string
	event      domain.NotificationEvent
}

func (p *publisherStub) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	event, _ := body.(domain.NotificationEvent)
	p.published <- publishedEvent{exchange: exchange, routingKey: routingKey, event: event}
	return p.err
}

func (p *publisherStub) Close() {}

func TestNotify_PublishesEvent(t *testing.T) {
	producer := &publisherStub{published: make(chan publishedEvent, 1)}
	emitter := NewEmitter(producer, "bank.events")

	emitter.Notify("alice", domain.NotificationTransferSent, "Transfer sent", "You sent 100 RUB to bob", map[string]string{"transfer_id": "t-1"})

	select {
	case got := <-producer.published:
		if got.exchange != "bank.events" {
			t.Fatalf("unexpected exchange %q", got.exchange)
		}
		if got.routingKey != "notify."+domain.NotificationTransferSent {
			t.Fatalf("unexpected routing key %q", got.routingKey)
		}
		if got.event.Party != "alice" || got.event.Title != "Transfer sent" {
			t.Fatalf("unexpected event %+v", got.event)
		}
		if got.event.Timestamp.IsZero() {
			t.Fatal("expected a timestamp on the event")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected an asynchronous publish")
	}
}

func TestNotify_PublishFailureIsSwallowed(t *testing.T) {
	producer := &publisherStub{
		published: make(chan publishedEvent, 1),
		err:       errors.New("broker down"),
	}
	emitter := NewEmitter(producer, "bank.events")

	// Notify must return immediately and must not panic or surface the error.
	emitter.Notify("bob", domain.NotificationTransferReceived, "Transfer received", "You received 100 RUB", nil)

	select {
	case <-producer.published:
	case <-time.After(2 * time.Second):
		t.Fatal("expected the publish attempt despite the eventual failure")
	}
}
