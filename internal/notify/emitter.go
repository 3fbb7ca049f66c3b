/**
 * @description
 * This package dispatches outcome notifications to the notification pipeline
 * over RabbitMQ. Dispatch is fire-and-forget: each notification is published
 * from its own goroutine with a bounded timeout, delivery failures are logged
 * and dropped, and nothing here can fail or delay a transfer.
 *
 * @dependencies
 * - context, time: Standard Go libraries.
 * - internal/domain: Notification payloads.
 * - pkg/rabbitmq: Event publishing.
 */
package notify

import (
	"context"
	"log"
	"time"

	"github.com/PovetkinRoman/bankApp-sub000/internal/domain"
	"github.com/PovetkinRoman/bankApp-sub000/pkg/rabbitmq"
)

const publishTimeout = 5 * time.Second

// Emitter publishes notification events on a best-effort basis.
type Emitter struct {
	producer rabbitmq.Publisher
	exchange string
}

// NewEmitter creates an emitter bound to a topic exchange.
func NewEmitter(producer rabbitmq.Publisher, exchange string) *Emitter {
	return &Emitter{producer: producer, exchange: exchange}
}

// Notify publishes one notification event asynchronously. It returns
// immediately; completion is never awaited and failures never surface to the
// caller.
func (e *Emitter) Notify(party, kind, title, message string, metadata map[string]string) {
	event := domain.NotificationEvent{
		Party:     party,
		Type:      kind,
		Title:     title,
		Message:   message,
		Metadata:  metadata,
		Timestamp: time.Now().UTC(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		if err := e.producer.Publish(ctx, e.exchange, "notify."+kind, event); err != nil {
			log.Printf("level=warn component=notify msg=\"notification dropped\" party=%s type=%s err=%v", party, kind, err)
		}
	}()
}
