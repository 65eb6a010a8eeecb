package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"portfolio-site/internal/model"
)

// AuditSink stores decoded audit events. *repository.AuditRepository
// satisfies it.
type AuditSink interface {
	Create(ctx context.Context, event *model.AuditEvent) error
}

// AuditWorker drains the audit queue into the sink. Malformed or
// unstorable deliveries are dropped, not requeued.
type AuditWorker struct {
	conn      *amqp.Connection
	sink      AuditSink
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewAuditWorker(conn *amqp.Connection, sink AuditSink, queueName string) *AuditWorker {
	return &AuditWorker{
		conn:      conn,
		sink:      sink,
		queueName: queueName,
	}
}

func (w *AuditWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	ch, err := w.conn.Channel()
	if err != nil {
		return fmt.Errorf("open worker channel failed: %w", err)
	}
	if err := ch.Qos(16, 0, false); err != nil {
		_ = ch.Close()
		return fmt.Errorf("set worker prefetch failed: %w", err)
	}

	deliveries, err := ch.Consume(w.queueName, "", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return fmt.Errorf("consume audit queue failed: %w", err)
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				w.handle(workerCtx, d)
			}
		}
	}()

	return nil
}

func (w *AuditWorker) handle(ctx context.Context, d amqp.Delivery) {
	event, err := decodeAuditEvent(d.Body)
	if err != nil {
		log.Printf("worker decode audit event failed: %v", err)
		_ = d.Nack(false, false)
		return
	}

	if err := w.sink.Create(ctx, event); err != nil {
		log.Printf("worker persist audit event %s failed: %v", event.ID, err)
		_ = d.Nack(false, false)
		return
	}

	_ = d.Ack(false)
}

func decodeAuditEvent(body []byte) (*model.AuditEvent, error) {
	var event model.AuditEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("unmarshal audit event failed: %w", err)
	}
	if event.ID == "" || event.Action == "" {
		return nil, fmt.Errorf("audit event missing id or action")
	}
	return &event, nil
}

func (w *AuditWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
