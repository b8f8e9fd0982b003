/**
 * @description
 * Failure notifications for reminder processing, published as events on the
 * message bus.
 */
package app

import (
	"context"
	"log/slog"
	"time"
)

// Notifier receives aggregated failure reports from the orchestrator.
type Notifier interface {
	NotifyFailedBatch(ctx context.Context, count int, invoiceIDs []string, errs []string)
	NotifySchedulerFailure(ctx context.Context, err error)
}

// EventPublisher publishes a JSON event with a routing key.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, body interface{}) error
}

// EventNotifier publishes failure notifications to the event bus. With a nil
// publisher it degrades to logging only.
type EventNotifier struct {
	publisher EventPublisher
	logger    *slog.Logger
}

// NewEventNotifier creates an EventNotifier.
func NewEventNotifier(publisher EventPublisher, logger *slog.Logger) *EventNotifier {
	return &EventNotifier{publisher: publisher, logger: logger}
}

type batchFailedEvent struct {
	FailureCount int       `json:"failure_count"`
	InvoiceIDs   []string  `json:"invoice_ids"`
	Errors       []string  `json:"errors"`
	Timestamp    time.Time `json:"timestamp"`
}

type schedulerFailureEvent struct {
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// NotifyFailedBatch emits one aggregated event for a tick that accumulated
// enough delivery failures to be worth flagging.
func (n *EventNotifier) NotifyFailedBatch(ctx context.Context, count int, invoiceIDs []string, errs []string) {
	n.logger.Warn("reminder batch accumulated failures", "count", count, "invoice_ids", invoiceIDs)

	if n.publisher == nil {
		return
	}

	event := batchFailedEvent{
		FailureCount: count,
		InvoiceIDs:   invoiceIDs,
		Errors:       errs,
		Timestamp:    time.Now(),
	}
	if err := n.publisher.Publish(ctx, "reminder.batch_failed", event); err != nil {
		n.logger.Error("failed to publish batch failure event", "error", err)
	}
}

// NotifySchedulerFailure reports a tick that died before completing.
func (n *EventNotifier) NotifySchedulerFailure(ctx context.Context, tickErr error) {
	n.logger.Error("reminder tick failed", "error", tickErr)

	if n.publisher == nil {
		return
	}

	event := schedulerFailureEvent{
		Error:     tickErr.Error(),
		Timestamp: time.Now(),
	}
	if err := n.publisher.Publish(ctx, "reminder.scheduler_failed", event); err != nil {
		n.logger.Error("failed to publish scheduler failure event", "error", err)
	}
}
