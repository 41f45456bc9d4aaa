package worker

import (
	"context"
	"fmt"
	"sync/atomic"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/ports"
)

// Consumer is the subscription side of the event bus.
type Consumer interface {
	ConsumeLedgerEvents(ctx context.Context, handler amqp.Handler) error
}

// AuditWorker writes every consumed ledger event to the audit trail.
type AuditWorker struct {
	store    ports.AuditWriter
	logger   *log.Logger
	recorded atomic.Int64
	failed   atomic.Int64
}

func NewAuditWorker(store ports.AuditWriter, logger *log.Logger) *AuditWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &AuditWorker{
		store:  store,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEvent records e. A returned error makes the consumer requeue it.
func (w *AuditWorker) HandleEvent(ctx context.Context, e core.LedgerEvent) error {
	fields := log.NewFields().WithEvent(e).WithOperation(log.OpConsume)

	if err := w.store.RecordEvent(ctx, e); err != nil {
		w.failed.Add(1)
		w.logger.ErrorContext(ctx, "Failed to record ledger event", fields.WithError(err).ToSlice()...)
		return fmt.Errorf("record %s event: %w", e.Type, err)
	}

	w.recorded.Add(1)
	w.logger.InfoContext(ctx, "Recorded ledger event", fields.ToSlice()...)
	return nil
}

// Run consumes until ctx is cancelled.
func (w *AuditWorker) Run(ctx context.Context, consumer Consumer) error {
	w.logger.InfoContext(ctx, "Audit worker started")
	err := consumer.ConsumeLedgerEvents(ctx, w.HandleEvent)
	w.logger.InfoContext(ctx, "Audit worker stopped",
		"recorded", w.recorded.Load(),
		"failed", w.failed.Load())
	return err
}

// Stats returns how many events were recorded and how many failed.
func (w *AuditWorker) Stats() (recorded, failed int64) {
	return w.recorded.Load(), w.failed.Load()
}
