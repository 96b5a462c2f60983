package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/log"
)

// Consumer delivers category events until ctx is done
type Consumer interface {
	ConsumeCategoryEvents(ctx context.Context, handler amqp.CategoryEventHandler) error
}

// Handler applies a single event
type Handler interface {
	Handle(ctx context.Context, ev core.CategoryEvent) error
}

// CategoryWorker feeds consumed category events to a handler with a per-event timeout
type CategoryWorker struct {
	consumer Consumer
	handler  Handler
	timeout  time.Duration
	logger   *log.Logger

	processed int64
	failed    int64
}

func NewCategoryWorker(consumer Consumer, handler Handler, timeout time.Duration, logger *log.Logger) *CategoryWorker {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &CategoryWorker{
		consumer: consumer,
		handler:  handler,
		timeout:  timeout,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// Run blocks until ctx is cancelled or the consumer fails.
// Cancellation is a clean shutdown and returns nil.
func (w *CategoryWorker) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Category worker started", "handler_timeout", w.timeout)
	err := w.consumer.ConsumeCategoryEvents(ctx, w.handle)
	if errors.Is(err, context.Canceled) {
		w.logger.InfoContext(ctx, "Category worker stopped",
			"processed", atomic.LoadInt64(&w.processed),
			"failed", atomic.LoadInt64(&w.failed))
		return nil
	}
	return err
}

func (w *CategoryWorker) handle(ctx context.Context, ev core.CategoryEvent) error {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	start := time.Now()
	if err := w.handler.Handle(ctx, ev); err != nil {
		atomic.AddInt64(&w.failed, 1)
		w.logger.WarnContext(ctx, "Category event failed",
			log.FieldEventID, ev.ID,
			log.FieldOperation, log.OpConsume,
			log.FieldError, err)
		return err
	}
	atomic.AddInt64(&w.processed, 1)
	w.logger.DebugContext(ctx, "Category event handled",
		log.FieldEventID, ev.ID,
		log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

// Stats returns the number of processed and failed events
func (w *CategoryWorker) Stats() (processed, failed int64) {
	return atomic.LoadInt64(&w.processed), atomic.LoadInt64(&w.failed)
}
