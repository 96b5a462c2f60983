package services

import (
	"context"
	"fmt"

	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/ports"
)

// EventProcessor applies consumed category events to the audit trail and,
// when configured, to the external mirror.
type EventProcessor struct {
	recorder ports.EventRecorder
	mirror   ports.CategoryMirror
	logger   *log.Logger
}

// NewEventProcessor creates a processor. mirror may be nil.
func NewEventProcessor(recorder ports.EventRecorder, mirror ports.CategoryMirror, logger *log.Logger) *EventProcessor {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &EventProcessor{
		recorder: recorder,
		mirror:   mirror,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// Handle processes one event. Returning an error asks for redelivery, so every
// step must tolerate seeing the same event twice.
func (p *EventProcessor) Handle(ctx context.Context, ev core.CategoryEvent) error {
	if err := p.recorder.RecordCategoryEvent(ctx, ev); err != nil {
		return fmt.Errorf("record event %s: %w", ev.ID, err)
	}

	if p.mirror != nil {
		var err error
		switch ev.Kind {
		case core.CategoryCreated:
			err = p.mirror.AppendCategory(ctx, ev.Category)
		case core.CategoryDeleted:
			err = p.mirror.RemoveCategory(ctx, ev.Category)
		default:
			p.logger.WarnContext(ctx, "Unknown category event kind",
				log.FieldEventID, ev.ID,
				"kind", ev.Kind)
			return nil
		}
		if err != nil {
			return fmt.Errorf("mirror event %s: %w", ev.ID, err)
		}
	}

	p.logger.InfoContext(ctx, "Category event processed", log.NewFields().
		WithOperation(log.OpSync).
		WithUser(ev.Category.UserID).
		WithCategory(ev.Category.Name, ev.Category.Type.String(), ev.Category.Icon).
		ToSlice()...)
	return nil
}
