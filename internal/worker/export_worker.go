// Package worker turns tracker events into spreadsheet rows.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"viajjo/internal/amqp"
	"viajjo/internal/sheets"
	"viajjo/internal/tracker"
)

// Recorder observes handled events.
type Recorder interface {
	IncEventConsumed(eventType, outcome string)
}

// ExportWorker appends every created expense to the exporter. Other events
// are acknowledged without side effects.
type ExportWorker struct {
	exporter sheets.ExpenseExporter
	recorder Recorder
}

func NewExportWorker(exporter sheets.ExpenseExporter, recorder Recorder) *ExportWorker {
	return &ExportWorker{exporter: exporter, recorder: recorder}
}

// HandleMessage is an amqp.Handler. An error requeues the message.
func (w *ExportWorker) HandleMessage(ctx context.Context, msg *amqp.EventMessage) error {
	err := w.Handle(ctx, msg.Event())
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	if w.recorder != nil {
		w.recorder.IncEventConsumed(string(msg.Type), outcome)
	}
	return err
}

// Handle processes one event.
func (w *ExportWorker) Handle(ctx context.Context, ev tracker.Event) error {
	switch ev.Type {
	case tracker.ExpenseCreated:
		if ev.Expense == nil {
			slog.WarnContext(ctx, "Expense event without expense, skipping", "entity_id", ev.EntityID)
			return nil
		}
		ref, err := w.exporter.AppendExpense(ctx, ev.Email, *ev.Expense)
		if err != nil {
			return fmt.Errorf("export expense %s: %w", ev.Expense.ID, err)
		}
		slog.InfoContext(ctx, "Expense exported",
			"expense_id", ev.Expense.ID,
			"category", ev.Expense.Category,
			"sheets_ref", ref)
		return nil
	default:
		slog.InfoContext(ctx, "Event acknowledged", "event_type", ev.Type, "entity_id", ev.EntityID)
		return nil
	}
}
