package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viajjo/internal/amqp"
	"viajjo/internal/core"
	"viajjo/internal/sheets/memory"
	"viajjo/internal/tracker"
)

type failingExporter struct{}

func (failingExporter) AppendExpense(context.Context, string, core.Expense) (string, error) {
	return "", errors.New("quota exceeded")
}

type outcomes map[string]int

func (o outcomes) IncEventConsumed(eventType, outcome string) { o[eventType+":"+outcome]++ }

func TestHandleExpenseCreated(t *testing.T) {
	store := memory.New()
	rec := outcomes{}
	w := NewExportWorker(store, rec)

	exp := core.Expense{ID: "e1", Description: "Jantar", Amount: "80", Category: core.Food, Date: core.NewDate(2025, 6, 2)}
	msg := amqp.NewEventMessage(tracker.Event{Type: tracker.ExpenseCreated, Email: "ana@example.com", EntityID: "e1", Expense: &exp})

	require.NoError(t, w.HandleMessage(context.Background(), msg))
	rows := store.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "Jantar", rows[0][2])
	assert.Equal(t, 1, rec["expense.created:ok"])
}

func TestHandleIgnoresOtherEvents(t *testing.T) {
	store := memory.New()
	w := NewExportWorker(store, nil)

	for _, typ := range []tracker.EventType{tracker.TripCreated, tracker.TripDeleted, tracker.ExpenseDeleted, tracker.ProfileSaved} {
		require.NoError(t, w.Handle(context.Background(), tracker.Event{Type: typ, Email: "ana@example.com"}))
	}
	require.NoError(t, w.Handle(context.Background(), tracker.Event{Type: tracker.ExpenseCreated, Email: "ana@example.com"}))
	assert.Empty(t, store.Rows())
}

func TestHandleExportFailureIsReturned(t *testing.T) {
	rec := outcomes{}
	w := NewExportWorker(failingExporter{}, rec)
	exp := core.Expense{ID: "e1"}
	msg := amqp.NewEventMessage(tracker.Event{Type: tracker.ExpenseCreated, Email: "ana@example.com", Expense: &exp})

	err := w.HandleMessage(context.Background(), msg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Equal(t, 1, rec["expense.created:error"])
}
