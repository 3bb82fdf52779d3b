package tracker

import (
	"context"
	"time"

	"viajjo/internal/core"
)

// EventType names a domain event published after a mutation is persisted.
type EventType string

const (
	TripCreated    EventType = "trip.created"
	TripDeleted    EventType = "trip.deleted"
	ExpenseCreated EventType = "expense.created"
	ExpenseDeleted EventType = "expense.deleted"
	ProfileSaved   EventType = "profile.saved"
)

type Event struct {
	Type       EventType     `json:"type"`
	Email      string        `json:"email"`
	EntityID   string        `json:"entity_id,omitempty"`
	Trip       *core.Trip    `json:"trip,omitempty"`
	Expense    *core.Expense `json:"expense,omitempty"`
	Profile    *core.Profile `json:"profile,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// EventPublisher delivers events to interested consumers.
type EventPublisher interface {
	Publish(ctx context.Context, ev Event) error
}
