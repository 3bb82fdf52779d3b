package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"viajjo/internal/core"
	"viajjo/internal/tracker"
)

// messageVersion is bumped when the EventMessage layout changes.
const messageVersion = 1

// EventMessage is the wire form of a tracker.Event.
type EventMessage struct {
	Version    int               `json:"version"`
	Type       tracker.EventType `json:"type"`
	Email      string            `json:"email"`
	EntityID   string            `json:"entity_id,omitempty"`
	Trip       *core.Trip        `json:"trip,omitempty"`
	Expense    *core.Expense     `json:"expense,omitempty"`
	Profile    *core.Profile     `json:"profile,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

func NewEventMessage(ev tracker.Event) *EventMessage {
	return &EventMessage{
		Version:    messageVersion,
		Type:       ev.Type,
		Email:      ev.Email,
		EntityID:   ev.EntityID,
		Trip:       ev.Trip,
		Expense:    ev.Expense,
		Profile:    ev.Profile,
		OccurredAt: ev.OccurredAt,
	}
}

// Event converts the message back to a domain event.
func (m *EventMessage) Event() tracker.Event {
	return tracker.Event{
		Type:       m.Type,
		Email:      m.Email,
		EntityID:   m.EntityID,
		Trip:       m.Trip,
		Expense:    m.Expense,
		Profile:    m.Profile,
		OccurredAt: m.OccurredAt,
	}
}

// ToJSON converts the message to JSON bytes
func (m *EventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EventMessageFromJSON decodes a message and rejects unknown versions and
// messages without a type or email.
func EventMessageFromJSON(data []byte) (*EventMessage, error) {
	var msg EventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Version != messageVersion {
		return nil, fmt.Errorf("unsupported message version %d", msg.Version)
	}
	if msg.Type == "" || msg.Email == "" {
		return nil, fmt.Errorf("message is missing type or email")
	}
	return &msg, nil
}
