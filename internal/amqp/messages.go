package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"budget/internal/core"
)

// CategoryEventMessage is the wire form of a category event
type CategoryEventMessage struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	UserID     string    `json:"user_id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Icon       string    `json:"icon,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewCategoryEventMessage converts ev, assigning an id and timestamp when missing
func NewCategoryEventMessage(ev core.CategoryEvent) *CategoryEventMessage {
	msg := &CategoryEventMessage{
		ID:         ev.ID,
		Kind:       string(ev.Kind),
		UserID:     ev.Category.UserID,
		Name:       ev.Category.Name,
		Type:       ev.Category.Type.String(),
		Icon:       ev.Category.Icon,
		OccurredAt: ev.OccurredAt,
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.OccurredAt.IsZero() {
		msg.OccurredAt = time.Now().UTC()
	}
	return msg
}

func (m *CategoryEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ToEvent validates the message and converts it back to a domain event
func (m *CategoryEventMessage) ToEvent() (core.CategoryEvent, error) {
	if m.ID == "" {
		return core.CategoryEvent{}, fmt.Errorf("message without id")
	}
	kind := core.CategoryEventKind(m.Kind)
	if kind != core.CategoryCreated && kind != core.CategoryDeleted {
		return core.CategoryEvent{}, fmt.Errorf("unknown event kind %q", m.Kind)
	}
	t, err := core.ParseTransactionType(m.Type)
	if err != nil {
		return core.CategoryEvent{}, err
	}
	if m.UserID == "" || m.Name == "" {
		return core.CategoryEvent{}, fmt.Errorf("message %s: missing user or name", m.ID)
	}
	return core.CategoryEvent{
		ID:   m.ID,
		Kind: kind,
		Category: core.Category{
			UserID: m.UserID,
			Name:   m.Name,
			Icon:   m.Icon,
			Type:   t,
		},
		OccurredAt: m.OccurredAt,
	}, nil
}

func CategoryEventMessageFromJSON(data []byte) (*CategoryEventMessage, error) {
	var msg CategoryEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
