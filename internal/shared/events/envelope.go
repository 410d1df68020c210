package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	AggregateOrder   = "order"
	AggregateProfile = "profile"

	OrderCreated       = "order.created"
	OrderStatusChanged = "order.status_changed"
	OrderDeleted       = "order.deleted"
	ProfileUpdated     = "profile.updated"
)

type Envelope struct {
	EventID     string          `json:"event_id"`
	EventType   string          `json:"event_type"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Aggregate   string          `json:"aggregate"`
	AggregateID string          `json:"aggregate_id"`
	RequestID   string          `json:"request_id,omitempty"`
	Payload     json.RawMessage `json:"payload"`
}

// New builds an envelope with a fresh event id and the payload marshalled to JSON.
func New(eventType, aggregate, aggregateID string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:     uuid.NewString(),
		EventType:   eventType,
		OccurredAt:  time.Now().UTC(),
		Aggregate:   aggregate,
		AggregateID: aggregateID,
		Payload:     raw,
	}, nil
}

type StatusChanged struct {
	From string `json:"from"`
	To   string `json:"to"`
}
