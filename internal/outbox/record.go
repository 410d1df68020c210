package outbox

import (
	"encoding/json"
	"time"
)

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusSent       = "sent"
)

// Event is one outbox row.
type Event struct {
	ID          int64
	EventID     string
	Aggregate   string
	AggregateID string
	EventType   string
	RequestID   string
	Payload     json.RawMessage
	CreatedAt   time.Time
	Attempts    int
}

// NextRetry returns the delay before attempt n+1: 1s doubled per attempt, capped at limit (0 means uncapped).
func NextRetry(attempts int, limit time.Duration) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	d := time.Second
	for i := 1; i < attempts; i++ {
		d *= 2
		if limit > 0 && d >= limit {
			return limit
		}
	}
	if limit > 0 && d > limit {
		return limit
	}
	return d
}
