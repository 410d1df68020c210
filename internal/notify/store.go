package notify

import (
	"context"
	"database/sql"

	"github.com/k1networth/techdesk/internal/shared/events"
)

const (
	statusProcessing = "processing"
	statusDone       = "done"
)

// Store records consumed events in processed_events so redeliveries are skipped.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Begin claims env for processing. It returns false when the event was already
// handled; otherwise the attempt counter is bumped.
func (s *Store) Begin(ctx context.Context, env events.Envelope) (bool, error) {
	const q = `
INSERT INTO processed_events (event_id, event_type, aggregate, aggregate_id, payload, status, attempts, updated_at)
VALUES ($1, $2, $3, $4, $5, 'processing', 1, now())
ON CONFLICT (event_id) DO UPDATE
SET attempts = processed_events.attempts + 1,
    updated_at = now()
RETURNING status;
`
	var status string
	err := s.db.QueryRowContext(ctx, q,
		env.EventID, env.EventType, env.Aggregate, env.AggregateID, []byte(env.Payload),
	).Scan(&status)
	if err != nil {
		return false, err
	}
	return status != statusDone, nil
}

func (s *Store) Done(ctx context.Context, eventID string) error {
	const q = `
UPDATE processed_events
SET status = 'done', processed_at = now(), last_error = NULL, updated_at = now()
WHERE event_id = $1;
`
	_, err := s.db.ExecContext(ctx, q, eventID)
	return err
}

// Failed keeps the row in processing so the next delivery retries it.
func (s *Store) Failed(ctx context.Context, eventID, errMsg string) error {
	const q = `
UPDATE processed_events
SET status = 'processing', last_error = $2, updated_at = now()
WHERE event_id = $1;
`
	_, err := s.db.ExecContext(ctx, q, eventID, errMsg)
	return err
}
