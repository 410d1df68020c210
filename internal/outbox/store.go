package outbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/k1networth/techdesk/internal/shared/events"
)

// ErrNotClaimed is returned when a row is released after it already left the
// processing state (requeued by ResetStuck or released by another relay).
var ErrNotClaimed = errors.New("outbox row not claimed")

// Execer is satisfied by *sql.DB and *sql.Tx, so events can be enqueued inside
// the transaction that produced them.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Enqueue inserts env as a pending outbox row.
func Enqueue(ctx context.Context, ex Execer, env events.Envelope) error {
	const q = `
INSERT INTO outbox (event_id, aggregate, aggregate_id, event_type, request_id, payload, status, created_at, next_retry_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8, $8);
`
	_, err := ex.ExecContext(ctx, q,
		env.EventID, env.Aggregate, env.AggregateID, env.EventType, env.RequestID, []byte(env.Payload), StatusPending, env.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", env.EventType, err)
	}
	return nil
}

// Store is the relay side of the outbox table.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) *Store { return &Store{db: db, now: time.Now} }

// ResetStuck returns rows that sat in processing longer than processingTimeout to pending.
func (s *Store) ResetStuck(ctx context.Context, processingTimeout time.Duration) (int64, error) {
	if processingTimeout <= 0 {
		processingTimeout = 30 * time.Second
	}
	const q = `
UPDATE outbox
SET status = $1,
    processing_started_at = NULL,
    next_retry_at = now(),
    last_error = 'processing timeout',
    updated_at = now()
WHERE status = $2
  AND processing_started_at < $3;
`
	cutoff := s.now().UTC().Add(-processingTimeout)
	res, err := s.db.ExecContext(ctx, q, StatusPending, StatusProcessing, cutoff)
	if err != nil {
		return 0, fmt.Errorf("reset stuck: %w", err)
	}
	return res.RowsAffected()
}

// ClaimPending moves up to batchSize due rows to processing, oldest first.
// Rows locked by a concurrent relay are skipped.
func (s *Store) ClaimPending(ctx context.Context, batchSize int) ([]Event, error) {
	if batchSize <= 0 {
		batchSize = 50
	}

	const q = `
WITH due AS (
  SELECT id
  FROM outbox
  WHERE status = 'pending'
    AND next_retry_at <= now()
  ORDER BY created_at
  LIMIT $1
  FOR UPDATE SKIP LOCKED
)
UPDATE outbox o
SET status = 'processing',
    processing_started_at = now(),
    attempts = o.attempts + 1,
    updated_at = now()
FROM due
WHERE o.id = due.id
RETURNING o.id, o.event_id, o.aggregate, o.aggregate_id, o.event_type, o.request_id, o.payload, o.created_at, o.attempts;
`

	rows, err := s.db.QueryContext(ctx, q, batchSize)
	if err != nil {
		return nil, fmt.Errorf("claim pending: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var claimed []Event
	for rows.Next() {
		var (
			e       Event
			payload []byte
		)
		if err := rows.Scan(&e.ID, &e.EventID, &e.Aggregate, &e.AggregateID, &e.EventType, &e.RequestID, &payload, &e.CreatedAt, &e.Attempts); err != nil {
			return nil, fmt.Errorf("claim pending: scan: %w", err)
		}
		e.Payload = payload
		claimed = append(claimed, e)
	}
	return claimed, rows.Err()
}

func (s *Store) MarkSent(ctx context.Context, id int64) error {
	const q = `
UPDATE outbox
SET status = $2,
    sent_at = now(),
    processing_started_at = NULL,
    last_error = NULL,
    updated_at = now()
WHERE id = $1 AND status = $3;
`
	return s.release(ctx, q, id, StatusSent, StatusProcessing)
}

// MarkFailed puts a claimed row back to pending, due again at nextRetryAt.
func (s *Store) MarkFailed(ctx context.Context, id int64, nextRetryAt time.Time, errMsg string) error {
	const q = `
UPDATE outbox
SET status = $2,
    processing_started_at = NULL,
    next_retry_at = $4,
    last_error = $5,
    updated_at = now()
WHERE id = $1 AND status = $3;
`
	return s.release(ctx, q, id, StatusPending, StatusProcessing, nextRetryAt, errMsg)
}

func (s *Store) release(ctx context.Context, q string, id int64, args ...any) error {
	res, err := s.db.ExecContext(ctx, q, append([]any{id}, args...)...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("outbox row %d: %w", id, ErrNotClaimed)
	}
	return nil
}

// LagSeconds is the age of the oldest pending row, 0 when there is none.
func (s *Store) LagSeconds(ctx context.Context) (float64, error) {
	const q = `SELECT EXTRACT(EPOCH FROM (now() - MIN(created_at))) FROM outbox WHERE status = 'pending';`

	var lag sql.NullFloat64
	if err := s.db.QueryRowContext(ctx, q).Scan(&lag); err != nil {
		return 0, err
	}
	return lag.Float64, nil
}

// Envelope converts a claimed row back into the wire envelope.
func (e Event) Envelope() events.Envelope {
	return events.Envelope{
		EventID:     e.EventID,
		EventType:   e.EventType,
		OccurredAt:  e.CreatedAt,
		Aggregate:   e.Aggregate,
		AggregateID: e.AggregateID,
		RequestID:   e.RequestID,
		Payload:     e.Payload,
	}
}
