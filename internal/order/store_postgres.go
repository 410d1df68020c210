package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/k1networth/techdesk/internal/outbox"
	"github.com/k1networth/techdesk/internal/shared/events"
	"github.com/k1networth/techdesk/internal/shared/requestid"
)

// PostgresStore persists orders and records every change in the outbox within
// the same transaction.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const orderColumns = `id, title, description, status, service_date, attachment, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (Order, error) {
	var (
		o          Order
		status     string
		date       time.Time
		attachment []byte
	)
	if err := row.Scan(&o.ID, &o.Title, &o.Description, &status, &date, &attachment, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return Order{}, err
	}
	o.Status = Status(status)
	o.Date = date.Format(DateLayout)
	if len(attachment) > 0 {
		var a Attachment
		if err := json.Unmarshal(attachment, &a); err != nil {
			return Order{}, fmt.Errorf("decode attachment: %w", err)
		}
		o.Attachment = &a
	}
	return o, nil
}

func encodeAttachment(a *Attachment) ([]byte, error) {
	if a == nil {
		return nil, nil
	}
	return json.Marshal(a)
}

func (s *PostgresStore) Create(ctx context.Context, o Order) (Order, error) {
	if o.ID == "" {
		o.ID = newID()
	}
	attachment, err := encodeAttachment(o.Attachment)
	if err != nil {
		return Order{}, err
	}

	q := `
INSERT INTO orders (id, title, description, status, service_date, attachment, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + orderColumns + `;
`
	var out Order
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		out, err = scanOrder(tx.QueryRowContext(ctx, q,
			o.ID, o.Title, o.Description, string(o.Status), o.Date, attachment, o.CreatedAt, o.UpdatedAt,
		))
		if err != nil {
			return err
		}
		return enqueue(ctx, tx, events.OrderCreated, out.ID, out)
	})
	if err != nil {
		return Order{}, err
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1;`

	o, err := scanOrder(s.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, err
	}
	return o, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC, id DESC;`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id string, next Transition) (Order, Status, error) {
	var (
		out  Order
		prev Status
	)
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		cur, err := scanOrder(tx.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE;`, id))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		out, prev = cur, cur.Status

		to, err := next(prev)
		if err != nil {
			return err
		}
		if to == prev {
			return nil
		}

		out, err = scanOrder(tx.QueryRowContext(ctx,
			`UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1 RETURNING `+orderColumns+`;`,
			id, string(to), time.Now().UTC(),
		))
		if err != nil {
			return err
		}
		return enqueue(ctx, tx, events.OrderStatusChanged, id, events.StatusChanged{From: string(prev), To: string(to)})
	})
	if err != nil && !errors.Is(err, ErrCanceled) {
		return Order{}, prev, err
	}
	return out, prev, err
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = $1;`, id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return enqueue(ctx, tx, events.OrderDeleted, id, map[string]string{"id": id})
	})
}

func (s *PostgresStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func enqueue(ctx context.Context, tx *sql.Tx, eventType, orderID string, payload any) error {
	env, err := events.New(eventType, events.AggregateOrder, orderID, payload)
	if err != nil {
		return err
	}
	env.RequestID = requestid.Get(ctx)
	return outbox.Enqueue(ctx, tx, env)
}
