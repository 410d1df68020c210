package order_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/k1networth/techdesk/internal/order"
)

var orderCols = []string{"id", "title", "description", "status", "service_date", "attachment", "created_at", "updated_at"}

func newMockStore(t *testing.T) (*order.PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return order.NewPostgresStore(db), mock
}

func TestPostgresStoreCreateWritesOutbox(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	day := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO orders").
		WithArgs("ord-1", "Site", "Landing page", "Aberto", "2026-10-20", sqlmock.AnyArg(), now, now).
		WillReturnRows(sqlmock.NewRows(orderCols).
			AddRow("ord-1", "Site", "Landing page", "Aberto", day, []byte(`{"name":"brief.pdf"}`), now, now))
	mock.ExpectExec("INSERT INTO outbox").
		WithArgs(sqlmock.AnyArg(), "order", "ord-1", "order.created", "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	got, err := s.Create(context.Background(), order.Order{
		ID: "ord-1", Title: "Site", Description: "Landing page", Status: order.StatusOpen,
		Date: "2026-10-20", Attachment: &order.Attachment{Name: "brief.pdf"}, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	assert.Equal(t, "2026-10-20", got.Date)
	require.NotNil(t, got.Attachment)
	assert.Equal(t, "brief.pdf", got.Attachment.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreGetNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM orders WHERE id").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, order.ErrNotFound)
}

func TestPostgresStoreAdvance(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()
	day := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs("ord-2").
		WillReturnRows(sqlmock.NewRows(orderCols).AddRow("ord-2", "T", "D", "Em Andamento", day, nil, now, now))
	mock.ExpectQuery("UPDATE orders SET status").
		WithArgs("ord-2", "Finalizado", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(orderCols).AddRow("ord-2", "T", "D", "Finalizado", day, nil, now, now))
	mock.ExpectExec("INSERT INTO outbox").
		WithArgs(sqlmock.AnyArg(), "order", "ord-2", "order.status_changed", "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	got, prev, err := s.UpdateStatus(context.Background(), "ord-2", order.AdvanceTransition)
	require.NoError(t, err)
	assert.Equal(t, order.StatusInProgress, prev)
	assert.Equal(t, order.StatusDone, got.Status)
	assert.Nil(t, got.Attachment)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreAdvanceCanceledRollsBack(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs("ord-3").
		WillReturnRows(sqlmock.NewRows(orderCols).AddRow("ord-3", "T", "D", "Cancelado", now, nil, now, now))
	mock.ExpectRollback()

	got, prev, err := s.UpdateStatus(context.Background(), "ord-3", order.AdvanceTransition)
	assert.ErrorIs(t, err, order.ErrCanceled)
	assert.Equal(t, order.StatusCanceled, prev)
	assert.Equal(t, order.StatusCanceled, got.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreDeleteMissing(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM orders").WithArgs("nope").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	assert.ErrorIs(t, s.Delete(context.Background(), "nope"), order.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
