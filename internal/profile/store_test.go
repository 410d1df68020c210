package profile_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/k1networth/techdesk/internal/profile"
)

func seeded() *profile.InMemoryStore {
	return profile.NewInMemoryStore(profile.Profile{ID: 1, Name: "Cauã Sousa", Email: "sousa@gmail.com"})
}

func TestInMemoryStoreProfile(t *testing.T) {
	s := seeded()
	ctx := context.Background()

	p, err := s.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Cauã Sousa", p.Name)

	_, err = s.Get(ctx, 2)
	assert.ErrorIs(t, err, profile.ErrNotFound)

	upd, err := s.Update(ctx, 1, profile.UpdateRequest{Name: "Cauã", Email: "c@x.io", Phone: "11 9999", Address: "Rua A"})
	require.NoError(t, err)
	assert.Equal(t, "11 9999", upd.Phone)
	assert.False(t, upd.UpdatedAt.IsZero())

	got, err := s.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, upd, got)

	_, err = s.Update(ctx, 7, profile.UpdateRequest{Name: "Xx", Email: "x@x.io"})
	assert.ErrorIs(t, err, profile.ErrNotFound)
}

func TestInMemoryStoreSettings(t *testing.T) {
	s := seeded()
	ctx := context.Background()

	got, err := s.GetSettings(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, profile.DefaultSettings(), got)

	dark := true
	got, err = s.UpdateSettings(ctx, 1, profile.SettingsPatch{DarkModeEnabled: &dark})
	require.NoError(t, err)
	assert.True(t, got.DarkModeEnabled)
	assert.True(t, got.NotificationsEnabled)

	_, err = s.GetSettings(ctx, 9)
	assert.ErrorIs(t, err, profile.ErrNotFound)
	_, err = s.UpdateSettings(ctx, 9, profile.SettingsPatch{})
	assert.ErrorIs(t, err, profile.ErrNotFound)
}

var profileCols = []string{"id", "name", "email", "phone", "address", "updated_at"}

func newMockStore(t *testing.T) (*profile.PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return profile.NewPostgresStore(db), mock
}

func TestPostgresStoreUpdateWritesOutbox(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE users SET").
		WithArgs(int64(1), "Ana", "ana@x.io", "", "", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(profileCols).AddRow(int64(1), "Ana", "ana@x.io", "", "", now))
	mock.ExpectExec("INSERT INTO outbox").
		WithArgs(sqlmock.AnyArg(), "profile", "1", "profile.updated", "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	p, err := s.Update(context.Background(), 1, profile.UpdateRequest{Name: "Ana", Email: "ana@x.io"})
	require.NoError(t, err)
	assert.Equal(t, "Ana", p.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreUpdateMissingRollsBack(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE users SET").WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := s.Update(context.Background(), 5, profile.UpdateRequest{Name: "Ana", Email: "ana@x.io"})
	assert.ErrorIs(t, err, profile.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreSettingsDefaultWhenNoRow(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("FROM users u LEFT JOIN user_settings").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"notifications_enabled", "dark_mode_enabled"}).AddRow(nil, nil))

	got, err := s.GetSettings(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, profile.DefaultSettings(), got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreUpdateSettingsUpserts(t *testing.T) {
	s, mock := newMockStore(t)
	off := false

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE OF u").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"notifications_enabled", "dark_mode_enabled"}).AddRow(true, true))
	mock.ExpectExec("INSERT INTO user_settings").
		WithArgs(int64(1), false, true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	got, err := s.UpdateSettings(context.Background(), 1, profile.SettingsPatch{NotificationsEnabled: &off})
	require.NoError(t, err)
	assert.Equal(t, profile.Settings{NotificationsEnabled: false, DarkModeEnabled: true}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}
