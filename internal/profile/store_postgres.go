package profile

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/k1networth/techdesk/internal/outbox"
	"github.com/k1networth/techdesk/internal/shared/events"
	"github.com/k1networth/techdesk/internal/shared/requestid"
)

// PostgresStore keeps profiles in users and flags in user_settings. A user
// without a settings row has DefaultSettings.
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

const profileColumns = `id, name, email, phone, address, updated_at`

func scanProfile(row *sql.Row) (Profile, error) {
	var p Profile
	if err := row.Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.Address, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, err
	}
	return p, nil
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (Profile, error) {
	return scanProfile(s.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM users WHERE id = $1;`, id))
}

func (s *PostgresStore) Update(ctx context.Context, id int64, req UpdateRequest) (Profile, error) {
	q := `
UPDATE users SET name = $2, email = $3, phone = $4, address = $5, updated_at = $6
WHERE id = $1
RETURNING ` + profileColumns + `;
`
	var out Profile
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		out, err = scanProfile(tx.QueryRowContext(ctx, q,
			id, req.Name, req.Email, req.Phone, req.Address, s.now().UTC(),
		))
		if err != nil {
			return err
		}

		env, err := events.New(events.ProfileUpdated, events.AggregateProfile, strconv.FormatInt(id, 10), out)
		if err != nil {
			return err
		}
		env.RequestID = requestid.Get(ctx)
		return outbox.Enqueue(ctx, tx, env)
	})
	if err != nil {
		return Profile{}, err
	}
	return out, nil
}

const settingsQuery = `
SELECT s.notifications_enabled, s.dark_mode_enabled
FROM users u LEFT JOIN user_settings s ON s.user_id = u.id
WHERE u.id = $1`

func scanSettings(row *sql.Row) (Settings, error) {
	var notifications, darkMode sql.NullBool
	if err := row.Scan(&notifications, &darkMode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Settings{}, ErrNotFound
		}
		return Settings{}, err
	}
	out := DefaultSettings()
	if notifications.Valid {
		out.NotificationsEnabled = notifications.Bool
	}
	if darkMode.Valid {
		out.DarkModeEnabled = darkMode.Bool
	}
	return out, nil
}

func (s *PostgresStore) GetSettings(ctx context.Context, id int64) (Settings, error) {
	return scanSettings(s.db.QueryRowContext(ctx, settingsQuery+`;`, id))
}

func (s *PostgresStore) UpdateSettings(ctx context.Context, id int64, patch SettingsPatch) (Settings, error) {
	var out Settings
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		cur, err := scanSettings(tx.QueryRowContext(ctx, settingsQuery+` FOR UPDATE OF u;`, id))
		if err != nil {
			return err
		}
		out = patch.Apply(cur)

		_, err = tx.ExecContext(ctx, `
INSERT INTO user_settings (user_id, notifications_enabled, dark_mode_enabled, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id) DO UPDATE
SET notifications_enabled = EXCLUDED.notifications_enabled,
    dark_mode_enabled = EXCLUDED.dark_mode_enabled,
    updated_at = EXCLUDED.updated_at;
`, id, out.NotificationsEnabled, out.DarkModeEnabled, s.now().UTC())
		return err
	})
	if err != nil {
		return Settings{}, err
	}
	return out, nil
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
