package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/NordCoder/latency-agent/internal/domain/settings"
	"github.com/NordCoder/latency-agent/migrations"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

var _ settings.Repo = (*SettingsRepo)(nil)

// SettingsRepo is the single-node settings backend. It owns its database file
// and migrates it on open.
type SettingsRepo struct {
	db  *sql.DB
	now func() time.Time
}

func New(ctx context.Context, path string) (*SettingsRepo, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &SettingsRepo{db: db, now: time.Now}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	p, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.SQLite())
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	if _, err := p.Up(ctx); err != nil {
		return fmt.Errorf("migrate sqlite: %w", err)
	}
	return nil
}

func (r *SettingsRepo) Close() error { return r.db.Close() }

func (r *SettingsRepo) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }

const (
	qGet = `
SELECT api_key, monitor_id, auto_created, show_badge, updated_at
FROM agent_settings WHERE id = 1`

	qSetKey = `
INSERT INTO agent_settings (id, api_key, updated_at) VALUES (1, ?, ?)
ON CONFLICT(id) DO UPDATE SET api_key = excluded.api_key, updated_at = excluded.updated_at`

	qSetBadge = `
INSERT INTO agent_settings (id, show_badge, updated_at) VALUES (1, ?, ?)
ON CONFLICT(id) DO UPDATE SET show_badge = excluded.show_badge, updated_at = excluded.updated_at`

	qSetMonitor = `
INSERT INTO agent_settings (id, monitor_id, auto_created, updated_at) VALUES (1, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	monitor_id = excluded.monitor_id,
	auto_created = excluded.auto_created,
	updated_at = excluded.updated_at`

	qClearMonitor = `
UPDATE agent_settings SET monitor_id = 0, auto_created = 0, updated_at = ? WHERE id = 1`

	qDelete = `DELETE FROM agent_settings`
)

func (r *SettingsRepo) Get(ctx context.Context) (*settings.Settings, error) {
	var (
		s         settings.Settings
		updatedAt string
	)
	err := r.db.QueryRowContext(ctx, qGet).
		Scan(&s.APIKey, &s.MonitorID, &s.AutoCreated, &s.ShowBadge, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return &settings.Settings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	s.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &s, nil
}

func (r *SettingsRepo) stamp() string { return r.now().UTC().Format(time.RFC3339Nano) }

func (r *SettingsRepo) SetAPIKey(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, qSetKey, key, r.stamp()); err != nil {
		return fmt.Errorf("set api key: %w", err)
	}
	return nil
}

func (r *SettingsRepo) SetShowBadge(ctx context.Context, show bool) error {
	if _, err := r.db.ExecContext(ctx, qSetBadge, show, r.stamp()); err != nil {
		return fmt.Errorf("set show badge: %w", err)
	}
	return nil
}

func (r *SettingsRepo) SetMonitor(ctx context.Context, id int64, autoCreated bool) error {
	if _, err := r.db.ExecContext(ctx, qSetMonitor, id, autoCreated, r.stamp()); err != nil {
		return fmt.Errorf("set monitor: %w", err)
	}
	return nil
}

func (r *SettingsRepo) ClearMonitor(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, qClearMonitor, r.stamp()); err != nil {
		return fmt.Errorf("clear monitor: %w", err)
	}
	return nil
}

func (r *SettingsRepo) Delete(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, qDelete); err != nil {
		return fmt.Errorf("delete settings: %w", err)
	}
	return nil
}
