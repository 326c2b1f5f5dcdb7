package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/NordCoder/latency-agent/internal/domain/settings"
	"github.com/jackc/pgx/v5"
)

var _ settings.Repo = (*SettingsRepo)(nil)

// SettingsRepo keeps the installation's settings in a single-row table.
type SettingsRepo struct {
	db *DB
}

func NewSettingsRepo(db *DB) *SettingsRepo { return &SettingsRepo{db: db} }

const (
	qSettingsGet = `
SELECT api_key, monitor_id, auto_created, show_badge, updated_at
FROM agent_settings
WHERE id = 1;`

	qSettingsSetKey = `
INSERT INTO agent_settings (id, api_key) VALUES (1, $1)
ON CONFLICT (id) DO UPDATE SET api_key = EXCLUDED.api_key, updated_at = NOW();`

	qSettingsSetBadge = `
INSERT INTO agent_settings (id, show_badge) VALUES (1, $1)
ON CONFLICT (id) DO UPDATE SET show_badge = EXCLUDED.show_badge, updated_at = NOW();`

	qSettingsSetMonitor = `
INSERT INTO agent_settings (id, monitor_id, auto_created) VALUES (1, $1, $2)
ON CONFLICT (id) DO UPDATE
SET monitor_id   = EXCLUDED.monitor_id,
    auto_created = EXCLUDED.auto_created,
    updated_at   = NOW();`

	qSettingsClearMonitor = `
UPDATE agent_settings
SET monitor_id = 0, auto_created = FALSE, updated_at = NOW()
WHERE id = 1;`

	qSettingsDelete = `DELETE FROM agent_settings;`
)

func (r *SettingsRepo) Get(ctx context.Context) (*settings.Settings, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var s settings.Settings
	err := r.db.pool.QueryRow(ctx, qSettingsGet).
		Scan(&s.APIKey, &s.MonitorID, &s.AutoCreated, &s.ShowBadge, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return &settings.Settings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return &s, nil
}

func (r *SettingsRepo) exec(ctx context.Context, what, q string, args ...any) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.pool.Exec(ctx, q, args...); err != nil {
		if isUndefinedTable(err) {
			return fmt.Errorf("%s: schema missing, run the migrator: %w", what, err)
		}
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}

func (r *SettingsRepo) SetAPIKey(ctx context.Context, key string) error {
	return r.exec(ctx, "set api key", qSettingsSetKey, key)
}

func (r *SettingsRepo) SetShowBadge(ctx context.Context, show bool) error {
	return r.exec(ctx, "set show badge", qSettingsSetBadge, show)
}

func (r *SettingsRepo) SetMonitor(ctx context.Context, id int64, autoCreated bool) error {
	return r.exec(ctx, "set monitor", qSettingsSetMonitor, id, autoCreated)
}

func (r *SettingsRepo) ClearMonitor(ctx context.Context) error {
	return r.exec(ctx, "clear monitor", qSettingsClearMonitor)
}

func (r *SettingsRepo) Delete(ctx context.Context) error {
	return r.exec(ctx, "delete settings", qSettingsDelete)
}
