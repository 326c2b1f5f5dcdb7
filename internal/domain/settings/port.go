package settings

import "context"

// Repo persists the single installation's settings. Get on an empty store
// returns zero Settings, not an error.
type Repo interface {
	Get(ctx context.Context) (*Settings, error)
	SetAPIKey(ctx context.Context, key string) error
	SetShowBadge(ctx context.Context, show bool) error
	SetMonitor(ctx context.Context, id int64, autoCreated bool) error
	ClearMonitor(ctx context.Context) error
	Delete(ctx context.Context) error
}
