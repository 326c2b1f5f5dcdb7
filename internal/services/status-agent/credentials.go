package status_agent

import (
	"context"

	"github.com/NordCoder/latency-agent/internal/domain/settings"
	"github.com/NordCoder/latency-agent/internal/remote"
)

var _ remote.CredentialSource = SettingsCredentials{}

// SettingsCredentials reads the api key from the settings store on every
// request, so a key saved through the API applies immediately.
type SettingsCredentials struct {
	Repo settings.Repo
}

func (c SettingsCredentials) APIKey(ctx context.Context) (string, error) {
	st, err := c.Repo.Get(ctx)
	if err != nil {
		return "", err
	}
	return st.APIKey, nil
}
