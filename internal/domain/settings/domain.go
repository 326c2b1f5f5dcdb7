package settings

import "time"

type Settings struct {
	APIKey      string    `json:"-"`
	MonitorID   int64     `json:"monitor_id"`
	AutoCreated bool      `json:"auto_created"`
	ShowBadge   bool      `json:"show_badge"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (s *Settings) HasAPIKey() bool  { return s != nil && s.APIKey != "" }
func (s *Settings) HasMonitor() bool { return s != nil && s.MonitorID > 0 }

// Configured reports whether both a credential and a monitor are present.
func (s *Settings) Configured() bool { return s.HasAPIKey() && s.HasMonitor() }
