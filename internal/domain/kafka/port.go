package kafka

import (
	"context"
	"time"
)

type StatusChanged struct {
	EventID   string    `json:"event_id"`
	MonitorID int64     `json:"monitor_id"`
	Old       bool      `json:"old"`
	New       bool      `json:"new"`
	LatencyMS float64   `json:"latency_ms"`
	At        time.Time `json:"at"`
}

type StatusEvents interface {
	PublishStatusChanged(ctx context.Context, ev StatusChanged) error
}
