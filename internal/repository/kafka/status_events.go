package kafka

import (
	"context"

	"github.com/NordCoder/latency-agent/internal/domain/kafka"
	"github.com/NordCoder/latency-agent/internal/obs/retry"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
)

type publisher interface {
	PublishJSON(ctx context.Context, key []byte, v any) error
}

type StatusEventsKafka struct {
	p      publisher
	policy retry.Policy
}

func NewStatusEventsKafka(p *Producer, log *zap.Logger) *StatusEventsKafka {
	return &StatusEventsKafka{p: p, policy: retry.StatusEventPolicy(log)}
}

var _ kafka.StatusEvents = (*StatusEventsKafka)(nil)

// PublishStatusChanged assigns an event id when missing and retries the
// write; the same id is reused across attempts so consumers can dedupe.
func (e *StatusEventsKafka) PublishStatusChanged(ctx context.Context, ev kafka.StatusChanged) error {
	if ev.EventID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		ev.EventID = id.String()
	}
	return retry.Do(ctx, func() error {
		return e.p.PublishJSON(ctx, KeyFromInt64(ev.MonitorID), ev)
	}, e.policy)
}

// NoopStatusEvents drops events; used when kafka is disabled.
type NoopStatusEvents struct{}

var _ kafka.StatusEvents = NoopStatusEvents{}

func (NoopStatusEvents) PublishStatusChanged(context.Context, kafka.StatusChanged) error { return nil }
