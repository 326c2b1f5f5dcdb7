package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// BootstrapProducer makes a best effort to create the topic before returning
// the writer. Brokers with auto-create enabled work either way.
func BootstrapProducer(ctx context.Context, brokers []string, topic string, logger *zap.Logger) *Producer {
	if err := EnsureTopic(ctx, brokers, TopicSpec{
		Name:              topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
		MaxWait:           5 * time.Second,
	}, logger); err != nil {
		logger.Warn("ensure topic failed, relying on broker auto-create", zap.String("topic", topic), zap.Error(err))
	}

	return NewProducer(brokers, topic).WithLogger(logger)
}
