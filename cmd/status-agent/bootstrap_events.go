package main

import (
	"context"

	config "github.com/NordCoder/latency-agent/internal/config/status-agent"
	domkafka "github.com/NordCoder/latency-agent/internal/domain/kafka"
	kafkaRepo "github.com/NordCoder/latency-agent/internal/repository/kafka"
	"go.uber.org/zap"
)

func initEvents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (domkafka.StatusEvents, func()) {
	if !cfg.Kafka.Enable {
		return kafkaRepo.NoopStatusEvents{}, func() {}
	}
	prod := kafkaRepo.BootstrapProducer(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
	logger.Info("status events enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	return kafkaRepo.NewStatusEventsKafka(prod, logger), func() { _ = prod.Close() }
}
