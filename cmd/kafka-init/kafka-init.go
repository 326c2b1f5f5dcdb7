package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	config "github.com/NordCoder/latency-agent/internal/config/status-agent"
	kafkaRepo "github.com/NordCoder/latency-agent/internal/repository/kafka"
	"go.uber.org/zap"
)

// kafka-init creates the status-change topic before the agent starts
// publishing. Brokers and topic come from the agent config unless
// KAFKA_BROKER / KAFKA_TOPICS override them.
func main() {
	cfgPath := flag.String("config", "config/status-agent.yaml", "path to the yaml config")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	brokers := cfg.Kafka.Brokers
	if b := os.Getenv("KAFKA_BROKER"); b != "" {
		brokers = strings.Split(b, ",")
	}
	topics := []string{cfg.Kafka.Topic}
	if t := os.Getenv("KAFKA_TOPICS"); t != "" {
		topics = strings.Split(t, ",")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	for _, t := range topics {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		err := kafkaRepo.EnsureTopic(ctx, brokers, kafkaRepo.TopicSpec{
			Name:              t,
			NumPartitions:     envInt("KAFKA_PARTITIONS", 1),
			ReplicationFactor: envInt("KAFKA_RF", 1),
			MaxWait:           30 * time.Second,
		}, logger)
		if err != nil {
			logger.Fatal("ensure topic", zap.String("topic", t), zap.Error(err))
		}
	}
	logger.Info("kafka-init ok")
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, _ := strconv.Atoi(v); n > 0 {
			return n
		}
	}
	return def
}
