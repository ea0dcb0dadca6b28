package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/DanielPopoola/jmw-payments/internal/application"
	"github.com/DanielPopoola/jmw-payments/internal/config"
	"github.com/DanielPopoola/jmw-payments/internal/metrics"
	"github.com/IBM/sarama"
)

const (
	headerTaskKind = "task-kind"
	headerTaskID   = "task-id"
)

func NewSyncProducer(cfg config.KafkaConfig) (sarama.SyncProducer, error) {
	sc := sarama.NewConfig()
	sc.Producer.Return.Successes = true
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Retry.Max = 5
	sc.Producer.Idempotent = true
	sc.Net.MaxOpenRequests = 1
	sc.Version = sarama.V2_8_0_0

	producer, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	return producer, nil
}

// KafkaSink publishes tasks for the notifier. Messages are keyed by
// reference so every task for one payment lands on one partition.
type KafkaSink struct {
	producer sarama.SyncProducer
	topic    string
	logger   *slog.Logger
}

func NewKafkaSink(producer sarama.SyncProducer, topic string, logger *slog.Logger) *KafkaSink {
	return &KafkaSink{producer: producer, topic: topic, logger: logger}
}

func (s *KafkaSink) Enqueue(_ context.Context, task application.Task) error {
	err := s.publish(task)
	metrics.RecordTaskEnqueued("kafka", string(task.Kind), err)
	return err
}

func (s *KafkaSink) publish(task application.Task) error {
	value, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(task.Reference),
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte(headerTaskKind), Value: []byte(task.Kind)},
			{Key: []byte(headerTaskID), Value: []byte(task.ID)},
		},
	}

	partition, offset, err := s.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send task %s: %w", task.ID, err)
	}

	s.logger.Debug("task published",
		"task_id", task.ID,
		"topic", s.topic,
		"partition", partition,
		"offset", offset)
	return nil
}

func (s *KafkaSink) Close() error {
	return s.producer.Close()
}
