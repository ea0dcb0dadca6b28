package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/DanielPopoola/jmw-payments/internal/application"
	"github.com/DanielPopoola/jmw-payments/internal/config"
	"github.com/IBM/sarama"
)

const defaultRetryDelay = 5 * time.Second

func NewConsumerGroup(cfg config.KafkaConfig) (sarama.ConsumerGroup, error) {
	sc := sarama.NewConfig()
	sc.Version = sarama.V2_8_0_0
	sc.Consumer.Return.Errors = true
	sc.Consumer.Offsets.Initial = sarama.OffsetOldest
	sc.Consumer.Retry.Backoff = time.Second
	sc.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, sc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka consumer group: %w", err)
	}
	return group, nil
}

// Consumer executes tasks published by KafkaSink. It implements
// sarama.ConsumerGroupHandler.
type Consumer struct {
	group      sarama.ConsumerGroup
	topic      string
	handler    Handler
	claimer    Claimer
	retryDelay time.Duration
	logger     *slog.Logger
}

func NewConsumer(group sarama.ConsumerGroup, topic string, handler Handler, claimer Claimer, logger *slog.Logger) *Consumer {
	return &Consumer{
		group:      group,
		topic:      topic,
		handler:    handler,
		claimer:    claimer,
		retryDelay: defaultRetryDelay,
		logger:     logger,
	}
}

// WithRetryDelay sets the pause before a session ends on a failed task.
func (c *Consumer) WithRetryDelay(d time.Duration) *Consumer {
	c.retryDelay = d
	return c
}

// Run consumes until ctx is cancelled, rejoining the group after each
// rebalance.
func (c *Consumer) Run(ctx context.Context) error {
	go func() {
		for err := range c.group.Errors() {
			c.logger.Error("kafka consumer error", "error", err)
		}
	}()

	c.logger.Info("task consumer started", "topic", c.topic)
	for {
		if err := c.group.Consume(ctx, []string{c.topic}, c); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			return fmt.Errorf("consume %s: %w", c.topic, err)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (c *Consumer) Close() error {
	return c.group.Close()
}

func (c *Consumer) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (c *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if err := c.Handle(session.Context(), msg); err != nil {
				// Leave the offset unmarked and end the session; the group
				// resumes from the last committed offset and redelivers.
				select {
				case <-time.After(c.retryDelay):
				case <-session.Context().Done():
				}
				return err
			}
			session.MarkMessage(msg, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

// Handle executes one message. Poison messages and duplicates are logged and
// skipped. A failed task releases its claim and returns the error so the
// message is redelivered.
func (c *Consumer) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var task application.Task
	if err := json.Unmarshal(msg.Value, &task); err != nil {
		c.logger.Error("dropping undecodable task message",
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", err)
		return nil
	}
	if task.ID == "" {
		c.logger.Error("dropping task without id", "partition", msg.Partition, "offset", msg.Offset)
		return nil
	}

	claimed, err := c.claimer.Claim(ctx, task.ID)
	if err != nil {
		c.logger.Error("task dedupe unavailable, executing anyway", "task_id", task.ID, "error", err)
		claimed = true
	}
	if !claimed {
		c.logger.Info("skipping duplicate task", "task_id", task.ID, "kind", task.Kind)
		return nil
	}

	if err := c.handler.Execute(ctx, task); err != nil {
		c.logger.Error("task failed",
			"task_id", task.ID,
			"kind", task.Kind,
			"reference", task.Reference,
			"error", err)
		if relErr := c.claimer.Release(context.WithoutCancel(ctx), task.ID); relErr != nil {
			c.logger.Error("failed to release task claim", "task_id", task.ID, "error", relErr)
		}
		return fmt.Errorf("task %s (%s): %w", task.ID, task.Kind, err)
	}
	return nil
}
