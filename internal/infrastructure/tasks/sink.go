package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/DanielPopoola/jmw-payments/internal/application"
	"github.com/DanielPopoola/jmw-payments/internal/config"
	"github.com/DanielPopoola/jmw-payments/internal/infrastructure/documents"
	"github.com/DanielPopoola/jmw-payments/internal/infrastructure/mailer"
)

// Sink is the task sink a process publishes to, plus the hook that flushes
// it on the way out.
type Sink struct {
	application.TaskSink
	shutdown func(ctx context.Context) error
}

func (s *Sink) Shutdown(ctx context.Context) error {
	return s.shutdown(ctx)
}

// NewSink builds the sink selected by tasks.backend. The memory backend
// runs tasks in-process until ctx is cancelled; the kafka backend hands
// them to the notifier.
func NewSink(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Sink, error) {
	switch cfg.Tasks.Backend {
	case "kafka":
		producer, err := NewSyncProducer(cfg.Kafka)
		if err != nil {
			return nil, err
		}
		sink := NewKafkaSink(producer, cfg.Kafka.Topic, logger)
		logger.Info("publishing tasks to kafka", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
		return &Sink{
			TaskSink: sink,
			shutdown: func(context.Context) error { return sink.Close() },
		}, nil
	case "memory", "":
		executor := NewExecutor(
			documents.NewRenderer(cfg.Company),
			mailer.NewSender(cfg.SMTP, logger),
			cfg.Company,
			logger,
		)
		pool := NewPool(executor, cfg.Tasks.Workers, cfg.Tasks.QueueSize, logger)
		pool.Start(ctx)
		return &Sink{TaskSink: pool, shutdown: pool.Shutdown}, nil
	default:
		return nil, fmt.Errorf("unknown task backend %q", cfg.Tasks.Backend)
	}
}
