package worker

import (
	"context"
	"encoding/json"
	"time"

	"catalogsync/internal/config"
	"catalogsync/internal/logger"
	"catalogsync/internal/worker/processors"

	"github.com/segmentio/kafka-go"
)

const consumerGroup = "catalogsync-worker"

type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Worker struct {
	config     *config.Config
	logger     *logger.Logger
	reader     MessageReader
	processor  *processors.EventProcessor
	retryDelay time.Duration
}

func New(cfg *config.Config, logger *logger.Logger, runner processors.JobRunner) *Worker {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.KafkaBrokers,
		GroupID:        consumerGroup,
		Topic:          cfg.KafkaTopic,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
	})

	return NewWithReader(cfg, logger, reader, processors.NewEventProcessor(runner, logger))
}

func NewWithReader(cfg *config.Config, logger *logger.Logger, reader MessageReader, processor *processors.EventProcessor) *Worker {
	return &Worker{
		config:     cfg,
		logger:     logger,
		reader:     reader,
		processor:  processor,
		retryDelay: time.Second,
	}
}

// Start consumes job requests until ctx is cancelled. Each message is
// committed once its job has finished, whatever the outcome, so a failing
// job is not redelivered forever.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Worker started, listening for job requests on %s...", w.config.KafkaTopic)

	for {
		message, err := w.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("Failed to read message: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.retryDelay):
			}
			continue
		}

		w.logger.Debug("Received message: %s", string(message.Value))

		// Parse event
		var event processors.Event
		if err := json.Unmarshal(message.Value, &event); err != nil {
			w.logger.Error("Failed to parse event: %v", err)
		} else if err := w.processor.Process(ctx, event); err != nil {
			w.logger.Error("Failed to process event: %v", err)
		} else {
			w.logger.Debug("Event processed successfully")
		}

		if err := w.reader.CommitMessages(context.WithoutCancel(ctx), message); err != nil {
			w.logger.Error("Failed to commit message at offset %d: %v", message.Offset, err)
		}
	}
}

func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	if err := w.reader.Close(); err != nil {
		w.logger.Error("Failed to close reader: %v", err)
	}
}
