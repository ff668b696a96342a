package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"catalogsync/internal/config"
	"catalogsync/internal/jobs"
	"catalogsync/internal/logger"
	"catalogsync/internal/worker/processors"

	"github.com/segmentio/kafka-go"
)

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher puts job requests on the jobs topic.
type Publisher struct {
	writer MessageWriter
	logger *logger.Logger
}

func NewPublisher(cfg *config.Config, logger *logger.Logger) *Publisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		WriteTimeout:           10 * time.Second,
	}
	return NewPublisherWithWriter(writer, logger)
}

func NewPublisherWithWriter(writer MessageWriter, logger *logger.Logger) *Publisher {
	return &Publisher{
		writer: writer,
		logger: logger,
	}
}

func (p *Publisher) Publish(ctx context.Context, kind jobs.Kind, requestID string) error {
	event := processors.Event{
		Type:      processors.EventJobRequested,
		Job:       string(kind),
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(kind), Value: value}); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("Published %s event for %s", event.Type, kind)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
