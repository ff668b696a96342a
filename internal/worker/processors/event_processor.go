package processors

import (
	"context"
	"fmt"
	"time"

	"catalogsync/internal/jobs"
	"catalogsync/internal/logger"
)

const EventJobRequested = "job.requested"

// Event is the message exchanged on the jobs topic.
type Event struct {
	Type      string    `json:"type"`
	Job       string    `json:"job"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

type JobRunner interface {
	Run(ctx context.Context, kind jobs.Kind, opts jobs.RunOptions) (*jobs.Summary, error)
}

type EventProcessor struct {
	runner JobRunner
	logger *logger.Logger
}

func NewEventProcessor(runner JobRunner, logger *logger.Logger) *EventProcessor {
	return &EventProcessor{
		runner: runner,
		logger: logger,
	}
}

// Process runs the job named by a job.requested event. Other event types
// are ignored.
func (ep *EventProcessor) Process(ctx context.Context, event Event) error {
	ep.logger.Debug("Processing event: %+v", event)

	if event.Type != EventJobRequested {
		ep.logger.Warn("Ignoring event of type %q", event.Type)
		return nil
	}

	kind, err := jobs.ParseKind(event.Job)
	if err != nil {
		return err
	}

	summary, err := ep.runner.Run(ctx, kind, jobs.RunOptions{Trigger: "kafka:" + event.RequestID})
	if err != nil {
		return fmt.Errorf("job %s (request %s): %w", kind, event.RequestID, err)
	}

	ep.logger.Info("Job %s for request %s finished: %d processed, %d updated, %d failed",
		kind, event.RequestID, summary.Processed, summary.Updated, summary.Failed)
	return nil
}
