package handlers

import (
	"context"
	"errors"
	"net/http"

	"catalogsync/internal/jobs"
	"catalogsync/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type JobRunner interface {
	Run(ctx context.Context, kind jobs.Kind, opts jobs.RunOptions) (*jobs.Summary, error)
}

// JobPublisher queues a job for the worker.
type JobPublisher interface {
	Publish(ctx context.Context, kind jobs.Kind, requestID string) error
}

type jobMessages struct {
	success string
	failure string
}

var messages = map[jobs.Kind]jobMessages{
	jobs.KindPrices:    {"Prices updated successfully", "Error updating prices"},
	jobs.KindAltText:   {"Alt text updated successfully", "Error updating alt text"},
	jobs.KindAll:       {"Both prices and alt text updated successfully", "Error during update process"},
	jobs.KindRedirects: {"404 redirect processing completed successfully", "Error processing 404 redirects"},
}

type JobHandler struct {
	runner    JobRunner
	publisher JobPublisher
	logger    *logger.Logger
}

// NewJobHandler builds the trigger endpoints. publisher may be nil, in which
// case async requests are refused.
func NewJobHandler(runner JobRunner, publisher JobPublisher, logger *logger.Logger) *JobHandler {
	return &JobHandler{
		runner:    runner,
		publisher: publisher,
		logger:    logger,
	}
}

// Trigger runs kind inline and replies with a plain text status line. The
// job is detached from the request context so a client disconnect does not
// stop it half way through the sheet. Runner shutdown still stops it.
func (h *JobHandler) Trigger(kind jobs.Kind) gin.HandlerFunc {
	msg := messages[kind]

	return func(c *gin.Context) {
		if c.Query("async") == "true" {
			h.enqueue(c, kind)
			return
		}

		summary, err := h.runner.Run(context.WithoutCancel(c.Request.Context()), kind, jobs.RunOptions{Trigger: "http"})
		if summary != nil {
			c.Header("X-Run-ID", summary.RunID)
		}
		if errors.Is(err, jobs.ErrJobRunning) {
			c.String(http.StatusConflict, "Job %s is already running", kind)
			return
		}
		if errors.Is(err, jobs.ErrRunnerClosed) {
			c.String(http.StatusServiceUnavailable, "Server is shutting down")
			return
		}
		if err != nil {
			h.logger.Error("Error while running %s: %v", kind, err)
			c.String(http.StatusInternalServerError, "%s", msg.failure)
			return
		}

		c.String(http.StatusOK, "%s", msg.success)
	}
}

func (h *JobHandler) enqueue(c *gin.Context, kind jobs.Kind) {
	if h.publisher == nil {
		c.String(http.StatusServiceUnavailable, "Async jobs are not configured")
		return
	}

	requestID := uuid.New().String()
	if err := h.publisher.Publish(c.Request.Context(), kind, requestID); err != nil {
		h.logger.Error("Failed to queue %s job: %v", kind, err)
		c.String(http.StatusInternalServerError, "Failed to queue job")
		return
	}

	h.logger.Info("Queued %s job (request %s)", kind, requestID)
	c.JSON(http.StatusAccepted, gin.H{
		"status":     "queued",
		"job":        kind,
		"request_id": requestID,
	})
}
