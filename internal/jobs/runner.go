// Package jobs runs the spreadsheet driven batch jobs: price sync, image alt
// text generation and 404 redirect mapping.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"catalogsync/internal/logger"
	"catalogsync/internal/models"
	"catalogsync/internal/services/shopify"

	"github.com/google/uuid"
)

var (
	ErrJobRunning     = errors.New("job is already running")
	ErrRunnerClosed   = errors.New("job runner is shutting down")
	ErrUnknownJob     = errors.New("unknown job")
	ErrColumnNotFound = errors.New("required column not found in sheet")
	ErrEmptySheet     = errors.New("no data found in sheet")
)

type Kind string

const (
	KindPrices    Kind = "prices"
	KindAltText   Kind = "alt-text"
	KindRedirects Kind = "redirects"
	KindAll       Kind = "all"
)

// ParseKind validates a job name coming from a flag, query or event.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindPrices, KindAltText, KindRedirects, KindAll:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownJob, s)
}

// Catalog is the subset of the Shopify client the jobs use.
type Catalog interface {
	FetchVariantBySKU(ctx context.Context, sku string) (*shopify.Variant, error)
	FetchProductDetailsBySKU(ctx context.Context, sku string) (*shopify.VariantDetails, error)
	UpdateVariantPrice(ctx context.Context, variantID, price, compareAt string) (*shopify.Variant, error)
	UpdateMediaAlt(ctx context.Context, mediaID, alt string) error
	FetchAllProducts(ctx context.Context) ([]shopify.CatalogProduct, error)
	FetchAllCollections(ctx context.Context) ([]shopify.Collection, error)
}

type Sheet interface {
	Read(ctx context.Context, rng string) ([][]string, error)
	Append(ctx context.Context, rng string, row []string) error
	Update(ctx context.Context, cell, value string) error
}

type TextGenerator interface {
	GenerateAltText(ctx context.Context, productTitle, variantInfo string, imageIndex int) string
}

// Recorder persists run history. Recorder failures are logged and never
// abort a job.
type Recorder interface {
	StartRun(ctx context.Context, run *models.JobRun) error
	RecordRow(ctx context.Context, row *models.RowResult) error
	FinishRun(ctx context.Context, run *models.JobRun) error
}

// Progress receives row level progress, e.g. a terminal progress bar.
type Progress interface {
	Start(total int)
	Increment()
	Finish()
}

type Config struct {
	PriceRange           string
	AltTextRange         string
	RedirectRange        string
	MissingSKURange      string
	AltTextLogRange      string
	RedirectColumn       string
	ItemDelay            time.Duration
	ProductDelay         time.Duration
	MatchThreshold       float64
	HomeRedirectKeywords []string
}

type RunOptions struct {
	Trigger  string
	Progress Progress
}

// Summary counts row outcomes of one run.
type Summary struct {
	RunID     string `json:"run_id"`
	Kind      Kind   `json:"kind"`
	Processed int    `json:"processed"`
	Updated   int    `json:"updated"`
	Skipped   int    `json:"skipped"`
	NotFound  int    `json:"not_found"`
	Failed    int    `json:"failed"`
}

type Runner struct {
	cfg       Config
	catalog   Catalog
	sheet     Sheet
	generator TextGenerator
	recorder  Recorder
	logger    *logger.Logger
	sleep     func(ctx context.Context, d time.Duration) error

	mu      sync.Mutex
	running map[Kind]bool
	closed  bool
	active  sync.WaitGroup

	// base is cancelled by Shutdown and stops every run in flight,
	// including runs detached from their caller's context.
	base   context.Context
	cancel context.CancelFunc
}

func NewRunner(cfg Config, catalog Catalog, sheet Sheet, generator TextGenerator, recorder Recorder, logger *logger.Logger) *Runner {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	base, cancel := context.WithCancel(context.Background())
	return &Runner{
		cfg:       cfg,
		catalog:   catalog,
		sheet:     sheet,
		generator: generator,
		recorder:  recorder,
		logger:    logger,
		sleep:     sleepContext,
		running:   make(map[Kind]bool),
		base:      base,
		cancel:    cancel,
	}
}

type step func(ctx context.Context, e *execution) error

func (r *Runner) steps(kind Kind) []step {
	switch kind {
	case KindPrices:
		return []step{r.updatePrices}
	case KindAltText:
		return []step{r.updateAltText}
	case KindRedirects:
		return []step{r.processRedirects}
	case KindAll:
		return []step{r.updatePrices, r.updateAltText}
	}
	return nil
}

// locks lists the kinds that may not run alongside kind.
func locks(kind Kind) []Kind {
	if kind == KindAll {
		return []Kind{KindAll, KindPrices, KindAltText}
	}
	if kind == KindPrices || kind == KindAltText {
		return []Kind{kind, KindAll}
	}
	return []Kind{kind}
}

func (r *Runner) acquire(kind Kind) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRunnerClosed
	}
	for _, k := range locks(kind) {
		if r.running[k] {
			return ErrJobRunning
		}
	}
	r.running[kind] = true
	r.active.Add(1)
	return nil
}

func (r *Runner) release(kind Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.running, kind)
	r.active.Done()
}

func (r *Runner) isRunning(kind Kind) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running[kind]
}

// Shutdown refuses new runs, cancels the ones in progress and waits for
// them to record their final status. It returns ctx.Err() if the runs do
// not finish in time.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.cancel()

	done := make(chan struct{})
	go func() {
		r.active.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes one job to completion. Rows are processed sequentially with
// the configured delays. The returned summary is non-nil whenever the job
// started, including when it failed part way.
func (r *Runner) Run(ctx context.Context, kind Kind, opts RunOptions) (*Summary, error) {
	steps := r.steps(kind)
	if steps == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownJob, kind)
	}
	if err := r.acquire(kind); err != nil {
		return nil, err
	}
	defer r.release(kind)

	ctx, stop := context.WithCancel(ctx)
	defer stop()
	unregister := context.AfterFunc(r.base, stop)
	defer unregister()

	run := &models.JobRun{
		ID:        uuid.New().String(),
		Kind:      string(kind),
		Status:    models.JobStatusRunning,
		Trigger:   opts.Trigger,
		StartedAt: time.Now().UTC(),
	}
	log := r.logger.WithField("job", kind).WithField("run_id", run.ID)

	if err := r.recorder.StartRun(ctx, run); err != nil {
		log.Warn("Failed to record run start: %v", err)
	}

	progress := opts.Progress
	if progress == nil {
		progress = nopProgress{}
	}

	e := &execution{
		run:      run,
		summary:  &Summary{RunID: run.ID, Kind: kind},
		recorder: r.recorder,
		progress: progress,
		logger:   log,
	}

	log.Info("Starting %s job", kind)

	var jobErr error
	for _, s := range steps {
		if jobErr = s(ctx, e); jobErr != nil {
			break
		}
	}

	finished := time.Now().UTC()
	run.FinishedAt = &finished
	run.Processed = e.summary.Processed
	run.Updated = e.summary.Updated
	run.Skipped = e.summary.Skipped
	run.NotFound = e.summary.NotFound
	run.Failed = e.summary.Failed
	run.Status = models.JobStatusSucceeded
	if jobErr != nil {
		msg := jobErr.Error()
		run.Status = models.JobStatusFailed
		run.Error = &msg
	}

	if err := r.recorder.FinishRun(context.WithoutCancel(ctx), run); err != nil {
		log.Warn("Failed to record run result: %v", err)
	}

	if jobErr != nil {
		log.Error("Job %s failed after %d rows: %v", kind, e.summary.Processed, jobErr)
		return e.summary, jobErr
	}

	log.Info("Job %s completed: %d processed, %d updated, %d skipped, %d not found, %d failed",
		kind, e.summary.Processed, e.summary.Updated, e.summary.Skipped, e.summary.NotFound, e.summary.Failed)
	return e.summary, nil
}

// execution carries the state of one run through its steps.
type execution struct {
	run      *models.JobRun
	summary  *Summary
	recorder Recorder
	progress Progress
	logger   *logger.Logger
}

func (e *execution) record(ctx context.Context, job Kind, row models.RowResult) {
	row.RunID = e.run.ID
	row.Job = string(job)

	e.summary.Processed++
	switch row.Status {
	case models.RowStatusUpdated:
		e.summary.Updated++
	case models.RowStatusSkipped:
		e.summary.Skipped++
	case models.RowStatusNotFound:
		e.summary.NotFound++
	case models.RowStatusFailed:
		e.summary.Failed++
	}

	if err := e.recorder.RecordRow(ctx, &row); err != nil {
		e.logger.Warn("Failed to record row %d: %v", row.RowNumber, err)
	}
	e.progress.Increment()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type nopRecorder struct{}

func (nopRecorder) StartRun(context.Context, *models.JobRun) error     { return nil }
func (nopRecorder) RecordRow(context.Context, *models.RowResult) error { return nil }
func (nopRecorder) FinishRun(context.Context, *models.JobRun) error    { return nil }

type nopProgress struct{}

func (nopProgress) Start(int)  {}
func (nopProgress) Increment() {}
func (nopProgress) Finish()    {}
