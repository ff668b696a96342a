package jobs

import (
	"context"
	"testing"
	"time"

	"catalogsync/internal/models"
	"catalogsync/internal/services/shopify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	for _, name := range []string{"prices", "alt-text", "redirects", "all"} {
		kind, err := ParseKind(name)
		require.NoError(t, err)
		assert.Equal(t, Kind(name), kind)
	}

	_, err := ParseKind("inventory")
	assert.ErrorIs(t, err, ErrUnknownJob)
}

func TestRun_UnknownKind(t *testing.T) {
	h := newHarness(t, &fakeCatalog{}, newFakeSheet(nil))

	summary, err := h.runner.Run(context.Background(), Kind("inventory"), RunOptions{})
	assert.ErrorIs(t, err, ErrUnknownJob)
	assert.Nil(t, summary)
	assert.Empty(t, h.recorder.started)
}

func TestRun_RecordsRun(t *testing.T) {
	catalog := &fakeCatalog{variants: map[string]*shopify.Variant{"A": {ID: "va"}}}
	sheet := newFakeSheet(map[string][][]string{
		"Sheet1!A:C": {
			{"skus", "Variant Price", "Variant Compare At Price"},
			{"A", "1", "2"},
			{"", "", ""},
		},
	})
	h := newHarness(t, catalog, sheet)
	progress := &fakeProgress{}

	summary, err := h.runner.Run(context.Background(), KindPrices, RunOptions{Trigger: "cli", Progress: progress})
	require.NoError(t, err)

	require.Len(t, h.recorder.started, 1)
	started := h.recorder.started[0]
	assert.Equal(t, summary.RunID, started.ID)
	assert.Equal(t, "prices", started.Kind)
	assert.Equal(t, "cli", started.Trigger)
	assert.Equal(t, models.JobStatusRunning, started.Status)

	require.Len(t, h.recorder.finished, 1)
	finished := h.recorder.finished[0]
	assert.Equal(t, models.JobStatusSucceeded, finished.Status)
	assert.Equal(t, 2, finished.Processed)
	assert.Equal(t, 1, finished.Updated)
	assert.Equal(t, 1, finished.Skipped)
	require.NotNil(t, finished.FinishedAt)
	assert.Nil(t, finished.Error)

	for _, row := range h.recorder.rows {
		assert.Equal(t, summary.RunID, row.RunID)
		assert.Equal(t, "prices", row.Job)
	}

	assert.Equal(t, []int{2}, progress.totals)
	assert.Equal(t, 2, progress.increments)
	assert.Equal(t, 1, progress.finished)
}

func TestRun_AllRunsPricesThenAltText(t *testing.T) {
	catalog := &fakeCatalog{
		variants: map[string]*shopify.Variant{"A": {ID: "va"}},
		details:  map[string]*shopify.VariantDetails{"A": details("Red", "Lamp", image("m1"))},
	}
	sheet := newFakeSheet(map[string][][]string{
		"Sheet1!A:C": {{"skus", "Variant Price", "Variant Compare At Price"}, {"A", "1", "2"}},
		"Sheet1!A:A": {{"skus"}, {"A"}},
	})
	h := newHarness(t, catalog, sheet)

	summary, err := h.runner.Run(context.Background(), KindAll, RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, KindAll, summary.Kind)
	assert.Equal(t, 2, summary.Updated)
	assert.Len(t, catalog.priceUpdates, 1)
	assert.Len(t, catalog.altUpdates, 1)

	require.Len(t, h.recorder.rows, 2)
	assert.Equal(t, "prices", h.recorder.rows[0].Job)
	assert.Equal(t, "alt-text", h.recorder.rows[1].Job)
}

func TestRun_AllStopsWhenPricesFail(t *testing.T) {
	sheet := newFakeSheet(map[string][][]string{
		"Sheet1!A:A": {{"skus"}, {"A"}},
	})
	h := newHarness(t, &fakeCatalog{}, sheet)

	_, err := h.runner.Run(context.Background(), KindAll, RunOptions{})
	assert.ErrorIs(t, err, ErrEmptySheet)
	assert.Empty(t, sheet.appended)
}

func TestRun_RejectsConcurrentRun(t *testing.T) {
	catalog := &fakeCatalog{variants: map[string]*shopify.Variant{"A": {ID: "va"}}}
	sheet := newFakeSheet(map[string][][]string{
		"Sheet1!A:C": {{"skus", "Variant Price", "Variant Compare At Price"}, {"A", "1", "2"}},
	})
	h := newHarness(t, catalog, sheet)

	entered := make(chan struct{})
	release := make(chan struct{})
	h.runner.sleep = func(ctx context.Context, d time.Duration) error {
		close(entered)
		<-release
		return nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := h.runner.Run(context.Background(), KindPrices, RunOptions{})
		done <- err
	}()
	<-entered

	assert.True(t, h.runner.isRunning(KindPrices))

	_, err := h.runner.Run(context.Background(), KindPrices, RunOptions{})
	assert.ErrorIs(t, err, ErrJobRunning)
	_, err = h.runner.Run(context.Background(), KindAll, RunOptions{})
	assert.ErrorIs(t, err, ErrJobRunning)

	// Redirects are independent of the price job.
	_, err = h.runner.Run(context.Background(), KindRedirects, RunOptions{})
	assert.ErrorIs(t, err, ErrEmptySheet)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, h.runner.isRunning(KindPrices))
}

func TestShutdown_CancelsDetachedRun(t *testing.T) {
	catalog := &fakeCatalog{variants: map[string]*shopify.Variant{
		"A": {ID: "va"},
		"B": {ID: "vb"},
	}}
	sheet := newFakeSheet(map[string][][]string{
		"Sheet1!A:C": {
			{"skus", "Variant Price", "Variant Compare At Price"},
			{"A", "1", "2"},
			{"B", "3", "4"},
		},
	})
	h := newHarness(t, catalog, sheet)

	entered := make(chan struct{})
	h.runner.sleep = func(ctx context.Context, d time.Duration) error {
		close(entered)
		<-ctx.Done()
		return ctx.Err()
	}

	done := make(chan error, 1)
	go func() {
		_, err := h.runner.Run(context.WithoutCancel(context.Background()), KindPrices, RunOptions{Trigger: "http"})
		done <- err
	}()
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, h.runner.Shutdown(ctx))
	assert.ErrorIs(t, <-done, context.Canceled)

	require.Len(t, h.recorder.finished, 1)
	finished := h.recorder.finished[0]
	assert.Equal(t, models.JobStatusFailed, finished.Status)
	require.NotNil(t, finished.Error)
	require.NotNil(t, finished.FinishedAt)
	assert.Equal(t, 1, finished.Updated)
	assert.Len(t, catalog.priceUpdates, 1)
	assert.False(t, h.runner.isRunning(KindPrices))

	_, err := h.runner.Run(context.Background(), KindPrices, RunOptions{})
	assert.ErrorIs(t, err, ErrRunnerClosed)
}

func TestShutdown_NoRuns(t *testing.T) {
	h := newHarness(t, &fakeCatalog{}, newFakeSheet(nil))
	assert.NoError(t, h.runner.Shutdown(context.Background()))
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, sleepContext(context.Background(), 0))
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}
