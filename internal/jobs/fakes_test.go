package jobs

import (
	"context"
	"encoding/json"
	"io"
	"strconv"
	"sync"
	"testing"
	"time"

	"catalogsync/internal/logger"
	"catalogsync/internal/models"
	"catalogsync/internal/services/shopify"
)

type priceUpdate struct {
	VariantID string
	Price     string
	CompareAt string
}

type altUpdate struct {
	MediaID string
	Alt     string
}

type fakeCatalog struct {
	mu sync.Mutex

	variants  map[string]*shopify.Variant
	details   map[string]*shopify.VariantDetails
	lookupErr map[string]error

	priceUpdates []priceUpdate
	priceErr     map[string]error
	altUpdates   []altUpdate
	altErr       map[string]error

	products       []shopify.CatalogProduct
	collections    []shopify.Collection
	productsErr    error
	collectionsErr error
}

func (f *fakeCatalog) FetchVariantBySKU(ctx context.Context, sku string) (*shopify.Variant, error) {
	if err := f.lookupErr[sku]; err != nil {
		return nil, err
	}
	if v, ok := f.variants[sku]; ok {
		return v, nil
	}
	return nil, shopify.ErrNotFound
}

func (f *fakeCatalog) FetchProductDetailsBySKU(ctx context.Context, sku string) (*shopify.VariantDetails, error) {
	if err := f.lookupErr[sku]; err != nil {
		return nil, err
	}
	if d, ok := f.details[sku]; ok {
		return d, nil
	}
	return nil, shopify.ErrNotFound
}

func (f *fakeCatalog) UpdateVariantPrice(ctx context.Context, variantID, price, compareAt string) (*shopify.Variant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.priceErr[variantID]; err != nil {
		return nil, err
	}
	f.priceUpdates = append(f.priceUpdates, priceUpdate{variantID, price, compareAt})
	return &shopify.Variant{ID: variantID, Price: price, CompareAtPrice: &compareAt}, nil
}

func (f *fakeCatalog) UpdateMediaAlt(ctx context.Context, mediaID, alt string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.altErr[mediaID]; err != nil {
		return err
	}
	f.altUpdates = append(f.altUpdates, altUpdate{mediaID, alt})
	return nil
}

func (f *fakeCatalog) FetchAllProducts(ctx context.Context) ([]shopify.CatalogProduct, error) {
	return f.products, f.productsErr
}

func (f *fakeCatalog) FetchAllCollections(ctx context.Context) ([]shopify.Collection, error) {
	return f.collections, f.collectionsErr
}

type cellUpdate struct {
	Cell  string
	Value string
}

type fakeSheet struct {
	mu sync.Mutex

	ranges    map[string][][]string
	readErr   error
	appended  map[string][][]string
	updates   []cellUpdate
	updateErr map[string]error
}

func newFakeSheet(ranges map[string][][]string) *fakeSheet {
	return &fakeSheet{
		ranges:    ranges,
		appended:  make(map[string][][]string),
		updateErr: make(map[string]error),
	}
}

func (f *fakeSheet) Read(ctx context.Context, rng string) ([][]string, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.ranges[rng], nil
}

func (f *fakeSheet) Append(ctx context.Context, rng string, row []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appended[rng] = append(f.appended[rng], row)
	return nil
}

func (f *fakeSheet) Update(ctx context.Context, cell, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.updateErr[cell]; err != nil {
		return err
	}
	f.updates = append(f.updates, cellUpdate{cell, value})
	return nil
}

type fakeGenerator struct {
	calls []string
}

func (f *fakeGenerator) GenerateAltText(ctx context.Context, productTitle, variantInfo string, imageIndex int) string {
	alt := productTitle
	if variantInfo != "" {
		alt += " " + variantInfo
	}
	alt += " view " + strconv.Itoa(imageIndex)
	f.calls = append(f.calls, alt)
	return alt
}

type fakeRecorder struct {
	mu       sync.Mutex
	started  []*models.JobRun
	rows     []models.RowResult
	finished []*models.JobRun
}

func (f *fakeRecorder) StartRun(ctx context.Context, run *models.JobRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *run
	f.started = append(f.started, &cp)
	return nil
}

func (f *fakeRecorder) RecordRow(ctx context.Context, row *models.RowResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, *row)
	return nil
}

func (f *fakeRecorder) FinishRun(ctx context.Context, run *models.JobRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *run
	f.finished = append(f.finished, &cp)
	return nil
}

type fakeProgress struct {
	totals     []int
	increments int
	finished   int
}

func (f *fakeProgress) Start(total int) { f.totals = append(f.totals, total) }
func (f *fakeProgress) Increment()      { f.increments++ }
func (f *fakeProgress) Finish()         { f.finished++ }

type harness struct {
	runner    *Runner
	catalog   *fakeCatalog
	sheet     *fakeSheet
	generator *fakeGenerator
	recorder  *fakeRecorder
	sleeps    []time.Duration
}

func testConfig() Config {
	return Config{
		PriceRange:           "Sheet1!A:C",
		AltTextRange:         "Sheet1!A:A",
		RedirectRange:        "Sheet1!A:B",
		MissingSKURange:      "Missing SKU on Website!A:A",
		AltTextLogRange:      "Alt Text Tracking!A:C",
		RedirectColumn:       "B",
		ItemDelay:            time.Second,
		ProductDelay:         2 * time.Second,
		MatchThreshold:       0.3,
		HomeRedirectKeywords: []string{"abdos"},
	}
}

func newHarness(t *testing.T, catalog *fakeCatalog, sheet *fakeSheet) *harness {
	t.Helper()
	h := &harness{
		catalog:   catalog,
		sheet:     sheet,
		generator: &fakeGenerator{},
		recorder:  &fakeRecorder{},
	}
	h.runner = NewRunner(testConfig(), catalog, sheet, h.generator, h.recorder, logger.NewWithWriter("error", io.Discard))
	h.runner.sleep = func(ctx context.Context, d time.Duration) error {
		h.sleeps = append(h.sleeps, d)
		return ctx.Err()
	}
	return h
}

func strPtr(s string) *string { return &s }

// connection builds a single page GraphQL connection the way the API returns it.
func connection[T any](nodes ...T) shopify.Connection[T] {
	edges := make([]map[string]T, len(nodes))
	for i, n := range nodes {
		edges[i] = map[string]T{"node": n}
	}
	raw, err := json.Marshal(map[string]interface{}{"edges": edges})
	if err != nil {
		panic(err)
	}
	var c shopify.Connection[T]
	if err := json.Unmarshal(raw, &c); err != nil {
		panic(err)
	}
	return c
}
