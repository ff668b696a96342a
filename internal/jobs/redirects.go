package jobs

import (
	"context"
	"fmt"

	"catalogsync/internal/models"
	"catalogsync/internal/redirect"
	"catalogsync/internal/services/shopify"

	"golang.org/x/sync/errgroup"
)

// processRedirects fills the "redirect to" column for every 404 URL that
// does not have one yet.
func (r *Runner) processRedirects(ctx context.Context, e *execution) error {
	rows, err := r.sheet.Read(ctx, r.cfg.RedirectRange)
	if err != nil {
		return fmt.Errorf("failed to read redirect sheet: %w", err)
	}

	_, data, err := splitHeader(rows)
	if err != nil {
		return err
	}
	e.logger.Info("Found %d URLs to process", len(data))

	matcher, err := r.loadMatcher(ctx, e)
	if err != nil {
		return err
	}

	e.progress.Start(len(data))
	defer e.progress.Finish()

	for i, row := range data {
		if err := ctx.Err(); err != nil {
			return err
		}

		result := models.RowResult{RowNumber: i + 2, Key: cell(row, 0)}
		if result.Key == "" {
			e.logger.Debug("Skipping row %d: No redirect from URL", result.RowNumber)
			result.Status = models.RowStatusSkipped
			result.Detail = "missing redirect from URL"
			e.record(ctx, KindRedirects, result)
			continue
		}
		if existing := cell(row, 1); existing != "" {
			e.logger.Debug("Skipping row %d: Redirect To already filled", result.RowNumber)
			result.Status = models.RowStatusSkipped
			result.Detail = "redirect already set"
			result.Value = existing
			e.record(ctx, KindRedirects, result)
			continue
		}

		d := matcher.Resolve(result.Key)
		e.logger.Info("Row %d: %s -> %s (%s, score %.2f)", result.RowNumber, result.Key, d.Target, d.Reason, d.Score)
		if d.Reason == redirect.ReasonInvalidTarget {
			e.logger.Warn("Suggested URL for row %d does not exist in Shopify, redirecting to home page", result.RowNumber)
		}

		result.Detail = d.Reason
		result.Score = d.Score
		result.Keywords = d.Keywords

		ref := cellRef(r.cfg.RedirectRange, r.cfg.RedirectColumn, result.RowNumber)
		if err := r.sheet.Update(ctx, ref, d.Target); err != nil {
			e.logger.Error("Error updating %s: %v", ref, err)
			result.Status = models.RowStatusFailed
			result.Detail = err.Error()
		} else {
			result.Status = models.RowStatusUpdated
			result.Value = d.Target
		}
		e.record(ctx, KindRedirects, result)

		if err := r.sleep(ctx, r.cfg.ItemDelay); err != nil {
			return err
		}
	}

	return nil
}

// loadMatcher fetches products and collections in parallel.
func (r *Runner) loadMatcher(ctx context.Context, e *execution) (*redirect.Matcher, error) {
	var (
		products    []shopify.CatalogProduct
		collections []shopify.Collection
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = r.catalog.FetchAllProducts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		collections, err = r.catalog.FetchAllCollections(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	e.logger.Info("Loaded %d products and %d collections", len(products), len(collections))

	threshold := r.cfg.MatchThreshold
	if threshold <= 0 {
		threshold = redirect.DefaultThreshold
	}

	return &redirect.Matcher{
		Products:     productItems(products),
		Collections:  collectionItems(collections),
		Threshold:    threshold,
		HomeKeywords: r.cfg.HomeRedirectKeywords,
	}, nil
}

func productItems(products []shopify.CatalogProduct) []redirect.Item {
	items := make([]redirect.Item, len(products))
	for i, p := range products {
		items[i] = redirect.Item{
			Kind:        redirect.KindProduct,
			Title:       p.Title,
			Handle:      p.Handle,
			ProductType: p.ProductType,
			Tags:        p.Tags,
		}
	}
	return items
}

func collectionItems(collections []shopify.Collection) []redirect.Item {
	items := make([]redirect.Item, len(collections))
	for i, c := range collections {
		items[i] = redirect.Item{
			Kind:        redirect.KindCollection,
			Title:       c.Title,
			Handle:      c.Handle,
			Description: c.Description,
		}
	}
	return items
}
