package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"catalogsync/internal/models"
	"catalogsync/internal/services/shopify"
)

const (
	altStatusAllUpdated = "All images updated"
	altStatusNotFound   = "SKU not found"
	altStatusNoMedia    = "No media found"
	altStatusLookup     = "Lookup failed"
	altNotApplicable    = "N/A"
)

// updateAltText generates alt text for every image of the product behind
// each SKU and logs one tracking row per SKU.
func (r *Runner) updateAltText(ctx context.Context, e *execution) error {
	rows, err := r.sheet.Read(ctx, r.cfg.AltTextRange)
	if err != nil {
		return fmt.Errorf("failed to read alt text sheet: %w", err)
	}

	header, data, err := splitHeader(rows)
	if err != nil {
		return err
	}
	idx, err := columnIndexes(header, columnSKU)
	if err != nil {
		return err
	}

	e.logger.Info("Found %d SKUs for alt text", len(data))
	e.progress.Start(len(data))
	defer e.progress.Finish()

	for i, row := range data {
		if err := ctx.Err(); err != nil {
			return err
		}

		result := models.RowResult{RowNumber: i + 2, Key: cell(row, idx[0])}
		if result.Key == "" {
			e.logger.Warn("Skipping row %d: Missing SKU", result.RowNumber)
			result.Status = models.RowStatusSkipped
			result.Detail = "missing SKU"
			e.record(ctx, KindAltText, result)
			continue
		}

		e.logger.Info("Processing SKU: %s", result.Key)

		if err := r.altTextForSKU(ctx, e, &result); err != nil {
			return err
		}
		e.record(ctx, KindAltText, result)
	}

	return nil
}

// altTextForSKU fills in result. It only returns an error when the run
// itself must stop.
func (r *Runner) altTextForSKU(ctx context.Context, e *execution, result *models.RowResult) error {
	sku := result.Key

	details, err := r.catalog.FetchProductDetailsBySKU(ctx, sku)
	if errors.Is(err, shopify.ErrNotFound) {
		e.logger.Warn("SKU %s not found in Shopify", sku)
		r.appendMissingSKU(ctx, e, sku)
		r.appendAltLog(ctx, e, sku, altNotApplicable, altStatusNotFound)
		result.Status = models.RowStatusNotFound
		result.Detail = altStatusNotFound
		return nil
	}
	if err != nil {
		e.logger.Error("Failed to fetch product details for SKU %s: %v", sku, err)
		r.appendAltLog(ctx, e, sku, altNotApplicable, altStatusLookup)
		result.Status = models.RowStatusFailed
		result.Detail = err.Error()
		return nil
	}

	product := details.Product
	media := product.Media.Nodes()
	if len(media) == 0 {
		e.logger.Info("No media found for SKU: %s", sku)
		r.appendAltLog(ctx, e, sku, altNotApplicable, altStatusNoMedia)
		result.Status = models.RowStatusSkipped
		result.Detail = altStatusNoMedia
		return nil
	}

	variantInfo := ""
	if details.Title != product.Title {
		variantInfo = details.Title
	}

	var succeeded, failed int
	var generated []string
	for i, m := range media {
		imageIndex := i + 1
		if !m.IsImage() {
			e.logger.Debug("Skipping non-image media %s for SKU: %s", m.ID, sku)
			continue
		}

		e.logger.Debug("Image %d current alt text: %q", imageIndex, m.AltText())
		alt := r.generator.GenerateAltText(ctx, product.Title, variantInfo, imageIndex)
		e.logger.Info("Generated alt text for image %d: %q", imageIndex, alt)
		generated = append(generated, alt)

		if err := r.catalog.UpdateMediaAlt(ctx, m.ID, alt); err != nil {
			failed++
			e.logger.Error("Failed to update alt text for image %d: %v", imageIndex, err)
		} else {
			succeeded++
		}

		if err := r.sleep(ctx, r.cfg.ItemDelay); err != nil {
			return err
		}
	}

	status := altStatusAllUpdated
	if failed > 0 {
		status = fmt.Sprintf("%d success, %d failed", succeeded, failed)
	}
	combined := strings.Join(generated, " | ")
	r.appendAltLog(ctx, e, sku, combined, status)

	e.logger.Info("Completed SKU: %s (%d/%d images updated)", sku, succeeded, succeeded+failed)

	result.Value = combined
	result.Detail = status
	result.Status = models.RowStatusUpdated
	if failed > 0 {
		result.Status = models.RowStatusFailed
	}

	return r.sleep(ctx, r.cfg.ProductDelay)
}

func (r *Runner) appendAltLog(ctx context.Context, e *execution, sku, altText, status string) {
	if err := r.sheet.Append(ctx, r.cfg.AltTextLogRange, []string{sku, altText, status}); err != nil {
		e.logger.Error("Error appending alt text data for SKU %s: %v", sku, err)
	}
}
