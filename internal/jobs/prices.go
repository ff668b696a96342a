package jobs

import (
	"context"
	"errors"
	"fmt"

	"catalogsync/internal/models"
	"catalogsync/internal/services/shopify"
)

// updatePrices copies price and compare-at price from the sheet onto the
// matching Shopify variants.
func (r *Runner) updatePrices(ctx context.Context, e *execution) error {
	rows, err := r.sheet.Read(ctx, r.cfg.PriceRange)
	if err != nil {
		return fmt.Errorf("failed to read price sheet: %w", err)
	}

	header, data, err := splitHeader(rows)
	if err != nil {
		return err
	}
	idx, err := columnIndexes(header, columnSKU, columnVariantPrice, columnCompareAtPrice)
	if err != nil {
		return err
	}

	e.logger.Info("Found %d price rows", len(data))
	e.progress.Start(len(data))
	defer e.progress.Finish()

	for i, row := range data {
		if err := ctx.Err(); err != nil {
			return err
		}

		result := models.RowResult{RowNumber: i + 2}
		sku := cell(row, idx[0])
		price := cleanPrice(cell(row, idx[1]))
		compareAt := cleanPrice(cell(row, idx[2]))
		result.Key = sku

		if sku == "" || price == "" || compareAt == "" {
			e.logger.Warn("Skipping row %d: Missing SKU or price fields", result.RowNumber)
			result.Status = models.RowStatusSkipped
			result.Detail = "missing SKU or price fields"
			e.record(ctx, KindPrices, result)
			continue
		}

		e.logger.Info("Processing SKU: %s, Variant Price: %s, Compare At Price: %s", sku, price, compareAt)

		variant, err := r.catalog.FetchVariantBySKU(ctx, sku)
		if errors.Is(err, shopify.ErrNotFound) {
			e.logger.Warn("SKU %s not found in Shopify", sku)
			r.appendMissingSKU(ctx, e, sku)
			result.Status = models.RowStatusNotFound
			result.Detail = "SKU not found"
			e.record(ctx, KindPrices, result)
			continue
		}
		if err != nil {
			e.logger.Error("Failed to look up SKU %s: %v", sku, err)
			result.Status = models.RowStatusFailed
			result.Detail = err.Error()
			e.record(ctx, KindPrices, result)
			if err := r.sleep(ctx, r.cfg.ItemDelay); err != nil {
				return err
			}
			continue
		}

		e.logger.Debug("Current store prices for %s -> Price: %s, Compare At Price: %s", sku, variant.Price, deref(variant.CompareAtPrice))

		if _, err := r.catalog.UpdateVariantPrice(ctx, variant.ID, price, compareAt); err != nil {
			e.logger.Error("Failed to update variant %s: %v", variant.ID, err)
			result.Status = models.RowStatusFailed
			result.Detail = err.Error()
		} else {
			e.logger.Info("Successfully updated variant %s", variant.ID)
			result.Status = models.RowStatusUpdated
			result.Value = price
			result.Detail = "compare at " + compareAt
		}
		e.record(ctx, KindPrices, result)

		if err := r.sleep(ctx, r.cfg.ItemDelay); err != nil {
			return err
		}
	}

	return nil
}

// appendMissingSKU logs sku on the missing SKU tab. Failures are logged only.
func (r *Runner) appendMissingSKU(ctx context.Context, e *execution, sku string) {
	if err := r.sheet.Append(ctx, r.cfg.MissingSKURange, []string{sku}); err != nil {
		e.logger.Error("Error appending missing SKU %s: %v", sku, err)
		return
	}
	e.logger.Info("Missing SKU added: %s", sku)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
