package jobs

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Header names of the price and alt text sheets.
const (
	columnSKU            = "skus"
	columnVariantPrice   = "Variant Price"
	columnCompareAtPrice = "Variant Compare At Price"
)

var (
	nonPriceChars  = regexp.MustCompile(`[^0-9.]`)
	leadingDecimal = regexp.MustCompile(`^\d*\.?\d*`)
)

// splitHeader separates the header row from the data rows.
func splitHeader(rows [][]string) ([]string, [][]string, error) {
	if len(rows) == 0 {
		return nil, nil, ErrEmptySheet
	}
	return rows[0], rows[1:], nil
}

// columnIndexes finds each name in header by exact match.
func columnIndexes(header []string, names ...string) ([]int, error) {
	indexes := make([]int, len(names))
	var missing []string
	for i, name := range names {
		indexes[i] = -1
		for j, h := range header {
			if h == name {
				indexes[i] = j
				break
			}
		}
		if indexes[i] == -1 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, strings.Join(missing, ", "))
	}
	return indexes, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// cleanPrice strips currency symbols and separators, reads the leading
// number and formats it with two decimals. Anything after that number is
// ignored, so "12.50.3" is 12.50. Input without a leading number yields "".
func cleanPrice(raw string) string {
	cleaned := leadingDecimal.FindString(nonPriceChars.ReplaceAllString(raw, ""))
	if cleaned == "" || cleaned == "." {
		return ""
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return ""
	}
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// sheetName returns the tab part of an A1 range such as "Sheet1!A:B".
func sheetName(rng string) string {
	if i := strings.LastIndex(rng, "!"); i >= 0 {
		return rng[:i]
	}
	return ""
}

// cellRef builds an A1 reference for a single cell on the tab of rng.
func cellRef(rng, column string, row int) string {
	if name := sheetName(rng); name != "" {
		return fmt.Sprintf("%s!%s%d", name, column, row)
	}
	return fmt.Sprintf("%s%d", column, row)
}
