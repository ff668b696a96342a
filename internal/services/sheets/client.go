package sheets

import (
	"context"
	"fmt"

	"catalogsync/internal/logger"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const valueInputRaw = "RAW"

type Config struct {
	SpreadsheetID   string
	CredentialsFile string
}

// Client reads and writes cell values of a single spreadsheet.
type Client struct {
	spreadsheetID string
	values        *sheets.SpreadsheetsValuesService
	logger        *logger.Logger
}

// New authenticates with the service account in cfg.CredentialsFile. Extra
// options are applied last, so tests can swap the endpoint and HTTP client.
func New(ctx context.Context, cfg Config, logger *logger.Logger, opts ...option.ClientOption) (*Client, error) {
	var clientOpts []option.ClientOption
	if cfg.CredentialsFile != "" {
		clientOpts = append(clientOpts,
			option.WithCredentialsFile(cfg.CredentialsFile),
			option.WithScopes(sheets.SpreadsheetsScope),
		)
	}
	clientOpts = append(clientOpts, opts...)

	svc, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Client{
		spreadsheetID: cfg.SpreadsheetID,
		values:        svc.Spreadsheets.Values,
		logger:        logger,
	}, nil
}

// Read returns the rows of rng as strings. Trailing empty cells are omitted
// by the API, so rows may be shorter than the range is wide.
func (c *Client) Read(ctx context.Context, rng string) ([][]string, error) {
	resp, err := c.values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read range %s: %w", rng, err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, len(raw))
		for i, cell := range raw {
			if cell != nil {
				row[i] = fmt.Sprint(cell)
			}
		}
		rows = append(rows, row)
	}

	c.logger.Debug("Read %d rows from %s", len(rows), rng)
	return rows, nil
}

// Append adds row after the last non-empty row of rng.
func (c *Client) Append(ctx context.Context, rng string, row []string) error {
	vr := &sheets.ValueRange{Values: [][]interface{}{toCells(row)}}
	_, err := c.values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption(valueInputRaw).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append to %s: %w", rng, err)
	}
	return nil
}

// Update overwrites a single cell, e.g. "Sheet1!B7".
func (c *Client) Update(ctx context.Context, cell, value string) error {
	vr := &sheets.ValueRange{Values: [][]interface{}{{value}}}
	_, err := c.values.Update(c.spreadsheetID, cell, vr).
		ValueInputOption(valueInputRaw).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", cell, err)
	}
	return nil
}

func toCells(row []string) []interface{} {
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}
	return cells
}
