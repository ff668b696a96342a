package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"catalogsync/internal/logger"
)

type Config struct {
	Endpoint    string
	AccessToken string
	MaxRetries  int
	RetryDelay  time.Duration
	PageDelay   time.Duration
}

// Client talks to the Shopify Admin GraphQL API.
type Client struct {
	endpoint    string
	accessToken string
	maxRetries  int
	retryDelay  time.Duration
	pageDelay   time.Duration
	httpClient  *http.Client
	logger      *logger.Logger
}

func NewClient(cfg Config, logger *logger.Logger) *Client {
	retries := cfg.MaxRetries
	if retries < 1 {
		retries = 1
	}
	return &Client{
		endpoint:    cfg.Endpoint,
		accessToken: cfg.AccessToken,
		maxRetries:  retries,
		retryDelay:  cfg.RetryDelay,
		pageDelay:   cfg.PageDelay,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage      `json:"data"`
	Errors []GraphQLErrorDetail `json:"errors,omitempty"`
}

// execute runs one GraphQL operation and decodes its data into out.
func (c *Client) execute(ctx context.Context, query string, variables map[string]interface{}, out interface{}) error {
	payload, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API request failed: %d - %s", resp.StatusCode, string(body))
	}

	var gqlResp graphQLResponse
	if err := json.Unmarshal(body, &gqlResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if len(gqlResp.Errors) > 0 {
		return &GraphQLError{Errors: gqlResp.Errors}
	}
	if out == nil || len(gqlResp.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(gqlResp.Data, out); err != nil {
		return fmt.Errorf("failed to decode data: %w", err)
	}
	return nil
}

// mutate runs a mutation up to maxRetries times, waiting retryDelay*attempt
// between failed attempts. userErrors is read after a successful round trip;
// any reported user error stops the loop.
func (c *Client) mutate(ctx context.Context, action, query string, variables map[string]interface{}, out interface{}, userErrors func() []UserError) error {
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		c.logger.Debug("Attempt %d - %s", attempt, action)

		err := c.execute(ctx, query, variables, out)
		if err == nil {
			if ue := userErrors(); len(ue) > 0 {
				return &UserErrorsError{Action: action, Errors: ue}
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		lastErr = err
		c.logger.Warn("Attempt %d of %s failed: %v", attempt, action, err)
		if attempt < c.maxRetries {
			if err := sleep(ctx, c.retryDelay*time.Duration(attempt)); err != nil {
				return err
			}
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", action, c.maxRetries, lastErr)
}

type variantsResult[T any] struct {
	ProductVariants Connection[T] `json:"productVariants"`
}

// FetchVariantBySKU returns the first variant whose SKU matches.
func (c *Client) FetchVariantBySKU(ctx context.Context, sku string) (*Variant, error) {
	c.logger.Debug("Fetching variant for SKU: %s", sku)

	var data variantsResult[Variant]
	if err := c.execute(ctx, variantBySKUQuery, map[string]interface{}{"query": skuQuery(sku)}, &data); err != nil {
		return nil, fmt.Errorf("fetch variant %s: %w", sku, err)
	}
	nodes := data.ProductVariants.Nodes()
	if len(nodes) == 0 {
		return nil, ErrNotFound
	}
	return &nodes[0], nil
}

// FetchProductDetailsBySKU returns the variant with its product's media and sibling variants.
func (c *Client) FetchProductDetailsBySKU(ctx context.Context, sku string) (*VariantDetails, error) {
	c.logger.Debug("Fetching product details for SKU: %s", sku)

	var data variantsResult[VariantDetails]
	if err := c.execute(ctx, productDetailsBySKUQuery, map[string]interface{}{"query": skuQuery(sku)}, &data); err != nil {
		return nil, fmt.Errorf("fetch product details %s: %w", sku, err)
	}
	nodes := data.ProductVariants.Nodes()
	if len(nodes) == 0 {
		return nil, ErrNotFound
	}
	return &nodes[0], nil
}

// UpdateVariantPrice sets price and compare-at price. An empty compareAt clears it.
func (c *Client) UpdateVariantPrice(ctx context.Context, variantID, price, compareAt string) (*Variant, error) {
	input := map[string]interface{}{
		"id":             variantID,
		"price":          price,
		"compareAtPrice": nil,
	}
	if compareAt != "" {
		input["compareAtPrice"] = compareAt
	}

	var data struct {
		ProductVariantUpdate struct {
			ProductVariant *Variant    `json:"productVariant"`
			UserErrors     []UserError `json:"userErrors"`
		} `json:"productVariantUpdate"`
	}
	err := c.mutate(ctx, "productVariantUpdate", variantUpdateMutation,
		map[string]interface{}{"input": input}, &data,
		func() []UserError { return data.ProductVariantUpdate.UserErrors })
	if err != nil {
		return nil, err
	}
	if data.ProductVariantUpdate.ProductVariant == nil {
		return nil, fmt.Errorf("productVariantUpdate returned no variant for %s", variantID)
	}
	return data.ProductVariantUpdate.ProductVariant, nil
}

// UpdateMediaAlt replaces the alt text of a single media item.
func (c *Client) UpdateMediaAlt(ctx context.Context, mediaID, alt string) error {
	var data struct {
		MediaUpdate struct {
			MediaUserErrors []UserError `json:"mediaUserErrors"`
		} `json:"mediaUpdate"`
	}
	variables := map[string]interface{}{
		"media": []map[string]string{{"id": mediaID, "alt": alt}},
	}
	return c.mutate(ctx, "mediaUpdate", mediaUpdateMutation, variables, &data,
		func() []UserError { return data.MediaUpdate.MediaUserErrors })
}

func (c *Client) FetchAllProducts(ctx context.Context) ([]CatalogProduct, error) {
	return fetchAll[CatalogProduct](ctx, c, productsPageQuery, "products")
}

func (c *Client) FetchAllCollections(ctx context.Context) ([]Collection, error) {
	return fetchAll[Collection](ctx, c, collectionsPageQuery, "collections")
}

// fetchAll walks every page of the root connection.
func fetchAll[T any](ctx context.Context, c *Client, query, root string) ([]T, error) {
	var items []T
	var cursor *string
	for {
		var data map[string]Connection[T]
		if err := c.execute(ctx, query, map[string]interface{}{"cursor": cursor}, &data); err != nil {
			return nil, fmt.Errorf("fetch %s: %w", root, err)
		}
		conn, ok := data[root]
		if !ok {
			return nil, fmt.Errorf("fetch %s: missing %q in response", root, root)
		}
		items = append(items, conn.Nodes()...)
		c.logger.Info("Fetched %d %s so far...", len(items), root)

		if !conn.PageInfo.HasNextPage || conn.PageInfo.EndCursor == "" {
			break
		}
		next := conn.PageInfo.EndCursor
		cursor = &next

		if err := sleep(ctx, c.pageDelay); err != nil {
			return nil, err
		}
	}
	c.logger.Info("Total %s fetched: %d", root, len(items))
	return items, nil
}

// skuQuery builds a search expression, quoting SKUs that contain spaces or colons.
func skuQuery(sku string) string {
	if strings.ContainsAny(sku, " :\"") {
		return fmt.Sprintf("sku:%q", sku)
	}
	return "sku:" + sku
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
