package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"catalogsync/internal/logger"
)

// MaxAltTextLength is the longest alt text written back to the store.
const MaxAltTextLength = 125

var ErrNotConfigured = errors.New("Gemini API key not configured")

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

type Generator struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// Gemini API structures
type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content content `json:"content"`
}

func New(cfg Config, logger *logger.Logger) *Generator {
	return &Generator{
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// GenerateAltText asks the model for SEO alt text for one product image.
// It never fails: any error or empty answer yields a text built from the
// product title, variant and image number.
func (g *Generator) GenerateAltText(ctx context.Context, productTitle, variantInfo string, imageIndex int) string {
	prompt := altTextPrompt(productTitle, variantInfo, imageIndex)

	text, err := g.Generate(ctx, prompt)
	if err != nil {
		g.logger.Error("Error generating alt text with Gemini, using fallback: %v", err)
		return truncate(fallbackAltText(productTitle, variantInfo, imageIndex))
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return truncate(fallbackAltText(productTitle, variantInfo, imageIndex))
	}
	return truncate(text)
}

// Generate sends a single-turn prompt and returns the first candidate's text.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.apiKey == "" {
		return "", ErrNotConfigured
	}

	jsonData, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", g.baseURL, g.model, url.QueryEscape(g.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Gemini API error: %d - %s", resp.StatusCode, string(body))
	}

	var genResp generateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from Gemini")
	}

	return genResp.Candidates[0].Content.Parts[0].Text, nil
}

func altTextPrompt(productTitle, variantInfo string, imageIndex int) string {
	variantLine := ""
	if variantInfo != "" {
		variantLine = fmt.Sprintf("Variant details: \"%s\"\n", variantInfo)
	}

	return fmt.Sprintf(`Create an SEO-friendly alt text for an e-commerce product image.
Product title: "%s"
%sImage number: %d

Requirements:
- Make it descriptive and SEO-friendly
- Include the product name
- If variant info is provided, incorporate it naturally
- Keep it under %d characters
- Make it natural and readable
- Focus on what's visible in the image

Return only the alt text, nothing else.`, productTitle, variantLine, imageIndex, MaxAltTextLength)
}

func fallbackAltText(productTitle, variantInfo string, imageIndex int) string {
	return strings.Join(strings.Fields(fmt.Sprintf("%s %s img %d", productTitle, variantInfo, imageIndex)), " ")
}

func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= MaxAltTextLength {
		return s
	}
	return strings.TrimSpace(string(runes[:MaxAltTextLength]))
}
