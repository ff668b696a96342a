package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DatabaseURL string

	// Kafka
	KafkaBrokers []string
	KafkaTopic   string

	// API Configuration
	APIPort     string
	APIHost     string
	CORSOrigins []string

	// Shopify
	ShopifyShopName    string
	ShopifyAccessToken string
	ShopifyAPIVersion  string
	ShopifyBaseURL     string

	// Google Sheets
	SpreadsheetID   string
	CredentialsFile string

	// Gemini
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	// Sheet ranges
	PriceRange      string
	AltTextRange    string
	RedirectRange   string
	MissingSKURange string
	AltTextLogRange string
	RedirectColumn  string

	// Batch pacing
	ItemDelay    time.Duration
	ProductDelay time.Duration
	PageDelay    time.Duration
	RetryDelay   time.Duration
	MaxRetries   int

	// Redirect matching
	MatchThreshold       float64
	HomeRedirectKeywords []string

	// Environment
	Env      string
	LogLevel string
}

func Load() (*Config, error) {
	// Load .env file
	godotenv.Load()

	cfg := &Config{
		DatabaseURL:          getEnv("DATABASE_URL", "sqlite://catalogsync.db"),
		KafkaBrokers:         getEnvAsList("KAFKA_BROKERS", nil),
		KafkaTopic:           getEnv("KAFKA_TOPIC", "catalog-jobs"),
		APIPort:              getEnv("API_PORT", "8700"),
		APIHost:              getEnv("API_HOST", "0.0.0.0"),
		CORSOrigins:          getEnvAsList("CORS_ORIGINS", []string{"*"}),
		ShopifyShopName:      getEnv("SHOPIFY_SHOP_NAME", "shopfls"),
		ShopifyAccessToken:   getEnv("SHOPIFY_ADMIN_ACCESS_TOKEN", ""),
		ShopifyAPIVersion:    getEnv("SHOPIFY_API_VERSION", "2024-01"),
		ShopifyBaseURL:       getEnv("SHOPIFY_BASE_URL", ""),
		SpreadsheetID:        getEnv("GOOGLE_SHEET_ID", ""),
		CredentialsFile:      getEnv("GOOGLE_CREDENTIALS_FILE", "credentials.json"),
		GeminiAPIKey:         getEnv("GEMINI_API_KEY", ""),
		GeminiModel:          getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiBaseURL:        getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		PriceRange:           getEnv("PRICE_RANGE", "Sheet1!A:C"),
		AltTextRange:         getEnv("ALT_TEXT_RANGE", "Sheet1!A:A"),
		RedirectRange:        getEnv("REDIRECT_RANGE", "Sheet1!A:B"),
		MissingSKURange:      getEnv("MISSING_SKU_RANGE", "Missing SKU on Website!A:A"),
		AltTextLogRange:      getEnv("ALT_TEXT_LOG_RANGE", "Alt Text Tracking!A:C"),
		RedirectColumn:       getEnv("REDIRECT_COLUMN", "B"),
		ItemDelay:            getEnvAsDuration("ITEM_DELAY", time.Second),
		ProductDelay:         getEnvAsDuration("PRODUCT_DELAY", 2*time.Second),
		PageDelay:            getEnvAsDuration("PAGE_DELAY", 500*time.Millisecond),
		RetryDelay:           getEnvAsDuration("RETRY_DELAY", 2*time.Second),
		MaxRetries:           getEnvAsInt("MAX_RETRIES", 3),
		MatchThreshold:       getEnvAsFloat("MATCH_THRESHOLD", 0.3),
		HomeRedirectKeywords: getEnvAsList("HOME_REDIRECT_KEYWORDS", []string{"abdos"}),
		Env:                  getEnv("ENV", "development"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
	}

	if cfg.MaxRetries < 1 {
		return nil, fmt.Errorf("MAX_RETRIES must be at least 1, got %d", cfg.MaxRetries)
	}

	return cfg, nil
}

// Validate reports the required settings that are still empty.
func (c *Config) Validate() error {
	var missing []string
	if c.ShopifyAccessToken == "" {
		missing = append(missing, "SHOPIFY_ADMIN_ACCESS_TOKEN")
	}
	if c.SpreadsheetID == "" {
		missing = append(missing, "GOOGLE_SHEET_ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ShopifyEndpoint is the admin GraphQL URL for the configured shop.
func (c *Config) ShopifyEndpoint() string {
	base := c.ShopifyBaseURL
	if base == "" {
		base = fmt.Sprintf("https://%s.myshopify.com", c.ShopifyShopName)
	}
	return fmt.Sprintf("%s/admin/api/%s/graphql.json", strings.TrimSuffix(base, "/"), c.ShopifyAPIVersion)
}

func (c *Config) AsyncEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
