package app

import (
	"context"
	"fmt"

	"catalogsync/internal/api"
	"catalogsync/internal/config"
	"catalogsync/internal/database"
	"catalogsync/internal/jobs"
	"catalogsync/internal/logger"
	"catalogsync/internal/services/gemini"
	"catalogsync/internal/services/sheets"
	"catalogsync/internal/services/shopify"
	"catalogsync/internal/worker"

	"google.golang.org/api/option"
)

// App wires together the clients, the run store and the job runner shared by
// every binary.
type App struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        *database.Database
	Store     *database.Store
	Runner    *jobs.Runner
	Publisher *worker.Publisher
}

// Build connects to the database and creates the external API clients.
// sheetOpts are passed to the Sheets client after the credentials option.
func Build(ctx context.Context, cfg *config.Config, logger *logger.Logger, sheetOpts ...option.ClientOption) (*App, error) {
	db, err := database.New(cfg.DatabaseURL, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	store := database.NewStore(db)

	catalog := shopify.NewClient(shopify.Config{
		Endpoint:    cfg.ShopifyEndpoint(),
		AccessToken: cfg.ShopifyAccessToken,
		MaxRetries:  cfg.MaxRetries,
		RetryDelay:  cfg.RetryDelay,
		PageDelay:   cfg.PageDelay,
	}, logger.WithField("component", "shopify"))

	sheet, err := sheets.New(ctx, sheets.Config{
		SpreadsheetID:   cfg.SpreadsheetID,
		CredentialsFile: cfg.CredentialsFile,
	}, logger.WithField("component", "sheets"), sheetOpts...)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}

	if cfg.GeminiAPIKey == "" {
		logger.Warn("GEMINI_API_KEY is not set, alt text will use the fallback format")
	}
	generator := gemini.New(gemini.Config{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		BaseURL: cfg.GeminiBaseURL,
	}, logger.WithField("component", "gemini"))

	runner := jobs.NewRunner(JobConfig(cfg), catalog, sheet, generator, store, logger)

	a := &App{
		Config: cfg,
		Logger: logger,
		DB:     db,
		Store:  store,
		Runner: runner,
	}
	if cfg.AsyncEnabled() {
		a.Publisher = worker.NewPublisher(cfg, logger)
		logger.Info("Async jobs enabled on topic %s", cfg.KafkaTopic)
	}
	return a, nil
}

// JobConfig maps the environment settings onto the job runner.
func JobConfig(cfg *config.Config) jobs.Config {
	return jobs.Config{
		PriceRange:           cfg.PriceRange,
		AltTextRange:         cfg.AltTextRange,
		RedirectRange:        cfg.RedirectRange,
		MissingSKURange:      cfg.MissingSKURange,
		AltTextLogRange:      cfg.AltTextLogRange,
		RedirectColumn:       cfg.RedirectColumn,
		ItemDelay:            cfg.ItemDelay,
		ProductDelay:         cfg.ProductDelay,
		MatchThreshold:       cfg.MatchThreshold,
		HomeRedirectKeywords: cfg.HomeRedirectKeywords,
	}
}

// APIDeps returns the HTTP collaborators. The publisher is left unset when
// async jobs are disabled.
func (a *App) APIDeps() api.Deps {
	deps := api.Deps{
		Runner: a.Runner,
		Store:  a.Store,
	}
	if a.Publisher != nil {
		deps.Publisher = a.Publisher
	}
	return deps
}

func (a *App) Close() error {
	if a.Publisher != nil {
		if err := a.Publisher.Close(); err != nil {
			a.Logger.Error("Failed to close publisher: %v", err)
		}
	}
	return a.DB.Close()
}
