package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"catalogsync/internal/app"
	"catalogsync/internal/config"
	"catalogsync/internal/jobs"
	"catalogsync/internal/logger"
)

func main() {
	jobName := flag.String("job", "", "job to run: prices, alt-text, redirects or all")
	quiet := flag.Bool("quiet", false, "disable the progress bar")
	flag.Parse()

	kind, err := jobs.ParseKind(*jobName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n\n", err)
		flag.Usage()
		os.Exit(2)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize: %v", err)
	}
	defer a.Close()

	opts := jobs.RunOptions{Trigger: "cli"}
	if !*quiet {
		opts.Progress = newProgressBar(os.Stderr)
	}

	summary, err := a.Runner.Run(ctx, kind, opts)
	if summary != nil {
		fmt.Printf("run %s: %d processed, %d updated, %d skipped, %d not found, %d failed\n",
			summary.RunID, summary.Processed, summary.Updated, summary.Skipped, summary.NotFound, summary.Failed)
	}
	if err != nil {
		logger.Error("Job %s failed: %v", kind, err)
		a.Close()
		os.Exit(1)
	}
}
