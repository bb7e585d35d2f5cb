package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"NewsCollector/internal/app"
	"NewsCollector/internal/config"
	"NewsCollector/internal/logging"
)

func main() {
	once := flag.Bool("once", false, "run a single collection and exit")
	category := flag.String("category", "", "restrict a single collection to one category label")
	migrate := flag.Bool("migrate", false, "apply database migrations before starting")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	if *migrate {
		cfg.Database.Migrate = true
	}
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("application init failed", "error", err)
		stop()
		os.Exit(1)
	}

	runErr := run(ctx, application, *once, *category)
	if err := application.Close(); err != nil {
		logger.Error("close application", "error", err)
	}
	if runErr != nil {
		logger.Error("application stopped", "error", runErr)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, application *app.Application, once bool, category string) error {
	switch {
	case category != "":
		_, err := application.CollectCategory(ctx, category)
		return err
	case once:
		_, err := application.Collect(ctx)
		return err
	default:
		return application.Run(ctx)
	}
}
