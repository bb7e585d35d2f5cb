package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"NewsCollector/internal/config"
	"NewsCollector/internal/domain"
	"NewsCollector/internal/infrastructure/extractor"
	"NewsCollector/internal/infrastructure/feed"
	"NewsCollector/internal/infrastructure/llm"
	"NewsCollector/internal/infrastructure/scheduler"
	"NewsCollector/internal/infrastructure/storage"
	"NewsCollector/internal/logging"
	"NewsCollector/internal/ports"
	"NewsCollector/internal/summarizer"
	"NewsCollector/internal/usecase"
)

const shutdownTimeout = 30 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	db        *sql.DB
	pipeline  *usecase.Pipeline
	queries   *usecase.NewsQueries
	scheduler *usecase.Scheduler
	logger    *slog.Logger
}

// New builds the application: Postgres when a DSN is configured, memory otherwise.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	app := &Application{cfg: cfg, logger: baseLogger.With("component", "app")}

	store, catalog, err := app.buildStorage(ctx, baseLogger)
	if err != nil {
		return nil, err
	}

	fetcher := feed.NewFetcher(feed.Options{
		Client:       &http.Client{Timeout: cfg.Fetcher.Timeout},
		UserAgent:    cfg.Fetcher.UserAgent,
		HostInterval: cfg.Fetcher.HostInterval,
		Location:     cfg.Scheduler.Location(),
		Logger:       baseLogger.With("component", "feed.fetcher"),
	})

	pageExtractor := extractor.New(
		&http.Client{Timeout: cfg.Extractor.Timeout},
		cfg.Extractor.MaxChars,
		baseLogger.With("component", "extractor"),
	)

	if cfg.Gemini.APIKey == "" {
		app.logger.Warn("gemini api key is empty, summaries will fall back to feed content")
	}
	gateway := summarizer.NewGateway(
		llm.NewGeminiClient(cfg.Gemini),
		summarizer.PolicyFromConfig(cfg.Gemini),
		baseLogger.With("component", "summarizer"),
		summarizer.WithExtractor(pageExtractor),
	)

	app.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Catalog:     catalog,
		Fetcher:     fetcher,
		Store:       store,
		Summarizer:  gateway,
		Parallelism: cfg.Fetcher.Parallelism,
		Logger:      baseLogger.With("component", "pipeline"),
	})
	app.queries = usecase.NewNewsQueries(store)

	driver := scheduler.NewTickerScheduler(
		cfg.Scheduler.Interval,
		cfg.Scheduler.ShouldRunOnStart(),
		cfg.Scheduler.Location(),
		baseLogger.With("component", "scheduler.ticker"),
	)
	app.scheduler = usecase.NewScheduler(driver, app.pipeline, baseLogger.With("component", "scheduler"))

	return app, nil
}

func (a *Application) buildStorage(ctx context.Context, baseLogger *slog.Logger) (ports.ArticleStore, ports.FeedCatalog, error) {
	staticCatalog := feed.NewStaticCatalog(a.cfg.Feeds, baseLogger.With("component", "catalog.static"))

	if a.cfg.Database.DSN == "" {
		if a.cfg.Catalog.Source == config.CatalogSourceDatabase {
			return nil, nil, fmt.Errorf("catalog source %q requires a database dsn", config.CatalogSourceDatabase)
		}
		a.logger.Warn("no database dsn configured, articles are kept in memory")
		return storage.NewMemoryRepository(nil), staticCatalog, nil
	}

	db, err := storage.Open(ctx, a.cfg.Database.DSN)
	if err != nil {
		return nil, nil, err
	}
	a.db = db

	if a.cfg.Database.Migrate {
		if err := storage.Migrate(db, baseLogger.With("component", "storage.migrate")); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
	}

	var catalog ports.FeedCatalog = staticCatalog
	if a.cfg.Catalog.Source == config.CatalogSourceDatabase {
		catalog = storage.NewPostgresCatalog(db, baseLogger.With("component", "catalog.postgres"))
	}
	return storage.NewPostgresRepository(db), catalog, nil
}

// Collect performs a single collection over every feed.
func (a *Application) Collect(ctx context.Context) (string, error) {
	return a.pipeline.Collect(ctx)
}

// CollectCategory performs a single collection restricted to one category.
func (a *Application) CollectCategory(ctx context.Context, label string) (domain.BatchReport, error) {
	return a.pipeline.RunCategory(ctx, label)
}

// Queries exposes the read side of the store.
func (a *Application) Queries() *usecase.NewsQueries {
	return a.queries
}

// Run starts periodic collection and blocks until ctx is done.
func (a *Application) Run(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("collector running", "interval", a.cfg.Scheduler.Interval, "feeds", len(a.cfg.Feeds))

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.scheduler.Stop(stopCtx); err != nil {
		return fmt.Errorf("stop scheduler: %w", err)
	}
	return nil
}

// Close releases the database connection, if any.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
