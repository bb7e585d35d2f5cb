package ports

import (
	"context"
	"iter"
	"time"

	"NewsCollector/internal/domain"
)

// FeedCatalog supplies the feeds polled by an ingestion run.
type FeedCatalog interface {
	ListFeeds(ctx context.Context) ([]domain.FeedDescriptor, error)
}

// FeedFetcher retrieves one feed and yields its entries in feed order.
type FeedFetcher interface {
	Fetch(ctx context.Context, feed domain.FeedDescriptor) (iter.Seq[domain.ArticleCandidate], error)
}

// ArticleStore is the persistence boundary for articles.
type ArticleStore interface {
	ExistsByURL(ctx context.Context, url string) (bool, error)
	Save(ctx context.Context, article domain.StoredArticle) (domain.StoredArticle, error)
	FindLatest(ctx context.Context, limit int) ([]domain.StoredArticle, error)
	FindByCategory(ctx context.Context, category domain.CategoryID, page, size int) ([]domain.StoredArticle, error)
	SearchByKeyword(ctx context.Context, term string, page, size int) ([]domain.StoredArticle, error)
	FindByID(ctx context.Context, id int64) (domain.StoredArticle, error)
}

// ContentExtractor downloads an article page and returns its readable body text.
type ContentExtractor interface {
	Extract(ctx context.Context, articleURL string) (string, error)
}

// Summarizer produces a short summary of an article. It never fails hard: problems are
// reported through the result status.
type Summarizer interface {
	Summarize(ctx context.Context, articleURL, title string) domain.SummaryResult
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
