package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrDuplicateURL is returned by stores when an article with the same URL already exists.
	ErrDuplicateURL = errors.New("article url already stored")
	// ErrNotFound is returned by lookups that match no row.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArticle marks candidates that can never be persisted (no URL or no title).
	ErrInvalidArticle = errors.New("invalid article")
)

// PlaceholderContent replaces the body of feed entries that carry no description.
const PlaceholderContent = "Content not available in RSS feed. Please visit the article URL for full content."

// FeedDescriptor identifies one external RSS source to poll.
type FeedDescriptor struct {
	URL        string
	Category   string
	SourceName string
}

// ArticleCandidate is a parsed feed entry that has not been persisted yet.
type ArticleCandidate struct {
	SourceName  string
	Title       string
	Summary     string
	PublishedAt *time.Time
	URL         string
	CategoryID  CategoryID
}

// Validate reports whether the candidate carries the fields storage requires.
func (c ArticleCandidate) Validate() error {
	if strings.TrimSpace(c.URL) == "" {
		return errors.Join(ErrInvalidArticle, errors.New("missing url"))
	}
	if strings.TrimSpace(c.Title) == "" {
		return errors.Join(ErrInvalidArticle, errors.New("missing title"))
	}
	return nil
}

// StoredArticle is the durable form of an article.
type StoredArticle struct {
	ID          int64
	SourceName  string
	Title       string
	Summary     string
	URL         string
	CategoryID  CategoryID
	CreatedAt   *time.Time
	CollectedAt time.Time
}

// ToStored converts the candidate into a row ready for insertion. Unresolved categories
// fall back to CategoryUncategorized.
func (c ArticleCandidate) ToStored() StoredArticle {
	category := c.CategoryID
	if !category.Valid() {
		category = CategoryUncategorized
	}
	return StoredArticle{
		SourceName: c.SourceName,
		Title:      c.Title,
		Summary:    c.Summary,
		URL:        c.URL,
		CategoryID: category,
		CreatedAt:  c.PublishedAt,
	}
}

// BatchReport aggregates per-article outcomes of one ingestion run.
type BatchReport struct {
	RunID            string
	Feeds            int
	FailedFeeds      int
	Fetched          int
	Succeeded        int
	SkippedDuplicate int
	SkippedInvalid   int
	Errored          int
	SummaryFallbacks int
	StartedAt        time.Time
	FinishedAt       time.Time
}

// Duration returns the wall time spent on the run.
func (r BatchReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
