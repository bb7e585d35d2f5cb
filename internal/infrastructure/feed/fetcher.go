package feed

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"NewsCollector/internal/domain"
	"NewsCollector/internal/logging"
	"NewsCollector/internal/ports"
)

// Fetcher downloads RSS/Atom feeds and normalizes their entries into candidates.
type Fetcher struct {
	client    *http.Client
	limiter   *HostLimiter
	userAgent string
	location  *time.Location
	logger    *slog.Logger
}

var _ ports.FeedFetcher = (*Fetcher)(nil)

// Options configures a Fetcher. Zero values fall back to sane defaults.
type Options struct {
	Client       *http.Client
	UserAgent    string
	HostInterval time.Duration
	Location     *time.Location
	Logger       *slog.Logger
}

// NewFetcher wires an HTTP client and a per-host limiter.
func NewFetcher(opts Options) *Fetcher {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = "NewsCollector/1.0"
	}
	location := opts.Location
	if location == nil {
		location = time.UTC
	}
	return &Fetcher{
		client:    client,
		limiter:   NewHostLimiter(opts.HostInterval),
		userAgent: userAgent,
		location:  location,
		logger:    logging.OrDiscard(opts.Logger),
	}
}

// Fetch downloads and parses the feed. Entries are converted lazily, in feed order.
func (f *Fetcher) Fetch(ctx context.Context, desc domain.FeedDescriptor) (iter.Seq[domain.ArticleCandidate], error) {
	if strings.TrimSpace(desc.URL) == "" {
		return nil, fmt.Errorf("feed %s/%s has no url", desc.SourceName, desc.Category)
	}

	if err := f.limiter.Wait(ctx, desc.URL); err != nil {
		return nil, fmt.Errorf("wait for host: %w", err)
	}

	parsed, err := f.download(ctx, desc.URL)
	if err != nil {
		return nil, err
	}

	category, ok := domain.LookupCategory(desc.Category)
	if !ok {
		f.logger.Debug("feed category not in taxonomy", "category", desc.Category, "source", desc.SourceName)
		category = domain.CategoryNone
	}

	f.logger.Debug("feed parsed", "url", desc.URL, "title", parsed.Title, "items", len(parsed.Items))

	return func(yield func(domain.ArticleCandidate) bool) {
		for _, item := range parsed.Items {
			if item == nil {
				continue
			}
			if !yield(f.toCandidate(item, desc, category)) {
				return
			}
		}
	}, nil
}

func (f *Fetcher) download(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("feed %s returned %s", feedURL, resp.Status)
	}

	// gofeed parsers keep per-document state, so each download gets its own.
	parsed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return parsed, nil
}

func (f *Fetcher) toCandidate(item *gofeed.Item, desc domain.FeedDescriptor, category domain.CategoryID) domain.ArticleCandidate {
	return domain.ArticleCandidate{
		SourceName:  desc.SourceName,
		Title:       CleanText(item.Title),
		Summary:     description(item),
		PublishedAt: f.publishedAt(item),
		URL:         itemLink(item),
		CategoryID:  category,
	}
}

func (f *Fetcher) publishedAt(item *gofeed.Item) *time.Time {
	ts := item.PublishedParsed
	if ts == nil {
		ts = item.UpdatedParsed
	}
	if ts == nil {
		return nil
	}
	local := ts.In(f.location)
	return &local
}

func description(item *gofeed.Item) string {
	for _, raw := range []string{item.Description, item.Content} {
		if text := CleanText(raw); text != "" {
			return text
		}
	}
	return domain.PlaceholderContent
}

func itemLink(item *gofeed.Item) string {
	if link := strings.TrimSpace(item.Link); link != "" {
		return link
	}
	for _, link := range item.Links {
		if link = strings.TrimSpace(link); link != "" {
			return link
		}
	}
	return ""
}
