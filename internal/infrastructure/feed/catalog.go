package feed

import (
	"context"
	"log/slog"
	"strings"

	"NewsCollector/internal/config"
	"NewsCollector/internal/domain"
	"NewsCollector/internal/logging"
	"NewsCollector/internal/ports"
)

// StaticCatalog implements FeedCatalog from config-defined feeds.
type StaticCatalog struct {
	feeds  []config.FeedConfig
	logger *slog.Logger
}

var _ ports.FeedCatalog = (*StaticCatalog)(nil)

// NewStaticCatalog wires config-defined feeds.
func NewStaticCatalog(feeds []config.FeedConfig, log *slog.Logger) *StaticCatalog {
	return &StaticCatalog{
		feeds:  feeds,
		logger: logging.OrDiscard(log),
	}
}

// ListFeeds returns every configured feed that has a URL.
func (s *StaticCatalog) ListFeeds(_ context.Context) ([]domain.FeedDescriptor, error) {
	descriptors := make([]domain.FeedDescriptor, 0, len(s.feeds))
	for _, feed := range s.feeds {
		if strings.TrimSpace(feed.URL) == "" {
			s.logger.Warn("skip feed without url", "source", feed.Source, "category", feed.Category)
			continue
		}
		descriptors = append(descriptors, domain.FeedDescriptor{
			URL:        strings.TrimSpace(feed.URL),
			Category:   feed.Category,
			SourceName: feed.Source,
		})
	}

	s.logger.Debug("static catalog listed", "feeds", len(descriptors))
	return descriptors, nil
}
