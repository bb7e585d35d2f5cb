package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"NewsCollector/internal/domain"
	"NewsCollector/internal/logging"
	"NewsCollector/internal/ports"
)

// PostgresCatalog lists feeds from the feeds table.
type PostgresCatalog struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ ports.FeedCatalog = (*PostgresCatalog)(nil)

// NewPostgresCatalog wires a sql.DB backed feed catalog.
func NewPostgresCatalog(db *sql.DB, log *slog.Logger) *PostgresCatalog {
	return &PostgresCatalog{db: db, logger: logging.OrDiscard(log)}
}

// ListFeeds returns every feed row with a non-empty URL, grouped by category.
func (c *PostgresCatalog) ListFeeds(ctx context.Context) ([]domain.FeedDescriptor, error) {
	query, args, err := feedsQuery().ToSql()
	if err != nil {
		return nil, fmt.Errorf("build feeds query: %w", err)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query feeds: %w", err)
	}
	defer rows.Close()

	var feeds []domain.FeedDescriptor
	for rows.Next() {
		var feed domain.FeedDescriptor
		if err := rows.Scan(&feed.URL, &feed.Category, &feed.SourceName); err != nil {
			return nil, fmt.Errorf("scan feed: %w", err)
		}
		feed.URL = strings.TrimSpace(feed.URL)
		if feed.URL == "" {
			continue
		}
		feeds = append(feeds, feed)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	c.logger.Debug("database catalog listed", "feeds", len(feeds))
	return feeds, nil
}

func feedsQuery() sq.SelectBuilder {
	return psql.Select("url", "category", "source_name").
		From("feeds").
		Where(sq.NotEq{"url": ""}).
		OrderBy("category", "id")
}
