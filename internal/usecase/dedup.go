package usecase

import (
	"context"
	"fmt"
	"strings"

	"NewsCollector/internal/ports"
)

// Deduplicator decides whether a URL has been stored before. Every check is a store
// round trip; nothing is cached between runs.
type Deduplicator struct {
	store ports.ArticleStore
}

// NewDeduplicator wires the store used for existence checks.
func NewDeduplicator(store ports.ArticleStore) *Deduplicator {
	return &Deduplicator{store: store}
}

// IsNew reports whether url is unseen. An empty URL is never new.
func (d *Deduplicator) IsNew(ctx context.Context, url string) (bool, error) {
	if strings.TrimSpace(url) == "" {
		return false, nil
	}
	if d == nil || d.store == nil {
		return true, nil
	}

	exists, err := d.store.ExistsByURL(ctx, url)
	if err != nil {
		return false, fmt.Errorf("check %s: %w", url, err)
	}
	return !exists, nil
}
