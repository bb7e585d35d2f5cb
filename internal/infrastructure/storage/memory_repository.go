package storage

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"NewsCollector/internal/domain"
	"NewsCollector/internal/ports"
)

// MemoryRepository keeps articles in process memory with the same contract as Postgres.
type MemoryRepository struct {
	mu       sync.RWMutex
	nextID   int64
	byID     map[int64]domain.StoredArticle
	urlIndex map[string]int64
	now      func() time.Time
}

var _ ports.ArticleStore = (*MemoryRepository)(nil)

// NewMemoryRepository returns an empty store. A nil clock uses time.Now.
func NewMemoryRepository(now func() time.Time) *MemoryRepository {
	if now == nil {
		now = time.Now
	}
	return &MemoryRepository{
		byID:     make(map[int64]domain.StoredArticle),
		urlIndex: make(map[string]int64),
		now:      now,
	}
}

// ExistsByURL reports whether an article with this URL is already stored.
func (m *MemoryRepository) ExistsByURL(_ context.Context, url string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.urlIndex[url]
	return ok, nil
}

// Save stores the article with the next id. A URL already present yields ErrDuplicateURL.
func (m *MemoryRepository) Save(_ context.Context, article domain.StoredArticle) (domain.StoredArticle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.urlIndex[article.URL]; ok {
		return domain.StoredArticle{}, fmt.Errorf("save %s: %w", article.URL, domain.ErrDuplicateURL)
	}

	m.nextID++
	article.ID = m.nextID
	article.CollectedAt = m.now()
	m.byID[article.ID] = article
	m.urlIndex[article.URL] = article.ID
	return article, nil
}

// FindLatest returns the most recently collected articles.
func (m *MemoryRepository) FindLatest(_ context.Context, limit int) ([]domain.StoredArticle, error) {
	if limit <= 0 {
		limit = defaultPage
	}
	sorted := m.sorted(nil)
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

// FindByCategory returns one page of a category, newest first. Pages start at 0.
func (m *MemoryRepository) FindByCategory(_ context.Context, category domain.CategoryID, page, size int) ([]domain.StoredArticle, error) {
	matches := m.sorted(func(a domain.StoredArticle) bool { return a.CategoryID == category })
	return pageOf(matches, page, size), nil
}

// SearchByKeyword matches the term against title and summary, case-insensitively.
func (m *MemoryRepository) SearchByKeyword(_ context.Context, term string, page, size int) ([]domain.StoredArticle, error) {
	needle := strings.ToLower(strings.TrimSpace(term))
	matches := m.sorted(func(a domain.StoredArticle) bool {
		return strings.Contains(strings.ToLower(a.Title), needle) ||
			strings.Contains(strings.ToLower(a.Summary), needle)
	})
	return pageOf(matches, page, size), nil
}

// FindByID loads one article or returns ErrNotFound.
func (m *MemoryRepository) FindByID(_ context.Context, id int64) (domain.StoredArticle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	article, ok := m.byID[id]
	if !ok {
		return domain.StoredArticle{}, fmt.Errorf("article %d: %w", id, domain.ErrNotFound)
	}
	return article, nil
}

// Len returns the number of stored articles.
func (m *MemoryRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}

// sorted returns matching articles ordered by collection time, newest first.
func (m *MemoryRepository) sorted(keep func(domain.StoredArticle) bool) []domain.StoredArticle {
	m.mu.RLock()
	out := make([]domain.StoredArticle, 0, len(m.byID))
	for _, article := range m.byID {
		if keep == nil || keep(article) {
			out = append(out, article)
		}
	}
	m.mu.RUnlock()

	slices.SortFunc(out, func(a, b domain.StoredArticle) int {
		if c := b.CollectedAt.Compare(a.CollectedAt); c != 0 {
			return c
		}
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})
	return out
}

func pageOf(articles []domain.StoredArticle, page, size int) []domain.StoredArticle {
	page, size = normalizePage(page, size)
	start := page * size
	if start >= len(articles) {
		return []domain.StoredArticle{}
	}
	end := min(start+size, len(articles))
	return articles[start:end]
}
