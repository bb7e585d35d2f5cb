package usecase

import (
	"context"
	"fmt"
	"strings"

	"NewsCollector/internal/domain"
	"NewsCollector/internal/ports"
)

// ArticleView is a stored article with its category label resolved for display.
type ArticleView struct {
	domain.StoredArticle
	Category string
}

// NewsQueries serves the read side of the article store.
type NewsQueries struct {
	store ports.ArticleStore
}

// NewNewsQueries wires the read-side use cases.
func NewNewsQueries(store ports.ArticleStore) *NewsQueries {
	return &NewsQueries{store: store}
}

// Latest returns the most recently collected articles.
func (q *NewsQueries) Latest(ctx context.Context, limit int) ([]ArticleView, error) {
	articles, err := q.store.FindLatest(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("latest articles: %w", err)
	}
	return toViews(articles), nil
}

// ByCategory returns one page of a category. An unknown label yields an empty page.
func (q *NewsQueries) ByCategory(ctx context.Context, label string, page, size int) ([]ArticleView, error) {
	category, ok := domain.LookupCategory(label)
	if !ok {
		return []ArticleView{}, nil
	}

	articles, err := q.store.FindByCategory(ctx, category, page, size)
	if err != nil {
		return nil, fmt.Errorf("articles in %s: %w", category, err)
	}
	return toViews(articles), nil
}

// Search matches keyword against titles and summaries. A blank keyword matches nothing.
func (q *NewsQueries) Search(ctx context.Context, keyword string, page, size int) ([]ArticleView, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return []ArticleView{}, nil
	}

	articles, err := q.store.SearchByKeyword(ctx, keyword, page, size)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", keyword, err)
	}
	return toViews(articles), nil
}

// Detail loads a single article; a missing id wraps domain.ErrNotFound.
func (q *NewsQueries) Detail(ctx context.Context, id int64) (ArticleView, error) {
	article, err := q.store.FindByID(ctx, id)
	if err != nil {
		return ArticleView{}, fmt.Errorf("article detail: %w", err)
	}
	return toView(article), nil
}

func toViews(articles []domain.StoredArticle) []ArticleView {
	views := make([]ArticleView, 0, len(articles))
	for _, article := range articles {
		views = append(views, toView(article))
	}
	return views
}

func toView(article domain.StoredArticle) ArticleView {
	label, _ := article.CategoryID.Label()
	return ArticleView{StoredArticle: article, Category: label}
}
