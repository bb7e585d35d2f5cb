package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"NewsCollector/internal/domain"
	"NewsCollector/internal/ports"
)

const (
	articlesTable = "articles"
	defaultPage   = 20
)

var articleColumns = []string{
	"id", "source_name", "title", "summary", "url", "category_id", "created_at", "collected_at",
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresRepository persists articles into Postgres.
type PostgresRepository struct {
	db *sql.DB
}

var _ ports.ArticleStore = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ExistsByURL reports whether an article with this URL is already stored.
func (r *PostgresRepository) ExistsByURL(ctx context.Context, url string) (bool, error) {
	query, args, err := existsQuery(url).ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}

	return scanExists(r.db.QueryRowContext(ctx, query, args...))
}

// Save inserts the article. A concurrent insert of the same URL yields ErrDuplicateURL.
func (r *PostgresRepository) Save(ctx context.Context, article domain.StoredArticle) (domain.StoredArticle, error) {
	query, args, err := insertQuery(article).ToSql()
	if err != nil {
		return domain.StoredArticle{}, fmt.Errorf("build insert: %w", err)
	}

	return scanInserted(r.db.QueryRowContext(ctx, query, args...), article)
}

// FindLatest returns the most recently collected articles.
func (r *PostgresRepository) FindLatest(ctx context.Context, limit int) ([]domain.StoredArticle, error) {
	return r.list(ctx, latestQuery(limit))
}

// FindByCategory returns one page of a category, newest first. Pages start at 0.
func (r *PostgresRepository) FindByCategory(ctx context.Context, category domain.CategoryID, page, size int) ([]domain.StoredArticle, error) {
	return r.list(ctx, categoryQuery(category, page, size))
}

// SearchByKeyword matches the term against title and summary, case-insensitively.
func (r *PostgresRepository) SearchByKeyword(ctx context.Context, term string, page, size int) ([]domain.StoredArticle, error) {
	return r.list(ctx, searchQuery(term, page, size))
}

// FindByID loads one article or returns ErrNotFound.
func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (domain.StoredArticle, error) {
	query, args, err := selectArticles().Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.StoredArticle{}, fmt.Errorf("build find query: %w", err)
	}

	article, err := scanArticle(r.db.QueryRowContext(ctx, query, args...))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return domain.StoredArticle{}, fmt.Errorf("article %d: %w", id, domain.ErrNotFound)
	case err != nil:
		return domain.StoredArticle{}, fmt.Errorf("find article: %w", err)
	}
	return article, nil
}

func (r *PostgresRepository) list(ctx context.Context, builder sq.SelectBuilder) ([]domain.StoredArticle, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	articles := make([]domain.StoredArticle, 0)
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return articles, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExists(row rowScanner) (bool, error) {
	var one int
	err := row.Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("query exists: %w", err)
	}
	return true, nil
}

// scanInserted reads the RETURNING row of an insert. No row means ON CONFLICT skipped it.
func scanInserted(row rowScanner, article domain.StoredArticle) (domain.StoredArticle, error) {
	err := row.Scan(&article.ID, &article.CollectedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return domain.StoredArticle{}, fmt.Errorf("save %s: %w", article.URL, domain.ErrDuplicateURL)
	case err != nil:
		return domain.StoredArticle{}, fmt.Errorf("insert article: %w", err)
	}
	return article, nil
}

func scanArticle(row rowScanner) (domain.StoredArticle, error) {
	var (
		article   domain.StoredArticle
		category  int
		createdAt sql.NullTime
	)
	if err := row.Scan(
		&article.ID,
		&article.SourceName,
		&article.Title,
		&article.Summary,
		&article.URL,
		&category,
		&createdAt,
		&article.CollectedAt,
	); err != nil {
		return domain.StoredArticle{}, err
	}
	article.CategoryID = domain.CategoryID(category)
	if createdAt.Valid {
		t := createdAt.Time
		article.CreatedAt = &t
	}
	return article, nil
}

func selectArticles() sq.SelectBuilder {
	return psql.Select(articleColumns...).From(articlesTable)
}

func existsQuery(url string) sq.SelectBuilder {
	return psql.Select("1").From(articlesTable).Where(sq.Eq{"url": url}).Limit(1)
}

func insertQuery(article domain.StoredArticle) sq.InsertBuilder {
	var createdAt *time.Time
	if article.CreatedAt != nil {
		t := article.CreatedAt.UTC()
		createdAt = &t
	}
	return psql.Insert(articlesTable).
		Columns("source_name", "title", "summary", "url", "category_id", "created_at").
		Values(article.SourceName, article.Title, article.Summary, article.URL, int(article.CategoryID), createdAt).
		Suffix("ON CONFLICT (url) DO NOTHING RETURNING id, collected_at")
}

func latestQuery(limit int) sq.SelectBuilder {
	if limit <= 0 {
		limit = defaultPage
	}
	return selectArticles().OrderBy("collected_at DESC", "id DESC").Limit(uint64(limit))
}

func categoryQuery(category domain.CategoryID, page, size int) sq.SelectBuilder {
	return paginate(selectArticles().Where(sq.Eq{"category_id": int(category)}), page, size)
}

func searchQuery(term string, page, size int) sq.SelectBuilder {
	pattern := "%" + escapeLike(strings.TrimSpace(term)) + "%"
	return paginate(selectArticles().Where(sq.Or{
		sq.ILike{"title": pattern},
		sq.ILike{"summary": pattern},
	}), page, size)
}

func paginate(builder sq.SelectBuilder, page, size int) sq.SelectBuilder {
	page, size = normalizePage(page, size)
	return builder.
		OrderBy("collected_at DESC", "id DESC").
		Limit(uint64(size)).
		Offset(uint64(page * size))
}

func normalizePage(page, size int) (int, int) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = defaultPage
	}
	return page, size
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}
