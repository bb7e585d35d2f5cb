package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"codeberg.org/readeck/go-readability/v2"
	"github.com/PuerkitoBio/goquery"

	"NewsCollector/internal/logging"
	"NewsCollector/internal/ports"
)

const (
	contentSelectors = "article, .article, .article-body, .article-content, .news-content, .entry-content, " +
		"#article-body, .news_content, .article_content, .articleBody, .article_view, #articleBody, #newsContent"
	noiseSelectors = "script, style, iframe, .reporter, .share, .social, .related, .recommend, " +
		".copyright, .ad, .advertisement, .banner"

	maxPageBytes     = 5 << 20
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// ErrNoContent is returned when a page has no recognizable article body.
var ErrNoContent = errors.New("article body not found")

// Extractor downloads article pages and pulls out their main text.
type Extractor struct {
	client   *http.Client
	maxChars int
	logger   *slog.Logger
}

var _ ports.ContentExtractor = (*Extractor)(nil)

// New wires an HTTP client; maxChars defaults to 15000.
func New(client *http.Client, maxChars int, log *slog.Logger) *Extractor {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if maxChars <= 0 {
		maxChars = 15000
	}
	return &Extractor{client: client, maxChars: maxChars, logger: logging.OrDiscard(log)}
}

// Extract returns the article body text of the page at articleURL, truncated to maxChars.
func (e *Extractor) Extract(ctx context.Context, articleURL string) (string, error) {
	page, err := e.fetchPage(ctx, articleURL)
	if err != nil {
		return "", err
	}

	text, err := extractText(page)
	if err != nil {
		e.logger.Debug("article body not found", "url", articleURL)
		return "", err
	}

	text = truncate(text, e.maxChars)
	e.logger.Debug("article body extracted", "url", articleURL, "chars", len([]rune(text)))
	return text, nil
}

func (e *Extractor) fetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("page %s returned %s", pageURL, resp.Status)
	}

	page, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("read page: %w", err)
	}
	return page, nil
}

func extractText(page []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("parse document: %w", err)
	}

	content := doc.Find(contentSelectors)
	if content.Length() > 0 {
		content.Find(noiseSelectors).Remove()
		if text := collapse(content.First().Text()); text != "" {
			return text, nil
		}
	}

	article, err := readability.FromReader(bytes.NewReader(page), nil)
	if err != nil {
		return "", ErrNoContent
	}
	var buf strings.Builder
	if err := article.RenderText(&buf); err != nil {
		return "", ErrNoContent
	}
	if text := collapse(buf.String()); text != "" {
		return text, nil
	}
	return "", ErrNoContent
}

func collapse(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func truncate(text string, maxChars int) string {
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	return string(runes[:maxChars])
}
