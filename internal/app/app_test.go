package app

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsCollector/internal/config"
	"NewsCollector/internal/logging"
	"NewsCollector/internal/usecase"
)

func newsServer(t *testing.T) *httptest.Server {
	t.Helper()

	var server *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/rss/economy", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprintf(w, `<?xml version="1.0"?><rss version="2.0"><channel><title>Economy</title>
<item><title>Rates rise</title><link>%[1]s/a/1</link><description>Bank lifts rates.</description></item>
<item><link>%[1]s/a/untitled</link><description>no title</description></item>
</channel></rss>`, server.URL)
	})
	mux.HandleFunc("/rss/markets", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprintf(w, `<?xml version="1.0"?><rss version="2.0"><channel><title>Markets</title>
<item><title>Rates rise (markets)</title><link>%[1]s/a/1</link><description>dup</description></item>
<item><title>Stocks slip</title><link>%[1]s/a/2</link><description>Index falls.</description></item>
</channel></rss>`, server.URL)
	})
	mux.HandleFunc("/rss/broken", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	mux.HandleFunc("/a/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintf(w, `<html><body><article>Full body for %s with enough words.</article></body></html>`, r.URL.Path)
	})
	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func geminiServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/test-model:generateContent"))
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Generated summary."}]}}]}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func testConfig(news, gemini *httptest.Server) config.Config {
	cfg := config.Default()
	cfg.Fetcher.HostInterval = 0
	cfg.Gemini.Endpoint = gemini.URL + "/v1beta/models"
	cfg.Gemini.Model = "test-model"
	cfg.Gemini.APIKey = "test-key"
	cfg.Feeds = []config.FeedConfig{
		{URL: news.URL + "/rss/economy", Category: "경제", Source: "daily"},
		{URL: news.URL + "/rss/markets", Category: "증권", Source: "wire"},
		{URL: news.URL + "/rss/broken", Category: "정치", Source: "down"},
	}
	return cfg
}

func TestApplicationCollectEndToEnd(t *testing.T) {
	t.Parallel()

	var geminiCalls atomic.Int32
	news := newsServer(t)
	gemini := geminiServer(t, &geminiCalls)
	ctx := context.Background()

	application, err := New(ctx, testConfig(news, gemini), logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.Close() })

	message, err := application.Collect(ctx)
	require.NoError(t, err)
	assert.Equal(t, usecase.CompletionMessage, message)

	latest, err := application.Queries().Latest(ctx, 10)
	require.NoError(t, err)
	require.Len(t, latest, 2)

	byURL := map[string]usecase.ArticleView{}
	for _, view := range latest {
		byURL[strings.TrimPrefix(view.URL, news.URL)] = view
		assert.Equal(t, "Generated summary.", view.Summary)
	}
	require.Contains(t, byURL, "/a/1")
	require.Contains(t, byURL, "/a/2")
	assert.Equal(t, "markets", byURL["/a/2"].Category)
	assert.NotContains(t, byURL, "/a/untitled")

	firstRunCalls := geminiCalls.Load()
	assert.GreaterOrEqual(t, firstRunCalls, int32(2))

	_, err = application.Collect(ctx)
	require.NoError(t, err)
	again, err := application.Queries().Latest(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, again, 2)
	assert.Equal(t, firstRunCalls, geminiCalls.Load())
}

func TestApplicationCollectCategory(t *testing.T) {
	t.Parallel()

	var geminiCalls atomic.Int32
	news := newsServer(t)
	gemini := geminiServer(t, &geminiCalls)
	ctx := context.Background()

	application, err := New(ctx, testConfig(news, gemini), logging.Discard())
	require.NoError(t, err)

	report, err := application.CollectCategory(ctx, "markets")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Feeds)
	assert.Equal(t, 2, report.Succeeded)

	views, err := application.Queries().ByCategory(ctx, "economy", 0, 10)
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestNewRejectsDatabaseCatalogWithoutDSN(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Catalog.Source = config.CatalogSourceDatabase

	_, err := New(context.Background(), cfg, logging.Discard())
	require.Error(t, err)
}
