package extractor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func servePage(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestExtractUsesContentSelectors(t *testing.T) {
	t.Parallel()

	server := servePage(t, http.StatusOK, `<html><body>
		<nav>Home | World</nav>
		<div class="article-body">
		  <p>The council approved the budget on Monday.</p>
		  <div class="reporter">Reporter Kim</div>
		  <script>track()</script>
		  <p>Spending rises   3 percent.</p>
		</div>
	</body></html>`)

	text, err := New(server.Client(), 0, nil).Extract(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "The council approved the budget on Monday. Spending rises 3 percent.", text)
}

func TestExtractTruncates(t *testing.T) {
	t.Parallel()

	server := servePage(t, http.StatusOK, `<article>`+strings.Repeat("가", 50)+`</article>`)

	text, err := New(server.Client(), 10, nil).Extract(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("가", 10), text)
}

func TestExtractAcceptsAnySuccessStatus(t *testing.T) {
	t.Parallel()

	server := servePage(t, http.StatusNonAuthoritativeInfo, `<article>Cached copy of the story.</article>`)

	text, err := New(server.Client(), 0, nil).Extract(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "Cached copy of the story.", text)
}

func TestExtractHTTPError(t *testing.T) {
	t.Parallel()

	server := servePage(t, http.StatusForbidden, "denied")

	_, err := New(server.Client(), 0, nil).Extract(context.Background(), server.URL)
	require.Error(t, err)
}

func TestExtractEmptyPage(t *testing.T) {
	t.Parallel()

	server := servePage(t, http.StatusOK, `<html><body></body></html>`)

	_, err := New(server.Client(), 0, nil).Extract(context.Background(), server.URL)
	require.Error(t, err)
}
