package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsCollector/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *GeminiClient {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewGeminiClient(config.GeminiConfig{
		Endpoint: server.URL + "/v1beta/models",
		Model:    "gemini-test",
		APIKey:   "key-123",
	})
}

func TestGenerateSendsEnvelope(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "key-123", r.Header.Get("x-goog-api-key"))

		raw, err := io.ReadAll(r.Body)
		assert.NoError(t, err)

		var body map[string]any
		if !assert.NoError(t, json.Unmarshal(raw, &body)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		contents := body["contents"].([]any)
		parts := contents[0].(map[string]any)["parts"].([]any)
		assert.Equal(t, "summarize this", parts[0].(map[string]any)["text"])
		thinking := body["generationConfig"].(map[string]any)["thinkingConfig"].(map[string]any)
		assert.EqualValues(t, 0, thinking["thinkingBudget"])

		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"A short summary."}]}}]}`))
	})

	resp := client.Generate(context.Background(), "summarize this")
	require.NoError(t, resp.Err)
	assert.Equal(t, OutcomeSuccess, resp.Outcome)
	assert.True(t, resp.HasContent)
	assert.Equal(t, "A short summary.", resp.Text)
}

func TestGenerateClassifiesErrors(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		status  int
		body    string
		outcome Outcome
	}{
		"overloaded": {
			status:  http.StatusServiceUnavailable,
			body:    `{"error":{"code":503,"message":"The model is overloaded. Please try again later.","status":"UNAVAILABLE"}}`,
			outcome: OutcomeRetryable,
		},
		"short marker": {
			status:  http.StatusTooManyRequests,
			body:    `model overloaded`,
			outcome: OutcomeRetryable,
		},
		"bad request": {
			status:  http.StatusBadRequest,
			body:    `{"error":{"message":"Invalid JSON payload"}}`,
			outcome: OutcomeFatal,
		},
		"unauthorized": {
			status:  http.StatusForbidden,
			body:    `{"error":{"message":"API key not valid"}}`,
			outcome: OutcomeFatal,
		},
		"server error without marker": {
			status:  http.StatusInternalServerError,
			body:    `internal`,
			outcome: OutcomeFatal,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})

			resp := client.Generate(context.Background(), "prompt")
			assert.Equal(t, tc.outcome, resp.Outcome)
			assert.Equal(t, tc.status, resp.StatusCode)
			require.Error(t, resp.Err)
		})
	}
}

func TestGenerateMisconfigured(t *testing.T) {
	t.Parallel()

	client := NewGeminiClient(config.GeminiConfig{Endpoint: "https://example.com", Model: "m"})
	resp := client.Generate(context.Background(), "prompt")
	assert.Equal(t, OutcomeFatal, resp.Outcome)
	require.Error(t, resp.Err)
}

func TestExtractText(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		raw  string
		text string
		ok   bool
	}{
		"first part":     {raw: `{"candidates":[{"content":{"parts":[{"text":"one"},{"text":"two"}]}},{"content":{"parts":[{"text":"three"}]}}]}`, text: "one", ok: true},
		"no candidates":  {raw: `{"candidates":[]}`},
		"missing field":  {raw: `{"promptFeedback":{"blockReason":"SAFETY"}}`},
		"no parts":       {raw: `{"candidates":[{"content":{"parts":[]}}]}`},
		"no content":     {raw: `{"candidates":[{"finishReason":"SAFETY"}]}`},
		"malformed json": {raw: `{"candidates":[`},
		"wrong shape":    {raw: `{"candidates":"nope"}`},
	}

	for name, tc := range tests {
		text, ok := ExtractText([]byte(tc.raw))
		assert.Equal(t, tc.ok, ok, name)
		assert.Equal(t, tc.text, text, name)
	}
}

func TestIsOverloaded(t *testing.T) {
	t.Parallel()

	assert.True(t, IsOverloaded("503: The model is overloaded.", config.DefaultOverloadMarkers))
	assert.True(t, IsOverloaded("model overloaded", config.DefaultOverloadMarkers))
	assert.False(t, IsOverloaded("quota exceeded", config.DefaultOverloadMarkers))
	assert.False(t, IsOverloaded("anything", []string{""}))
}

func TestNewGeminiClientOverloadMarkers(t *testing.T) {
	t.Parallel()

	client := NewGeminiClient(config.GeminiConfig{})
	assert.Equal(t, config.DefaultOverloadMarkers, client.overloadMarkers)

	client = NewGeminiClient(config.Default().Gemini)
	assert.Equal(t, config.DefaultOverloadMarkers, client.overloadMarkers)

	custom := []string{"capacity exhausted"}
	client = NewGeminiClient(config.GeminiConfig{OverloadMarkers: custom})
	assert.Equal(t, custom, client.overloadMarkers)
}
